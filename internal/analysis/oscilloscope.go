// SPDX-License-Identifier: MIT
package analysis

import "fmt"

// Oscilloscope is the time-domain Processor: it normalizes the frame length
// and pairs each sample with its offset from the start of the frame.
type Oscilloscope struct {
	sampleRate float64
	times      []float64 // Sample i -> i/sampleRate seconds.
}

var _ Processor = (*Oscilloscope)(nil)
var _ Series = (*Waveform)(nil)

// NewOscilloscope precomputes the time axis for frames of size samples.
func NewOscilloscope(sampleRate float64, size int) (*Oscilloscope, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if size < 1 {
		return nil, fmt.Errorf("frame size must be positive, got %d", size)
	}
	times := make([]float64, size)
	for i := range times {
		times[i] = float64(i) / sampleRate
	}
	return &Oscilloscope{sampleRate: sampleRate, times: times}, nil
}

// Capture converts one frame into a Waveform of exactly Size samples.
func (o *Oscilloscope) Capture(frame []float32) *Waveform {
	samples := make([]float64, len(o.times))
	fit(samples, frame)
	return &Waveform{Times: o.times, Samples: samples}
}

func (o *Oscilloscope) Process(frame []float32) Series {
	return o.Capture(frame)
}

// Blank returns a silent waveform.
func (o *Oscilloscope) Blank() Series {
	return &Waveform{Times: o.times, Samples: make([]float64, len(o.times))}
}

func (o *Oscilloscope) Size() int { return len(o.times) }

// Waveform is one frame in the time domain.
type Waveform struct {
	Times   []float64 `json:"x"` // Seconds from frame start; shared, read-only.
	Samples []float64 `json:"y"` // Amplitude, nominally -1..1.
}

func (w *Waveform) Kind() string { return KindWaveform }

func (w *Waveform) Len() int { return len(w.Samples) }

func (w *Waveform) Point(i int) (x, y float64) {
	return w.Times[i], w.Samples[i]
}

func (w *Waveform) Axes() (x, y []float64) {
	return w.Times, w.Samples
}
