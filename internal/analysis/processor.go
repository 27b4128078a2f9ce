// SPDX-License-Identifier: MIT
package analysis

// Series is an ordered sequence of (x, y) points ready to be plotted:
// (frequency, dB) for spectra, (time, amplitude) for waveforms.
// Series values are immutable once returned by a Processor.
type Series interface {
	Kind() string
	Len() int
	Point(i int) (x, y float64)
	// Axes returns the backing slices. Callers must not modify them.
	Axes() (x, y []float64)
}

// Processor turns one captured frame into a Series. Implementations must be
// safe to call from the audio callback and hold no state between calls
// other than values fixed at construction.
type Processor interface {
	// Process pads or truncates frame to Size() samples and analyzes it.
	Process(frame []float32) Series
	// Blank is the series shown before the first frame arrives.
	Blank() Series
	// Size is the configured frame length in samples.
	Size() int
}

// Series kinds.
const (
	KindSpectrum = "spectrum"
	KindWaveform = "waveform"
)

// fit copies frame into dst as float64, zero-padding when frame is short
// and dropping trailing samples when it is long.
func fit(dst []float64, frame []float32) {
	n := min(len(frame), len(dst))
	for i := range n {
		dst[i] = float64(frame[i])
	}
	clear(dst[n:])
}
