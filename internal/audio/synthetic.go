// SPDX-License-Identifier: MIT
package audio

import (
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
)

// Tone is one sinusoidal component of the synthetic signal.
type Tone struct {
	Frequency float64 // Hz
	Amplitude float64 // Peak amplitude, full scale = 1
}

// Default synthetic signal: two tones plus Gaussian noise.
var DefaultTones = []Tone{
	{Frequency: 440, Amplitude: 0.6},
	{Frequency: 1000, Amplitude: 0.3},
}

// DefaultNoise is the standard deviation of the additive noise.
const DefaultNoise = 0.1

// Synthetic produces frames of a known test signal when no microphone is
// available. Every frame restarts at t = 0, so the tones carry no phase from
// one frame to the next; only the noise differs between frames.
type Synthetic struct {
	sampleRate float64
	size       int
	tones      []Tone
	noise      float64

	mu  sync.Mutex
	rng *rand.Rand
}

// NewSynthetic creates a generator of size-sample frames. Two generators
// with the same seed produce identical frame sequences.
func NewSynthetic(sampleRate float64, size int, seed uint64) (*Synthetic, error) {
	if sampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", sampleRate)
	}
	if size < 1 {
		return nil, fmt.Errorf("frame size must be positive, got %d", size)
	}
	return &Synthetic{
		sampleRate: sampleRate,
		size:       size,
		tones:      DefaultTones,
		noise:      DefaultNoise,
		rng:        rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}, nil
}

// Generate returns one frame: the tones sampled at t = i/sampleRate plus
// N(0, noise²) per sample, rounded to float32.
func (s *Synthetic) Generate() []float32 {
	s.mu.Lock()
	defer s.mu.Unlock()

	frame := make([]float32, s.size)
	for i := range frame {
		frame[i] = float32(s.tone(i) + s.noise*s.rng.NormFloat64())
	}
	return frame
}

// Tones returns the deterministic part of the signal, without noise.
func (s *Synthetic) Tones() []float32 {
	frame := make([]float32, s.size)
	for i := range frame {
		frame[i] = float32(s.tone(i))
	}
	return frame
}

// Size returns the frame length in samples.
func (s *Synthetic) Size() int { return s.size }

func (s *Synthetic) tone(i int) float64 {
	t := float64(i) / s.sampleRate
	var v float64
	for _, tone := range s.tones {
		v += tone.Amplitude * math.Sin(2*math.Pi*tone.Frequency*t)
	}
	return v
}
