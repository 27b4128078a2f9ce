// SPDX-License-Identifier: MIT
package analysis

import (
	"cmp"
	"fmt"
	"math"
	"math/cmplx"
	"slices"
	"sync"

	applog "audioscope/internal/log"
)

const (
	// Epsilon is added to every magnitude before the log so silence maps to
	// a finite level (20*log10(1e-10) = -200 dB at reference 1).
	Epsilon = 1e-10

	// BlankLevel is the level shown for every bin before the first frame.
	BlankLevel = -100.0
)

// EstimatorConfig is fixed for the lifetime of an Estimator.
type EstimatorConfig struct {
	SampleRate float64    // Sample rate of the input frames (Hz).
	Size       int        // FFT size; frames are padded or truncated to it.
	Reference  float64    // Reference level; scales the epsilon floor only.
	Window     WindowFunc // Window applied before the transform.
	Backend    Backend    // FFT implementation.
}

// Estimator turns frames into decibel magnitude spectra: window, one-sided
// FFT, normalization by half the window sum, then 20*log10(mag + eps/ref).
//
// The reference level divides the epsilon floor rather than the magnitude,
// so changing it moves the noise floor and leaves signal levels alone.
//
// An Estimator is safe for concurrent use; Analyze borrows a workspace from
// a pool and never touches shared mutable state.
type Estimator struct {
	cfg         EstimatorConfig
	window      []float64 // Window coefficients, len == Size.
	scale       float64   // sum(window)/2.
	floor       float64   // Epsilon / Reference, added before the log.
	frequencies []float64 // Bin k -> k*SampleRate/Size, shared by every Spectrum.
	workspaces  sync.Pool // *workspace
}

// workspace holds the per-call buffers for one analysis.
type workspace struct {
	input  []float64    // Windowed, padded frame.
	coeffs []complex128 // One-sided FFT output, Size/2+1 bins.
	fft    transformer
}

// Compile-time checks for interface implementations.
var _ Processor = (*Estimator)(nil)
var _ Series = (*Spectrum)(nil)

// NewEstimator validates cfg and precomputes the window and frequency axis.
func NewEstimator(cfg EstimatorConfig) (*Estimator, error) {
	if cfg.SampleRate <= 0 {
		return nil, fmt.Errorf("sample rate must be positive, got %f", cfg.SampleRate)
	}
	if cfg.Size < 2 {
		return nil, fmt.Errorf("fft size must be at least 2, got %d", cfg.Size)
	}
	if cfg.Reference <= 0 {
		return nil, fmt.Errorf("reference level must be positive, got %g", cfg.Reference)
	}
	if cfg.Backend == "" {
		cfg.Backend = BackendGonum
	}

	window, err := windowCoefficients(cfg.Size, cfg.Window)
	if err != nil {
		return nil, err
	}
	var sum float64
	for _, w := range window {
		sum += w
	}
	if !(sum > 0) {
		return nil, fmt.Errorf("%v window of size %d has no energy (coefficient sum %g)", cfg.Window, cfg.Size, sum)
	}

	newFFT, err := newTransformer(cfg.Backend, cfg.Size)
	if err != nil {
		return nil, err
	}

	bins := cfg.Size/2 + 1
	frequencies := make([]float64, bins)
	for k := range frequencies {
		frequencies[k] = float64(k) * cfg.SampleRate / float64(cfg.Size)
	}

	e := &Estimator{
		cfg:         cfg,
		window:      window,
		scale:       sum / 2,
		floor:       Epsilon / cfg.Reference,
		frequencies: frequencies,
	}
	e.workspaces.New = func() any {
		return &workspace{
			input:  make([]float64, cfg.Size),
			coeffs: make([]complex128, bins),
			fft:    newFFT(),
		}
	}

	applog.With("analysis").Infof("Initializing estimator (Size: %d, SampleRate: %.1f Hz, Window: %v, Backend: %s, Reference: %g)",
		cfg.Size, cfg.SampleRate, cfg.Window, cfg.Backend, cfg.Reference)

	return e, nil
}

// Analyze computes the decibel spectrum of one frame. Frames shorter than
// Size are zero-padded and longer ones truncated. The result has Size/2+1
// bins and is never modified afterwards.
func (e *Estimator) Analyze(frame []float32) *Spectrum {
	ws := e.workspaces.Get().(*workspace)
	defer e.workspaces.Put(ws)

	fit(ws.input, frame)
	for i, w := range e.window {
		ws.input[i] *= w
	}

	ws.coeffs = ws.fft.Coefficients(ws.coeffs, ws.input)

	levels := make([]float64, len(ws.coeffs))
	for k, c := range ws.coeffs {
		levels[k] = 20 * math.Log10(cmplx.Abs(c)/e.scale+e.floor)
	}

	return &Spectrum{Frequencies: e.frequencies, Levels: levels}
}

// Process implements Processor.
func (e *Estimator) Process(frame []float32) Series {
	return e.Analyze(frame)
}

// Blank returns a flat spectrum at BlankLevel.
func (e *Estimator) Blank() Series {
	levels := make([]float64, len(e.frequencies))
	for k := range levels {
		levels[k] = BlankLevel
	}
	return &Spectrum{Frequencies: e.frequencies, Levels: levels}
}

// Size returns the configured FFT size.
func (e *Estimator) Size() int { return e.cfg.Size }

// Bins returns the number of output bins, Size/2+1.
func (e *Estimator) Bins() int { return len(e.frequencies) }

// SampleRate returns the configured sample rate (Hz).
func (e *Estimator) SampleRate() float64 { return e.cfg.SampleRate }

// Frequency returns the center frequency (Hz) of bin k, or 0 when k is out
// of range.
func (e *Estimator) Frequency(k int) float64 {
	if k < 0 || k >= len(e.frequencies) {
		return 0
	}
	return e.frequencies[k]
}

// Floor returns the level of a bin with zero magnitude.
func (e *Estimator) Floor() float64 {
	return 20 * math.Log10(e.floor)
}

// Window returns a copy of the window coefficients.
func (e *Estimator) Window() []float64 {
	return slices.Clone(e.window)
}

// Spectrum is one decibel magnitude spectrum, bins 0 through Nyquist.
type Spectrum struct {
	Frequencies []float64 `json:"x"` // Hz; shared between spectra, read-only.
	Levels      []float64 `json:"y"` // dB.
}

func (s *Spectrum) Kind() string { return KindSpectrum }

func (s *Spectrum) Len() int { return len(s.Levels) }

func (s *Spectrum) Point(i int) (x, y float64) {
	return s.Frequencies[i], s.Levels[i]
}

func (s *Spectrum) Axes() (x, y []float64) {
	return s.Frequencies, s.Levels
}

// Peaks returns the indices of the n strongest local maxima, strongest
// first. A flat spectrum has no peaks.
func (s *Spectrum) Peaks(n int) []int {
	if n <= 0 || len(s.Levels) < 2 {
		return nil
	}

	last := len(s.Levels) - 1
	var peaks []int
	for k, v := range s.Levels {
		var peak bool
		switch k {
		case 0:
			peak = v > s.Levels[1]
		case last:
			peak = v > s.Levels[k-1]
		default:
			// Plateaus report their first bin.
			peak = v > s.Levels[k-1] && v >= s.Levels[k+1]
		}
		if peak {
			peaks = append(peaks, k)
		}
	}

	slices.SortStableFunc(peaks, func(a, b int) int {
		return cmp.Compare(s.Levels[b], s.Levels[a])
	})
	if len(peaks) > n {
		peaks = peaks[:n]
	}
	return peaks
}
