// SPDX-License-Identifier: MIT
package analysis

import (
	"fmt"
	"strings"

	dspfft "github.com/mjibson/go-dsp/fft"
	"gonum.org/v1/gonum/dsp/fourier"
)

// Backend selects the real-input FFT implementation.
type Backend string

const (
	BackendGonum Backend = "gonum"
	BackendGoDSP Backend = "go-dsp"
)

// ParseBackend converts a config value to a Backend.
func ParseBackend(name string) (Backend, error) {
	switch Backend(strings.ToLower(strings.TrimSpace(name))) {
	case "", BackendGonum:
		return BackendGonum, nil
	case BackendGoDSP, "godsp":
		return BackendGoDSP, nil
	default:
		return BackendGonum, fmt.Errorf("unknown FFT backend: '%s'", name)
	}
}

// transformer computes the one-sided transform of a real sequence into dst,
// which holds len(seq)/2+1 bins. Implementations are not required to be safe
// for concurrent use.
type transformer interface {
	Coefficients(dst []complex128, seq []float64) []complex128
}

// newTransformer returns a constructor so each pooled workspace owns its own
// instance; gonum's FFT keeps internal scratch space.
func newTransformer(b Backend, size int) (func() transformer, error) {
	switch b {
	case BackendGonum:
		return func() transformer { return fourier.NewFFT(size) }, nil
	case BackendGoDSP:
		return func() transformer { return goDSP{} }, nil
	default:
		return nil, fmt.Errorf("unsupported FFT backend %q", b)
	}
}

// goDSP adapts mjibson/go-dsp, which returns the full two-sided spectrum.
type goDSP struct{}

func (goDSP) Coefficients(dst []complex128, seq []float64) []complex128 {
	full := dspfft.FFTReal(seq)
	bins := len(seq)/2 + 1
	if cap(dst) < bins {
		dst = make([]complex128, bins)
	}
	dst = dst[:bins]
	copy(dst, full[:bins])
	return dst
}
