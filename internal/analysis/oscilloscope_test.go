// SPDX-License-Identifier: MIT
package analysis

import (
	"testing"

	"audioscope/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewOscilloscope_Invalid(t *testing.T) {
	_, err := NewOscilloscope(0, 1024)
	assert.Error(t, err)
	_, err = NewOscilloscope(44100, 0)
	assert.Error(t, err)
}

func TestCapture_TimeAxisAndLength(t *testing.T) {
	o, err := NewOscilloscope(testSampleRate, 1024)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   int
	}{
		{"exact", 1024},
		{"short is padded", 100},
		{"long is truncated", 3000},
		{"empty", 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			frame := utils.GenerateSineWave(tt.in, testSampleRate, 440, 0.8)
			w := o.Capture(frame)
			require.Equal(t, 1024, w.Len())

			for i := 0; i < w.Len(); i++ {
				x, y := w.Point(i)
				require.Equal(t, float64(i)/testSampleRate, x)
				if i < tt.in {
					require.Equal(t, float64(frame[i]), y)
				} else {
					require.Zero(t, y, "sample %d should be zero-padded", i)
				}
			}
		})
	}
}

func TestOscilloscope_Blank(t *testing.T) {
	o, err := NewOscilloscope(testSampleRate, 256)
	require.NoError(t, err)

	b := o.Blank()
	assert.Equal(t, KindWaveform, b.Kind())
	_, y := b.Axes()
	assert.Equal(t, make([]float64, 256), y)
	assert.Equal(t, 256, o.Size())
}

func TestParseWindowFunc(t *testing.T) {
	tests := []struct {
		in      string
		want    WindowFunc
		wantErr bool
	}{
		{"hann", Hann, false},
		{"Hanning", Hann, false},
		{"", Hann, false},
		{"BLACKMAN", Blackman, false},
		{"hamming", Hamming, false},
		{"nuttall", Nuttall, false},
		{"kaiser", Hann, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseWindowFunc(tt.in)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantErr, err != nil)
		})
	}
}

func TestParseBackend(t *testing.T) {
	b, err := ParseBackend("GO-DSP")
	require.NoError(t, err)
	assert.Equal(t, BackendGoDSP, b)

	b, err = ParseBackend("")
	require.NoError(t, err)
	assert.Equal(t, BackendGonum, b)

	_, err = ParseBackend("fftw")
	assert.Error(t, err)
}
