// SPDX-License-Identifier: MIT
package tui

import (
	"strings"
	"testing"
	"unicode/utf8"

	"audioscope/internal/analysis"
	"audioscope/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newSpectrum(t *testing.T, frame []float32) *analysis.Spectrum {
	t.Helper()
	e, err := analysis.NewEstimator(analysis.EstimatorConfig{SampleRate: 44100, Size: 4096, Reference: 1})
	require.NoError(t, err)
	return e.Analyze(frame)
}

// columnHeight counts the non-blank cells of column c.
func columnHeight(rows []string, c int) int {
	h := 0
	for _, row := range rows {
		if []rune(row)[c] != ' ' {
			h++
		}
	}
	return h
}

func TestRenderSpectrum_Dimensions(t *testing.T) {
	s := newSpectrum(t, nil)
	for _, logScale := range []bool{true, false} {
		rows := RenderSpectrum(s, 50, 10, logScale)
		require.Len(t, rows, 10)
		for _, row := range rows {
			assert.Equal(t, 50, utf8.RuneCountInString(row))
		}
	}
	assert.Nil(t, RenderSpectrum(s, 0, 10, true))
}

func TestRenderSpectrum_BlankIsEmpty(t *testing.T) {
	e, err := analysis.NewEstimator(analysis.EstimatorConfig{SampleRate: 44100, Size: 1024, Reference: 1})
	require.NoError(t, err)

	rows := RenderSpectrum(e.Blank().(*analysis.Spectrum), 40, 8, true)
	for _, row := range rows {
		assert.Equal(t, strings.Repeat(" ", 40), row)
	}
}

func TestRenderSpectrum_ToneIsTallestColumn(t *testing.T) {
	const width, height = 80, 20
	s := newSpectrum(t, utils.GenerateSineWave(4096, 44100, 1000, 1))

	for _, logScale := range []bool{true, false} {
		rows := RenderSpectrum(s, width, height, logScale)

		want := -1
		for c := 0; c < width; c++ {
			lo, hi := columnBand(c, width, MinFreq, 22050, logScale)
			if lo <= 1000 && 1000 < hi {
				want = c
			}
		}
		require.NotEqual(t, -1, want)

		best := 0
		for c := 0; c < width; c++ {
			if columnHeight(rows, c) > columnHeight(rows, best) {
				best = c
			}
		}
		assert.InDelta(t, want, best, 1, "log=%v", logScale)
		assert.Equal(t, height, columnHeight(rows, want), "a 0 dB tone fills the column")
	}
}

func TestColumnBand(t *testing.T) {
	lo, hi := columnBand(0, 10, 20, 20000, true)
	assert.InDelta(t, 20.0, lo, 1e-9)
	assert.Greater(t, hi, lo)

	lo, _ = columnBand(10, 10, 20, 20000, true)
	assert.InDelta(t, 20000.0, lo, 1e-6)

	lo, hi = columnBand(3, 10, 0, 1000, false)
	assert.InDelta(t, 300.0, lo, 1e-9)
	assert.InDelta(t, 400.0, hi, 1e-9)
}

func TestRenderWaveform(t *testing.T) {
	scope, err := analysis.NewOscilloscope(44100, 1024)
	require.NoError(t, err)

	silent := RenderWaveform(scope.Blank().(*analysis.Waveform), 30, 9)
	require.Len(t, silent, 9)
	for r, row := range silent {
		if r == rowOf(0, 9) {
			assert.NotContains(t, row, " ", "zero row is fully drawn")
		} else {
			assert.Equal(t, strings.Repeat(" ", 30), row)
		}
	}

	full := RenderWaveform(scope.Capture(utils.GenerateSineWave(1024, 44100, 440, 1)), 30, 9)
	assert.Contains(t, full[0], "•", "positive peaks reach the top row")
	assert.Contains(t, full[8], "•", "negative peaks reach the bottom row")
}

func TestRowOf(t *testing.T) {
	assert.Equal(t, 0, rowOf(1, 11))
	assert.Equal(t, 5, rowOf(0, 11))
	assert.Equal(t, 10, rowOf(-1, 11))
	assert.Equal(t, 0, rowOf(3, 11), "clipped")
}

func TestFormatFreq(t *testing.T) {
	assert.Equal(t, "440", formatFreq(440))
	assert.Equal(t, "1.5k", formatFreq(1500))
	assert.Equal(t, "22k", formatFreq(22050))
}
