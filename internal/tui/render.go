// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"audioscope/internal/analysis"
)

// Plot ranges.
const (
	MinLevel = analysis.BlankLevel // dB
	MaxLevel = 0.0                 // dB
	MinFreq  = 20.0                // Hz, lower edge of the spectrum view
)

// Eighth blocks from one eighth to full.
var bars = []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

// columnBand returns the frequency band [lo, hi) shown by column c of width
// columns spanning [minFreq, maxFreq].
func columnBand(c, width int, minFreq, maxFreq float64, logScale bool) (lo, hi float64) {
	pos := func(i int) float64 {
		t := float64(i) / float64(width)
		if logScale {
			return minFreq * math.Pow(maxFreq/minFreq, t)
		}
		return minFreq + t*(maxFreq-minFreq)
	}
	return pos(c), pos(c + 1)
}

// columnLevel is the strongest level among the bins inside [lo, hi), or the
// bin nearest the band center when the band is narrower than one bin.
func columnLevel(s *analysis.Spectrum, lo, hi float64) float64 {
	if len(s.Levels) < 2 {
		if len(s.Levels) == 1 {
			return s.Levels[0]
		}
		return MinLevel
	}
	step := s.Frequencies[1] - s.Frequencies[0]
	last := len(s.Levels) - 1
	clamp := func(k int) int { return max(0, min(last, k)) }

	k0 := clamp(int(math.Ceil(lo / step)))
	k1 := clamp(int(math.Ceil(hi/step)) - 1)
	if k1 < k0 {
		return s.Levels[clamp(int(math.Round((lo+hi)/2/step)))]
	}

	level := s.Levels[k0]
	for k := k0 + 1; k <= k1; k++ {
		level = math.Max(level, s.Levels[k])
	}
	return level
}

// RenderSpectrum draws the spectrum as height rows of width bar columns.
// Levels are clipped to MinLevel..MaxLevel.
func RenderSpectrum(s *analysis.Spectrum, width, height int, logScale bool) []string {
	if width < 1 || height < 1 {
		return nil
	}
	maxFreq := MinFreq * 2
	if n := len(s.Frequencies); n > 0 {
		maxFreq = math.Max(s.Frequencies[n-1], maxFreq)
	}

	// Bar height in eighths of a row, per column.
	heights := make([]int, width)
	for c := range heights {
		lo, hi := columnBand(c, width, MinFreq, maxFreq, logScale)
		frac := (columnLevel(s, lo, hi) - MinLevel) / (MaxLevel - MinLevel)
		frac = math.Max(0, math.Min(1, frac))
		heights[c] = int(math.Round(frac * float64(height*8)))
	}

	rows := make([]string, height)
	line := make([]rune, width)
	for r := range rows {
		base := (height - 1 - r) * 8
		for c, h := range heights {
			switch filled := h - base; {
			case filled >= 8:
				line[c] = bars[7]
			case filled <= 0:
				line[c] = ' '
			default:
				line[c] = bars[filled-1]
			}
		}
		rows[r] = string(line)
	}
	return rows
}

// RenderWaveform draws the samples as a dot plot over -1..1 with a zero
// line. Each column covers an equal share of the samples and is drawn from
// its minimum to its maximum.
func RenderWaveform(w *analysis.Waveform, width, height int) []string {
	if width < 1 || height < 1 {
		return nil
	}

	grid := make([][]rune, height)
	for r := range grid {
		grid[r] = []rune(strings.Repeat(" ", width))
	}
	zero := rowOf(0, height)
	for c := range grid[zero] {
		grid[zero][c] = '─'
	}

	n := len(w.Samples)
	if n == 0 {
		return joinRows(grid)
	}
	for c := 0; c < width; c++ {
		i0 := c * n / width
		i1 := max(i0+1, (c+1)*n/width)
		lo, hi := w.Samples[i0], w.Samples[i0]
		for _, v := range w.Samples[i0:min(i1, n)] {
			lo, hi = math.Min(lo, v), math.Max(hi, v)
		}
		top, bottom := rowOf(hi, height), rowOf(lo, height)
		for r := top; r <= bottom; r++ {
			grid[r][c] = '•'
		}
	}
	return joinRows(grid)
}

// rowOf maps an amplitude in -1..1 to a row, 0 at the top.
func rowOf(v float64, height int) int {
	v = math.Max(-1, math.Min(1, v))
	return int(math.Round((1 - v) / 2 * float64(height-1)))
}

func joinRows(grid [][]rune) []string {
	rows := make([]string, len(grid))
	for r, line := range grid {
		rows[r] = string(line)
	}
	return rows
}

// formatFreq shortens frequencies for axis labels: 440, 1.2k, 20k.
func formatFreq(f float64) string {
	switch {
	case f >= 10000:
		return fmt.Sprintf("%.0fk", f/1000)
	case f >= 1000:
		return fmt.Sprintf("%.1fk", f/1000)
	default:
		return fmt.Sprintf("%.0f", f)
	}
}

// frequencyAxis places labels under the spectrum columns about every eighth
// of the width.
func frequencyAxis(width int, maxFreq float64, logScale bool) string {
	line := []rune(strings.Repeat(" ", width))
	step := max(width/8, 6)
	for c := 0; c < width; c += step {
		lo, _ := columnBand(c, width, MinFreq, maxFreq, logScale)
		label := []rune(formatFreq(lo))
		if c+len(label) > width {
			break
		}
		copy(line[c:], label)
	}
	return string(line)
}
