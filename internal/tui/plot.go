// SPDX-License-Identifier: MIT
package tui

import (
	"fmt"
	"math"
	"strings"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/config"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#25A065")).
			Padding(0, 1).
			Bold(true)

	syntheticStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5")).
			Background(lipgloss.Color("#C0392B")).
			Padding(0, 1).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFDF5"))

	axisStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#7D7D7D"))

	highlightStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#25A065")).
			Bold(true)
)

// Layout: title, blank, plot, axis, readout, blank, help.
const (
	chromeRows  = 6
	labelWidth  = 6
	minPlotRows = 4
)

type keyMap struct {
	Quit     key.Binding
	LogScale key.Binding
	Pause    key.Binding
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.LogScale, k.Pause, k.Quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{k.ShortHelp()}
}

var defaultKeys = keyMap{
	Quit: key.NewBinding(
		key.WithKeys("q", "ctrl+c"),
		key.WithHelp("q", "quit"),
	),
	LogScale: key.NewBinding(
		key.WithKeys("l"),
		key.WithHelp("l", "log/linear axis"),
	),
	Pause: key.NewBinding(
		key.WithKeys("p"),
		key.WithHelp("p", "pause"),
	),
}

// snapshotMsg carries a snapshot from the display loop into the program.
type snapshotMsg struct {
	snapshot *audio.Snapshot
}

// PlotModel is the Bubble Tea model for the live spectrum or waveform view.
type PlotModel struct {
	title    string
	mode     string
	snapshot *audio.Snapshot

	width, height int
	ready         bool

	logScale bool
	paused   bool

	keys keyMap
	help help.Model
}

// NewPlotModel creates a model for the given display mode, showing initial
// until the first snapshot arrives.
func NewPlotModel(title string, display config.DisplayConfig, initial *audio.Snapshot) PlotModel {
	return PlotModel{
		title:    title,
		mode:     display.Mode,
		snapshot: initial,
		logScale: display.LogFrequency,
		keys:     defaultKeys,
		help:     help.New(),
	}
}

// Init initializes the Bubble Tea model
func (m PlotModel) Init() tea.Cmd {
	return nil
}

// Update handles input and new snapshots.
func (m PlotModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.help.Width = msg.Width
		m.ready = true

	case snapshotMsg:
		if !m.paused {
			m.snapshot = msg.snapshot
		}

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, m.keys.LogScale):
			m.logScale = !m.logScale
		case key.Matches(msg, m.keys.Pause):
			m.paused = !m.paused
		}
	}

	return m, nil
}

// View renders the UI
func (m PlotModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	plotWidth := max(m.width-labelWidth-1, 1)
	plotHeight := max(m.height-chromeRows, minPlotRows)

	var sb strings.Builder
	sb.WriteString(m.header())
	sb.WriteString("\n\n")

	switch series := m.snapshot.Series.(type) {
	case *analysis.Spectrum:
		rows := RenderSpectrum(series, plotWidth, plotHeight, m.logScale)
		writePlot(&sb, rows, func(r int) string {
			return levelLabel(r, len(rows))
		})
		maxFreq := MinFreq * 2
		if n := len(series.Frequencies); n > 0 {
			maxFreq = math.Max(series.Frequencies[n-1], maxFreq)
		}
		sb.WriteString(strings.Repeat(" ", labelWidth+1))
		sb.WriteString(axisStyle.Render(frequencyAxis(plotWidth, maxFreq, m.logScale)))
		sb.WriteString("\n")
		sb.WriteString(highlightStyle.Render(spectrumReadout(series)))

	case *analysis.Waveform:
		rows := RenderWaveform(series, plotWidth, plotHeight)
		writePlot(&sb, rows, func(r int) string {
			return amplitudeLabel(r, len(rows))
		})
		sb.WriteString(strings.Repeat(" ", labelWidth+1))
		sb.WriteString(axisStyle.Render(timeAxis(series)))
		sb.WriteString("\n")
		sb.WriteString(highlightStyle.Render(waveformReadout(series)))

	default:
		sb.WriteString(infoStyle.Render(fmt.Sprintf("%s: %d points", m.snapshot.Series.Kind(), m.snapshot.Series.Len())))
	}

	sb.WriteString("\n\n")
	sb.WriteString(m.help.View(m.keys))
	return sb.String()
}

func (m PlotModel) header() string {
	parts := []string{titleStyle.Render(m.title)}
	if m.snapshot.Synthetic {
		parts = append(parts, syntheticStyle.Render("SYNTHETIC"))
	}

	status := m.mode
	if m.mode == config.ModeSpectrum {
		if m.logScale {
			status += " · log"
		} else {
			status += " · linear"
		}
	}
	status += fmt.Sprintf(" · frame %d", m.snapshot.Seq)
	if m.paused {
		status += " · paused"
	}
	parts = append(parts, infoStyle.Render(status))

	return strings.Join(parts, " ")
}

func writePlot(sb *strings.Builder, rows []string, label func(r int) string) {
	for r, row := range rows {
		sb.WriteString(axisStyle.Render(fmt.Sprintf("%*s", labelWidth, label(r))))
		sb.WriteString(axisStyle.Render("│"))
		sb.WriteString(row)
		sb.WriteString("\n")
	}
}

// levelLabel labels the top, middle and bottom rows of the dB scale.
func levelLabel(r, rows int) string {
	switch r {
	case 0:
		return fmt.Sprintf("%.0f", MaxLevel)
	case rows / 2:
		return fmt.Sprintf("%.0f", (MaxLevel+MinLevel)/2)
	case rows - 1:
		return fmt.Sprintf("%.0f", MinLevel)
	}
	return ""
}

func amplitudeLabel(r, rows int) string {
	switch r {
	case 0:
		return "1"
	case rowOf(0, rows):
		return "0"
	case rows - 1:
		return "-1"
	}
	return ""
}

func timeAxis(w *analysis.Waveform) string {
	if len(w.Times) == 0 {
		return ""
	}
	return fmt.Sprintf("0 … %.1f ms", w.Times[len(w.Times)-1]*1000)
}

func spectrumReadout(s *analysis.Spectrum) string {
	peaks := s.Peaks(1)
	if len(peaks) == 0 {
		return "Peak: none"
	}
	f, level := s.Point(peaks[0])
	return fmt.Sprintf("Peak: %.1f Hz  %.1f dB", f, level)
}

func waveformReadout(w *analysis.Waveform) string {
	var peak, sumSq float64
	for _, v := range w.Samples {
		peak = math.Max(peak, math.Abs(v))
		sumSq += v * v
	}
	var rms float64
	if n := len(w.Samples); n > 0 {
		rms = math.Sqrt(sumSq / float64(n))
	}
	return fmt.Sprintf("Peak: %.3f  RMS: %.3f", peak, rms)
}
