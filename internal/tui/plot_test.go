// SPDX-License-Identifier: MIT
package tui

import (
	"testing"

	"audioscope/internal/analysis"
	"audioscope/internal/audio"
	"audioscope/internal/config"
	"audioscope/pkg/utils"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestModel(t *testing.T, mode string) (PlotModel, analysis.Processor) {
	t.Helper()
	cfg := config.NewConfig()
	cfg.Display.Mode = mode
	cfg.Resolve()

	var proc analysis.Processor
	var err error
	if mode == config.ModeScope {
		proc, err = analysis.NewOscilloscope(cfg.Audio.SampleRate, cfg.Audio.FrameSize)
	} else {
		proc, err = analysis.NewEstimator(analysis.EstimatorConfig{
			SampleRate: cfg.Audio.SampleRate,
			Size:       cfg.Audio.FrameSize,
			Reference:  cfg.Analysis.Reference,
		})
	}
	require.NoError(t, err)

	m := NewPlotModel("audioscope", cfg.Display, &audio.Snapshot{Series: proc.Blank()})
	updated, _ := m.Update(tea.WindowSizeMsg{Width: 100, Height: 30})
	return updated.(PlotModel), proc
}

func keyPress(r rune) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestPlotModel_InitializingUntilSized(t *testing.T) {
	m := NewPlotModel("audioscope", config.NewConfig().Display, &audio.Snapshot{})
	assert.Equal(t, "Initializing...", m.View())
}

func TestPlotModel_SnapshotUpdatesView(t *testing.T) {
	m, proc := newTestModel(t, config.ModeSpectrum)
	assert.Contains(t, m.View(), "Peak: none")

	frame := utils.GenerateSineWave(4096, 44100, utils.BinCenter(93, 4096, 44100), 1)
	updated, _ := m.Update(snapshotMsg{&audio.Snapshot{Series: proc.Process(frame), Seq: 3, Synthetic: true}})
	view := updated.(PlotModel).View()

	assert.Contains(t, view, "Peak: 1001.3 Hz")
	assert.Contains(t, view, "SYNTHETIC")
	assert.Contains(t, view, "frame 3")
}

func TestPlotModel_PauseFreezesSnapshot(t *testing.T) {
	m, proc := newTestModel(t, config.ModeSpectrum)

	updated, _ := m.Update(keyPress('p'))
	m = updated.(PlotModel)
	require.True(t, m.paused)

	updated, _ = m.Update(snapshotMsg{&audio.Snapshot{Series: proc.Blank(), Seq: 9}})
	m = updated.(PlotModel)
	assert.Zero(t, m.snapshot.Seq)
	assert.Contains(t, m.View(), "paused")

	updated, _ = m.Update(keyPress('p'))
	updated, _ = updated.Update(snapshotMsg{&audio.Snapshot{Series: proc.Blank(), Seq: 10}})
	assert.Equal(t, uint64(10), updated.(PlotModel).snapshot.Seq)
}

func TestPlotModel_ToggleLogScale(t *testing.T) {
	m, _ := newTestModel(t, config.ModeSpectrum)
	require.True(t, m.logScale)
	assert.Contains(t, m.View(), "spectrum · log")

	updated, _ := m.Update(keyPress('l'))
	assert.False(t, updated.(PlotModel).logScale)
	assert.Contains(t, updated.View(), "spectrum · linear")
}

func TestPlotModel_Quit(t *testing.T) {
	m, _ := newTestModel(t, config.ModeScope)

	_, cmd := m.Update(keyPress('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestPlotModel_ScopeView(t *testing.T) {
	m, proc := newTestModel(t, config.ModeScope)

	updated, _ := m.Update(snapshotMsg{&audio.Snapshot{
		Series: proc.Process(utils.GenerateSineWave(1024, 44100, 440, 0.5)),
		Seq:    1,
	}})
	view := updated.(PlotModel).View()

	assert.Contains(t, view, "Peak: 0.500")
	assert.Contains(t, view, "23.2 ms")
	assert.NotContains(t, view, "SYNTHETIC")
}
