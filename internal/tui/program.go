// SPDX-License-Identifier: MIT
package tui

import (
	"context"

	"audioscope/internal/audio"
	"audioscope/internal/config"

	tea "github.com/charmbracelet/bubbletea"
)

// Program runs the plot in the terminal and receives snapshots from the
// display loop as an audio.Sink.
type Program struct {
	program *tea.Program
}

// NewProgram prepares the full-screen plot. opts are passed to Bubble Tea
// after the defaults, so tests can swap input and output.
func NewProgram(title string, display config.DisplayConfig, initial *audio.Snapshot, opts ...tea.ProgramOption) *Program {
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)
	return &Program{
		program: tea.NewProgram(NewPlotModel(title, display, initial), opts...),
	}
}

// Send hands a snapshot to the running program. It returns immediately once
// the program has exited.
func (p *Program) Send(s *audio.Snapshot) error {
	p.program.Send(snapshotMsg{snapshot: s})
	return nil
}

// Run blocks until the user quits or ctx is cancelled.
func (p *Program) Run(ctx context.Context) error {
	stop := context.AfterFunc(ctx, p.program.Quit)
	defer stop()

	_, err := p.program.Run()
	return err
}

var _ audio.Sink = (*Program)(nil)
