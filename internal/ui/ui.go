package ui

import (
	"context"
	"errors"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/five82/moor/internal/logstream"
	"github.com/five82/moor/internal/resource"
	"github.com/five82/moor/internal/state"
)

// Engine is the state and intent surface the dashboard renders and drives.
type Engine interface {
	Snapshot() state.Snapshot
	Logs() logstream.View
	Changes() <-chan struct{}

	Select(kind resource.Kind, id string) error
	Move(kind resource.Kind, delta int) error
	SetFilter(containerID, text string)
	PauseLogs()
	ResumeLogs()
	SetSticky(sticky bool)
}

// Options configure the dashboard.
type Options struct {
	SocketPath string
	Version    string
}

// Run shows the dashboard until the user quits or ctx is cancelled.
func Run(ctx context.Context, engine Engine, opts Options) error {
	p := tea.NewProgram(New(engine, opts), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return err
	}
	return nil
}
