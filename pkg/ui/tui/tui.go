package tui

import (
	"context"
	"errors"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"bottagger/pkg/scoring"
	"bottagger/pkg/ui"
)

// ErrQuit is returned by Run when the user closed the dashboard.
var ErrQuit = errors.New("dashboard closed")

// TUI represents the terminal user interface. It satisfies ui.Display.
type TUI struct {
	program *tea.Program
	model   *Model
}

var _ ui.Display = (*TUI)(nil)

// NewTUI creates a dashboard for source showing the last recent annotations.
func NewTUI(source ui.StatsSource, recent int, opts ...tea.ProgramOption) *TUI {
	model := NewModel(source, recent)
	opts = append([]tea.ProgramOption{tea.WithAltScreen()}, opts...)

	return &TUI{
		program: tea.NewProgram(model, opts...),
		model:   model,
	}
}

// Model exposes the dashboard state.
func (t *TUI) Model() *Model { return t.model }

// Run shows the dashboard until ctx is done or the user quits.
func (t *TUI) Run(ctx context.Context) error {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			t.program.Quit()
		case <-done:
		}
	}()

	if _, err := t.program.Run(); err != nil {
		return fmt.Errorf("dashboard: %w", err)
	}
	if ctx.Err() == nil {
		return ErrQuit
	}
	return nil
}

// Observer callbacks update the shared model directly so that scheduler
// goroutines never block on the program's message loop.

func (t *TUI) OnThrottled(until time.Time) { t.model.SetThrottled(until) }

func (t *TUI) OnResumed() { t.model.ClearThrottled() }

func (t *TUI) OnAnnotated(username string, r scoring.Result, hidden bool) {
	t.model.AddAnnotation(username, r, hidden)
}

func (t *TUI) OnDropped(username string, err error) {
	t.model.AddLogMessage("ERROR", "u/"+username+": "+err.Error())
}
