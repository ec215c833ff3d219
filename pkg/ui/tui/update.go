package tui

import (
	"time"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
)

// TickMsg asks the model to take a new scheduler snapshot.
type TickMsg time.Time

const pollInterval = 250 * time.Millisecond

type keyMap struct {
	Quit      key.Binding
	Help      key.Binding
	ClearLogs key.Binding
}

var keys = keyMap{
	Quit:      key.NewBinding(key.WithKeys("q", "Q", "ctrl+c"), key.WithHelp("q", "quit the dashboard and stop watching")),
	Help:      key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "toggle this help")),
	ClearLogs: key.NewBinding(key.WithKeys("ctrl+l"), key.WithHelp("ctrl+l", "clear the log panel")),
}

func (k keyMap) bindings() []key.Binding {
	return []key.Binding{k.Quit, k.ClearLogs, k.Help}
}

// Update handles input and the poll tick. Scheduler events do not pass
// through here; they mutate the model directly.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.showHelp = !m.showHelp
		case key.Matches(msg, keys.ClearLogs):
			m.mu.Lock()
			m.logMessages = nil
			m.mu.Unlock()
		}

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case TickMsg:
		m.Refresh()
		return m, tickCmd()
	}
	return m, nil
}

func tickCmd() tea.Cmd {
	return tea.Tick(pollInterval, func(t time.Time) tea.Msg {
		return TickMsg(t)
	})
}
