package tui

import (
	"sync"
	"time"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"bottagger/internal/scheduler"
	"bottagger/pkg/scoring"
	"bottagger/pkg/ui"
)

// Annotation is one badge or hide the scheduler delivered.
type Annotation struct {
	Time     time.Time
	Username string
	Result   scoring.Result
	Hidden   bool
}

// Model represents the TUI model
type Model struct {
	// UI components
	spinner  spinner.Model
	throttle progress.Model

	source ui.StatsSource
	stats  scheduler.Stats

	// Throttle window as observed through the scheduler
	throttledAt    time.Time
	throttledUntil time.Time

	recent    []Annotation
	maxRecent int
	tally     *ui.Tally

	sessionStartTime time.Time
	now              func() time.Time

	// UI state
	width          int
	height         int
	showHelp       bool
	logMessages    []LogMessage
	maxLogMessages int

	// Observer callbacks arrive on scheduler goroutines.
	mu sync.RWMutex
}

// LogMessage represents a log entry
type LogMessage struct {
	Time    time.Time
	Level   string
	Message string
	Color   lipgloss.Color
}

// NewModel creates a dashboard model polling source and keeping the last
// maxRecent annotations.
func NewModel(source ui.StatsSource, maxRecent int) *Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(accent)

	if maxRecent <= 0 {
		maxRecent = 12
	}

	return &Model{
		spinner:          s,
		throttle:         progress.New(progress.WithGradient(string(caution), string(good))),
		source:           source,
		maxRecent:        maxRecent,
		tally:            ui.NewTally(),
		sessionStartTime: time.Now(),
		now:              time.Now,
		maxLogMessages:   50,
	}
}

// Init initializes the model
func (m *Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tickCmd())
}

// Refresh takes a fresh scheduler snapshot.
func (m *Model) Refresh() {
	if m.source == nil {
		return
	}
	st := m.source.Stats()

	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats = st
	if st.State == scheduler.Throttled && m.throttledUntil.IsZero() {
		// Throttle set by another process sharing the store.
		m.throttledAt = m.now()
		m.throttledUntil = st.ThrottledUntil
	}
	if st.State == scheduler.Idle && !m.throttledUntil.IsZero() && m.now().After(m.throttledUntil) {
		m.throttledAt = time.Time{}
		m.throttledUntil = time.Time{}
	}
}

// Stats returns the last snapshot.
func (m *Model) Stats() scheduler.Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.stats
}

// AddAnnotation records a delivered annotation.
func (m *Model) AddAnnotation(username string, r scoring.Result, hidden bool) {
	m.tally.Add(r.Label)

	m.mu.Lock()
	defer m.mu.Unlock()

	m.recent = append(m.recent, Annotation{
		Time:     m.now(),
		Username: username,
		Result:   r,
		Hidden:   hidden,
	})
	if len(m.recent) > m.maxRecent {
		m.recent = m.recent[len(m.recent)-m.maxRecent:]
	}
}

// Recent returns the retained annotations, oldest first.
func (m *Model) Recent() []Annotation {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Annotation, len(m.recent))
	copy(out, m.recent)
	return out
}

// SetThrottled starts a throttle countdown ending at until.
func (m *Model) SetThrottled(until time.Time) {
	m.mu.Lock()
	m.throttledAt = m.now()
	m.throttledUntil = until
	m.mu.Unlock()

	m.AddLogMessage("WARN", "Rate limited until "+until.Format("15:04:05"))
}

// ClearThrottled ends the countdown.
func (m *Model) ClearThrottled() {
	m.mu.Lock()
	m.throttledAt = time.Time{}
	m.throttledUntil = time.Time{}
	m.mu.Unlock()

	m.AddLogMessage("SUCCESS", "Lookups resumed")
}

// ThrottleProgress returns the elapsed share of the current throttle
// window and the time left. ok is false when not throttled.
func (m *Model) ThrottleProgress() (fraction float64, left time.Duration, ok bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.throttledUntil.IsZero() {
		return 0, 0, false
	}
	now := m.now()
	total := m.throttledUntil.Sub(m.throttledAt)
	left = m.throttledUntil.Sub(now)
	if left < 0 {
		left = 0
	}
	if total <= 0 {
		return 1, left, true
	}
	fraction = float64(now.Sub(m.throttledAt)) / float64(total)
	if fraction > 1 {
		fraction = 1
	}
	return fraction, left, true
}

// AddLogMessage adds a log message
func (m *Model) AddLogMessage(level, message string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.logMessages = append(m.logMessages, LogMessage{
		Time:    m.now(),
		Level:   level,
		Message: message,
		Color:   levelColor(level),
	})

	// Keep only the last N messages
	if len(m.logMessages) > m.maxLogMessages {
		m.logMessages = m.logMessages[len(m.logMessages)-m.maxLogMessages:]
	}
}
