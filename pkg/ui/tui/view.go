package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"bottagger/internal/scheduler"
	"bottagger/pkg/page"
	"bottagger/pkg/scoring"
)

// View renders the entire TUI
func (m *Model) View() string {
	if m.width == 0 || m.height == 0 {
		return "Initializing..."
	}

	var sections []string
	sections = append(sections, logoStyle.Width(m.width).Render(logo))

	half := (m.width - 4) / 2
	left := lipgloss.JoinVertical(lipgloss.Left,
		m.renderSessionPanel(half),
		m.renderThrottlePanel(half),
	)
	right := lipgloss.JoinVertical(lipgloss.Left,
		m.renderRecentPanel(half),
		m.renderLogsPanel(half),
	)
	sections = append(sections, lipgloss.JoinHorizontal(lipgloss.Top, left, "  ", right))

	if m.showHelp {
		sections = append(sections, m.renderHelp())
	} else {
		sections = append(sections, helpStyle.Render("Press ? for help"))
	}

	return baseStyle.Width(m.width).Height(m.height).Render(
		lipgloss.JoinVertical(lipgloss.Left, sections...),
	)
}

const logo = `
╔═══════════════════════════════════════════════╗
║  B O T T A G G E R   //   likelihood monitor  ║
╚═══════════════════════════════════════════════╝`

func stat(label, value string) string {
	return fmt.Sprintf("%s %s", keyStyle.Render(label), valueStyle.Render(value))
}

// renderSessionPanel renders queue, cache and counter totals.
func (m *Model) renderSessionPanel(width int) string {
	st := m.Stats()
	title := titleStyle.Render(" SESSION ")

	layout := string(st.LastLayout)
	if st.LastLayout == page.KindNone {
		layout = "none detected"
	}

	lines := []string{
		stat("Session Time:", formatDuration(m.now().Sub(m.sessionStartTime))),
		stat("Layout:", layout),
		m.renderQueueLine(st),
		stat("Cached:", fmt.Sprintf("%d accounts", st.CacheEntries)),
		stat("Scans / Fetches:", fmt.Sprintf("%d / %d", st.Scans, st.Fetches)),
		stat("Annotated:", fmt.Sprintf("%d (%d hidden)", st.Annotated, st.Hidden)),
		stat("Ineligible:", fmt.Sprintf("%d", st.Ineligible)),
	}
	if st.Dropped > 0 {
		lines = append(lines, droppedStyle.Render(fmt.Sprintf("✗ %d lookups dropped", st.Dropped)))
	}

	lines = append(lines, "")
	for _, l := range []scoring.Label{scoring.High, scoring.Medium, scoring.Low, scoring.NotApplicable} {
		lines = append(lines, fmt.Sprintf("%s %s %d",
			LabelStyle(l).Render(fmt.Sprintf("%-6s", l)),
			LabelStyle(l).Render(m.tally.Bar(l, 16)),
			m.tally.Count(l),
		))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(lines, "\n")),
	)
}

func (m *Model) renderQueueLine(st scheduler.Stats) string {
	label := keyStyle.Render("Queue:")
	if st.QueueCapacity <= 0 {
		return fmt.Sprintf("%s %s", label, valueStyle.Render(fmt.Sprintf("%d", st.QueueDepth)))
	}
	usage := float64(st.QueueDepth) / float64(st.QueueCapacity) * 100
	value := fmt.Sprintf("%d/%d (%.0f%%)", st.QueueDepth, st.QueueCapacity, usage)
	if st.InFlight > 0 {
		value += fmt.Sprintf(" • %d in flight", st.InFlight)
	}
	return fmt.Sprintf("%s %s", label, queueStyle(st.QueueDepth, st.QueueCapacity).Render(value))
}

// renderThrottlePanel renders the drain state and throttle countdown.
func (m *Model) renderThrottlePanel(width int) string {
	title := titleStyle.Render(" RATE LIMIT STATUS ")

	fraction, left, throttled := m.ThrottleProgress()
	var content string
	if !throttled {
		content = fmt.Sprintf("%s %s", m.spinner.View(), drainingStyle.Render("Draining"))
	} else {
		bar := m.throttle
		bar.Width = width - 8
		content = lipgloss.JoinVertical(lipgloss.Left,
			throttledStyle.Render("⏸  THROTTLED"),
			bar.ViewAs(fraction),
			stat("Resumes in:", formatDuration(left)),
		)
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderRecentPanel lists the latest annotations, newest first.
func (m *Model) renderRecentPanel(width int) string {
	title := titleStyle.Render(" RECENT ANNOTATIONS ")

	recent := m.Recent()
	if len(recent) == 0 {
		content := textStyle.Render("Nothing annotated yet")
		return panelStyle.Width(width).Render(lipgloss.JoinVertical(lipgloss.Left, title, content))
	}

	items := make([]string, 0, len(recent))
	for i := len(recent) - 1; i >= 0; i-- {
		a := recent[i]
		mark := "•"
		if a.Hidden {
			mark = "⊘"
		}
		items = append(items, rowStyle.Render(fmt.Sprintf("%s %s %s %s",
			dimStyle.Render(a.Time.Format("15:04:05")),
			mark,
			LabelStyle(a.Result.Label).Render(fmt.Sprintf("%-6s", a.Result.Label)),
			truncate("u/"+a.Username+" "+a.Result.Adjusted.String(), width-24),
		)))
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, strings.Join(items, "\n")),
	)
}

// renderLogsPanel renders the logs panel
func (m *Model) renderLogsPanel(width int) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	title := titleStyle.Render(" SYSTEM LOGS ")

	start := len(m.logMessages) - 8
	if start < 0 {
		start = 0
	}

	var logs []string
	for _, log := range m.logMessages[start:] {
		timestamp := dimStyle.Render(log.Time.Format("15:04:05"))
		level := lipgloss.NewStyle().Foreground(log.Color).Bold(true).Render(fmt.Sprintf("[%-7s]", log.Level))
		message := textStyle.Render(truncate(log.Message, width-25))
		logs = append(logs, fmt.Sprintf("%s %s %s", timestamp, level, message))
	}

	content := strings.Join(logs, "\n")
	if content == "" {
		content = textStyle.Render("No logs yet...")
	}

	return panelStyle.Width(width).Render(
		lipgloss.JoinVertical(lipgloss.Left, title, content),
	)
}

// renderHelp lists the key bindings and what the marks mean.
func (m *Model) renderHelp() string {
	var b strings.Builder
	b.WriteString("\n  Keys:\n")
	for _, k := range keys.bindings() {
		h := k.Help()
		fmt.Fprintf(&b, "    %-8s - %s\n", keyStyle.Render(h.Key), h.Desc)
	}

	b.WriteString("\n  Labels:\n")
	for _, l := range []struct {
		label scoring.Label
		desc  string
	}{
		{scoring.High, "likely automated"},
		{scoring.Medium, "borderline"},
		{scoring.Low, "likely human"},
		{scoring.NotApplicable, "ratio undefined"},
	} {
		fmt.Fprintf(&b, "    %s - %s\n", LabelStyle(l.label).Render(fmt.Sprintf("%-8s", l.label)), l.desc)
	}

	b.WriteString("\n  Marks:\n")
	b.WriteString("    ⊘        - post hidden by the auto filter\n")
	b.WriteString("    ⏸        - lookups paused by the rate limit\n")

	return panelStyle.Width(m.width).Render(b.String())
}

func truncate(s string, max int) string {
	if max < 4 || len(s) <= max {
		return s
	}
	return s[:max-3] + "..."
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < 0 {
		return "00:00"
	}

	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	s := int(d.Seconds()) % 60

	if h > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%02d:%02d", m, s)
}
