package tui

import (
	"github.com/charmbracelet/lipgloss"

	"bottagger/pkg/scoring"
)

var (
	accent  = lipgloss.Color("#00D7FF")
	frame   = lipgloss.Color("#AF5FFF")
	good    = lipgloss.Color("#5FFF5F")
	caution = lipgloss.Color("#FFAF00")
	alert   = lipgloss.Color("#FF3030")
	muted   = lipgloss.Color("#9E9E9E")
	faint   = lipgloss.Color("#626262")
	screen  = lipgloss.Color("#0A0E27")
	panel   = lipgloss.Color("#161A33")
)

var (
	baseStyle = lipgloss.NewStyle().Background(screen).Foreground(muted)
	logoStyle = lipgloss.NewStyle().Foreground(accent).Bold(true).Padding(1, 0).Align(lipgloss.Center)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(frame).
			Background(panel).
			Padding(1, 2)
	titleStyle = lipgloss.NewStyle().Background(frame).Foreground(screen).Bold(true).Padding(0, 1)

	keyStyle   = lipgloss.NewStyle().Foreground(accent).Bold(true)
	valueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFFF5F"))
	dimStyle   = lipgloss.NewStyle().Foreground(faint)
	textStyle  = lipgloss.NewStyle().Foreground(muted)
	rowStyle   = lipgloss.NewStyle().PaddingLeft(2)
	helpStyle  = lipgloss.NewStyle().Foreground(faint).Padding(1, 0, 0, 2)

	drainingStyle  = lipgloss.NewStyle().Foreground(good).Bold(true)
	throttledStyle = lipgloss.NewStyle().Foreground(caution).Bold(true)
	droppedStyle   = lipgloss.NewStyle().Foreground(alert).Bold(true)
)

// Label colors match the badge bands injected into the page.
var labelStyles = map[scoring.Label]lipgloss.Style{
	scoring.High:          lipgloss.NewStyle().Foreground(lipgloss.Color("#FF0000")).Bold(true),
	scoring.Medium:        lipgloss.NewStyle().Foreground(lipgloss.Color("#FFA500")).Bold(true),
	scoring.Low:           lipgloss.NewStyle().Foreground(lipgloss.Color("#00C800")),
	scoring.NotApplicable: lipgloss.NewStyle().Foreground(lipgloss.Color("#808080")).Faint(true),
}

// LabelStyle returns the style used for a likelihood label.
func LabelStyle(l scoring.Label) lipgloss.Style {
	if s, found := labelStyles[l]; found {
		return s
	}
	return labelStyles[scoring.NotApplicable]
}

var levelColors = map[string]lipgloss.Color{
	"ERROR":   alert,
	"WARN":    caution,
	"SUCCESS": good,
	"INFO":    accent,
}

func levelColor(level string) lipgloss.Color {
	if c, found := levelColors[level]; found {
		return c
	}
	return muted
}

// queueStyle colors the backlog by how close it is to the overflow policy
// kicking in.
func queueStyle(depth, capacity int) lipgloss.Style {
	s := lipgloss.NewStyle().Foreground(good)
	if capacity <= 0 {
		return s
	}
	switch {
	case depth*10 >= capacity*9:
		return s.Foreground(alert)
	case depth*10 >= capacity*7:
		return s.Foreground(caution)
	}
	return s
}
