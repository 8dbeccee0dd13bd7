package ui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/five82/moor/internal/resource"
)

var (
	colorAccent  = lipgloss.Color("#7AA2F7")
	colorText    = lipgloss.Color("#C0CAF5")
	colorMuted   = lipgloss.Color("#565F89")
	colorBorder  = lipgloss.Color("#3B4261")
	colorSuccess = lipgloss.Color("#9ECE6A")
	colorWarning = lipgloss.Color("#E0AF68")
	colorDanger  = lipgloss.Color("#F7768E")
	colorInfo    = lipgloss.Color("#7DCFFF")
)

var (
	logoStyle     = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	textStyle     = lipgloss.NewStyle().Foreground(colorText)
	selectedStyle = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	dangerStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorDanger)
	warningStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorWarning)
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	keyStyle      = lipgloss.NewStyle().Foreground(colorText)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)
	focusedPaneStyle = paneStyle.BorderForeground(colorAccent)
)

// healthStyle colors a container by its health classification.
func healthStyle(h resource.Health) lipgloss.Style {
	switch h {
	case resource.HealthHealthy:
		return lipgloss.NewStyle().Foreground(colorSuccess)
	case resource.HealthUnhealthy:
		return lipgloss.NewStyle().Foreground(colorDanger)
	case resource.HealthStarting:
		return lipgloss.NewStyle().Foreground(colorWarning)
	case resource.HealthCreated:
		return lipgloss.NewStyle().Foreground(colorInfo)
	default:
		return mutedStyle
	}
}

func paneFor(focused bool) lipgloss.Style {
	if focused {
		return focusedPaneStyle
	}
	return paneStyle
}
