package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	cyan   = lipgloss.NewStyle().Foreground(lipgloss.Color("86"))
	white  = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	dim    = lipgloss.NewStyle().Foreground(lipgloss.Color("242"))
	dimmer = lipgloss.NewStyle().Foreground(lipgloss.Color("238"))
	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("82"))

	// circle colors follow the recording state
	recordingColor = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff4444"))
	idleColor      = lipgloss.NewStyle().Foreground(lipgloss.Color("#007bff"))

	errorText = lipgloss.NewStyle().Foreground(lipgloss.Color("#ff5f5f"))

	button = lipgloss.NewStyle().
		Foreground(lipgloss.Color("255")).
		Background(lipgloss.Color("#007bff")).
		Padding(0, 2)

	alertPanel = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#ff4444")).
			Padding(1, 2)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#ffffff")).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true).
			BorderForeground(lipgloss.Color("#444466"))
)

func header(title string) string {
	return headerStyle.Render(title)
}

func hint(s string) string {
	return dim.Render(s)
}
