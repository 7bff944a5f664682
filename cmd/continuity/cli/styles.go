package cli

import "github.com/charmbracelet/lipgloss"

var (
	colorAccent  = lipgloss.Color("#b4befe")
	colorGreen   = lipgloss.Color("#a6e3a1")
	colorPeach   = lipgloss.Color("#fab387")
	colorRed     = lipgloss.Color("#f38ba8")
	colorSubtext = lipgloss.Color("#a6adc8")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorSubtext)

	okStyle = lipgloss.NewStyle().
		Foreground(colorGreen)

	warnStyle = lipgloss.NewStyle().
			Foreground(colorPeach)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(colorSubtext).
			Italic(true)
)
