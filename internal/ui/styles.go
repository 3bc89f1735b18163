// Package ui renders tracker output for the terminal.
package ui

import (
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/taskdot/taskdot/internal/task"
)

var (
	colorGreen  = lipgloss.AdaptiveColor{Light: "#2E7D32", Dark: "#98C379"}
	colorYellow = lipgloss.AdaptiveColor{Light: "#B26A00", Dark: "#E5C07B"}
	colorRed    = lipgloss.AdaptiveColor{Light: "#C62828", Dark: "#E06C75"}
	colorBlue   = lipgloss.AdaptiveColor{Light: "#1565C0", Dark: "#61AFEF"}
	colorMuted  = lipgloss.AdaptiveColor{Light: "#757575", Dark: "#5C6370"}
)

var (
	IDStyle      = lipgloss.NewStyle().Foreground(colorBlue).Bold(true)
	TitleStyle   = lipgloss.NewStyle()
	DimStyle     = lipgloss.NewStyle().Foreground(colorMuted)
	SuccessStyle = lipgloss.NewStyle().Foreground(colorGreen)
	WarningStyle = lipgloss.NewStyle().Foreground(colorYellow)
	ErrorStyle   = lipgloss.NewStyle().Foreground(colorRed)
	ScoreStyle   = lipgloss.NewStyle().Foreground(colorYellow)

	statusStyles = map[task.Status]lipgloss.Style{
		task.StatusTodo:       lipgloss.NewStyle().Foreground(colorMuted),
		task.StatusInProgress: lipgloss.NewStyle().Foreground(colorYellow),
		task.StatusDone:       lipgloss.NewStyle().Foreground(colorGreen),
	}
)

// SetColorMode forces colored output on or off. "auto" leaves the
// terminal detection alone.
func SetColorMode(mode string) {
	switch mode {
	case "always":
		lipgloss.SetColorProfile(termenv.ANSI256)
	case "never":
		lipgloss.SetColorProfile(termenv.Ascii)
	}
}

// StatusGlyph maps a status to its one-character marker.
func StatusGlyph(s task.Status) string {
	switch s {
	case task.StatusDone:
		return "✓"
	case task.StatusInProgress:
		return "◐"
	default:
		return "○"
	}
}

func statusStyle(s task.Status) lipgloss.Style {
	if st, ok := statusStyles[s]; ok {
		return st
	}
	return DimStyle
}
