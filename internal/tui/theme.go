package tui

import "github.com/charmbracelet/lipgloss"

// Theme defines the dashboard palette. Colors are ANSI 256-color codes
// for broad terminal compatibility.
type Theme struct {
	Title     lipgloss.Color
	Label     lipgloss.Color
	FaintText lipgloss.Color
	Border    lipgloss.Color
	Error     lipgloss.Color

	// Gauge and reading levels.
	OK       lipgloss.Color
	Warn     lipgloss.Color
	Critical lipgloss.Color

	Power lipgloss.Color
	C0    lipgloss.Color
}

// DefaultTheme is the built-in dark-terminal color scheme.
var DefaultTheme = Theme{
	Title:     lipgloss.Color("14"),
	Label:     lipgloss.Color("252"),
	FaintText: lipgloss.Color("243"),
	Border:    lipgloss.Color("238"),
	Error:     lipgloss.Color("196"),
	OK:        lipgloss.Color("34"),
	Warn:      lipgloss.Color("220"),
	Critical:  lipgloss.Color("196"),
	Power:     lipgloss.Color("220"),
	C0:        lipgloss.Color("14"),
}

// Level returns the color for value against warn and crit thresholds.
func (theme Theme) Level(value, warn, crit float32) lipgloss.Color {
	switch {
	case value >= crit:
		return theme.Critical
	case value >= warn:
		return theme.Warn
	}
	return theme.OK
}
