package main

import "github.com/charmbracelet/lipgloss"

// Theme groups the ANSI-256 palette shared by the dashboard views.
type Theme struct {
	Primary   lipgloss.Color // titles, table headers
	Secondary lipgloss.Color // senders, cursor row
	Success   lipgloss.Color // bus online, active agents
	Warning   lipgloss.Color // event kinds, waiting counts
	Error     lipgloss.Color // bus offline, stopped agents
	Muted     lipgloss.Color // timestamps, key hints
}

// DefaultTheme returns the agora dash palette.
func DefaultTheme() Theme {
	return Theme{
		Primary:   lipgloss.Color("39"),  // Azure
		Secondary: lipgloss.Color("51"),  // Cyan
		Success:   lipgloss.Color("42"),  // Spring green
		Warning:   lipgloss.Color("214"), // Orange
		Error:     lipgloss.Color("196"), // Red
		Muted:     lipgloss.Color("245"), // Gray
	}
}
