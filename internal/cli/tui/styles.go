package tui

import "github.com/charmbracelet/lipgloss"

// Styles contains all lipgloss styles for the review monitor
type Styles struct {
	Title    lipgloss.Style
	Count    lipgloss.Style
	Selected lipgloss.Style
	Item     lipgloss.Style
	Stage    lipgloss.Style
	Dim      lipgloss.Style
	Content  lipgloss.Style
	Prompt   lipgloss.Style
	Footer   lipgloss.Style
	FooterKey lipgloss.Style
	Busy     lipgloss.Style
}

// DefaultStyles returns the default monitor styles
func DefaultStyles() Styles {
	return Styles{
		Title:    lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39")),
		Count:    lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
		Selected: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Item:     lipgloss.NewStyle().Foreground(lipgloss.Color("250")),
		Stage:    lipgloss.NewStyle().Bold(true),
		Dim:      lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
		Content:  lipgloss.NewStyle().Foreground(lipgloss.Color("252")),
		Prompt:   lipgloss.NewStyle().Foreground(lipgloss.Color("214")),
		Footer:   lipgloss.NewStyle().Foreground(lipgloss.Color("245")).MarginTop(1),
		FooterKey: lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true),
		Busy:     lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Italic(true),
	}
}
