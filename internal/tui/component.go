// Package tui holds the building blocks shared by the arttools screens.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// Component is the interface for all TUI components.
type Component interface {
	// Init initializes the component.
	Init() tea.Cmd

	// Update handles messages and returns the updated component.
	Update(msg tea.Msg) (Component, tea.Cmd)

	// View renders the component.
	View() string

	// Title returns the component title.
	Title() string

	// SetSize sets the component dimensions.
	SetSize(width, height int)
}

// Model adapts a Component to tea.Model so it can be handed to a program.
type Model struct {
	Root Component
}

// Init initializes the root component.
func (m Model) Init() tea.Cmd {
	return m.Root.Init()
}

// Update forwards msg to the root component.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	updated, cmd := m.Root.Update(msg)
	m.Root = updated
	return m, cmd
}

// View renders the root component.
func (m Model) View() string {
	return m.Root.View()
}

// Styles used across screens.
type Styles struct {
	Title     lipgloss.Style
	Tab       lipgloss.Style
	ActiveTab lipgloss.Style
	Selected  lipgloss.Style
	Muted     lipgloss.Style
	Heart     lipgloss.Style
	Deal      lipgloss.Style
	Key       lipgloss.Style
	Error     lipgloss.Style
}

// DefaultStyles returns default styling.
func DefaultStyles() Styles {
	return Styles{
		Title: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		Tab: lipgloss.NewStyle().
			Padding(0, 2).
			Foreground(lipgloss.Color("252")).
			Background(lipgloss.Color("238")),
		ActiveTab: lipgloss.NewStyle().
			Padding(0, 2).
			Bold(true).
			Foreground(lipgloss.Color("229")).
			Background(lipgloss.Color("62")),
		Selected: lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("229")),
		Muted: lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")),
		Heart: lipgloss.NewStyle().
			Foreground(lipgloss.Color("204")),
		Deal: lipgloss.NewStyle().
			Foreground(lipgloss.Color("34")).
			Bold(true),
		Key: lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true),
		Error: lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")),
	}
}

// RenderTitle renders a title bar.
func RenderTitle(title string, width int) string {
	return lipgloss.NewStyle().
		Width(width).
		Align(lipgloss.Center).
		Bold(true).
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("62")).
		Render(title)
}

// Truncate shortens s to at most width runes, marking the cut with "...".
func Truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

// PadRight pads s with spaces to width runes.
func PadRight(s string, width int) string {
	n := len([]rune(s))
	if n >= width {
		return Truncate(s, width)
	}
	return s + strings.Repeat(" ", width-n)
}
