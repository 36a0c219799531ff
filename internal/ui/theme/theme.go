package theme

import "github.com/charmbracelet/lipgloss"

// Theme defines the color scheme and styling
type Theme struct {
	Name string

	// Background colors
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color

	// UI elements
	Border        lipgloss.Color
	BorderFocused lipgloss.Color
	Selection     lipgloss.Color
	Cursor        lipgloss.Color

	// Status colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Info    lipgloss.Color

	// Index health
	HealthGreen  lipgloss.Color
	HealthYellow lipgloss.Color
	HealthRed    lipgloss.Color

	// Table colors
	TableHeader      lipgloss.Color
	TableRowSelected lipgloss.Color
	Marked           lipgloss.Color

	// Document colors
	JSONKey     lipgloss.Color
	JSONString  lipgloss.Color
	JSONNumber  lipgloss.Color
	JSONBoolean lipgloss.Color
	JSONNull    lipgloss.Color
}

// GetTheme returns a theme by name, falling back to the default theme
func GetTheme(name string) Theme {
	switch name {
	case "catppuccin", "catppuccin-mocha":
		return CatppuccinMochaTheme()
	default:
		return DefaultTheme()
	}
}

// HealthColor returns the color for an index health value
func (t Theme) HealthColor(health string) lipgloss.Color {
	switch health {
	case "green":
		return t.HealthGreen
	case "yellow":
		return t.HealthYellow
	case "red":
		return t.HealthRed
	default:
		return t.Muted
	}
}
