package theme

import "github.com/charmbracelet/lipgloss"

// CatppuccinMochaTheme returns the Catppuccin Mocha palette
func CatppuccinMochaTheme() Theme {
	return Theme{
		Name: "catppuccin-mocha",

		Background: lipgloss.Color("#1e1e2e"), // Base
		Foreground: lipgloss.Color("#cdd6f4"), // Text
		Muted:      lipgloss.Color("#6c7086"), // Overlay0

		Border:        lipgloss.Color("#45475a"), // Surface1
		BorderFocused: lipgloss.Color("#89b4fa"), // Blue
		Selection:     lipgloss.Color("#313244"), // Surface0
		Cursor:        lipgloss.Color("#f5e0dc"), // Rosewater

		Success: lipgloss.Color("#a6e3a1"), // Green
		Warning: lipgloss.Color("#f9e2af"), // Yellow
		Error:   lipgloss.Color("#f38ba8"), // Red
		Info:    lipgloss.Color("#89dceb"), // Sky

		HealthGreen:  lipgloss.Color("#a6e3a1"),
		HealthYellow: lipgloss.Color("#f9e2af"),
		HealthRed:    lipgloss.Color("#f38ba8"),

		TableHeader:      lipgloss.Color("#cba6f7"), // Mauve
		TableRowSelected: lipgloss.Color("#45475a"),
		Marked:           lipgloss.Color("#fab387"), // Peach

		JSONKey:     lipgloss.Color("#89b4fa"),
		JSONString:  lipgloss.Color("#a6e3a1"),
		JSONNumber:  lipgloss.Color("#fab387"),
		JSONBoolean: lipgloss.Color("#cba6f7"),
		JSONNull:    lipgloss.Color("#6c7086"),
	}
}
