package theme

import "github.com/charmbracelet/lipgloss"

// DefaultTheme returns the default dark theme
func DefaultTheme() Theme {
	return Theme{
		Name: "default",

		Background: lipgloss.Color("235"),
		Foreground: lipgloss.Color("252"),
		Muted:      lipgloss.Color("245"),

		Border:        lipgloss.Color("240"),
		BorderFocused: lipgloss.Color("62"),
		Selection:     lipgloss.Color("237"),
		Cursor:        lipgloss.Color("248"),

		Success: lipgloss.Color("42"),
		Warning: lipgloss.Color("220"),
		Error:   lipgloss.Color("196"),
		Info:    lipgloss.Color("75"),

		HealthGreen:  lipgloss.Color("42"),
		HealthYellow: lipgloss.Color("220"),
		HealthRed:    lipgloss.Color("196"),

		TableHeader:      lipgloss.Color("105"),
		TableRowSelected: lipgloss.Color("25"),
		Marked:           lipgloss.Color("214"),

		JSONKey:     lipgloss.Color("117"),
		JSONString:  lipgloss.Color("180"),
		JSONNumber:  lipgloss.Color("150"),
		JSONBoolean: lipgloss.Color("75"),
		JSONNull:    lipgloss.Color("244"),
	}
}
