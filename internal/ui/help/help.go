package help

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// KeyBinding represents a keyboard shortcut
type KeyBinding struct {
	Key         string
	Description string
}

// Section is a titled group of key bindings
type Section struct {
	Title string
	Keys  []KeyBinding
}

// GetGlobalKeys returns global key bindings
func GetGlobalKeys() []KeyBinding {
	return []KeyBinding{
		{"?", "Toggle help"},
		{"q, Ctrl+C", "Quit application"},
		{"Esc/Enter", "Dismiss error"},
		{"Tab", "Switch panel focus"},
		{"[ / ]", "Previous / next tab"},
		{"x", "Close active tab"},
	}
}

// GetConnectionKeys returns sidebar key bindings
func GetConnectionKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move"},
		{"Enter", "Expand connection / open index"},
		{"o", "Open cluster overview"},
		{"a", "Add connection"},
		{"r", "Reload index list"},
	}
}

// GetQueryKeys returns query tab key bindings
func GetQueryKeys() []KeyBinding {
	return []KeyBinding{
		{"↑/k ↓/j", "Move cursor"},
		{"n / p", "Next / previous page"},
		{"+ / -", "Larger / smaller page size"},
		{"t", "Cycle document type"},
		{"f, /", "Edit filter (query DSL)"},
		{"r", "Refresh page"},
		{"Space", "Select / unselect row"},
		{"Esc", "Clear selection"},
		{"Enter", "Show document"},
		{"y", "Copy document JSON"},
		{"u", "Update document (partial JSON)"},
		{"U", "Update selection or filter matches"},
		{"d", "Delete document"},
		{"D", "Delete selection or filter matches"},
		{"e / E", "Export page as CSV / JSON"},
		{"s", "Save filter"},
		{"F", "Saved filters"},
	}
}

// Sections returns every help section in display order
func Sections() []Section {
	return []Section{
		{"Global", GetGlobalKeys()},
		{"Connections", GetConnectionKeys()},
		{"Query tab", GetQueryKeys()},
	}
}

// Render creates the help view
func Render(width, height int, th theme.Theme) string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(th.BorderFocused).Padding(1, 0)
	sectionStyle := lipgloss.NewStyle().Bold(true).Foreground(th.Info).Padding(0, 0, 0, 2)
	keyStyle := lipgloss.NewStyle().Foreground(th.Warning).Width(20)
	descStyle := lipgloss.NewStyle().Foreground(th.Foreground)

	var b strings.Builder
	b.WriteString(titleStyle.Render("lazyes - Keyboard Shortcuts"))
	b.WriteString("\n\n")

	for _, s := range Sections() {
		b.WriteString(sectionStyle.Render(s.Title))
		b.WriteString("\n")
		for _, kb := range s.Keys {
			b.WriteString("  ")
			b.WriteString(keyStyle.Render(kb.Key))
			b.WriteString(descStyle.Render(kb.Description))
			b.WriteString("\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(lipgloss.NewStyle().Faint(true).Render("Press '?' or Esc to close help"))

	boxStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(th.BorderFocused).
		Padding(1, 2)
	if width > 4 {
		boxStyle = boxStyle.Width(width - 4)
	}
	return boxStyle.Render(b.String())
}
