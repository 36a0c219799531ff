package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// ErrorOverlay shows an error message in a centered box
type ErrorOverlay struct {
	Title   string
	Message string
	Width   int
	Theme   theme.Theme
}

// NewErrorOverlay creates an error overlay
func NewErrorOverlay(th theme.Theme) *ErrorOverlay {
	return &ErrorOverlay{Width: 60, Theme: th}
}

// SetError sets the title and message
func (e *ErrorOverlay) SetError(title, message string) {
	e.Title = title
	e.Message = message
}

// View renders the overlay
func (e *ErrorOverlay) View() string {
	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(e.Theme.Error)
	hintStyle := lipgloss.NewStyle().Foreground(e.Theme.Muted).Italic(true)

	body := lipgloss.NewStyle().Width(e.Width - 4).Render(e.Message)
	content := titleStyle.Render(e.Title) + "\n\n" + body + "\n\n" + hintStyle.Render("Esc/Enter: dismiss")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(e.Theme.Error).
		Padding(1, 2).
		Width(e.Width).
		Render(content)
}
