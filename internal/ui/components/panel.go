package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// Panel is one of the two bordered columns of the main view. The header
// line carries the title on the left and a short badge on the right.
type Panel struct {
	Title   string
	Badge   string
	Content string
	Width   int
	Height  int
	Focused bool
	Theme   theme.Theme
}

// View renders the panel, clipping content to the inner height
func (p *Panel) View() string {
	if p.Width <= 0 || p.Height <= 0 {
		return ""
	}

	border := p.Theme.Border
	if p.Focused {
		border = p.Theme.BorderFocused
	}

	lines := strings.Split(p.Content, "\n")
	body := p.Height
	if p.Title != "" || p.Badge != "" {
		lines = append([]string{p.header()}, lines...)
	}
	if len(lines) > body {
		lines = lines[:body]
	}

	return lipgloss.NewStyle().
		Width(p.Width).
		Height(p.Height).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(border).
		Render(strings.Join(lines, "\n"))
}

func (p *Panel) header() string {
	title := lipgloss.NewStyle().Bold(true).Padding(0, 1).Render(p.Title)
	if p.Badge == "" {
		return title
	}
	badge := lipgloss.NewStyle().Foreground(p.Theme.Muted).Padding(0, 1).Render(p.Badge)
	gap := p.Width - lipgloss.Width(title) - lipgloss.Width(badge)
	if gap < 1 {
		return title
	}
	return title + strings.Repeat(" ", gap) + badge
}
