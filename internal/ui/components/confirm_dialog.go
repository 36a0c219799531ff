package components

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// ConfirmResultMsg carries the answer of a confirm dialog
type ConfirmResultMsg struct {
	Action    string
	Confirmed bool
}

// ConfirmDialog asks a yes/no question before a destructive action
type ConfirmDialog struct {
	Action  string
	Message string
	Theme   theme.Theme
	Width   int
}

// NewConfirmDialog creates a dialog for action
func NewConfirmDialog(th theme.Theme, action, message string) *ConfirmDialog {
	return &ConfirmDialog{Action: action, Message: message, Theme: th, Width: 60}
}

// Update handles key messages
func (c *ConfirmDialog) Update(msg tea.KeyMsg) tea.Cmd {
	var confirmed bool
	switch msg.String() {
	case "y", "Y", "enter":
		confirmed = true
	case "n", "N", "esc", "q":
	default:
		return nil
	}
	action := c.Action
	return func() tea.Msg {
		return ConfirmResultMsg{Action: action, Confirmed: confirmed}
	}
}

// View renders the dialog
func (c *ConfirmDialog) View() string {
	hint := lipgloss.NewStyle().Foreground(c.Theme.Muted).Italic(true).Render("y/Enter: confirm │ n/Esc: cancel")
	body := lipgloss.NewStyle().Width(c.Width - 4).Render(c.Message)
	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(c.Theme.Warning).
		Padding(1, 2).
		Width(c.Width).
		Render(lipgloss.NewStyle().Bold(true).Foreground(c.Theme.Warning).Render("Confirm") + "\n\n" + body + "\n\n" + hint)
}
