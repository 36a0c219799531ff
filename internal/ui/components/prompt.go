package components

import (
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// PromptPurpose tells the app what a submitted prompt value is for
type PromptPurpose int

const (
	PromptFilter PromptPurpose = iota
	PromptUpdateRow
	PromptUpdateMany
	PromptSaveFavorite
)

// PromptSubmitMsg is sent when the prompt is submitted
type PromptSubmitMsg struct {
	Purpose PromptPurpose
	Value   string
}

// PromptCancelMsg is sent when the prompt is closed without submitting
type PromptCancelMsg struct{}

// Prompt is a single-line input box with a title
type Prompt struct {
	Input   textinput.Model
	Title   string
	Hint    string
	Purpose PromptPurpose
	Theme   theme.Theme
	Width   int
}

// NewPrompt creates a focused prompt pre-filled with value
func NewPrompt(th theme.Theme, purpose PromptPurpose, title, value string) *Prompt {
	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = 8192
	ti.Width = 60
	ti.SetValue(value)
	ti.CursorEnd()

	return &Prompt{
		Input:   ti,
		Title:   title,
		Hint:    "Enter: submit │ Esc: cancel",
		Purpose: purpose,
		Theme:   th,
		Width:   70,
	}
}

// Update handles key messages
func (p *Prompt) Update(msg tea.Msg) (*Prompt, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "enter":
			value := p.Input.Value()
			purpose := p.Purpose
			return p, func() tea.Msg {
				return PromptSubmitMsg{Purpose: purpose, Value: value}
			}
		case "esc":
			return p, func() tea.Msg {
				return PromptCancelMsg{}
			}
		}
	}

	var cmd tea.Cmd
	p.Input, cmd = p.Input.Update(msg)
	return p, cmd
}

// View renders the prompt
func (p *Prompt) View() string {
	inputWidth := p.Width - 6
	if inputWidth < 20 {
		inputWidth = 20
	}
	p.Input.Width = inputWidth

	titleStyle := lipgloss.NewStyle().Bold(true).Foreground(p.Theme.BorderFocused)
	hintStyle := lipgloss.NewStyle().Foreground(p.Theme.Muted).Italic(true)

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(p.Theme.BorderFocused).
		Padding(0, 1).
		Width(p.Width).
		Render(titleStyle.Render(p.Title) + "\n" + p.Input.View() + "\n" + hintStyle.Render(p.Hint))
}
