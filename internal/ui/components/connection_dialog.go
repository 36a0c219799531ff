package components

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// SaveConnectionMsg is sent when the form is submitted
type SaveConnectionMsg struct {
	Connection models.Connection
}

// CloseConnectionDialogMsg is sent when the form is closed
type CloseConnectionDialogMsg struct{}

const (
	fieldAlias = iota
	fieldHost
	fieldUsername
	fieldPassword
	fieldCount
)

var connectionFieldLabels = [fieldCount]string{"Alias", "Host", "Username", "Password"}

// ConnectionDialog is the form for adding a connection
type ConnectionDialog struct {
	Width int
	Theme theme.Theme
	Err   string

	inputs [fieldCount]textinput.Model
	active int
}

// NewConnectionDialog creates an empty form
func NewConnectionDialog(th theme.Theme) *ConnectionDialog {
	d := &ConnectionDialog{Width: 60, Theme: th}
	for i := range d.inputs {
		ti := textinput.New()
		ti.CharLimit = 256
		ti.Width = 40
		d.inputs[i] = ti
	}
	d.inputs[fieldHost].Placeholder = "http://localhost:9200"
	d.inputs[fieldPassword].EchoMode = textinput.EchoPassword
	d.inputs[fieldPassword].EchoCharacter = '•'
	d.focus(fieldAlias)
	return d
}

// Prefill loads an existing connection into the form
func (d *ConnectionDialog) Prefill(c models.Connection) {
	d.inputs[fieldAlias].SetValue(c.Alias)
	d.inputs[fieldHost].SetValue(c.Host)
	d.inputs[fieldUsername].SetValue(c.Username)
	d.inputs[fieldPassword].SetValue(c.Password)
}

func (d *ConnectionDialog) focus(i int) {
	d.inputs[d.active].Blur()
	d.active = (i + fieldCount) % fieldCount
	d.inputs[d.active].Focus()
}

// Connection returns the connection described by the form
func (d *ConnectionDialog) Connection() models.Connection {
	return models.Connection{
		Alias:    strings.TrimSpace(d.inputs[fieldAlias].Value()),
		Host:     strings.TrimRight(strings.TrimSpace(d.inputs[fieldHost].Value()), "/"),
		Username: strings.TrimSpace(d.inputs[fieldUsername].Value()),
		Password: d.inputs[fieldPassword].Value(),
	}
}

// Update handles key messages
func (d *ConnectionDialog) Update(msg tea.Msg) (*ConnectionDialog, tea.Cmd) {
	if key, ok := msg.(tea.KeyMsg); ok {
		switch key.String() {
		case "esc":
			return d, func() tea.Msg { return CloseConnectionDialogMsg{} }
		case "tab", "down":
			d.focus(d.active + 1)
			return d, nil
		case "shift+tab", "up":
			d.focus(d.active - 1)
			return d, nil
		case "enter":
			if d.active < fieldPassword {
				d.focus(d.active + 1)
				return d, nil
			}
			conn := d.Connection()
			if err := conn.Validate(); err != nil {
				d.Err = err.Error()
				return d, nil
			}
			d.Err = ""
			return d, func() tea.Msg { return SaveConnectionMsg{Connection: conn} }
		}
	}

	var cmd tea.Cmd
	d.inputs[d.active], cmd = d.inputs[d.active].Update(msg)
	return d, cmd
}

// View renders the form
func (d *ConnectionDialog) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(d.Theme.BorderFocused).Render("Add connection"))
	b.WriteString("\n\n")

	label := lipgloss.NewStyle().Width(10)
	for i, in := range d.inputs {
		l := label.Render(connectionFieldLabels[i])
		if i == d.active {
			l = label.Foreground(d.Theme.BorderFocused).Bold(true).Render(connectionFieldLabels[i])
		}
		b.WriteString(l + " " + in.View() + "\n")
	}
	if d.Err != "" {
		b.WriteString("\n" + lipgloss.NewStyle().Foreground(d.Theme.Error).Render(d.Err) + "\n")
	}
	b.WriteString("\n" + lipgloss.NewStyle().Foreground(d.Theme.Muted).Italic(true).Render("Tab: next field │ Enter: save │ Esc: cancel"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(d.Theme.BorderFocused).
		Padding(0, 1).
		Width(d.Width).
		Render(b.String())
}
