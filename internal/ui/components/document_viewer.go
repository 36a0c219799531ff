package components

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// CloseDocumentViewerMsg is sent when the viewer should close
type CloseDocumentViewerMsg struct{}

// DocumentViewer shows one document as pretty-printed, colored JSON
type DocumentViewer struct {
	Width  int
	Height int
	Theme  theme.Theme

	id     string
	lines  []string
	offset int
}

// NewDocumentViewer creates a viewer
func NewDocumentViewer(th theme.Theme) *DocumentViewer {
	return &DocumentViewer{Width: 80, Height: 30, Theme: th}
}

// SetRow loads a row into the viewer
func (dv *DocumentViewer) SetRow(row models.Row) {
	dv.id = row.ID
	dv.lines = strings.Split(row.JSON(), "\n")
	dv.offset = 0
}

// Update handles keyboard input
func (dv *DocumentViewer) Update(msg tea.KeyMsg) (*DocumentViewer, tea.Cmd) {
	switch msg.String() {
	case "esc", "q", "enter":
		return dv, func() tea.Msg { return CloseDocumentViewerMsg{} }
	case "up", "k":
		dv.scroll(-1)
	case "down", "j":
		dv.scroll(1)
	case "ctrl+u", "pgup":
		dv.scroll(-dv.bodyHeight())
	case "ctrl+d", "pgdown":
		dv.scroll(dv.bodyHeight())
	case "g":
		dv.offset = 0
	case "G":
		dv.scroll(len(dv.lines))
	}
	return dv, nil
}

func (dv *DocumentViewer) bodyHeight() int {
	if h := dv.Height - 4; h > 0 {
		return h
	}
	return 1
}

func (dv *DocumentViewer) scroll(delta int) {
	dv.offset += delta
	if max := len(dv.lines) - dv.bodyHeight(); dv.offset > max {
		dv.offset = max
	}
	if dv.offset < 0 {
		dv.offset = 0
	}
}

// View renders the viewer
func (dv *DocumentViewer) View() string {
	end := dv.offset + dv.bodyHeight()
	if end > len(dv.lines) {
		end = len(dv.lines)
	}
	var body []string
	for _, line := range dv.lines[dv.offset:end] {
		body = append(body, dv.colorize(line))
	}

	title := lipgloss.NewStyle().Bold(true).Foreground(dv.Theme.BorderFocused).Render("Document " + dv.id)
	hint := lipgloss.NewStyle().Foreground(dv.Theme.Muted).Italic(true).Render("j/k: scroll │ y: copy │ Esc: close")

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(dv.Theme.BorderFocused).
		Padding(0, 1).
		Width(dv.Width).
		Render(title + "\n" + strings.Join(body, "\n") + "\n" + hint)
}

// colorize styles one line of indented JSON
func (dv *DocumentViewer) colorize(line string) string {
	trimmed := strings.TrimLeft(line, " ")
	indent := line[:len(line)-len(trimmed)]

	key, value := "", trimmed
	if strings.HasPrefix(trimmed, `"`) {
		if i := strings.Index(trimmed, `": `); i > 0 {
			key, value = trimmed[:i+1], trimmed[i+3:]
		}
	}

	var b strings.Builder
	b.WriteString(indent)
	if key != "" {
		b.WriteString(lipgloss.NewStyle().Foreground(dv.Theme.JSONKey).Render(key))
		b.WriteString(": ")
	}
	b.WriteString(dv.colorValue(value))
	return b.String()
}

func (dv *DocumentViewer) colorValue(v string) string {
	core := strings.TrimSuffix(v, ",")
	suffix := v[len(core):]

	var color lipgloss.Color
	switch {
	case strings.HasPrefix(core, `"`):
		color = dv.Theme.JSONString
	case core == "true" || core == "false":
		color = dv.Theme.JSONBoolean
	case core == "null":
		color = dv.Theme.JSONNull
	case core != "" && (core[0] == '-' || (core[0] >= '0' && core[0] <= '9')):
		color = dv.Theme.JSONNumber
	default:
		return v
	}
	return lipgloss.NewStyle().Foreground(color).Render(core) + suffix
}
