package components

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// TabLabel is what the tab bar needs to know about one tab
type TabLabel struct {
	Key       string
	Operation models.Operation
	Index     string
	Loading   bool
	Failed    bool
}

// Title returns the short title of a tab
func (l TabLabel) Title() string {
	title := l.Index
	if l.Operation == models.OperationOverview {
		title = "⌂ " + l.Index
	}
	if l.Loading {
		title += " …"
	}
	if l.Failed {
		title += " !"
	}
	return title
}

// TabBar renders the open tabs in a single line
type TabBar struct {
	Width    int
	Theme    theme.Theme
	MaxTitle int
}

// NewTabBar creates a tab bar
func NewTabBar(th theme.Theme) *TabBar {
	return &TabBar{Theme: th, MaxTitle: 24}
}

// View renders the tabs, highlighting activeKey
func (tb *TabBar) View(tabs []TabLabel, activeKey string) string {
	if len(tabs) == 0 {
		return lipgloss.NewStyle().Foreground(tb.Theme.Muted).Render("no open tabs")
	}

	active := lipgloss.NewStyle().
		Bold(true).
		Foreground(tb.Theme.Background).
		Background(tb.Theme.BorderFocused).
		Padding(0, 1)
	inactive := lipgloss.NewStyle().
		Foreground(tb.Theme.Foreground).
		Background(tb.Theme.Selection).
		Padding(0, 1)
	failed := inactive.Foreground(tb.Theme.Error)

	var parts []string
	for _, t := range tabs {
		title := truncateTitle(t.Title(), tb.MaxTitle)
		switch {
		case t.Key == activeKey:
			parts = append(parts, active.Render(title))
		case t.Failed:
			parts = append(parts, failed.Render(title))
		default:
			parts = append(parts, inactive.Render(title))
		}
	}

	line := strings.Join(parts, " ")
	if tb.Width > 0 && lipgloss.Width(line) > tb.Width {
		line = lipgloss.NewStyle().MaxWidth(tb.Width).Render(line)
	}
	return line
}

func truncateTitle(s string, max int) string {
	r := []rune(s)
	if max <= 0 || len(r) <= max {
		return s
	}
	return string(r[:max-1]) + "…"
}
