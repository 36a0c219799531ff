package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// SidebarItemKind distinguishes connection rows from index rows
type SidebarItemKind int

const (
	SidebarConnection SidebarItemKind = iota
	SidebarIndex
)

// SidebarItem is one visible row of the sidebar
type SidebarItem struct {
	Kind       SidebarItemKind
	Connection models.DiscoveredConnection
	Brief      models.IndexBrief
}

// Sidebar lists connections; an expanded connection shows its indices
type Sidebar struct {
	Width  int
	Height int
	Theme  theme.Theme

	connections []models.DiscoveredConnection
	indices     map[models.ConnectionKey][]models.IndexBrief
	expanded    map[models.ConnectionKey]bool
	loading     map[models.ConnectionKey]bool
	failed      map[models.ConnectionKey]string

	cursor int
	offset int
}

// NewSidebar creates an empty sidebar
func NewSidebar(th theme.Theme) *Sidebar {
	return &Sidebar{
		Theme:    th,
		indices:  make(map[models.ConnectionKey][]models.IndexBrief),
		expanded: make(map[models.ConnectionKey]bool),
		loading:  make(map[models.ConnectionKey]bool),
		failed:   make(map[models.ConnectionKey]string),
	}
}

// SetConnections replaces the connection list
func (s *Sidebar) SetConnections(conns []models.DiscoveredConnection) {
	s.connections = conns
	s.clampCursor()
}

// SetLoading marks a connection whose indices are being listed
func (s *Sidebar) SetLoading(key models.ConnectionKey) {
	s.loading[key] = true
	delete(s.failed, key)
}

// SetIndices stores the listed indices of a connection and expands it
func (s *Sidebar) SetIndices(key models.ConnectionKey, briefs []models.IndexBrief, err error) {
	delete(s.loading, key)
	if err != nil {
		s.failed[key] = err.Error()
		return
	}
	s.indices[key] = briefs
	s.expanded[key] = true
	s.clampCursor()
}

// Loaded reports whether the indices of a connection were listed
func (s *Sidebar) Loaded(key models.ConnectionKey) bool {
	_, ok := s.indices[key]
	return ok
}

// Toggle expands or collapses a connection and reports the new state
func (s *Sidebar) Toggle(key models.ConnectionKey) bool {
	s.expanded[key] = !s.expanded[key]
	s.clampCursor()
	return s.expanded[key]
}

// Items returns the visible rows in display order
func (s *Sidebar) Items() []SidebarItem {
	var items []SidebarItem
	for _, c := range s.connections {
		items = append(items, SidebarItem{Kind: SidebarConnection, Connection: c})
		key := c.Connection.Key()
		if !s.expanded[key] {
			continue
		}
		for _, b := range s.indices[key] {
			items = append(items, SidebarItem{Kind: SidebarIndex, Connection: c, Brief: b})
		}
	}
	return items
}

// Current returns the row under the cursor
func (s *Sidebar) Current() (SidebarItem, bool) {
	items := s.Items()
	if s.cursor < 0 || s.cursor >= len(items) {
		return SidebarItem{}, false
	}
	return items[s.cursor], true
}

// Move moves the cursor by delta rows
func (s *Sidebar) Move(delta int) {
	s.cursor += delta
	s.clampCursor()
}

func (s *Sidebar) clampCursor() {
	n := len(s.Items())
	if s.cursor >= n {
		s.cursor = n - 1
	}
	if s.cursor < 0 {
		s.cursor = 0
	}
}

// View renders the sidebar
func (s *Sidebar) View() string {
	items := s.Items()
	if len(items) == 0 {
		return lipgloss.NewStyle().Foreground(s.Theme.Muted).Render("No connections\n\npress a to add one")
	}

	visible := s.Height - 1
	if visible < 1 {
		visible = len(items)
	}
	if s.cursor < s.offset {
		s.offset = s.cursor
	}
	if s.cursor >= s.offset+visible {
		s.offset = s.cursor - visible + 1
	}
	end := s.offset + visible
	if end > len(items) {
		end = len(items)
	}

	var lines []string
	for i := s.offset; i < end; i++ {
		line := s.renderItem(items[i])
		if i == s.cursor {
			line = lipgloss.NewStyle().Background(s.Theme.Selection).Bold(true).Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (s *Sidebar) renderItem(item SidebarItem) string {
	muted := lipgloss.NewStyle().Foreground(s.Theme.Muted)
	if item.Kind == SidebarIndex {
		dot := lipgloss.NewStyle().Foreground(s.Theme.HealthColor(string(item.Brief.Health))).Render("●")
		return fmt.Sprintf("  %s %s %s", dot, item.Brief.Index, muted.Render(fmt.Sprintf("(%d)", item.Brief.DocsCount)))
	}

	key := item.Connection.Connection.Key()
	arrow := "▸"
	if s.expanded[key] {
		arrow = "▾"
	}
	line := arrow + " " + item.Connection.Connection.Alias
	switch {
	case s.loading[key]:
		line += muted.Render(" loading…")
	case s.failed[key] != "":
		line += lipgloss.NewStyle().Foreground(s.Theme.Error).Render(" !")
	case item.Connection.Source != models.SourceConfig:
		line += muted.Render(" [" + item.Connection.Source.String() + "]")
	}
	return line
}
