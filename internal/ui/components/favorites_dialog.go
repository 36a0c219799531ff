package components

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// ApplyFavoriteMsg is sent when a saved filter should be applied to the tab
type ApplyFavoriteMsg struct {
	Favorite models.Favorite
}

// DeleteFavoriteMsg is sent when a saved filter should be removed
type DeleteFavoriteMsg struct {
	ID string
}

// CloseFavoritesDialogMsg is sent when the dialog should close
type CloseFavoritesDialogMsg struct{}

// FavoritesDialog lists the saved filters of an index
type FavoritesDialog struct {
	Width  int
	Height int
	Theme  theme.Theme

	favorites []models.Favorite
	selected  int
	offset    int
}

// NewFavoritesDialog creates a favorites dialog
func NewFavoritesDialog(th theme.Theme) *FavoritesDialog {
	return &FavoritesDialog{Width: 80, Height: 20, Theme: th}
}

// SetFavorites replaces the list
func (fd *FavoritesDialog) SetFavorites(favorites []models.Favorite) {
	fd.favorites = favorites
	if fd.selected >= len(favorites) {
		fd.selected = len(favorites) - 1
	}
	if fd.selected < 0 {
		fd.selected = 0
	}
	fd.offset = 0
}

func (fd *FavoritesDialog) visibleRows() int {
	if h := fd.Height - 6; h > 0 {
		return h
	}
	return 1
}

// Update handles keyboard input
func (fd *FavoritesDialog) Update(msg tea.KeyMsg) (*FavoritesDialog, tea.Cmd) {
	switch msg.String() {
	case "esc", "q":
		return fd, func() tea.Msg { return CloseFavoritesDialogMsg{} }
	case "up", "k":
		if fd.selected > 0 {
			fd.selected--
			if fd.selected < fd.offset {
				fd.offset = fd.selected
			}
		}
	case "down", "j":
		if fd.selected < len(fd.favorites)-1 {
			fd.selected++
			if fd.selected >= fd.offset+fd.visibleRows() {
				fd.offset = fd.selected - fd.visibleRows() + 1
			}
		}
	case "enter":
		if fd.selected < len(fd.favorites) {
			fav := fd.favorites[fd.selected]
			return fd, func() tea.Msg { return ApplyFavoriteMsg{Favorite: fav} }
		}
	case "d", "x":
		if fd.selected < len(fd.favorites) {
			id := fd.favorites[fd.selected].ID
			return fd, func() tea.Msg { return DeleteFavoriteMsg{ID: id} }
		}
	}
	return fd, nil
}

// View renders the dialog
func (fd *FavoritesDialog) View() string {
	var b strings.Builder
	b.WriteString(lipgloss.NewStyle().Bold(true).Foreground(fd.Theme.BorderFocused).Render("Saved filters"))
	b.WriteString("\n\n")

	muted := lipgloss.NewStyle().Foreground(fd.Theme.Muted)
	if len(fd.favorites) == 0 {
		b.WriteString(muted.Render("No saved filters for this index.\nPress s in a query tab to save the current filter."))
	} else {
		end := fd.offset + fd.visibleRows()
		if end > len(fd.favorites) {
			end = len(fd.favorites)
		}
		for i := fd.offset; i < end; i++ {
			fav := fd.favorites[i]
			line := fmt.Sprintf("%-24s %s", fav.Name, muted.Render(truncateTitle(fav.Filter, fd.Width-32)))
			if fav.UsageCount > 0 {
				line += muted.Render(fmt.Sprintf(" ×%d", fav.UsageCount))
			}
			if i == fd.selected {
				line = lipgloss.NewStyle().Background(fd.Theme.Selection).Bold(true).Render("> " + line)
			} else {
				line = "  " + line
			}
			b.WriteString(line + "\n")
		}
	}
	b.WriteString("\n")
	b.WriteString(muted.Italic(true).Render("Enter: apply │ d: delete │ Esc: close"))

	return lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(fd.Theme.BorderFocused).
		Padding(0, 1).
		Width(fd.Width).
		Render(b.String())
}
