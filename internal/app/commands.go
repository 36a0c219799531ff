package app

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/rebeliceyang/lazyes/internal/es/mutation"
	"github.com/rebeliceyang/lazyes/internal/export"
	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/session"
)

// ConnectionsLoadedMsg carries the sidebar connections
type ConnectionsLoadedMsg struct {
	Connections []models.DiscoveredConnection
}

// IndicesLoadedMsg carries the index list of one connection
type IndicesLoadedMsg struct {
	Key    models.ConnectionKey
	Briefs []models.IndexBrief
	Err    error
}

// StoreChangedMsg is delivered after the session state changed
type StoreChangedMsg struct {
	Snapshot session.Snapshot
}

// OpDoneMsg reports the end of a background operation
type OpDoneMsg struct {
	Title  string
	Status string
	Err    error
}

// ErrorMsg asks the app to show an error overlay
type ErrorMsg struct {
	Title   string
	Message string
}

// waitForChange blocks until the store publishes a new snapshot
func (a *App) waitForChange() tea.Msg {
	return StoreChangedMsg{Snapshot: <-a.changes}
}

func (a *App) loadConnections() tea.Msg {
	ctx, cancel := context.WithTimeout(a.ctx, 3*time.Second)
	defer cancel()

	saved := a.conns.All()
	if a.discoverer == nil {
		out := make([]models.DiscoveredConnection, 0, len(saved))
		for _, c := range saved {
			out = append(out, models.DiscoveredConnection{Connection: c, Source: models.SourceConfig})
		}
		return ConnectionsLoadedMsg{Connections: out}
	}
	return ConnectionsLoadedMsg{Connections: a.discoverer.DiscoverAll(ctx, saved)}
}

func (a *App) listIndices(conn models.Connection) tea.Cmd {
	return func() tea.Msg {
		briefs, err := a.sess.ListIndices(a.ctx, conn)
		return IndicesLoadedMsg{Key: conn.Key(), Briefs: briefs, Err: err}
	}
}

func (a *App) activate(key string) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Title: "Query Failed", Err: a.sess.Activate(a.ctx, key)}
	}
}

func (a *App) refresh(key string) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Title: "Query Failed", Err: a.sess.Refresh(a.ctx, key)}
	}
}

func (a *App) loadOverview(key string) tea.Cmd {
	return func() tea.Msg {
		return OpDoneMsg{Title: "Overview Failed", Err: a.sess.LoadOverview(a.ctx, key)}
	}
}

func (a *App) updateDocument(key, id string, partial models.Document) tea.Cmd {
	return func() tea.Msg {
		err := a.sess.UpdateDocument(a.ctx, key, id, partial)
		return OpDoneMsg{Title: "Update Failed", Status: "updated " + id, Err: err}
	}
}

func (a *App) deleteDocument(key, id string) tea.Cmd {
	return func() tea.Msg {
		err := a.sess.DeleteDocument(a.ctx, key, id)
		return OpDoneMsg{Title: "Delete Failed", Status: "deleted " + id, Err: err}
	}
}

func (a *App) deleteDocuments(key string) tea.Cmd {
	return func() tea.Msg {
		res, err := a.sess.DeleteDocuments(a.ctx, key)
		return OpDoneMsg{Title: "Delete Failed", Status: bulkStatus("deleted", res), Err: err}
	}
}

func (a *App) updateDocuments(key string, partial models.Document) tea.Cmd {
	return func() tea.Msg {
		res, err := a.sess.UpdateDocuments(a.ctx, key, partial)
		return OpDoneMsg{Title: "Update Failed", Status: bulkStatus("updated", res), Err: err}
	}
}

func bulkStatus(verb string, res *mutation.Result) string {
	if res == nil {
		return ""
	}
	return fmt.Sprintf("%s %d of %d documents (%s) in %s", verb, res.Succeeded, res.Requested, res.Mode, res.Duration.Round(time.Millisecond))
}

func (a *App) exportPage(index string, page *models.Page, format export.Format) tea.Cmd {
	return func() tea.Msg {
		path, err := export.WritePage(a.cfg.Storage.ExportDir, index, page, format, a.now())
		return OpDoneMsg{Title: "Export Failed", Status: "exported to " + path, Err: err}
	}
}
