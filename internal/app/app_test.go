package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/config"
	"github.com/rebeliceyang/lazyes/internal/connstore"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/es/estest"
	"github.com/rebeliceyang/lazyes/internal/favorites"
	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/session"
	"github.com/rebeliceyang/lazyes/internal/ui/components"
)

const (
	docMapping = `{"idx1":{"mappings":{"doc":{"properties":{"title":{"type":"text"},"count":{"type":"long"}}}}}}`
	catIdx1    = `[{"health":"green","status":"open","index":"idx1","uuid":"u1","pri":"1","rep":"0","docs.count":"3","docs.deleted":"0","store.size":"5kb","pri.store.size":"5kb"}]`
	threeHits  = `{"hits":{"total":3,"hits":[
		{"_id":"1","_source":{"title":"a","count":1}},
		{"_id":"2","_source":{"title":"b","count":2}},
		{"_id":"3","_source":{"title":"c","count":3}}]}}`
)

var local = models.Connection{Alias: "local", Host: "http://localhost:9200"}

type harness struct {
	t      *testing.T
	app    *App
	tr     *estest.Transport
	favs   *favorites.Manager
	copied []string
	dir    string
}

func newHarness(t *testing.T, tr *estest.Transport) *harness {
	t.Helper()
	dir := t.TempDir()

	cfg := config.GetDefaults()
	cfg.ResolveStorage(dir)

	conns := connstore.NewList(connstore.NewStore(cfg.Storage.ConnectionsFile))
	require.NoError(t, conns.Add(local))

	favs, err := favorites.NewManager(cfg.Storage.FavoritesFile)
	require.NoError(t, err)

	registry := connection.NewRegistryWithFactory(func(conn models.Connection) (*connection.Client, error) {
		return connection.NewClient(conn, tr), nil
	})
	sess := session.New(session.Options{
		Registry:          registry,
		Store:             session.NewStore(cfg.General.DefaultPageSize, `{"match_all":{}}`),
		DefaultPageSize:   cfg.General.DefaultPageSize,
		RefreshOnMutation: true,
	})

	h := &harness{t: t, tr: tr, favs: favs, dir: dir}
	h.app = New(Options{
		Config:      cfg,
		Session:     sess,
		Connections: conns,
		Favorites:   favs,
		Clipboard: func(s string) error {
			h.copied = append(h.copied, s)
			return nil
		},
		Now: func() time.Time { return time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC) },
	})
	t.Cleanup(h.app.Close)
	h.send(tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

// send delivers msg and keeps feeding the results of returned commands
// back into the model. Commands that do not finish quickly (cursor blink)
// are dropped.
func (h *harness) send(msg tea.Msg) {
	h.t.Helper()
	queue := []tea.Msg{msg}
	for i := 0; len(queue) > 0 && i < 100; i++ {
		m := queue[0]
		queue = queue[1:]
		_, cmd := h.app.Update(m)
		queue = append(queue, run(cmd)...)
	}
}

func (h *harness) press(keys ...string) {
	h.t.Helper()
	for _, k := range keys {
		h.send(keyMsg(k))
	}
}

func (h *harness) typeText(s string) {
	h.t.Helper()
	h.send(tea.KeyMsg{Type: tea.KeyCtrlU})
	h.send(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func (h *harness) active() session.TabState {
	h.t.Helper()
	state, ok := h.app.sess.Store().Snapshot().Active()
	require.True(h.t, ok)
	return state
}

// openIdx1 loads the sidebar, expands the connection and opens idx1
func (h *harness) openIdx1() {
	h.t.Helper()
	h.send(h.app.loadConnections())
	h.press("enter", "j", "enter")
	require.Equal(h.t, "Tab:idx1:query", h.active().Tab.Key)
}

func run(cmd tea.Cmd) []tea.Msg {
	if cmd == nil {
		return nil
	}
	done := make(chan tea.Msg, 1)
	go func() { done <- cmd() }()
	select {
	case msg := <-done:
		if batch, ok := msg.(tea.BatchMsg); ok {
			var out []tea.Msg
			for _, c := range batch {
				out = append(out, run(c)...)
			}
			return out
		}
		if msg == nil {
			return nil
		}
		return []tea.Msg{msg}
	case <-time.After(200 * time.Millisecond):
		return nil
	}
}

func keyMsg(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func indexTransport() *estest.Transport {
	return estest.New().
		On("GET", "_mapping", 200, docMapping).
		On("GET", "_cat/indices", 200, catIdx1).
		On("POST", "_search", 200, threeHits)
}

func TestAppOpenIndexFromSidebar(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	state := h.active()
	require.NotNil(t, state.Page)
	assert.Len(t, state.Page.Rows, 3)
	assert.Equal(t, "doc", state.Query.SelectedType)
	assert.Equal(t, models.RightPanel, h.app.state.FocusedPanel)

	view := h.app.View()
	assert.Contains(t, view, "idx1")
	assert.Contains(t, view, "type: doc")

	// re-opening the same index does not reload it
	h.press("tab", "enter")
	assert.Equal(t, 1, h.tr.Count("_search"))
}

func TestAppIndexWithoutTypes(t *testing.T) {
	tr := estest.New().
		On("GET", "_mapping", 200, `{"idx1":{"mappings":{}}}`).
		On("GET", "_cat/indices", 200, catIdx1)
	h := newHarness(t, tr)
	h.openIdx1()

	assert.False(t, h.app.showError)
	assert.NoError(t, h.active().Err)
	assert.Equal(t, 0, tr.Count("_search"))

	view := h.app.View()
	assert.Contains(t, view, "type: none")
	assert.Contains(t, view, "idx1 has no document types")
	assert.NotContains(t, view, "Query Failed")
}

func TestAppCopyRow(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	h.press("j", "y")
	require.Len(t, h.copied, 1)
	assert.Contains(t, h.copied[0], `"title": "b"`)
	assert.Equal(t, "copied document 2", h.app.status)
}

func TestAppDeleteSelectionAsksFirst(t *testing.T) {
	tr := indexTransport().
		On("POST", "_bulk", 200, `{"errors":false,"items":[
			{"delete":{"_id":"1","status":200,"result":"deleted"}},
			{"delete":{"_id":"2","status":200,"result":"deleted"}}]}`)
	h := newHarness(t, tr)
	h.openIdx1()

	h.press(" ", " ")
	assert.Equal(t, []string{"1", "2"}, h.active().Selected)

	h.press("D")
	require.NotNil(t, h.app.confirm)
	assert.Contains(t, h.app.View(), "Delete 2 selected documents from idx1?")

	h.press("n")
	assert.Nil(t, h.app.confirm)
	assert.Equal(t, 0, tr.Count("_bulk"))

	h.press("D", "y")
	assert.Equal(t, 1, tr.Count("_bulk"))
	assert.Equal(t, 2, tr.Count("_search"))
	assert.Empty(t, h.active().Selected)
	assert.Contains(t, h.app.status, "deleted 2 of 2 documents")
}

func TestAppInvalidFilterShowsError(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	h.press("f")
	require.NotNil(t, h.app.prompt)
	h.typeText(`{"match":`)
	h.press("enter")

	assert.True(t, h.app.showError)
	assert.Contains(t, h.app.View(), "Query Failed")
	assert.Equal(t, 1, h.tr.Count("_search"))

	h.press("esc")
	assert.False(t, h.app.showError)
	// the last good page stays visible
	assert.Len(t, h.active().Page.Rows, 3)
}

func TestAppUpdateRowRejectsNonObject(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	h.press("u")
	require.NotNil(t, h.app.prompt)
	h.typeText(`[1,2]`)
	h.press("enter")

	assert.True(t, h.app.showError)
	assert.Equal(t, 0, h.tr.Count("_update"))
}

func TestAppSaveAndApplyFavorite(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	h.press("s")
	h.typeText("everything")
	h.press("enter")

	favs := h.favs.GetAll()
	require.Len(t, favs, 1)
	assert.Equal(t, "everything", favs[0].Name)
	assert.Equal(t, "local", favs[0].Connection)
	assert.Equal(t, "idx1", favs[0].Index)
	assert.Equal(t, `{"match_all":{}}`, favs[0].Filter)

	h.press("F")
	require.NotNil(t, h.app.favDialog)
	h.press("enter")
	assert.Nil(t, h.app.favDialog)
	assert.Equal(t, 2, h.tr.Count("_search"))

	fav, err := h.favs.Get(favs[0].ID)
	require.NoError(t, err)
	assert.Equal(t, 1, fav.UsageCount)
}

func TestAppExportPage(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	h.press("e")
	path := filepath.Join(h.dir, "exports", "idx1_p1_20240501_120000.csv")
	assert.Equal(t, "exported to "+path, h.app.status)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "key,title,count")
}

func TestAppPageSizeAndTabs(t *testing.T) {
	h := newHarness(t, indexTransport())
	h.openIdx1()

	h.press("+")
	assert.Equal(t, 150, h.active().Pagination.PageSize)
	assert.Equal(t, 2, h.tr.Count("_search"))

	h.press("?")
	assert.Equal(t, models.HelpMode, h.app.state.ViewMode)
	h.press("?")
	assert.Equal(t, models.NormalMode, h.app.state.ViewMode)

	h.press("x")
	_, ok := h.app.sess.Store().Snapshot().Active()
	assert.False(t, ok)
}

func TestAppAddConnection(t *testing.T) {
	h := newHarness(t, estest.New())

	h.press("a")
	require.NotNil(t, h.app.connDialog)
	h.send(components.SaveConnectionMsg{Connection: models.Connection{Alias: "staging", Host: "http://staging:9200"}})

	assert.Nil(t, h.app.connDialog)
	_, ok := h.app.conns.Find("staging")
	assert.True(t, ok)
	items := h.app.sidebar.Items()
	require.Len(t, items, 2)
}

func TestNextPageSize(t *testing.T) {
	options := []int{100, 150, 200}
	assert.Equal(t, 150, nextPageSize(options, 100, true))
	assert.Equal(t, 100, nextPageSize(options, 100, false))
	assert.Equal(t, 200, nextPageSize(options, 200, true))
	assert.Equal(t, 100, nextPageSize(options, 42, true))
	assert.Equal(t, 42, nextPageSize(nil, 42, true))
}
