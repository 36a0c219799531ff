package app

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazyes/internal/config"
	"github.com/rebeliceyang/lazyes/internal/connstore"
	"github.com/rebeliceyang/lazyes/internal/discovery"
	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/export"
	"github.com/rebeliceyang/lazyes/internal/favorites"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/session"
	"github.com/rebeliceyang/lazyes/internal/ui/components"
	"github.com/rebeliceyang/lazyes/internal/ui/help"
	"github.com/rebeliceyang/lazyes/internal/ui/theme"
)

// Options wires the App to the rest of the process
type Options struct {
	Config      *config.Config
	Session     *session.Session
	Connections *connstore.List
	Favorites   *favorites.Manager
	Discoverer  *discovery.Discoverer
	Logger      logrus.FieldLogger
	// Clipboard defaults to the system clipboard
	Clipboard func(string) error
	Now       func() time.Time
}

// confirm actions
const (
	actionDeleteRow  = "delete-row"
	actionDeleteMany = "delete-many"
	actionUpdateMany = "update-many"
)

// App is the main application model
type App struct {
	state      models.AppState
	cfg        *config.Config
	theme      theme.Theme
	logger     logrus.FieldLogger
	ctx        context.Context
	now        func() time.Time
	copy       func(string) error
	leftPanel  components.Panel
	rightPanel components.Panel

	sess       *session.Session
	conns      *connstore.List
	favs       *favorites.Manager
	discoverer *discovery.Discoverer

	changes     chan session.Snapshot
	unsubscribe func()

	sidebar  *components.Sidebar
	tabBar   *components.TabBar
	table    *components.TableView
	overview *components.OverviewView

	// Overlays
	showError    bool
	errorOverlay *components.ErrorOverlay
	prompt       *components.Prompt
	confirm      *components.ConfirmDialog
	viewer       *components.DocumentViewer
	favDialog    *components.FavoritesDialog
	connDialog   *components.ConnectionDialog

	status         string
	pendingID      string
	pendingPartial models.Document
}

// New creates the App and subscribes it to the session store
func New(opts Options) *App {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.GetDefaults()
	}
	state := models.NewAppState()
	if cfg.UI.PanelWidthRatio > 0 && cfg.UI.PanelWidthRatio < 100 {
		state.LeftPanelWidth = cfg.UI.PanelWidthRatio
	}
	th := theme.GetTheme(cfg.UI.Theme)

	a := &App{
		state:        state,
		cfg:          cfg,
		theme:        th,
		logger:       logging.OrDiscard(opts.Logger),
		ctx:          context.Background(),
		now:          opts.Now,
		copy:         opts.Clipboard,
		sess:         opts.Session,
		conns:        opts.Connections,
		favs:         opts.Favorites,
		discoverer:   opts.Discoverer,
		changes:      make(chan session.Snapshot, 1),
		sidebar:      components.NewSidebar(th),
		tabBar:       components.NewTabBar(th),
		table:        components.NewTableView(th),
		overview:     components.NewOverviewView(th),
		errorOverlay: components.NewErrorOverlay(th),
		leftPanel:    components.Panel{Title: "Connections", Theme: th},
		rightPanel:   components.Panel{Title: "Tabs", Theme: th},
	}
	if a.now == nil {
		a.now = time.Now
	}
	if a.copy == nil {
		a.copy = clipboard.WriteAll
	}
	if a.conns == nil {
		a.conns = connstore.NewList(connstore.NewStore(cfg.Storage.ConnectionsFile))
	}
	a.table.MaxCellWidth = cfg.Data.MaxCellDisplayLength

	// keep only the latest snapshot; the program reads it on its own schedule
	a.unsubscribe = a.sess.Store().Subscribe(func(s session.Snapshot) {
		for {
			select {
			case a.changes <- s:
				return
			default:
				select {
				case <-a.changes:
				default:
				}
			}
		}
	})

	a.updatePanelDimensions()
	a.updatePanelStyles()
	return a
}

// Close detaches the App from the store
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitForChange, a.loadConnections)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.state.Width = msg.Width
		a.state.Height = msg.Height
		a.updatePanelDimensions()
		return a, nil

	case StoreChangedMsg:
		a.sync()
		return a, a.waitForChange

	case ConnectionsLoadedMsg:
		a.sidebar.SetConnections(msg.Connections)
		return a, nil

	case IndicesLoadedMsg:
		a.sidebar.SetIndices(msg.Key, msg.Briefs, msg.Err)
		if msg.Err != nil {
			a.ShowError("Connection Failed", fmt.Sprintf("Could not list indices of %s\n\n%v", msg.Key, msg.Err))
		}
		return a, nil

	case OpDoneMsg:
		a.sync()
		if msg.Err != nil {
			a.logger.WithError(msg.Err).Warn(strings.ToLower(msg.Title))
			a.ShowError(msg.Title, msg.Err.Error())
			return a, nil
		}
		if msg.Status != "" {
			a.status = msg.Status
		}
		return a, nil

	case ErrorMsg:
		a.ShowError(msg.Title, msg.Message)
		return a, nil

	case components.PromptSubmitMsg:
		a.prompt = nil
		return a.handlePromptSubmit(msg)

	case components.PromptCancelMsg:
		a.prompt = nil
		return a, nil

	case components.ConfirmResultMsg:
		a.confirm = nil
		return a.handleConfirm(msg)

	case components.CloseDocumentViewerMsg:
		a.viewer = nil
		return a, nil

	case components.CloseFavoritesDialogMsg:
		a.favDialog = nil
		return a, nil

	case components.ApplyFavoriteMsg:
		a.favDialog = nil
		return a.applyFavorite(msg.Favorite)

	case components.DeleteFavoriteMsg:
		return a.deleteFavorite(msg.ID)

	case components.CloseConnectionDialogMsg:
		a.connDialog = nil
		return a, nil

	case components.SaveConnectionMsg:
		if err := a.conns.Add(msg.Connection); err != nil {
			a.ShowError("Save Failed", err.Error())
			return a, nil
		}
		a.connDialog = nil
		a.status = "saved connection " + msg.Connection.Alias
		return a, a.loadConnections

	case tea.KeyMsg:
		return a.handleKey(msg)
	}

	// forward everything else (cursor blink) to the focused input
	if a.prompt != nil {
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return a, cmd
	}
	if a.connDialog != nil {
		var cmd tea.Cmd
		a.connDialog, cmd = a.connDialog.Update(msg)
		return a, cmd
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if a.showError {
		switch key {
		case "esc", "enter":
			a.DismissError()
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	switch {
	case a.prompt != nil:
		var cmd tea.Cmd
		a.prompt, cmd = a.prompt.Update(msg)
		return a, cmd
	case a.confirm != nil:
		return a, a.confirm.Update(msg)
	case a.connDialog != nil:
		var cmd tea.Cmd
		a.connDialog, cmd = a.connDialog.Update(msg)
		return a, cmd
	case a.favDialog != nil:
		var cmd tea.Cmd
		a.favDialog, cmd = a.favDialog.Update(msg)
		return a, cmd
	case a.viewer != nil:
		if key == "y" {
			if row, ok := a.table.Current(); ok {
				return a, a.copyRow(row)
			}
		}
		var cmd tea.Cmd
		a.viewer, cmd = a.viewer.Update(msg)
		return a, cmd
	}

	if a.state.ViewMode == models.HelpMode {
		switch key {
		case "?", "esc", "q":
			a.state.ViewMode = models.NormalMode
		case "ctrl+c":
			return a, tea.Quit
		}
		return a, nil
	}

	switch key {
	case "q", "ctrl+c":
		return a, tea.Quit
	case "?":
		a.state.ViewMode = models.HelpMode
		return a, nil
	case "tab":
		if a.state.FocusedPanel == models.LeftPanel {
			a.state.FocusedPanel = models.RightPanel
		} else {
			a.state.FocusedPanel = models.LeftPanel
		}
		a.updatePanelStyles()
		return a, nil
	case "[":
		a.sess.Store().SelectNeighbor(-1)
		a.sync()
		return a, nil
	case "]":
		a.sess.Store().SelectNeighbor(1)
		a.sync()
		return a, nil
	case "x":
		if active, ok := a.sess.Store().Snapshot().Active(); ok {
			a.sess.Store().CloseTab(active.Tab.Key)
			a.sync()
		}
		return a, nil
	}

	if a.state.FocusedPanel == models.LeftPanel {
		return a.handleSidebarKey(key)
	}
	active, ok := a.sess.Store().Snapshot().Active()
	if !ok {
		return a, nil
	}
	if active.Tab.Operation == models.OperationOverview {
		return a.handleOverviewKey(key, active)
	}
	return a.handleQueryKey(key, active)
}

func (a *App) handleSidebarKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		a.sidebar.Move(-1)
	case "down", "j":
		a.sidebar.Move(1)
	case "a":
		a.connDialog = components.NewConnectionDialog(a.theme)
	case "r":
		if item, ok := a.sidebar.Current(); ok {
			conn := item.Connection.Connection
			a.sidebar.SetLoading(conn.Key())
			return a, a.listIndices(conn)
		}
	case "o":
		if item, ok := a.sidebar.Current(); ok {
			tabKey, _, err := a.sess.OpenOverviewTab(item.Connection.Connection)
			if err != nil {
				a.ShowError("Connection Failed", err.Error())
				return a, nil
			}
			a.focusRight()
			a.sync()
			return a, a.loadOverview(tabKey)
		}
	case "enter":
		item, ok := a.sidebar.Current()
		if !ok {
			return a, nil
		}
		conn := item.Connection.Connection
		if item.Kind == components.SidebarConnection {
			if !a.sidebar.Loaded(conn.Key()) {
				a.sidebar.SetLoading(conn.Key())
				return a, a.listIndices(conn)
			}
			a.sidebar.Toggle(conn.Key())
			return a, nil
		}
		return a.openIndex(conn, item.Brief.Index)
	}
	return a, nil
}

func (a *App) openIndex(conn models.Connection, index string) (tea.Model, tea.Cmd) {
	key, created, err := a.sess.OpenQueryTab(conn, index)
	if err != nil {
		a.ShowError("Connection Failed", err.Error())
		return a, nil
	}
	a.focusRight()
	a.sync()
	if !created {
		return a, nil
	}
	return a, a.activate(key)
}

func (a *App) handleOverviewKey(key string, active session.TabState) (tea.Model, tea.Cmd) {
	switch key {
	case "up", "k":
		a.overview.Scroll(-1)
	case "down", "j":
		a.overview.Scroll(1)
	case "r":
		return a, a.loadOverview(active.Tab.Key)
	}
	return a, nil
}

func (a *App) handleQueryKey(key string, active session.TabState) (tea.Model, tea.Cmd) {
	store := a.sess.Store()
	tabKey := active.Tab.Key

	switch key {
	case "up", "k":
		a.table.MoveSelection(-1)
	case "down", "j":
		a.table.MoveSelection(1)
	case "r":
		return a, a.refresh(tabKey)
	case "n":
		if active.Pagination.Current < active.Pagination.PageCount() {
			store.SetPage(tabKey, active.Pagination.Current+1, 0)
			return a, a.refresh(tabKey)
		}
	case "p":
		if active.Pagination.Current > 1 {
			store.SetPage(tabKey, active.Pagination.Current-1, 0)
			return a, a.refresh(tabKey)
		}
	case "+", "-":
		size := nextPageSize(a.cfg.General.PageSizeOptions, active.Pagination.PageSize, key == "+")
		if size != active.Pagination.PageSize {
			store.SetPage(tabKey, 1, size)
			return a, a.refresh(tabKey)
		}
	case "t":
		if active.Schema == nil {
			return a, nil
		}
		names := active.Schema.Catalog.TypeNames()
		if len(names) < 2 {
			return a, nil
		}
		store.SetType(tabKey, nextString(names, active.Query.SelectedType))
		return a, a.refresh(tabKey)
	case "f", "/":
		text := active.Query.FilterText
		if compact, err := dsl.Compact(text); err == nil {
			text = compact
		}
		a.prompt = components.NewPrompt(a.theme, components.PromptFilter, "Filter (query DSL)", text)
	case " ":
		if row, ok := a.table.Current(); ok {
			store.ToggleSelected(tabKey, row.ID)
			a.table.MoveSelection(1)
			a.sync()
		}
	case "esc":
		store.ClearSelection(tabKey)
		a.sync()
	case "enter":
		if row, ok := a.table.Current(); ok {
			a.viewer = components.NewDocumentViewer(a.theme)
			a.viewer.Width = max(a.state.Width-10, 40)
			a.viewer.Height = max(a.state.Height-6, 10)
			a.viewer.SetRow(row)
		}
	case "y":
		if row, ok := a.table.Current(); ok {
			return a, a.copyRow(row)
		}
	case "u":
		if row, ok := a.table.Current(); ok {
			a.pendingID = row.ID
			a.prompt = components.NewPrompt(a.theme, components.PromptUpdateRow, "Update "+row.ID+" (partial JSON)", "{}")
		}
	case "U":
		a.prompt = components.NewPrompt(a.theme, components.PromptUpdateMany, "Update "+a.targetText(active)+" (partial JSON)", "{}")
	case "d":
		if row, ok := a.table.Current(); ok {
			a.pendingID = row.ID
			return a.confirmOrRun(actionDeleteRow, fmt.Sprintf("Delete document %s from %s?", row.ID, active.Tab.Index))
		}
	case "D":
		return a.confirmOrRun(actionDeleteMany, fmt.Sprintf("Delete %s from %s?", a.targetText(active), active.Tab.Index))
	case "e", "E":
		if active.Page == nil {
			return a, nil
		}
		format := export.FormatCSV
		if key == "E" {
			format = export.FormatJSON
		}
		return a, a.exportPage(active.Tab.Index, active.Page, format)
	case "s":
		if a.favs != nil {
			a.prompt = components.NewPrompt(a.theme, components.PromptSaveFavorite, "Save filter as", "")
		}
	case "F":
		if a.favs != nil {
			a.favDialog = components.NewFavoritesDialog(a.theme)
			a.favDialog.Width = max(a.state.Width-20, 50)
			a.favDialog.SetFavorites(a.favs.ForIndex(active.Tab.Connection.Alias, active.Tab.Index))
		}
	}
	return a, nil
}

// targetText describes which documents a bulk action will touch
func (a *App) targetText(active session.TabState) string {
	if n := len(active.Selected); n > 0 {
		return fmt.Sprintf("%d selected documents", n)
	}
	return "all documents matching the filter"
}

func (a *App) confirmOrRun(action, message string) (tea.Model, tea.Cmd) {
	if a.cfg.General.ConfirmDestructiveOps {
		a.confirm = components.NewConfirmDialog(a.theme, action, message)
		return a, nil
	}
	return a.handleConfirm(components.ConfirmResultMsg{Action: action, Confirmed: true})
}

func (a *App) handleConfirm(msg components.ConfirmResultMsg) (tea.Model, tea.Cmd) {
	active, ok := a.sess.Store().Snapshot().Active()
	if !msg.Confirmed || !ok {
		a.pendingID, a.pendingPartial = "", nil
		return a, nil
	}
	tabKey := active.Tab.Key

	switch msg.Action {
	case actionDeleteRow:
		id := a.pendingID
		a.pendingID = ""
		return a, a.deleteDocument(tabKey, id)
	case actionDeleteMany:
		return a, a.deleteDocuments(tabKey)
	case actionUpdateMany:
		partial := a.pendingPartial
		a.pendingPartial = nil
		return a, a.updateDocuments(tabKey, partial)
	}
	return a, nil
}

func (a *App) handlePromptSubmit(msg components.PromptSubmitMsg) (tea.Model, tea.Cmd) {
	active, ok := a.sess.Store().Snapshot().Active()
	if !ok {
		return a, nil
	}
	tabKey := active.Tab.Key

	switch msg.Purpose {
	case components.PromptFilter:
		a.sess.Store().SetFilter(tabKey, msg.Value)
		return a, a.refresh(tabKey)

	case components.PromptUpdateRow:
		partial, err := dsl.ParseDocument(msg.Value)
		if err != nil {
			a.ShowError("Invalid Document", err.Error())
			return a, nil
		}
		id := a.pendingID
		a.pendingID = ""
		return a, a.updateDocument(tabKey, id, partial)

	case components.PromptUpdateMany:
		partial, err := dsl.ParseDocument(msg.Value)
		if err != nil {
			a.ShowError("Invalid Document", err.Error())
			return a, nil
		}
		a.pendingPartial = partial
		return a.confirmOrRun(actionUpdateMany, fmt.Sprintf("Update %s in %s?", a.targetText(active), active.Tab.Index))

	case components.PromptSaveFavorite:
		fav, err := a.favs.Add(models.Favorite{
			Name:       msg.Value,
			Connection: active.Tab.Connection.Alias,
			Index:      active.Tab.Index,
			Type:       active.Query.SelectedType,
			Filter:     active.Query.FilterText,
		})
		if err != nil {
			a.ShowError("Save Failed", err.Error())
			return a, nil
		}
		a.status = "saved filter " + fav.Name
	}
	return a, nil
}

func (a *App) applyFavorite(fav models.Favorite) (tea.Model, tea.Cmd) {
	active, ok := a.sess.Store().Snapshot().Active()
	if !ok {
		return a, nil
	}
	store := a.sess.Store()
	if fav.Type != "" && active.Schema != nil && active.Schema.Catalog.HasType(fav.Type) {
		store.SetType(active.Tab.Key, fav.Type)
	}
	store.SetFilter(active.Tab.Key, fav.Filter)
	if err := a.favs.RecordUsage(fav.ID); err != nil {
		a.logger.WithError(err).Warn("failed to record favorite usage")
	}
	a.status = "applied filter " + fav.Name
	return a, a.refresh(active.Tab.Key)
}

func (a *App) deleteFavorite(id string) (tea.Model, tea.Cmd) {
	if err := a.favs.Delete(id); err != nil {
		a.ShowError("Delete Failed", err.Error())
		return a, nil
	}
	if a.favDialog != nil {
		if active, ok := a.sess.Store().Snapshot().Active(); ok {
			a.favDialog.SetFavorites(a.favs.ForIndex(active.Tab.Connection.Alias, active.Tab.Index))
		}
	}
	return a, nil
}

func (a *App) copyRow(row models.Row) tea.Cmd {
	return func() tea.Msg {
		if err := a.copy(row.JSON()); err != nil {
			return OpDoneMsg{Title: "Copy Failed", Err: err}
		}
		return OpDoneMsg{Status: "copied document " + row.ID}
	}
}

func (a *App) focusRight() {
	a.state.FocusedPanel = models.RightPanel
	a.updatePanelStyles()
}

// sync pulls the latest snapshot into the views
func (a *App) sync() {
	snap := a.sess.Store().Snapshot()
	active, ok := snap.Active()
	if !ok {
		a.table.SetPage(nil, nil)
		a.table.SetStatus("")
		return
	}
	if active.Tab.Operation == models.OperationQuery {
		a.table.SetPage(active.Page, active.Selected)
		rows := 0
		if active.Page != nil {
			rows = len(active.Page.Rows)
		}
		a.table.SetStatus(components.PageStatus(active.Pagination, rows, len(active.Selected)))
	}
}

func nextPageSize(options []int, current int, up bool) int {
	if len(options) == 0 {
		return current
	}
	idx := -1
	for i, o := range options {
		if o == current {
			idx = i
			break
		}
	}
	switch {
	case idx < 0:
		return options[0]
	case up && idx < len(options)-1:
		return options[idx+1]
	case !up && idx > 0:
		return options[idx-1]
	}
	return current
}

func nextString(values []string, current string) string {
	for i, v := range values {
		if v == current {
			return values[(i+1)%len(values)]
		}
	}
	return values[0]
}

// View implements tea.Model
func (a *App) View() string {
	overlay := ""
	switch {
	case a.showError:
		overlay = a.errorOverlay.View()
	case a.prompt != nil:
		a.prompt.Width = max(a.state.Width-20, 40)
		overlay = a.prompt.View()
	case a.confirm != nil:
		overlay = a.confirm.View()
	case a.connDialog != nil:
		overlay = a.connDialog.View()
	case a.favDialog != nil:
		overlay = a.favDialog.View()
	case a.viewer != nil:
		overlay = a.viewer.View()
	case a.state.ViewMode == models.HelpMode:
		return help.Render(a.state.Width, a.state.Height, a.theme)
	}
	if overlay != "" {
		return lipgloss.Place(a.state.Width, a.state.Height, lipgloss.Center, lipgloss.Center, overlay)
	}
	return a.renderNormalView()
}

func (a *App) renderNormalView() string {
	snap := a.sess.Store().Snapshot()
	active, hasActive := snap.Active()

	topRight := ""
	if hasActive {
		topRight = active.Tab.Connection.Alias + " · " + active.Tab.Connection.Redacted()
	}
	topBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.BorderFocused).
		Foreground(lipgloss.Color("230")).
		Padding(0, 2).
		Render(a.formatStatusBar("lazyes", topRight))

	bottomLeft := a.status
	if bottomLeft == "" {
		bottomLeft = "[tab] Switch panel | [?] Help | [q] Quit"
	}
	bottomBar := lipgloss.NewStyle().
		Width(a.state.Width).
		Background(a.theme.Selection).
		Foreground(a.theme.Foreground).
		Padding(0, 2).
		Render(a.formatStatusBar(bottomLeft, fmt.Sprintf("%d tabs", len(snap.Tabs))))

	a.sidebar.Width = a.leftPanel.Width
	a.sidebar.Height = a.leftPanel.Height - 1
	a.leftPanel.Badge = fmt.Sprintf("%d", len(a.conns.All()))
	a.leftPanel.Content = a.sidebar.View()

	a.tabBar.Width = a.rightPanel.Width
	labels := make([]components.TabLabel, 0, len(snap.Tabs))
	for _, t := range snap.Tabs {
		labels = append(labels, components.TabLabel{
			Key:       t.Tab.Key,
			Operation: t.Tab.Operation,
			Index:     t.Tab.Index,
			Loading:   t.Loading || t.Mutating,
			Failed:    t.Err != nil,
		})
	}
	a.rightPanel.Badge = ""
	if hasActive && active.Schema != nil {
		a.rightPanel.Badge = fmt.Sprintf("%d docs", active.Schema.Brief.DocsCount)
	}
	content := a.tabBar.View(labels, snap.ActiveKey) + "\n"
	if hasActive {
		content += a.renderTab(active)
	}
	a.rightPanel.Content = content

	panels := lipgloss.JoinHorizontal(lipgloss.Top, a.leftPanel.View(), a.rightPanel.View())
	return lipgloss.JoinVertical(lipgloss.Left, topBar, panels, bottomBar)
}

func (a *App) renderTab(active session.TabState) string {
	muted := lipgloss.NewStyle().Foreground(a.theme.Muted)
	var b strings.Builder

	if active.Tab.Operation == models.OperationOverview {
		a.overview.Width = a.rightPanel.Width
		a.overview.Height = a.rightPanel.Height - 2
		b.WriteString(a.overview.View(active.Overview))
	} else {
		typeName := active.Query.SelectedType
		if active.Typeless() {
			typeName = "(typeless)"
		}
		filter := active.Query.FilterText
		if compact, err := dsl.Compact(filter); err == nil {
			filter = compact
		}
		if active.Schema != nil && typeName == "" {
			typeName = "none"
		}
		b.WriteString(muted.Render(fmt.Sprintf("type: %s │ filter: %s", typeName, dsl.Truncate(filter, a.rightPanel.Width-20))))
		b.WriteString("\n")

		if active.Schema != nil && len(active.Schema.Catalog.Types) == 0 {
			b.WriteString(muted.Render(fmt.Sprintf("%s has no document types", active.Tab.Index)))
		} else {
			a.table.Width = a.rightPanel.Width
			a.table.Height = a.rightPanel.Height - 4
			b.WriteString(a.table.View())
		}
	}

	if active.Err != nil {
		b.WriteString("\n")
		b.WriteString(lipgloss.NewStyle().Foreground(a.theme.Error).Render(dsl.Truncate(active.Err.Error(), a.rightPanel.Width)))
	}
	return b.String()
}

// updatePanelDimensions calculates panel sizes based on window size
func (a *App) updatePanelDimensions() {
	if a.state.Width <= 0 || a.state.Height <= 0 {
		return
	}

	// top and bottom bar, plus the panel borders
	contentHeight := a.state.Height - 4
	if contentHeight < 5 {
		contentHeight = 5
	}

	leftWidth := (a.state.Width * a.state.LeftPanelWidth) / 100
	if leftWidth < 20 {
		leftWidth = 20
	}
	rightWidth := a.state.Width - leftWidth - 4
	if rightWidth < 20 {
		rightWidth = 20
		leftWidth = a.state.Width - rightWidth - 4
	}

	a.leftPanel.Width = leftWidth
	a.leftPanel.Height = contentHeight
	a.rightPanel.Width = rightWidth
	a.rightPanel.Height = contentHeight
}

// updatePanelStyles updates panel styling based on focus
func (a *App) updatePanelStyles() {
	a.leftPanel.Focused = a.state.FocusedPanel == models.LeftPanel
	a.rightPanel.Focused = !a.leftPanel.Focused
}

// formatStatusBar formats a status bar with left and right aligned content
func (a *App) formatStatusBar(left, right string) string {
	availableWidth := a.state.Width - 4
	if availableWidth < 0 {
		availableWidth = 0
	}

	leftLen := lipgloss.Width(left)
	rightLen := lipgloss.Width(right)
	if leftLen+rightLen > availableWidth {
		if availableWidth > rightLen {
			return dsl.Truncate(left, availableWidth-rightLen) + right
		}
		return dsl.Truncate(left, availableWidth)
	}
	return left + strings.Repeat(" ", availableWidth-leftLen-rightLen) + right
}

// ShowError displays an error overlay with the given title and message
func (a *App) ShowError(title, message string) {
	a.errorOverlay.SetError(title, message)
	a.showError = true
}

// DismissError hides the error overlay
func (a *App) DismissError() {
	a.showError = false
}
