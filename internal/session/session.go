// Package session ties the registry, the tab store and the backend
// components together. A Session is built once per process and passed to
// the outer surfaces; nothing in here is global.
package session

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/es/metadata"
	"github.com/rebeliceyang/lazyes/internal/es/mutation"
	"github.com/rebeliceyang/lazyes/internal/es/overview"
	"github.com/rebeliceyang/lazyes/internal/es/query"
	"github.com/rebeliceyang/lazyes/internal/history"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Recorder receives an entry for every executed operation
type Recorder interface {
	Record(ctx context.Context, e history.Entry) error
}

// Options configures a Session
type Options struct {
	Registry          *connection.Registry
	Store             *Store
	Recorder          Recorder
	Logger            logrus.FieldLogger
	DefaultPageSize   int
	RefreshOnMutation bool
}

// Session runs the operations of the open tabs
type Session struct {
	registry        *connection.Registry
	store           *Store
	recorder        Recorder
	logger          logrus.FieldLogger
	defaultPageSize int
	refresh         bool
}

// New creates a session
func New(opts Options) *Session {
	if opts.Registry == nil {
		opts.Registry = connection.NewRegistry(connection.RegistryConfig{Logger: opts.Logger})
	}
	if opts.Store == nil {
		opts.Store = NewStore(opts.DefaultPageSize, "")
	}
	return &Session{
		registry:        opts.Registry,
		store:           opts.Store,
		recorder:        opts.Recorder,
		logger:          logging.OrDiscard(opts.Logger),
		defaultPageSize: opts.DefaultPageSize,
		refresh:         opts.RefreshOnMutation,
	}
}

// Store returns the state container
func (s *Session) Store() *Store {
	return s.store
}

// Registry returns the client registry
func (s *Session) Registry() *connection.Registry {
	return s.registry
}

// OpenTab gets the connection's client and opens or re-activates the tab
func (s *Session) OpenTab(conn models.Connection, op models.Operation, index string) (string, bool, error) {
	client, err := s.registry.GetOrCreateClient(conn)
	if err != nil {
		return "", false, err
	}
	key, created := s.store.OpenTab(conn, client, op, index)
	s.logger.WithFields(logrus.Fields{
		"connection": conn.Alias,
		"tab":        key,
		"created":    created,
	}).Debug("tab opened")
	return key, created, nil
}

// OpenQueryTab opens the query tab of an index
func (s *Session) OpenQueryTab(conn models.Connection, index string) (string, bool, error) {
	return s.OpenTab(conn, models.OperationQuery, index)
}

// OpenOverviewTab opens the overview tab of a connection
func (s *Session) OpenOverviewTab(conn models.Connection) (string, bool, error) {
	return s.OpenTab(conn, models.OperationOverview, conn.Alias)
}

func (s *Session) tab(key string) (Tab, error) {
	tab, ok := s.store.Tab(key)
	if !ok {
		return Tab{}, fmt.Errorf("tab %s is not open", key)
	}
	return tab, nil
}

// ResolveSchema loads the catalog and brief of the tab's index. On failure
// the previous schema stays in place and the error is recorded on the tab.
// A result for a tab that was closed or re-resolved meanwhile is dropped.
func (s *Session) ResolveSchema(ctx context.Context, key string) error {
	tab, err := s.tab(key)
	if err != nil {
		return err
	}
	gen, ok := s.store.BeginSchema(key)
	if !ok {
		return fmt.Errorf("tab %s is not open", key)
	}

	schema, err := metadata.NewResolver(tab.Client, s.logger).Resolve(ctx, tab.Index)
	if !s.store.CompleteSchema(key, gen, schema, err) {
		s.logger.WithFields(logrus.Fields{"tab": key, "generation": gen}).Debug("discarded stale schema")
		return nil
	}
	return err
}

// Activate prepares a freshly opened query tab: schema first, then the
// first page. An index without document types is left with no type
// selected and nothing is read.
func (s *Session) Activate(ctx context.Context, key string) error {
	if err := s.ResolveSchema(ctx, key); err != nil {
		return err
	}
	state, ok := s.store.Snapshot().Tab(key)
	if !ok {
		return nil
	}
	if state.Schema == nil || !state.Schema.Catalog.HasType(state.Query.SelectedType) {
		s.logger.WithField("tab", key).Debug("index has no document type")
		return nil
	}
	return s.Refresh(ctx, key)
}

// Refresh reads the current page of the tab with its current type and
// filter. A result that arrives after a newer read was started is dropped.
func (s *Session) Refresh(ctx context.Context, key string) error {
	tab, err := s.tab(key)
	if err != nil {
		return err
	}
	gen, ok := s.store.BeginLoad(key)
	if !ok {
		return fmt.Errorf("tab %s is not open", key)
	}
	state, _ := s.store.Snapshot().Tab(key)

	var fields []string
	if state.Schema != nil {
		fields = state.Schema.Catalog.Fields(state.Query.SelectedType)
	}

	start := time.Now()
	page, err := query.NewExecutor(tab.Client, tab.Index, s.defaultPageSize, s.logger).RequestPage(ctx, query.Request{
		Type:     state.Query.SelectedType,
		Typeless: state.Typeless(),
		Page:     state.Pagination.Current,
		PageSize: state.Pagination.PageSize,
		Filter:   state.Query.FilterText,
		Fields:   fields,
	})
	if !s.store.CompletePage(key, gen, page, err) {
		s.logger.WithFields(logrus.Fields{"tab": key, "generation": gen}).Debug("discarded stale page")
		return nil
	}

	var affected int64
	if page != nil {
		affected = page.Total
	}
	s.record(ctx, tab, history.OpQuery, state.Query.FilterText, affected, time.Since(start), err)
	return err
}

// LoadOverview loads the cluster overview of an overview tab
func (s *Session) LoadOverview(ctx context.Context, key string) error {
	tab, err := s.tab(key)
	if err != nil {
		return err
	}
	gen, ok := s.store.BeginLoad(key)
	if !ok {
		return fmt.Errorf("tab %s is not open", key)
	}

	ov, err := overview.NewAggregator(tab.Client, s.logger).Load(ctx)
	if !s.store.CompleteOverview(key, gen, ov, err) {
		return nil
	}
	return err
}

// ListIndices lists the indices of a connection, largest first
func (s *Session) ListIndices(ctx context.Context, conn models.Connection) ([]models.IndexBrief, error) {
	client, err := s.registry.GetOrCreateClient(conn)
	if err != nil {
		return nil, err
	}
	return overview.NewAggregator(client, s.logger).ListIndexBriefs(ctx)
}

func (s *Session) coordinator(tab Tab) *mutation.Coordinator {
	return mutation.NewCoordinator(tab.Client, tab.Index, mutation.Options{
		Refresh: s.refresh,
		Logger:  s.logger,
	})
}

func (s *Session) target(key string) (mutation.Target, TabState) {
	state, _ := s.store.Snapshot().Tab(key)
	return mutation.Target{Type: state.Query.SelectedType, Typeless: state.Typeless()}, state
}

// mutate runs op with the tab flagged as mutating, then re-reads the page.
// The mutation error wins over a failed re-read.
func (s *Session) mutate(ctx context.Context, key string, op func(Tab) error) error {
	tab, err := s.tab(key)
	if err != nil {
		return err
	}

	s.store.SetMutating(key, true)
	err = op(tab)
	s.store.SetMutating(key, false)
	if err != nil {
		s.store.SetError(key, err)
		if !isValidation(err) {
			s.store.MarkStale(key)
			if rerr := s.Refresh(ctx, key); rerr != nil {
				s.logger.WithError(rerr).WithField("tab", key).Warn("refresh after failed mutation failed")
			}
			s.store.SetError(key, err)
		}
		return err
	}

	s.store.MarkStale(key)
	return s.Refresh(ctx, key)
}

// UpdateDocument merges partial into one document and refreshes the page
func (s *Session) UpdateDocument(ctx context.Context, key, id string, partial models.Document) error {
	return s.mutate(ctx, key, func(tab Tab) error {
		target, _ := s.target(key)
		start := time.Now()
		err := s.coordinator(tab).UpdateOne(ctx, target, id, partial)
		s.record(ctx, tab, history.OpUpdate, id, affectedOne(err), time.Since(start), err)
		return err
	})
}

// DeleteDocument removes one document and refreshes the page
func (s *Session) DeleteDocument(ctx context.Context, key, id string) error {
	return s.mutate(ctx, key, func(tab Tab) error {
		target, _ := s.target(key)
		start := time.Now()
		err := s.coordinator(tab).DeleteOne(ctx, target, id)
		s.record(ctx, tab, history.OpDelete, id, affectedOne(err), time.Since(start), err)
		return err
	})
}

// DeleteDocuments deletes the selected documents, or every document
// matching the tab's filter when nothing is selected.
func (s *Session) DeleteDocuments(ctx context.Context, key string) (*mutation.Result, error) {
	var res *mutation.Result
	err := s.mutate(ctx, key, func(tab Tab) error {
		target, state := s.target(key)
		var err error
		res, err = s.coordinator(tab).BulkDelete(ctx, target, state.Selected, state.Query.FilterText)
		if !isValidation(err) {
			s.store.ClearSelection(key)
		}
		s.recordBulk(ctx, tab, history.OpBulkDelete, state, res, err)
		return err
	})
	return res, err
}

// UpdateDocuments merges partial into the selected documents, or into
// every document matching the tab's filter when nothing is selected.
func (s *Session) UpdateDocuments(ctx context.Context, key string, partial models.Document) (*mutation.Result, error) {
	var res *mutation.Result
	err := s.mutate(ctx, key, func(tab Tab) error {
		target, state := s.target(key)
		var err error
		res, err = s.coordinator(tab).BulkUpdate(ctx, target, state.Selected, partial, state.Query.FilterText)
		if !isValidation(err) {
			s.store.ClearSelection(key)
		}
		s.recordBulk(ctx, tab, history.OpBulkUpdate, state, res, err)
		return err
	})
	return res, err
}

func (s *Session) recordBulk(ctx context.Context, tab Tab, op string, state TabState, res *mutation.Result, err error) {
	detail := state.Query.FilterText
	if len(state.Selected) > 0 {
		detail = strings.Join(state.Selected, ",")
	}
	var affected int64
	var took time.Duration
	if res != nil {
		affected, took = res.Succeeded, res.Duration
	}
	s.record(ctx, tab, op, detail, affected, took, err)
}

func (s *Session) record(ctx context.Context, tab Tab, op, detail string, affected int64, took time.Duration, err error) {
	if s.recorder == nil {
		return
	}
	e := history.Entry{
		Connection: tab.Connection.Alias,
		Index:      tab.Index,
		Operation:  op,
		Detail:     detail,
		Duration:   took,
		Affected:   affected,
		Success:    err == nil,
	}
	if err != nil {
		e.Error = err.Error()
	}
	if rerr := s.recorder.Record(ctx, e); rerr != nil {
		s.logger.WithError(rerr).Warn("failed to record history")
	}
}

func affectedOne(err error) int64 {
	if err != nil {
		return 0
	}
	return 1
}

func isValidation(err error) bool {
	return apperrors.KindOf(err) == apperrors.KindValidation
}
