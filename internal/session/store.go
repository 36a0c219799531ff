package session

import (
	"sort"
	"sync"

	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// TabState is everything a tab shows. Values in a Snapshot are copies and
// may be read freely.
type TabState struct {
	Tab        Tab
	Schema     *models.IndexSchema
	Query      models.QueryState
	Pagination models.PaginationState
	Page       *models.Page
	Overview   *models.Overview
	Selected   []string
	Loading    bool
	Mutating   bool
	Err        error
	Generation uint64
}

// Typeless reports whether the tab's index has no type level
func (s TabState) Typeless() bool {
	return s.Schema != nil && s.Schema.Catalog.Typeless
}

// IsSelected reports whether the document id is in the selection
func (s TabState) IsSelected(id string) bool {
	for _, sel := range s.Selected {
		if sel == id {
			return true
		}
	}
	return false
}

// Snapshot is an immutable view of the session state
type Snapshot struct {
	Version   uint64
	ActiveKey string
	Tabs      []TabState
}

// Tab returns the state of the tab with key
func (s Snapshot) Tab(key string) (TabState, bool) {
	for _, t := range s.Tabs {
		if t.Tab.Key == key {
			return t, true
		}
	}
	return TabState{}, false
}

// Active returns the state of the active tab
func (s Snapshot) Active() (TabState, bool) {
	if s.ActiveKey == "" {
		return TabState{}, false
	}
	return s.Tab(s.ActiveKey)
}

type tabState struct {
	schema     *models.IndexSchema
	query      models.QueryState
	pagination models.PaginationState
	page       *models.Page
	overview   *models.Overview
	selected   map[string]struct{}
	loading    bool
	mutating   bool
	err        error
	generation uint64
	schemaGen  uint64
}

// Store is the state container of a session: the open tabs and the state
// of each. Every change goes through a Store method and notifies the
// subscribers with a fresh snapshot.
type Store struct {
	mu      sync.Mutex
	tabs    *TabManager
	states  map[string]*tabState
	version uint64
	// generations are unique across tabs so a re-opened tab never
	// accepts a result started before it was closed
	lastGen uint64

	defaultPageSize int
	defaultFilter   string

	subMu   sync.Mutex
	subs    map[int]func(Snapshot)
	nextSub int
}

// NewStore creates an empty store. New query tabs start on page 1 with
// the given page size and filter text.
func NewStore(defaultPageSize int, defaultFilter string) *Store {
	if defaultPageSize <= 0 {
		defaultPageSize = 100
	}
	return &Store{
		tabs:            NewTabManager(),
		states:          make(map[string]*tabState),
		defaultPageSize: defaultPageSize,
		defaultFilter:   defaultFilter,
		subs:            make(map[int]func(Snapshot)),
	}
}

// Subscribe registers fn to be called after every change. The returned
// function removes the subscription.
func (s *Store) Subscribe(fn func(Snapshot)) func() {
	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	s.subMu.Unlock()

	return func() {
		s.subMu.Lock()
		delete(s.subs, id)
		s.subMu.Unlock()
	}
}

// update runs fn under the lock and notifies subscribers when it reports a change
func (s *Store) update(fn func() bool) {
	s.mu.Lock()
	changed := fn()
	var snap Snapshot
	if changed {
		s.version++
		snap = s.snapshotLocked()
	}
	s.mu.Unlock()

	if !changed {
		return
	}
	s.subMu.Lock()
	subs := make([]func(Snapshot), 0, len(s.subs))
	for _, fn := range s.subs {
		subs = append(subs, fn)
	}
	s.subMu.Unlock()
	for _, fn := range subs {
		fn(snap)
	}
}

// Snapshot returns a copy of the current state
func (s *Store) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Store) snapshotLocked() Snapshot {
	snap := Snapshot{Version: s.version, ActiveKey: s.tabs.ActiveKey()}
	for _, tab := range s.tabs.Tabs() {
		st := s.states[tab.Key]
		ts := TabState{
			Tab:        tab,
			Schema:     st.schema,
			Query:      st.query,
			Pagination: st.pagination,
			Page:       st.page,
			Overview:   st.overview,
			Loading:    st.loading,
			Mutating:   st.mutating,
			Err:        st.err,
			Generation: st.generation,
		}
		for id := range st.selected {
			ts.Selected = append(ts.Selected, id)
		}
		sort.Strings(ts.Selected)
		snap.Tabs = append(snap.Tabs, ts)
	}
	return snap
}

// OpenTab opens or re-activates a tab. created is false when the key was
// already open.
func (s *Store) OpenTab(conn models.Connection, client *connection.Client, op models.Operation, index string) (key string, created bool) {
	s.update(func() bool {
		key = models.TabKey(index, op)
		_, exists := s.states[key]
		s.tabs.OpenTab(conn, client, op, index)
		if !exists {
			created = true
			s.states[key] = &tabState{
				query:      models.QueryState{FilterText: s.defaultFilter},
				pagination: models.PaginationState{Current: 1, PageSize: s.defaultPageSize},
				selected:   make(map[string]struct{}),
			}
		}
		return true
	})
	return key, created
}

// CloseTab closes a tab and drops its state. In-flight results for it
// are discarded when they complete.
func (s *Store) CloseTab(key string) bool {
	var closed bool
	s.update(func() bool {
		closed = s.tabs.CloseTab(key)
		if closed {
			delete(s.states, key)
		}
		return closed
	})
	return closed
}

// Select activates an open tab
func (s *Store) Select(key string) bool {
	var ok bool
	s.update(func() bool {
		ok = s.tabs.Select(key)
		return ok
	})
	return ok
}

// SelectNeighbor activates the tab offset positions from the active one
func (s *Store) SelectNeighbor(offset int) string {
	var key string
	s.update(func() bool {
		key = s.tabs.Neighbor(offset)
		return key != "" && s.tabs.Select(key)
	})
	return key
}

// Tab returns the tab with key
func (s *Store) Tab(key string) (Tab, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tabs.Get(key)
}

// modify applies fn to the state of key if the tab is open
func (s *Store) modify(key string, fn func(st *tabState) bool) bool {
	var found bool
	s.update(func() bool {
		st, ok := s.states[key]
		if !ok {
			return false
		}
		found = true
		return fn(st)
	})
	return found
}

// BeginSchema starts a schema resolution for the tab and returns its
// generation. It is tracked apart from page reads so a read issued while
// the schema is loading does not invalidate it.
func (s *Store) BeginSchema(key string) (uint64, bool) {
	var gen uint64
	ok := s.modify(key, func(st *tabState) bool {
		s.lastGen++
		st.schemaGen = s.lastGen
		gen = st.schemaGen
		return false
	})
	return gen, ok
}

// CompleteSchema commits a resolved schema and brief together. The
// selected type is kept when the new catalog still has it, otherwise the
// first type is selected. On error the previous schema stays and the
// error is recorded. Nothing changes and false is returned when the
// resolution is stale or the tab was closed.
func (s *Store) CompleteSchema(key string, gen uint64, schema *models.IndexSchema, err error) bool {
	applied := false
	s.modify(key, func(st *tabState) bool {
		if st.schemaGen != gen {
			return false
		}
		applied = true
		st.err = err
		if err != nil {
			return true
		}
		st.schema = schema
		if !schema.Catalog.HasType(st.query.SelectedType) {
			st.query.SelectedType = ""
			if len(schema.Catalog.Types) > 0 {
				st.query.SelectedType = schema.Catalog.Types[0].Name
			}
		}
		return true
	})
	return applied
}

// SetType selects a document type and goes back to the first page
func (s *Store) SetType(key, typeName string) bool {
	return s.modify(key, func(st *tabState) bool {
		if st.query.SelectedType != typeName {
			st.selected = make(map[string]struct{})
		}
		st.query.SelectedType = typeName
		st.pagination.Current = 1
		return true
	})
}

// SetFilter stores the raw filter text and goes back to the first page.
// The text is only parsed when the next read is issued.
func (s *Store) SetFilter(key, text string) bool {
	return s.modify(key, func(st *tabState) bool {
		st.query.FilterText = text
		st.pagination.Current = 1
		return true
	})
}

// SetPage changes the page and, when positive, the page size
func (s *Store) SetPage(key string, page, pageSize int) bool {
	return s.modify(key, func(st *tabState) bool {
		if page < 1 {
			page = 1
		}
		if pageSize > 0 && pageSize != st.pagination.PageSize {
			st.pagination.PageSize = pageSize
		}
		st.pagination.Current = page
		return true
	})
}

// ToggleSelected adds or removes a document id from the selection
func (s *Store) ToggleSelected(key, id string) bool {
	return s.modify(key, func(st *tabState) bool {
		if _, ok := st.selected[id]; ok {
			delete(st.selected, id)
		} else {
			st.selected[id] = struct{}{}
		}
		return true
	})
}

// ClearSelection empties the selection
func (s *Store) ClearSelection(key string) bool {
	return s.modify(key, func(st *tabState) bool {
		if len(st.selected) == 0 {
			return false
		}
		st.selected = make(map[string]struct{})
		return true
	})
}

// BeginLoad starts a read for the tab and returns its generation. Any
// earlier read still in flight becomes stale.
func (s *Store) BeginLoad(key string) (uint64, bool) {
	var gen uint64
	ok := s.modify(key, func(st *tabState) bool {
		s.lastGen++
		st.generation = s.lastGen
		gen = st.generation
		st.loading = true
		return true
	})
	return gen, ok
}

// CompletePage applies the outcome of a read started with BeginLoad. It
// returns false and changes nothing when the read is stale or the tab was
// closed. On error the previous page stays visible.
func (s *Store) CompletePage(key string, gen uint64, page *models.Page, err error) bool {
	applied := false
	s.modify(key, func(st *tabState) bool {
		if st.generation != gen {
			return false
		}
		applied = true
		st.loading = false
		st.err = err
		if err == nil && page != nil {
			st.page = page
			st.pagination.Current = page.Current
			st.pagination.PageSize = page.PageSize
			st.pagination.Total = page.Total
			st.pagination.Stale = false
		}
		return true
	})
	return applied
}

// CompleteOverview applies the outcome of an overview load
func (s *Store) CompleteOverview(key string, gen uint64, ov *models.Overview, err error) bool {
	applied := false
	s.modify(key, func(st *tabState) bool {
		if st.generation != gen {
			return false
		}
		applied = true
		st.loading = false
		st.err = err
		if err == nil {
			st.overview = ov
		}
		return true
	})
	return applied
}

// SetMutating flags a mutation in flight
func (s *Store) SetMutating(key string, mutating bool) bool {
	return s.modify(key, func(st *tabState) bool {
		st.mutating = mutating
		return true
	})
}

// MarkStale flags the total as outdated until the next read completes
func (s *Store) MarkStale(key string) bool {
	return s.modify(key, func(st *tabState) bool {
		st.pagination.Stale = true
		return true
	})
}

// SetError records an error on the tab without touching other state
func (s *Store) SetError(key string, err error) bool {
	return s.modify(key, func(st *tabState) bool {
		st.err = err
		return true
	})
}
