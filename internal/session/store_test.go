package session

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/models"
)

func TestStoreOpenTabDefaults(t *testing.T) {
	s := NewStore(150, `{"match_all":{}}`)

	key, created := s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	assert.True(t, created)

	_, created = s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	assert.False(t, created)

	state, ok := s.Snapshot().Active()
	require.True(t, ok)
	assert.Equal(t, key, state.Tab.Key)
	assert.Equal(t, models.PaginationState{Current: 1, PageSize: 150}, state.Pagination)
	assert.Equal(t, `{"match_all":{}}`, state.Query.FilterText)
}

func TestStoreSubscribe(t *testing.T) {
	s := NewStore(100, "")

	var versions []uint64
	unsubscribe := s.Subscribe(func(snap Snapshot) { versions = append(versions, snap.Version) })

	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	s.SetFilter(key, `{"term":{"a":1}}`)
	// no-op changes do not notify
	s.ClearSelection(key)
	s.SetFilter("Tab:missing:query", "{}")

	assert.Equal(t, []uint64{1, 2}, versions)

	unsubscribe()
	s.SetFilter(key, "{}")
	assert.Len(t, versions, 2)
}

func TestStoreSnapshotIsACopy(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	s.ToggleSelected(key, "a")

	snap := s.Snapshot()
	s.ToggleSelected(key, "b")
	s.SetFilter(key, "changed")

	state, _ := snap.Tab(key)
	assert.Equal(t, []string{"a"}, state.Selected)
	assert.Equal(t, "", state.Query.FilterText)

	state, _ = s.Snapshot().Tab(key)
	assert.Equal(t, []string{"a", "b"}, state.Selected)
	assert.True(t, state.IsSelected("b"))

	s.ToggleSelected(key, "a")
	state, _ = s.Snapshot().Tab(key)
	assert.Equal(t, []string{"b"}, state.Selected)
}

func TestStoreCompleteSchemaSelectsFirstType(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")

	schema := &models.IndexSchema{
		Index: "idx1",
		Catalog: models.SchemaCatalog{Types: []models.DocType{
			{Name: "A", Fields: []string{"x", "y"}},
			{Name: "B", Fields: []string{"z"}},
		}},
		Brief: models.IndexBrief{Index: "idx1", DocsCount: 3},
	}
	apply := func(schema *models.IndexSchema, err error) bool {
		gen, ok := s.BeginSchema(key)
		require.True(t, ok)
		return s.CompleteSchema(key, gen, schema, err)
	}

	require.True(t, apply(schema, nil))
	state, _ := s.Snapshot().Tab(key)
	assert.Equal(t, "A", state.Query.SelectedType)
	assert.Equal(t, int64(3), state.Schema.Brief.DocsCount)

	// A still-valid selection survives a refresh of the schema
	s.SetType(key, "B")
	apply(schema, nil)
	state, _ = s.Snapshot().Tab(key)
	assert.Equal(t, "B", state.Query.SelectedType)

	// A failed resolution keeps the schema and records the error
	apply(nil, errors.New("boom"))
	state, _ = s.Snapshot().Tab(key)
	assert.Same(t, schema, state.Schema)
	assert.EqualError(t, state.Err, "boom")

	// An empty catalog leaves no type selected
	apply(&models.IndexSchema{Index: "idx1"}, nil)
	state, _ = s.Snapshot().Tab(key)
	assert.Equal(t, "", state.Query.SelectedType)
	assert.NoError(t, state.Err)
}

func TestStoreSchemaGeneration(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	schema := &models.IndexSchema{Index: "idx1", Catalog: models.SchemaCatalog{Types: []models.DocType{{Name: "A"}}}}

	first, _ := s.BeginSchema(key)
	second, _ := s.BeginSchema(key)
	assert.False(t, s.CompleteSchema(key, first, schema, nil))

	// a page read in between does not invalidate the schema
	_, ok := s.BeginLoad(key)
	require.True(t, ok)
	assert.True(t, s.CompleteSchema(key, second, schema, nil))

	// a resolution started before the tab was closed is dropped after reopening
	stale, _ := s.BeginSchema(key)
	require.True(t, s.CloseTab(key))
	s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	assert.False(t, s.CompleteSchema(key, stale, schema, nil))
	state, _ := s.Snapshot().Tab(key)
	assert.Nil(t, state.Schema)

	_, ok = s.BeginSchema("Tab:missing:query")
	assert.False(t, ok)
}

func TestStoreGenerationDiscardsStaleResults(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")

	first, ok := s.BeginLoad(key)
	require.True(t, ok)
	second, _ := s.BeginLoad(key)
	assert.Greater(t, second, first)

	newer := &models.Page{Total: 2, Current: 1, PageSize: 100}
	older := &models.Page{Total: 99, Current: 1, PageSize: 100}

	assert.True(t, s.CompletePage(key, second, newer, nil))
	assert.False(t, s.CompletePage(key, first, older, nil))

	state, _ := s.Snapshot().Tab(key)
	assert.Same(t, newer, state.Page)
	assert.Equal(t, int64(2), state.Pagination.Total)
	assert.False(t, state.Loading)
}

func TestStoreCompleteAfterClose(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	gen, _ := s.BeginLoad(key)

	require.True(t, s.CloseTab(key))
	assert.False(t, s.CompletePage(key, gen, &models.Page{}, nil))

	// Re-opening starts from a fresh state, the old generation stays stale
	s.OpenTab(c1, nil, models.OperationQuery, "idx1")
	assert.False(t, s.CompletePage(key, gen, &models.Page{Total: 5}, nil))
	state, _ := s.Snapshot().Tab(key)
	assert.Nil(t, state.Page)
}

func TestStoreErrorKeepsPreviousPage(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")

	gen, _ := s.BeginLoad(key)
	page := &models.Page{Total: 3, Current: 1, PageSize: 100}
	s.CompletePage(key, gen, page, nil)
	s.MarkStale(key)

	gen, _ = s.BeginLoad(key)
	s.CompletePage(key, gen, nil, errors.New("boom"))

	state, _ := s.Snapshot().Tab(key)
	assert.Same(t, page, state.Page)
	assert.EqualError(t, state.Err, "boom")
	assert.True(t, state.Pagination.Stale)
	assert.False(t, state.Loading)
}

func TestStoreSetPage(t *testing.T) {
	s := NewStore(100, "")
	key, _ := s.OpenTab(c1, nil, models.OperationQuery, "idx1")

	s.SetPage(key, 3, 200)
	state, _ := s.Snapshot().Tab(key)
	assert.Equal(t, 3, state.Pagination.Current)
	assert.Equal(t, 200, state.Pagination.PageSize)

	s.SetPage(key, 0, 0)
	state, _ = s.Snapshot().Tab(key)
	assert.Equal(t, 1, state.Pagination.Current)
	assert.Equal(t, 200, state.Pagination.PageSize)
}

func TestStoreSelectNeighbor(t *testing.T) {
	s := NewStore(100, "")
	a, _ := s.OpenTab(c1, nil, models.OperationQuery, "a")
	b, _ := s.OpenTab(c1, nil, models.OperationQuery, "b")

	assert.Equal(t, a, s.SelectNeighbor(1))
	assert.Equal(t, a, s.Snapshot().ActiveKey)
	assert.Equal(t, b, s.SelectNeighbor(-1))
}
