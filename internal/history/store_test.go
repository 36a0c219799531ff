package history

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T, maxEntries int) *Store {
	t.Helper()
	s, err := NewStore(filepath.Join(t.TempDir(), "history.db"), maxEntries)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestRecordAndGetRecent(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{Connection: "c1", Index: "idx1", Operation: OpQuery, Detail: `{"match_all":{}}`, Duration: 15 * time.Millisecond, Affected: 3, Success: true}))
	require.NoError(t, s.Record(ctx, Entry{Connection: "c1", Index: "idx1", Operation: OpDelete, Detail: "a", Success: false, Error: "update: status 404"}))

	entries, err := s.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, OpDelete, entries[0].Operation)
	assert.False(t, entries[0].Success)
	assert.Equal(t, "update: status 404", entries[0].Error)

	assert.Equal(t, OpQuery, entries[1].Operation)
	assert.Equal(t, 15*time.Millisecond, entries[1].Duration)
	assert.Equal(t, int64(3), entries[1].Affected)
	assert.False(t, entries[1].ExecutedAt.IsZero())
}

func TestRecordTrimsToMaxEntries(t *testing.T) {
	s := newTestStore(t, 3)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Record(ctx, Entry{Connection: "c1", Operation: OpQuery, Detail: string(rune('a' + i)), Success: true}))
	}

	entries, err := s.GetRecent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, entries, 3)
	assert.Equal(t, "e", entries[0].Detail)
	assert.Equal(t, "c", entries[2].Detail)
}

func TestForIndexAndSearch(t *testing.T) {
	s := newTestStore(t, 0)
	ctx := context.Background()

	require.NoError(t, s.Record(ctx, Entry{Connection: "c1", Index: "users", Operation: OpBulkDelete, Detail: "a,b", Success: true}))
	require.NoError(t, s.Record(ctx, Entry{Connection: "c1", Index: "logs", Operation: OpQuery, Detail: `{"term":{"level":"error"}}`, Success: true}))
	require.NoError(t, s.Record(ctx, Entry{Connection: "c2", Index: "users", Operation: OpQuery, Detail: "x", Success: true}))

	entries, err := s.ForIndex(ctx, "c1", "users", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, OpBulkDelete, entries[0].Operation)

	entries, err = s.Search(ctx, "level", 10)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "logs", entries[0].Index)
}
