package history

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Operation names recorded in the history
const (
	OpQuery      = "query"
	OpUpdate     = "update"
	OpDelete     = "delete"
	OpBulkUpdate = "bulk_update"
	OpBulkDelete = "bulk_delete"
)

// Entry represents a single executed operation
type Entry struct {
	ID         int64
	Connection string
	Index      string
	Operation  string
	// Detail is the filter text, the document id or the selected ids
	Detail     string
	ExecutedAt time.Time
	Duration   time.Duration
	Affected   int64
	Success    bool
	Error      string
}

// Store manages operation history persistence
type Store struct {
	db         *sql.DB
	maxEntries int
}

// NewStore opens the history database at path. maxEntries caps the number
// of kept rows; zero keeps everything.
func NewStore(path string, maxEntries int) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open history database: %w", err)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create history schema: %w", err)
	}

	return &Store{db: db, maxEntries: maxEntries}, nil
}

// Record adds an entry and trims the oldest rows beyond the cap
func (s *Store) Record(ctx context.Context, e Entry) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO operation_history
		(connection_alias, index_name, operation, detail, duration_ms, affected, success, error_message)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		e.Connection,
		e.Index,
		e.Operation,
		e.Detail,
		e.Duration.Milliseconds(),
		e.Affected,
		e.Success,
		e.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to record history: %w", err)
	}

	if s.maxEntries > 0 {
		_, err = s.db.ExecContext(ctx, `
			DELETE FROM operation_history
			WHERE id NOT IN (SELECT id FROM operation_history ORDER BY id DESC LIMIT ?)`,
			s.maxEntries)
		if err != nil {
			return fmt.Errorf("failed to trim history: %w", err)
		}
	}
	return nil
}

const selectColumns = `
	SELECT id, connection_alias, index_name, operation, detail, executed_at,
	       duration_ms, affected, success, error_message
	FROM operation_history`

// GetRecent retrieves the most recent entries
func (s *Store) GetRecent(ctx context.Context, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		ORDER BY id DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// ForIndex retrieves the most recent entries of one index
func (s *Store) ForIndex(ctx context.Context, alias, index string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE connection_alias = ? AND index_name = ?
		ORDER BY id DESC
		LIMIT ?`, alias, index, limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

// Search searches entries by detail text
func (s *Store) Search(ctx context.Context, text string, limit int) ([]Entry, error) {
	rows, err := s.db.QueryContext(ctx, selectColumns+`
		WHERE detail LIKE ?
		ORDER BY id DESC
		LIMIT ?`, "%"+text+"%", limit)
	if err != nil {
		return nil, err
	}
	return scanEntries(rows)
}

func scanEntries(rows *sql.Rows) ([]Entry, error) {
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var durationMs int64
		var executedAt string

		err := rows.Scan(
			&e.ID,
			&e.Connection,
			&e.Index,
			&e.Operation,
			&e.Detail,
			&executedAt,
			&durationMs,
			&e.Affected,
			&e.Success,
			&e.Error,
		)
		if err != nil {
			return nil, err
		}

		e.Duration = time.Duration(durationMs) * time.Millisecond
		e.ExecutedAt = parseTimestamp(executedAt)
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func parseTimestamp(s string) time.Time {
	for _, layout := range []string{"2006-01-02 15:04:05.000", "2006-01-02 15:04:05", time.RFC3339Nano} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// Close closes the database connection
func (s *Store) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
