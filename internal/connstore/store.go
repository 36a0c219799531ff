// Package connstore persists the list of saved connections.
package connstore

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rebeliceyang/lazyes/internal/models"
)

// Store reads and writes the connections file
type Store struct {
	path string
}

// NewStore creates a store backed by path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the location of the connections file
func (s *Store) Path() string {
	return s.path
}

// Read returns the raw file contents, or "" when nothing was saved yet
func (s *Store) Read() (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read connections file: %w", err)
	}
	return string(data), nil
}

// Write replaces the file with the pretty-printed list
func (s *Store) Write(conns []models.Connection) error {
	if conns == nil {
		conns = []models.Connection{}
	}
	data, err := json.MarshalIndent(conns, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal connections: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// 0600: the file may hold passwords
	if err := os.WriteFile(s.path, data, 0600); err != nil {
		return fmt.Errorf("failed to write connections file: %w", err)
	}
	return nil
}

// Persistence is what a List needs from its backing store
type Persistence interface {
	Read() (string, error)
	Write([]models.Connection) error
}

// List is the ordered, process-wide list of saved connections
type List struct {
	mu    sync.RWMutex
	store Persistence
	conns []models.Connection
}

// NewList creates an empty list backed by store
func NewList(store Persistence) *List {
	return &List{store: store}
}

// Load replaces the list with the saved connections
func (l *List) Load() error {
	text, err := l.store.Read()
	if err != nil {
		return err
	}
	var conns []models.Connection
	if strings.TrimSpace(text) != "" {
		if err := json.Unmarshal([]byte(text), &conns); err != nil {
			return fmt.Errorf("failed to parse connections file: %w", err)
		}
	}

	l.mu.Lock()
	l.conns = conns
	l.mu.Unlock()
	return nil
}

// All returns a copy of the list in insertion order
func (l *List) All() []models.Connection {
	l.mu.RLock()
	defer l.mu.RUnlock()
	out := make([]models.Connection, len(l.conns))
	copy(out, l.conns)
	return out
}

// Find returns the first connection with alias
func (l *List) Find(alias string) (models.Connection, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	for _, c := range l.conns {
		if c.Alias == alias {
			return c, true
		}
	}
	return models.Connection{}, false
}

// Add validates conn, appends it and writes the list through. A
// connection with the same identity is updated in place.
func (l *List) Add(conn models.Connection) error {
	if err := conn.Validate(); err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]models.Connection, len(l.conns), len(l.conns)+1)
	copy(next, l.conns)
	replaced := false
	for i, c := range next {
		if c.Key() == conn.Key() {
			next[i] = conn
			replaced = true
			break
		}
	}
	if !replaced {
		next = append(next, conn)
	}

	if err := l.store.Write(next); err != nil {
		return err
	}
	l.conns = next
	return nil
}

// Remove drops the connection with key and writes the list through.
// Clients already created for it stay alive until the process exits.
func (l *List) Remove(key models.ConnectionKey) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	next := make([]models.Connection, 0, len(l.conns))
	for _, c := range l.conns {
		if c.Key() != key {
			next = append(next, c)
		}
	}
	if len(next) == len(l.conns) {
		return fmt.Errorf("connection %s not found", key)
	}

	if err := l.store.Write(next); err != nil {
		return err
	}
	l.conns = next
	return nil
}
