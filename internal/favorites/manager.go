// Package favorites stores named filters in a YAML file.
package favorites

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Manager manages saved filters
type Manager struct {
	mu        sync.RWMutex
	path      string
	favorites []models.Favorite
	now       func() time.Time
}

// NewManager loads the favorites file at path. A missing file is an
// empty list.
func NewManager(path string) (*Manager, error) {
	m := &Manager{path: path, now: time.Now}
	if err := m.Load(); err != nil {
		return nil, err
	}
	return m, nil
}

// Load re-reads the favorites file
func (m *Manager) Load() error {
	data, err := os.ReadFile(m.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read favorites file: %w", err)
	}

	var favs []models.Favorite
	if err := yaml.Unmarshal(data, &favs); err != nil {
		return fmt.Errorf("failed to parse favorites: %w", err)
	}
	m.mu.Lock()
	m.favorites = favs
	m.mu.Unlock()
	return nil
}

// save writes the list; callers hold the lock
func (m *Manager) save() error {
	data, err := yaml.Marshal(m.favorites)
	if err != nil {
		return fmt.Errorf("failed to marshal favorites: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(m.path, data, 0644); err != nil {
		return fmt.Errorf("failed to write favorites file: %w", err)
	}
	return nil
}

func normalizeFilter(text string) (string, error) {
	if _, err := dsl.Parse(text); err != nil {
		return "", err
	}
	return dsl.Compact(text)
}

func (m *Manager) checkName(id, name string) error {
	if name == "" {
		return fmt.Errorf("favorite name cannot be empty")
	}
	for _, fav := range m.favorites {
		if fav.ID != id && strings.EqualFold(fav.Name, name) {
			return fmt.Errorf("a favorite with the name '%s' already exists (names are case-insensitive)", name)
		}
	}
	return nil
}

// Add saves a new favorite. The filter must be a valid query object and
// is stored compacted.
func (m *Manager) Add(fav models.Favorite) (*models.Favorite, error) {
	fav.Name = strings.TrimSpace(fav.Name)
	filter, err := normalizeFilter(fav.Filter)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkName("", fav.Name); err != nil {
		return nil, err
	}

	now := m.now()
	fav.ID = uuid.New().String()
	fav.Filter = filter
	fav.Description = strings.TrimSpace(fav.Description)
	fav.CreatedAt = now
	fav.UpdatedAt = now
	fav.UsageCount = 0
	fav.LastUsed = time.Time{}

	m.favorites = append(m.favorites, fav)
	if err := m.save(); err != nil {
		m.favorites = m.favorites[:len(m.favorites)-1]
		return nil, fmt.Errorf("failed to save favorite: %w", err)
	}
	return &fav, nil
}

// Update changes the name, description, filter and tags of a favorite
func (m *Manager) Update(id, name, description, filter string, tags []string) error {
	name = strings.TrimSpace(name)
	filter, err := normalizeFilter(filter)
	if err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.checkName(id, name); err != nil {
		return err
	}
	for i := range m.favorites {
		if m.favorites[i].ID == id {
			m.favorites[i].Name = name
			m.favorites[i].Description = strings.TrimSpace(description)
			m.favorites[i].Filter = filter
			m.favorites[i].Tags = tags
			m.favorites[i].UpdatedAt = m.now()
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save favorite: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("favorite with ID '%s' was not found", id)
}

// Delete removes a favorite by ID
func (m *Manager) Delete(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, fav := range m.favorites {
		if fav.ID == id {
			m.favorites = append(m.favorites[:i], m.favorites[i+1:]...)
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save favorites after deletion: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("favorite with ID '%s' was not found", id)
}

// Get returns a favorite by ID
func (m *Manager) Get(id string) (*models.Favorite, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, fav := range m.favorites {
		if fav.ID == id {
			return &fav, nil
		}
	}
	return nil, fmt.Errorf("favorite with ID '%s' was not found", id)
}

// GetAll returns a copy of all favorites
func (m *Manager) GetAll() []models.Favorite {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.Favorite, len(m.favorites))
	copy(out, m.favorites)
	return out
}

// ForIndex returns the favorites saved for an index of a connection
func (m *Manager) ForIndex(connection, index string) []models.Favorite {
	var out []models.Favorite
	for _, fav := range m.GetAll() {
		if fav.Connection == connection && fav.Index == index {
			out = append(out, fav)
		}
	}
	return out
}

// Search matches favorites by name, description, index or tags
func (m *Manager) Search(query string) []models.Favorite {
	all := m.GetAll()
	if query == "" {
		return all
	}

	query = strings.ToLower(query)
	var results []models.Favorite
	for _, fav := range all {
		if strings.Contains(strings.ToLower(fav.Name), query) ||
			strings.Contains(strings.ToLower(fav.Description), query) ||
			strings.Contains(strings.ToLower(fav.Index), query) {
			results = append(results, fav)
			continue
		}
		for _, tag := range fav.Tags {
			if strings.Contains(strings.ToLower(tag), query) {
				results = append(results, fav)
				break
			}
		}
	}
	return results
}

// RecordUsage bumps the usage statistics of a favorite
func (m *Manager) RecordUsage(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.favorites {
		if m.favorites[i].ID == id {
			m.favorites[i].UsageCount++
			m.favorites[i].LastUsed = m.now()
			if err := m.save(); err != nil {
				return fmt.Errorf("failed to save usage statistics: %w", err)
			}
			return nil
		}
	}
	return fmt.Errorf("favorite with ID '%s' was not found", id)
}

// GetMostUsed returns the most frequently used favorites
func (m *Manager) GetMostUsed(limit int) []models.Favorite {
	sorted := m.GetAll()
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].UsageCount > sorted[j].UsageCount
	})
	if limit > 0 && limit < len(sorted) {
		sorted = sorted[:limit]
	}
	return sorted
}
