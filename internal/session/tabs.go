package session

import (
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Tab is one open view bound to a connection and an index
type Tab struct {
	Key        string
	Connection models.Connection
	Client     *connection.Client
	Operation  models.Operation
	Index      string

	opened uint64
}

// TabManager keeps the ordered set of open tabs and the active one.
// It is not safe for concurrent use; Store guards it.
type TabManager struct {
	tabs      []*Tab
	activeKey string
	seq       uint64
}

// NewTabManager creates an empty tab set
func NewTabManager() *TabManager {
	return &TabManager{}
}

// OpenTab activates the tab for index and operation, creating it when it
// does not exist yet. Opening an existing key never duplicates it.
func (m *TabManager) OpenTab(conn models.Connection, client *connection.Client, op models.Operation, index string) string {
	key := models.TabKey(index, op)
	if m.index(key) < 0 {
		m.seq++
		m.tabs = append(m.tabs, &Tab{
			Key:        key,
			Connection: conn,
			Client:     client,
			Operation:  op,
			Index:      index,
			opened:     m.seq,
		})
	}
	m.activeKey = key
	return key
}

// CloseTab removes the tab if present. Closing the active tab activates
// the most recently opened remaining tab, or none.
func (m *TabManager) CloseTab(key string) bool {
	i := m.index(key)
	if i < 0 {
		return false
	}
	m.tabs = append(m.tabs[:i], m.tabs[i+1:]...)

	if m.activeKey == key {
		m.activeKey = ""
		var newest uint64
		for _, t := range m.tabs {
			if t.opened > newest {
				newest = t.opened
				m.activeKey = t.Key
			}
		}
	}
	return true
}

// Select activates an open tab
func (m *TabManager) Select(key string) bool {
	if m.index(key) < 0 {
		return false
	}
	m.activeKey = key
	return true
}

// ActiveKey returns the key of the active tab, or "" when none is open
func (m *TabManager) ActiveKey() string {
	return m.activeKey
}

// Get returns a copy of the tab with key
func (m *TabManager) Get(key string) (Tab, bool) {
	if i := m.index(key); i >= 0 {
		return *m.tabs[i], true
	}
	return Tab{}, false
}

// Tabs returns copies of the open tabs in display order
func (m *TabManager) Tabs() []Tab {
	out := make([]Tab, 0, len(m.tabs))
	for _, t := range m.tabs {
		out = append(out, *t)
	}
	return out
}

// Neighbor returns the key offset positions away from the active tab,
// wrapping around.
func (m *TabManager) Neighbor(offset int) string {
	n := len(m.tabs)
	if n == 0 {
		return ""
	}
	i := m.index(m.activeKey)
	if i < 0 {
		return m.tabs[0].Key
	}
	return m.tabs[((i+offset)%n+n)%n].Key
}

func (m *TabManager) index(key string) int {
	for i, t := range m.tabs {
		if t.Key == key {
			return i
		}
	}
	return -1
}
