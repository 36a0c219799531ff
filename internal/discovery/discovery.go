// Package discovery collects the connections offered in the sidebar:
// saved ones, one from the environment, and nodes found on local ports.
package discovery

import (
	"context"
	"os"
	"strings"

	"github.com/rebeliceyang/lazyes/internal/models"
)

// Discoverer coordinates all discovery methods
type Discoverer struct {
	scanner *Scanner
	getenv  func(string) string
	scan    bool
}

// NewDiscoverer creates a discoverer. Port scanning only runs when scan is set.
func NewDiscoverer(scan bool) *Discoverer {
	return &Discoverer{scanner: NewScanner(), getenv: os.Getenv, scan: scan}
}

// DiscoverAll merges saved connections with discovered ones. Saved
// connections come first; a discovered host that is already listed is
// dropped.
func (d *Discoverer) DiscoverAll(ctx context.Context, saved []models.Connection) []models.DiscoveredConnection {
	out := make([]models.DiscoveredConnection, 0, len(saved)+1)
	seen := make(map[string]bool)
	add := func(c models.Connection, src models.DiscoverySource) {
		host := normalizeHost(c.Host)
		if seen[host] {
			return
		}
		seen[host] = true
		out = append(out, models.DiscoveredConnection{Connection: c, Source: src})
	}

	for _, c := range saved {
		add(c, models.SourceConfig)
	}
	if env := FromEnvironment(d.getenv); env != nil {
		add(*env, models.SourceEnvironment)
	}
	if d.scan {
		for _, c := range d.scanner.ScanLocalhost(ctx) {
			add(c, models.SourcePortScan)
		}
	}
	return out
}

func normalizeHost(host string) string {
	h := strings.ToLower(strings.TrimRight(host, "/"))
	h = strings.Replace(h, "://127.0.0.1", "://localhost", 1)
	return h
}
