package connection

import (
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/elastic/go-elasticsearch/v7"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Factory builds the client for a connection
type Factory func(conn models.Connection) (*Client, error)

// Registry hands out one client per connection identity. Clients are
// created on first request and never torn down while the process runs.
type Registry struct {
	clients map[models.ConnectionKey]*Client
	created []*Client
	factory Factory
	mu      sync.RWMutex
}

// RegistryConfig configures the default client factory
type RegistryConfig struct {
	RequestTimeout time.Duration
	Metrics        *Metrics
	Logger         logrus.FieldLogger
}

// NewRegistry creates a registry that builds real Elasticsearch clients
func NewRegistry(cfg RegistryConfig) *Registry {
	return NewRegistryWithFactory(DefaultFactory(cfg))
}

// NewRegistryWithFactory creates a registry with a custom client factory
func NewRegistryWithFactory(factory Factory) *Registry {
	return &Registry{
		clients: make(map[models.ConnectionKey]*Client),
		factory: factory,
	}
}

// DefaultFactory builds go-elasticsearch clients. Credentials are passed
// only when both username and password are set.
func DefaultFactory(cfg RegistryConfig) Factory {
	logger := logging.OrDiscard(cfg.Logger)
	return func(conn models.Connection) (*Client, error) {
		esCfg := elasticsearch.Config{
			Addresses: []string{conn.Host},
			Transport: cfg.Metrics.InstrumentRoundTripper(conn.Alias, http.DefaultTransport),
		}
		if conn.HasCredentials() {
			esCfg.Username = conn.Username
			esCfg.Password = conn.Password
		}

		es, err := elasticsearch.NewClient(esCfg)
		if err != nil {
			return nil, fmt.Errorf("failed to create client for %s: %w", conn.Alias, err)
		}
		return NewClient(conn, es, WithRequestTimeout(cfg.RequestTimeout), WithLogger(logger)), nil
	}
}

// GetOrCreateClient returns the client for the connection's identity,
// creating it on first use.
func (r *Registry) GetOrCreateClient(conn models.Connection) (*Client, error) {
	key := conn.Key()

	r.mu.RLock()
	client, ok := r.clients[key]
	r.mu.RUnlock()
	if ok {
		return client, nil
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if client, ok := r.clients[key]; ok {
		return client, nil
	}

	client, err := r.factory(conn)
	if err != nil {
		return nil, err
	}
	r.clients[key] = client
	r.created = append(r.created, client)
	return client, nil
}

// Get returns the client for a key without creating one
func (r *Registry) Get(key models.ConnectionKey) (*Client, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	client, ok := r.clients[key]
	return client, ok
}

// Clients returns every client created so far, in creation order
func (r *Registry) Clients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, len(r.created))
	copy(out, r.created)
	return out
}
