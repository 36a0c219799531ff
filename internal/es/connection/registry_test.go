package connection

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/es/estest"
	"github.com/rebeliceyang/lazyes/internal/models"
)

func fakeFactory(created *int) Factory {
	return func(conn models.Connection) (*Client, error) {
		*created++
		return NewClient(conn, estest.New()), nil
	}
}

func TestGetOrCreateClientReusesByIdentity(t *testing.T) {
	created := 0
	r := NewRegistryWithFactory(fakeFactory(&created))

	conn := models.Connection{Alias: "c1", Host: "http://h:9200"}
	first, err := r.GetOrCreateClient(conn)
	require.NoError(t, err)

	// Credentials are not part of the identity
	second, err := r.GetOrCreateClient(models.Connection{Alias: "c1", Host: "http://h:9200", Username: "u", Password: "p"})
	require.NoError(t, err)

	assert.Same(t, first, second)
	assert.Equal(t, 1, created)
	assert.Len(t, r.Clients(), 1)
}

func TestGetOrCreateClientDistinctIdentities(t *testing.T) {
	created := 0
	r := NewRegistryWithFactory(fakeFactory(&created))

	a, err := r.GetOrCreateClient(models.Connection{Alias: "c1", Host: "http://h:9200"})
	require.NoError(t, err)
	b, err := r.GetOrCreateClient(models.Connection{Alias: "c1", Host: "http://other:9200"})
	require.NoError(t, err)
	c, err := r.GetOrCreateClient(models.Connection{Alias: "c2", Host: "http://h:9200"})
	require.NoError(t, err)

	assert.NotSame(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, 3, created)

	clients := r.Clients()
	require.Len(t, clients, 3)
	assert.Equal(t, "http://other:9200", clients[1].Connection().Host)

	got, ok := r.Get(models.ConnectionKey{Alias: "c2", Host: "http://h:9200"})
	require.True(t, ok)
	assert.Same(t, c, got)
}

func TestGetOrCreateClientConcurrent(t *testing.T) {
	created := 0
	r := NewRegistryWithFactory(fakeFactory(&created))
	conn := models.Connection{Alias: "c1", Host: "http://h:9200"}

	var wg sync.WaitGroup
	clients := make([]*Client, 16)
	for i := range clients {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			clients[i], _ = r.GetOrCreateClient(conn)
		}(i)
	}
	wg.Wait()

	for _, c := range clients {
		assert.Same(t, clients[0], c)
	}
	assert.Equal(t, 1, created)
}

func newClusterServer(t *testing.T, auth *[]string) *httptest.Server {
	var mu sync.Mutex
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		*auth = append(*auth, r.Header.Get("Authorization"))
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"name":"n1","cluster_name":"dev","version":{"number":"7.17.0","build_flavor":"default","lucene_version":"8.11.1"},"tagline":"You Know, for Search"}`))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestDefaultFactoryCredentialsAndMetrics(t *testing.T) {
	var auth []string
	srv := newClusterServer(t, &auth)

	reg := prometheus.NewRegistry()
	metrics := NewMetrics(reg)
	r := NewRegistry(RegistryConfig{Metrics: metrics})

	client, err := r.GetOrCreateClient(models.Connection{Alias: "c1", Host: srv.URL, Username: "elastic", Password: "secret"})
	require.NoError(t, err)

	version, err := client.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "7.17.0", version)

	require.NotEmpty(t, auth)
	for _, h := range auth {
		assert.Contains(t, h, "Basic ")
	}
	assert.GreaterOrEqual(t, testutil.ToFloat64(metrics.RequestsTotal.WithLabelValues("c1", "GET", "/", "200")), 1.0)
}

func TestDefaultFactoryIgnoresPartialCredentials(t *testing.T) {
	var auth []string
	srv := newClusterServer(t, &auth)

	r := NewRegistry(RegistryConfig{})
	client, err := r.GetOrCreateClient(models.Connection{Alias: "c1", Host: srv.URL, Username: "elastic"})
	require.NoError(t, err)

	_, err = client.Info(context.Background())
	require.NoError(t, err)

	require.NotEmpty(t, auth)
	for _, h := range auth {
		assert.Empty(t, h)
	}
}

func TestEndpointOf(t *testing.T) {
	tests := map[string]string{
		"/":                            "/",
		"/idx/_search":                 "_search",
		"/idx/doc/_search":             "_search",
		"/_cat/indices/idx":            "_cat/indices",
		"/idx/doc/a1/_update":          "_update",
		"/idx/_update/a1":              "_update",
		"/idx/_doc/a1":                 "document",
		"/idx/doc/a1":                  "document",
		"/idx/doc/_delete_by_query":    "_delete_by_query",
		"/_stats/docs,store,segments":  "_stats",
	}
	for path, want := range tests {
		assert.Equal(t, want, endpointOf(path), path)
	}
}
