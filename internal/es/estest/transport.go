// Package estest provides a recording fake of the Elasticsearch transport
// for tests.
package estest

import (
	"bytes"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
)

// Request is one call seen by the fake transport
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   []byte
}

type route struct {
	method   string
	fragment string
	status   int
	body     string
	err      error
	block    <-chan struct{}
}

func (r route) matches(method, path string) bool {
	if r.method != method {
		return false
	}
	if r.fragment == "/" {
		return path == "/"
	}
	return strings.Contains(path, r.fragment)
}

// Transport answers requests from canned routes and records every call.
// Routes are matched by method and a path fragment in registration order;
// the fragment "/" matches only the root path.
type Transport struct {
	mu       sync.Mutex
	routes   []route
	requests []Request
}

// New creates an empty fake transport
func New() *Transport {
	return &Transport{}
}

// On registers a canned response
func (t *Transport) On(method, fragment string, status int, body string) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, route{method: method, fragment: fragment, status: status, body: body})
	return t
}

// OnBlocking registers a response that is held back until release is closed
func (t *Transport) OnBlocking(method, fragment string, status int, body string, release <-chan struct{}) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, route{method: method, fragment: fragment, status: status, body: body, block: release})
	return t
}

// Fail registers a transport-level failure
func (t *Transport) Fail(method, fragment string, err error) *Transport {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.routes = append(t.routes, route{method: method, fragment: fragment, err: err})
	return t
}

// Perform implements esapi.Transport
func (t *Transport) Perform(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
		req.Body.Close()
	}

	t.mu.Lock()
	t.requests = append(t.requests, Request{
		Method: req.Method,
		Path:   req.URL.Path,
		Query:  req.URL.Query(),
		Body:   body,
	})
	var matched *route
	for i := range t.routes {
		if t.routes[i].matches(req.Method, req.URL.Path) {
			matched = &t.routes[i]
			break
		}
	}
	t.mu.Unlock()

	if matched == nil {
		return response(http.StatusNotFound, `{"error":"no route for `+req.Method+" "+req.URL.Path+`"}`), nil
	}
	if matched.block != nil {
		select {
		case <-matched.block:
		case <-req.Context().Done():
			return nil, req.Context().Err()
		}
	}
	if matched.err != nil {
		return nil, matched.err
	}
	return response(matched.status, matched.body), nil
}

func response(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewBufferString(body)),
	}
}

// Requests returns a copy of the recorded calls
func (t *Transport) Requests() []Request {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]Request, len(t.requests))
	copy(out, t.requests)
	return out
}

// Count returns the number of recorded calls whose path contains fragment.
// An empty fragment counts every call.
func (t *Transport) Count(fragment string) int {
	n := 0
	for _, r := range t.Requests() {
		if fragment == "" || strings.Contains(r.Path, fragment) {
			n++
		}
	}
	return n
}
