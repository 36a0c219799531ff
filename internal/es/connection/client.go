package connection

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v7/esapi"
	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Client is the handle to one cluster. It is shared by every tab opened
// on the same connection and lives until the process exits.
type Client struct {
	conn      models.Connection
	transport esapi.Transport
	timeout   time.Duration
	logger    logrus.FieldLogger
}

// ClientOption configures a Client
type ClientOption func(*Client)

// WithRequestTimeout bounds every call made through the client
func WithRequestTimeout(d time.Duration) ClientOption {
	return func(c *Client) { c.timeout = d }
}

// WithLogger sets the client logger
func WithLogger(l logrus.FieldLogger) ClientOption {
	return func(c *Client) { c.logger = l }
}

// NewClient binds a transport to a connection
func NewClient(conn models.Connection, transport esapi.Transport, opts ...ClientOption) *Client {
	c := &Client{conn: conn, transport: transport}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = logging.OrDiscard(c.logger).WithField("connection", conn.Alias)
	return c
}

// Connection returns the connection the client was created for
func (c *Client) Connection() models.Connection {
	return c.conn
}

// perform runs req and decodes a success body into out. Non-2xx responses
// and transport failures become TransportErrors carrying the raw body.
func (c *Client) perform(ctx context.Context, op string, req esapi.Request, out any) (int, []byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	start := time.Now()
	res, err := req.Do(ctx, c.transport)
	if err != nil {
		c.logger.WithError(err).WithField("op", op).Warn("backend request failed")
		return 0, nil, &apperrors.TransportError{Op: op, Cause: err}
	}

	var body []byte
	if res.Body != nil {
		defer res.Body.Close()
		body, err = io.ReadAll(res.Body)
		if err != nil {
			return res.StatusCode, nil, &apperrors.TransportError{Op: op, StatusCode: res.StatusCode, Cause: err}
		}
	}

	log := c.logger.WithFields(logrus.Fields{
		"op":       op,
		"status":   res.StatusCode,
		"duration": time.Since(start),
	})
	if res.IsError() {
		log.Warn("backend returned an error")
		return res.StatusCode, body, &apperrors.TransportError{Op: op, StatusCode: res.StatusCode, Body: string(body)}
	}
	log.Debug("backend request done")

	if out != nil && len(body) > 0 {
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.UseNumber()
		if err := dec.Decode(out); err != nil {
			return res.StatusCode, body, &apperrors.TransportError{
				Op:         op,
				StatusCode: res.StatusCode,
				Body:       string(body),
				Cause:      fmt.Errorf("decode response: %w", err),
			}
		}
	}
	return res.StatusCode, body, nil
}

func jsonBody(v any) (io.Reader, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request body: %w", err)
	}
	return bytes.NewReader(data), nil
}

func types(t string) []string {
	if t == "" {
		return nil
	}
	return []string{t}
}

func indices(names []string) []string {
	var out []string
	for _, n := range names {
		if n != "" {
			out = append(out, n)
		}
	}
	return out
}

// SearchParams scopes one paginated search
type SearchParams struct {
	Index string
	Type  string
	Query map[string]any
	From  int
	Size  int
}

// Search runs a _search request
func (c *Client) Search(ctx context.Context, p SearchParams) (*SearchResponse, error) {
	body, err := jsonBody(map[string]any{"query": p.Query})
	if err != nil {
		return nil, err
	}
	from, size := p.From, p.Size
	req := esapi.SearchRequest{
		Index:        []string{p.Index},
		DocumentType: types(p.Type),
		Body:         body,
		From:         &from,
		Size:         &size,
	}

	var resp SearchResponse
	if _, _, err := c.perform(ctx, "search", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// GetMapping fetches the mapping of an index
func (c *Client) GetMapping(ctx context.Context, index string) (MappingResponse, error) {
	req := esapi.IndicesGetMappingRequest{Index: []string{index}}

	var resp MappingResponse
	if _, _, err := c.perform(ctx, "get mapping", req, &resp); err != nil {
		return nil, err
	}
	return resp, nil
}

// CatIndices lists index summaries. With no names every index is listed.
func (c *Client) CatIndices(ctx context.Context, names ...string) ([]CatIndexRow, error) {
	req := esapi.CatIndicesRequest{Index: indices(names), Format: "json"}

	var rows []CatIndexRow
	if _, _, err := c.perform(ctx, "cat indices", req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// CatAliases lists every alias
func (c *Client) CatAliases(ctx context.Context) ([]CatAliasRow, error) {
	req := esapi.CatAliasesRequest{Format: "json"}

	var rows []CatAliasRow
	if _, _, err := c.perform(ctx, "cat aliases", req, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Info fetches the root endpoint
func (c *Client) Info(ctx context.Context) (*InfoResponse, error) {
	var resp InfoResponse
	if _, _, err := c.perform(ctx, "info", esapi.InfoRequest{}, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// IndicesStats fetches docs, store and segment statistics
func (c *Client) IndicesStats(ctx context.Context, names ...string) (*IndicesStatsResponse, error) {
	req := esapi.IndicesStatsRequest{
		Index:  indices(names),
		Metric: []string{"docs", "store", "segments"},
	}

	var resp IndicesStatsResponse
	if _, _, err := c.perform(ctx, "indices stats", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func refreshParam(refresh bool) string {
	if refresh {
		return "true"
	}
	return ""
}

// Update applies a partial document to one document
func (c *Client) Update(ctx context.Context, index, docType, id string, partial models.Document, refresh bool) (*DocWriteResponse, error) {
	body, err := jsonBody(map[string]any{"doc": partial})
	if err != nil {
		return nil, err
	}
	req := esapi.UpdateRequest{
		Index:        index,
		DocumentType: docType,
		DocumentID:   id,
		Body:         body,
		Refresh:      refreshParam(refresh),
	}

	var resp DocWriteResponse
	status, raw, err := c.perform(ctx, "update", req, &resp)
	if err != nil {
		return nil, err
	}
	resp.StatusCode, resp.Raw = status, raw
	return &resp, nil
}

// Delete removes one document
func (c *Client) Delete(ctx context.Context, index, docType, id string, refresh bool) (*DocWriteResponse, error) {
	req := esapi.DeleteRequest{
		Index:        index,
		DocumentType: docType,
		DocumentID:   id,
		Refresh:      refreshParam(refresh),
	}

	var resp DocWriteResponse
	status, raw, err := c.perform(ctx, "delete", req, &resp)
	if err != nil {
		return nil, err
	}
	resp.StatusCode, resp.Raw = status, raw
	return &resp, nil
}

// Bulk sends a newline-delimited bulk body scoped to index and type
func (c *Client) Bulk(ctx context.Context, index, docType string, body []byte, refresh bool) (*BulkResponse, error) {
	req := esapi.BulkRequest{
		Index:        index,
		DocumentType: docType,
		Body:         bytes.NewReader(body),
		Refresh:      refreshParam(refresh),
	}

	var resp BulkResponse
	status, raw, err := c.perform(ctx, "bulk", req, &resp)
	if err != nil {
		return nil, err
	}
	resp.StatusCode, resp.Raw = status, raw
	return &resp, nil
}

// DeleteByQuery removes every document of index/type matching query
func (c *Client) DeleteByQuery(ctx context.Context, index, docType string, query map[string]any, refresh bool) (*ByQueryResponse, error) {
	body, err := jsonBody(map[string]any{"query": query})
	if err != nil {
		return nil, err
	}
	req := esapi.DeleteByQueryRequest{
		Index:        []string{index},
		DocumentType: types(docType),
		Body:         body,
		Refresh:      &refresh,
	}

	var resp ByQueryResponse
	status, raw, err := c.perform(ctx, "delete by query", req, &resp)
	if err != nil {
		return nil, err
	}
	resp.StatusCode, resp.Raw = status, raw
	return &resp, nil
}

// mergeScript copies params.doc into each matched source
const mergeScript = "for (entry in params.doc.entrySet()) { ctx._source[entry.getKey()] = entry.getValue(); }"

// UpdateByQuery merges partial into every document of index/type matching query
func (c *Client) UpdateByQuery(ctx context.Context, index, docType string, query map[string]any, partial models.Document, refresh bool) (*ByQueryResponse, error) {
	body, err := jsonBody(map[string]any{
		"query": query,
		"script": map[string]any{
			"source": mergeScript,
			"lang":   "painless",
			"params": map[string]any{"doc": partial},
		},
	})
	if err != nil {
		return nil, err
	}
	req := esapi.UpdateByQueryRequest{
		Index:        []string{index},
		DocumentType: types(docType),
		Body:         body,
		Refresh:      &refresh,
	}

	var resp ByQueryResponse
	status, raw, err := c.perform(ctx, "update by query", req, &resp)
	if err != nil {
		return nil, err
	}
	resp.StatusCode, resp.Raw = status, raw
	return &resp, nil
}

// Ping checks that the cluster answers and returns its version
func (c *Client) Ping(ctx context.Context) (string, error) {
	info, err := c.Info(ctx)
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(info.Version.Number), nil
}
