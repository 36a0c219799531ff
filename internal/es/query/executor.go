package query

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Searcher is the part of the client the executor needs
type Searcher interface {
	Search(ctx context.Context, p connection.SearchParams) (*connection.SearchResponse, error)
}

var _ Searcher = (*connection.Client)(nil)

// Request describes one page read
type Request struct {
	// Type is the selected document type; required
	Type string
	// Typeless leaves the type out of the request path
	Typeless bool
	Page     int
	PageSize int
	Filter   string
	// Fields is the display column order, usually the catalog fields of Type
	Fields []string
}

// Executor issues paginated reads against one index. It keeps no state
// between calls.
type Executor struct {
	searcher        Searcher
	index           string
	defaultPageSize int
	logger          logrus.FieldLogger
}

// NewExecutor creates an executor bound to index
func NewExecutor(searcher Searcher, index string, defaultPageSize int, logger logrus.FieldLogger) *Executor {
	if defaultPageSize <= 0 {
		defaultPageSize = 100
	}
	return &Executor{
		searcher:        searcher,
		index:           index,
		defaultPageSize: defaultPageSize,
		logger:          logging.OrDiscard(logger).WithField("index", index),
	}
}

// Offset returns the number of hits skipped for a 1-based page. Pages
// below 1 are treated as the first page.
func Offset(page, pageSize int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * pageSize
}

// RequestPage validates the request and fetches one page. Validation
// failures are returned before anything is sent.
func (e *Executor) RequestPage(ctx context.Context, req Request) (*models.Page, error) {
	if req.Type == "" {
		return nil, apperrors.NewValidationError("type", "no document type selected", nil)
	}
	query, err := dsl.Parse(req.Filter)
	if err != nil {
		return nil, err
	}

	page := req.Page
	if page < 1 {
		page = 1
	}
	pageSize := req.PageSize
	if pageSize <= 0 {
		pageSize = e.defaultPageSize
	}

	wireType := req.Type
	if req.Typeless {
		wireType = ""
	}

	start := time.Now()
	resp, err := e.searcher.Search(ctx, connection.SearchParams{
		Index: e.index,
		Type:  wireType,
		Query: query,
		From:  Offset(page, pageSize),
		Size:  pageSize,
	})
	if err != nil {
		return nil, err
	}

	rows := make([]models.Row, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		doc := models.Document{}
		for k, v := range hit.Source {
			doc[k] = v
		}
		doc[models.KeyField] = hit.ID
		rows = append(rows, models.Row{ID: hit.ID, Document: doc})
	}

	columns := req.Fields
	if len(columns) == 0 {
		columns = sourceFields(resp.Hits.Hits)
	}

	e.logger.WithFields(logrus.Fields{
		"type":     req.Type,
		"page":     page,
		"size":     pageSize,
		"hits":     len(rows),
		"total":    resp.Hits.Total.Value,
		"duration": time.Since(start),
	}).Debug("page loaded")

	return &models.Page{
		Columns:  columns,
		Rows:     rows,
		Total:    resp.Hits.Total.Value,
		Current:  page,
		PageSize: pageSize,
	}, nil
}

// sourceFields collects the field names seen in hits, for types whose
// mapping declares no properties.
func sourceFields(hits []connection.Hit) []string {
	seen := map[string]bool{}
	var fields []string
	for _, hit := range hits {
		for k := range hit.Source {
			if !seen[k] {
				seen[k] = true
				fields = append(fields, k)
			}
		}
	}
	sort.Strings(fields)
	return fields
}
