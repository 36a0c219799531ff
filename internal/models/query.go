package models

import "encoding/json"

// Document is a schema-less document body
type Document map[string]any

// KeyField is injected into every returned row and holds the document id
const KeyField = "key"

// Row is one hit of a query page
type Row struct {
	ID       string
	Document Document
}

// Values returns the row values aligned with columns. Missing fields are nil.
func (r Row) Values(columns []string) []any {
	values := make([]any, len(columns))
	for i, col := range columns {
		values[i] = r.Document[col]
	}
	return values
}

// JSON renders the document as indented JSON
func (r Row) JSON() string {
	data, err := json.MarshalIndent(r.Document, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(data)
}

// Page is the result of one paginated read
type Page struct {
	Columns  []string
	Rows     []Row
	Total    int64
	Current  int
	PageSize int
}

// PaginationState tracks where a query tab is in its result set
type PaginationState struct {
	Current  int
	PageSize int
	Total    int64
	// Stale is set after a mutation until the next read completes
	Stale bool
}

// Offset is the number of hits skipped before the current page
func (p PaginationState) Offset() int {
	current := p.Current
	if current < 1 {
		current = 1
	}
	return (current - 1) * p.PageSize
}

// PageCount returns the number of pages for the current total
func (p PaginationState) PageCount() int {
	if p.PageSize <= 0 || p.Total <= 0 {
		return 1
	}
	return int((p.Total + int64(p.PageSize) - 1) / int64(p.PageSize))
}

// QueryState is the user-controlled input of a query tab
type QueryState struct {
	SelectedType string
	// FilterText is raw query DSL, parsed only when a request is issued
	FilterText string
}
