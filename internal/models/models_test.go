package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestConnectionValidate(t *testing.T) {
	tests := []struct {
		name    string
		conn    Connection
		wantErr string
	}{
		{name: "valid", conn: Connection{Alias: "local", Host: "http://localhost:9200"}},
		{name: "missing alias", conn: Connection{Host: "http://localhost:9200"}, wantErr: `alias failed "required"`},
		{name: "bad host", conn: Connection{Alias: "x", Host: "not a url"}, wantErr: `host failed "url"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.conn.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			assert.ErrorContains(t, err, tt.wantErr)
		})
	}
}

func TestConnectionKeyAndRedacted(t *testing.T) {
	c := Connection{Alias: "prod", Host: "https://es:9200", Username: "elastic", Password: "secret"}
	assert.Equal(t, ConnectionKey{Alias: "prod", Host: "https://es:9200"}, c.Key())
	assert.Equal(t, "prod@https://es:9200", c.Key().String())
	assert.Equal(t, "https://es:9200 (as elastic)", c.Redacted())
	assert.NotContains(t, c.Redacted(), "secret")

	// a user without a password is not a credential
	c.Password = ""
	assert.False(t, c.HasCredentials())
	assert.Equal(t, "https://es:9200", c.Redacted())
}

func TestPaginationState(t *testing.T) {
	assert.Equal(t, 0, PaginationState{Current: 1, PageSize: 100}.Offset())
	assert.Equal(t, 300, PaginationState{Current: 3, PageSize: 150}.Offset())
	assert.Equal(t, 0, PaginationState{Current: 0, PageSize: 100}.Offset())

	assert.Equal(t, 1, PaginationState{PageSize: 100}.PageCount())
	assert.Equal(t, 1, PaginationState{PageSize: 100, Total: 100}.PageCount())
	assert.Equal(t, 2, PaginationState{PageSize: 100, Total: 101}.PageCount())
}

func TestSchemaCatalog(t *testing.T) {
	c := SchemaCatalog{Types: []DocType{
		{Name: "a", Fields: []string{"x"}},
		{Name: "b", Fields: []string{"y", "z"}},
	}}
	assert.Equal(t, []string{"a", "b"}, c.TypeNames())
	assert.Equal(t, []string{"y", "z"}, c.Fields("b"))
	assert.Nil(t, c.Fields("c"))
	assert.True(t, c.HasType("a"))
	assert.False(t, c.HasType("c"))
}

func TestSortBriefs(t *testing.T) {
	briefs := []IndexBrief{{Index: "b", DocsCount: 1}, {Index: "c", DocsCount: 9}, {Index: "a", DocsCount: 1}}
	SortBriefsByDocs(briefs)
	assert.Equal(t, "c", briefs[0].Index)
	assert.Equal(t, "a", briefs[1].Index)

	SortBriefsByName(briefs)
	assert.Equal(t, "a", briefs[0].Index)
	assert.Equal(t, "c", briefs[2].Index)
}

func TestTabKeyAndRow(t *testing.T) {
	assert.Equal(t, "Tab:logs:query", TabKey("logs", OperationQuery))

	row := Row{ID: "1", Document: Document{KeyField: "1", "n": 2}}
	assert.Equal(t, []any{"1", nil, 2}, row.Values([]string{KeyField, "missing", "n"}))
	assert.Contains(t, row.JSON(), `"n": 2`)
}
