package main

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/es/estest"
	"github.com/rebeliceyang/lazyes/internal/models"
	"github.com/rebeliceyang/lazyes/internal/session"
)

func TestQueryFilterText(t *testing.T) {
	q := &queryOptions{filter: `{"term":{"a":1}}`}
	text, err := q.filterText()
	require.NoError(t, err)
	assert.Equal(t, `{"term":{"a":1}}`, text)

	q = &queryOptions{where: []string{"level=error", "took>100"}}
	text, err = q.filterText()
	require.NoError(t, err)
	assert.Contains(t, text, `"level":"error"`)
	assert.Contains(t, text, `"range"`)

	q = &queryOptions{where: []string{"nonsense"}}
	_, err = q.filterText()
	assert.Error(t, err)
}

func TestRunQueryWritesCSV(t *testing.T) {
	tr := estest.New().
		On("GET", "_mapping", 200, `{"logs":{"mappings":{"_doc":{"properties":{"level":{"type":"keyword"}}}}}}`).
		On("GET", "_cat/indices", 200, `[{"health":"green","status":"open","index":"logs","docs.count":"2"}]`).
		On("POST", "_search", 200, `{"hits":{"total":{"value":2},"hits":[
			{"_id":"a","_source":{"level":"error"}},
			{"_id":"b","_source":{"level":"warn"}}]}}`)
	registry := connection.NewRegistryWithFactory(func(conn models.Connection) (*connection.Client, error) {
		return connection.NewClient(conn, tr), nil
	})
	sess := session.New(session.Options{Registry: registry, DefaultPageSize: 100})
	conn := models.Connection{Alias: "local", Host: "http://localhost:9200"}

	q := &queryOptions{page: 1, format: "csv"}
	state, err := runQuery(context.Background(), sess, conn, "logs", q, `{"term":{"level":"error"}}`)
	require.NoError(t, err)
	assert.Equal(t, `{"term":{"level":"error"}}`, state.Query.FilterText)

	var buf bytes.Buffer
	require.NoError(t, writePage(&buf, q.format, state))
	assert.Equal(t, "key,level\na,error\nb,warn\n", buf.String())

	_, err = runQuery(context.Background(), sess, conn, "logs", &queryOptions{docType: "missing", page: 1}, "")
	assert.ErrorContains(t, err, `no type "missing"`)
}
