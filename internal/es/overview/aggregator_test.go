package overview

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/es/estest"
	"github.com/rebeliceyang/lazyes/internal/models"
)

const (
	infoBody    = `{"name":"node-1","cluster_name":"dev","cluster_uuid":"cu","version":{"number":"6.8.23","lucene_version":"7.7.3"},"tagline":"You Know, for Search"}`
	statsBody   = `{"_all":{"primaries":{"docs":{"count":15,"deleted":2},"store":{"size_in_bytes":1024},"segments":{"count":4}},"total":{"docs":{"count":30,"deleted":4},"store":{"size_in_bytes":2048},"segments":{"count":8}}}}`
	indicesBody = `[
		{"health":"green","status":"open","index":"logs","pri":"1","rep":"1","docs.count":"5"},
		{"health":"yellow","status":"open","index":"users","pri":"1","rep":"1","docs.count":"10"},
		{"health":"red","status":"open","index":"archive","pri":"1","rep":"0","docs.count":"0"}]`
	aliasesBody = `[
		{"alias":"people","index":"users"},
		{"alias":"accounts","index":"users"},
		{"alias":"recent","index":"logs"},
		{"alias":"ghost","index":"gone"}]`
)

func newAggregator(tr *estest.Transport) *Aggregator {
	return NewAggregator(connection.NewClient(models.Connection{Alias: "c1", Host: "http://h:9200"}, tr), nil)
}

func clusterTransport() *estest.Transport {
	return estest.New().
		On("GET", "/", 200, infoBody).
		On("GET", "_stats", 200, statsBody).
		On("GET", "_cat/indices", 200, indicesBody).
		On("GET", "_cat/aliases", 200, aliasesBody)
}

func TestLoad(t *testing.T) {
	ov, err := newAggregator(clusterTransport()).Load(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "dev", ov.Info.ClusterName)
	assert.Equal(t, "6.8.23", ov.Info.Version)
	assert.Equal(t, models.ClusterStats{TotalDocs: 15, DeletedDocs: 2, TotalSizeBytes: 2048, SegmentCount: 8}, ov.Stats)

	require.Len(t, ov.Indices, 3)
	assert.Equal(t, "archive", ov.Indices[0].Index)
	assert.Nil(t, ov.Indices[0].Aliases)
	assert.Equal(t, []string{"recent"}, ov.Indices[1].Aliases)
	assert.Equal(t, []string{"accounts", "people"}, ov.Indices[2].Aliases)
}

func TestLoadFailsWhenAnyPartFails(t *testing.T) {
	tr := estest.New().
		On("GET", "/", 200, infoBody).
		On("GET", "_stats", 403, `{"error":"forbidden"}`).
		On("GET", "_cat/indices", 200, indicesBody).
		On("GET", "_cat/aliases", 200, aliasesBody)

	ov, err := newAggregator(tr).Load(context.Background())
	assert.Nil(t, ov)
	assert.Equal(t, apperrors.KindTransport, apperrors.KindOf(err))
}

func TestListIndexBriefsSortedByDocs(t *testing.T) {
	briefs, err := newAggregator(clusterTransport()).ListIndexBriefs(context.Background())
	require.NoError(t, err)

	var names []string
	for _, b := range briefs {
		names = append(names, b.Index)
	}
	assert.Equal(t, []string{"users", "logs", "archive"}, names)
}
