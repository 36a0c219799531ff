package mutation

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/es/estest"
	"github.com/rebeliceyang/lazyes/internal/models"
)

const matchTitle = `{"match":{"title":"old"}}`

var docTarget = Target{Type: "doc"}

func newCoordinator(tr *estest.Transport, phases *[]Phase) *Coordinator {
	client := connection.NewClient(models.Connection{Alias: "c1", Host: "http://h:9200"}, tr)
	opts := Options{Refresh: true}
	if phases != nil {
		opts.OnPhase = func(p Phase) { *phases = append(*phases, p) }
	}
	return NewCoordinator(client, "idx1", opts)
}

func ndjson(t *testing.T, body []byte) []map[string]any {
	t.Helper()
	var lines []map[string]any
	for _, line := range strings.Split(strings.TrimSpace(string(body)), "\n") {
		var m map[string]any
		require.NoError(t, json.Unmarshal([]byte(line), &m))
		lines = append(lines, m)
	}
	return lines
}

func TestUpdateOne(t *testing.T) {
	tr := estest.New().On("POST", "_update", 200, `{"_id":"a","result":"updated"}`)
	var phases []Phase
	c := newCoordinator(tr, &phases)

	err := c.UpdateOne(context.Background(), docTarget, "a", models.Document{"title": "new"})
	require.NoError(t, err)

	assert.Equal(t, []Phase{Validating, Executing, Succeeded, Idle}, phases)
	assert.Equal(t, Idle, c.Phase())
	assert.JSONEq(t, `{"doc":{"title":"new"}}`, string(tr.Requests()[0].Body))
}

func TestUpdateOneNoopIsFailure(t *testing.T) {
	tr := estest.New().On("POST", "_update", 200, `{"_id":"a","result":"noop"}`)
	var phases []Phase
	c := newCoordinator(tr, &phases)

	err := c.UpdateOne(context.Background(), docTarget, "a", models.Document{"title": "same"})

	var te *apperrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 200, te.StatusCode)
	assert.Contains(t, te.Body, "noop")
	assert.Equal(t, []Phase{Validating, Executing, Failed, Idle}, phases)
}

func TestUpdateOneValidation(t *testing.T) {
	tr := estest.New()
	c := newCoordinator(tr, nil)

	err := c.UpdateOne(context.Background(), Target{}, "a", models.Document{"x": 1})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	err = c.UpdateOne(context.Background(), docTarget, "a", models.Document{})
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))

	assert.Equal(t, 0, tr.Count(""))
}

func TestDeleteOne(t *testing.T) {
	tr := estest.New().On("DELETE", "idx1", 200, `{"_id":"a","result":"deleted"}`)
	c := newCoordinator(tr, nil)

	require.NoError(t, c.DeleteOne(context.Background(), docTarget, "a"))
	assert.Equal(t, "/idx1/doc/a", tr.Requests()[0].Path)
}

func TestDeleteOneNotFound(t *testing.T) {
	tr := estest.New().On("DELETE", "idx1", 404, `{"_id":"a","result":"not_found"}`)
	c := newCoordinator(tr, nil)

	err := c.DeleteOne(context.Background(), docTarget, "a")
	var te *apperrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Equal(t, 404, te.StatusCode)
}

func TestBulkDeleteSelectionIgnoresFilter(t *testing.T) {
	tr := estest.New().On("POST", "_bulk", 200, `{"errors":false,"items":[
		{"delete":{"_id":"a","status":200,"result":"deleted","found":true}},
		{"delete":{"_id":"b","status":200,"result":"deleted","found":true}}]}`)
	c := newCoordinator(tr, nil)

	res, err := c.BulkDelete(context.Background(), docTarget, []string{"a", "b"}, matchTitle)
	require.NoError(t, err)

	assert.Equal(t, &Result{Mode: ModeSelection, Requested: 2, Succeeded: 2, Duration: res.Duration}, res)
	require.Equal(t, 1, tr.Count(""))
	assert.Equal(t, 0, tr.Count("_delete_by_query"))

	req := tr.Requests()[0]
	assert.Equal(t, "/idx1/doc/_bulk", req.Path)
	assert.Equal(t, []map[string]any{
		{"delete": map[string]any{"_id": "a"}},
		{"delete": map[string]any{"_id": "b"}},
	}, ndjson(t, req.Body))
}

func TestBulkDeleteSelectionPartialFailure(t *testing.T) {
	tr := estest.New().On("POST", "_bulk", 200, `{"errors":false,"items":[
		{"delete":{"_id":"a","status":200,"result":"deleted","found":true}},
		{"delete":{"_id":"b","status":404,"result":"not_found","found":false}}]}`)
	c := newCoordinator(tr, nil)

	res, err := c.BulkDelete(context.Background(), docTarget, []string{"a", "b"}, "")

	var pbf *apperrors.PartialBulkFailure
	require.ErrorAs(t, err, &pbf)
	require.Len(t, pbf.Items, 1)
	assert.Equal(t, "b", pbf.Items[0].ID)
	assert.Equal(t, 404, pbf.Items[0].Status)
	assert.Equal(t, int64(1), res.Succeeded)
	// no rollback request for "a"
	assert.Equal(t, 1, tr.Count(""))
}

func TestBulkDeleteFilterBranch(t *testing.T) {
	tr := estest.New().On("POST", "_delete_by_query", 200, `{"total":7,"deleted":7,"failures":[]}`)
	c := newCoordinator(tr, nil)

	res, err := c.BulkDelete(context.Background(), docTarget, nil, matchTitle)
	require.NoError(t, err)
	assert.Equal(t, ModeFilter, res.Mode)
	assert.Equal(t, int64(7), res.Succeeded)

	require.Equal(t, 1, tr.Count(""))
	req := tr.Requests()[0]
	assert.Equal(t, "/idx1/doc/_delete_by_query", req.Path)
	assert.JSONEq(t, `{"query":`+matchTitle+`}`, string(req.Body))
}

func TestBulkDeleteFilterBranchFailures(t *testing.T) {
	tr := estest.New().On("POST", "_delete_by_query", 200, `{"total":2,"deleted":1,"failures":[{"id":"x","cause":{"type":"version_conflict_engine_exception"}}]}`)
	c := newCoordinator(tr, nil)

	_, err := c.BulkDelete(context.Background(), docTarget, nil, matchTitle)
	var te *apperrors.TransportError
	require.ErrorAs(t, err, &te)
	assert.Contains(t, te.Body, "version_conflict")
}

func TestBulkDeleteInvalidFilterSendsNothing(t *testing.T) {
	tr := estest.New()
	var phases []Phase
	c := newCoordinator(tr, &phases)

	_, err := c.BulkDelete(context.Background(), docTarget, nil, "{broken")
	assert.Equal(t, apperrors.KindValidation, apperrors.KindOf(err))
	assert.Equal(t, 0, tr.Count(""))
	assert.Equal(t, []Phase{Validating, Failed, Idle}, phases)
}

func TestBulkUpdateSelection(t *testing.T) {
	tr := estest.New().On("POST", "_bulk", 200, `{"errors":false,"items":[
		{"update":{"_id":"a","status":200,"result":"updated"}},
		{"update":{"_id":"b","status":200,"result":"noop"}}]}`)
	c := newCoordinator(tr, nil)

	_, err := c.BulkUpdate(context.Background(), docTarget, []string{"a", "b"}, models.Document{"flag": true}, matchTitle)

	var pbf *apperrors.PartialBulkFailure
	require.ErrorAs(t, err, &pbf)
	assert.Equal(t, "b", pbf.Items[0].ID)
	assert.Equal(t, "noop", pbf.Items[0].Result)

	assert.Equal(t, []map[string]any{
		{"update": map[string]any{"_id": "a"}},
		{"doc": map[string]any{"flag": true}},
		{"update": map[string]any{"_id": "b"}},
		{"doc": map[string]any{"flag": true}},
	}, ndjson(t, tr.Requests()[0].Body))
}

func TestBulkUpdateFilterBranch(t *testing.T) {
	tr := estest.New().On("POST", "_update_by_query", 200, `{"total":4,"updated":4,"failures":[]}`)
	c := newCoordinator(tr, nil)

	res, err := c.BulkUpdate(context.Background(), Target{Type: models.TypelessType, Typeless: true}, nil, models.Document{"flag": true}, matchTitle)
	require.NoError(t, err)
	assert.Equal(t, int64(4), res.Succeeded)
	assert.Equal(t, "/idx1/_update_by_query", tr.Requests()[0].Path)
}

func TestBulkReportsMissingItems(t *testing.T) {
	tr := estest.New().On("POST", "_bulk", 200, `{"errors":false,"items":[{"delete":{"_id":"a","status":200,"result":"deleted"}}]}`)
	c := newCoordinator(tr, nil)

	_, err := c.BulkDelete(context.Background(), docTarget, []string{"a", "b"}, "")
	var pbf *apperrors.PartialBulkFailure
	require.ErrorAs(t, err, &pbf)
	assert.Equal(t, "b", pbf.Items[0].ID)
	assert.Equal(t, "missing", pbf.Items[0].Result)
}

func TestBulkReportsUnexpectedItems(t *testing.T) {
	tr := estest.New().On("POST", "_bulk", 200, `{"errors":false,"items":[
		{"delete":{"_id":"a","status":200,"result":"deleted"}},
		{"index":{"_id":"b","status":200,"result":"created"}}]}`)
	c := newCoordinator(tr, nil)

	res, err := c.BulkDelete(context.Background(), docTarget, []string{"a", "b"}, "")
	var pbf *apperrors.PartialBulkFailure
	require.ErrorAs(t, err, &pbf)
	require.Len(t, pbf.Items, 1)
	assert.Equal(t, "b", pbf.Items[0].ID)
	assert.Equal(t, "unexpected", pbf.Items[0].Result)
	assert.Equal(t, int64(1), res.Succeeded)
}
