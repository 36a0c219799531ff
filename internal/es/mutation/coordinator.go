// Package mutation applies single-document and bulk changes to an index.
//
// Bulk operations pick their target set in one of two ways: an explicit
// selection of document ids always wins; with no selection the operation
// applies to every document matching the filter. Nothing is retried and
// partial bulk failures are not rolled back.
package mutation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/dsl"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Writer is the part of the client the coordinator needs
type Writer interface {
	Update(ctx context.Context, index, docType, id string, partial models.Document, refresh bool) (*connection.DocWriteResponse, error)
	Delete(ctx context.Context, index, docType, id string, refresh bool) (*connection.DocWriteResponse, error)
	Bulk(ctx context.Context, index, docType string, body []byte, refresh bool) (*connection.BulkResponse, error)
	DeleteByQuery(ctx context.Context, index, docType string, query map[string]any, refresh bool) (*connection.ByQueryResponse, error)
	UpdateByQuery(ctx context.Context, index, docType string, query map[string]any, partial models.Document, refresh bool) (*connection.ByQueryResponse, error)
}

var _ Writer = (*connection.Client)(nil)

// Phase is the lifecycle state of the request in flight
type Phase int

const (
	Idle Phase = iota
	Validating
	Executing
	Succeeded
	Failed
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Validating:
		return "validating"
	case Executing:
		return "executing"
	case Succeeded:
		return "succeeded"
	case Failed:
		return "failed"
	default:
		return "unknown"
	}
}

// Target is the type a mutation is scoped to
type Target struct {
	Type     string
	Typeless bool
}

func (t Target) wireType() string {
	if t.Typeless {
		return ""
	}
	return t.Type
}

// Mode tells how a bulk operation chose its documents
type Mode string

const (
	ModeSelection Mode = "selection"
	ModeFilter    Mode = "filter"
)

// Result summarizes a bulk operation
type Result struct {
	Mode      Mode
	Requested int64
	Succeeded int64
	Duration  time.Duration
}

// Options configures a Coordinator
type Options struct {
	// Refresh makes writes visible to the next search
	Refresh bool
	// OnPhase observes every phase transition
	OnPhase func(Phase)
	Logger  logrus.FieldLogger
}

// Coordinator performs mutations against one index
type Coordinator struct {
	writer  Writer
	index   string
	refresh bool
	onPhase func(Phase)
	logger  logrus.FieldLogger

	mu    sync.Mutex
	phase Phase
}

// NewCoordinator creates a coordinator bound to index
func NewCoordinator(writer Writer, index string, opts Options) *Coordinator {
	return &Coordinator{
		writer:  writer,
		index:   index,
		refresh: opts.Refresh,
		onPhase: opts.OnPhase,
		logger:  logging.OrDiscard(opts.Logger).WithField("index", index),
	}
}

// Phase returns the current phase
func (c *Coordinator) Phase() Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.phase
}

func (c *Coordinator) enter(p Phase) {
	c.mu.Lock()
	c.phase = p
	c.mu.Unlock()
	if c.onPhase != nil {
		c.onPhase(p)
	}
}

// finish records the outcome and returns to Idle
func (c *Coordinator) finish(err error) {
	if err != nil {
		c.enter(Failed)
	} else {
		c.enter(Succeeded)
	}
	c.enter(Idle)
}

func validateTarget(t Target) error {
	if t.Type == "" {
		return apperrors.NewValidationError("type", "no document type selected", nil)
	}
	return nil
}

// UpdateOne merges partial into the document id. It succeeds only when the
// backend reports the document as updated; a no-op update is a failure.
func (c *Coordinator) UpdateOne(ctx context.Context, target Target, id string, partial models.Document) (err error) {
	c.enter(Validating)
	defer func() { c.finish(err) }()

	if err := validateTarget(target); err != nil {
		return err
	}
	if id == "" {
		return apperrors.NewValidationError("id", "document id is required", nil)
	}
	if len(partial) == 0 {
		return apperrors.NewValidationError("document", "update body is empty", nil)
	}

	c.enter(Executing)
	resp, err := c.writer.Update(ctx, c.index, target.wireType(), id, partial, c.refresh)
	if err != nil {
		return err
	}
	if resp.Result != "updated" {
		return &apperrors.TransportError{Op: "update", StatusCode: resp.StatusCode, Body: string(resp.Raw)}
	}
	c.logger.WithFields(logrus.Fields{"type": target.Type, "id": id}).Info("document updated")
	return nil
}

// DeleteOne removes the document id
func (c *Coordinator) DeleteOne(ctx context.Context, target Target, id string) (err error) {
	c.enter(Validating)
	defer func() { c.finish(err) }()

	if err := validateTarget(target); err != nil {
		return err
	}
	if id == "" {
		return apperrors.NewValidationError("id", "document id is required", nil)
	}

	c.enter(Executing)
	resp, err := c.writer.Delete(ctx, c.index, target.wireType(), id, c.refresh)
	if err != nil {
		return err
	}
	if resp.Result != "deleted" {
		return &apperrors.TransportError{Op: "delete", StatusCode: resp.StatusCode, Body: string(resp.Raw)}
	}
	c.logger.WithFields(logrus.Fields{"type": target.Type, "id": id}).Info("document deleted")
	return nil
}

// BulkDelete deletes the selected documents in one bulk request, or, with
// no selection, every document matching filterText.
func (c *Coordinator) BulkDelete(ctx context.Context, target Target, selected []string, filterText string) (res *Result, err error) {
	c.enter(Validating)
	defer func() { c.finish(err) }()

	if err := validateTarget(target); err != nil {
		return nil, err
	}

	start := time.Now()
	if len(selected) > 0 {
		body, err := bulkBody("delete", selected, nil)
		if err != nil {
			return nil, err
		}
		c.enter(Executing)
		resp, err := c.writer.Bulk(ctx, c.index, target.wireType(), body, c.refresh)
		if err != nil {
			return nil, err
		}
		res, err = checkBulk("bulk delete", "delete", "deleted", selected, resp)
		if res != nil {
			res.Duration = time.Since(start)
		}
		c.logBulk(target, res, err)
		return res, err
	}

	query, err := dsl.Parse(filterText)
	if err != nil {
		return nil, err
	}
	c.enter(Executing)
	resp, err := c.writer.DeleteByQuery(ctx, c.index, target.wireType(), query, c.refresh)
	if err != nil {
		return nil, err
	}
	if len(resp.Failures) > 0 {
		return nil, &apperrors.TransportError{Op: "delete by query", StatusCode: resp.StatusCode, Body: string(resp.Raw)}
	}
	res = &Result{Mode: ModeFilter, Requested: resp.Total, Succeeded: resp.Deleted, Duration: time.Since(start)}
	c.logBulk(target, res, nil)
	return res, nil
}

// BulkUpdate merges partial into the selected documents in one bulk
// request, or, with no selection, into every document matching filterText.
func (c *Coordinator) BulkUpdate(ctx context.Context, target Target, selected []string, partial models.Document, filterText string) (res *Result, err error) {
	c.enter(Validating)
	defer func() { c.finish(err) }()

	if err := validateTarget(target); err != nil {
		return nil, err
	}
	if len(partial) == 0 {
		return nil, apperrors.NewValidationError("document", "update body is empty", nil)
	}

	start := time.Now()
	if len(selected) > 0 {
		body, err := bulkBody("update", selected, partial)
		if err != nil {
			return nil, err
		}
		c.enter(Executing)
		resp, err := c.writer.Bulk(ctx, c.index, target.wireType(), body, c.refresh)
		if err != nil {
			return nil, err
		}
		res, err = checkBulk("bulk update", "update", "updated", selected, resp)
		if res != nil {
			res.Duration = time.Since(start)
		}
		c.logBulk(target, res, err)
		return res, err
	}

	query, err := dsl.Parse(filterText)
	if err != nil {
		return nil, err
	}
	c.enter(Executing)
	resp, err := c.writer.UpdateByQuery(ctx, c.index, target.wireType(), query, partial, c.refresh)
	if err != nil {
		return nil, err
	}
	if len(resp.Failures) > 0 {
		return nil, &apperrors.TransportError{Op: "update by query", StatusCode: resp.StatusCode, Body: string(resp.Raw)}
	}
	res = &Result{Mode: ModeFilter, Requested: resp.Total, Succeeded: resp.Updated, Duration: time.Since(start)}
	c.logBulk(target, res, nil)
	return res, nil
}

func (c *Coordinator) logBulk(target Target, res *Result, err error) {
	log := c.logger.WithField("type", target.Type)
	if res != nil {
		log = log.WithFields(logrus.Fields{
			"mode":      res.Mode,
			"requested": res.Requested,
			"succeeded": res.Succeeded,
			"duration":  res.Duration,
		})
	}
	if err != nil {
		log.WithError(err).Warn("bulk operation finished with failures")
		return
	}
	log.Info("bulk operation done")
}

// bulkBody renders one action line per id, followed by the partial
// document for updates.
func bulkBody(action string, ids []string, partial models.Document) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for _, id := range ids {
		if err := enc.Encode(map[string]any{action: map[string]any{"_id": id}}); err != nil {
			return nil, fmt.Errorf("failed to encode bulk action: %w", err)
		}
		if partial != nil {
			if err := enc.Encode(map[string]any{"doc": partial}); err != nil {
				return nil, fmt.Errorf("failed to encode bulk document: %w", err)
			}
		}
	}
	return buf.Bytes(), nil
}

// checkBulk collects the items that did not reach the expected result
func checkBulk(op, action, want string, selected []string, resp *connection.BulkResponse) (*Result, error) {
	res := &Result{Mode: ModeSelection, Requested: int64(len(selected))}

	var failed []apperrors.BulkItemFailure
	for _, entry := range resp.Items {
		item, ok := entry[action]
		if !ok {
			// an item reported under another action counts as failed
			for _, other := range entry {
				failed = append(failed, apperrors.BulkItemFailure{
					ID:     other.ID,
					Status: other.Status,
					Result: "unexpected",
					Error:  other.Error,
				})
			}
			continue
		}
		if item.Result == want && (item.Found == nil || *item.Found) {
			res.Succeeded++
			continue
		}
		failed = append(failed, apperrors.BulkItemFailure{
			ID:     item.ID,
			Status: item.Status,
			Result: item.Result,
			Found:  item.Found,
			Error:  item.Error,
		})
	}

	// Items the backend did not report at all count as failed too
	if int64(len(resp.Items)) < res.Requested {
		reported := map[string]bool{}
		for _, entry := range resp.Items {
			if item, ok := entry[action]; ok {
				reported[item.ID] = true
			}
		}
		for _, id := range selected {
			if !reported[id] {
				failed = append(failed, apperrors.BulkItemFailure{ID: id, Result: "missing"})
			}
		}
	}

	if len(failed) > 0 {
		return res, &apperrors.PartialBulkFailure{Op: op, Requested: len(selected), Items: failed}
	}
	return res, nil
}
