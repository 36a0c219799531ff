package metadata

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/sirupsen/logrus"
	"github.com/sourcegraph/conc/pool"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/es/connection"
	"github.com/rebeliceyang/lazyes/internal/logging"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// Source is the part of the client the resolver needs
type Source interface {
	GetMapping(ctx context.Context, index string) (connection.MappingResponse, error)
	CatIndices(ctx context.Context, names ...string) ([]connection.CatIndexRow, error)
}

var _ Source = (*connection.Client)(nil)

// Resolver loads the schema catalog and brief of an index
type Resolver struct {
	source Source
	logger logrus.FieldLogger
}

// NewResolver creates a schema resolver
func NewResolver(source Source, logger logrus.FieldLogger) *Resolver {
	return &Resolver{source: source, logger: logging.OrDiscard(logger)}
}

// Resolve fetches the mapping and the brief of index concurrently and
// returns once both are in. Either failure fails the whole resolution.
func (r *Resolver) Resolve(ctx context.Context, index string) (*models.IndexSchema, error) {
	var (
		mapping connection.MappingResponse
		rows    []connection.CatIndexRow
	)

	p := pool.New().WithContext(ctx).WithCancelOnError().WithFirstError()
	p.Go(func(ctx context.Context) error {
		var err error
		mapping, err = r.source.GetMapping(ctx, index)
		return err
	})
	p.Go(func(ctx context.Context) error {
		var err error
		rows, err = r.source.CatIndices(ctx, index)
		return err
	})
	if err := p.Wait(); err != nil {
		r.logger.WithError(err).WithField("index", index).Warn("schema resolution failed")
		return nil, &apperrors.SchemaResolutionFailure{Index: index, Cause: err}
	}

	catalog, err := ParseMapping(mapping, index)
	if err != nil {
		return nil, &apperrors.SchemaResolutionFailure{Index: index, Cause: err}
	}

	brief, err := pickBrief(rows, index)
	if err != nil {
		return nil, &apperrors.SchemaResolutionFailure{Index: index, Cause: err}
	}

	r.logger.WithFields(logrus.Fields{
		"index": index,
		"types": len(catalog.Types),
	}).Debug("schema resolved")

	return &models.IndexSchema{Index: index, Catalog: catalog, Brief: brief}, nil
}

// pickBrief finds the row for index. When the index was addressed through
// an alias the single returned row is the concrete index.
func pickBrief(rows []connection.CatIndexRow, index string) (models.IndexBrief, error) {
	for _, row := range rows {
		if row.Index == index {
			return row.Brief(), nil
		}
	}
	if len(rows) == 1 {
		return rows[0].Brief(), nil
	}
	return models.IndexBrief{}, fmt.Errorf("index %s not found in _cat/indices", index)
}

// ParseMapping builds the catalog from a mapping response. Types keep the
// order of the response, and so do their top-level properties; nested
// properties are not expanded.
func ParseMapping(resp connection.MappingResponse, index string) (models.SchemaCatalog, error) {
	entry, ok := resp[index]
	if !ok {
		if len(resp) != 1 {
			return models.SchemaCatalog{}, fmt.Errorf("mapping of %s not found", index)
		}
		for _, only := range resp {
			entry = only
		}
	}

	raw := bytes.TrimSpace(entry.Mappings)
	if len(raw) == 0 || string(raw) == "null" {
		return models.SchemaCatalog{}, nil
	}

	top, err := orderedObject(raw)
	if err != nil {
		return models.SchemaCatalog{}, fmt.Errorf("failed to parse mappings: %w", err)
	}

	// A top-level properties key means the mapping has no type level
	for _, field := range top {
		if field.key == "properties" {
			fields, err := orderedKeys(field.value)
			if err != nil {
				return models.SchemaCatalog{}, fmt.Errorf("failed to parse properties: %w", err)
			}
			return models.SchemaCatalog{
				Types:    []models.DocType{{Name: models.TypelessType, Fields: fields}},
				Typeless: true,
			}, nil
		}
	}

	// Only mapping params, e.g. {"dynamic": "strict"} or {"_meta": {...}}:
	// a typeless mapping without properties
	if len(top) > 0 && onlyParams(top) {
		return models.SchemaCatalog{
			Types:    []models.DocType{{Name: models.TypelessType, Fields: []string{}}},
			Typeless: true,
		}, nil
	}

	catalog := models.SchemaCatalog{Types: make([]models.DocType, 0, len(top))}
	for _, typ := range top {
		if isMappingParam(typ) {
			continue
		}
		body, err := orderedObject(typ.value)
		if err != nil {
			return models.SchemaCatalog{}, fmt.Errorf("failed to parse type %s: %w", typ.key, err)
		}
		docType := models.DocType{Name: typ.key, Fields: []string{}}
		for _, field := range body {
			if field.key != "properties" {
				continue
			}
			docType.Fields, err = orderedKeys(field.value)
			if err != nil {
				return models.SchemaCatalog{}, fmt.Errorf("failed to parse properties of %s: %w", typ.key, err)
			}
		}
		catalog.Types = append(catalog.Types, docType)
	}
	return catalog, nil
}

type member struct {
	key   string
	value json.RawMessage
}

// isMappingParam reports whether a top-level mapping member is a setting
// rather than a document type. _default_ is a template, not a type.
func isMappingParam(m member) bool {
	if !isObject(m.value) {
		return true
	}
	return len(m.key) > 0 && m.key[0] == '_' && m.key != models.TypelessType
}

func onlyParams(members []member) bool {
	for _, m := range members {
		if !isMappingParam(m) {
			return false
		}
	}
	return true
}

func isObject(raw json.RawMessage) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) > 0 && raw[0] == '{'
}

// orderedObject decodes a JSON object keeping member order
func orderedObject(raw json.RawMessage) ([]member, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}

	var members []member
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := tok.(string)
		if !ok {
			return nil, fmt.Errorf("expected object key, got %v", tok)
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return nil, err
		}
		members = append(members, member{key: key, value: value})
	}
	if _, err := dec.Token(); err != nil && err != io.EOF {
		return nil, err
	}
	return members, nil
}

func orderedKeys(raw json.RawMessage) ([]string, error) {
	members, err := orderedObject(raw)
	if err != nil {
		return nil, err
	}
	keys := make([]string, 0, len(members))
	for _, m := range members {
		keys = append(keys, m.key)
	}
	return keys, nil
}
