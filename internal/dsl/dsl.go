// Package dsl handles query DSL text: parsing user-entered filters and
// document bodies, pretty-printing, and building bool queries from
// structured conditions.
package dsl

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/rebeliceyang/lazyes/internal/apperrors"
	"github.com/rebeliceyang/lazyes/internal/models"
)

// MatchAll is the query used when no filter applies
func MatchAll() map[string]any {
	return map[string]any{"match_all": map[string]any{}}
}

// Parse parses filter text into a query clause. The text must be a single
// JSON object; anything else is a validation error.
func Parse(text string) (map[string]any, error) {
	obj, err := decodeObject(text)
	if err != nil {
		return nil, apperrors.NewValidationError("filter", "invalid query DSL", err)
	}
	return obj, nil
}

// ParseDocument parses a partial document used as an update body
func ParseDocument(text string) (models.Document, error) {
	obj, err := decodeObject(text)
	if err != nil {
		return nil, apperrors.NewValidationError("document", "invalid JSON document", err)
	}
	if len(obj) == 0 {
		return nil, apperrors.NewValidationError("document", "update body is empty", nil)
	}
	return models.Document(obj), nil
}

func decodeObject(text string) (map[string]any, error) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, errors.New("empty input")
	}

	dec := json.NewDecoder(strings.NewReader(trimmed))
	dec.UseNumber()

	var value any
	if err := dec.Decode(&value); err != nil {
		return nil, err
	}
	if _, err := dec.Token(); err != io.EOF {
		return nil, errors.New("unexpected data after JSON value")
	}

	obj, ok := value.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("expected a JSON object, got %s", kindOf(value))
	}
	return obj, nil
}

func kindOf(v any) string {
	switch v.(type) {
	case nil:
		return "null"
	case []any:
		return "an array"
	case string:
		return "a string"
	case bool:
		return "a boolean"
	case json.Number:
		return "a number"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// Format pretty-prints a value. Strings and byte slices are treated as JSON text.
func Format(value any) (string, error) {
	return render(value, true)
}

// Compact renders a value as single-line JSON
func Compact(value any) (string, error) {
	return render(value, false)
}

func render(value any, indent bool) (string, error) {
	if value == nil {
		return "null", nil
	}

	var raw []byte
	switch v := value.(type) {
	case string:
		raw = []byte(v)
	case []byte:
		raw = v
	default:
		data, err := json.Marshal(v)
		if err != nil {
			return "", fmt.Errorf("failed to format: %w", err)
		}
		raw = data
	}

	var buf bytes.Buffer
	var err error
	if indent {
		err = json.Indent(&buf, raw, "", "  ")
	} else {
		err = json.Compact(&buf, raw)
	}
	if err != nil {
		return "", fmt.Errorf("invalid JSON: %w", err)
	}
	return buf.String(), nil
}

// Truncate shortens a single-line rendering for table cells
func Truncate(s string, maxLen int) string {
	if maxLen <= 0 || len([]rune(s)) <= maxLen {
		return s
	}
	r := []rune(s)
	if maxLen <= 3 {
		return string(r[:maxLen])
	}
	return string(r[:maxLen-3]) + "..."
}

// CellText renders a document value for a table cell
func CellText(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case map[string]any, []any:
		s, err := Compact(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return s
	default:
		return fmt.Sprintf("%v", v)
	}
}
