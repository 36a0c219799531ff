// Package apperrors defines the error taxonomy of backend operations.
// Every error is scoped to the action that raised it; callers match them
// with errors.As and surface them to the user.
package apperrors

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// Re-exported so callers need a single import.
var (
	Is = errors.Is
	As = errors.As
)

// Kind classifies an application error
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindTransport
	KindPartialBulk
	KindSchemaResolution
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindTransport:
		return "transport"
	case KindPartialBulk:
		return "partial bulk failure"
	case KindSchemaResolution:
		return "schema resolution"
	default:
		return "unknown"
	}
}

// KindOf returns the kind of the first application error in err's chain
func KindOf(err error) Kind {
	var v *ValidationError
	var t *TransportError
	var p *PartialBulkFailure
	var s *SchemaResolutionFailure
	switch {
	case err == nil:
		return KindUnknown
	case errors.As(err, &v):
		return KindValidation
	case errors.As(err, &p):
		return KindPartialBulk
	case errors.As(err, &s):
		return KindSchemaResolution
	case errors.As(err, &t):
		return KindTransport
	default:
		return KindUnknown
	}
}

// ValidationError is raised before any network call when the input of an
// operation is unusable: no type selected, malformed filter text, empty
// update body.
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

// NewValidationError creates a validation error for field
func NewValidationError(field, message string, cause error) *ValidationError {
	return &ValidationError{Field: field, Message: message, Cause: cause}
}

func (e *ValidationError) Error() string {
	msg := e.Message
	if e.Field != "" {
		msg = e.Field + ": " + msg
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// TransportError is a failed backend call: a non-success status, an
// unexpected result, or no response at all (StatusCode 0).
type TransportError struct {
	Op         string
	StatusCode int
	Body       string
	Cause      error
}

func (e *TransportError) Error() string {
	switch {
	case e.Cause != nil && e.StatusCode == 0:
		return fmt.Sprintf("%s: %v", e.Op, e.Cause)
	case e.Body != "":
		return fmt.Sprintf("%s: status %d: %s", e.Op, e.StatusCode, e.Body)
	default:
		return fmt.Sprintf("%s: status %d", e.Op, e.StatusCode)
	}
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// BulkItemFailure describes one sub-operation of a bulk request that did
// not reach its expected result.
type BulkItemFailure struct {
	ID     string          `json:"id"`
	Status int             `json:"status"`
	Result string          `json:"result,omitempty"`
	Found  *bool           `json:"found,omitempty"`
	Error  json.RawMessage `json:"error,omitempty"`
}

// PartialBulkFailure is returned when some items of an explicit-selection
// bulk request failed. Items that succeeded stay applied.
type PartialBulkFailure struct {
	Op        string
	Requested int
	Items     []BulkItemFailure
}

func (e *PartialBulkFailure) Error() string {
	ids := make([]string, 0, len(e.Items))
	for _, item := range e.Items {
		ids = append(ids, item.ID)
	}
	return fmt.Sprintf("%s: %d of %d items failed (%s)", e.Op, len(e.Items), e.Requested, strings.Join(ids, ", "))
}

// Diagnostics renders the failed items as indented JSON
func (e *PartialBulkFailure) Diagnostics() string {
	data, err := json.MarshalIndent(e.Items, "", "  ")
	if err != nil {
		return e.Error()
	}
	return string(data)
}

// SchemaResolutionFailure is returned when the mapping or the brief of an
// index could not be fetched. The previously resolved schema stays in place.
type SchemaResolutionFailure struct {
	Index string
	Cause error
}

func (e *SchemaResolutionFailure) Error() string {
	return fmt.Sprintf("resolve schema of %s: %v", e.Index, e.Cause)
}

func (e *SchemaResolutionFailure) Unwrap() error {
	return e.Cause
}
