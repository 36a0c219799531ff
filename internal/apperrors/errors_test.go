package apperrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Kind
	}{
		{"nil", nil, KindUnknown},
		{"plain", errors.New("boom"), KindUnknown},
		{"validation", NewValidationError("filter", "invalid JSON", nil), KindValidation},
		{"wrapped transport", fmt.Errorf("refresh: %w", &TransportError{Op: "search", StatusCode: 500}), KindTransport},
		{"partial", &PartialBulkFailure{Op: "bulk delete"}, KindPartialBulk},
		{"schema wrapping transport", &SchemaResolutionFailure{Index: "idx", Cause: &TransportError{Op: "get mapping", StatusCode: 404}}, KindSchemaResolution},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, KindOf(tt.err))
		})
	}
}

func TestSchemaResolutionFailureUnwrapsCause(t *testing.T) {
	cause := &TransportError{Op: "get mapping", StatusCode: 404, Body: `{"error":"index_not_found_exception"}`}
	err := error(&SchemaResolutionFailure{Index: "idx", Cause: cause})

	var te *TransportError
	require.True(t, As(err, &te))
	assert.Equal(t, 404, te.StatusCode)
	assert.Contains(t, err.Error(), "idx")
}

func TestTransportErrorMessage(t *testing.T) {
	assert.Equal(t, "update: status 409: conflict", (&TransportError{Op: "update", StatusCode: 409, Body: "conflict"}).Error())
	assert.Equal(t, "search: dial tcp: refused", (&TransportError{Op: "search", Cause: errors.New("dial tcp: refused")}).Error())
}

func TestPartialBulkFailureDiagnostics(t *testing.T) {
	found := false
	err := &PartialBulkFailure{
		Op:        "bulk delete",
		Requested: 2,
		Items:     []BulkItemFailure{{ID: "b", Status: 404, Result: "not_found", Found: &found}},
	}

	assert.Equal(t, "bulk delete: 1 of 2 items failed (b)", err.Error())
	assert.Contains(t, err.Diagnostics(), `"id": "b"`)
	assert.Contains(t, err.Diagnostics(), `"found": false`)
}
