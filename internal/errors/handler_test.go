package errors

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestHandler(buf *bytes.Buffer) *ErrorHandler {
	logger := slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return NewErrorHandler(logger, false)
}

func TestErrorHandler_HandleError_StatusMapping(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"no revenue", NewNoRevenueError(2), http.StatusUnprocessableEntity, TypeNoRevenue},
		{"schema", NewSchemaError("products", "Price"), http.StatusServiceUnavailable, TypeSchema},
		{"input not found", NewInputNotFoundError("sales.csv", nil), http.StatusServiceUnavailable, TypeInputNotFound},
		{"validation", NewAppValidationError("bad limit"), http.StatusBadRequest, TypeValidation},
		{"not found", NewNotFoundError("run"), http.StatusNotFound, TypeNotFound},
		{"storage", NewStorageError("write", nil), http.StatusInternalServerError, TypeStorage},
		{"api error", ErrRunInProgress, http.StatusConflict, TypeConflict},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, TypeTimeout},
		{"unknown", fmt.Errorf("boom"), http.StatusInternalServerError, TypeInternal},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var logs bytes.Buffer
			h := newTestHandler(&logs)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/classification", nil)
			rec := httptest.NewRecorder()
			h.HandleError(rec, req, tt.err)

			assert.Equal(t, tt.wantStatus, rec.Code)

			var body map[string]interface{}
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
			assert.Equal(t, tt.wantType, body["type"])
			assert.Equal(t, float64(tt.wantStatus), body["status"])
			assert.Equal(t, "/api/v1/classification", body["instance"])
			assert.Contains(t, logs.String(), "request failed")
		})
	}
}

func TestErrorHandler_InternalErrorsHideDetail(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	problem := h.ErrorToProblem(NewStorageError("open /secret/path", nil), req)
	assert.NotContains(t, problem.Detail, "/secret/path")
	assert.NotContains(t, problem.Extensions, "context")
}

func TestErrorHandler_SchemaErrorCarriesContext(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	req := httptest.NewRequest(http.MethodGet, "/x", nil)

	problem := h.ErrorToProblem(NewSchemaError("categories", "CategoryName"), req)
	ctx, ok := problem.Extensions["context"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "categories", ctx["table"])
	assert.Equal(t, "CategoryName", ctx["column"])
}

func TestErrorHandler_NilErrorWritesNothing(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})
	rec := httptest.NewRecorder()
	h.HandleError(rec, httptest.NewRequest(http.MethodGet, "/", nil), nil)
	assert.Equal(t, 0, rec.Body.Len())
}

func TestErrorHandler_RecoveryMiddleware(t *testing.T) {
	var logs bytes.Buffer
	h := newTestHandler(&logs)

	panicky := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("kaboom")
	})

	rec := httptest.NewRecorder()
	h.RecoveryMiddleware(panicky).ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Contains(t, logs.String(), "panic recovered")
}

func TestErrorHandler_NotFoundAndMethodNotAllowed(t *testing.T) {
	h := newTestHandler(&bytes.Buffer{})

	rec := httptest.NewRecorder()
	h.NotFound(rec, httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = httptest.NewRecorder()
	h.MethodNotAllowed(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/run", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Contains(t, rec.Body.String(), "DELETE")
}

func TestProblemDetails_MarshalJSON_FlattensExtensions(t *testing.T) {
	p := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Bad Request", "limit must be positive", "/api/v1/normalized").
		WithExtension("error_code", "VALIDATION")

	data, err := json.Marshal(p)
	require.NoError(t, err)

	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &out))
	assert.Equal(t, "VALIDATION", out["error_code"])
	assert.Equal(t, "limit must be positive", out["detail"])
	assert.NotContains(t, out, "Extensions")
}
