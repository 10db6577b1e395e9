package errors

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InitCore006/SeedSync-sub001/internal/market"
)

func newTestHandler() *ErrorHandler {
	return NewErrorHandler(slog.New(slog.NewTextHandler(io.Discard, nil)), false)
}

func problemFor(t *testing.T, err error) (*httptest.ResponseRecorder, map[string]interface{}) {
	t.Helper()
	h := newTestHandler()
	r := httptest.NewRequest(http.MethodGet, "/api/market/report", nil)
	w := httptest.NewRecorder()

	h.HandleError(w, r, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return w, body
}

func TestHandleErrorInvalidRole(t *testing.T) {
	w, body := problemFor(t, fmt.Errorf("parse: %w", market.ErrInvalidRole))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, TypeInvalidRole, body["type"])
	assert.Equal(t, "Invalid Role", body["title"])
}

func TestHandleErrorInsufficientData(t *testing.T) {
	err := &market.InsufficientDataError{Needed: 30, Got: 7}
	w, body := problemFor(t, err)

	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	assert.Equal(t, TypeInsufficientData, body["type"])
	assert.Contains(t, body["detail"], "30")
}

func TestHandleErrorTimeout(t *testing.T) {
	w, body := problemFor(t, context.DeadlineExceeded)

	assert.Equal(t, http.StatusGatewayTimeout, w.Code)
	assert.Equal(t, TypeTimeout, body["type"])
}

func TestHandleErrorAPIError(t *testing.T) {
	w, body := problemFor(t, SourceError(fmt.Errorf("no csv files in data dir")))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, TypeSourceFailure, body["type"])
	assert.Equal(t, "SOURCE_ERROR", body["error_code"])
}

func TestHandleErrorUnknownError(t *testing.T) {
	w, body := problemFor(t, fmt.Errorf("something odd"))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Equal(t, TypeInternal, body["type"])
	// Internal details never leak into the response.
	assert.NotContains(t, body["detail"], "something odd")
}

func TestProblemDetailsMarshalExtensions(t *testing.T) {
	pd := NewProblemDetails(http.StatusBadRequest, TypeValidation, "Validation Failed", "bad field", "/api/x").
		WithExtension("error_code", "VALIDATION_FAILED")

	data, err := json.Marshal(pd)
	require.NoError(t, err)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &body))
	assert.Equal(t, "VALIDATION_FAILED", body["error_code"])
	assert.Equal(t, float64(http.StatusBadRequest), body["status"])
}
