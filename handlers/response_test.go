package handlers

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/services"
)

func TestRespondWithServiceError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		code    int
		message string
	}{
		{"validation", fmt.Errorf("%w: bad input", services.ErrValidation), http.StatusBadRequest, "validation failed: bad input"},
		{"unauthorized", services.ErrUnauthorized, http.StatusUnauthorized, "User not authenticated"},
		{"forbidden", services.ErrForbidden, http.StatusForbidden, "You do not have permission to do that"},
		{"not found", fmt.Errorf("submission %w", services.ErrNotFound), http.StatusNotFound, "submission not found"},
		{"conflict", fmt.Errorf("%w: already in favorites", services.ErrConflict), http.StatusConflict, "conflict: already in favorites"},
		{"media", services.ErrMediaUnavailable, http.StatusServiceUnavailable, services.ErrMediaUnavailable.Error()},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), http.StatusGatewayTimeout, "Request timed out"},
		{"internal", errors.New("connection reset"), http.StatusInternalServerError, "Internal server error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			respondWithServiceError(rec, tt.err, "test")

			assert.Equal(t, tt.code, rec.Code)
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
			assert.Equal(t, tt.message, decodeResponse(t, rec)["error"])
		})
	}
}

func TestRespondWithServiceErrorFields(t *testing.T) {
	rec := httptest.NewRecorder()
	respondWithServiceError(rec, validation.Errors{"title": "is required"}, "test")

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeResponse(t, rec)
	assert.Equal(t, "validation failed", body["error"])
	assert.Equal(t, map[string]any{"title": "is required"}, body["fields"])
}

func TestDecodeJSONRejectsMalformedBody(t *testing.T) {
	rec := httptest.NewRecorder()
	var dst struct{}
	ok := decodeJSON(rec, newRequest(t, http.MethodPost, "/", "{not json"), &dst)

	assert.False(t, ok)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Invalid request body", decodeResponse(t, rec)["error"])
}

func TestPathIDTreatsMalformedIDAsNotFound(t *testing.T) {
	rec := httptest.NewRecorder()
	req := mux.SetURLVars(newRequest(t, http.MethodGet, "/", nil), map[string]string{"id": "42"})

	_, ok := pathID(rec, req, "id", "challenge")
	assert.False(t, ok)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "challenge not found", decodeResponse(t, rec)["error"])

	rec = httptest.NewRecorder()
	req = mux.SetURLVars(newRequest(t, http.MethodGet, "/", nil), map[string]string{"id": challengeID})
	id, ok := pathID(rec, req, "id", "challenge")
	assert.True(t, ok)
	assert.Equal(t, challengeID, id)
}
