package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/middleware"
	"snapChallengeAPI/services"
)

const (
	requestTimeout = 5 * time.Second
	maxBodyBytes   = 1 << 20
)

func respondWithJSON(w http.ResponseWriter, code int, payload any) {
	response, err := json.Marshal(payload)
	if err != nil {
		logger.Error("Failed to marshal response: %v", err)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte(`{"error":"Internal server error"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

// respondWithServiceError maps service errors onto the HTTP error taxonomy.
// Anything unrecognised is logged and hidden behind a 500.
func respondWithServiceError(w http.ResponseWriter, err error, action string) {
	var fields validation.Errors
	switch {
	case errors.As(err, &fields):
		respondWithJSON(w, http.StatusBadRequest, map[string]any{
			"error":  "validation failed",
			"fields": fields,
		})
	case errors.Is(err, services.ErrValidation):
		respondWithError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, services.ErrUnauthorized):
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
	case errors.Is(err, services.ErrForbidden):
		respondWithError(w, http.StatusForbidden, "You do not have permission to do that")
	case errors.Is(err, services.ErrNotFound):
		respondWithError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, services.ErrConflict):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, services.ErrMediaUnavailable):
		respondWithError(w, http.StatusServiceUnavailable, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		logger.Warn("%s: %v", action, err)
		respondWithError(w, http.StatusGatewayTimeout, "Request timed out")
	default:
		logger.Error("%s: %v", action, err)
		respondWithError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a bounded JSON body into dst and validates it.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	if err := validation.Struct(dst); err != nil {
		respondWithServiceError(w, err, "validate request")
		return false
	}
	return true
}

// actorFrom returns the authenticated caller, writing a 401 when there is none.
func actorFrom(w http.ResponseWriter, ctx context.Context) (services.Actor, bool) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		respondWithError(w, http.StatusUnauthorized, "User not authenticated")
		return services.Actor{}, false
	}
	return services.Actor{UserID: userID, IsAdmin: middleware.IsAdmin(ctx)}, true
}

// pathID reads a uuid path variable. Malformed ids cannot name a row, so
// they are reported as not found.
func pathID(w http.ResponseWriter, r *http.Request, name, what string) (string, bool) {
	raw := mux.Vars(r)[name]
	id, err := uuid.Parse(raw)
	if err != nil {
		respondWithError(w, http.StatusNotFound, what+" not found")
		return "", false
	}
	return id.String(), true
}

// queryID reads an optional uuid query parameter.
func queryID(w http.ResponseWriter, r *http.Request, name string) (string, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return "", true
	}
	if err := validation.Var(name, raw, "uuid"); err != nil {
		respondWithServiceError(w, err, "validate query")
		return "", false
	}
	return raw, true
}
