package handlers

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"

	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/services"
)

func newChallengeHandler(t *testing.T) *ChallengeHandler {
	return NewChallengeHandler(services.NewChallengeService(newMock(t), noopTrigger{}))
}

func TestCreateChallengeRequiresAdmin(t *testing.T) {
	h := newChallengeHandler(t)
	start := time.Now().Add(time.Hour).UTC()

	rec := httptest.NewRecorder()
	req := asUser(newRequest(t, http.MethodPost, "/challenges", map[string]any{
		"title":     "Sunset",
		"startDate": start,
		"endDate":   start.Add(24 * time.Hour),
	}), callerID, user.RoleUser)
	h.CreateChallenge(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestCreateChallengeReportsFieldErrors(t *testing.T) {
	h := newChallengeHandler(t)
	start := time.Now().UTC()

	rec := httptest.NewRecorder()
	req := asUser(newRequest(t, http.MethodPost, "/challenges", map[string]any{
		"title":     "ab",
		"startDate": start,
		"endDate":   start.Add(-time.Hour),
	}), callerID, user.RoleAdmin)
	h.CreateChallenge(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeResponse(t, rec)["fields"].(map[string]any)
	assert.Equal(t, "must be at least 3 characters", fields["title"])
	assert.Equal(t, "must be after startDate", fields["endDate"])
}

func TestGetChallengeMalformedID(t *testing.T) {
	h := newChallengeHandler(t)

	rec := httptest.NewRecorder()
	req := mux.SetURLVars(newRequest(t, http.MethodGet, "/challenges/x", nil), map[string]string{"id": "x"})
	h.GetChallenge(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestListChallengesRejectsUnknownStatus(t *testing.T) {
	h := newChallengeHandler(t)

	rec := httptest.NewRecorder()
	h.ListChallenges(rec, newRequest(t, http.MethodGet, "/challenges?status=paused", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	fields := decodeResponse(t, rec)["fields"].(map[string]any)
	assert.Contains(t, fields, "status")
}
