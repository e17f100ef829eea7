package handlers

import (
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"

	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/services"
)

func TestToggleFavoriteRejectsTwoTargets(t *testing.T) {
	mock := newMock(t)
	h := NewFavoriteHandler(services.NewFavoriteService(mock))

	rec := httptest.NewRecorder()
	req := asUser(newRequest(t, http.MethodPost, "/favorites", map[string]string{
		"submissionId": submissionID,
		"challengeId":  challengeID,
	}), callerID, user.RoleUser)
	h.ToggleFavorite(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "validation failed: exactly one of submissionId or challengeId is required", decodeResponse(t, rec)["error"])
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFavorites(t *testing.T) {
	mock := newMock(t)
	h := NewFavoriteHandler(services.NewFavoriteService(mock))

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM favorites WHERE challenge_id = $1")).
		WithArgs(challengeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	rec := httptest.NewRecorder()
	h.CountFavorites(rec, newRequest(t, http.MethodGet, "/favorites/count?challengeId="+challengeID, nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"count":3}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}
