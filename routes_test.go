package main

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"regexp"
	"testing"
	"time"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapChallengeAPI/internal/config"
	"snapChallengeAPI/middleware"
)

const (
	testSecret = "routes-test-secret"
	testUserID = "11111111-1111-1111-1111-111111111111"
)

func newTestApp(t *testing.T) (*app, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)

	cfg := &config.Config{
		SessionSecret:  testSecret,
		BadgeWorkers:   1,
		AllowedOrigins: []string{"*"},
	}
	a := newApp(cfg, mock, nil, middleware.NewMemoryLimiterStore(1000, 1000))
	t.Cleanup(a.badges.Stop)
	return a, mock
}

func authorizedRequest(t *testing.T, method, target string) *http.Request {
	t.Helper()
	token, err := middleware.IssueSessionToken(testSecret, testUserID, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(method, target, nil)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func expectResolve(mock pgxmock.PgxPoolIface, role string) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT role FROM users WHERE id = $1")).
		WithArgs(testUserID).
		WillReturnRows(pgxmock.NewRows([]string{"role"}).AddRow(role))
}

func TestHealth(t *testing.T) {
	a, mock := newTestApp(t)
	mock.ExpectPing()

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy","service":"snapchallenge-api"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHealthDatabaseDown(t *testing.T) {
	a, mock := newTestApp(t)
	mock.ExpectPing().WillReturnError(errors.New("connection refused"))

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.JSONEq(t, `{"status":"unhealthy","error":"database connection failed"}`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAPIRequiresToken(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/votes", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminRoutesRequireAdminRole(t *testing.T) {
	a, mock := newTestApp(t)
	expectResolve(mock, "user")

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, authorizedRequest(t, http.MethodGet, "/api/v1/admin/collections"))

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserSearchIsNotTreatedAsAnID(t *testing.T) {
	a, mock := newTestApp(t)
	expectResolve(mock, "user")

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, authorizedRequest(t, http.MethodGet, "/api/v1/users/search?q="))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUploadWithoutMediaHost(t *testing.T) {
	a, mock := newTestApp(t)
	expectResolve(mock, "user")

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, authorizedRequest(t, http.MethodPost, "/api/v1/upload"))

	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestMetricsRequireCredentials(t *testing.T) {
	a, _ := newTestApp(t)

	rec := httptest.NewRecorder()
	a.routes().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
