package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/middleware"
)

const (
	callerID     = "11111111-1111-1111-1111-111111111111"
	otherUserID  = "22222222-2222-2222-2222-222222222222"
	submissionID = "33333333-3333-3333-3333-333333333333"
	challengeID  = "44444444-4444-4444-4444-444444444444"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

type noopTrigger struct{}

func (noopTrigger) Trigger(...string) {}

func newRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func asUser(req *http.Request, userID, role string) *http.Request {
	return req.WithContext(middleware.WithIdentity(req.Context(), user.Identity{UserID: userID, Role: role}))
}

func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}
