package services

import (
	"sync"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) pgxmock.PgxPoolIface {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	t.Cleanup(mock.Close)
	return mock
}

type recordingTrigger struct {
	mu    sync.Mutex
	calls [][]string
}

func (r *recordingTrigger) Trigger(userIDs ...string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, userIDs)
}

func (r *recordingTrigger) Calls() [][]string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([][]string(nil), r.calls...)
}
