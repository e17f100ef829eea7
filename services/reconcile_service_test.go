package services

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReconcileReportsFixedRows(t *testing.T) {
	mock := newMock(t)
	svc := NewReconcileService(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions s")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users u")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	report, err := svc.Reconcile(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 2, report.SubmissionsFixed)
	assert.EqualValues(t, 1, report.UsersFixed)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileRollsBackOnFailure(t *testing.T) {
	mock := newMock(t)
	svc := NewReconcileService(mock)

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE submissions s")).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectExec(regexp.QuoteMeta("UPDATE users u")).
		WillReturnError(errors.New("deadlock detected"))
	mock.ExpectRollback()

	_, err := svc.Reconcile(context.Background())
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReconcileOnlyTouchesDriftedRows(t *testing.T) {
	assert.Contains(t, reconcileSubmissionVotes, "s.votes <> c.actual")
	assert.Contains(t, reconcileUserStats, "IS DISTINCT FROM")
	assert.Contains(t, reconcileUserStats, "le.challenge_id IS NULL")
}
