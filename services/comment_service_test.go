package services

import (
	"context"
	"regexp"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapChallengeAPI/internal/comment"
)

func TestCreateComment(t *testing.T) {
	mock := newMock(t)
	svc := NewCommentService(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs(pgxmock.AnyArg(), submissionID, voterID, "nice shot").
		WillReturnRows(pgxmock.NewRows([]string{"id", "username", "display_name", "image_url", "created_at"}).
			AddRow(voterID, "voter", "Voter", "", fixedNow))

	c, err := svc.Create(context.Background(), Actor{UserID: voterID}, &comment.CreateCommentRequest{
		SubmissionID: submissionID,
		Text:         "nice shot",
	})
	require.NoError(t, err)
	assert.Equal(t, "voter", c.Author.Username)
	assert.Equal(t, fixedNow, c.CreatedAt)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateCommentOnMissingSubmission(t *testing.T) {
	mock := newMock(t)
	svc := NewCommentService(mock)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO comments")).
		WithArgs(pgxmock.AnyArg(), submissionID, voterID, "hello").
		WillReturnError(pgx.ErrNoRows)

	_, err := svc.Create(context.Background(), Actor{UserID: voterID}, &comment.CreateCommentRequest{
		SubmissionID: submissionID,
		Text:         "hello",
	})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteCommentPermissions(t *testing.T) {
	mock := newMock(t)
	svc := NewCommentService(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM comments WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(ownerID))
	assert.ErrorIs(t, svc.Delete(context.Background(), Actor{UserID: voterID}, "c1"), ErrForbidden)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM comments WHERE id = $1")).
		WithArgs("c1").
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(ownerID))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM comments WHERE id = $1")).
		WithArgs("c1").
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	assert.NoError(t, svc.Delete(context.Background(), Actor{UserID: voterID, IsAdmin: true}, "c1"))

	assert.NoError(t, mock.ExpectationsWereMet())
}
