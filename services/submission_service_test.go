package services

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"snapChallengeAPI/internal/submission"
	"snapChallengeAPI/internal/validation"
)

var fixedNow = time.Date(2026, 6, 15, 12, 0, 0, 0, time.UTC)

func newSubmissionService(mock pgxmock.PgxPoolIface, trigger BadgeTrigger) *SubmissionService {
	svc := NewSubmissionService(mock, trigger)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func validSubmission() *submission.CreateSubmissionRequest {
	return &submission.CreateSubmissionRequest{
		ChallengeID: challengeID,
		MediaURL:    "https://res.cloudinary.com/demo/image/upload/x.jpg",
		MediaType:   "image",
		Caption:     "first light",
	}
}

func expectChallengeWindow(mock pgxmock.PgxPoolIface, start, end time.Time) {
	mock.ExpectQuery(regexp.QuoteMeta("SELECT start_date, end_date FROM challenges WHERE id = $1")).
		WithArgs(challengeID).
		WillReturnRows(pgxmock.NewRows([]string{"start_date", "end_date"}).AddRow(start, end))
}

func TestCreateSubmissionAwardsPointsAndTriggersBadges(t *testing.T) {
	mock := newMock(t)
	trigger := &recordingTrigger{}
	svc := newSubmissionService(mock, trigger)
	ch := challengeID

	mock.ExpectBegin()
	expectChallengeWindow(mock, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs(pgxmock.AnyArg(), challengeID, voterID, pgxmock.AnyArg(), "image", "first light").
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(fixedNow))
	mock.ExpectExec(regexp.QuoteMeta("SET challenges_entered = challenges_entered + 1")).
		WithArgs(voterID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE challenge_id IS NOT NULL")).
		WithArgs(pgxmock.AnyArg(), voterID, challengeID, SubmissionPoints, 0).
		WillReturnRows(pgxmock.NewRows(entryColumns).AddRow("e1", voterID, &ch, 50, 0, fixedNow))
	mock.ExpectQuery(regexp.QuoteMeta("WHERE challenge_id IS NULL")).
		WithArgs(pgxmock.AnyArg(), voterID, SubmissionPoints, 0).
		WillReturnRows(pgxmock.NewRows(entryColumns).AddRow("e2", voterID, (*string)(nil), 50, 0, fixedNow))
	mock.ExpectExec(regexp.QuoteMeta("SET total_points = total_points + $2")).
		WithArgs(voterID, SubmissionPoints, 0).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	sub, err := svc.Create(context.Background(), Actor{UserID: voterID}, validSubmission())
	require.NoError(t, err)
	assert.Equal(t, voterID, sub.UserID)
	assert.Equal(t, fixedNow, sub.CreatedAt)
	assert.Equal(t, [][]string{{voterID}}, trigger.Calls())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionRejectsEndedChallenge(t *testing.T) {
	mock := newMock(t)
	trigger := &recordingTrigger{}
	svc := newSubmissionService(mock, trigger)

	mock.ExpectBegin()
	expectChallengeWindow(mock, fixedNow.Add(-48*time.Hour), fixedNow.Add(-time.Hour))
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), Actor{UserID: voterID}, validSubmission())
	var verr validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "challengeId")
	assert.Empty(t, trigger.Calls())
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionDuplicateIsConflict(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	mock.ExpectBegin()
	expectChallengeWindow(mock, fixedNow.Add(-time.Hour), fixedNow.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO submissions")).
		WithArgs(pgxmock.AnyArg(), challengeID, voterID, pgxmock.AnyArg(), "image", "first light").
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "submissions_challenge_user_key"})
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), Actor{UserID: voterID}, validSubmission())
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionChallengeMissing(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT start_date, end_date FROM challenges")).
		WithArgs(challengeID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.Create(context.Background(), Actor{UserID: voterID}, validSubmission())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCreateSubmissionValidatesRequest(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	req := validSubmission()
	req.MediaType = "audio"
	req.MediaURL = "not a url"

	_, err := svc.Create(context.Background(), Actor{UserID: voterID}, req)
	var verr validation.Errors
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr, "mediaType")
	assert.Contains(t, verr, "mediaUrl")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubmissionRequiresOwner(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM submissions WHERE id = $1 FOR UPDATE")).
		WithArgs(submissionID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(ownerID))
	mock.ExpectRollback()

	err := svc.Delete(context.Background(), Actor{UserID: voterID}, submissionID)
	assert.ErrorIs(t, err, ErrForbidden)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDeleteSubmissionByOwner(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT user_id FROM submissions WHERE id = $1 FOR UPDATE")).
		WithArgs(submissionID).
		WillReturnRows(pgxmock.NewRows([]string{"user_id"}).AddRow(ownerID))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM submissions WHERE id = $1")).
		WithArgs(submissionID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectExec(regexp.QuoteMeta("SET challenges_entered = GREATEST(challenges_entered - 1, 0)")).
		WithArgs(ownerID).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()

	require.NoError(t, svc.Delete(context.Background(), Actor{UserID: ownerID}, submissionID))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubmissionsFiltersAndSorts(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM submissions s WHERE s.challenge_id = $1")).
		WithArgs(challengeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY s.votes DESC, s.created_at ASC")).
		WithArgs(pgxmock.AnyArg(), challengeID, 20, 0).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "challenge_id", "user_id", "username", "display_name", "image_url",
			"media_url", "media_type", "caption", "votes", "comments", "has_voted", "is_favorite", "created_at",
		}).AddRow(submissionID, challengeID, ownerID, "owner", "Owner", "", "https://cdn/x.jpg", "image", "", 9, 2, true, false, fixedNow))

	page, err := svc.List(context.Background(), voterID, submission.ListFilter{ChallengeID: challengeID, Sort: submission.SortTop})
	require.NoError(t, err)
	require.Len(t, page.Submissions, 1)
	sub := page.Submissions[0]
	assert.Equal(t, 9, sub.Votes)
	assert.True(t, sub.HasVoted)
	assert.Equal(t, ownerID, sub.Author.ID)
	assert.Equal(t, 2, sub.CommentCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListSubmissionsRejectsUnknownSort(t *testing.T) {
	mock := newMock(t)
	svc := newSubmissionService(mock, &recordingTrigger{})

	_, err := svc.List(context.Background(), "", submission.ListFilter{Sort: "random"})
	var verr validation.Errors
	assert.ErrorAs(t, err, &verr)
}
