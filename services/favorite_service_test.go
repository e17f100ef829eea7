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

	"snapChallengeAPI/internal/challenge"
	"snapChallengeAPI/internal/favorite"
	"snapChallengeAPI/internal/toggle"
)

func expectFavoriteTargetLock(mock pgxmock.PgxPoolIface, table, id string) {
	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM " + table + " WHERE id = $1 FOR UPDATE")).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows([]string{"?column?"}).AddRow(1))
}

func TestToggleFavoriteAddsThenRemoves(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)
	target := favorite.Target{SubmissionID: submissionID}

	expectFavoriteTargetLock(mock, "submissions", submissionID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE user_id = $1 AND submission_id = $2")).
		WithArgs(voterID, submissionID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites (id, user_id, submission_id, created_at)")).
		WithArgs(pgxmock.AnyArg(), voterID, submissionID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	expectFavoriteTargetLock(mock, "submissions", submissionID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE user_id = $1 AND submission_id = $2")).
		WithArgs(voterID, submissionID).
		WillReturnResult(pgxmock.NewResult("DELETE", 1))
	mock.ExpectCommit()

	res, err := svc.ToggleFavorite(context.Background(), voterID, target)
	require.NoError(t, err)
	assert.Equal(t, toggle.Added, res.Action)

	res, err = svc.ToggleFavorite(context.Background(), voterID, target)
	require.NoError(t, err)
	assert.Equal(t, toggle.Removed, res.Action)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavoriteChallengeTarget(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)

	expectFavoriteTargetLock(mock, "challenges", challengeID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites WHERE user_id = $1 AND challenge_id = $2")).
		WithArgs(voterID, challengeID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites (id, user_id, challenge_id, created_at)")).
		WithArgs(pgxmock.AnyArg(), voterID, challengeID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectCommit()

	res, err := svc.ToggleFavorite(context.Background(), voterID, favorite.Target{ChallengeID: challengeID})
	require.NoError(t, err)
	assert.Equal(t, toggle.Added, res.Action)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavoriteConflictRollsBack(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)

	expectFavoriteTargetLock(mock, "submissions", submissionID)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM favorites")).
		WithArgs(voterID, submissionID).
		WillReturnResult(pgxmock.NewResult("DELETE", 0))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs(pgxmock.AnyArg(), voterID, submissionID).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	mock.ExpectRollback()

	_, err := svc.ToggleFavorite(context.Background(), voterID, favorite.Target{SubmissionID: submissionID})
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavoriteRejectsAmbiguousTarget(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)

	for _, target := range []favorite.Target{
		{},
		{SubmissionID: submissionID, ChallengeID: challengeID},
	} {
		_, err := svc.ToggleFavorite(context.Background(), voterID, target)
		assert.ErrorIs(t, err, ErrValidation)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestToggleFavoriteTargetMissing(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM submissions WHERE id = $1 FOR UPDATE")).
		WithArgs(submissionID).
		WillReturnError(pgx.ErrNoRows)
	mock.ExpectRollback()

	_, err := svc.ToggleFavorite(context.Background(), voterID, favorite.Target{SubmissionID: submissionID})
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddFavoriteDuplicateRejectedByIndex(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)
	target := favorite.Target{SubmissionID: submissionID}

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs(pgxmock.AnyArg(), voterID, submissionID).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO favorites")).
		WithArgs(pgxmock.AnyArg(), voterID, submissionID).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "favorites_user_submission_key"})

	require.NoError(t, svc.AddFavorite(context.Background(), voterID, target))
	err := svc.AddFavorite(context.Background(), voterID, target)
	assert.ErrorIs(t, err, ErrConflict)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCountFavorites(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM favorites WHERE challenge_id = $1")).
		WithArgs(challengeID).
		WillReturnRows(pgxmock.NewRows([]string{"count"}).AddRow(3))

	count, err := svc.Count(context.Background(), favorite.Target{ChallengeID: challengeID})
	require.NoError(t, err)
	assert.Equal(t, 3, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListFavoritesPopulatesTargets(t *testing.T) {
	mock := newMock(t)
	svc := NewFavoriteService(mock)
	now := time.Now()
	start, end := now.Add(-time.Hour), now.Add(time.Hour)

	sub, caption, url, kind, title := submissionID, "sunset", "https://cdn/x.jpg", "image", "Golden hour"
	votes := 7
	ch, chTitle, chImage := challengeID, "Night sky", "https://cdn/c.jpg"

	mock.ExpectQuery(regexp.QuoteMeta("FROM favorites f")).
		WithArgs(voterID).
		WillReturnRows(pgxmock.NewRows([]string{
			"id", "created_at",
			"s_id", "caption", "media_url", "media_type", "votes", "s_title",
			"c_id", "title", "image_url", "start_date", "end_date",
		}).
			AddRow("f1", now, &sub, &caption, &url, &kind, &votes, &title,
				(*string)(nil), (*string)(nil), (*string)(nil), (*time.Time)(nil), (*time.Time)(nil)).
			AddRow("f2", now, (*string)(nil), (*string)(nil), (*string)(nil), (*string)(nil), (*int)(nil), (*string)(nil),
				&ch, &chTitle, &chImage, &start, &end))

	favs, err := svc.ListFavorites(context.Background(), voterID)
	require.NoError(t, err)
	require.Len(t, favs, 2)

	assert.Equal(t, favorite.TargetSubmission, favs[0].TargetType)
	require.NotNil(t, favs[0].Submission)
	assert.Equal(t, 7, favs[0].Submission.Votes)
	assert.Equal(t, "Golden hour", favs[0].Submission.ChallengeTitle)
	assert.Nil(t, favs[0].Challenge)

	assert.Equal(t, favorite.TargetChallenge, favs[1].TargetType)
	require.NotNil(t, favs[1].Challenge)
	assert.Equal(t, challenge.StatusActive, favs[1].Challenge.Status)
	assert.Nil(t, favs[1].Submission)

	assert.NoError(t, mock.ExpectationsWereMet())
}
