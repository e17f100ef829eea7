package services

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/admin"
	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/metrics"
)

// Each statement only touches rows whose cached counters drifted from the facts.
const reconcileSubmissionVotes = `
	UPDATE submissions s
	SET votes = c.actual
	FROM (
		SELECT s2.id, COUNT(v.id)::int AS actual
		FROM submissions s2
		LEFT JOIN votes v ON v.submission_id = s2.id
		GROUP BY s2.id
	) c
	WHERE s.id = c.id AND s.votes <> c.actual
`

const reconcileUserStats = `
	UPDATE users u
	SET challenges_entered = c.entered,
		badges_collected = c.badges,
		total_points = c.points,
		challenges_won = c.wins,
		updated_at = NOW()
	FROM (
		SELECT u2.id,
			(SELECT COUNT(*) FROM submissions s WHERE s.user_id = u2.id)::int AS entered,
			(SELECT COUNT(*) FROM user_badges b WHERE b.user_id = u2.id)::int AS badges,
			COALESCE(le.points, 0) AS points,
			COALESCE(le.wins, 0) AS wins
		FROM users u2
		LEFT JOIN leaderboard_entries le ON le.user_id = u2.id AND le.challenge_id IS NULL
	) c
	WHERE u.id = c.id
		AND (u.challenges_entered, u.badges_collected, u.total_points, u.challenges_won)
			IS DISTINCT FROM (c.entered, c.badges, c.points, c.wins)
`

type ReconcileService struct {
	db DB
}

func NewReconcileService(db DB) *ReconcileService {
	return &ReconcileService{db: db}
}

// Reconcile recomputes every denormalized counter from its fact table.
func (s *ReconcileService) Reconcile(ctx context.Context) (*admin.ReconcileReport, error) {
	start := time.Now()
	report := &admin.ReconcileReport{}

	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, reconcileSubmissionVotes)
		if err != nil {
			return fmt.Errorf("failed to reconcile submission votes: %w", err)
		}
		report.SubmissionsFixed = tag.RowsAffected()

		tag, err = tx.Exec(ctx, reconcileUserStats)
		if err != nil {
			return fmt.Errorf("failed to reconcile user stats: %w", err)
		}
		report.UsersFixed = tag.RowsAffected()
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.ReconcileFixes.WithLabelValues("submissions").Add(float64(report.SubmissionsFixed))
	metrics.ReconcileFixes.WithLabelValues("users").Add(float64(report.UsersFixed))
	logger.Info("Reconcile: fixed %d submissions and %d users in %v",
		report.SubmissionsFixed, report.UsersFixed, time.Since(start))
	return report, nil
}
