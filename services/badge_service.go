package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/badge"
	"snapChallengeAPI/internal/metrics"
)

// BadgeTrigger schedules badge evaluation without waiting for it.
type BadgeTrigger interface {
	Trigger(userIDs ...string)
}

type BadgeService struct {
	db DB
}

func NewBadgeService(db DB) *BadgeService {
	return &BadgeService{db: db}
}

// EvaluateBadges awards every badge the user newly qualifies for. Calling it
// again with unchanged stats awards nothing. Badges are never removed.
func (s *BadgeService) EvaluateBadges(ctx context.Context, userID string) ([]badge.Badge, error) {
	snap, err := s.snapshot(ctx, userID)
	if err != nil {
		return nil, err
	}

	earned, err := s.earnedIDs(ctx, userID)
	if err != nil {
		return nil, err
	}

	candidates := badge.Evaluate(*snap, earned)
	if len(candidates) == 0 {
		return nil, nil
	}

	now := time.Now().UTC()
	var awarded []badge.Badge
	err = withTx(ctx, s.db, func(tx pgx.Tx) error {
		for _, b := range candidates {
			tag, err := tx.Exec(ctx, `
				INSERT INTO user_badges (user_id, badge_id, name, description, image, date_earned)
				VALUES ($1, $2, $3, $4, $5, $6)
				ON CONFLICT (user_id, badge_id) DO NOTHING
			`, userID, b.ID, b.Name, b.Description, b.Image, now)
			if err != nil {
				return fmt.Errorf("failed to insert badge %s: %w", b.ID, err)
			}
			// A concurrent evaluation may have won the insert.
			if tag.RowsAffected() > 0 {
				awarded = append(awarded, b)
			}
		}

		if len(awarded) == 0 {
			return nil
		}

		_, err := tx.Exec(ctx, `
			UPDATE users
			SET badges_collected = badges_collected + $2, updated_at = NOW()
			WHERE id = $1
		`, userID, len(awarded))
		if err != nil {
			return fmt.Errorf("failed to update badges_collected: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, b := range awarded {
		metrics.BadgesAwarded.WithLabelValues(b.ID).Inc()
	}
	return awarded, nil
}

func (s *BadgeService) snapshot(ctx context.Context, userID string) (*badge.Snapshot, error) {
	snap := &badge.Snapshot{}
	err := s.db.QueryRow(ctx, `
		SELECT u.challenges_entered,
			(SELECT COUNT(*) FROM votes v WHERE v.user_id = u.id),
			COALESCE((SELECT MAX(s.votes) FROM submissions s WHERE s.user_id = u.id), 0)
		FROM users u
		WHERE u.id = $1
	`, userID).Scan(&snap.ChallengesEntered, &snap.VotesCast, &snap.MaxSubmissionVotes)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load badge stats: %w", err)
	}
	return snap, nil
}

func (s *BadgeService) earnedIDs(ctx context.Context, userID string) (map[string]bool, error) {
	rows, err := s.db.Query(ctx, `SELECT badge_id FROM user_badges WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to load earned badges: %w", err)
	}
	defer rows.Close()

	earned := make(map[string]bool)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan badge id: %w", err)
		}
		earned[id] = true
	}
	return earned, rows.Err()
}

// Earned lists the user's badges, oldest first.
func (s *BadgeService) Earned(ctx context.Context, userID string) ([]badge.Earned, error) {
	return loadBadges(ctx, s.db, userID)
}

// Catalogue returns every badge with the user's earned status.
func (s *BadgeService) Catalogue(ctx context.Context, userID string) ([]badge.WithStatus, error) {
	earned, err := loadBadges(ctx, s.db, userID)
	if err != nil {
		return nil, err
	}
	return badge.Merge(earned), nil
}

func loadBadges(ctx context.Context, q Querier, userID string) ([]badge.Earned, error) {
	rows, err := q.Query(ctx, `
		SELECT badge_id, name, description, image, date_earned
		FROM user_badges
		WHERE user_id = $1
		ORDER BY date_earned ASC, badge_id ASC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query badges: %w", err)
	}
	defer rows.Close()

	badges := []badge.Earned{}
	for rows.Next() {
		var e badge.Earned
		if err := rows.Scan(&e.ID, &e.Name, &e.Description, &e.Image, &e.DateEarned); err != nil {
			return nil, fmt.Errorf("failed to scan badge: %w", err)
		}
		badges = append(badges, e)
	}
	return badges, rows.Err()
}
