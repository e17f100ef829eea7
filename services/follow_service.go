package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/follow"
	"snapChallengeAPI/internal/metrics"
	"snapChallengeAPI/internal/toggle"
	"snapChallengeAPI/internal/user"
)

type FollowService struct {
	db DB
}

func NewFollowService(db DB) *FollowService {
	return &FollowService{db: db}
}

// Toggle follows followeeID when not followed yet and unfollows otherwise.
func (s *FollowService) Toggle(ctx context.Context, followerID, followeeID string) (*toggle.Result, error) {
	if followerID == "" {
		return nil, ErrUnauthorized
	}
	if followerID == followeeID {
		return nil, invalid("cannot follow yourself")
	}

	action := toggle.Removed
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		var locked int
		err := tx.QueryRow(ctx, `SELECT 1 FROM users WHERE id = $1 FOR UPDATE`, followeeID).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("user")
		}
		if err != nil {
			return fmt.Errorf("failed to lock user: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM follows WHERE follower_id = $1 AND followee_id = $2`, followerID, followeeID)
		if err != nil {
			return fmt.Errorf("failed to unfollow: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO follows (follower_id, followee_id, created_at)
			VALUES ($1, $2, NOW())
		`, followerID, followeeID)
		if err != nil {
			if isUniqueViolation(err) {
				return conflict("already following")
			}
			return fmt.Errorf("failed to follow: %w", err)
		}
		action = toggle.Added
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.FollowsToggled.WithLabelValues(string(action)).Inc()
	return &toggle.Result{Action: action}, nil
}

// List returns the followers of userID, or the users userID follows.
func (s *FollowService) List(ctx context.Context, userID string, listType follow.ListType) ([]user.Summary, error) {
	var query string
	switch listType {
	case follow.Followers, "":
		query = `
			SELECT u.id, u.username, u.display_name, u.image_url
			FROM follows f
			JOIN users u ON u.id = f.follower_id
			WHERE f.followee_id = $1
			ORDER BY f.created_at DESC
		`
	case follow.Following:
		query = `
			SELECT u.id, u.username, u.display_name, u.image_url
			FROM follows f
			JOIN users u ON u.id = f.followee_id
			WHERE f.follower_id = $1
			ORDER BY f.created_at DESC
		`
	default:
		return nil, invalid("type must be followers or following")
	}

	rows, err := s.db.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query follows: %w", err)
	}
	defer rows.Close()

	users := []user.Summary{}
	for rows.Next() {
		var u user.Summary
		if err := rows.Scan(&u.ID, &u.Username, &u.DisplayName, &u.ImageURL); err != nil {
			return nil, fmt.Errorf("failed to scan user: %w", err)
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

func (s *FollowService) Counts(ctx context.Context, userID string) (*follow.Counts, error) {
	return followCounts(ctx, s.db, userID)
}

func followCounts(ctx context.Context, q Querier, userID string) (*follow.Counts, error) {
	counts := &follow.Counts{}
	err := q.QueryRow(ctx, `
		SELECT
			(SELECT COUNT(*) FROM follows WHERE followee_id = $1),
			(SELECT COUNT(*) FROM follows WHERE follower_id = $1)
	`, userID).Scan(&counts.Followers, &counts.Following)
	if err != nil {
		return nil, fmt.Errorf("failed to count follows: %w", err)
	}
	return counts, nil
}
