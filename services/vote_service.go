package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/metrics"
	"snapChallengeAPI/internal/toggle"
	"snapChallengeAPI/internal/vote"
)

type VoteResult struct {
	toggle.Result
	Votes int `json:"votes"`
}

type VoteService struct {
	db     DB
	badges BadgeTrigger
}

func NewVoteService(db DB, badges BadgeTrigger) *VoteService {
	return &VoteService{db: db, badges: badges}
}

// ToggleVote adds the caller's vote when absent and removes it when present.
// The vote row and submissions.votes change in one transaction.
func (s *VoteService) ToggleVote(ctx context.Context, userID, submissionID string) (*VoteResult, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}

	var ownerID string
	result := &VoteResult{}
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		err := tx.QueryRow(ctx, `SELECT user_id FROM submissions WHERE id = $1 FOR UPDATE`, submissionID).Scan(&ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("submission")
		}
		if err != nil {
			return fmt.Errorf("failed to lock submission: %w", err)
		}

		tag, err := tx.Exec(ctx, `DELETE FROM votes WHERE submission_id = $1 AND user_id = $2`, submissionID, userID)
		if err != nil {
			return fmt.Errorf("failed to delete vote: %w", err)
		}

		if tag.RowsAffected() > 0 {
			result.Action = toggle.Removed
			err = tx.QueryRow(ctx, `
				UPDATE submissions SET votes = GREATEST(votes - 1, 0)
				WHERE id = $1
				RETURNING votes
			`, submissionID).Scan(&result.Votes)
			if err != nil {
				return fmt.Errorf("failed to decrement votes: %w", err)
			}
			return nil
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO votes (id, submission_id, user_id, created_at)
			VALUES ($1, $2, $3, NOW())
		`, uuid.New().String(), submissionID, userID)
		if err != nil {
			if isUniqueViolation(err) {
				return conflict("vote already recorded")
			}
			return fmt.Errorf("failed to insert vote: %w", err)
		}

		result.Action = toggle.Added
		err = tx.QueryRow(ctx, `
			UPDATE submissions SET votes = votes + 1
			WHERE id = $1
			RETURNING votes
		`, submissionID).Scan(&result.Votes)
		if err != nil {
			return fmt.Errorf("failed to increment votes: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	metrics.VotesToggled.WithLabelValues(string(result.Action)).Inc()
	if result.Action == toggle.Added {
		s.badges.Trigger(userID, ownerID)
	}
	return result, nil
}

// ListVotes returns the caller's votes, newest first.
func (s *VoteService) ListVotes(ctx context.Context, userID string) ([]*vote.Vote, error) {
	rows, err := s.db.Query(ctx, `
		SELECT id, submission_id, user_id, created_at
		FROM votes
		WHERE user_id = $1
		ORDER BY created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query votes: %w", err)
	}
	defer rows.Close()

	votes := []*vote.Vote{}
	for rows.Next() {
		v := &vote.Vote{}
		if err := rows.Scan(&v.ID, &v.SubmissionID, &v.UserID, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan vote: %w", err)
		}
		votes = append(votes, v)
	}
	return votes, rows.Err()
}
