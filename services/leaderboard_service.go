package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/leaderboard"
	"snapChallengeAPI/internal/metrics"
	"snapChallengeAPI/utils"
)

const (
	SubmissionPoints = 50
	WinPoints        = 500
)

const upsertChallengeEntry = `
	INSERT INTO leaderboard_entries (id, user_id, challenge_id, points, wins, updated_at)
	VALUES ($1, $2, $3, $4, $5, NOW())
	ON CONFLICT (user_id, challenge_id) WHERE challenge_id IS NOT NULL
	DO UPDATE SET
		points = leaderboard_entries.points + EXCLUDED.points,
		wins = leaderboard_entries.wins + EXCLUDED.wins,
		updated_at = NOW()
	RETURNING id, user_id, challenge_id, points, wins, updated_at
`

const upsertGlobalEntry = `
	INSERT INTO leaderboard_entries (id, user_id, challenge_id, points, wins, updated_at)
	VALUES ($1, $2, NULL, $3, $4, NOW())
	ON CONFLICT (user_id) WHERE challenge_id IS NULL
	DO UPDATE SET
		points = leaderboard_entries.points + EXCLUDED.points,
		wins = leaderboard_entries.wins + EXCLUDED.wins,
		updated_at = NOW()
	RETURNING id, user_id, challenge_id, points, wins, updated_at
`

const mirrorGlobalEntry = `
	UPDATE users
	SET total_points = total_points + $2,
		challenges_won = challenges_won + $3,
		updated_at = NOW()
	WHERE id = $1
`

type LeaderboardService struct {
	db DB
}

func NewLeaderboardService(db DB) *LeaderboardService {
	return &LeaderboardService{db: db}
}

// RecordPoints adds points and wins to the (user, challenge) entry. A nil
// challengeID targets the global entry, which is mirrored onto the user row.
func (s *LeaderboardService) RecordPoints(ctx context.Context, userID string, challengeID *string, points, wins int) (*leaderboard.Entry, error) {
	var entry *leaderboard.Entry
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		var err error
		entry, err = recordPoints(ctx, tx, userID, challengeID, points, wins)
		return err
	})
	if err != nil {
		return nil, err
	}
	return entry, nil
}

// recordPoints is the single upsert used by every writer. The caller owns the
// transaction when the global mirror must commit together with other writes.
func recordPoints(ctx context.Context, q Querier, userID string, challengeID *string, points, wins int) (*leaderboard.Entry, error) {
	entry := &leaderboard.Entry{}
	var row pgx.Row
	scope := "challenge"
	if challengeID == nil {
		scope = "global"
		row = q.QueryRow(ctx, upsertGlobalEntry, uuid.New().String(), userID, points, wins)
	} else {
		row = q.QueryRow(ctx, upsertChallengeEntry, uuid.New().String(), userID, *challengeID, points, wins)
	}

	err := row.Scan(&entry.ID, &entry.UserID, &entry.ChallengeID, &entry.Points, &entry.Wins, &entry.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert %s leaderboard entry: %w", scope, err)
	}

	if challengeID == nil {
		tag, err := q.Exec(ctx, mirrorGlobalEntry, userID, points, wins)
		if err != nil {
			return nil, fmt.Errorf("failed to mirror points onto user: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return nil, notFound("user")
		}
	}

	metrics.PointsRecorded.WithLabelValues(scope).Add(float64(points))
	return entry, nil
}

// awardPoints records the same delta on the challenge entry and the global entry.
func awardPoints(ctx context.Context, q Querier, userID, challengeID string, points, wins int) (*leaderboard.Entry, error) {
	entry, err := recordPoints(ctx, q, userID, &challengeID, points, wins)
	if err != nil {
		return nil, err
	}
	if _, err := recordPoints(ctx, q, userID, nil, points, wins); err != nil {
		return nil, err
	}
	return entry, nil
}

// List returns one page of a leaderboard; rank is offset + index + 1.
func (s *LeaderboardService) List(ctx context.Context, challengeID *string, page, limit int) (*leaderboard.Page, error) {
	page, limit = utils.Paginate(page, limit)
	offset := utils.Offset(page, limit)

	var total int
	err := s.db.QueryRow(ctx, `
		SELECT COUNT(*) FROM leaderboard_entries
		WHERE challenge_id IS NOT DISTINCT FROM $1
	`, challengeID).Scan(&total)
	if err != nil {
		return nil, fmt.Errorf("failed to count leaderboard entries: %w", err)
	}

	rows, err := s.db.Query(ctx, `
		SELECT le.user_id, u.username, u.image_url, le.points, le.wins
		FROM leaderboard_entries le
		JOIN users u ON u.id = le.user_id
		WHERE le.challenge_id IS NOT DISTINCT FROM $1
		ORDER BY le.points DESC, le.wins DESC, le.updated_at ASC
		LIMIT $2 OFFSET $3
	`, challengeID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboard: %w", err)
	}
	defer rows.Close()

	entries := make([]*leaderboard.Row, 0, limit)
	for rows.Next() {
		r := &leaderboard.Row{Rank: offset + len(entries) + 1}
		if err := rows.Scan(&r.UserID, &r.Username, &r.ImageURL, &r.Points, &r.Wins); err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard row: %w", err)
		}
		entries = append(entries, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate leaderboard: %w", err)
	}

	return &leaderboard.Page{
		ChallengeID: challengeID,
		Entries:     entries,
		Page:        page,
		Limit:       limit,
		Total:       total,
	}, nil
}

// Position returns the user's rank on a leaderboard.
func (s *LeaderboardService) Position(ctx context.Context, userID string, challengeID *string) (*leaderboard.Position, error) {
	pos := &leaderboard.Position{ChallengeID: challengeID}
	err := s.db.QueryRow(ctx, `
		SELECT rank, points, wins FROM (
			SELECT user_id, points, wins,
				ROW_NUMBER() OVER (ORDER BY points DESC, wins DESC, updated_at ASC) AS rank
			FROM leaderboard_entries
			WHERE challenge_id IS NOT DISTINCT FROM $1
		) ranked
		WHERE user_id = $2
	`, challengeID, userID).Scan(&pos.Rank, &pos.Points, &pos.Wins)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("leaderboard entry")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get leaderboard position: %w", err)
	}
	return pos, nil
}
