package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/challenge"
	"snapChallengeAPI/internal/leaderboard"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/utils"
)

const challengeColumns = `
	c.id, c.title, c.description, c.category, c.image_url, c.rules,
	c.start_date, c.end_date, c.created_by, c.winner_id, c.created_at, c.updated_at,
	(SELECT COUNT(*) FROM submissions s WHERE s.challenge_id = c.id),
	(SELECT COUNT(*) FROM favorites f WHERE f.challenge_id = c.id)
`

type ChallengeService struct {
	db     DB
	badges BadgeTrigger
	now    func() time.Time
}

func NewChallengeService(db DB, badges BadgeTrigger) *ChallengeService {
	return &ChallengeService{db: db, badges: badges, now: time.Now}
}

func (s *ChallengeService) scanChallenge(row pgx.Row) (*challenge.Challenge, error) {
	c := &challenge.Challenge{}
	err := row.Scan(
		&c.ID, &c.Title, &c.Description, &c.Category, &c.ImageURL, &c.Rules,
		&c.StartDate, &c.EndDate, &c.CreatedBy, &c.WinnerID, &c.CreatedAt, &c.UpdatedAt,
		&c.SubmissionCount, &c.FavoriteCount,
	)
	if err != nil {
		return nil, err
	}
	c.Status = challenge.StatusAt(c.StartDate, c.EndDate, s.now())
	return c, nil
}

func (s *ChallengeService) List(ctx context.Context, filter challenge.ListFilter) (*challenge.Page, error) {
	page, limit := utils.Paginate(filter.Page, filter.Limit)

	var (
		where []string
		args  []any
	)
	switch filter.Status {
	case "":
	case challenge.StatusUpcoming:
		where = append(where, "c.start_date > NOW()")
	case challenge.StatusActive:
		where = append(where, "c.start_date <= NOW() AND c.end_date > NOW()")
	case challenge.StatusEnded:
		where = append(where, "c.end_date <= NOW()")
	default:
		return nil, validation.Errors{"status": "must be one of: upcoming, active, ended"}
	}
	if filter.Category != "" {
		args = append(args, filter.Category)
		where = append(where, fmt.Sprintf("c.category = $%d", len(args)))
	}

	clause := ""
	if len(where) > 0 {
		clause = "WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM challenges c "+clause, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count challenges: %w", err)
	}

	args = append(args, limit, utils.Offset(page, limit))
	query := fmt.Sprintf(`SELECT %s FROM challenges c %s ORDER BY c.start_date DESC LIMIT $%d OFFSET $%d`,
		challengeColumns, clause, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges: %w", err)
	}
	defer rows.Close()

	challenges := []*challenge.Challenge{}
	for rows.Next() {
		c, err := s.scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge: %w", err)
		}
		challenges = append(challenges, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate challenges: %w", err)
	}

	return &challenge.Page{Challenges: challenges, Page: page, Limit: limit, Total: total}, nil
}

func (s *ChallengeService) Get(ctx context.Context, id string) (*challenge.Challenge, error) {
	c, err := s.scanChallenge(s.db.QueryRow(ctx, "SELECT "+challengeColumns+" FROM challenges c WHERE c.id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("challenge")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge: %w", err)
	}
	return c, nil
}

func (s *ChallengeService) Create(ctx context.Context, actor Actor, req *challenge.CreateChallengeRequest) (*challenge.Challenge, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	c := &challenge.Challenge{
		ID:          uuid.New().String(),
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		ImageURL:    req.ImageURL,
		Rules:       req.Rules,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
		CreatedBy:   nullable(actor.UserID),
	}

	err := s.db.QueryRow(ctx, `
		INSERT INTO challenges (id, title, description, category, image_url, rules, start_date, end_date, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING created_at, updated_at
	`, c.ID, c.Title, c.Description, c.Category, c.ImageURL, c.Rules, c.StartDate, c.EndDate, c.CreatedBy,
	).Scan(&c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	c.Status = challenge.StatusAt(c.StartDate, c.EndDate, s.now())
	return c, nil
}

// Update applies a partial update. Admins and the creator may update.
func (s *ChallengeService) Update(ctx context.Context, actor Actor, id string, req *challenge.UpdateChallengeRequest) (*challenge.Challenge, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanModify(deref(c.CreatedBy)) {
		return nil, ErrForbidden
	}

	if req.Title != nil {
		c.Title = *req.Title
	}
	if req.Description != nil {
		c.Description = *req.Description
	}
	if req.Category != nil {
		c.Category = *req.Category
	}
	if req.ImageURL != nil {
		c.ImageURL = *req.ImageURL
	}
	if req.Rules != nil {
		c.Rules = *req.Rules
	}
	if req.StartDate != nil {
		c.StartDate = *req.StartDate
	}
	if req.EndDate != nil {
		c.EndDate = *req.EndDate
	}
	if !c.EndDate.After(c.StartDate) {
		return nil, validation.Errors{"endDate": "must be after startDate"}
	}

	err = s.db.QueryRow(ctx, `
		UPDATE challenges
		SET title = $2, description = $3, category = $4, image_url = $5, rules = $6,
			start_date = $7, end_date = $8, updated_at = NOW()
		WHERE id = $1
		RETURNING updated_at
	`, id, c.Title, c.Description, c.Category, c.ImageURL, c.Rules, c.StartDate, c.EndDate).Scan(&c.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("challenge")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update challenge: %w", err)
	}

	c.Status = challenge.StatusAt(c.StartDate, c.EndDate, s.now())
	return c, nil
}

// Delete removes the challenge. Submissions, votes, favorites, comments and
// per-challenge leaderboard entries go with it through ON DELETE CASCADE.
func (s *ChallengeService) Delete(ctx context.Context, actor Actor, id string) error {
	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		var createdBy *string
		err := tx.QueryRow(ctx, `SELECT created_by FROM challenges WHERE id = $1 FOR UPDATE`, id).Scan(&createdBy)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("challenge")
		}
		if err != nil {
			return fmt.Errorf("failed to load challenge: %w", err)
		}
		if !actor.CanModify(deref(createdBy)) {
			return ErrForbidden
		}

		_, err = tx.Exec(ctx, `
			UPDATE users
			SET challenges_entered = GREATEST(challenges_entered - 1, 0), updated_at = NOW()
			WHERE id IN (SELECT user_id FROM submissions WHERE challenge_id = $1)
		`, id)
		if err != nil {
			return fmt.Errorf("failed to update entrant stats: %w", err)
		}

		if _, err := tx.Exec(ctx, `DELETE FROM challenges WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete challenge: %w", err)
		}
		return nil
	})
}

// DeclareWinner records the win on the challenge and global leaderboards.
// The challenge must have ended and the winner must have entered it.
func (s *ChallengeService) DeclareWinner(ctx context.Context, actor Actor, challengeID string, req *challenge.DeclareWinnerRequest) (*leaderboard.Entry, error) {
	if !actor.IsAdmin {
		return nil, ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	var entry *leaderboard.Entry
	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		var (
			endDate  time.Time
			winnerID *string
		)
		err := tx.QueryRow(ctx, `SELECT end_date, winner_id FROM challenges WHERE id = $1 FOR UPDATE`, challengeID).
			Scan(&endDate, &winnerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("challenge")
		}
		if err != nil {
			return fmt.Errorf("failed to load challenge: %w", err)
		}
		if winnerID != nil {
			return conflict("challenge already has a winner")
		}
		if s.now().Before(endDate) {
			return invalid("challenge has not ended")
		}

		var entered bool
		err = tx.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM submissions WHERE challenge_id = $1 AND user_id = $2)
		`, challengeID, req.UserID).Scan(&entered)
		if err != nil {
			return fmt.Errorf("failed to check submission: %w", err)
		}
		if !entered {
			return validation.Errors{"userId": "has no submission in this challenge"}
		}

		_, err = tx.Exec(ctx, `UPDATE challenges SET winner_id = $2, updated_at = NOW() WHERE id = $1`, challengeID, req.UserID)
		if err != nil {
			return fmt.Errorf("failed to set winner: %w", err)
		}

		entry, err = awardPoints(ctx, tx, req.UserID, challengeID, WinPoints, 1)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.badges.Trigger(req.UserID)
	return entry, nil
}
