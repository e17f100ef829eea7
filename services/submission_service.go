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
	"snapChallengeAPI/internal/media"
	"snapChallengeAPI/internal/submission"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/utils"
)

// $1 is always the viewer id, NULL for anonymous reads.
const submissionColumns = `
	s.id, s.challenge_id, s.user_id, u.username, u.display_name, u.image_url,
	s.media_url, s.media_type, s.caption, s.votes,
	(SELECT COUNT(*) FROM comments cm WHERE cm.submission_id = s.id),
	EXISTS(SELECT 1 FROM votes v WHERE v.submission_id = s.id AND v.user_id = $1),
	EXISTS(SELECT 1 FROM favorites f WHERE f.submission_id = s.id AND f.user_id = $1),
	s.created_at
`

type SubmissionService struct {
	db     DB
	badges BadgeTrigger
	now    func() time.Time
}

func NewSubmissionService(db DB, badges BadgeTrigger) *SubmissionService {
	return &SubmissionService{db: db, badges: badges, now: time.Now}
}

func scanSubmission(row pgx.Row) (*submission.Submission, error) {
	sub := &submission.Submission{}
	var mediaType string
	err := row.Scan(
		&sub.ID, &sub.ChallengeID, &sub.UserID, &sub.Author.Username, &sub.Author.DisplayName, &sub.Author.ImageURL,
		&sub.MediaURL, &mediaType, &sub.Caption, &sub.Votes,
		&sub.CommentCount, &sub.HasVoted, &sub.IsFavorite,
		&sub.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	sub.Author.ID = sub.UserID
	sub.MediaType = media.Kind(mediaType)
	return sub, nil
}

// Create enters the actor into an active challenge. The row, the entrant's
// challenges_entered and the submission points commit together.
func (s *SubmissionService) Create(ctx context.Context, actor Actor, req *submission.CreateSubmissionRequest) (*submission.Submission, error) {
	if actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	sub := &submission.Submission{
		ID:          uuid.New().String(),
		ChallengeID: req.ChallengeID,
		UserID:      actor.UserID,
		MediaURL:    req.MediaURL,
		MediaType:   media.Kind(req.MediaType),
		Caption:     req.Caption,
	}
	sub.Author.ID = actor.UserID

	err := withTx(ctx, s.db, func(tx pgx.Tx) error {
		var start, end time.Time
		err := tx.QueryRow(ctx, `SELECT start_date, end_date FROM challenges WHERE id = $1`, req.ChallengeID).Scan(&start, &end)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("challenge")
		}
		if err != nil {
			return fmt.Errorf("failed to load challenge: %w", err)
		}
		if challenge.StatusAt(start, end, s.now()) != challenge.StatusActive {
			return validation.Errors{"challengeId": "challenge is not accepting submissions"}
		}

		err = tx.QueryRow(ctx, `
			INSERT INTO submissions (id, challenge_id, user_id, media_url, media_type, caption, votes, created_at)
			VALUES ($1, $2, $3, $4, $5, $6, 0, NOW())
			RETURNING created_at
		`, sub.ID, sub.ChallengeID, sub.UserID, sub.MediaURL, string(sub.MediaType), sub.Caption).Scan(&sub.CreatedAt)
		if err != nil {
			if isUniqueViolation(err) {
				return conflict("already submitted to this challenge")
			}
			return fmt.Errorf("failed to insert submission: %w", err)
		}

		tag, err := tx.Exec(ctx, `
			UPDATE users SET challenges_entered = challenges_entered + 1, updated_at = NOW()
			WHERE id = $1
		`, actor.UserID)
		if err != nil {
			return fmt.Errorf("failed to update challenges_entered: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return notFound("user")
		}

		_, err = awardPoints(ctx, tx, actor.UserID, req.ChallengeID, SubmissionPoints, 0)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.badges.Trigger(actor.UserID)
	return sub, nil
}

func (s *SubmissionService) Get(ctx context.Context, viewerID, id string) (*submission.Submission, error) {
	row := s.db.QueryRow(ctx, `
		SELECT `+submissionColumns+`
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		WHERE s.id = $2
	`, nullable(viewerID), id)

	sub, err := scanSubmission(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("submission")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	return sub, nil
}

func (s *SubmissionService) List(ctx context.Context, viewerID string, filter submission.ListFilter) (*submission.Page, error) {
	page, limit := utils.Paginate(filter.Page, filter.Limit)

	clause, filterArgs := submissionWhere(filter, 1)
	countClause, _ := submissionWhere(filter, 0)

	order := "s.created_at DESC"
	switch filter.Sort {
	case "", submission.SortRecent:
	case submission.SortTop:
		order = "s.votes DESC, s.created_at ASC"
	default:
		return nil, validation.Errors{"sort": "must be one of: recent, top"}
	}

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM submissions s "+countClause, filterArgs...).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count submissions: %w", err)
	}

	args := append([]any{nullable(viewerID)}, filterArgs...)
	args = append(args, limit, utils.Offset(page, limit))
	query := fmt.Sprintf(`
		SELECT %s
		FROM submissions s
		JOIN users u ON u.id = s.user_id
		%s
		ORDER BY %s
		LIMIT $%d OFFSET $%d
	`, submissionColumns, clause, order, len(args)-1, len(args))

	rows, err := s.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query submissions: %w", err)
	}
	defer rows.Close()

	subs := []*submission.Submission{}
	for rows.Next() {
		sub, err := scanSubmission(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan submission: %w", err)
		}
		subs = append(subs, sub)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate submissions: %w", err)
	}

	return &submission.Page{Submissions: subs, Page: page, Limit: limit, Total: total}, nil
}

// submissionWhere builds the filter clause with placeholders starting after base.
func submissionWhere(filter submission.ListFilter, base int) (string, []any) {
	var (
		where []string
		args  []any
	)
	if filter.ChallengeID != "" {
		args = append(args, filter.ChallengeID)
		where = append(where, fmt.Sprintf("s.challenge_id = $%d", base+len(args)))
	}
	if filter.UserID != "" {
		args = append(args, filter.UserID)
		where = append(where, fmt.Sprintf("s.user_id = $%d", base+len(args)))
	}
	if len(where) == 0 {
		return "", args
	}
	return "WHERE " + strings.Join(where, " AND "), args
}

// Delete removes a submission with its votes, favorites and comments.
// Points already awarded stay; only challenges_entered is decremented.
func (s *SubmissionService) Delete(ctx context.Context, actor Actor, id string) error {
	return withTx(ctx, s.db, func(tx pgx.Tx) error {
		var ownerID string
		err := tx.QueryRow(ctx, `SELECT user_id FROM submissions WHERE id = $1 FOR UPDATE`, id).Scan(&ownerID)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound("submission")
		}
		if err != nil {
			return fmt.Errorf("failed to load submission: %w", err)
		}
		if !actor.CanModify(ownerID) {
			return ErrForbidden
		}

		if _, err := tx.Exec(ctx, `DELETE FROM submissions WHERE id = $1`, id); err != nil {
			return fmt.Errorf("failed to delete submission: %w", err)
		}

		_, err = tx.Exec(ctx, `
			UPDATE users SET challenges_entered = GREATEST(challenges_entered - 1, 0), updated_at = NOW()
			WHERE id = $1
		`, ownerID)
		if err != nil {
			return fmt.Errorf("failed to update challenges_entered: %w", err)
		}
		return nil
	})
}
