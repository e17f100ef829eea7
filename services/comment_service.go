package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/comment"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/utils"
)

type CommentService struct {
	db DB
}

func NewCommentService(db DB) *CommentService {
	return &CommentService{db: db}
}

// List returns a submission's comments, oldest first.
func (s *CommentService) List(ctx context.Context, submissionID string, page, limit int) ([]*comment.Comment, error) {
	page, limit = utils.Paginate(page, limit)

	rows, err := s.db.Query(ctx, `
		SELECT c.id, c.submission_id, c.user_id, u.username, u.display_name, u.image_url, c.text, c.created_at
		FROM comments c
		JOIN users u ON u.id = c.user_id
		WHERE c.submission_id = $1
		ORDER BY c.created_at ASC
		LIMIT $2 OFFSET $3
	`, submissionID, limit, utils.Offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query comments: %w", err)
	}
	defer rows.Close()

	comments := []*comment.Comment{}
	for rows.Next() {
		c := &comment.Comment{}
		err := rows.Scan(&c.ID, &c.SubmissionID, &c.Author.ID, &c.Author.Username,
			&c.Author.DisplayName, &c.Author.ImageURL, &c.Text, &c.CreatedAt)
		if err != nil {
			return nil, fmt.Errorf("failed to scan comment: %w", err)
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *CommentService) Create(ctx context.Context, actor Actor, req *comment.CreateCommentRequest) (*comment.Comment, error) {
	if actor.UserID == "" {
		return nil, ErrUnauthorized
	}
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	c := &comment.Comment{
		ID:           uuid.New().String(),
		SubmissionID: req.SubmissionID,
		Text:         req.Text,
	}

	// The insert selects from submissions so a missing submission inserts nothing.
	err := s.db.QueryRow(ctx, `
		WITH inserted AS (
			INSERT INTO comments (id, submission_id, user_id, text, created_at)
			SELECT $1, s.id, $3, $4, NOW() FROM submissions s WHERE s.id = $2
			RETURNING user_id, created_at
		)
		SELECT u.id, u.username, u.display_name, u.image_url, i.created_at
		FROM inserted i
		JOIN users u ON u.id = i.user_id
	`, c.ID, req.SubmissionID, actor.UserID, req.Text).Scan(
		&c.Author.ID, &c.Author.Username, &c.Author.DisplayName, &c.Author.ImageURL, &c.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("submission")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return c, nil
}

// Delete removes a comment. Only its author or an admin may delete it.
func (s *CommentService) Delete(ctx context.Context, actor Actor, id string) error {
	var authorID string
	err := s.db.QueryRow(ctx, `SELECT user_id FROM comments WHERE id = $1`, id).Scan(&authorID)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("comment")
	}
	if err != nil {
		return fmt.Errorf("failed to load comment: %w", err)
	}
	if !actor.CanModify(authorID) {
		return ErrForbidden
	}

	if _, err := s.db.Exec(ctx, `DELETE FROM comments WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete comment: %w", err)
	}
	return nil
}
