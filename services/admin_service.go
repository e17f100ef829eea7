package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/admin"
	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/internal/validation"
	"snapChallengeAPI/utils"
)

// browsable lists the tables the database browser may read, with their sort key.
var browsable = map[string]string{
	"users":               "created_at DESC",
	"user_badges":         "date_earned DESC",
	"challenges":          "start_date DESC",
	"submissions":         "created_at DESC",
	"votes":               "created_at DESC",
	"favorites":           "created_at DESC",
	"comments":            "created_at DESC",
	"follows":             "created_at DESC",
	"leaderboard_entries": "updated_at DESC",
}

var browsableOrder = []string{
	"users", "user_badges", "challenges", "submissions", "votes",
	"favorites", "comments", "follows", "leaderboard_entries",
}

type AdminService struct {
	db DB
}

func NewAdminService(db DB) *AdminService {
	return &AdminService{db: db}
}

func (s *AdminService) Collections(ctx context.Context) ([]admin.Collection, error) {
	collections := make([]admin.Collection, 0, len(browsableOrder))
	for _, name := range browsableOrder {
		var count int
		if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+name).Scan(&count); err != nil {
			return nil, fmt.Errorf("failed to count %s: %w", name, err)
		}
		collections = append(collections, admin.Collection{Name: name, Count: count})
	}
	return collections, nil
}

// Collection returns one page of raw rows from an allow-listed table.
func (s *AdminService) Collection(ctx context.Context, name string, page, limit int) (*admin.CollectionPage, error) {
	order, ok := browsable[name]
	if !ok {
		return nil, notFound("collection")
	}
	page, limit = utils.Paginate(page, limit)

	var total int
	if err := s.db.QueryRow(ctx, "SELECT COUNT(*) FROM "+name).Scan(&total); err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", name, err)
	}

	rows, err := s.db.Query(ctx,
		fmt.Sprintf("SELECT * FROM %s ORDER BY %s LIMIT $1 OFFSET $2", name, order),
		limit, utils.Offset(page, limit))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", name, err)
	}

	records, err := pgx.CollectRows(rows, pgx.RowToMap)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", name, err)
	}
	for _, record := range records {
		normalizeRecord(record)
	}

	return &admin.CollectionPage{Name: name, Rows: records, Page: page, Limit: limit, Total: total}, nil
}

// normalizeRecord turns driver values into JSON friendly ones.
func normalizeRecord(record map[string]any) {
	for k, v := range record {
		switch val := v.(type) {
		case [16]byte:
			record[k] = uuid.UUID(val).String()
		case time.Time:
			record[k] = val.UTC().Format(time.RFC3339)
		}
	}
}

func (s *AdminService) SetUserRole(ctx context.Context, actor Actor, userID string, req *user.UpdateRoleRequest) error {
	if !actor.IsAdmin {
		return ErrForbidden
	}
	if err := validation.Struct(req); err != nil {
		return err
	}
	if actor.UserID == userID && req.Role != user.RoleAdmin {
		return invalid("admins cannot demote themselves")
	}

	var role string
	err := s.db.QueryRow(ctx, `
		UPDATE users SET role = $2, updated_at = NOW()
		WHERE id = $1
		RETURNING role
	`, userID, req.Role).Scan(&role)
	if errors.Is(err, pgx.ErrNoRows) {
		return notFound("user")
	}
	if err != nil {
		return fmt.Errorf("failed to set role: %w", err)
	}
	return nil
}
