package services

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/logger"
	"snapChallengeAPI/internal/user"
	"snapChallengeAPI/internal/validation"
)

const userColumns = `
	id, clerk_id, email, username, display_name, bio, image_url, role,
	total_points, badges_collected, challenges_entered, challenges_won,
	created_at, updated_at
`

const searchLimit = 20

type UserService struct {
	db DB
}

func NewUserService(db DB) *UserService {
	return &UserService{db: db}
}

func scanUser(row pgx.Row) (*user.User, error) {
	u := &user.User{}
	err := row.Scan(
		&u.ID,
		&u.ClerkID,
		&u.Email,
		&u.Username,
		&u.DisplayName,
		&u.Bio,
		&u.ImageURL,
		&u.Role,
		&u.Stats.TotalPoints,
		&u.Stats.BadgesCollected,
		&u.Stats.ChallengesEntered,
		&u.Stats.ChallengesWon,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// GetByID returns the user with stats and badges.
func (s *UserService) GetByID(ctx context.Context, id string) (*user.User, error) {
	u, err := scanUser(s.db.QueryRow(ctx, "SELECT "+userColumns+" FROM users WHERE id = $1", id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}

	u.Badges, err = loadBadges(ctx, s.db, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// PublicProfile is GetByID without private fields, plus follow counts.
func (s *UserService) PublicProfile(ctx context.Context, viewerID, id string) (*user.PublicProfile, error) {
	u, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	u.Email = ""
	u.ClerkID = nil

	counts, err := followCounts(ctx, s.db, id)
	if err != nil {
		return nil, err
	}

	profile := &user.PublicProfile{User: u, Followers: counts.Followers, Following: counts.Following}
	if viewerID != "" && viewerID != id {
		err = s.db.QueryRow(ctx, `
			SELECT EXISTS(SELECT 1 FROM follows WHERE follower_id = $1 AND followee_id = $2)
		`, viewerID, id).Scan(&profile.IsFollowing)
		if err != nil {
			return nil, fmt.Errorf("failed to check follow: %w", err)
		}
	}
	return profile, nil
}

func (s *UserService) UpdateProfile(ctx context.Context, userID string, req *user.UpdateProfileRequest) (*user.User, error) {
	if err := validation.Struct(req); err != nil {
		return nil, err
	}

	u, err := scanUser(s.db.QueryRow(ctx, `
		UPDATE users
		SET
			username = COALESCE($2, username),
			display_name = COALESCE($3, display_name),
			bio = COALESCE($4, bio),
			image_url = COALESCE($5, image_url),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+userColumns,
		userID, req.Username, req.DisplayName, req.Bio, req.ImageURL,
	))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, notFound("user")
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("username is already taken")
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	u.Badges, err = loadBadges(ctx, s.db, u.ID)
	if err != nil {
		return nil, err
	}
	return u, nil
}

// Search matches a username or display name prefix, case-insensitively.
func (s *UserService) Search(ctx context.Context, query string) ([]user.Summary, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []user.Summary{}, nil
	}

	pattern := escapeLike(strings.ToLower(query)) + "%"
	rows, err := s.db.Query(ctx, `
		SELECT id, username, display_name, image_url
		FROM users
		WHERE LOWER(username) LIKE $1 OR LOWER(display_name) LIKE $1
		ORDER BY username ASC
		LIMIT $2
	`, pattern, searchLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
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

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ResolveClerkUser maps a verified Clerk subject to the local user.
func (s *UserService) ResolveClerkUser(ctx context.Context, clerkID string) (user.Identity, error) {
	var id user.Identity
	err := s.db.QueryRow(ctx, `SELECT id, role FROM users WHERE clerk_id = $1`, clerkID).Scan(&id.UserID, &id.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return id, notFound("user")
	}
	if err != nil {
		return id, fmt.Errorf("failed to resolve clerk user: %w", err)
	}
	return id, nil
}

// ResolveUser loads the current role of a session token subject.
func (s *UserService) ResolveUser(ctx context.Context, userID string) (user.Identity, error) {
	id := user.Identity{UserID: userID}
	err := s.db.QueryRow(ctx, `SELECT role FROM users WHERE id = $1`, userID).Scan(&id.Role)
	if errors.Is(err, pgx.ErrNoRows) {
		return id, notFound("user")
	}
	if err != nil {
		return id, fmt.Errorf("failed to resolve user: %w", err)
	}
	return id, nil
}

// UpsertFromClerk creates or refreshes the local copy of a Clerk user.
// Stats, role and bio are never touched by the sync.
func (s *UserService) UpsertFromClerk(ctx context.Context, data *user.ClerkUserData) (*user.User, error) {
	if data.ID == "" {
		return nil, invalid("clerk user id is required")
	}

	email := data.PrimaryEmail()
	username := data.Username
	if username == "" {
		username = defaultUsername(email, data.ID)
	}
	displayName := strings.TrimSpace(data.FirstName + " " + data.LastName)

	// A derived username only names new rows; it never replaces one the
	// user picked through the profile endpoint.
	u, err := scanUser(s.db.QueryRow(ctx, `
		INSERT INTO users (id, clerk_id, email, username, display_name, image_url, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, NOW(), NOW())
		ON CONFLICT (clerk_id) DO UPDATE SET
			email = EXCLUDED.email,
			username = CASE WHEN $7 THEN EXCLUDED.username ELSE users.username END,
			display_name = EXCLUDED.display_name,
			image_url = EXCLUDED.image_url,
			updated_at = NOW()
		RETURNING `+userColumns,
		uuid.New().String(), data.ID, email, username, displayName, data.ImageURL, data.Username != "",
	))
	if err != nil {
		if isUniqueViolation(err) {
			return nil, conflict("username is already taken")
		}
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}

	logger.Info("UserService: synced clerk user %s as %s", data.ID, u.ID)
	return u, nil
}

func (s *UserService) DeleteByClerkID(ctx context.Context, clerkID string) error {
	result, err := s.db.Exec(ctx, `DELETE FROM users WHERE clerk_id = $1`, clerkID)
	if err != nil {
		return fmt.Errorf("failed to delete user: %w", err)
	}
	if result.RowsAffected() == 0 {
		return notFound("user")
	}
	return nil
}

func defaultUsername(email, clerkID string) string {
	if local, _, ok := strings.Cut(email, "@"); ok && local != "" {
		var b strings.Builder
		for _, r := range local {
			if r < 128 && (r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9') {
				b.WriteRune(r)
			}
		}
		if b.Len() >= 3 {
			return b.String()
		}
	}
	id := strings.TrimPrefix(clerkID, "user_")
	if len(id) > 8 {
		id = id[:8]
	}
	return "user" + id
}
