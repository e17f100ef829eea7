package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"snapChallengeAPI/internal/challenge"
	"snapChallengeAPI/internal/favorite"
	"snapChallengeAPI/internal/media"
	"snapChallengeAPI/internal/metrics"
	"snapChallengeAPI/internal/toggle"
	"snapChallengeAPI/internal/validation"
)

type favoriteTarget struct {
	table  string
	column string
}

var favoriteTargets = map[favorite.TargetType]favoriteTarget{
	favorite.TargetSubmission: {table: "submissions", column: "submission_id"},
	favorite.TargetChallenge:  {table: "challenges", column: "challenge_id"},
}

type FavoriteService struct {
	db DB
}

func NewFavoriteService(db DB) *FavoriteService {
	return &FavoriteService{db: db}
}

func (s *FavoriteService) resolve(t favorite.Target) (favorite.TargetType, favoriteTarget, error) {
	typ, ok := t.Type()
	if !ok {
		return "", favoriteTarget{}, invalid("exactly one of submissionId or challengeId is required")
	}
	if err := validation.Struct(t); err != nil {
		return "", favoriteTarget{}, err
	}
	return typ, favoriteTargets[typ], nil
}

// ToggleFavorite removes the favorite when it exists and adds it otherwise.
// The target row is locked so concurrent toggles by the same user run one
// after the other. There is no counter; counts are computed when read.
func (s *FavoriteService) ToggleFavorite(ctx context.Context, userID string, t favorite.Target) (*toggle.Result, error) {
	if userID == "" {
		return nil, ErrUnauthorized
	}
	typ, target, err := s.resolve(t)
	if err != nil {
		return nil, err
	}

	action := toggle.Removed
	err = withTx(ctx, s.db, func(tx pgx.Tx) error {
		var locked int
		err := tx.QueryRow(ctx, fmt.Sprintf(`SELECT 1 FROM %s WHERE id = $1 FOR UPDATE`, target.table), t.ID()).Scan(&locked)
		if errors.Is(err, pgx.ErrNoRows) {
			return notFound(string(typ))
		}
		if err != nil {
			return fmt.Errorf("failed to lock favorite target: %w", err)
		}

		tag, err := tx.Exec(ctx,
			fmt.Sprintf(`DELETE FROM favorites WHERE user_id = $1 AND %s = $2`, target.column),
			userID, t.ID())
		if err != nil {
			return fmt.Errorf("failed to delete favorite: %w", err)
		}
		if tag.RowsAffected() > 0 {
			return nil
		}

		action = toggle.Added
		return insertFavorite(ctx, tx, userID, target, t.ID())
	})
	if err != nil {
		return nil, err
	}

	metrics.FavoritesToggled.WithLabelValues(string(typ), string(action)).Inc()
	return &toggle.Result{Action: action}, nil
}

// AddFavorite inserts a favorite row. A second row for the same user and
// target is rejected by the partial unique index and reported as ErrConflict.
func (s *FavoriteService) AddFavorite(ctx context.Context, userID string, t favorite.Target) error {
	_, target, err := s.resolve(t)
	if err != nil {
		return err
	}
	return insertFavorite(ctx, s.db, userID, target, t.ID())
}

func insertFavorite(ctx context.Context, q Querier, userID string, target favoriteTarget, targetID string) error {
	_, err := q.Exec(ctx,
		fmt.Sprintf(`INSERT INTO favorites (id, user_id, %s, created_at) VALUES ($1, $2, $3, NOW())`, target.column),
		uuid.New().String(), userID, targetID)
	if err != nil {
		if isUniqueViolation(err) {
			return conflict("already in favorites")
		}
		return fmt.Errorf("failed to insert favorite: %w", err)
	}
	return nil
}

// Count returns the number of users who favorited the target.
func (s *FavoriteService) Count(ctx context.Context, t favorite.Target) (int, error) {
	_, target, err := s.resolve(t)
	if err != nil {
		return 0, err
	}

	var count int
	err = s.db.QueryRow(ctx,
		fmt.Sprintf(`SELECT COUNT(*) FROM favorites WHERE %s = $1`, target.column),
		t.ID()).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count favorites: %w", err)
	}
	return count, nil
}

// ListFavorites returns the user's favorites with their targets embedded, newest first.
func (s *FavoriteService) ListFavorites(ctx context.Context, userID string) ([]*favorite.Populated, error) {
	rows, err := s.db.Query(ctx, `
		SELECT f.id, f.created_at,
			s.id, s.caption, s.media_url, s.media_type, s.votes, sc.title,
			c.id, c.title, c.image_url, c.start_date, c.end_date
		FROM favorites f
		LEFT JOIN submissions s ON s.id = f.submission_id
		LEFT JOIN challenges sc ON sc.id = s.challenge_id
		LEFT JOIN challenges c ON c.id = f.challenge_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query favorites: %w", err)
	}
	defer rows.Close()

	now := time.Now()
	favorites := []*favorite.Populated{}
	for rows.Next() {
		var (
			fav                                             favorite.Populated
			subID, caption, mediaURL, mediaType, chTitleSub *string
			votes                                           *int
			chID, chTitle, chImage                          *string
			chStart, chEnd                                  *time.Time
		)
		err := rows.Scan(
			&fav.ID, &fav.CreatedAt,
			&subID, &caption, &mediaURL, &mediaType, &votes, &chTitleSub,
			&chID, &chTitle, &chImage, &chStart, &chEnd,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan favorite: %w", err)
		}

		switch {
		case subID != nil:
			fav.TargetType = favorite.TargetSubmission
			fav.Submission = &favorite.SubmissionRef{
				ID:             *subID,
				Caption:        deref(caption),
				MediaURL:       deref(mediaURL),
				MediaType:      media.Kind(deref(mediaType)),
				ChallengeTitle: deref(chTitleSub),
			}
			if votes != nil {
				fav.Submission.Votes = *votes
			}
		case chID != nil:
			fav.TargetType = favorite.TargetChallenge
			fav.Challenge = &favorite.ChallengeRef{
				ID:       *chID,
				Title:    deref(chTitle),
				ImageURL: deref(chImage),
			}
			if chStart != nil && chEnd != nil {
				fav.Challenge.Status = challenge.StatusAt(*chStart, *chEnd, now)
			}
		}
		favorites = append(favorites, &fav)
	}
	return favorites, rows.Err()
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
