// Package testutil provides helpers for tests that talk to a real Postgres.
// They skip unless TEST_DATABASE_URL is set.
package testutil

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"snapChallengeAPI/internal/database"
)

// SetupTestDB connects to TEST_DATABASE_URL, applies the schema and empties
// every table. The pool is closed when the test ends.
func SetupTestDB(t *testing.T) *pgxpool.Pool {
	t.Helper()

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set, skipping integration test")
	}

	ctx := context.Background()
	pool, err := database.Connect(ctx, dbURL, database.PoolOptions{MaxConns: 5})
	if err != nil {
		t.Fatalf("Failed to connect to test database: %v", err)
	}
	t.Cleanup(pool.Close)

	if err := database.Migrate(ctx, pool); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}
	Truncate(t, pool)
	return pool
}

// Truncate removes all rows; users cascade to everything else.
func Truncate(t *testing.T, pool *pgxpool.Pool) {
	t.Helper()
	_, err := pool.Exec(context.Background(), `TRUNCATE users, challenges, leaderboard_entries CASCADE`)
	if err != nil {
		t.Fatalf("Failed to truncate test tables: %v", err)
	}
}

// CreateUser inserts a user with the given role and returns its id.
func CreateUser(t *testing.T, pool *pgxpool.Pool, username, role string) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO users (id, email, username, role)
		VALUES ($1, $2, $3, $4)
	`, id, fmt.Sprintf("%s@example.com", username), username, role)
	if err != nil {
		t.Fatalf("Failed to create user %s: %v", username, err)
	}
	return id
}

// CreateChallenge inserts a challenge running from start to end and returns its id.
func CreateChallenge(t *testing.T, pool *pgxpool.Pool, title string, start, end time.Time) string {
	t.Helper()
	id := uuid.New().String()
	_, err := pool.Exec(context.Background(), `
		INSERT INTO challenges (id, title, start_date, end_date)
		VALUES ($1, $2, $3, $4)
	`, id, title, start, end)
	if err != nil {
		t.Fatalf("Failed to create challenge %s: %v", title, err)
	}
	return id
}

// ActiveChallenge creates a challenge that started an hour ago and ends tomorrow.
func ActiveChallenge(t *testing.T, pool *pgxpool.Pool, title string) string {
	t.Helper()
	now := time.Now()
	return CreateChallenge(t, pool, title, now.Add(-time.Hour), now.Add(24*time.Hour))
}

// CountRows returns SELECT COUNT(*) for a query fragment such as "votes WHERE user_id = $1".
func CountRows(t *testing.T, pool *pgxpool.Pool, from string, args ...any) int {
	t.Helper()
	var n int
	if err := pool.QueryRow(context.Background(), "SELECT COUNT(*) FROM "+from, args...).Scan(&n); err != nil {
		t.Fatalf("Failed to count %s: %v", from, err)
	}
	return n
}
