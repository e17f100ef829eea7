package leaderboard

import "time"

// Entry is the per-(user, challenge) aggregate. ChallengeID nil is the global board.
type Entry struct {
	ID          string    `json:"id"`
	UserID      string    `json:"userId"`
	ChallengeID *string   `json:"challengeId"`
	Points      int       `json:"points"`
	Wins        int       `json:"wins"`
	UpdatedAt   time.Time `json:"updatedAt"`
}

type Row struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"userId"`
	Username string `json:"username"`
	ImageURL string `json:"imageUrl,omitempty"`
	Points   int    `json:"points"`
	Wins     int    `json:"wins"`
}

type Page struct {
	ChallengeID *string `json:"challengeId"`
	Entries     []*Row  `json:"entries"`
	Page        int     `json:"page"`
	Limit       int     `json:"limit"`
	Total       int     `json:"total"`
}

type Position struct {
	ChallengeID *string `json:"challengeId"`
	Rank        int     `json:"rank"`
	Points      int     `json:"points"`
	Wins        int     `json:"wins"`
}
