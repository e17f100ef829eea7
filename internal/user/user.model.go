package user

import (
	"time"

	"snapChallengeAPI/internal/badge"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type Stats struct {
	TotalPoints       int `json:"totalPoints"`
	BadgesCollected   int `json:"badgesCollected"`
	ChallengesEntered int `json:"challengesEntered"`
	ChallengesWon     int `json:"challengesWon"`
}

type User struct {
	ID          string         `json:"id"`
	ClerkID     *string        `json:"clerkId,omitempty"`
	Email       string         `json:"email,omitempty"`
	Username    string         `json:"username"`
	DisplayName string         `json:"displayName"`
	Bio         string         `json:"bio"`
	ImageURL    string         `json:"imageUrl,omitempty"`
	Role        string         `json:"role"`
	Stats       Stats          `json:"stats"`
	Badges      []badge.Earned `json:"badges"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// Summary is the author block embedded in submissions, comments and follow lists.
type Summary struct {
	ID          string `json:"id"`
	Username    string `json:"username"`
	DisplayName string `json:"displayName,omitempty"`
	ImageURL    string `json:"imageUrl,omitempty"`
}

type PublicProfile struct {
	*User
	Followers   int  `json:"followers"`
	Following   int  `json:"following"`
	IsFollowing bool `json:"isFollowing"`
}

// Identity is what the auth layer needs to know about a caller.
type Identity struct {
	UserID string
	Role   string
}
