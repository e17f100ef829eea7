package challenge

import "time"

type Status string

const (
	StatusUpcoming Status = "upcoming"
	StatusActive   Status = "active"
	StatusEnded    Status = "ended"
)

type Challenge struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	ImageURL        string    `json:"imageUrl"`
	Rules           string    `json:"rules"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	CreatedBy       *string   `json:"createdBy,omitempty"`
	WinnerID        *string   `json:"winnerId,omitempty"`
	Status          Status    `json:"status"`
	SubmissionCount int       `json:"submissionCount"`
	FavoriteCount   int       `json:"favoriteCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// StatusAt derives the status from the challenge window.
func StatusAt(start, end, now time.Time) Status {
	switch {
	case now.Before(start):
		return StatusUpcoming
	case now.Before(end):
		return StatusActive
	default:
		return StatusEnded
	}
}

type CreateChallengeRequest struct {
	Title       string    `json:"title" validate:"required,min=3,max=120"`
	Description string    `json:"description" validate:"max=5000"`
	Category    string    `json:"category" validate:"max=60"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
	Rules       string    `json:"rules" validate:"max=5000"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtfield=StartDate"`
}

type UpdateChallengeRequest struct {
	Title       *string    `json:"title,omitempty" validate:"omitempty,min=3,max=120"`
	Description *string    `json:"description,omitempty" validate:"omitempty,max=5000"`
	Category    *string    `json:"category,omitempty" validate:"omitempty,max=60"`
	ImageURL    *string    `json:"imageUrl,omitempty" validate:"omitempty,url"`
	Rules       *string    `json:"rules,omitempty" validate:"omitempty,max=5000"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
}

type DeclareWinnerRequest struct {
	UserID string `json:"userId" validate:"required,uuid"`
}

type ListFilter struct {
	Status   Status
	Category string
	Page     int
	Limit    int
}

type Page struct {
	Challenges []*Challenge `json:"challenges"`
	Page       int          `json:"page"`
	Limit      int          `json:"limit"`
	Total      int          `json:"total"`
}
