package submission

import (
	"time"

	"snapChallengeAPI/internal/media"
	"snapChallengeAPI/internal/user"
)

type Submission struct {
	ID           string       `json:"id"`
	ChallengeID  string       `json:"challengeId"`
	UserID       string       `json:"userId"`
	Author       user.Summary `json:"author"`
	MediaURL     string       `json:"mediaUrl"`
	MediaType    media.Kind   `json:"mediaType"`
	Caption      string       `json:"caption"`
	Votes        int          `json:"votes"`
	CommentCount int          `json:"commentCount"`
	HasVoted     bool         `json:"hasVoted"`
	IsFavorite   bool         `json:"isFavorite"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type CreateSubmissionRequest struct {
	ChallengeID string `json:"challengeId" validate:"required,uuid"`
	MediaURL    string `json:"mediaUrl" validate:"required,url"`
	MediaType   string `json:"mediaType" validate:"required,oneof=image video"`
	Caption     string `json:"caption" validate:"max=500"`
}

type Sort string

const (
	SortRecent Sort = "recent"
	SortTop    Sort = "top"
)

type ListFilter struct {
	ChallengeID string
	UserID      string
	Sort        Sort
	Page        int
	Limit       int
}

type Page struct {
	Submissions []*Submission `json:"submissions"`
	Page        int           `json:"page"`
	Limit       int           `json:"limit"`
	Total       int           `json:"total"`
}
