package vote

import "time"

// Vote is the fact record "user voted on submission".
type Vote struct {
	ID           string    `json:"id"`
	SubmissionID string    `json:"submissionId"`
	UserID       string    `json:"userId"`
	CreatedAt    time.Time `json:"createdAt"`
}

type ToggleVoteRequest struct {
	SubmissionID string `json:"submissionId" validate:"required,uuid"`
}
