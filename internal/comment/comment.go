package comment

import (
	"time"

	"snapChallengeAPI/internal/user"
)

type Comment struct {
	ID           string       `json:"id"`
	SubmissionID string       `json:"submissionId"`
	Author       user.Summary `json:"author"`
	Text         string       `json:"text"`
	CreatedAt    time.Time    `json:"createdAt"`
}

type CreateCommentRequest struct {
	SubmissionID string `json:"submissionId" validate:"required,uuid"`
	Text         string `json:"text" validate:"required,min=1,max=1000"`
}
