package favorite

import (
	"time"

	"snapChallengeAPI/internal/challenge"
	"snapChallengeAPI/internal/media"
)

type TargetType string

const (
	TargetSubmission TargetType = "submission"
	TargetChallenge  TargetType = "challenge"
)

// Target names exactly one favorited entity.
type Target struct {
	SubmissionID string `json:"submissionId,omitempty" validate:"omitempty,uuid"`
	ChallengeID  string `json:"challengeId,omitempty" validate:"omitempty,uuid"`
}

// Type reports the target type, or false unless exactly one id is set.
func (t Target) Type() (TargetType, bool) {
	switch {
	case t.SubmissionID != "" && t.ChallengeID == "":
		return TargetSubmission, true
	case t.ChallengeID != "" && t.SubmissionID == "":
		return TargetChallenge, true
	default:
		return "", false
	}
}

func (t Target) ID() string {
	if t.SubmissionID != "" {
		return t.SubmissionID
	}
	return t.ChallengeID
}

type Favorite struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	SubmissionID *string   `json:"submissionId,omitempty"`
	ChallengeID  *string   `json:"challengeId,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
}

type SubmissionRef struct {
	ID             string     `json:"id"`
	Caption        string     `json:"caption"`
	MediaURL       string     `json:"mediaUrl"`
	MediaType      media.Kind `json:"mediaType"`
	Votes          int        `json:"votes"`
	ChallengeTitle string     `json:"challengeTitle"`
}

type ChallengeRef struct {
	ID       string           `json:"id"`
	Title    string           `json:"title"`
	ImageURL string           `json:"imageUrl"`
	Status   challenge.Status `json:"status"`
}

// Populated is a favorite with its target embedded.
type Populated struct {
	ID         string         `json:"id"`
	TargetType TargetType     `json:"targetType"`
	Submission *SubmissionRef `json:"submission,omitempty"`
	Challenge  *ChallengeRef  `json:"challenge,omitempty"`
	CreatedAt  time.Time      `json:"createdAt"`
}
