// Package badge holds the fixed badge catalogue and the rules that decide
// when a user qualifies for each badge. Only earned badges are stored.
package badge

import "time"

const (
	FirstSubmission = "first-submission"
	ChallengeMaster = "challenge-master"
	TopVoter        = "top-voter"
	CreativeGenius  = "creative-genius"
)

const (
	ChallengeMasterEntries  = 10
	TopVoterVotes           = 50
	CreativeGeniusVoteCount = 100
)

type Badge struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Image       string `json:"image"`
}

// Earned is a badge persisted on a user.
type Earned struct {
	Badge
	DateEarned time.Time `json:"dateEarned"`
}

type WithStatus struct {
	Badge
	Earned     bool       `json:"earned"`
	DateEarned *time.Time `json:"dateEarned,omitempty"`
}

// Snapshot is the aggregate state the rules are evaluated against.
type Snapshot struct {
	ChallengesEntered  int
	VotesCast          int
	MaxSubmissionVotes int
}

type rule struct {
	badge     Badge
	qualifies func(Snapshot) bool
}

var catalogue = []rule{
	{
		badge: Badge{
			ID:          FirstSubmission,
			Name:        "First Submission",
			Description: "Entered your first challenge",
			Image:       "/badges/first-submission.png",
		},
		qualifies: func(s Snapshot) bool { return s.ChallengesEntered > 0 },
	},
	{
		badge: Badge{
			ID:          ChallengeMaster,
			Name:        "Challenge Master",
			Description: "Entered 10 challenges",
			Image:       "/badges/challenge-master.png",
		},
		qualifies: func(s Snapshot) bool { return s.ChallengesEntered >= ChallengeMasterEntries },
	},
	{
		badge: Badge{
			ID:          TopVoter,
			Name:        "Top Voter",
			Description: "Cast 50 votes",
			Image:       "/badges/top-voter.png",
		},
		qualifies: func(s Snapshot) bool { return s.VotesCast >= TopVoterVotes },
	},
	{
		badge: Badge{
			ID:          CreativeGenius,
			Name:        "Creative Genius",
			Description: "Received 100 votes on a single submission",
			Image:       "/badges/creative-genius.png",
		},
		qualifies: func(s Snapshot) bool { return s.MaxSubmissionVotes >= CreativeGeniusVoteCount },
	},
}

// All returns the catalogue in display order.
func All() []Badge {
	out := make([]Badge, len(catalogue))
	for i, r := range catalogue {
		out[i] = r.badge
	}
	return out
}

func Lookup(id string) (Badge, bool) {
	for _, r := range catalogue {
		if r.badge.ID == id {
			return r.badge, true
		}
	}
	return Badge{}, false
}

// Evaluate returns the badges s qualifies for that are not in earned, in
// catalogue order. It never returns a badge already earned.
func Evaluate(s Snapshot, earned map[string]bool) []Badge {
	var awarded []Badge
	for _, r := range catalogue {
		if earned[r.badge.ID] {
			continue
		}
		if r.qualifies(s) {
			awarded = append(awarded, r.badge)
		}
	}
	return awarded
}

// Merge applies the catalogue to the user's earned list and marks status.
func Merge(earned []Earned) []WithStatus {
	byID := make(map[string]time.Time, len(earned))
	for _, e := range earned {
		byID[e.ID] = e.DateEarned
	}

	out := make([]WithStatus, 0, len(catalogue))
	for _, r := range catalogue {
		status := WithStatus{Badge: r.badge}
		if at, ok := byID[r.badge.ID]; ok {
			at := at
			status.Earned = true
			status.DateEarned = &at
		}
		out = append(out, status)
	}
	return out
}
