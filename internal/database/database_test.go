package database

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSchemaDeclaresUniqueness(t *testing.T) {
	ddl := Schema()

	for _, constraint := range []string{
		"submissions_challenge_user_key UNIQUE (challenge_id, user_id)",
		"votes_submission_user_key UNIQUE (submission_id, user_id)",
		"favorites_user_submission_key",
		"favorites_user_challenge_key",
		"favorites_single_target_check",
		"leaderboard_user_challenge_key",
		"leaderboard_user_global_key",
		"PRIMARY KEY (user_id, badge_id)",
	} {
		assert.Contains(t, ddl, constraint)
	}
}

func TestSchemaIsRerunnable(t *testing.T) {
	for _, line := range strings.Split(Schema(), "\n") {
		line = strings.TrimSpace(line)
		if strings.HasPrefix(line, "CREATE ") {
			assert.Contains(t, line, "IF NOT EXISTS", line)
		}
	}
}
