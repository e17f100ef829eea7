// Package metrics holds the domain counters exported on /metrics.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	VotesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "votes_toggled_total",
			Help: "Vote toggles by resulting action",
		},
		[]string{"action"},
	)
	FavoritesToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "favorites_toggled_total",
			Help: "Favorite toggles by target type and resulting action",
		},
		[]string{"target", "action"},
	)
	FollowsToggled = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "follows_toggled_total",
			Help: "Follow toggles by resulting action",
		},
		[]string{"action"},
	)
	BadgesAwarded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_awarded_total",
			Help: "Badges granted by the badge engine",
		},
		[]string{"badge"},
	)
	BadgeEvaluationFailures = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "badge_evaluation_failures_total",
			Help: "Badge evaluations that returned an error",
		},
	)
	BadgeJobsDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "badge_jobs_dropped_total",
			Help: "Badge evaluation jobs dropped because the queue was full or stopped",
		},
	)
	PointsRecorded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_points_recorded_total",
			Help: "Points added to leaderboard entries",
		},
		[]string{"scope"},
	)
	ReconcileFixes = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reconcile_rows_fixed_total",
			Help: "Rows whose denormalized counters were repaired",
		},
		[]string{"table"},
	)
	MediaUploads = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "media_uploads_total",
			Help: "Media uploads forwarded to the media host",
		},
		[]string{"media_type", "status"},
	)
)

// Register adds the domain collectors to reg.
func Register(reg prometheus.Registerer) {
	reg.MustRegister(
		VotesToggled,
		FavoritesToggled,
		FollowsToggled,
		BadgesAwarded,
		BadgeEvaluationFailures,
		BadgeJobsDropped,
		PointsRecorded,
		ReconcileFixes,
		MediaUploads,
	)
}
