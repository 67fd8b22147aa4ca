// Package metrics provides Prometheus exporters for application metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Prometheus metrics for the classroom gamification service.
var (
	// Counters.
	ScoresAppliedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "scores_applied_total",
			Help: "Total number of score operations applied",
		},
		[]string{"classroom", "type"},
	)

	XPGrantedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "xp_granted_total",
			Help: "Total XP granted to students, including badge bonuses",
		},
		[]string{"classroom"},
	)

	BadgesUnlockedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "badges_unlocked_total",
			Help: "Total number of badges unlocked",
		},
		[]string{"badge_id"},
	)

	LevelUpsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "level_ups_total",
			Help: "Total number of level-up events",
		},
		[]string{"classroom"},
	)

	AttendanceCheckInsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_check_ins_total",
			Help: "Total attendance check-ins recorded",
		},
		[]string{"classroom", "status"},
	)

	AttendanceRevocationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "attendance_revocations_total",
			Help: "Total attendance revocations",
		},
		[]string{"classroom"},
	)

	UndoOperationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "undo_operations_total",
			Help: "Total undo operations by history record type",
		},
		[]string{"type"},
	)

	RewardRedemptionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "reward_redemptions_total",
			Help: "Total reward redemptions",
		},
		[]string{"classroom"},
	)

	LeaderboardCacheTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "leaderboard_cache_total",
			Help: "Leaderboard cache lookups by outcome",
		},
		[]string{"outcome"},
	)

	// Gauges.
	StudentsTracked = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "students_tracked",
			Help: "Current number of students with gamification state",
		},
		[]string{"classroom"},
	)

	RecomputeLastRunTimestamp = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "streak_recompute_last_run_timestamp",
			Help: "Unix timestamp of the last streak recompute",
		},
	)

	// Histograms.
	RecomputeDurationSeconds = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "streak_recompute_duration_seconds",
			Help:    "Time taken to recompute streaks for a classroom",
			Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
		},
	)

	RecomputeRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "streak_recompute_runs_total",
			Help: "Total streak recompute executions",
		},
		[]string{"status"},
	)
)

// RecordScoreApplied records an applied score operation.
func RecordScoreApplied(classroom, opType string) {
	ScoresAppliedTotal.WithLabelValues(classroom, opType).Inc()
}

// RecordXPGranted records XP granted to a student.
func RecordXPGranted(classroom string, xp int) {
	XPGrantedTotal.WithLabelValues(classroom).Add(float64(xp))
}

// RecordBadgeUnlocked records a badge unlock event.
func RecordBadgeUnlocked(badgeID string) {
	BadgesUnlockedTotal.WithLabelValues(badgeID).Inc()
}

// RecordLevelUp records a level-up event.
func RecordLevelUp(classroom string) {
	LevelUpsTotal.WithLabelValues(classroom).Inc()
}

// RecordAttendanceCheckIn records an attendance check-in.
func RecordAttendanceCheckIn(classroom, status string) {
	AttendanceCheckInsTotal.WithLabelValues(classroom, status).Inc()
}

// RecordAttendanceRevocation records an attendance revocation.
func RecordAttendanceRevocation(classroom string) {
	AttendanceRevocationsTotal.WithLabelValues(classroom).Inc()
}

// RecordUndo records an undo operation.
func RecordUndo(recordType string) {
	UndoOperationsTotal.WithLabelValues(recordType).Inc()
}

// RecordRewardRedemption records a reward redemption.
func RecordRewardRedemption(classroom string) {
	RewardRedemptionsTotal.WithLabelValues(classroom).Inc()
}

// RecordLeaderboardCacheHit records a leaderboard cache hit.
func RecordLeaderboardCacheHit() {
	LeaderboardCacheTotal.WithLabelValues("hit").Inc()
}

// RecordLeaderboardCacheMiss records a leaderboard cache miss.
func RecordLeaderboardCacheMiss() {
	LeaderboardCacheTotal.WithLabelValues("miss").Inc()
}

// SetStudentsTracked sets the number of students with gamification state.
func SetStudentsTracked(classroom string, count int) {
	StudentsTracked.WithLabelValues(classroom).Set(float64(count))
}

// SetRecomputeLastRun sets the timestamp of the last streak recompute.
func SetRecomputeLastRun() {
	RecomputeLastRunTimestamp.SetToCurrentTime()
}

// ObserveRecomputeDuration observes the duration of a streak recompute.
func ObserveRecomputeDuration(seconds float64) {
	RecomputeDurationSeconds.Observe(seconds)
}

// RecordRecomputeRun records a streak recompute execution.
func RecordRecomputeRun(status string) {
	RecomputeRunsTotal.WithLabelValues(status).Inc()
}
