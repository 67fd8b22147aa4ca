package gamification

// Record is the per-student gamification state. It is treated as an immutable
// input by every engine operation: operations return a new value and never
// mutate the receiver, so a single-writer caller stays consistent by
// construction.
//
// The invariant Level == LevelForXP(XP).Level holds after every operation.
// Badge unlocks are monotonic; only a snapshot restore removes them.
type Record struct {
	StudentID string `json:"student_id"`

	XP    int `json:"xp"`
	Level int `json:"level"`

	CurrentStreak           int    `json:"current_streak"`
	LongestStreak           int    `json:"longest_streak"`
	LastPositiveScoringDate string `json:"last_positive_scoring_date,omitempty"`

	UnlockedBadgeIDs []string         `json:"unlocked_badge_ids"`
	BadgeUnlockedAt  map[string]int64 `json:"badge_unlocked_at"`

	TotalPositiveScores int            `json:"total_positive_scores"`
	ScoreItemCounts     map[string]int `json:"score_item_counts"`
	PerfectQuizCount    int            `json:"perfect_quiz_count"`
	HelpingOthersCount  int            `json:"helping_others_count"`
	RewardRedeemedCount int            `json:"reward_redeemed_count"`

	AttendanceDays          int    `json:"attendance_days"`
	LastAttendanceDate      string `json:"last_attendance_date,omitempty"`
	AttendanceStreak        int    `json:"attendance_streak"`
	LongestAttendanceStreak int    `json:"longest_attendance_streak"`
}

// NewRecord returns the all-zero default record for a student. Records are
// created lazily the first time a student is referenced.
func NewRecord(studentID string) Record {
	return Record{
		StudentID:        studentID,
		Level:            1,
		UnlockedBadgeIDs: []string{},
		BadgeUnlockedAt:  map[string]int64{},
		ScoreItemCounts:  map[string]int{},
	}
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.UnlockedBadgeIDs = make([]string, len(r.UnlockedBadgeIDs))
	copy(out.UnlockedBadgeIDs, r.UnlockedBadgeIDs)
	out.BadgeUnlockedAt = make(map[string]int64, len(r.BadgeUnlockedAt))
	for id, ts := range r.BadgeUnlockedAt {
		out.BadgeUnlockedAt[id] = ts
	}
	out.ScoreItemCounts = make(map[string]int, len(r.ScoreItemCounts))
	for id, n := range r.ScoreItemCounts {
		out.ScoreItemCounts[id] = n
	}
	return out
}

// HasBadge reports whether the badge id is already unlocked.
func (r Record) HasBadge(id string) bool {
	for _, unlocked := range r.UnlockedBadgeIDs {
		if unlocked == id {
			return true
		}
	}
	return false
}
