package gamification

// Snapshot is an immutable deep copy of a record's fields, minus identity.
// One is taken before every mutating action and attached to the history
// record, so an undo restores the exact prior state: XP, streaks, counters,
// and unlocked badges alike.
type Snapshot struct {
	XP                      int              `json:"xp"`
	Level                   int              `json:"level"`
	CurrentStreak           int              `json:"current_streak"`
	LongestStreak           int              `json:"longest_streak"`
	LastPositiveScoringDate string           `json:"last_positive_scoring_date,omitempty"`
	UnlockedBadgeIDs        []string         `json:"unlocked_badge_ids"`
	BadgeUnlockedAt         map[string]int64 `json:"badge_unlocked_at"`
	TotalPositiveScores     int              `json:"total_positive_scores"`
	ScoreItemCounts         map[string]int   `json:"score_item_counts"`
	PerfectQuizCount        int              `json:"perfect_quiz_count"`
	HelpingOthersCount      int              `json:"helping_others_count"`
	RewardRedeemedCount     int              `json:"reward_redeemed_count"`
	AttendanceDays          int              `json:"attendance_days"`
	LastAttendanceDate      string           `json:"last_attendance_date,omitempty"`
	AttendanceStreak        int              `json:"attendance_streak"`
	LongestAttendanceStreak int              `json:"longest_attendance_streak"`
}

// TakeSnapshot captures the record's current state.
func TakeSnapshot(r Record) Snapshot {
	c := r.Clone()
	return Snapshot{
		XP:                      c.XP,
		Level:                   c.Level,
		CurrentStreak:           c.CurrentStreak,
		LongestStreak:           c.LongestStreak,
		LastPositiveScoringDate: c.LastPositiveScoringDate,
		UnlockedBadgeIDs:        c.UnlockedBadgeIDs,
		BadgeUnlockedAt:         c.BadgeUnlockedAt,
		TotalPositiveScores:     c.TotalPositiveScores,
		ScoreItemCounts:         c.ScoreItemCounts,
		PerfectQuizCount:        c.PerfectQuizCount,
		HelpingOthersCount:      c.HelpingOthersCount,
		RewardRedeemedCount:     c.RewardRedeemedCount,
		AttendanceDays:          c.AttendanceDays,
		LastAttendanceDate:      c.LastAttendanceDate,
		AttendanceStreak:        c.AttendanceStreak,
		LongestAttendanceStreak: c.LongestAttendanceStreak,
	}
}

// Restore rebuilds the record a snapshot was taken from.
func (s Snapshot) Restore(studentID string) Record {
	r := Record{
		StudentID:               studentID,
		XP:                      s.XP,
		Level:                   s.Level,
		CurrentStreak:           s.CurrentStreak,
		LongestStreak:           s.LongestStreak,
		LastPositiveScoringDate: s.LastPositiveScoringDate,
		TotalPositiveScores:     s.TotalPositiveScores,
		PerfectQuizCount:        s.PerfectQuizCount,
		HelpingOthersCount:      s.HelpingOthersCount,
		RewardRedeemedCount:     s.RewardRedeemedCount,
		AttendanceDays:          s.AttendanceDays,
		LastAttendanceDate:      s.LastAttendanceDate,
		AttendanceStreak:        s.AttendanceStreak,
		LongestAttendanceStreak: s.LongestAttendanceStreak,
	}
	r.UnlockedBadgeIDs = make([]string, len(s.UnlockedBadgeIDs))
	copy(r.UnlockedBadgeIDs, s.UnlockedBadgeIDs)
	r.BadgeUnlockedAt = make(map[string]int64, len(s.BadgeUnlockedAt))
	for id, ts := range s.BadgeUnlockedAt {
		r.BadgeUnlockedAt[id] = ts
	}
	r.ScoreItemCounts = make(map[string]int, len(s.ScoreItemCounts))
	for id, n := range s.ScoreItemCounts {
		r.ScoreItemCounts[id] = n
	}
	return r
}
