package gamification

import (
	"sort"
	"time"
)

// The batch aggregators are the authoritative streak computation. The engine
// keeps streak fields current incrementally, but a retroactive edit (an
// exemption added or removed, a history entry undone, a non-today revocation)
// can change how days connect, so the stored fields are recomputed from the
// full relevant history and the result supersedes whatever the engine had
// stored. O(history length), run only on edits.

// ScoreStreakSummary is the recomputed general-scoring streak state for one
// student.
type ScoreStreakSummary struct {
	CurrentStreak           int    `json:"current_streak"`
	LongestStreak           int    `json:"longest_streak"`
	LastPositiveScoringDate string `json:"last_positive_scoring_date,omitempty"`
}

// AttendanceStreakSummary is the recomputed attendance streak state for one
// student.
type AttendanceStreakSummary struct {
	AttendanceStreak        int    `json:"attendance_streak"`
	LongestAttendanceStreak int    `json:"longest_attendance_streak"`
	LastAttendanceDate      string `json:"last_attendance_date,omitempty"`
}

// ScoreHistoryEntry is the slice of a history record the score aggregator
// needs. Undone entries are dead and never count.
type ScoreHistoryEntry struct {
	StudentID string
	Value     int
	Timestamp time.Time
	Undone    bool
}

// AttendanceEntry is one attendance record as the attendance aggregator sees
// it.
type AttendanceEntry struct {
	StudentID string
	DateKey   string
	Present   bool
}

// ComputeScoreStreaks recomputes scoring streaks for the given students from
// live positive history entries. Timestamps collapse to calendar date keys,
// same-day entries deduplicate, and consecutive pairs are walked with the
// exempt-date bridging rule. Students with no qualifying days yield zeroes.
func ComputeScoreStreaks(entries []ScoreHistoryEntry, exempt ExemptSet, studentIDs []string) map[string]ScoreStreakSummary {
	byStudent := make(map[string][]string, len(studentIDs))
	for _, id := range studentIDs {
		byStudent[id] = nil
	}
	for _, e := range entries {
		if e.Undone || e.Value <= 0 {
			continue
		}
		byStudent[e.StudentID] = append(byStudent[e.StudentID], FormatDateKey(e.Timestamp))
	}

	result := make(map[string]ScoreStreakSummary, len(byStudent))
	for id, keys := range byStudent {
		current, longest, last := walkStreak(keys, exempt)
		result[id] = ScoreStreakSummary{
			CurrentStreak:           current,
			LongestStreak:           longest,
			LastPositiveScoringDate: last,
		}
	}
	return result
}

// ComputeAttendanceStreaks recomputes attendance streaks for the given
// students from present attendance records, applying the same bridging rule.
func ComputeAttendanceStreaks(entries []AttendanceEntry, exempt ExemptSet, studentIDs []string) map[string]AttendanceStreakSummary {
	byStudent := make(map[string][]string, len(studentIDs))
	for _, id := range studentIDs {
		byStudent[id] = nil
	}
	for _, e := range entries {
		if !e.Present {
			continue
		}
		byStudent[e.StudentID] = append(byStudent[e.StudentID], e.DateKey)
	}

	result := make(map[string]AttendanceStreakSummary, len(byStudent))
	for id, keys := range byStudent {
		current, longest, last := walkStreak(keys, exempt)
		result[id] = AttendanceStreakSummary{
			AttendanceStreak:        current,
			LongestAttendanceStreak: longest,
			LastAttendanceDate:      last,
		}
	}
	return result
}

// walkStreak dedupes and sorts day keys, then walks consecutive pairs
// tracking the running and longest streak. Returns zeroes and an empty last
// date for an empty input.
func walkStreak(keys []string, exempt ExemptSet) (current, longest int, last string) {
	if len(keys) == 0 {
		return 0, 0, ""
	}

	seen := make(map[string]struct{}, len(keys))
	days := make([]string, 0, len(keys))
	for _, k := range keys {
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		days = append(days, k)
	}
	sort.Strings(days)

	current, longest = 1, 1
	for i := 1; i < len(days); i++ {
		if IsConsecutive(days[i-1], days[i], exempt) {
			current++
		} else {
			current = 1
		}
		if current > longest {
			longest = current
		}
	}
	return current, longest, days[len(days)-1]
}
