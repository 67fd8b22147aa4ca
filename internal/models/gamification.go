package models

import (
	"encoding/json"
	"time"

	"github.com/davinwzy/growth-lab/internal/gamification"
)

// GamificationState persists one student's gamification record. Scalar fields
// map to columns; the badge set, unlock times, and per-item counters are JSON
// columns. The row is the durable twin of gamification.Record and is only
// ever written with the output of an engine operation or an aggregator
// recompute.
type GamificationState struct {
	StudentID string `gorm:"primaryKey;size:64" json:"student_id"`

	XP    int `gorm:"default:0" json:"xp"`
	Level int `gorm:"default:1" json:"level"`

	CurrentStreak           int    `gorm:"default:0" json:"current_streak"`
	LongestStreak           int    `gorm:"default:0" json:"longest_streak"`
	LastPositiveScoringDate string `gorm:"size:10" json:"last_positive_scoring_date,omitempty"`

	UnlockedBadgeIDs json.RawMessage `gorm:"type:jsonb" json:"unlocked_badge_ids"`
	BadgeUnlockedAt  json.RawMessage `gorm:"type:jsonb" json:"badge_unlocked_at"`
	ScoreItemCounts  json.RawMessage `gorm:"type:jsonb" json:"score_item_counts"`

	TotalPositiveScores int `gorm:"default:0" json:"total_positive_scores"`
	PerfectQuizCount    int `gorm:"default:0" json:"perfect_quiz_count"`
	HelpingOthersCount  int `gorm:"default:0" json:"helping_others_count"`
	RewardRedeemedCount int `gorm:"default:0" json:"reward_redeemed_count"`

	AttendanceDays          int    `gorm:"default:0" json:"attendance_days"`
	LastAttendanceDate      string `gorm:"size:10" json:"last_attendance_date,omitempty"`
	AttendanceStreak        int    `gorm:"default:0" json:"attendance_streak"`
	LongestAttendanceStreak int    `gorm:"default:0" json:"longest_attendance_streak"`

	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for GamificationState model.
func (GamificationState) TableName() string {
	return "gamification_states"
}

// ToRecord converts the stored row into an engine record. JSON columns that
// fail to parse degrade to empty collections.
func (g *GamificationState) ToRecord() gamification.Record {
	r := gamification.NewRecord(g.StudentID)
	r.XP = g.XP
	r.Level = g.Level
	r.CurrentStreak = g.CurrentStreak
	r.LongestStreak = g.LongestStreak
	r.LastPositiveScoringDate = g.LastPositiveScoringDate
	r.TotalPositiveScores = g.TotalPositiveScores
	r.PerfectQuizCount = g.PerfectQuizCount
	r.HelpingOthersCount = g.HelpingOthersCount
	r.RewardRedeemedCount = g.RewardRedeemedCount
	r.AttendanceDays = g.AttendanceDays
	r.LastAttendanceDate = g.LastAttendanceDate
	r.AttendanceStreak = g.AttendanceStreak
	r.LongestAttendanceStreak = g.LongestAttendanceStreak

	if len(g.UnlockedBadgeIDs) > 0 {
		var ids []string
		if err := json.Unmarshal(g.UnlockedBadgeIDs, &ids); err == nil {
			r.UnlockedBadgeIDs = ids
		}
	}
	if len(g.BadgeUnlockedAt) > 0 {
		var at map[string]int64
		if err := json.Unmarshal(g.BadgeUnlockedAt, &at); err == nil {
			r.BadgeUnlockedAt = at
		}
	}
	if len(g.ScoreItemCounts) > 0 {
		var counts map[string]int
		if err := json.Unmarshal(g.ScoreItemCounts, &counts); err == nil {
			r.ScoreItemCounts = counts
		}
	}
	return r
}

// StateFromRecord builds the storable row for an engine record.
func StateFromRecord(r gamification.Record) (*GamificationState, error) {
	ids, err := json.Marshal(r.UnlockedBadgeIDs)
	if err != nil {
		return nil, err
	}
	at, err := json.Marshal(r.BadgeUnlockedAt)
	if err != nil {
		return nil, err
	}
	counts, err := json.Marshal(r.ScoreItemCounts)
	if err != nil {
		return nil, err
	}
	return &GamificationState{
		StudentID:               r.StudentID,
		XP:                      r.XP,
		Level:                   r.Level,
		CurrentStreak:           r.CurrentStreak,
		LongestStreak:           r.LongestStreak,
		LastPositiveScoringDate: r.LastPositiveScoringDate,
		UnlockedBadgeIDs:        ids,
		BadgeUnlockedAt:         at,
		ScoreItemCounts:         counts,
		TotalPositiveScores:     r.TotalPositiveScores,
		PerfectQuizCount:        r.PerfectQuizCount,
		HelpingOthersCount:      r.HelpingOthersCount,
		RewardRedeemedCount:     r.RewardRedeemedCount,
		AttendanceDays:          r.AttendanceDays,
		LastAttendanceDate:      r.LastAttendanceDate,
		AttendanceStreak:        r.AttendanceStreak,
		LongestAttendanceStreak: r.LongestAttendanceStreak,
	}, nil
}
