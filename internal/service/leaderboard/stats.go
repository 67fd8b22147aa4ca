package leaderboard

import (
	"context"
	"fmt"

	"github.com/davinwzy/growth-lab/internal/gamification"
)

// EarnedBadge is one unlocked badge with its definition and unlock time.
type EarnedBadge struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	NameEn     string `json:"name_en"`
	Emoji      string `json:"emoji"`
	Category   string `json:"category"`
	UnlockedAt int64  `json:"unlocked_at,omitempty"`
}

// StudentStats is the full profile view for one student.
type StudentStats struct {
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	ClassroomID string `json:"classroom_id"`

	Score int `json:"score"`
	XP    int `json:"xp"`

	Level      int                   `json:"level"`
	LevelName  string                `json:"level_name"`
	LevelEmoji string                `json:"level_emoji"`
	Progress   gamification.Progress `json:"progress"`

	CurrentStreak           int `json:"current_streak"`
	LongestStreak           int `json:"longest_streak"`
	AttendanceStreak        int `json:"attendance_streak"`
	LongestAttendanceStreak int `json:"longest_attendance_streak"`
	AttendanceDays          int `json:"attendance_days"`

	Badges []EarnedBadge `json:"badges"`
	Rank   int           `json:"rank"`
}

// GetStudentStats returns the full profile for one student: level progress,
// streaks, earned badge details, and classroom rank.
func (s *Service) GetStudentStats(ctx context.Context, studentID string) (*StudentStats, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get student: %w", err)
	}

	rec, err := s.gamRepo.GetRecord(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to get gamification record: %w", err)
	}

	level := gamification.LevelForXP(rec.XP)
	stats := &StudentStats{
		StudentID:   student.ID,
		StudentName: student.Name,
		ClassroomID: student.ClassroomID,
		Score:       student.Score,
		XP:          rec.XP,
		Level:       level.Level,
		LevelName:   level.NameEn,
		LevelEmoji:  level.Emoji,
		Progress:    gamification.ProgressForXP(rec.XP),

		CurrentStreak:           rec.CurrentStreak,
		LongestStreak:           rec.LongestStreak,
		AttendanceStreak:        rec.AttendanceStreak,
		LongestAttendanceStreak: rec.LongestAttendanceStreak,
		AttendanceDays:          rec.AttendanceDays,
	}

	rules, err := s.badgeRepo.GetRules()
	if err != nil {
		s.log.Warn().Err(err).Str("student_id", studentID).Msg("Failed to load badge rules")
	} else {
		for _, id := range rec.UnlockedBadgeIDs {
			earned := EarnedBadge{ID: id, UnlockedAt: rec.BadgeUnlockedAt[id]}
			if def, ok := gamification.BadgeByID(id, rules); ok {
				earned.Name = def.Name
				earned.NameEn = def.NameEn
				earned.Emoji = def.Emoji
				earned.Category = def.Category
			}
			stats.Badges = append(stats.Badges, earned)
		}
	}

	rank, err := s.GetStudentRank(ctx, student.ClassroomID, studentID)
	if err != nil {
		s.log.Warn().Err(err).Str("student_id", studentID).Msg("Failed to get classroom rank")
	} else {
		stats.Rank = rank
	}

	return stats, nil
}
