// Package aggregator recomputes streaks for a classroom from its full live
// history. It runs after retroactive edits (undo, makeup, exemption changes)
// and from the nightly scheduler, and its result supersedes the incremental
// streak fields the engine keeps.
package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davinwzy/growth-lab/internal/gamification"
	prommetrics "github.com/davinwzy/growth-lab/internal/metrics"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/internal/repository"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// StudentRepository interface for classroom rosters.
type StudentRepository interface {
	GetByClassroom(classroomID string) ([]models.Student, error)
}

// GamificationRepository interface for bulk state operations.
type GamificationRepository interface {
	GetRecords(studentIDs []string) (map[string]gamification.Record, error)
	SaveRecord(rec gamification.Record) error
}

// HistoryRepository interface for live score history.
type HistoryRepository interface {
	GetLiveScores(classroomID string) ([]models.HistoryRecord, error)
}

// AttendanceRepository interface for attendance records and exemptions.
type AttendanceRepository interface {
	GetByClassroom(classroomID string) ([]models.AttendanceRecord, error)
	GetExemptDateKeys(classroomID string) ([]string, error)
}

// Service recomputes classroom streaks.
type Service struct {
	studentRepo    StudentRepository
	gamRepo        GamificationRepository
	historyRepo    HistoryRepository
	attendanceRepo AttendanceRepository
	log            *logger.Logger
	now            func() time.Time
}

// NewService creates a new aggregator service with concrete repository types.
func NewService(
	studentRepo *repository.StudentRepository,
	gamRepo *repository.GamificationRepository,
	historyRepo *repository.HistoryRepository,
	attendanceRepo *repository.AttendanceRepository,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(studentRepo, gamRepo, historyRepo, attendanceRepo, log)
}

// NewServiceWithInterfaces creates a new aggregator service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	studentRepo StudentRepository,
	gamRepo GamificationRepository,
	historyRepo HistoryRepository,
	attendanceRepo AttendanceRepository,
	log *logger.Logger,
) *Service {
	return &Service{
		studentRepo:    studentRepo,
		gamRepo:        gamRepo,
		historyRepo:    historyRepo,
		attendanceRepo: attendanceRepo,
		log:            log,
		now:            time.Now,
	}
}

// RecomputeClassroom recomputes score and attendance streaks for every
// student in a classroom and persists the fields that changed.
func (s *Service) RecomputeClassroom(ctx context.Context, classroomID string) error {
	start := s.now()

	students, err := s.studentRepo.GetByClassroom(classroomID)
	if err != nil {
		s.recordRun(start, false)
		return fmt.Errorf("failed to load classroom roster: %w", err)
	}
	if len(students) == 0 {
		s.recordRun(start, true)
		return nil
	}

	studentIDs := make([]string, len(students))
	for i, st := range students {
		studentIDs[i] = st.ID
	}

	exemptKeys, err := s.attendanceRepo.GetExemptDateKeys(classroomID)
	if err != nil {
		s.recordRun(start, false)
		return fmt.Errorf("failed to load exemptions: %w", err)
	}
	exempt := gamification.NewExemptSet(exemptKeys...)

	scoreEntries, err := s.loadScoreEntries(classroomID)
	if err != nil {
		s.recordRun(start, false)
		return err
	}

	attendanceRecords, err := s.attendanceRepo.GetByClassroom(classroomID)
	if err != nil {
		s.recordRun(start, false)
		return fmt.Errorf("failed to load attendance records: %w", err)
	}
	attendanceEntries := make([]gamification.AttendanceEntry, 0, len(attendanceRecords))
	for _, r := range attendanceRecords {
		attendanceEntries = append(attendanceEntries, gamification.AttendanceEntry{
			StudentID: r.StudentID,
			DateKey:   r.DateKey,
			Present:   r.Present(),
		})
	}

	scoreStreaks := gamification.ComputeScoreStreaks(scoreEntries, exempt, studentIDs)
	attendanceStreaks := gamification.ComputeAttendanceStreaks(attendanceEntries, exempt, studentIDs)

	records, err := s.gamRepo.GetRecords(studentIDs)
	if err != nil {
		s.recordRun(start, false)
		return fmt.Errorf("failed to load gamification records: %w", err)
	}

	updated := 0
	for _, id := range studentIDs {
		rec, ok := records[id]
		if !ok {
			continue
		}

		next := rec.Clone()
		if ss, ok := scoreStreaks[id]; ok {
			next.CurrentStreak = ss.CurrentStreak
			next.LastPositiveScoringDate = ss.LastPositiveScoringDate
			if ss.LongestStreak > next.LongestStreak {
				next.LongestStreak = ss.LongestStreak
			}
		}
		if as, ok := attendanceStreaks[id]; ok {
			next.AttendanceStreak = as.AttendanceStreak
			next.LastAttendanceDate = as.LastAttendanceDate
			if as.LongestAttendanceStreak > next.LongestAttendanceStreak {
				next.LongestAttendanceStreak = as.LongestAttendanceStreak
			}
		}

		if streaksEqual(rec, next) {
			continue
		}
		if err := s.gamRepo.SaveRecord(next); err != nil {
			s.log.Error().Err(err).Str("student_id", id).Msg("Failed to save recomputed record")
			continue
		}
		updated++
	}

	s.recordRun(start, true)

	s.log.Info().
		Str("classroom_id", classroomID).
		Int("students", len(studentIDs)).
		Int("updated", updated).
		Dur("elapsed", s.now().Sub(start)).
		Msg("Streak recompute completed")

	return nil
}

// loadScoreEntries flattens the live history into per-student entries. Group
// records expand through their per-student deltas, since cost splitting can
// give members different values.
func (s *Service) loadScoreEntries(classroomID string) ([]gamification.ScoreHistoryEntry, error) {
	history, err := s.historyRepo.GetLiveScores(classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load score history: %w", err)
	}

	var entries []gamification.ScoreHistoryEntry
	for _, h := range history {
		switch h.TargetType {
		case models.HistoryTargetStudent:
			entries = append(entries, gamification.ScoreHistoryEntry{
				StudentID: h.TargetID,
				Value:     h.Value,
				Timestamp: h.CreatedAt,
				Undone:    h.Undone,
			})
		case models.HistoryTargetGroup:
			deltas := make(map[string]int)
			if len(h.PerStudentDeltas) > 0 {
				if err := json.Unmarshal(h.PerStudentDeltas, &deltas); err != nil {
					s.log.Warn().Err(err).Str("history_id", h.ID).Msg("Skipping history record with bad deltas")
					continue
				}
			}
			for studentID, delta := range deltas {
				entries = append(entries, gamification.ScoreHistoryEntry{
					StudentID: studentID,
					Value:     delta,
					Timestamp: h.CreatedAt,
					Undone:    h.Undone,
				})
			}
		}
	}
	return entries, nil
}

// streaksEqual reports whether two records agree on every recomputed field.
func streaksEqual(a, b gamification.Record) bool {
	return a.CurrentStreak == b.CurrentStreak &&
		a.LongestStreak == b.LongestStreak &&
		a.LastPositiveScoringDate == b.LastPositiveScoringDate &&
		a.AttendanceStreak == b.AttendanceStreak &&
		a.LongestAttendanceStreak == b.LongestAttendanceStreak &&
		a.LastAttendanceDate == b.LastAttendanceDate
}

// recordRun exports recompute metrics for one run.
func (s *Service) recordRun(start time.Time, ok bool) {
	elapsed := s.now().Sub(start)
	prommetrics.ObserveRecomputeDuration(elapsed.Seconds())
	prommetrics.SetRecomputeLastRun()
	status := "success"
	if !ok {
		status = "error"
	}
	prommetrics.RecordRecomputeRun(status)
}
