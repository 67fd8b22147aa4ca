// Package attendance manages daily check-ins, makeup entries, revocations,
// and the exemption calendar that keeps holidays from breaking streaks.
package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/gamification"
	prommetrics "github.com/davinwzy/growth-lab/internal/metrics"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/internal/repository"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// StudentRepository interface for student lookup.
type StudentRepository interface {
	GetByID(id string) (*models.Student, error)
}

// GamificationRepository interface for gamification state operations.
type GamificationRepository interface {
	GetRecord(studentID string) (gamification.Record, error)
	SaveRecord(rec gamification.Record) error
}

// AttendanceRepository interface for attendance records and exemptions.
type AttendanceRepository interface {
	Upsert(rec *models.AttendanceRecord) error
	Get(studentID, dateKey string) (*models.AttendanceRecord, error)
	Delete(studentID, dateKey string) error
	GetByStudent(studentID string) ([]models.AttendanceRecord, error)
	CreateExemption(e *models.AttendanceExemption) error
	DeleteExemption(classroomID, dateKey string) error
	GetExemptions(classroomID string) ([]models.AttendanceExemption, error)
	GetExemptDateKeys(classroomID string) ([]string, error)
}

// BadgeRepository interface for badge rule loading.
type BadgeRepository interface {
	GetRules() ([]gamification.BadgeDefinition, error)
}

// Notifier interface for pushing engine events to the classroom channel.
type Notifier interface {
	SendEngineEvents(studentName string, events []gamification.Event) error
}

// Recomputer interface for triggering streak recomputation when history is
// edited out of order.
type Recomputer interface {
	RecomputeClassroom(ctx context.Context, classroomID string) error
}

// Result is the outcome of an attendance operation for one student.
type Result struct {
	Record gamification.Record  `json:"record"`
	Events []gamification.Event `json:"events"`
}

// Service manages attendance operations.
type Service struct {
	studentRepo    StudentRepository
	gamRepo        GamificationRepository
	attendanceRepo AttendanceRepository
	badgeRepo      BadgeRepository
	notifier       Notifier
	recomputer     Recomputer
	cfg            *config.GamificationConfig
	log            *logger.Logger
	now            func() time.Time
}

// NewService creates a new attendance service with concrete repository types.
func NewService(
	studentRepo *repository.StudentRepository,
	gamRepo *repository.GamificationRepository,
	attendanceRepo *repository.AttendanceRepository,
	badgeRepo *repository.BadgeRepository,
	notifier Notifier,
	recomputer Recomputer,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(studentRepo, gamRepo, attendanceRepo, badgeRepo, notifier, recomputer, cfg, log)
}

// NewServiceWithInterfaces creates a new attendance service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	studentRepo StudentRepository,
	gamRepo GamificationRepository,
	attendanceRepo AttendanceRepository,
	badgeRepo BadgeRepository,
	notifier Notifier,
	recomputer Recomputer,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		studentRepo:    studentRepo,
		gamRepo:        gamRepo,
		attendanceRepo: attendanceRepo,
		badgeRepo:      badgeRepo,
		notifier:       notifier,
		recomputer:     recomputer,
		cfg:            cfg,
		log:            log,
		now:            time.Now,
	}
}

// engineContext assembles the engine context for one student.
func (s *Service) engineContext(student *models.Student) (gamification.Context, error) {
	rules, err := s.badgeRepo.GetRules()
	if err != nil {
		return gamification.Context{}, fmt.Errorf("failed to load badge rules: %w", err)
	}

	exemptKeys, err := s.attendanceRepo.GetExemptDateKeys(student.ClassroomID)
	if err != nil {
		return gamification.Context{}, fmt.Errorf("failed to load exemptions: %w", err)
	}

	now := s.now()
	return gamification.Context{
		StudentID:    student.ID,
		StudentName:  student.Name,
		Rules:        rules,
		ExemptDates:  gamification.NewExemptSet(exemptKeys...),
		Today:        gamification.FormatDateKey(now),
		Now:          now.UnixMilli(),
		AttendanceXP: s.cfg.AttendanceXP,
	}, nil
}

// CheckInToday records today's attendance for a student. Checking in twice on
// the same day is a no-op that returns the current state.
func (s *Service) CheckInToday(ctx context.Context, studentID string) (*Result, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	engineCtx, err := s.engineContext(student)
	if err != nil {
		return nil, err
	}

	rec, err := s.gamRepo.GetRecord(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification record: %w", err)
	}

	existing, err := s.attendanceRepo.Get(studentID, engineCtx.Today)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance record: %w", err)
	}
	if existing != nil && existing.Present() {
		return &Result{Record: rec}, nil
	}

	next, events := gamification.ApplyAttendanceToday(rec, engineCtx)
	if err := s.gamRepo.SaveRecord(next); err != nil {
		return nil, fmt.Errorf("failed to save gamification record: %w", err)
	}

	if err := s.attendanceRepo.Upsert(&models.AttendanceRecord{
		ID:          uuid.NewString(),
		ClassroomID: student.ClassroomID,
		StudentID:   student.ID,
		DateKey:     engineCtx.Today,
		Status:      models.AttendanceStatusPresent,
	}); err != nil {
		return nil, fmt.Errorf("failed to write attendance record: %w", err)
	}

	prommetrics.RecordAttendanceCheckIn(student.ClassroomID, models.AttendanceStatusPresent)
	s.notifyEvents(student.Name, events)

	s.log.Info().
		Str("student_id", student.ID).
		Str("date", engineCtx.Today).
		Int("streak", next.AttendanceStreak).
		Msg("Attendance recorded")

	return &Result{Record: next, Events: events}, nil
}

// Makeup backfills attendance for a past date. The stored streak pointer is
// left alone; a full recompute afterwards reconnects any days the backfill
// bridges.
func (s *Service) Makeup(ctx context.Context, studentID, dateKey string) (*Result, error) {
	if _, err := gamification.ParseDateKey(dateKey); err != nil {
		return nil, fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}

	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	engineCtx, err := s.engineContext(student)
	if err != nil {
		return nil, err
	}
	if dateKey >= engineCtx.Today {
		return nil, fmt.Errorf("makeup date %s must be before today", dateKey)
	}

	existing, err := s.attendanceRepo.Get(studentID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance record: %w", err)
	}
	if existing != nil && existing.Present() {
		return nil, fmt.Errorf("student %s already has attendance on %s", studentID, dateKey)
	}

	rec, err := s.gamRepo.GetRecord(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification record: %w", err)
	}

	next, events := gamification.ApplyAttendanceMakeup(rec, engineCtx)
	if err := s.gamRepo.SaveRecord(next); err != nil {
		return nil, fmt.Errorf("failed to save gamification record: %w", err)
	}

	if err := s.attendanceRepo.Upsert(&models.AttendanceRecord{
		ID:          uuid.NewString(),
		ClassroomID: student.ClassroomID,
		StudentID:   student.ID,
		DateKey:     dateKey,
		Status:      models.AttendanceStatusMakeup,
	}); err != nil {
		return nil, fmt.Errorf("failed to write attendance record: %w", err)
	}

	prommetrics.RecordAttendanceCheckIn(student.ClassroomID, models.AttendanceStatusMakeup)
	s.notifyEvents(student.Name, events)
	s.recompute(ctx, student.ClassroomID)

	s.log.Info().
		Str("student_id", student.ID).
		Str("date", dateKey).
		Msg("Makeup attendance recorded")

	return &Result{Record: next, Events: events}, nil
}

// Revoke removes a recorded attendance day, reversing its grant. Revoking a
// past day invalidates stored streaks, so a recompute follows.
func (s *Service) Revoke(ctx context.Context, studentID, dateKey string) (*Result, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	existing, err := s.attendanceRepo.Get(studentID, dateKey)
	if err != nil {
		return nil, fmt.Errorf("failed to load attendance record: %w", err)
	}
	if existing == nil || !existing.Present() {
		return nil, fmt.Errorf("student %s has no attendance on %s", studentID, dateKey)
	}

	rec, err := s.gamRepo.GetRecord(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification record: %w", err)
	}

	today := gamification.FormatDateKey(s.now())
	next := gamification.ApplyAttendanceRevoke(rec, dateKey, today)

	if err := s.gamRepo.SaveRecord(next); err != nil {
		return nil, fmt.Errorf("failed to save gamification record: %w", err)
	}
	if err := s.attendanceRepo.Delete(studentID, dateKey); err != nil {
		return nil, fmt.Errorf("failed to delete attendance record: %w", err)
	}

	prommetrics.RecordAttendanceRevocation(student.ClassroomID)
	s.recompute(ctx, student.ClassroomID)

	s.log.Info().
		Str("student_id", student.ID).
		Str("date", dateKey).
		Msg("Attendance revoked")

	return &Result{Record: next}, nil
}

// GetStudentHistory returns all attendance records for a student, oldest
// first.
func (s *Service) GetStudentHistory(studentID string) ([]models.AttendanceRecord, error) {
	return s.attendanceRepo.GetByStudent(studentID)
}

// AddExemption marks a day that does not break streaks. Changing the exempt
// calendar changes how past days connect, so streaks are recomputed.
func (s *Service) AddExemption(ctx context.Context, classroomID, dateKey, reason string) error {
	if _, err := gamification.ParseDateKey(dateKey); err != nil {
		return fmt.Errorf("invalid date key %q: %w", dateKey, err)
	}

	if err := s.attendanceRepo.CreateExemption(&models.AttendanceExemption{
		ID:          uuid.NewString(),
		ClassroomID: classroomID,
		DateKey:     dateKey,
		Reason:      reason,
	}); err != nil {
		return fmt.Errorf("failed to create exemption: %w", err)
	}

	s.recompute(ctx, classroomID)

	s.log.Info().
		Str("classroom_id", classroomID).
		Str("date", dateKey).
		Str("reason", reason).
		Msg("Exemption day added")
	return nil
}

// RemoveExemption deletes an exemption day and recomputes streaks.
func (s *Service) RemoveExemption(ctx context.Context, classroomID, dateKey string) error {
	if err := s.attendanceRepo.DeleteExemption(classroomID, dateKey); err != nil {
		return fmt.Errorf("failed to delete exemption: %w", err)
	}

	s.recompute(ctx, classroomID)

	s.log.Info().
		Str("classroom_id", classroomID).
		Str("date", dateKey).
		Msg("Exemption day removed")
	return nil
}

// GetExemptions returns all exemption days for a classroom.
func (s *Service) GetExemptions(classroomID string) ([]models.AttendanceExemption, error) {
	return s.attendanceRepo.GetExemptions(classroomID)
}

// EnsureWeekendExemptions creates exemption days for every Saturday and
// Sunday in [from, to]. The scheduler calls this nightly when weekend
// auto-exemption is enabled; duplicate days are ignored by the repository.
func (s *Service) EnsureWeekendExemptions(ctx context.Context, classroomID string, from, to time.Time) (int, error) {
	if !s.cfg.AutoExemptWeekends {
		return 0, nil
	}

	created := 0
	for d := from; !d.After(to); d = d.AddDate(0, 0, 1) {
		if wd := d.Weekday(); wd != time.Saturday && wd != time.Sunday {
			continue
		}
		if err := s.attendanceRepo.CreateExemption(&models.AttendanceExemption{
			ID:          uuid.NewString(),
			ClassroomID: classroomID,
			DateKey:     gamification.FormatDateKey(d),
			Reason:      "weekend",
		}); err != nil {
			return created, fmt.Errorf("failed to create weekend exemption: %w", err)
		}
		created++
	}

	if created > 0 {
		s.log.Debug().
			Str("classroom_id", classroomID).
			Int("days", created).
			Msg("Weekend exemptions ensured")
	}
	return created, nil
}

// recompute triggers a classroom streak recompute, logging failures without
// failing the calling operation.
func (s *Service) recompute(ctx context.Context, classroomID string) {
	if s.recomputer == nil {
		return
	}
	if err := s.recomputer.RecomputeClassroom(ctx, classroomID); err != nil {
		s.log.Error().Err(err).Str("classroom_id", classroomID).Msg("Streak recompute failed")
	}
}

// notifyEvents pushes events to the classroom channel, logging failures
// without failing the operation.
func (s *Service) notifyEvents(studentName string, events []gamification.Event) {
	if s.notifier == nil || len(events) == 0 {
		return
	}
	if err := s.notifier.SendEngineEvents(studentName, events); err != nil {
		s.log.Warn().Err(err).Str("student", studentName).Msg("Failed to send event notification")
	}
}
