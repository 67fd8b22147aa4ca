// Package scheduler runs the nightly streak recompute and the daily classroom
// digest on cron schedules.
package scheduler

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/davinwzy/growth-lab/internal/config"
	prommetrics "github.com/davinwzy/growth-lab/internal/metrics"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/internal/notifier"
	"github.com/davinwzy/growth-lab/internal/service/leaderboard"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// digestSize is how many students the daily digest lists.
const digestSize = 5

// ClassroomRepository interface for classroom enumeration.
type ClassroomRepository interface {
	GetAllClassrooms() ([]models.Classroom, error)
}

// Recomputer interface for the nightly streak recompute.
type Recomputer interface {
	RecomputeClassroom(ctx context.Context, classroomID string) error
}

// ExemptionEnsurer interface for weekend exemption generation.
type ExemptionEnsurer interface {
	EnsureWeekendExemptions(ctx context.Context, classroomID string, from, to time.Time) (int, error)
}

// LeaderboardService interface for digest rankings.
type LeaderboardService interface {
	GetClassroomLeaderboard(ctx context.Context, classroomID string, limit int) ([]leaderboard.Entry, error)
}

// DigestSender interface for pushing the daily digest.
type DigestSender interface {
	SendDailyDigest(classroomName string, entries []notifier.DigestEntry) error
}

// Service runs scheduled jobs.
type Service struct {
	config         *config.Config
	classroomRepo  ClassroomRepository
	recomputer     Recomputer
	exemptions     ExemptionEnsurer
	leaderboardSvc LeaderboardService
	digestSender   DigestSender
	log            *logger.Logger
	cron           *cron.Cron
}

// NewService creates a new scheduler service.
func NewService(
	cfg *config.Config,
	classroomRepo ClassroomRepository,
	recomputer Recomputer,
	exemptions ExemptionEnsurer,
	leaderboardSvc LeaderboardService,
	digestSender DigestSender,
	log *logger.Logger,
) *Service {
	return &Service{
		config:         cfg,
		classroomRepo:  classroomRepo,
		recomputer:     recomputer,
		exemptions:     exemptions,
		leaderboardSvc: leaderboardSvc,
		digestSender:   digestSender,
		log:            log,
	}
}

// Start initializes and starts the cron scheduler.
func (s *Service) Start() error {
	if !s.config.Scheduler.Enabled {
		s.log.Info().Msg("Scheduler is disabled in configuration")
		return nil
	}

	location, err := time.LoadLocation(s.config.Scheduler.Timezone)
	if err != nil {
		return fmt.Errorf("invalid timezone %q: %w", s.config.Scheduler.Timezone, err)
	}

	s.cron = cron.New(cron.WithLocation(location))

	cronExpr, err := s.buildCronExpression()
	if err != nil {
		return fmt.Errorf("failed to build cron expression: %w", err)
	}

	// Register nightly recompute job
	_, err = s.cron.AddFunc(cronExpr, func() {
		s.runNightlyRecompute(context.Background())
	})
	if err != nil {
		return fmt.Errorf("failed to register recompute job: %w", err)
	}

	// Register daily digest job if configured
	if s.config.Scheduler.DigestTime != "" && s.digestSender != nil {
		_, err = s.cron.AddFunc(s.config.Scheduler.DigestTime, func() {
			s.runDailyDigest(context.Background())
		})
		if err != nil {
			return fmt.Errorf("failed to register digest job: %w", err)
		}
		s.log.Info().
			Str("schedule", s.config.Scheduler.DigestTime).
			Msg("Daily digest job registered")
	}

	s.cron.Start()

	entries := s.cron.Entries()
	nextRun := ""
	if len(entries) > 0 {
		nextRun = entries[0].Next.Format(time.RFC3339)
	}

	s.log.Info().
		Str("schedule", cronExpr).
		Str("timezone", s.config.Scheduler.Timezone).
		Str("time", s.config.Scheduler.Time).
		Str("next_run", nextRun).
		Msg("Scheduler started successfully")

	return nil
}

// Stop gracefully shuts down the scheduler.
func (s *Service) Stop() {
	if s.cron != nil {
		ctx := s.cron.Stop()
		<-ctx.Done()
		s.log.Info().Msg("Scheduler stopped")
	}
}

// buildCronExpression generates a cron expression from config.
func (s *Service) buildCronExpression() (string, error) {
	// Parse time string (format: "HH:MM")
	parts := strings.Split(s.config.Scheduler.Time, ":")
	if len(parts) != 2 {
		return "", fmt.Errorf("invalid time format %q, expected HH:MM", s.config.Scheduler.Time)
	}

	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return "", fmt.Errorf("invalid hour %q", parts[0])
	}

	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return "", fmt.Errorf("invalid minute %q", parts[1])
	}

	// Format: "minute hour day month weekday"
	if s.config.Scheduler.SkipWeekends {
		// Monday-Friday only (1-5)
		return fmt.Sprintf("%d %d * * 1-5", minute, hour), nil
	}

	return fmt.Sprintf("%d %d * * *", minute, hour), nil
}

// runNightlyRecompute ensures upcoming weekend exemptions and recomputes
// streaks for every classroom.
func (s *Service) runNightlyRecompute(ctx context.Context) {
	start := time.Now()
	s.log.Info().Msg("Running nightly recompute job")

	classrooms, err := s.classroomRepo.GetAllClassrooms()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list classrooms")
		prommetrics.RecordRecomputeRun("error")
		return
	}

	failures := 0
	for _, c := range classrooms {
		if s.exemptions != nil {
			// Cover the coming two weeks so Monday check-ins bridge cleanly.
			if _, err := s.exemptions.EnsureWeekendExemptions(ctx, c.ID, start, start.AddDate(0, 0, 14)); err != nil {
				s.log.Warn().Err(err).Str("classroom_id", c.ID).Msg("Failed to ensure weekend exemptions")
			}
		}

		if err := s.recomputer.RecomputeClassroom(ctx, c.ID); err != nil {
			s.log.Error().Err(err).Str("classroom_id", c.ID).Msg("Classroom recompute failed")
			failures++
		}
	}

	s.log.Info().
		Int("classrooms", len(classrooms)).
		Int("failures", failures).
		Dur("duration", time.Since(start)).
		Msg("Nightly recompute job completed")
}

// runDailyDigest sends the top-students summary for every classroom.
func (s *Service) runDailyDigest(ctx context.Context) {
	start := time.Now()
	s.log.Info().Msg("Running daily digest job")

	classrooms, err := s.classroomRepo.GetAllClassrooms()
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to list classrooms")
		return
	}

	sent := 0
	for _, c := range classrooms {
		entries, err := s.leaderboardSvc.GetClassroomLeaderboard(ctx, c.ID, digestSize)
		if err != nil {
			s.log.Error().Err(err).Str("classroom_id", c.ID).Msg("Failed to build digest leaderboard")
			continue
		}
		if len(entries) == 0 {
			continue
		}

		digest := make([]notifier.DigestEntry, len(entries))
		for i, e := range entries {
			digest[i] = notifier.DigestEntry{
				Rank:        e.Rank,
				StudentName: e.StudentName,
				XP:          e.XP,
				Level:       e.Level,
			}
		}

		if err := s.digestSender.SendDailyDigest(c.Name, digest); err != nil {
			s.log.Error().Err(err).Str("classroom_id", c.ID).Msg("Failed to send daily digest")
			continue
		}
		sent++
	}

	s.log.Info().
		Int("classrooms", len(classrooms)).
		Int("sent", sent).
		Dur("duration", time.Since(start)).
		Msg("Daily digest job completed")
}
