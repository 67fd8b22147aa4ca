// Package leaderboard builds XP-ordered classroom rankings with a short-lived
// Redis cache in front of the database.
package leaderboard

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/davinwzy/growth-lab/internal/cache"
	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/gamification"
	prommetrics "github.com/davinwzy/growth-lab/internal/metrics"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/internal/repository"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// StudentRepository interface for student lookup and classroom rosters.
type StudentRepository interface {
	GetByID(id string) (*models.Student, error)
	GetByClassroom(classroomID string) ([]models.Student, error)
}

// GamificationRepository interface for state and ranked queries.
type GamificationRepository interface {
	GetRecord(studentID string) (gamification.Record, error)
	GetTopByXP(studentIDs []string, n int) ([]models.GamificationState, error)
}

// BadgeRepository interface for badge rule loading.
type BadgeRepository interface {
	GetRules() ([]gamification.BadgeDefinition, error)
}

// Entry represents a single entry in a leaderboard.
type Entry struct {
	Rank        int    `json:"rank"`
	StudentID   string `json:"student_id"`
	StudentName string `json:"student_name"`
	XP          int    `json:"xp"`
	Level       int    `json:"level"`
	LevelName   string `json:"level_name"`
	LevelEmoji  string `json:"level_emoji"`
	Streak      int    `json:"streak"`
	BadgeCount  int    `json:"badge_count"`
}

// Service builds classroom leaderboards.
type Service struct {
	studentRepo StudentRepository
	gamRepo     GamificationRepository
	badgeRepo   BadgeRepository
	cache       cache.Cache
	ttl         time.Duration
	log         *logger.Logger
}

// NewService creates a new leaderboard service with concrete repository types.
func NewService(
	studentRepo *repository.StudentRepository,
	gamRepo *repository.GamificationRepository,
	badgeRepo *repository.BadgeRepository,
	c cache.Cache,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(studentRepo, gamRepo, badgeRepo, c, cfg, log)
}

// NewServiceWithInterfaces creates a new leaderboard service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	studentRepo StudentRepository,
	gamRepo GamificationRepository,
	badgeRepo BadgeRepository,
	c cache.Cache,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Service {
	ttl := time.Duration(cfg.LeaderboardCacheTTL) * time.Second
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Service{
		studentRepo: studentRepo,
		gamRepo:     gamRepo,
		badgeRepo:   badgeRepo,
		cache:       c,
		ttl:         ttl,
		log:         log,
	}
}

func cacheKey(classroomID string, limit int) string {
	return fmt.Sprintf("leaderboard:%s:%d", classroomID, limit)
}

// GetClassroomLeaderboard returns the top students of a classroom by XP.
// limit <= 0 returns the full roster.
func (s *Service) GetClassroomLeaderboard(ctx context.Context, classroomID string, limit int) ([]Entry, error) {
	key := cacheKey(classroomID, limit)

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, key)
		if err != nil {
			s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache read failed")
		} else if cached != "" {
			var entries []Entry
			if err := json.Unmarshal([]byte(cached), &entries); err == nil {
				prommetrics.RecordLeaderboardCacheHit()
				return entries, nil
			}
			s.log.Warn().Str("key", key).Msg("Discarding unparseable leaderboard cache entry")
		}
		prommetrics.RecordLeaderboardCacheMiss()
	}

	entries, err := s.buildLeaderboard(classroomID, limit)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		payload, err := json.Marshal(entries)
		if err == nil {
			if err := s.cache.Set(ctx, key, string(payload), s.ttl); err != nil {
				s.log.Warn().Err(err).Str("key", key).Msg("Leaderboard cache write failed")
			}
		}
	}

	return entries, nil
}

// buildLeaderboard queries the database and assembles ranked entries.
func (s *Service) buildLeaderboard(classroomID string, limit int) ([]Entry, error) {
	students, err := s.studentRepo.GetByClassroom(classroomID)
	if err != nil {
		return nil, fmt.Errorf("failed to load classroom roster: %w", err)
	}
	if len(students) == 0 {
		return []Entry{}, nil
	}

	names := make(map[string]string, len(students))
	studentIDs := make([]string, len(students))
	for i, st := range students {
		studentIDs[i] = st.ID
		names[st.ID] = st.Name
	}

	states, err := s.gamRepo.GetTopByXP(studentIDs, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification states: %w", err)
	}

	prommetrics.SetStudentsTracked(classroomID, len(students))

	entries := make([]Entry, 0, len(states))
	for i, state := range states {
		rec := state.ToRecord()
		level := gamification.LevelForXP(rec.XP)
		entries = append(entries, Entry{
			Rank:        i + 1,
			StudentID:   rec.StudentID,
			StudentName: names[rec.StudentID],
			XP:          rec.XP,
			Level:       level.Level,
			LevelName:   level.NameEn,
			LevelEmoji:  level.Emoji,
			Streak:      rec.CurrentStreak,
			BadgeCount:  len(rec.UnlockedBadgeIDs),
		})
	}
	return entries, nil
}

// GetStudentRank returns a student's position in the classroom leaderboard.
func (s *Service) GetStudentRank(ctx context.Context, classroomID, studentID string) (int, error) {
	entries, err := s.GetClassroomLeaderboard(ctx, classroomID, 0)
	if err != nil {
		return 0, err
	}
	for _, e := range entries {
		if e.StudentID == studentID {
			return e.Rank, nil
		}
	}
	return 0, fmt.Errorf("student %s not found in leaderboard", studentID)
}

// Invalidate drops cached leaderboards for a classroom. Callers invoke it
// after operations that change XP so the next read is fresh.
func (s *Service) Invalidate(ctx context.Context, classroomID string, limits ...int) {
	if s.cache == nil {
		return
	}
	keys := make([]string, 0, len(limits)+1)
	keys = append(keys, cacheKey(classroomID, 0))
	for _, l := range limits {
		keys = append(keys, cacheKey(classroomID, l))
	}
	if err := s.cache.Del(ctx, keys...); err != nil {
		s.log.Warn().Err(err).Str("classroom_id", classroomID).Msg("Leaderboard cache invalidation failed")
	}
}
