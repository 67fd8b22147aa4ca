// Package classroom provides the REST API for classroom operations: scoring,
// attendance, undo, leaderboards, and the badge and reward catalogs.
package classroom

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/internal/repository"
	svcattendance "github.com/davinwzy/growth-lab/internal/service/attendance"
	"github.com/davinwzy/growth-lab/internal/service/leaderboard"
	"github.com/davinwzy/growth-lab/internal/service/scoring"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// ScoringService interface for score and redemption operations.
type ScoringService interface {
	ApplyScore(ctx context.Context, studentID, itemID string) (*scoring.Result, error)
	RedeemReward(ctx context.Context, studentID, rewardID string) (*scoring.Result, error)
	ApplyGroupScore(ctx context.Context, groupID, itemID string) (map[string]*scoring.Result, error)
	RedeemGroupReward(ctx context.Context, groupID, rewardID string) (map[string]*scoring.Result, error)
	SettleGroup(ctx context.Context, groupID string) (map[string]*scoring.Result, error)
	Undo(ctx context.Context, historyID string) error
}

// AttendanceService interface for attendance operations.
type AttendanceService interface {
	CheckInToday(ctx context.Context, studentID string) (*svcattendance.Result, error)
	Makeup(ctx context.Context, studentID, dateKey string) (*svcattendance.Result, error)
	Revoke(ctx context.Context, studentID, dateKey string) (*svcattendance.Result, error)
	GetStudentHistory(studentID string) ([]models.AttendanceRecord, error)
	AddExemption(ctx context.Context, classroomID, dateKey, reason string) error
	RemoveExemption(ctx context.Context, classroomID, dateKey string) error
	GetExemptions(classroomID string) ([]models.AttendanceExemption, error)
}

// LeaderboardService interface for ranking and profile operations.
type LeaderboardService interface {
	GetClassroomLeaderboard(ctx context.Context, classroomID string, limit int) ([]leaderboard.Entry, error)
	GetStudentStats(ctx context.Context, studentID string) (*leaderboard.StudentStats, error)
	Invalidate(ctx context.Context, classroomID string, limits ...int)
}

// HistoryRepository interface for the activity feed.
type HistoryRepository interface {
	GetByClassroom(classroomID string, n int) ([]models.HistoryRecord, error)
}

// BadgeRepository interface for the badge catalog.
type BadgeRepository interface {
	GetAll() ([]models.Badge, error)
}

// CatalogRepository interface for the score item and reward catalogs.
type CatalogRepository interface {
	GetScoreItems() ([]models.ScoreItem, error)
	GetRewards() ([]models.Reward, error)
}

// Handler handles classroom API requests.
type Handler struct {
	scoringService     ScoringService
	attendanceService  AttendanceService
	leaderboardService LeaderboardService
	historyRepo        HistoryRepository
	badgeRepo          BadgeRepository
	catalogRepo        CatalogRepository
	cfg                *config.GamificationConfig
	log                *logger.Logger
}

// NewHandler creates a new classroom API handler.
func NewHandler(
	scoringService *scoring.Service,
	attendanceService *svcattendance.Service,
	leaderboardService *leaderboard.Service,
	historyRepo *repository.HistoryRepository,
	badgeRepo *repository.BadgeRepository,
	catalogRepo *repository.CatalogRepository,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Handler {
	return &Handler{
		scoringService:     scoringService,
		attendanceService:  attendanceService,
		leaderboardService: leaderboardService,
		historyRepo:        historyRepo,
		badgeRepo:          badgeRepo,
		catalogRepo:        catalogRepo,
		cfg:                cfg,
		log:                log,
	}
}

// NewHandlerWithInterfaces creates a new classroom API handler with interface dependencies (useful for testing).
func NewHandlerWithInterfaces(
	scoringService ScoringService,
	attendanceService AttendanceService,
	leaderboardService LeaderboardService,
	historyRepo HistoryRepository,
	badgeRepo BadgeRepository,
	catalogRepo CatalogRepository,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Handler {
	return &Handler{
		scoringService:     scoringService,
		attendanceService:  attendanceService,
		leaderboardService: leaderboardService,
		historyRepo:        historyRepo,
		badgeRepo:          badgeRepo,
		catalogRepo:        catalogRepo,
		cfg:                cfg,
		log:                log,
	}
}

type scoreRequest struct {
	ItemID      string `json:"item_id" binding:"required"`
	ClassroomID string `json:"classroom_id"`
}

type redeemRequest struct {
	RewardID    string `json:"reward_id" binding:"required"`
	ClassroomID string `json:"classroom_id"`
}

type makeupRequest struct {
	Date string `json:"date" binding:"required"`
}

type exemptionRequest struct {
	Date   string `json:"date" binding:"required"`
	Reason string `json:"reason"`
}

// ApplyScore applies a catalog score item to a student.
// POST /api/v1/students/:id/score.
func (h *Handler) ApplyScore(c *gin.Context) {
	studentID := c.Param("id")

	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "item_id is required")
		return
	}

	result, err := h.scoringService.ApplyScore(c.Request.Context(), studentID, req.ItemID)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("Failed to apply score")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.invalidateLeaderboard(c, req.ClassroomID)

	c.JSON(http.StatusOK, gin.H{
		"result":       result,
		"generated_at": time.Now().UTC(),
	})
}

// RedeemReward redeems a reward for a student.
// POST /api/v1/students/:id/redeem.
func (h *Handler) RedeemReward(c *gin.Context) {
	studentID := c.Param("id")

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "reward_id is required")
		return
	}

	result, err := h.scoringService.RedeemReward(c.Request.Context(), studentID, req.RewardID)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("Failed to redeem reward")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.invalidateLeaderboard(c, req.ClassroomID)

	c.JSON(http.StatusOK, gin.H{
		"result":       result,
		"generated_at": time.Now().UTC(),
	})
}

// ApplyGroupScore applies a score item to every member of a group.
// POST /api/v1/groups/:id/score.
func (h *Handler) ApplyGroupScore(c *gin.Context) {
	groupID := c.Param("id")

	var req scoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "item_id is required")
		return
	}

	results, err := h.scoringService.ApplyGroupScore(c.Request.Context(), groupID, req.ItemID)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", groupID).Msg("Failed to apply group score")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.invalidateLeaderboard(c, req.ClassroomID)

	c.JSON(http.StatusOK, gin.H{
		"results":      results,
		"members":      len(results),
		"generated_at": time.Now().UTC(),
	})
}

// RedeemGroupReward redeems a reward paid from group member scores.
// POST /api/v1/groups/:id/redeem.
func (h *Handler) RedeemGroupReward(c *gin.Context) {
	groupID := c.Param("id")

	var req redeemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "reward_id is required")
		return
	}

	results, err := h.scoringService.RedeemGroupReward(c.Request.Context(), groupID, req.RewardID)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", groupID).Msg("Failed to redeem group reward")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.invalidateLeaderboard(c, req.ClassroomID)

	c.JSON(http.StatusOK, gin.H{
		"results":      results,
		"members":      len(results),
		"generated_at": time.Now().UTC(),
	})
}

// SettleGroup converts the group's accumulated score into member bonus XP.
// POST /api/v1/groups/:id/settle.
func (h *Handler) SettleGroup(c *gin.Context) {
	groupID := c.Param("id")

	results, err := h.scoringService.SettleGroup(c.Request.Context(), groupID)
	if err != nil {
		h.log.Error().Err(err).Str("group_id", groupID).Msg("Failed to settle group")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.invalidateLeaderboard(c, c.Query("classroom_id"))

	c.JSON(http.StatusOK, gin.H{
		"results":      results,
		"members":      len(results),
		"generated_at": time.Now().UTC(),
	})
}

// Undo reverses a history record.
// POST /api/v1/history/:id/undo.
func (h *Handler) Undo(c *gin.Context) {
	historyID := c.Param("id")

	if err := h.scoringService.Undo(c.Request.Context(), historyID); err != nil {
		h.log.Error().Err(err).Str("history_id", historyID).Msg("Failed to undo operation")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	h.invalidateLeaderboard(c, c.Query("classroom_id"))

	c.JSON(http.StatusOK, gin.H{
		"undone":       historyID,
		"generated_at": time.Now().UTC(),
	})
}

// GetHistory returns the newest history records for a classroom.
// GET /api/v1/classrooms/:id/history?limit=50.
func (h *Handler) GetHistory(c *gin.Context) {
	classroomID := c.Param("id")

	defaultLimit := h.cfg.HistoryPageSize
	if defaultLimit <= 0 {
		defaultLimit = 50
	}
	limit, err := h.parseLimit(c, defaultLimit)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	records, err := h.historyRepo.GetByClassroom(classroomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("classroom_id", classroomID).Msg("Failed to get history")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classroom_id": classroomID,
		"history":      records,
		"count":        len(records),
		"generated_at": time.Now().UTC(),
	})
}

// CheckIn records today's attendance for a student.
// POST /api/v1/students/:id/attendance.
func (h *Handler) CheckIn(c *gin.Context) {
	studentID := c.Param("id")

	result, err := h.attendanceService.CheckInToday(c.Request.Context(), studentID)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("Failed to record attendance")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":       result,
		"generated_at": time.Now().UTC(),
	})
}

// Makeup backfills attendance for a past date.
// POST /api/v1/students/:id/attendance/makeup.
func (h *Handler) Makeup(c *gin.Context) {
	studentID := c.Param("id")

	var req makeupRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "date is required")
		return
	}

	result, err := h.attendanceService.Makeup(c.Request.Context(), studentID, req.Date)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Str("date", req.Date).Msg("Failed to record makeup")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":       result,
		"generated_at": time.Now().UTC(),
	})
}

// RevokeAttendance removes a recorded attendance day.
// DELETE /api/v1/students/:id/attendance?date=2025-01-06.
func (h *Handler) RevokeAttendance(c *gin.Context) {
	studentID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		h.errorResponse(c, http.StatusBadRequest, "date query parameter is required")
		return
	}

	result, err := h.attendanceService.Revoke(c.Request.Context(), studentID, date)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Str("date", date).Msg("Failed to revoke attendance")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"result":       result,
		"generated_at": time.Now().UTC(),
	})
}

// GetAttendance returns all attendance records for a student.
// GET /api/v1/students/:id/attendance.
func (h *Handler) GetAttendance(c *gin.Context) {
	studentID := c.Param("id")

	records, err := h.attendanceService.GetStudentHistory(studentID)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("Failed to get attendance history")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve attendance history")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"student_id":   studentID,
		"attendance":   records,
		"count":        len(records),
		"generated_at": time.Now().UTC(),
	})
}

// AddExemption marks a day that does not break streaks.
// POST /api/v1/classrooms/:id/exemptions.
func (h *Handler) AddExemption(c *gin.Context) {
	classroomID := c.Param("id")

	var req exemptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.errorResponse(c, http.StatusBadRequest, "date is required")
		return
	}

	if err := h.attendanceService.AddExemption(c.Request.Context(), classroomID, req.Date, req.Reason); err != nil {
		h.log.Error().Err(err).Str("classroom_id", classroomID).Msg("Failed to add exemption")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classroom_id": classroomID,
		"date":         req.Date,
		"generated_at": time.Now().UTC(),
	})
}

// RemoveExemption deletes an exemption day.
// DELETE /api/v1/classrooms/:id/exemptions?date=2025-01-01.
func (h *Handler) RemoveExemption(c *gin.Context) {
	classroomID := c.Param("id")
	date := c.Query("date")
	if date == "" {
		h.errorResponse(c, http.StatusBadRequest, "date query parameter is required")
		return
	}

	if err := h.attendanceService.RemoveExemption(c.Request.Context(), classroomID, date); err != nil {
		h.log.Error().Err(err).Str("classroom_id", classroomID).Msg("Failed to remove exemption")
		h.errorResponse(c, http.StatusUnprocessableEntity, err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classroom_id": classroomID,
		"date":         date,
		"generated_at": time.Now().UTC(),
	})
}

// GetExemptions returns all exemption days for a classroom.
// GET /api/v1/classrooms/:id/exemptions.
func (h *Handler) GetExemptions(c *gin.Context) {
	classroomID := c.Param("id")

	exemptions, err := h.attendanceService.GetExemptions(classroomID)
	if err != nil {
		h.log.Error().Err(err).Str("classroom_id", classroomID).Msg("Failed to get exemptions")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve exemptions")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classroom_id": classroomID,
		"exemptions":   exemptions,
		"count":        len(exemptions),
		"generated_at": time.Now().UTC(),
	})
}

// GetLeaderboard returns the classroom leaderboard.
// GET /api/v1/classrooms/:id/leaderboard?limit=10.
func (h *Handler) GetLeaderboard(c *gin.Context) {
	classroomID := c.Param("id")

	limit, err := h.parseLimit(c, 10)
	if err != nil {
		h.errorResponse(c, http.StatusBadRequest, err.Error())
		return
	}

	entries, err := h.leaderboardService.GetClassroomLeaderboard(c.Request.Context(), classroomID, limit)
	if err != nil {
		h.log.Error().Err(err).Str("classroom_id", classroomID).Msg("Failed to get leaderboard")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve leaderboard")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"classroom_id":  classroomID,
		"leaderboard":   entries,
		"total_entries": len(entries),
		"generated_at":  time.Now().UTC(),
	})
}

// GetStudentStats returns the full profile for one student.
// GET /api/v1/students/:id/stats.
func (h *Handler) GetStudentStats(c *gin.Context) {
	studentID := c.Param("id")

	stats, err := h.leaderboardService.GetStudentStats(c.Request.Context(), studentID)
	if err != nil {
		h.log.Error().Err(err).Str("student_id", studentID).Msg("Failed to get student stats")
		h.errorResponse(c, http.StatusNotFound, "Student not found")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"stats":        stats,
		"generated_at": time.Now().UTC(),
	})
}

// GetBadgeCatalog returns all badge definitions.
// GET /api/v1/badges.
func (h *Handler) GetBadgeCatalog(c *gin.Context) {
	badges, err := h.badgeRepo.GetAll()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get badge catalog")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve badge catalog")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"badges":       badges,
		"total_badges": len(badges),
		"generated_at": time.Now().UTC(),
	})
}

// GetScoreItems returns the scoring catalog.
// GET /api/v1/catalog/items.
func (h *Handler) GetScoreItems(c *gin.Context) {
	items, err := h.catalogRepo.GetScoreItems()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get score items")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve score items")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":        items,
		"count":        len(items),
		"generated_at": time.Now().UTC(),
	})
}

// GetRewards returns the reward catalog.
// GET /api/v1/catalog/rewards.
func (h *Handler) GetRewards(c *gin.Context) {
	rewards, err := h.catalogRepo.GetRewards()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get rewards")
		h.errorResponse(c, http.StatusInternalServerError, "Failed to retrieve rewards")
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"rewards":      rewards,
		"count":        len(rewards),
		"generated_at": time.Now().UTC(),
	})
}

// GetLevels returns the static level ladder.
// GET /api/v1/levels.
func (h *Handler) GetLevels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"levels":       gamification.Levels(),
		"generated_at": time.Now().UTC(),
	})
}

// Helper functions

// invalidateLeaderboard drops cached leaderboards after a mutating operation.
// An empty classroom ID skips invalidation and lets the cache TTL expire it.
func (h *Handler) invalidateLeaderboard(c *gin.Context, classroomID string) {
	if classroomID == "" || h.leaderboardService == nil {
		return
	}
	h.leaderboardService.Invalidate(c.Request.Context(), classroomID, 10)
}

// parseLimit extracts and validates the limit query parameter.
func (h *Handler) parseLimit(c *gin.Context, defaultLimit int) (int, error) {
	limitStr := c.Query("limit")
	if limitStr == "" {
		return defaultLimit, nil
	}

	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		return 0, fmt.Errorf("invalid limit parameter: %s", limitStr)
	}

	if limit < 1 {
		return 0, fmt.Errorf("limit must be greater than 0")
	}

	if limit > 1000 {
		return 0, fmt.Errorf("limit cannot exceed 1000")
	}

	return limit, nil
}

// errorResponse sends a standardized error response.
func (h *Handler) errorResponse(c *gin.Context, statusCode int, message string) {
	c.JSON(statusCode, gin.H{
		"error":     message,
		"timestamp": time.Now().UTC(),
	})
}
