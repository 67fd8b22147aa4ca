// Package scoring applies score operations to students and groups: it loads
// state, runs the gamification engine, and persists results plus an undo log.
package scoring

import (
	"context"
	"encoding/json"
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

// Score item IDs that feed dedicated badge counters.
const (
	ItemPerfectQuiz   = "quiz-perfect"
	ItemHelpingOthers = "helping-others"
)

// StudentRepository interface for student operations.
type StudentRepository interface {
	GetByID(id string) (*models.Student, error)
	GetByGroup(groupID string) ([]models.Student, error)
	AddScore(studentID string, delta int) error
	GetGroup(id string) (*models.Group, error)
	UpdateGroup(g *models.Group) error
}

// GamificationRepository interface for gamification state operations.
type GamificationRepository interface {
	GetRecord(studentID string) (gamification.Record, error)
	SaveRecord(rec gamification.Record) error
}

// HistoryRepository interface for the undo log.
type HistoryRepository interface {
	Create(h *models.HistoryRecord) error
	GetByID(id string) (*models.HistoryRecord, error)
	MarkUndone(id string) error
}

// BadgeRepository interface for badge rule loading.
type BadgeRepository interface {
	GetRules() ([]gamification.BadgeDefinition, error)
}

// CatalogRepository interface for score item and reward lookup.
type CatalogRepository interface {
	GetScoreItem(id string) (*models.ScoreItem, error)
	GetReward(id string) (*models.Reward, error)
}

// ExemptionRepository interface for streak exemption days.
type ExemptionRepository interface {
	GetExemptDateKeys(classroomID string) ([]string, error)
}

// Notifier interface for pushing engine events to the classroom channel.
type Notifier interface {
	SendEngineEvents(studentName string, events []gamification.Event) error
}

// Recomputer interface for triggering streak recomputation after undo.
type Recomputer interface {
	RecomputeClassroom(ctx context.Context, classroomID string) error
}

// Result is the outcome of a scoring operation for one student.
type Result struct {
	Record    gamification.Record  `json:"record"`
	Events    []gamification.Event `json:"events"`
	HistoryID string               `json:"history_id"`
}

// Service applies scoring operations.
type Service struct {
	studentRepo   StudentRepository
	gamRepo       GamificationRepository
	historyRepo   HistoryRepository
	badgeRepo     BadgeRepository
	catalogRepo   CatalogRepository
	exemptionRepo ExemptionRepository
	notifier      Notifier
	recomputer    Recomputer
	cfg           *config.GamificationConfig
	log           *logger.Logger
	now           func() time.Time
}

// NewService creates a new scoring service with concrete repository types.
func NewService(
	studentRepo *repository.StudentRepository,
	gamRepo *repository.GamificationRepository,
	historyRepo *repository.HistoryRepository,
	badgeRepo *repository.BadgeRepository,
	catalogRepo *repository.CatalogRepository,
	exemptionRepo *repository.AttendanceRepository,
	notifier Notifier,
	recomputer Recomputer,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Service {
	return NewServiceWithInterfaces(studentRepo, gamRepo, historyRepo, badgeRepo, catalogRepo, exemptionRepo, notifier, recomputer, cfg, log)
}

// NewServiceWithInterfaces creates a new scoring service with interface dependencies (useful for testing).
func NewServiceWithInterfaces(
	studentRepo StudentRepository,
	gamRepo GamificationRepository,
	historyRepo HistoryRepository,
	badgeRepo BadgeRepository,
	catalogRepo CatalogRepository,
	exemptionRepo ExemptionRepository,
	notifier Notifier,
	recomputer Recomputer,
	cfg *config.GamificationConfig,
	log *logger.Logger,
) *Service {
	return &Service{
		studentRepo:   studentRepo,
		gamRepo:       gamRepo,
		historyRepo:   historyRepo,
		badgeRepo:     badgeRepo,
		catalogRepo:   catalogRepo,
		exemptionRepo: exemptionRepo,
		notifier:      notifier,
		recomputer:    recomputer,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

// engineContext assembles the engine context for one student.
func (s *Service) engineContext(student *models.Student) (gamification.Context, error) {
	rules, err := s.badgeRepo.GetRules()
	if err != nil {
		return gamification.Context{}, fmt.Errorf("failed to load badge rules: %w", err)
	}

	exemptKeys, err := s.exemptionRepo.GetExemptDateKeys(student.ClassroomID)
	if err != nil {
		return gamification.Context{}, fmt.Errorf("failed to load exemptions: %w", err)
	}

	now := s.now()
	return gamification.Context{
		StudentID:   student.ID,
		StudentName: student.Name,
		Rules:       rules,
		ExemptDates: gamification.NewExemptSet(exemptKeys...),
		Today:       gamification.FormatDateKey(now),
		Now:         now.UnixMilli(),
	}, nil
}

// ApplyScore applies a catalog score item to one student. Positive values run
// the full gamification pass; negative values only adjust the raw score.
func (s *Service) ApplyScore(ctx context.Context, studentID, itemID string) (*Result, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	item, err := s.catalogRepo.GetScoreItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load score item: %w", err)
	}

	rec, err := s.gamRepo.GetRecord(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification record: %w", err)
	}
	snapshot := gamification.TakeSnapshot(rec)

	var (
		next   gamification.Record
		events []gamification.Event
	)
	if item.Value > 0 {
		engineCtx, err := s.engineContext(student)
		if err != nil {
			return nil, err
		}
		rec = bumpItemCounters(rec, itemID)
		next, events = gamification.ApplyPositiveScore(rec, item.Value, itemID, engineCtx)
	} else {
		// Deductions never feed XP or streaks.
		next = rec
	}

	historyID, err := s.persistStudentOp(student, next, snapshot, &models.HistoryRecord{
		ClassroomID: student.ClassroomID,
		Type:        models.HistoryTypeScore,
		TargetType:  models.HistoryTargetStudent,
		TargetID:    student.ID,
		TargetName:  student.Name,
		ItemID:      item.ID,
		ItemName:    item.Name,
		Value:       item.Value,
	})
	if err != nil {
		return nil, err
	}

	prommetrics.RecordScoreApplied(student.ClassroomID, models.HistoryTypeScore)
	if gained := next.XP - rec.XP; gained > 0 {
		prommetrics.RecordXPGranted(student.ClassroomID, gained)
	}
	s.recordEventMetrics(student.ClassroomID, events)
	s.notifyEvents(student.Name, events)

	s.log.Info().
		Str("student_id", student.ID).
		Str("item_id", item.ID).
		Int("value", item.Value).
		Int("xp", next.XP).
		Msg("Score applied")

	return &Result{Record: next, Events: events, HistoryID: historyID}, nil
}

// RedeemReward redeems a reward for a student: affordability and level gates,
// score deduction, and the redemption badge pass.
func (s *Service) RedeemReward(ctx context.Context, studentID, rewardID string) (*Result, error) {
	student, err := s.studentRepo.GetByID(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load student: %w", err)
	}

	reward, err := s.catalogRepo.GetReward(rewardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}

	if student.Score < reward.Cost {
		return nil, fmt.Errorf("student %s cannot afford reward %s: has %d, costs %d",
			student.ID, reward.ID, student.Score, reward.Cost)
	}

	rec, err := s.gamRepo.GetRecord(studentID)
	if err != nil {
		return nil, fmt.Errorf("failed to load gamification record: %w", err)
	}
	if reward.MinLevel > 0 && rec.Level < reward.MinLevel {
		return nil, fmt.Errorf("reward %s requires level %d, student is level %d",
			reward.ID, reward.MinLevel, rec.Level)
	}
	snapshot := gamification.TakeSnapshot(rec)

	engineCtx, err := s.engineContext(student)
	if err != nil {
		return nil, err
	}
	next, events := gamification.ApplyRewardRedemption(rec, engineCtx)

	historyID, err := s.persistStudentOp(student, next, snapshot, &models.HistoryRecord{
		ClassroomID: student.ClassroomID,
		Type:        models.HistoryTypeRedemption,
		TargetType:  models.HistoryTargetStudent,
		TargetID:    student.ID,
		TargetName:  student.Name,
		ItemID:      reward.ID,
		ItemName:    reward.Name,
		Value:       -reward.Cost,
	})
	if err != nil {
		return nil, err
	}

	prommetrics.RecordRewardRedemption(student.ClassroomID)
	s.recordEventMetrics(student.ClassroomID, events)
	s.notifyEvents(student.Name, events)

	s.log.Info().
		Str("student_id", student.ID).
		Str("reward_id", reward.ID).
		Int("cost", reward.Cost).
		Msg("Reward redeemed")

	return &Result{Record: next, Events: events, HistoryID: historyID}, nil
}

// ApplyGroupScore applies a score item to every member of a group. Each
// member gets the full item value; the undo log stores one record with all
// member snapshots.
func (s *Service) ApplyGroupScore(ctx context.Context, groupID, itemID string) (map[string]*Result, error) {
	group, err := s.studentRepo.GetGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	item, err := s.catalogRepo.GetScoreItem(itemID)
	if err != nil {
		return nil, fmt.Errorf("failed to load score item: %w", err)
	}

	members, err := s.studentRepo.GetByGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("group %s has no members", groupID)
	}

	snapshots := make(map[string]gamification.Snapshot, len(members))
	deltas := make(map[string]int, len(members))
	results := make(map[string]*Result, len(members))
	var allEvents []gamification.Event

	for i := range members {
		member := members[i]
		rec, err := s.gamRepo.GetRecord(member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load record for %s: %w", member.ID, err)
		}
		snapshots[member.ID] = gamification.TakeSnapshot(rec)

		next := rec
		var events []gamification.Event
		if item.Value > 0 {
			engineCtx, err := s.engineContext(&member)
			if err != nil {
				return nil, err
			}
			rec = bumpItemCounters(rec, itemID)
			next, events = gamification.ApplyPositiveScore(rec, item.Value, itemID, engineCtx)
		}

		if err := s.gamRepo.SaveRecord(next); err != nil {
			return nil, fmt.Errorf("failed to save record for %s: %w", member.ID, err)
		}
		if err := s.studentRepo.AddScore(member.ID, item.Value); err != nil {
			return nil, fmt.Errorf("failed to adjust score for %s: %w", member.ID, err)
		}

		deltas[member.ID] = item.Value
		results[member.ID] = &Result{Record: next, Events: events}
		allEvents = append(allEvents, events...)

		s.recordEventMetrics(member.ClassroomID, events)
		s.notifyEvents(member.Name, events)
	}

	// Group score column tracks the running total for settlement.
	group.Score += item.Value * len(members)
	if err := s.studentRepo.UpdateGroup(group); err != nil {
		return nil, fmt.Errorf("failed to update group score: %w", err)
	}

	historyID, err := s.createGroupHistory(group, models.HistoryTypeGroupScore, item.ID, item.Name, item.Value, snapshots, deltas)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		r.HistoryID = historyID
	}

	prommetrics.RecordScoreApplied(group.ClassroomID, models.HistoryTypeGroupScore)

	s.log.Info().
		Str("group_id", group.ID).
		Str("item_id", item.ID).
		Int("members", len(members)).
		Int("events", len(allEvents)).
		Msg("Group score applied")

	return results, nil
}

// RedeemGroupReward redeems a reward paid from member scores, splitting the
// cost as evenly as possible with the remainder charged to the first members.
func (s *Service) RedeemGroupReward(ctx context.Context, groupID, rewardID string) (map[string]*Result, error) {
	group, err := s.studentRepo.GetGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	reward, err := s.catalogRepo.GetReward(rewardID)
	if err != nil {
		return nil, fmt.Errorf("failed to load reward: %w", err)
	}

	members, err := s.studentRepo.GetByGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("group %s has no members", groupID)
	}

	shares := SplitCost(reward.Cost, len(members))
	for i := range members {
		if members[i].Score < shares[i] {
			return nil, fmt.Errorf("student %s cannot afford share %d of reward %s",
				members[i].ID, shares[i], reward.ID)
		}
	}

	snapshots := make(map[string]gamification.Snapshot, len(members))
	deltas := make(map[string]int, len(members))
	results := make(map[string]*Result, len(members))

	for i := range members {
		member := members[i]
		rec, err := s.gamRepo.GetRecord(member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load record for %s: %w", member.ID, err)
		}
		snapshots[member.ID] = gamification.TakeSnapshot(rec)

		engineCtx, err := s.engineContext(&member)
		if err != nil {
			return nil, err
		}
		next, events := gamification.ApplyRewardRedemption(rec, engineCtx)

		if err := s.gamRepo.SaveRecord(next); err != nil {
			return nil, fmt.Errorf("failed to save record for %s: %w", member.ID, err)
		}
		if err := s.studentRepo.AddScore(member.ID, -shares[i]); err != nil {
			return nil, fmt.Errorf("failed to deduct share for %s: %w", member.ID, err)
		}

		deltas[member.ID] = -shares[i]
		results[member.ID] = &Result{Record: next, Events: events}

		s.recordEventMetrics(member.ClassroomID, events)
		s.notifyEvents(member.Name, events)
	}

	historyID, err := s.createGroupHistory(group, models.HistoryTypeGroupRedemption, reward.ID, reward.Name, -reward.Cost, snapshots, deltas)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		r.HistoryID = historyID
	}

	prommetrics.RecordRewardRedemption(group.ClassroomID)

	s.log.Info().
		Str("group_id", group.ID).
		Str("reward_id", reward.ID).
		Int("cost", reward.Cost).
		Int("members", len(members)).
		Msg("Group reward redeemed")

	return results, nil
}

// SettleGroup converts a group's accumulated score into bonus XP for every
// member and resets the group score. One bonus XP is granted per
// settlement_bonus_every group points. The group score itself never becomes
// raw student score, so settlement days do not extend scoring streaks.
func (s *Service) SettleGroup(ctx context.Context, groupID string) (map[string]*Result, error) {
	group, err := s.studentRepo.GetGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group: %w", err)
	}

	every := 10
	if s.cfg != nil && s.cfg.SettlementBonusEvery > 0 {
		every = s.cfg.SettlementBonusEvery
	}
	bonusXP := group.Score / every
	if bonusXP <= 0 {
		return nil, fmt.Errorf("group %s score %d is below the settlement threshold %d",
			group.ID, group.Score, every)
	}

	members, err := s.studentRepo.GetByGroup(groupID)
	if err != nil {
		return nil, fmt.Errorf("failed to load group members: %w", err)
	}
	if len(members) == 0 {
		return nil, fmt.Errorf("group %s has no members", groupID)
	}

	snapshots := make(map[string]gamification.Snapshot, len(members))
	deltas := make(map[string]int, len(members))
	results := make(map[string]*Result, len(members))

	for i := range members {
		member := members[i]
		rec, err := s.gamRepo.GetRecord(member.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to load record for %s: %w", member.ID, err)
		}
		snapshots[member.ID] = gamification.TakeSnapshot(rec)

		engineCtx, err := s.engineContext(&member)
		if err != nil {
			return nil, err
		}
		next, events := gamification.ApplyBonusXP(rec, bonusXP, engineCtx)

		if err := s.gamRepo.SaveRecord(next); err != nil {
			return nil, fmt.Errorf("failed to save record for %s: %w", member.ID, err)
		}

		// No raw score change; undo only needs the snapshot.
		deltas[member.ID] = 0
		results[member.ID] = &Result{Record: next, Events: events}

		s.recordEventMetrics(member.ClassroomID, events)
		s.notifyEvents(member.Name, events)

		if gained := next.XP - rec.XP; gained > 0 {
			prommetrics.RecordXPGranted(member.ClassroomID, gained)
		}
	}

	settled := group.Score
	group.Score = 0
	if err := s.studentRepo.UpdateGroup(group); err != nil {
		return nil, fmt.Errorf("failed to reset group score: %w", err)
	}

	historyID, err := s.createGroupHistory(group, models.HistoryTypeSettlement, "", "", settled, snapshots, deltas)
	if err != nil {
		return nil, err
	}
	for _, r := range results {
		r.HistoryID = historyID
	}

	prommetrics.RecordScoreApplied(group.ClassroomID, models.HistoryTypeSettlement)

	s.log.Info().
		Str("group_id", group.ID).
		Int("settled", settled).
		Int("bonus_xp", bonusXP).
		Int("members", len(members)).
		Msg("Group settled")

	return results, nil
}

// Undo reverses a history record by restoring the stored snapshots, marking
// the record undone, and recomputing streaks from the surviving history.
func (s *Service) Undo(ctx context.Context, historyID string) error {
	h, err := s.historyRepo.GetByID(historyID)
	if err != nil {
		return fmt.Errorf("failed to load history record: %w", err)
	}
	if h.Undone {
		return fmt.Errorf("history record %s is already undone", historyID)
	}

	snapshots := make(map[string]gamification.Snapshot)
	if len(h.Snapshots) > 0 {
		if err := json.Unmarshal(h.Snapshots, &snapshots); err != nil {
			return fmt.Errorf("failed to parse snapshots: %w", err)
		}
	}

	deltas := make(map[string]int)
	if len(h.PerStudentDeltas) > 0 {
		if err := json.Unmarshal(h.PerStudentDeltas, &deltas); err != nil {
			return fmt.Errorf("failed to parse deltas: %w", err)
		}
	}

	for studentID, snap := range snapshots {
		restored := snap.Restore(studentID)
		if err := s.gamRepo.SaveRecord(restored); err != nil {
			return fmt.Errorf("failed to restore record for %s: %w", studentID, err)
		}
		if delta, ok := deltas[studentID]; ok && delta != 0 {
			if err := s.studentRepo.AddScore(studentID, -delta); err != nil {
				return fmt.Errorf("failed to reverse score for %s: %w", studentID, err)
			}
		}
	}

	// Group operations also reverse the group's running score.
	if h.TargetType == models.HistoryTargetGroup {
		group, err := s.studentRepo.GetGroup(h.TargetID)
		if err == nil {
			changed := false
			switch h.Type {
			case models.HistoryTypeGroupScore:
				group.Score -= h.Value * len(snapshots)
				changed = true
			case models.HistoryTypeSettlement:
				group.Score += h.Value
				changed = true
			}
			if changed {
				if err := s.studentRepo.UpdateGroup(group); err != nil {
					s.log.Warn().Err(err).Str("group_id", group.ID).Msg("Failed to reverse group score")
				}
			}
		}
	}

	if err := s.historyRepo.MarkUndone(historyID); err != nil {
		return fmt.Errorf("failed to mark history record undone: %w", err)
	}

	prommetrics.RecordUndo(h.Type)

	// Streaks derived from the undone entry may no longer hold.
	if s.recomputer != nil {
		if err := s.recomputer.RecomputeClassroom(ctx, h.ClassroomID); err != nil {
			s.log.Error().Err(err).Str("classroom_id", h.ClassroomID).Msg("Streak recompute after undo failed")
		}
	}

	s.log.Info().
		Str("history_id", historyID).
		Str("type", h.Type).
		Msg("Operation undone")

	return nil
}

// persistStudentOp saves the record, adjusts the raw score, and writes a
// single-student history record with its snapshot.
func (s *Service) persistStudentOp(
	student *models.Student,
	next gamification.Record,
	snapshot gamification.Snapshot,
	h *models.HistoryRecord,
) (string, error) {
	if err := s.gamRepo.SaveRecord(next); err != nil {
		return "", fmt.Errorf("failed to save gamification record: %w", err)
	}
	if err := s.studentRepo.AddScore(student.ID, h.Value); err != nil {
		return "", fmt.Errorf("failed to adjust student score: %w", err)
	}

	snapJSON, err := json.Marshal(map[string]gamification.Snapshot{student.ID: snapshot})
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshot: %w", err)
	}
	deltaJSON, err := json.Marshal(map[string]int{student.ID: h.Value})
	if err != nil {
		return "", fmt.Errorf("failed to marshal delta: %w", err)
	}

	h.ID = uuid.NewString()
	h.Snapshots = snapJSON
	h.PerStudentDeltas = deltaJSON
	h.CreatedAt = s.now()
	if err := s.historyRepo.Create(h); err != nil {
		return "", fmt.Errorf("failed to write history record: %w", err)
	}
	return h.ID, nil
}

// createGroupHistory writes one history record covering all group members.
func (s *Service) createGroupHistory(
	group *models.Group,
	recType, itemID, itemName string,
	value int,
	snapshots map[string]gamification.Snapshot,
	deltas map[string]int,
) (string, error) {
	snapJSON, err := json.Marshal(snapshots)
	if err != nil {
		return "", fmt.Errorf("failed to marshal snapshots: %w", err)
	}
	deltaJSON, err := json.Marshal(deltas)
	if err != nil {
		return "", fmt.Errorf("failed to marshal deltas: %w", err)
	}

	h := &models.HistoryRecord{
		ID:               uuid.NewString(),
		ClassroomID:      group.ClassroomID,
		Type:             recType,
		TargetType:       models.HistoryTargetGroup,
		TargetID:         group.ID,
		TargetName:       group.Name,
		ItemID:           itemID,
		ItemName:         itemName,
		Value:            value,
		Snapshots:        snapJSON,
		PerStudentDeltas: deltaJSON,
		CreatedAt:        s.now(),
	}
	if err := s.historyRepo.Create(h); err != nil {
		return "", fmt.Errorf("failed to write group history record: %w", err)
	}
	return h.ID, nil
}

// recordEventMetrics exports counters for the events of one operation.
func (s *Service) recordEventMetrics(classroomID string, events []gamification.Event) {
	for _, ev := range events {
		switch ev.Type {
		case gamification.EventLevelUp:
			prommetrics.RecordLevelUp(classroomID)
		case gamification.EventBadgeEarned:
			prommetrics.RecordBadgeUnlocked(ev.Data.BadgeID)
		}
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

// bumpItemCounters increments the dedicated badge counters for special items.
func bumpItemCounters(rec gamification.Record, itemID string) gamification.Record {
	switch itemID {
	case ItemPerfectQuiz:
		rec = rec.Clone()
		rec.PerfectQuizCount++
	case ItemHelpingOthers:
		rec = rec.Clone()
		rec.HelpingOthersCount++
	}
	return rec
}

// SplitCost divides a cost across n members, front-loading the remainder.
func SplitCost(cost, n int) []int {
	shares := make([]int, n)
	if n == 0 {
		return shares
	}
	base := cost / n
	rem := cost % n
	for i := range shares {
		shares[i] = base
		if i < rem {
			shares[i]++
		}
	}
	return shares
}
