package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/internal/models"
)

// GamificationRepository handles persistence of per-student gamification state.
type GamificationRepository struct {
	db *DB
}

// NewGamificationRepository creates a new gamification repository.
func NewGamificationRepository(db *DB) *GamificationRepository {
	return &GamificationRepository{db: db}
}

// GetRecord loads the engine record for a student. A student with no stored
// state gets a fresh record, so callers never have to special-case first
// contact.
func (r *GamificationRepository) GetRecord(studentID string) (gamification.Record, error) {
	var state models.GamificationState
	err := r.db.First(&state, "student_id = ?", studentID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return gamification.NewRecord(studentID), nil
	}
	if err != nil {
		return gamification.Record{}, err
	}
	return state.ToRecord(), nil
}

// SaveRecord upserts the engine record for its student.
func (r *GamificationRepository) SaveRecord(rec gamification.Record) error {
	state, err := models.StateFromRecord(rec)
	if err != nil {
		return err
	}
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}},
		UpdateAll: true,
	}).Create(state).Error
}

// GetRecords loads engine records for a set of students, filling in fresh
// records for students with no stored state.
func (r *GamificationRepository) GetRecords(studentIDs []string) (map[string]gamification.Record, error) {
	records := make(map[string]gamification.Record, len(studentIDs))
	for _, id := range studentIDs {
		records[id] = gamification.NewRecord(id)
	}

	var states []models.GamificationState
	if err := r.db.Where("student_id IN ?", studentIDs).Find(&states).Error; err != nil {
		return nil, err
	}
	for i := range states {
		records[states[i].StudentID] = states[i].ToRecord()
	}
	return records, nil
}

// GetTopByXP returns stored states ordered by XP descending, limited to n.
func (r *GamificationRepository) GetTopByXP(studentIDs []string, n int) ([]models.GamificationState, error) {
	var states []models.GamificationState
	q := r.db.Order("xp DESC")
	if len(studentIDs) > 0 {
		q = q.Where("student_id IN ?", studentIDs)
	}
	if n > 0 {
		q = q.Limit(n)
	}
	err := q.Find(&states).Error
	return states, err
}
