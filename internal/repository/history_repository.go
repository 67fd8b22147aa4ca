package repository

import (
	"time"

	"github.com/davinwzy/growth-lab/internal/models"
)

// HistoryRepository handles the undo log of applied operations.
type HistoryRepository struct {
	db *DB
}

// NewHistoryRepository creates a new history repository.
func NewHistoryRepository(db *DB) *HistoryRepository {
	return &HistoryRepository{db: db}
}

// Create appends a history record.
func (r *HistoryRepository) Create(h *models.HistoryRecord) error {
	return r.db.Create(h).Error
}

// GetByID retrieves a history record by its ID.
func (r *HistoryRepository) GetByID(id string) (*models.HistoryRecord, error) {
	var h models.HistoryRecord
	if err := r.db.First(&h, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &h, nil
}

// GetLatestLive returns the most recent non-undone record for a classroom.
func (r *HistoryRepository) GetLatestLive(classroomID string) (*models.HistoryRecord, error) {
	var h models.HistoryRecord
	err := r.db.
		Where("classroom_id = ? AND undone = ?", classroomID, false).
		Order("created_at DESC").
		First(&h).Error
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// MarkUndone flips the undone flag on a record. Undone records stay in the
// log but stop contributing to streak recomputation.
func (r *HistoryRepository) MarkUndone(id string) error {
	return r.db.Model(&models.HistoryRecord{}).
		Where("id = ?", id).
		Update("undone", true).Error
}

// GetByClassroom retrieves history for a classroom, newest first, limited to n.
func (r *HistoryRepository) GetByClassroom(classroomID string, n int) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	q := r.db.
		Where("classroom_id = ?", classroomID).
		Order("created_at DESC")
	if n > 0 {
		q = q.Limit(n)
	}
	err := q.Find(&records).Error
	return records, err
}

// GetLiveScores retrieves all non-undone score records for a classroom. The
// aggregator rebuilds streaks from these.
func (r *HistoryRepository) GetLiveScores(classroomID string) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	err := r.db.
		Where("classroom_id = ? AND undone = ? AND type IN ?",
			classroomID, false,
			[]string{models.HistoryTypeScore, models.HistoryTypeGroupScore}).
		Order("created_at ASC").
		Find(&records).Error
	return records, err
}

// GetSince retrieves history records created at or after a point in time.
func (r *HistoryRepository) GetSince(classroomID string, since time.Time) ([]models.HistoryRecord, error) {
	var records []models.HistoryRecord
	err := r.db.
		Where("classroom_id = ? AND created_at >= ?", classroomID, since).
		Order("created_at DESC").
		Find(&records).Error
	return records, err
}
