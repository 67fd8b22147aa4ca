package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/davinwzy/growth-lab/internal/models"
)

// AttendanceRepository handles attendance records and exemption days.
type AttendanceRepository struct {
	db *DB
}

// NewAttendanceRepository creates a new attendance repository.
func NewAttendanceRepository(db *DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// Upsert records attendance for a student on a day, replacing any earlier
// status for the same day.
func (r *AttendanceRepository) Upsert(rec *models.AttendanceRecord) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "date_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "updated_at"}),
	}).Create(rec).Error
}

// Get retrieves the attendance record for a student on a day, or nil when
// none exists.
func (r *AttendanceRepository) Get(studentID, dateKey string) (*models.AttendanceRecord, error) {
	var rec models.AttendanceRecord
	err := r.db.First(&rec, "student_id = ? AND date_key = ?", studentID, dateKey).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Delete removes the attendance record for a student on a day.
func (r *AttendanceRepository) Delete(studentID, dateKey string) error {
	return r.db.
		Where("student_id = ? AND date_key = ?", studentID, dateKey).
		Delete(&models.AttendanceRecord{}).Error
}

// GetByClassroom retrieves all attendance records for a classroom.
func (r *AttendanceRepository) GetByClassroom(classroomID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.
		Where("classroom_id = ?", classroomID).
		Order("date_key ASC").
		Find(&records).Error
	return records, err
}

// GetByStudent retrieves all attendance records for a student, oldest first.
func (r *AttendanceRepository) GetByStudent(studentID string) ([]models.AttendanceRecord, error) {
	var records []models.AttendanceRecord
	err := r.db.
		Where("student_id = ?", studentID).
		Order("date_key ASC").
		Find(&records).Error
	return records, err
}

// CreateExemption adds an exemption day. Duplicate days for the same
// classroom are ignored.
func (r *AttendanceRepository) CreateExemption(e *models.AttendanceExemption) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "classroom_id"}, {Name: "date_key"}},
		DoNothing: true,
	}).Create(e).Error
}

// DeleteExemption removes an exemption day from a classroom.
func (r *AttendanceRepository) DeleteExemption(classroomID, dateKey string) error {
	return r.db.
		Where("classroom_id = ? AND date_key = ?", classroomID, dateKey).
		Delete(&models.AttendanceExemption{}).Error
}

// GetExemptions retrieves all exemption days for a classroom.
func (r *AttendanceRepository) GetExemptions(classroomID string) ([]models.AttendanceExemption, error) {
	var exemptions []models.AttendanceExemption
	err := r.db.
		Where("classroom_id = ?", classroomID).
		Order("date_key ASC").
		Find(&exemptions).Error
	return exemptions, err
}

// GetExemptDateKeys returns the exemption days for a classroom as date keys.
func (r *AttendanceRepository) GetExemptDateKeys(classroomID string) ([]string, error) {
	var keys []string
	err := r.db.Model(&models.AttendanceExemption{}).
		Where("classroom_id = ?", classroomID).
		Order("date_key ASC").
		Pluck("date_key", &keys).Error
	return keys, err
}
