package repository

import (
	"gorm.io/gorm"

	"github.com/davinwzy/growth-lab/internal/models"
)

// StudentRepository handles classroom, group, and student database operations.
type StudentRepository struct {
	db *DB
}

// NewStudentRepository creates a new student repository.
func NewStudentRepository(db *DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// CreateClassroom creates a new classroom.
func (r *StudentRepository) CreateClassroom(c *models.Classroom) error {
	return r.db.Create(c).Error
}

// GetClassroom retrieves a classroom by its ID.
func (r *StudentRepository) GetClassroom(id string) (*models.Classroom, error) {
	var c models.Classroom
	if err := r.db.First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

// GetAllClassrooms retrieves every classroom ordered by name.
func (r *StudentRepository) GetAllClassrooms() ([]models.Classroom, error) {
	var classrooms []models.Classroom
	err := r.db.Order("name ASC").Find(&classrooms).Error
	return classrooms, err
}

// CreateGroup creates a new group.
func (r *StudentRepository) CreateGroup(g *models.Group) error {
	return r.db.Create(g).Error
}

// GetGroup retrieves a group by its ID.
func (r *StudentRepository) GetGroup(id string) (*models.Group, error) {
	var g models.Group
	if err := r.db.First(&g, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &g, nil
}

// UpdateGroup saves group changes.
func (r *StudentRepository) UpdateGroup(g *models.Group) error {
	return r.db.Save(g).Error
}

// GetGroupsByClassroom retrieves all groups in a classroom ordered by sort order.
func (r *StudentRepository) GetGroupsByClassroom(classroomID string) ([]models.Group, error) {
	var groups []models.Group
	err := r.db.
		Where("classroom_id = ?", classroomID).
		Order("sort_order ASC").
		Find(&groups).Error
	return groups, err
}

// Create creates a new student.
func (r *StudentRepository) Create(s *models.Student) error {
	return r.db.Create(s).Error
}

// GetByID retrieves a student by ID.
func (r *StudentRepository) GetByID(id string) (*models.Student, error) {
	var s models.Student
	if err := r.db.First(&s, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &s, nil
}

// GetByClassroom retrieves all students in a classroom ordered by name.
func (r *StudentRepository) GetByClassroom(classroomID string) ([]models.Student, error) {
	var students []models.Student
	err := r.db.
		Where("classroom_id = ?", classroomID).
		Order("name ASC").
		Find(&students).Error
	return students, err
}

// GetByGroup retrieves all students assigned to a group.
func (r *StudentRepository) GetByGroup(groupID string) ([]models.Student, error) {
	var students []models.Student
	err := r.db.
		Where("group_id = ?", groupID).
		Order("name ASC").
		Find(&students).Error
	return students, err
}

// Update saves student changes.
func (r *StudentRepository) Update(s *models.Student) error {
	return r.db.Save(s).Error
}

// AddScore adjusts a student's raw score column by delta.
func (r *StudentRepository) AddScore(studentID string, delta int) error {
	return r.db.Model(&models.Student{}).
		Where("id = ?", studentID).
		UpdateColumn("score", gorm.Expr("score + ?", delta)).Error
}

// Delete deletes a student by ID.
func (r *StudentRepository) Delete(id string) error {
	return r.db.Delete(&models.Student{}, "id = ?", id).Error
}
