// Package models defines domain models for the classroom gamification system.
package models

import (
	"time"
)

// Classroom represents one class a teacher manages.
type Classroom struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for Classroom model.
func (Classroom) TableName() string {
	return "classrooms"
}

// Group represents a student group within a class.
type Group struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ClassroomID string    `gorm:"not null;index" json:"classroom_id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Color       string    `gorm:"size:20" json:"color"`
	SortOrder   int       `gorm:"default:0" json:"sort_order"`
	Score       int       `gorm:"default:0" json:"score"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Group model.
func (Group) TableName() string {
	return "groups"
}

// Student represents a student in a class.
type Student struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ClassroomID string    `gorm:"not null;index" json:"classroom_id"`
	GroupID     string    `gorm:"index" json:"group_id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	Score       int       `gorm:"default:0" json:"score"`
	Avatar      string    `gorm:"size:100" json:"avatar,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Student model.
func (Student) TableName() string {
	return "students"
}
