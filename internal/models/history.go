package models

import (
	"encoding/json"
	"time"
)

// History record types.
const (
	HistoryTypeScore           = "score"
	HistoryTypeRedemption      = "redemption"
	HistoryTypeGroupScore      = "group_score"
	HistoryTypeGroupRedemption = "group_redemption"
	HistoryTypeSettlement      = "settlement"
)

// History target kinds.
const (
	HistoryTargetStudent = "student"
	HistoryTargetGroup   = "group"
)

// HistoryRecord is one applied operation in the undo log. Snapshot holds the
// pre-operation gamification state of every affected student so undo can
// restore it verbatim instead of reversing arithmetic.
type HistoryRecord struct {
	ID          string `gorm:"primaryKey;size:64" json:"id"`
	ClassroomID string `gorm:"not null;index" json:"classroom_id"`
	Type        string `gorm:"not null;size:20;index" json:"type"`
	TargetType  string `gorm:"not null;size:20" json:"target_type"`
	TargetID    string `gorm:"not null;size:64;index" json:"target_id"`
	TargetName  string `gorm:"size:100" json:"target_name"`

	ItemID   string `gorm:"size:64" json:"item_id,omitempty"`
	ItemName string `gorm:"size:100" json:"item_name,omitempty"`
	Value    int    `gorm:"not null" json:"value"`

	// Snapshots keyed by student ID, each a gamification snapshot taken
	// before the operation was applied.
	Snapshots json.RawMessage `gorm:"type:jsonb" json:"snapshots,omitempty"`

	// PerStudentDeltas records the score delta applied to each student for
	// group operations, where cost splitting can make deltas uneven.
	PerStudentDeltas json.RawMessage `gorm:"type:jsonb" json:"per_student_deltas,omitempty"`

	Undone    bool      `gorm:"default:false;index" json:"undone"`
	CreatedAt time.Time `gorm:"index" json:"created_at"`
}

// TableName specifies the table name for HistoryRecord model.
func (HistoryRecord) TableName() string {
	return "history_records"
}

// Attendance statuses.
const (
	AttendanceStatusPresent = "present"
	AttendanceStatusAbsent  = "absent"
	AttendanceStatusMakeup  = "makeup"
)

// AttendanceRecord marks one student on one calendar day.
type AttendanceRecord struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ClassroomID string    `gorm:"not null;index" json:"classroom_id"`
	StudentID   string    `gorm:"not null;index:idx_attendance_student_date,unique" json:"student_id"`
	DateKey     string    `gorm:"not null;size:10;index:idx_attendance_student_date,unique" json:"date_key"`
	Status      string    `gorm:"not null;size:20" json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for AttendanceRecord model.
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}

// Present reports whether the record counts toward attendance streaks.
func (a *AttendanceRecord) Present() bool {
	return a.Status == AttendanceStatusPresent || a.Status == AttendanceStatusMakeup
}

// AttendanceExemption marks a calendar day that does not break streaks
// (holidays, weekends, class cancellations).
type AttendanceExemption struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	ClassroomID string    `gorm:"not null;index:idx_exemption_class_date,unique" json:"classroom_id"`
	DateKey     string    `gorm:"not null;size:10;index:idx_exemption_class_date,unique" json:"date_key"`
	Reason      string    `gorm:"size:100" json:"reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// TableName specifies the table name for AttendanceExemption model.
func (AttendanceExemption) TableName() string {
	return "attendance_exemptions"
}
