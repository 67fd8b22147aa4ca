package aggregator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/pkg/logger"
)

// Mock repositories for testing

type mockStudentRepository struct {
	students []models.Student
}

func (m *mockStudentRepository) GetByClassroom(classroomID string) ([]models.Student, error) {
	return m.students, nil
}

type mockGamificationRepository struct {
	records map[string]gamification.Record
	saved   int
}

func (m *mockGamificationRepository) GetRecords(studentIDs []string) (map[string]gamification.Record, error) {
	out := make(map[string]gamification.Record, len(studentIDs))
	for _, id := range studentIDs {
		if r, ok := m.records[id]; ok {
			out[id] = r
		} else {
			out[id] = gamification.NewRecord(id)
		}
	}
	return out, nil
}

func (m *mockGamificationRepository) SaveRecord(rec gamification.Record) error {
	m.records[rec.StudentID] = rec
	m.saved++
	return nil
}

type mockHistoryRepository struct {
	records []models.HistoryRecord
}

func (m *mockHistoryRepository) GetLiveScores(classroomID string) ([]models.HistoryRecord, error) {
	var live []models.HistoryRecord
	for _, h := range m.records {
		if !h.Undone {
			live = append(live, h)
		}
	}
	return live, nil
}

type mockAttendanceRepository struct {
	records []models.AttendanceRecord
	exempt  []string
}

func (m *mockAttendanceRepository) GetByClassroom(classroomID string) ([]models.AttendanceRecord, error) {
	return m.records, nil
}

func (m *mockAttendanceRepository) GetExemptDateKeys(classroomID string) ([]string, error) {
	return m.exempt, nil
}

type testFixture struct {
	svc        *Service
	gam        *mockGamificationRepository
	history    *mockHistoryRepository
	attendance *mockAttendanceRepository
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		gam:        &mockGamificationRepository{records: make(map[string]gamification.Record)},
		history:    &mockHistoryRepository{},
		attendance: &mockAttendanceRepository{},
	}

	students := &mockStudentRepository{students: []models.Student{
		{ID: "s1", ClassroomID: "c1", Name: "Alice"},
		{ID: "s2", ClassroomID: "c1", Name: "Bob"},
	}}

	f.svc = NewServiceWithInterfaces(students, f.gam, f.history, f.attendance,
		logger.New("error", "json", "stdout"))
	return f
}

func scoreRecord(studentID, day string, value int) models.HistoryRecord {
	ts, _ := gamification.ParseDateKey(day)
	return models.HistoryRecord{
		Type:       models.HistoryTypeScore,
		TargetType: models.HistoryTargetStudent,
		TargetID:   studentID,
		Value:      value,
		CreatedAt:  ts,
	}
}

func TestRecomputeClassroom_ScoreStreaks(t *testing.T) {
	f := newFixture(t)
	f.history.records = []models.HistoryRecord{
		scoreRecord("s1", "2025-01-01", 2),
		scoreRecord("s1", "2025-01-02", 3),
		scoreRecord("s1", "2025-01-03", 1),
		scoreRecord("s2", "2025-01-01", 2),
		scoreRecord("s2", "2025-01-03", 2),
	}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}

	if r := f.gam.records["s1"]; r.CurrentStreak != 3 || r.LongestStreak != 3 {
		t.Errorf("s1 streak = %d/%d, want 3/3", r.CurrentStreak, r.LongestStreak)
	}
	// Gap on 2025-01-02 resets the streak.
	if r := f.gam.records["s2"]; r.CurrentStreak != 1 {
		t.Errorf("s2 streak = %d, want 1", r.CurrentStreak)
	}
}

func TestRecomputeClassroom_ExemptionBridges(t *testing.T) {
	f := newFixture(t)
	f.history.records = []models.HistoryRecord{
		scoreRecord("s1", "2025-01-01", 2),
		scoreRecord("s1", "2025-01-03", 2),
	}
	f.attendance.exempt = []string{"2025-01-02"}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}

	if r := f.gam.records["s1"]; r.CurrentStreak != 2 {
		t.Errorf("s1 streak = %d, want 2 across exempt day", r.CurrentStreak)
	}
}

func TestRecomputeClassroom_DeductionsDoNotCount(t *testing.T) {
	f := newFixture(t)
	f.history.records = []models.HistoryRecord{
		scoreRecord("s1", "2025-01-01", 2),
		scoreRecord("s1", "2025-01-02", -1),
		scoreRecord("s1", "2025-01-03", 2),
	}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}

	if r := f.gam.records["s1"]; r.CurrentStreak != 1 {
		t.Errorf("s1 streak = %d, want 1 since the deduction day does not bridge", r.CurrentStreak)
	}
}

func TestRecomputeClassroom_GroupRecordsExpandDeltas(t *testing.T) {
	f := newFixture(t)
	deltas, _ := json.Marshal(map[string]int{"s1": 2, "s2": 2})
	ts1, _ := gamification.ParseDateKey("2025-01-01")
	ts2, _ := gamification.ParseDateKey("2025-01-02")
	f.history.records = []models.HistoryRecord{
		{Type: models.HistoryTypeGroupScore, TargetType: models.HistoryTargetGroup, TargetID: "g1", Value: 2, PerStudentDeltas: deltas, CreatedAt: ts1},
		{Type: models.HistoryTypeGroupScore, TargetType: models.HistoryTargetGroup, TargetID: "g1", Value: 2, PerStudentDeltas: deltas, CreatedAt: ts2},
	}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}

	for _, id := range []string{"s1", "s2"} {
		if r := f.gam.records[id]; r.CurrentStreak != 2 {
			t.Errorf("%s streak = %d, want 2 from group records", id, r.CurrentStreak)
		}
	}
}

func TestRecomputeClassroom_AttendanceStreaks(t *testing.T) {
	f := newFixture(t)
	f.attendance.records = []models.AttendanceRecord{
		{StudentID: "s1", DateKey: "2025-01-01", Status: models.AttendanceStatusPresent},
		{StudentID: "s1", DateKey: "2025-01-02", Status: models.AttendanceStatusMakeup},
		{StudentID: "s1", DateKey: "2025-01-03", Status: models.AttendanceStatusPresent},
		{StudentID: "s2", DateKey: "2025-01-01", Status: models.AttendanceStatusAbsent},
	}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}

	if r := f.gam.records["s1"]; r.AttendanceStreak != 3 || r.LastAttendanceDate != "2025-01-03" {
		t.Errorf("s1 attendance = %d/%q, want 3/2025-01-03", r.AttendanceStreak, r.LastAttendanceDate)
	}
	// Absent rows never count.
	if r, ok := f.gam.records["s2"]; ok && r.AttendanceStreak != 0 {
		t.Errorf("s2 attendance streak = %d, want 0", r.AttendanceStreak)
	}
}

func TestRecomputeClassroom_LongestStreakNeverShrinks(t *testing.T) {
	f := newFixture(t)
	rec := gamification.NewRecord("s1")
	rec.LongestStreak = 10
	rec.CurrentStreak = 10
	f.gam.records["s1"] = rec
	f.history.records = []models.HistoryRecord{
		scoreRecord("s1", "2025-01-01", 2),
	}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}

	r := f.gam.records["s1"]
	if r.CurrentStreak != 1 {
		t.Errorf("CurrentStreak = %d, want 1", r.CurrentStreak)
	}
	if r.LongestStreak != 10 {
		t.Errorf("LongestStreak = %d, want preserved 10", r.LongestStreak)
	}
}

func TestRecomputeClassroom_NoChangesNoWrites(t *testing.T) {
	f := newFixture(t)

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}
	if f.gam.saved != 0 {
		t.Errorf("Expected no writes for unchanged records, got %d", f.gam.saved)
	}
}

func TestRecomputeClassroom_FixedClock(t *testing.T) {
	f := newFixture(t)
	f.svc.now = func() time.Time {
		return time.Date(2025, 1, 6, 3, 0, 0, 0, time.UTC)
	}

	if err := f.svc.RecomputeClassroom(context.Background(), "c1"); err != nil {
		t.Fatalf("RecomputeClassroom() failed: %v", err)
	}
}
