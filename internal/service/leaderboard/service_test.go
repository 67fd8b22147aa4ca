package leaderboard

import (
	"context"
	"fmt"
	"sort"
	"testing"

	"github.com/davinwzy/growth-lab/internal/config"
	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/internal/models"
	"github.com/davinwzy/growth-lab/pkg/logger"
	"github.com/davinwzy/growth-lab/test/mocks"
)

// Mock repositories for testing

type mockStudentRepository struct {
	students []models.Student
}

func (m *mockStudentRepository) GetByID(id string) (*models.Student, error) {
	for i := range m.students {
		if m.students[i].ID == id {
			return &m.students[i], nil
		}
	}
	return nil, fmt.Errorf("student %s not found", id)
}

func (m *mockStudentRepository) GetByClassroom(classroomID string) ([]models.Student, error) {
	return m.students, nil
}

type mockGamificationRepository struct {
	records map[string]gamification.Record
	queries int
}

func (m *mockGamificationRepository) GetRecord(studentID string) (gamification.Record, error) {
	if r, ok := m.records[studentID]; ok {
		return r, nil
	}
	return gamification.NewRecord(studentID), nil
}

func (m *mockGamificationRepository) GetTopByXP(studentIDs []string, n int) ([]models.GamificationState, error) {
	m.queries++

	var states []models.GamificationState
	for _, id := range studentIDs {
		rec, _ := m.GetRecord(id)
		state, err := models.StateFromRecord(rec)
		if err != nil {
			return nil, err
		}
		states = append(states, *state)
	}
	sort.Slice(states, func(i, j int) bool { return states[i].XP > states[j].XP })
	if n > 0 && len(states) > n {
		states = states[:n]
	}
	return states, nil
}

type mockBadgeRepository struct{}

func (m *mockBadgeRepository) GetRules() ([]gamification.BadgeDefinition, error) {
	return gamification.DefaultBadges(), nil
}

type testFixture struct {
	svc   *Service
	gam   *mockGamificationRepository
	cache *mocks.MockCache
}

func newFixture(t *testing.T) *testFixture {
	t.Helper()

	f := &testFixture{
		gam:   &mockGamificationRepository{records: make(map[string]gamification.Record)},
		cache: mocks.NewMockCache(),
	}

	students := &mockStudentRepository{students: []models.Student{
		{ID: "s1", ClassroomID: "c1", Name: "Alice", Score: 30},
		{ID: "s2", ClassroomID: "c1", Name: "Bob", Score: 10},
		{ID: "s3", ClassroomID: "c1", Name: "Carol", Score: 20},
	}}

	rec1 := gamification.NewRecord("s1")
	rec1.XP = 120
	rec1.CurrentStreak = 3
	rec1.UnlockedBadgeIDs = []string{"first-score"}
	rec2 := gamification.NewRecord("s2")
	rec2.XP = 40
	rec3 := gamification.NewRecord("s3")
	rec3.XP = 80
	f.gam.records["s1"] = rec1
	f.gam.records["s2"] = rec2
	f.gam.records["s3"] = rec3

	f.svc = NewServiceWithInterfaces(students, f.gam, &mockBadgeRepository{}, f.cache,
		&config.GamificationConfig{LeaderboardCacheTTL: 30},
		logger.New("error", "json", "stdout"))
	return f
}

func TestGetClassroomLeaderboard_OrderAndRanks(t *testing.T) {
	f := newFixture(t)

	entries, err := f.svc.GetClassroomLeaderboard(context.Background(), "c1", 0)
	if err != nil {
		t.Fatalf("GetClassroomLeaderboard() failed: %v", err)
	}

	if len(entries) != 3 {
		t.Fatalf("Expected 3 entries, got %d", len(entries))
	}
	wantOrder := []string{"s1", "s3", "s2"}
	for i, want := range wantOrder {
		if entries[i].StudentID != want || entries[i].Rank != i+1 {
			t.Errorf("Entry %d = %s rank %d, want %s rank %d",
				i, entries[i].StudentID, entries[i].Rank, want, i+1)
		}
	}

	top := entries[0]
	if top.XP != 120 || top.Level != 2 || top.StudentName != "Alice" {
		t.Errorf("Unexpected top entry: %+v", top)
	}
	if top.BadgeCount != 1 || top.Streak != 3 {
		t.Errorf("Top entry badges/streak = %d/%d, want 1/3", top.BadgeCount, top.Streak)
	}
}

func TestGetClassroomLeaderboard_Limit(t *testing.T) {
	f := newFixture(t)

	entries, err := f.svc.GetClassroomLeaderboard(context.Background(), "c1", 2)
	if err != nil {
		t.Fatalf("GetClassroomLeaderboard() failed: %v", err)
	}
	if len(entries) != 2 {
		t.Errorf("Expected 2 entries, got %d", len(entries))
	}
}

func TestGetClassroomLeaderboard_CacheHit(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.GetClassroomLeaderboard(context.Background(), "c1", 0); err != nil {
		t.Fatalf("First call failed: %v", err)
	}
	if _, err := f.svc.GetClassroomLeaderboard(context.Background(), "c1", 0); err != nil {
		t.Fatalf("Second call failed: %v", err)
	}

	if f.gam.queries != 1 {
		t.Errorf("Expected 1 database query with warm cache, got %d", f.gam.queries)
	}
}

func TestInvalidate(t *testing.T) {
	f := newFixture(t)

	if _, err := f.svc.GetClassroomLeaderboard(context.Background(), "c1", 0); err != nil {
		t.Fatalf("GetClassroomLeaderboard() failed: %v", err)
	}
	f.svc.Invalidate(context.Background(), "c1")

	if _, err := f.svc.GetClassroomLeaderboard(context.Background(), "c1", 0); err != nil {
		t.Fatalf("GetClassroomLeaderboard() failed: %v", err)
	}
	if f.gam.queries != 2 {
		t.Errorf("Expected 2 database queries after invalidation, got %d", f.gam.queries)
	}
}

func TestGetStudentRank(t *testing.T) {
	f := newFixture(t)

	rank, err := f.svc.GetStudentRank(context.Background(), "c1", "s3")
	if err != nil {
		t.Fatalf("GetStudentRank() failed: %v", err)
	}
	if rank != 2 {
		t.Errorf("Rank = %d, want 2", rank)
	}

	if _, err := f.svc.GetStudentRank(context.Background(), "c1", "missing"); err == nil {
		t.Error("Expected error for unknown student")
	}
}

func TestGetStudentStats(t *testing.T) {
	f := newFixture(t)

	stats, err := f.svc.GetStudentStats(context.Background(), "s1")
	if err != nil {
		t.Fatalf("GetStudentStats() failed: %v", err)
	}

	if stats.StudentName != "Alice" || stats.Score != 30 || stats.XP != 120 {
		t.Errorf("Unexpected stats: %+v", stats)
	}
	if stats.Level != 2 || stats.LevelName != "Apprentice" {
		t.Errorf("Level = %d %q, want 2 Apprentice", stats.Level, stats.LevelName)
	}
	if stats.Rank != 1 {
		t.Errorf("Rank = %d, want 1", stats.Rank)
	}
	if len(stats.Badges) != 1 || stats.Badges[0].ID != "first-score" {
		t.Errorf("Unexpected badges: %+v", stats.Badges)
	}
	if stats.Badges[0].Name == "" {
		t.Error("Expected badge definition details to be filled in")
	}
	if stats.Progress.Needed == 0 {
		t.Error("Expected non-terminal level progress")
	}
}
