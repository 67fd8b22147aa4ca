package repository

import (
	"testing"

	"github.com/davinwzy/growth-lab/internal/gamification"
)

func TestGamificationRepository_GetRecord_MissingIsFresh(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGamificationRepository(db)

	rec, err := repo.GetRecord("s1")
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}

	if rec.StudentID != "s1" || rec.XP != 0 || rec.Level != 1 {
		t.Errorf("Expected fresh record, got %+v", rec)
	}
}

func TestGamificationRepository_SaveAndReload(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGamificationRepository(db)

	rec := gamification.NewRecord("s1")
	rec.XP = 60
	rec.Level = 2
	rec.CurrentStreak = 3
	rec.LongestStreak = 5
	rec.LastPositiveScoringDate = "2025-01-05"
	rec.UnlockedBadgeIDs = []string{"first-score", "streak-3"}
	rec.BadgeUnlockedAt = map[string]int64{"first-score": 100, "streak-3": 200}
	rec.ScoreItemCounts = map[string]int{"quiz-perfect": 2}
	rec.TotalPositiveScores = 7
	rec.AttendanceDays = 4
	rec.AttendanceStreak = 2

	if err := repo.SaveRecord(rec); err != nil {
		t.Fatalf("SaveRecord() failed: %v", err)
	}

	loaded, err := repo.GetRecord("s1")
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}

	if loaded.XP != 60 || loaded.Level != 2 || loaded.CurrentStreak != 3 {
		t.Errorf("Scalar fields not round-tripped: %+v", loaded)
	}
	if len(loaded.UnlockedBadgeIDs) != 2 || loaded.UnlockedBadgeIDs[0] != "first-score" {
		t.Errorf("Badge IDs not round-tripped: %v", loaded.UnlockedBadgeIDs)
	}
	if loaded.BadgeUnlockedAt["streak-3"] != 200 {
		t.Errorf("Unlock times not round-tripped: %v", loaded.BadgeUnlockedAt)
	}
	if loaded.ScoreItemCounts["quiz-perfect"] != 2 {
		t.Errorf("Item counts not round-tripped: %v", loaded.ScoreItemCounts)
	}
}

func TestGamificationRepository_SaveRecord_Upserts(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGamificationRepository(db)

	rec := gamification.NewRecord("s1")
	rec.XP = 10
	if err := repo.SaveRecord(rec); err != nil {
		t.Fatalf("First SaveRecord() failed: %v", err)
	}

	rec.XP = 25
	if err := repo.SaveRecord(rec); err != nil {
		t.Fatalf("Second SaveRecord() failed: %v", err)
	}

	loaded, err := repo.GetRecord("s1")
	if err != nil {
		t.Fatalf("GetRecord() failed: %v", err)
	}
	if loaded.XP != 25 {
		t.Errorf("Expected XP 25 after upsert, got %d", loaded.XP)
	}
}

func TestGamificationRepository_GetRecords_FillsMissing(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGamificationRepository(db)

	rec := gamification.NewRecord("s1")
	rec.XP = 50
	if err := repo.SaveRecord(rec); err != nil {
		t.Fatalf("SaveRecord() failed: %v", err)
	}

	records, err := repo.GetRecords([]string{"s1", "s2"})
	if err != nil {
		t.Fatalf("GetRecords() failed: %v", err)
	}

	if records["s1"].XP != 50 {
		t.Errorf("Expected stored record for s1, got %+v", records["s1"])
	}
	if records["s2"].XP != 0 || records["s2"].StudentID != "s2" {
		t.Errorf("Expected fresh record for s2, got %+v", records["s2"])
	}
}

func TestGamificationRepository_GetTopByXP(t *testing.T) {
	db := setupTestDB(t)
	repo := NewGamificationRepository(db)

	for _, pair := range []struct {
		id string
		xp int
	}{{"s1", 30}, {"s2", 100}, {"s3", 60}} {
		rec := gamification.NewRecord(pair.id)
		rec.XP = pair.xp
		if err := repo.SaveRecord(rec); err != nil {
			t.Fatalf("SaveRecord(%s) failed: %v", pair.id, err)
		}
	}

	top, err := repo.GetTopByXP(nil, 2)
	if err != nil {
		t.Fatalf("GetTopByXP() failed: %v", err)
	}

	if len(top) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(top))
	}
	if top[0].StudentID != "s2" || top[1].StudentID != "s3" {
		t.Errorf("Expected order s2, s3; got %s, %s", top[0].StudentID, top[1].StudentID)
	}
}
