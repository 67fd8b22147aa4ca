package repository

import (
	"encoding/json"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/internal/models"
)

// setupTestDB creates an in-memory SQLite database for testing.
func setupTestDB(t *testing.T) *DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open in-memory database: %v", err)
	}

	// Enable foreign key constraints (SQLite default is off)
	db.Exec("PRAGMA foreign_keys = ON")

	// Auto-migrate tables
	err = db.AutoMigrate(
		&models.Classroom{},
		&models.Group{},
		&models.Student{},
		&models.ScoreItem{},
		&models.Reward{},
		&models.Badge{},
		&models.GamificationState{},
		&models.HistoryRecord{},
		&models.AttendanceRecord{},
		&models.AttendanceExemption{},
	)
	if err != nil {
		t.Fatalf("Failed to auto-migrate tables: %v", err)
	}

	return &DB{db}
}

// createTestBadge creates a test badge in the database.
func createTestBadge(t *testing.T, repo *BadgeRepository, id, name string, sortOrder int) *models.Badge {
	t.Helper()

	badge := &models.Badge{
		ID:        id,
		Name:      name,
		Emoji:     "🏆",
		Category:  gamification.CategoryMilestone,
		Condition: json.RawMessage(`{"type":"total_xp","xp":100}`),
		SortOrder: sortOrder,
	}

	if err := repo.Create(badge); err != nil {
		t.Fatalf("Failed to create test badge: %v", err)
	}
	return badge
}

func TestBadgeRepository_CreateAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	createTestBadge(t, repo, "xp-100", "百分达人", 0)

	retrieved, err := repo.GetByID("xp-100")
	if err != nil {
		t.Fatalf("GetByID() failed: %v", err)
	}

	if retrieved.Name != "百分达人" {
		t.Errorf("Expected name '百分达人', got %q", retrieved.Name)
	}

	// Test non-existent ID
	if _, err = repo.GetByID("missing"); err == nil {
		t.Error("Expected error for non-existent badge ID")
	}
}

func TestBadgeRepository_GetAllOrdered(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	createTestBadge(t, repo, "b", "Second", 2)
	createTestBadge(t, repo, "a", "First", 1)
	createTestBadge(t, repo, "c", "Third", 3)

	badges, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}

	if len(badges) != 3 {
		t.Fatalf("Expected 3 badges, got %d", len(badges))
	}

	if badges[0].ID != "a" || badges[2].ID != "c" {
		t.Errorf("Expected sort_order ordering, got %s, %s, %s",
			badges[0].ID, badges[1].ID, badges[2].ID)
	}
}

func TestBadgeRepository_Update(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	badge := createTestBadge(t, repo, "xp-100", "Original", 0)

	badge.Name = "Updated"
	badge.BonusPoints = 10

	if err := repo.Update(badge); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	retrieved, err := repo.GetByID("xp-100")
	if err != nil {
		t.Fatalf("Failed to retrieve updated badge: %v", err)
	}

	if retrieved.Name != "Updated" || retrieved.BonusPoints != 10 {
		t.Errorf("Update not persisted: name=%q bonus=%d", retrieved.Name, retrieved.BonusPoints)
	}
}

func TestBadgeRepository_Delete(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	createTestBadge(t, repo, "xp-100", "Test", 0)

	if err := repo.Delete("xp-100"); err != nil {
		t.Fatalf("Delete() failed: %v", err)
	}

	if _, err := repo.GetByID("xp-100"); err == nil {
		t.Error("Expected error when retrieving deleted badge")
	}
}

func TestBadgeRepository_GetRules_EmptyFallsBackToDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	rules, err := repo.GetRules()
	if err != nil {
		t.Fatalf("GetRules() failed: %v", err)
	}

	if len(rules) != len(gamification.DefaultBadges()) {
		t.Errorf("Expected default badge set on empty table, got %d rules", len(rules))
	}
}

func TestBadgeRepository_GetRules_RoundTripsCondition(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	createTestBadge(t, repo, "xp-100", "百分达人", 0)

	rules, err := repo.GetRules()
	if err != nil {
		t.Fatalf("GetRules() failed: %v", err)
	}

	if len(rules) != 1 {
		t.Fatalf("Expected 1 rule, got %d", len(rules))
	}

	cond := rules[0].Condition
	if cond.Type != gamification.CondTotalXP || cond.XP != 100 {
		t.Errorf("Condition round-trip failed: %+v", cond)
	}
}

func TestBadgeRepository_SeedDefaults(t *testing.T) {
	db := setupTestDB(t)
	repo := NewBadgeRepository(db)

	if err := repo.SeedDefaults(); err != nil {
		t.Fatalf("SeedDefaults() failed: %v", err)
	}

	badges, err := repo.GetAll()
	if err != nil {
		t.Fatalf("GetAll() failed: %v", err)
	}
	if len(badges) != len(gamification.DefaultBadges()) {
		t.Fatalf("Expected %d seeded badges, got %d", len(gamification.DefaultBadges()), len(badges))
	}

	// Edit one badge, reseed, and verify the edit survives.
	edited, _ := repo.GetByID("first-score")
	edited.BonusPoints = 99
	if err := repo.Update(edited); err != nil {
		t.Fatalf("Update() failed: %v", err)
	}

	if err := repo.SeedDefaults(); err != nil {
		t.Fatalf("Second SeedDefaults() failed: %v", err)
	}

	after, _ := repo.GetByID("first-score")
	if after.BonusPoints != 99 {
		t.Errorf("Reseed overwrote edited badge: bonus=%d", after.BonusPoints)
	}
}
