package repository

import (
	"github.com/davinwzy/growth-lab/internal/gamification"
	"github.com/davinwzy/growth-lab/internal/models"
)

// BadgeRepository handles badge definition storage.
type BadgeRepository struct {
	db *DB
}

// NewBadgeRepository creates a new badge repository.
func NewBadgeRepository(db *DB) *BadgeRepository {
	return &BadgeRepository{db: db}
}

// Create creates a new badge definition.
func (r *BadgeRepository) Create(badge *models.Badge) error {
	return r.db.Create(badge).Error
}

// GetByID retrieves a badge by its ID.
func (r *BadgeRepository) GetByID(id string) (*models.Badge, error) {
	var badge models.Badge
	if err := r.db.First(&badge, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &badge, nil
}

// GetAll retrieves all badge definitions ordered by sort order.
func (r *BadgeRepository) GetAll() ([]models.Badge, error) {
	var badges []models.Badge
	err := r.db.Order("sort_order ASC, created_at ASC").Find(&badges).Error
	return badges, err
}

// Update updates an existing badge definition.
func (r *BadgeRepository) Update(badge *models.Badge) error {
	return r.db.Save(badge).Error
}

// Delete deletes a badge definition by its ID.
func (r *BadgeRepository) Delete(id string) error {
	return r.db.Delete(&models.Badge{}, "id = ?", id).Error
}

// GetRules loads all badge definitions as engine rules. An empty table falls
// back to the built-in badge set so a fresh database still awards badges.
func (r *BadgeRepository) GetRules() ([]gamification.BadgeDefinition, error) {
	badges, err := r.GetAll()
	if err != nil {
		return nil, err
	}
	if len(badges) == 0 {
		return gamification.DefaultBadges(), nil
	}
	rules := make([]gamification.BadgeDefinition, 0, len(badges))
	for i := range badges {
		rules = append(rules, badges[i].ToDefinition())
	}
	return rules, nil
}

// SeedDefaults inserts the built-in badge set, skipping badges that already
// exist so teacher edits survive a reseed.
func (r *BadgeRepository) SeedDefaults() error {
	for i, def := range gamification.DefaultBadges() {
		badge, err := models.BadgeFromDefinition(def, i)
		if err != nil {
			return err
		}
		var count int64
		if err := r.db.Model(&models.Badge{}).Where("id = ?", badge.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			continue
		}
		if err := r.db.Create(badge).Error; err != nil {
			return err
		}
	}
	return nil
}
