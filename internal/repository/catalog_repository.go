package repository

import (
	"github.com/davinwzy/growth-lab/internal/models"
)

// CatalogRepository handles the scoring item and reward catalogs.
type CatalogRepository struct {
	db *DB
}

// NewCatalogRepository creates a new catalog repository.
func NewCatalogRepository(db *DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// CreateScoreItem creates a score item.
func (r *CatalogRepository) CreateScoreItem(item *models.ScoreItem) error {
	return r.db.Create(item).Error
}

// GetScoreItem retrieves a score item by ID.
func (r *CatalogRepository) GetScoreItem(id string) (*models.ScoreItem, error) {
	var item models.ScoreItem
	if err := r.db.First(&item, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &item, nil
}

// GetScoreItems retrieves all score items ordered by category then name.
func (r *CatalogRepository) GetScoreItems() ([]models.ScoreItem, error) {
	var items []models.ScoreItem
	err := r.db.Order("category ASC, name ASC").Find(&items).Error
	return items, err
}

// UpdateScoreItem saves score item changes.
func (r *CatalogRepository) UpdateScoreItem(item *models.ScoreItem) error {
	return r.db.Save(item).Error
}

// DeleteScoreItem deletes a score item by ID.
func (r *CatalogRepository) DeleteScoreItem(id string) error {
	return r.db.Delete(&models.ScoreItem{}, "id = ?", id).Error
}

// CreateReward creates a reward.
func (r *CatalogRepository) CreateReward(reward *models.Reward) error {
	return r.db.Create(reward).Error
}

// GetReward retrieves a reward by ID.
func (r *CatalogRepository) GetReward(id string) (*models.Reward, error) {
	var reward models.Reward
	if err := r.db.First(&reward, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &reward, nil
}

// GetRewards retrieves all rewards ordered by cost.
func (r *CatalogRepository) GetRewards() ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.Order("cost ASC").Find(&rewards).Error
	return rewards, err
}

// UpdateReward saves reward changes.
func (r *CatalogRepository) UpdateReward(reward *models.Reward) error {
	return r.db.Save(reward).Error
}

// DeleteReward deletes a reward by ID.
func (r *CatalogRepository) DeleteReward(id string) error {
	return r.db.Delete(&models.Reward{}, "id = ?", id).Error
}
