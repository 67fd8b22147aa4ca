package models

import (
	"encoding/json"
	"time"

	"github.com/davinwzy/growth-lab/internal/gamification"
)

// ScoreItem is one entry of the scoring catalog (e.g. "Homework done" +2).
type ScoreItem struct {
	ID        string    `gorm:"primaryKey;size:64" json:"id"`
	Name      string    `gorm:"not null;size:100" json:"name"`
	NameEn    string    `gorm:"size:100" json:"name_en"`
	Value     int       `gorm:"not null" json:"value"`
	Category  string    `gorm:"size:50" json:"category"` // 'classroom', 'academic', 'behavior', 'custom'
	IsDefault bool      `gorm:"default:false" json:"is_default"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for ScoreItem model.
func (ScoreItem) TableName() string {
	return "score_items"
}

// Score item categories.
const (
	ScoreCategoryClassroom = "classroom"
	ScoreCategoryAcademic  = "academic"
	ScoreCategoryBehavior  = "behavior"
	ScoreCategoryCustom    = "custom"
)

// Reward is a redeemable prize with a point cost.
type Reward struct {
	ID          string    `gorm:"primaryKey;size:64" json:"id"`
	Name        string    `gorm:"not null;size:100" json:"name"`
	NameEn      string    `gorm:"size:100" json:"name_en"`
	Cost        int       `gorm:"not null" json:"cost"`
	Description string    `gorm:"type:text" json:"description,omitempty"`
	MinLevel    int       `gorm:"default:0" json:"min_level"`
	IsDefault   bool      `gorm:"default:false" json:"is_default"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TableName specifies the table name for Reward model.
func (Reward) TableName() string {
	return "rewards"
}

// Badge represents a badge definition, including teacher-authored custom
// badges. The trigger condition is stored as JSON.
type Badge struct {
	ID            string          `gorm:"primaryKey;size:64" json:"id"`
	Name          string          `gorm:"not null;size:100" json:"name"`
	NameEn        string          `gorm:"size:100" json:"name_en"`
	Emoji         string          `gorm:"size:20" json:"emoji"`
	Description   string          `gorm:"type:text" json:"description,omitempty"`
	DescriptionEn string          `gorm:"type:text" json:"description_en,omitempty"`
	Category      string          `gorm:"size:50" json:"category"`
	Condition     json.RawMessage `gorm:"type:jsonb" json:"condition"`
	BonusPoints   int             `gorm:"default:0" json:"bonus_points"`
	IsCustom      bool            `gorm:"default:false" json:"is_custom"`
	SortOrder     int             `gorm:"default:0" json:"sort_order"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

// TableName specifies the table name for Badge model.
func (Badge) TableName() string {
	return "badges"
}

// ToDefinition converts a stored badge into an engine rule. A condition that
// fails to parse yields a definition whose condition type is empty, which the
// engine treats as never satisfied rather than an error: a malformed custom
// badge must not break scoring.
func (b *Badge) ToDefinition() gamification.BadgeDefinition {
	var cond gamification.Condition
	_ = json.Unmarshal(b.Condition, &cond)
	return gamification.BadgeDefinition{
		ID:            b.ID,
		Name:          b.Name,
		NameEn:        b.NameEn,
		Emoji:         b.Emoji,
		Description:   b.Description,
		DescriptionEn: b.DescriptionEn,
		Category:      b.Category,
		Condition:     cond,
		BonusPoints:   b.BonusPoints,
		IsCustom:      b.IsCustom,
	}
}

// BadgeFromDefinition builds the storable model for an engine rule.
func BadgeFromDefinition(def gamification.BadgeDefinition, sortOrder int) (*Badge, error) {
	cond, err := json.Marshal(def.Condition)
	if err != nil {
		return nil, err
	}
	return &Badge{
		ID:            def.ID,
		Name:          def.Name,
		NameEn:        def.NameEn,
		Emoji:         def.Emoji,
		Description:   def.Description,
		DescriptionEn: def.DescriptionEn,
		Category:      def.Category,
		Condition:     cond,
		BonusPoints:   def.BonusPoints,
		IsCustom:      def.IsCustom,
		SortOrder:     sortOrder,
	}, nil
}
