package models

import "time"

// Selection modes governing how many non-modifier options a category accepts.
const (
	SelectionSingle   = "single"
	SelectionMultiple = "multiple"
)

// Scoring model statuses.
const (
	ScoringModelStatusActive   = "active"
	ScoringModelStatusArchived = "archived"
)

// ScoringModel is the admin-authored rubric an exercise is scored against.
// Its equation is evaluated over the placeholders {count} {minPossible}
// {maxPossible} {sum} {average}. Once any submission references a model the
// tree is treated as read-only; submissions keep their own snapshot of it.
type ScoringModel struct {
	ID                  uint   `gorm:"primaryKey" json:"id"`
	Name                string `gorm:"size:255;not null" json:"name"`
	Description         string `gorm:"type:text" json:"description"`
	CalculationEquation string `gorm:"size:512;not null" json:"calculation_equation"`
	Status              string `gorm:"size:32;not null;default:active" json:"status"`

	UseOfficialScore    bool `json:"use_official_score"`
	UseTeamScore        bool `json:"use_team_score"`
	UseUserScore        bool `json:"use_user_score"`
	UseTeamAverageScore bool `json:"use_team_average_score"`
	UseTypeAverageScore bool `json:"use_type_average_score"`

	Categories []ScoringCategory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"categories"`
	CreatedAt  time.Time         `json:"created_at"`
	UpdatedAt  time.Time         `json:"updated_at"`
}

// IsArchived reports whether the model has been retired from new use.
func (m ScoringModel) IsArchived() bool {
	return m.Status == ScoringModelStatusArchived
}

// ScoringCategory is one weighted rubric dimension. Its equation is evaluated
// over the placeholders {count} {min} {max} {sum} {modifier}.
type ScoringCategory struct {
	ID                  uint    `gorm:"primaryKey" json:"id"`
	ScoringModelID      uint    `gorm:"not null;index" json:"scoring_model_id"`
	Name                string  `gorm:"size:255;not null" json:"name"`
	CalculationEquation string  `gorm:"size:512;not null" json:"calculation_equation"`
	ScoringWeight       float64 `gorm:"not null;default:1" json:"scoring_weight"`
	IsModifierRequired  bool    `json:"is_modifier_required"`
	OptionSelection     string  `gorm:"size:16;not null;default:single" json:"option_selection"`
	DisplayOrder        int     `gorm:"not null;default:0" json:"display_order"`

	Options   []ScoringOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// AllowsMultiple reports whether more than one non-modifier option may be
// selected at the same time.
func (c ScoringCategory) AllowsMultiple() bool {
	return c.OptionSelection == SelectionMultiple
}

// ScoringOption is a selectable rubric entry. Modifier options are mutually
// exclusive with each other and feed the {modifier} binding instead of the
// selection aggregates.
type ScoringOption struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	ScoringCategoryID uint    `gorm:"not null;index" json:"scoring_category_id"`
	Description       string  `gorm:"size:512" json:"description"`
	Value             float64 `gorm:"not null" json:"value"`
	IsModifier        bool    `json:"is_modifier"`
	DisplayOrder      int     `gorm:"not null;default:0" json:"display_order"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
