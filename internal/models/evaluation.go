package models

import "time"

// Evaluation statuses.
const (
	EvaluationStatusActive = "active"
	EvaluationStatusEnded  = "ended"
)

// Evaluation is the running exercise. The engine reads it to resolve the
// current move, the attached teams, and the rubric in use; it only ever
// writes CurrentMoveNumber.
type Evaluation struct {
	ID                uint   `gorm:"primaryKey" json:"id"`
	Name              string `gorm:"size:255;not null" json:"name"`
	ScoringModelID    uint   `gorm:"not null" json:"scoring_model_id"`
	CurrentMoveNumber int    `gorm:"not null;default:0" json:"current_move_number"`
	Status            string `gorm:"size:32;not null;default:active" json:"status"`

	ScoringModel ScoringModel `gorm:"constraint:OnUpdate:CASCADE" json:"-"`
	Teams        []Team       `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"teams"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// TeamType classifies teams for cross-team averaging and official-score
// contribution.
type TeamType struct {
	ID                         uint   `gorm:"primaryKey" json:"id"`
	Name                       string `gorm:"size:255;not null" json:"name"`
	IsOfficialScoreContributor bool   `json:"is_official_score_contributor"`
	ShowTeamTypeAverage        bool   `json:"show_team_type_average"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Team is one scoring group attached to an evaluation.
type Team struct {
	ID           uint   `gorm:"primaryKey" json:"id"`
	EvaluationID uint   `gorm:"not null;index" json:"evaluation_id"`
	TeamTypeID   uint   `gorm:"not null;default:0" json:"team_type_id"`
	Name         string `gorm:"size:255;not null" json:"name"`

	TeamType    TeamType         `gorm:"constraint:OnUpdate:CASCADE" json:"team_type"`
	Memberships []TeamMembership `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"memberships"`
	CreatedAt   time.Time        `json:"created_at"`
	UpdatedAt   time.Time        `json:"updated_at"`
}

// TeamMembership links a user to a team. Deleting a membership cascades to
// the member's personal submissions at the persistence layer.
type TeamMembership struct {
	ID     uint `gorm:"primaryKey" json:"id"`
	TeamID uint `gorm:"not null;index;uniqueIndex:idx_team_member" json:"team_id"`
	UserID uint `gorm:"not null;uniqueIndex:idx_team_member" json:"user_id"`

	CreatedAt time.Time `json:"created_at"`
}
