package models

import "time"

// Submission statuses.
const (
	SubmissionStatusActive   = "active"
	SubmissionStatusComplete = "complete"
)

// Submission records one scope's scored view of a single move. The scope is
// the (evaluation, move, team, user) key; a zero TeamID/UserID means that
// part of the scope is unset, which keeps the composite unique index total
// for official and team rows.
//
// Scopes:
//   - UserID set            -> personal submission (TeamID set as well)
//   - TeamID set, no UserID -> team submission
//   - neither set           -> official (evaluation-wide) submission
type Submission struct {
	ID             uint `gorm:"primaryKey" json:"id"`
	EvaluationID   uint `gorm:"not null;uniqueIndex:idx_submission_scope" json:"evaluation_id"`
	ScoringModelID uint `gorm:"not null" json:"scoring_model_id"`
	MoveNumber     int  `gorm:"not null;uniqueIndex:idx_submission_scope" json:"move_number"`
	TeamID         uint `gorm:"not null;default:0;uniqueIndex:idx_submission_scope" json:"team_id"`
	UserID         uint `gorm:"not null;default:0;uniqueIndex:idx_submission_scope" json:"user_id"`

	// GroupID carries the team-type id on derived team-type averages.
	GroupID uint `gorm:"not null;default:0" json:"group_id"`

	Score            float64 `gorm:"not null;default:0" json:"score"`
	Status           string  `gorm:"size:32;not null;default:active" json:"status"`
	ScoreIsAnAverage bool    `gorm:"not null;default:false" json:"score_is_an_average"`

	ScoringModel ScoringModel         `gorm:"constraint:OnUpdate:CASCADE" json:"-"`
	Categories   []SubmissionCategory `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"categories"`
	CreatedAt    time.Time            `json:"created_at"`
	UpdatedAt    time.Time            `json:"updated_at"`
}

// IsActive reports whether the submission still accepts mutations.
func (s Submission) IsActive() bool {
	return s.Status == SubmissionStatusActive
}

// IsOfficial reports whether this is the evaluation-wide submission.
func (s Submission) IsOfficial() bool {
	return s.TeamID == 0 && s.UserID == 0
}

// IsTeamScope reports whether this is a team consensus submission.
func (s Submission) IsTeamScope() bool {
	return s.TeamID != 0 && s.UserID == 0
}

// IsUserScope reports whether this is a personal submission.
func (s Submission) IsUserScope() bool {
	return s.UserID != 0
}

// SubmissionCategory snapshots one ScoringCategory at submission-creation
// time. Score is derived from the current selections and never hand-edited.
type SubmissionCategory struct {
	ID                uint    `gorm:"primaryKey" json:"id"`
	SubmissionID      uint    `gorm:"not null;index" json:"submission_id"`
	ScoringCategoryID uint    `gorm:"not null" json:"scoring_category_id"`
	Score             float64 `gorm:"not null;default:0" json:"score"`

	ScoringCategory ScoringCategory    `gorm:"constraint:OnUpdate:CASCADE" json:"scoring_category"`
	Options         []SubmissionOption `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"options"`
	CreatedAt       time.Time          `json:"created_at"`
	UpdatedAt       time.Time          `json:"updated_at"`
}

// SubmissionOption snapshots one ScoringOption. SelectedCount is only
// meaningful on derived average submissions, where it counts contributing
// submissions that had the option selected.
type SubmissionOption struct {
	ID                   uint `gorm:"primaryKey" json:"id"`
	SubmissionCategoryID uint `gorm:"not null;index" json:"submission_category_id"`
	ScoringOptionID      uint `gorm:"not null" json:"scoring_option_id"`
	IsSelected           bool `gorm:"not null;default:false" json:"is_selected"`
	SelectedCount        int  `gorm:"not null;default:0" json:"selected_count"`

	ScoringOption ScoringOption       `gorm:"constraint:OnUpdate:CASCADE" json:"scoring_option"`
	Comments      []SubmissionComment `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"comments"`
	CreatedAt     time.Time           `json:"created_at"`
	UpdatedAt     time.Time           `json:"updated_at"`
}

// SubmissionComment is a free-text note attached to one submission option.
type SubmissionComment struct {
	ID                 uint      `gorm:"primaryKey" json:"id"`
	SubmissionOptionID uint      `gorm:"not null;index" json:"submission_option_id"`
	UserID             uint      `gorm:"not null" json:"user_id"`
	Body               string    `gorm:"type:text;not null" json:"body"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}
