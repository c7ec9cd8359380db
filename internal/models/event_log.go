package models

import (
	"time"

	"gorm.io/datatypes"
)

// Engine event actions recorded in the log and mirrored to the brokers.
const (
	EventSubmissionCreated   = "submission_created"
	EventOptionSet           = "option_set"
	EventSubmissionCleared   = "submission_cleared"
	EventSubmissionPreset    = "submission_preset"
	EventSubmissionSubmitted = "submission_submitted"
	EventMoveAdvanced        = "move_advanced"
)

// EventLog captures notable engine events. Emission is best effort and never
// blocks the operation that produced the event.
type EventLog struct {
	ID           uint              `gorm:"primaryKey" json:"id"`
	EvaluationID uint              `gorm:"not null;index" json:"evaluation_id"`
	SubmissionID *uint             `json:"submission_id"`
	ActorID      uint              `gorm:"not null" json:"actor_id"`
	Action       string            `gorm:"size:64;not null" json:"action"`
	Metadata     datatypes.JSONMap `gorm:"type:json" json:"metadata"`
	CreatedAt    time.Time         `json:"created_at"`
}
