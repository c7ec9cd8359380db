package dto

import (
	"time"

	"github.com/noah-isme/exeval-api/internal/models"
)

// EventResponse is one persisted engine event.
type EventResponse struct {
	ID           uint                   `json:"id"`
	EvaluationID uint                   `json:"evaluation_id"`
	SubmissionID *uint                  `json:"submission_id"`
	ActorID      uint                   `json:"actor_id"`
	Action       string                 `json:"action"`
	Metadata     map[string]interface{} `json:"metadata"`
	CreatedAt    time.Time              `json:"created_at"`
}

// NewEventResponseSlice maps persisted events onto their wire shape.
func NewEventResponseSlice(events []models.EventLog) []EventResponse {
	responses := make([]EventResponse, 0, len(events))
	for _, event := range events {
		responses = append(responses, EventResponse{
			ID:           event.ID,
			EvaluationID: event.EvaluationID,
			SubmissionID: event.SubmissionID,
			ActorID:      event.ActorID,
			Action:       event.Action,
			Metadata:     event.Metadata,
			CreatedAt:    event.CreatedAt,
		})
	}
	return responses
}
