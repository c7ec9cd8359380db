package dto

import (
	"time"

	"github.com/noah-isme/exeval-api/internal/models"
)

// AdvanceMoveRequest moves the evaluation to the given move number. The
// lifecycle manager backfills official and team submissions for every move
// up to and including it.
type AdvanceMoveRequest struct {
	MoveNumber *int `json:"move_number" validate:"required,gte=0"`
}

// EvaluationResponse is the wire shape of an exercise.
type EvaluationResponse struct {
	ID                uint           `json:"id"`
	Name              string         `json:"name"`
	ScoringModelID    uint           `json:"scoring_model_id"`
	CurrentMoveNumber int            `json:"current_move_number"`
	Status            string         `json:"status"`
	Teams             []TeamResponse `json:"teams"`
	CreatedAt         time.Time      `json:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at"`
}

// TeamResponse is one scoring group.
type TeamResponse struct {
	ID                         uint   `json:"id"`
	Name                       string `json:"name"`
	TeamTypeID                 uint   `json:"team_type_id"`
	TeamTypeName               string `json:"team_type_name"`
	IsOfficialScoreContributor bool   `json:"is_official_score_contributor"`
	ShowTeamTypeAverage        bool   `json:"show_team_type_average"`
}

// NewEvaluationResponse maps an evaluation onto its wire shape.
func NewEvaluationResponse(evaluation models.Evaluation) EvaluationResponse {
	teams := make([]TeamResponse, 0, len(evaluation.Teams))
	for _, team := range evaluation.Teams {
		teams = append(teams, TeamResponse{
			ID:                         team.ID,
			Name:                       team.Name,
			TeamTypeID:                 team.TeamTypeID,
			TeamTypeName:               team.TeamType.Name,
			IsOfficialScoreContributor: team.TeamType.IsOfficialScoreContributor,
			ShowTeamTypeAverage:        team.TeamType.ShowTeamTypeAverage,
		})
	}

	return EvaluationResponse{
		ID:                evaluation.ID,
		Name:              evaluation.Name,
		ScoringModelID:    evaluation.ScoringModelID,
		CurrentMoveNumber: evaluation.CurrentMoveNumber,
		Status:            evaluation.Status,
		Teams:             teams,
		CreatedAt:         evaluation.CreatedAt,
		UpdatedAt:         evaluation.UpdatedAt,
	}
}
