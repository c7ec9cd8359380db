package dto

import (
	"time"

	"github.com/noah-isme/exeval-api/internal/models"
)

// ScoringModelCreateRequest carries a full rubric tree in one payload.
type ScoringModelCreateRequest struct {
	Name                string                          `json:"name" validate:"required,max=255"`
	Description         string                          `json:"description"`
	CalculationEquation string                          `json:"calculation_equation" validate:"required"`
	UseOfficialScore    bool                            `json:"use_official_score"`
	UseTeamScore        bool                            `json:"use_team_score"`
	UseUserScore        bool                            `json:"use_user_score"`
	UseTeamAverageScore bool                            `json:"use_team_average_score"`
	UseTypeAverageScore bool                            `json:"use_type_average_score"`
	Categories          []ScoringCategoryCreateRequest  `json:"categories" validate:"dive"`
}

// ScoringCategoryCreateRequest is one rubric dimension within a create payload.
type ScoringCategoryCreateRequest struct {
	Name                string                        `json:"name" validate:"required,max=255"`
	CalculationEquation string                        `json:"calculation_equation" validate:"required"`
	ScoringWeight       float64                       `json:"scoring_weight"`
	IsModifierRequired  bool                          `json:"is_modifier_required"`
	OptionSelection     string                        `json:"option_selection" validate:"omitempty,oneof=single multiple"`
	DisplayOrder        int                           `json:"display_order"`
	Options             []ScoringOptionCreateRequest  `json:"options" validate:"dive"`
}

// ScoringOptionCreateRequest is one selectable entry within a create payload.
type ScoringOptionCreateRequest struct {
	Description  string  `json:"description" validate:"max=512"`
	Value        float64 `json:"value"`
	IsModifier   bool    `json:"is_modifier"`
	DisplayOrder int     `json:"display_order"`
}

// ScoringModelResponse is the wire shape of a rubric tree.
type ScoringModelResponse struct {
	ID                  uint                      `json:"id"`
	Name                string                    `json:"name"`
	Description         string                    `json:"description"`
	CalculationEquation string                    `json:"calculation_equation"`
	Status              string                    `json:"status"`
	UseOfficialScore    bool                      `json:"use_official_score"`
	UseTeamScore        bool                      `json:"use_team_score"`
	UseUserScore        bool                      `json:"use_user_score"`
	UseTeamAverageScore bool                      `json:"use_team_average_score"`
	UseTypeAverageScore bool                      `json:"use_type_average_score"`
	Categories          []ScoringCategoryResponse `json:"categories"`
	CreatedAt           time.Time                 `json:"created_at"`
	UpdatedAt           time.Time                 `json:"updated_at"`
}

// ScoringCategoryResponse is one rubric dimension.
type ScoringCategoryResponse struct {
	ID                  uint                    `json:"id"`
	Name                string                  `json:"name"`
	CalculationEquation string                  `json:"calculation_equation"`
	ScoringWeight       float64                 `json:"scoring_weight"`
	IsModifierRequired  bool                    `json:"is_modifier_required"`
	OptionSelection     string                  `json:"option_selection"`
	DisplayOrder        int                     `json:"display_order"`
	Options             []ScoringOptionResponse `json:"options"`
}

// ScoringOptionResponse is one selectable rubric entry.
type ScoringOptionResponse struct {
	ID           uint    `json:"id"`
	Description  string  `json:"description"`
	Value        float64 `json:"value"`
	IsModifier   bool    `json:"is_modifier"`
	DisplayOrder int     `json:"display_order"`
}

// NewScoringModelResponse maps a rubric tree onto its wire shape.
func NewScoringModelResponse(model models.ScoringModel) ScoringModelResponse {
	categories := make([]ScoringCategoryResponse, 0, len(model.Categories))
	for _, category := range model.Categories {
		options := make([]ScoringOptionResponse, 0, len(category.Options))
		for _, option := range category.Options {
			options = append(options, ScoringOptionResponse{
				ID:           option.ID,
				Description:  option.Description,
				Value:        option.Value,
				IsModifier:   option.IsModifier,
				DisplayOrder: option.DisplayOrder,
			})
		}

		categories = append(categories, ScoringCategoryResponse{
			ID:                  category.ID,
			Name:                category.Name,
			CalculationEquation: category.CalculationEquation,
			ScoringWeight:       category.ScoringWeight,
			IsModifierRequired:  category.IsModifierRequired,
			OptionSelection:     category.OptionSelection,
			DisplayOrder:        category.DisplayOrder,
			Options:             options,
		})
	}

	return ScoringModelResponse{
		ID:                  model.ID,
		Name:                model.Name,
		Description:         model.Description,
		CalculationEquation: model.CalculationEquation,
		Status:              model.Status,
		UseOfficialScore:    model.UseOfficialScore,
		UseTeamScore:        model.UseTeamScore,
		UseUserScore:        model.UseUserScore,
		UseTeamAverageScore: model.UseTeamAverageScore,
		UseTypeAverageScore: model.UseTypeAverageScore,
		Categories:          categories,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

// NewScoringModelResponseSlice maps a list of rubric trees.
func NewScoringModelResponseSlice(modelsList []models.ScoringModel) []ScoringModelResponse {
	responses := make([]ScoringModelResponse, 0, len(modelsList))
	for _, model := range modelsList {
		responses = append(responses, NewScoringModelResponse(model))
	}
	return responses
}
