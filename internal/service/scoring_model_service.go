package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
)

// ErrScoringModelNotFound indicates an unknown scoring model id.
var ErrScoringModelNotFound = errors.New("scoring model not found")

// ScoringModelService manages the rubric definitions submissions snapshot
// from. Models are append-only: once created they can only be archived, so
// that existing submissions keep pointing at the structure they were scored
// against.
type ScoringModelService interface {
	Create(ctx context.Context, actor Actor, payload dto.ScoringModelCreateRequest) (dto.ScoringModelResponse, error)
	Get(ctx context.Context, id uint) (dto.ScoringModelResponse, error)
	List(ctx context.Context) ([]dto.ScoringModelResponse, error)
	Archive(ctx context.Context, actor Actor, id uint) error
}

type scoringModelService struct {
	models     repository.ScoringModelRepository
	authorizer Authorizer
	validator  *validator.Validate
	logger     zerolog.Logger
}

// NewScoringModelService constructs a ScoringModelService instance.
func NewScoringModelService(
	repo repository.ScoringModelRepository,
	authorizer Authorizer,
	validate *validator.Validate,
	logger zerolog.Logger,
) ScoringModelService {
	return &scoringModelService{
		models:     repo,
		authorizer: authorizer,
		validator:  validate,
		logger:     logger.With().Str("component", "scoring_model_service").Logger(),
	}
}

func (s *scoringModelService) Create(ctx context.Context, actor Actor, payload dto.ScoringModelCreateRequest) (dto.ScoringModelResponse, error) {
	if err := s.authorizer.CanManageModels(ctx, actor); err != nil {
		return dto.ScoringModelResponse{}, err
	}
	if err := s.validator.Struct(payload); err != nil {
		return dto.ScoringModelResponse{}, err
	}

	model := buildScoringModel(payload)
	if err := s.models.Create(ctx, &model); err != nil {
		return dto.ScoringModelResponse{}, err
	}

	s.logger.Info().Uint("scoring_model_id", model.ID).Str("name", model.Name).Msg("scoring model created")

	return dto.NewScoringModelResponse(model), nil
}

func (s *scoringModelService) Get(ctx context.Context, id uint) (dto.ScoringModelResponse, error) {
	model, err := s.models.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ScoringModelResponse{}, ErrScoringModelNotFound
		}
		return dto.ScoringModelResponse{}, err
	}

	return dto.NewScoringModelResponse(model), nil
}

func (s *scoringModelService) List(ctx context.Context) ([]dto.ScoringModelResponse, error) {
	scoringModels, err := s.models.List(ctx)
	if err != nil {
		return nil, err
	}

	return dto.NewScoringModelResponseSlice(scoringModels), nil
}

func (s *scoringModelService) Archive(ctx context.Context, actor Actor, id uint) error {
	if err := s.authorizer.CanManageModels(ctx, actor); err != nil {
		return err
	}

	if err := s.models.UpdateStatus(ctx, id, models.ScoringModelStatusArchived); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrScoringModelNotFound
		}
		return err
	}

	return nil
}

func buildScoringModel(payload dto.ScoringModelCreateRequest) models.ScoringModel {
	model := models.ScoringModel{
		Name:                payload.Name,
		Description:         payload.Description,
		CalculationEquation: payload.CalculationEquation,
		Status:              models.ScoringModelStatusActive,
		UseOfficialScore:    payload.UseOfficialScore,
		UseTeamScore:        payload.UseTeamScore,
		UseUserScore:        payload.UseUserScore,
		UseTeamAverageScore: payload.UseTeamAverageScore,
		UseTypeAverageScore: payload.UseTypeAverageScore,
	}

	for _, categoryPayload := range payload.Categories {
		selection := categoryPayload.OptionSelection
		if selection == "" {
			selection = models.SelectionSingle
		}
		category := models.ScoringCategory{
			Name:                categoryPayload.Name,
			CalculationEquation: categoryPayload.CalculationEquation,
			ScoringWeight:       categoryPayload.ScoringWeight,
			IsModifierRequired:  categoryPayload.IsModifierRequired,
			OptionSelection:     selection,
			DisplayOrder:        categoryPayload.DisplayOrder,
		}
		if category.ScoringWeight == 0 {
			category.ScoringWeight = 1
		}
		for _, optionPayload := range categoryPayload.Options {
			category.Options = append(category.Options, models.ScoringOption{
				Description:  optionPayload.Description,
				Value:        optionPayload.Value,
				IsModifier:   optionPayload.IsModifier,
				DisplayOrder: optionPayload.DisplayOrder,
			})
		}
		model.Categories = append(model.Categories, category)
	}

	return model
}
