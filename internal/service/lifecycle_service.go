package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/observability"
	"github.com/noah-isme/exeval-api/internal/repository"
)

// ErrEvaluationNotFound indicates the evaluation could not be located.
var ErrEvaluationNotFound = errors.New("evaluation not found")

// ErrMoveOutOfRange indicates a requested move outside [0, currentMove].
var ErrMoveOutOfRange = errors.New("move number out of range")

// ErrInvalidScope indicates a malformed submission scope, such as a user
// without a team.
var ErrInvalidScope = errors.New("invalid submission scope")

// SubmissionSpec identifies one submission scope to create or fetch.
type SubmissionSpec struct {
	EvaluationID uint
	MoveNumber   int
	TeamID       uint
	UserID       uint
}

// LifecycleService guarantees that the right set of submissions exists for
// every move of an evaluation: one official and one per attached team,
// created lazily and idempotently. Concurrent callers racing to create the
// same scope are expected; the loser re-reads the winner's row.
type LifecycleService interface {
	EnsureSubmissionsThroughMove(ctx context.Context, evaluationID uint, targetMove int) error
	GetOrCreate(ctx context.Context, spec SubmissionSpec) (models.Submission, error)
	AdvanceMove(ctx context.Context, actor Actor, evaluationID uint, payload dto.AdvanceMoveRequest) (dto.EvaluationResponse, error)
	GetEvaluation(ctx context.Context, evaluationID uint) (dto.EvaluationResponse, error)
}

type lifecycleService struct {
	submissions repository.SubmissionRepository
	evaluations repository.EvaluationRepository
	rubrics     repository.ScoringModelRepository
	authorizer  Authorizer
	events      EventRecorder
	logger      zerolog.Logger
}

// NewLifecycleService constructs the lifecycle manager.
func NewLifecycleService(
	submissions repository.SubmissionRepository,
	evaluations repository.EvaluationRepository,
	rubrics repository.ScoringModelRepository,
	authorizer Authorizer,
	events EventRecorder,
	logger zerolog.Logger,
) LifecycleService {
	return &lifecycleService{
		submissions: submissions,
		evaluations: evaluations,
		rubrics:     rubrics,
		authorizer:  authorizer,
		events:      events,
		logger:      logger.With().Str("component", "lifecycle_service").Logger(),
	}
}

func (s *lifecycleService) GetEvaluation(ctx context.Context, evaluationID uint) (dto.EvaluationResponse, error) {
	evaluation, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	return dto.NewEvaluationResponse(evaluation), nil
}

func (s *lifecycleService) EnsureSubmissionsThroughMove(ctx context.Context, evaluationID uint, targetMove int) error {
	evaluation, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrEvaluationNotFound
		}
		return err
	}

	teams, err := s.evaluations.ListTeams(ctx, evaluationID)
	if err != nil {
		return err
	}

	for move := 0; move <= targetMove; move++ {
		spec := SubmissionSpec{EvaluationID: evaluationID, MoveNumber: move}
		if _, err := s.getOrCreate(ctx, spec, evaluation.ScoringModelID); err != nil {
			return err
		}

		for _, team := range teams {
			spec := SubmissionSpec{EvaluationID: evaluationID, MoveNumber: move, TeamID: team.ID}
			if _, err := s.getOrCreate(ctx, spec, evaluation.ScoringModelID); err != nil {
				return err
			}
		}
	}

	return nil
}

func (s *lifecycleService) GetOrCreate(ctx context.Context, spec SubmissionSpec) (models.Submission, error) {
	if spec.UserID != 0 && spec.TeamID == 0 {
		return models.Submission{}, ErrInvalidScope
	}

	evaluation, err := s.evaluations.GetByID(ctx, spec.EvaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrEvaluationNotFound
		}
		return models.Submission{}, err
	}

	if spec.MoveNumber < 0 || spec.MoveNumber > evaluation.CurrentMoveNumber {
		return models.Submission{}, ErrMoveOutOfRange
	}

	return s.getOrCreate(ctx, spec, evaluation.ScoringModelID)
}

// getOrCreate checks for the exact scope row first and otherwise constructs
// a fresh snapshot. The duplicate-key conflict on create is the expected
// outcome of two callers racing; the loser re-reads the winner's row.
func (s *lifecycleService) getOrCreate(ctx context.Context, spec SubmissionSpec, scoringModelID uint) (models.Submission, error) {
	existing, err := s.submissions.GetByScope(ctx, spec.EvaluationID, spec.MoveNumber, spec.TeamID, spec.UserID)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Submission{}, err
	}

	submission, err := s.buildSnapshot(ctx, spec, scoringModelID)
	if err != nil {
		return models.Submission{}, err
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			observability.SubmissionConflicts().Inc()
			s.logger.Debug().
				Uint("evaluation_id", spec.EvaluationID).
				Int("move_number", spec.MoveNumber).
				Uint("team_id", spec.TeamID).
				Uint("user_id", spec.UserID).
				Msg("lost submission creation race, re-reading winner")
			return s.submissions.GetByScope(ctx, spec.EvaluationID, spec.MoveNumber, spec.TeamID, spec.UserID)
		}
		return models.Submission{}, err
	}

	observability.SubmissionsCreated().WithLabelValues(scopeLabel(submission)).Inc()
	s.events.Emit(ctx, Event{
		EvaluationID: spec.EvaluationID,
		SubmissionID: &submission.ID,
		Action:       models.EventSubmissionCreated,
		Metadata: map[string]interface{}{
			"move_number": spec.MoveNumber,
			"team_id":     spec.TeamID,
			"user_id":     spec.UserID,
		},
	})

	// Reload to pick up the rubric references on the fresh tree.
	return s.submissions.GetByID(ctx, submission.ID)
}

// buildSnapshot mirrors the rubric tree into a fresh, unselected submission
// aggregate. Later rubric edits never touch this snapshot.
func (s *lifecycleService) buildSnapshot(ctx context.Context, spec SubmissionSpec, scoringModelID uint) (models.Submission, error) {
	rubric, err := s.rubrics.GetByID(ctx, scoringModelID)
	if err != nil {
		return models.Submission{}, err
	}

	categories := make([]models.SubmissionCategory, 0, len(rubric.Categories))
	for _, category := range rubric.Categories {
		options := make([]models.SubmissionOption, 0, len(category.Options))
		for _, option := range category.Options {
			options = append(options, models.SubmissionOption{ScoringOptionID: option.ID})
		}
		categories = append(categories, models.SubmissionCategory{
			ScoringCategoryID: category.ID,
			Options:           options,
		})
	}

	return models.Submission{
		EvaluationID:   spec.EvaluationID,
		ScoringModelID: rubric.ID,
		MoveNumber:     spec.MoveNumber,
		TeamID:         spec.TeamID,
		UserID:         spec.UserID,
		Status:         models.SubmissionStatusActive,
		Categories:     categories,
	}, nil
}

func (s *lifecycleService) AdvanceMove(ctx context.Context, actor Actor, evaluationID uint, payload dto.AdvanceMoveRequest) (dto.EvaluationResponse, error) {
	tracer := otel.Tracer("github.com/noah-isme/exeval-api/internal/service/lifecycle")
	ctx, span := tracer.Start(ctx, "lifecycle.advance_move")
	span.SetAttributes(attribute.Int64("evaluation_id", int64(evaluationID)))
	defer span.End()

	if err := s.authorizer.CanIncrementMove(ctx, actor, evaluationID); err != nil {
		return dto.EvaluationResponse{}, err
	}

	if payload.MoveNumber == nil || *payload.MoveNumber < 0 {
		return dto.EvaluationResponse{}, ErrMoveOutOfRange
	}
	target := *payload.MoveNumber

	evaluation, err := s.evaluations.GetByID(ctx, evaluationID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.EvaluationResponse{}, ErrEvaluationNotFound
		}
		return dto.EvaluationResponse{}, err
	}

	if target != evaluation.CurrentMoveNumber {
		if err := s.evaluations.UpdateCurrentMove(ctx, evaluationID, target); err != nil {
			return dto.EvaluationResponse{}, err
		}
		evaluation.CurrentMoveNumber = target
	}

	if err := s.EnsureSubmissionsThroughMove(ctx, evaluationID, target); err != nil {
		return dto.EvaluationResponse{}, err
	}

	s.events.Emit(ctx, Event{
		EvaluationID: evaluationID,
		ActorID:      actor.ID,
		Action:       models.EventMoveAdvanced,
		Metadata:     map[string]interface{}{"move_number": target},
	})

	s.logger.Info().Uint("evaluation_id", evaluationID).Int("move_number", target).Msg("evaluation move advanced")

	return dto.NewEvaluationResponse(evaluation), nil
}

func scopeLabel(submission models.Submission) string {
	switch {
	case submission.IsUserScope():
		return "user"
	case submission.IsTeamScope():
		return "team"
	default:
		return "official"
	}
}
