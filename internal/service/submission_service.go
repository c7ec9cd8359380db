package service

import (
	"context"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/equation"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/observability"
	"github.com/noah-isme/exeval-api/internal/repository"
	"github.com/noah-isme/exeval-api/internal/scoring"
)

// ErrSubmissionNotFound indicates a submission could not be found.
var ErrSubmissionNotFound = errors.New("submission not found")

// ErrOptionNotFound indicates a submission option could not be found.
var ErrOptionNotFound = errors.New("submission option not found")

// ErrCommentNotFound indicates a submission comment could not be found.
var ErrCommentNotFound = errors.New("submission comment not found")

// ErrSubmissionNotActive indicates a mutation against a completed submission.
var ErrSubmissionNotActive = errors.New("submission is not active")

// ErrEmptyComment indicates a comment body that is empty after sanitization.
var ErrEmptyComment = errors.New("comment body is empty")

// SubmissionService orchestrates the submission aggregate: option toggles,
// bulk clear, copy-forward presets, completion, and option comments. Every
// mutation recomputes the category scores and then the submission total
// before anything is persisted, in one transaction.
type SubmissionService interface {
	Get(ctx context.Context, id uint) (dto.SubmissionResponse, error)
	List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error)
	Request(ctx context.Context, actor Actor, payload dto.SubmissionRequestPayload) (dto.SubmissionResponse, error)
	SetOption(ctx context.Context, actor Actor, optionID uint, payload dto.SetOptionRequest) (dto.SubmissionResponse, error)
	ClearSelections(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error)
	PresetSelections(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error)
	Submit(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error)
	AddComment(ctx context.Context, actor Actor, optionID uint, payload dto.CommentCreateRequest) (dto.SubmissionCommentResponse, error)
	UpdateComment(ctx context.Context, actor Actor, commentID uint, payload dto.CommentUpdateRequest) (dto.SubmissionCommentResponse, error)
	DeleteComment(ctx context.Context, actor Actor, commentID uint) error
}

type submissionService struct {
	submissions repository.SubmissionRepository
	lifecycle   LifecycleService
	authorizer  Authorizer
	events      EventRecorder
	evaluator   *equation.Evaluator
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
	tracer      trace.Tracer
}

// NewSubmissionService constructs a SubmissionService instance.
func NewSubmissionService(
	submissions repository.SubmissionRepository,
	lifecycle LifecycleService,
	authorizer Authorizer,
	events EventRecorder,
	evaluator *equation.Evaluator,
	validate *validator.Validate,
	logger zerolog.Logger,
) SubmissionService {
	return &submissionService{
		submissions: submissions,
		lifecycle:   lifecycle,
		authorizer:  authorizer,
		events:      events,
		evaluator:   evaluator,
		validator:   validate,
		sanitizer:   bluemonday.StrictPolicy(),
		logger:      logger.With().Str("component", "submission_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/exeval-api/internal/service/submission"),
	}
}

func (s *submissionService) Get(ctx context.Context, id uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) List(ctx context.Context, filter dto.SubmissionFilter) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.List(ctx, repository.SubmissionFilter{
		EvaluationID: filter.EvaluationID,
		MoveNumber:   filter.MoveNumber,
		TeamID:       filter.TeamID,
		UserID:       filter.UserID,
		Status:       filter.Status,
	})
	if err != nil {
		return nil, err
	}

	return dto.NewSubmissionResponseSlice(submissions), nil
}

func (s *submissionService) Request(ctx context.Context, actor Actor, payload dto.SubmissionRequestPayload) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Authorize against the scope shape before anything is created.
	candidate := models.Submission{
		EvaluationID: payload.EvaluationID,
		TeamID:       payload.TeamID,
		UserID:       payload.UserID,
	}
	if err := s.authorizer.CanMutateSubmission(ctx, actor, candidate); err != nil {
		return dto.SubmissionResponse{}, err
	}

	submission, err := s.lifecycle.GetOrCreate(ctx, SubmissionSpec{
		EvaluationID: payload.EvaluationID,
		MoveNumber:   *payload.MoveNumber,
		TeamID:       payload.TeamID,
		UserID:       payload.UserID,
	})
	if err != nil {
		return dto.SubmissionResponse{}, err
	}

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) SetOption(ctx context.Context, actor Actor, optionID uint, payload dto.SetOptionRequest) (dto.SubmissionResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionResponse{}, err
	}
	selected := *payload.Selected

	ctx, span := s.tracer.Start(ctx, "submission.set_option", trace.WithAttributes(
		attribute.Int64("option_id", int64(optionID)),
		attribute.Bool("selected", selected),
	))
	defer span.End()

	submission, err := s.loadByOption(ctx, optionID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "option_lookup_failed")
		return dto.SubmissionResponse{}, err
	}

	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !submission.IsActive() {
		return dto.SubmissionResponse{}, ErrSubmissionNotActive
	}

	category, option := locateOption(&submission, optionID)
	if option == nil {
		return dto.SubmissionResponse{}, ErrOptionNotFound
	}

	// Cardinality: one modifier at a time, and in single-selection
	// categories one non-modifier at a time.
	if selected {
		if option.ScoringOption.IsModifier {
			for i := range category.Options {
				if category.Options[i].ID != option.ID && category.Options[i].ScoringOption.IsModifier {
					category.Options[i].IsSelected = false
				}
			}
		} else if !category.ScoringCategory.AllowsMultiple() {
			for i := range category.Options {
				if category.Options[i].ID != option.ID && !category.Options[i].ScoringOption.IsModifier {
					category.Options[i].IsSelected = false
				}
			}
		}
	}
	option.IsSelected = selected

	scoring.Rescore(s.evaluator, &submission)

	if err := s.submissions.SaveTree(ctx, &submission, false); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.SubmissionResponse{}, err
	}

	observability.OptionToggles().Inc()
	s.events.Emit(ctx, Event{
		EvaluationID: submission.EvaluationID,
		SubmissionID: &submission.ID,
		ActorID:      actor.ID,
		Action:       models.EventOptionSet,
		Metadata: map[string]interface{}{
			"option_id": optionID,
			"selected":  selected,
		},
	})

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) ClearSelections(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.clear", trace.WithAttributes(
		attribute.Int64("submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !submission.IsActive() {
		return dto.SubmissionResponse{}, ErrSubmissionNotActive
	}

	for i := range submission.Categories {
		submission.Categories[i].Score = 0
		for j := range submission.Categories[i].Options {
			submission.Categories[i].Options[j].IsSelected = false
			submission.Categories[i].Options[j].Comments = nil
		}
	}
	submission.Score = 0

	if err := s.submissions.SaveTree(ctx, &submission, true); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.SubmissionResponse{}, err
	}

	s.events.Emit(ctx, Event{
		EvaluationID: submission.EvaluationID,
		SubmissionID: &submission.ID,
		ActorID:      actor.ID,
		Action:       models.EventSubmissionCleared,
	})

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) PresetSelections(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error) {
	ctx, span := s.tracer.Start(ctx, "submission.preset", trace.WithAttributes(
		attribute.Int64("submission_id", int64(submissionID)),
	))
	defer span.End()

	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return dto.SubmissionResponse{}, err
	}
	if !submission.IsActive() {
		return dto.SubmissionResponse{}, ErrSubmissionNotActive
	}

	// The base is the same scope one move earlier; without one this is a
	// no-op, not an error.
	if submission.MoveNumber == 0 {
		return dto.NewSubmissionResponse(submission), nil
	}
	base, err := s.submissions.GetByScope(ctx, submission.EvaluationID, submission.MoveNumber-1, submission.TeamID, submission.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.NewSubmissionResponse(submission), nil
		}
		return dto.SubmissionResponse{}, err
	}

	copyForward(&submission, base)

	if err := s.submissions.SaveTree(ctx, &submission, false); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "persist_failed")
		return dto.SubmissionResponse{}, err
	}

	s.events.Emit(ctx, Event{
		EvaluationID: submission.EvaluationID,
		SubmissionID: &submission.ID,
		ActorID:      actor.ID,
		Action:       models.EventSubmissionPreset,
		Metadata:     map[string]interface{}{"base_submission_id": base.ID},
	})

	return dto.NewSubmissionResponse(submission), nil
}

// copyForward copies the base's selections and scores onto the target,
// matching categories and options by their originating rubric ids. The
// base's scores are already authoritative for that selection state, so they
// are copied as-is rather than recomputed.
func copyForward(target *models.Submission, base models.Submission) {
	baseCategories := make(map[uint]*models.SubmissionCategory, len(base.Categories))
	for i := range base.Categories {
		baseCategories[base.Categories[i].ScoringCategoryID] = &base.Categories[i]
	}

	for i := range target.Categories {
		category := &target.Categories[i]
		baseCategory, ok := baseCategories[category.ScoringCategoryID]
		if !ok {
			continue
		}

		baseOptions := make(map[uint]bool, len(baseCategory.Options))
		for _, option := range baseCategory.Options {
			baseOptions[option.ScoringOptionID] = option.IsSelected
		}

		for j := range category.Options {
			if selected, ok := baseOptions[category.Options[j].ScoringOptionID]; ok {
				category.Options[j].IsSelected = selected
			}
		}

		category.Score = baseCategory.Score
	}

	target.Score = base.Score
}

func (s *submissionService) Submit(ctx context.Context, actor Actor, submissionID uint) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return dto.SubmissionResponse{}, err
	}

	// Marking a completed submission done again is a no-op.
	if !submission.IsActive() {
		return dto.NewSubmissionResponse(submission), nil
	}

	if err := s.submissions.UpdateStatus(ctx, submissionID, models.SubmissionStatusComplete); err != nil {
		return dto.SubmissionResponse{}, err
	}
	submission.Status = models.SubmissionStatusComplete

	s.events.Emit(ctx, Event{
		EvaluationID: submission.EvaluationID,
		SubmissionID: &submission.ID,
		ActorID:      actor.ID,
		Action:       models.EventSubmissionSubmitted,
	})

	s.logger.Info().Uint("submission_id", submissionID).Msg("submission marked complete")

	return dto.NewSubmissionResponse(submission), nil
}

func (s *submissionService) AddComment(ctx context.Context, actor Actor, optionID uint, payload dto.CommentCreateRequest) (dto.SubmissionCommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionCommentResponse{}, err
	}

	submission, err := s.loadByOption(ctx, optionID)
	if err != nil {
		return dto.SubmissionCommentResponse{}, err
	}
	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return dto.SubmissionCommentResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.SubmissionCommentResponse{}, ErrEmptyComment
	}

	comment := models.SubmissionComment{
		SubmissionOptionID: optionID,
		UserID:             actor.ID,
		Body:               body,
	}
	if err := s.submissions.CreateComment(ctx, &comment); err != nil {
		return dto.SubmissionCommentResponse{}, err
	}

	return dto.NewSubmissionCommentResponse(comment), nil
}

func (s *submissionService) UpdateComment(ctx context.Context, actor Actor, commentID uint, payload dto.CommentUpdateRequest) (dto.SubmissionCommentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.SubmissionCommentResponse{}, err
	}

	comment, err := s.submissions.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionCommentResponse{}, ErrCommentNotFound
		}
		return dto.SubmissionCommentResponse{}, err
	}

	submission, err := s.loadByOption(ctx, comment.SubmissionOptionID)
	if err != nil {
		return dto.SubmissionCommentResponse{}, err
	}
	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return dto.SubmissionCommentResponse{}, err
	}

	body := strings.TrimSpace(s.sanitizer.Sanitize(payload.Body))
	if body == "" {
		return dto.SubmissionCommentResponse{}, ErrEmptyComment
	}

	comment.Body = body
	if err := s.submissions.UpdateComment(ctx, &comment); err != nil {
		return dto.SubmissionCommentResponse{}, err
	}

	return dto.NewSubmissionCommentResponse(comment), nil
}

func (s *submissionService) DeleteComment(ctx context.Context, actor Actor, commentID uint) error {
	comment, err := s.submissions.GetComment(ctx, commentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrCommentNotFound
		}
		return err
	}

	submission, err := s.loadByOption(ctx, comment.SubmissionOptionID)
	if err != nil {
		return err
	}
	if err := s.authorizer.CanMutateSubmission(ctx, actor, submission); err != nil {
		return err
	}

	return s.submissions.DeleteComment(ctx, commentID)
}

// loadByOption resolves an option id up to its owning submission aggregate.
func (s *submissionService) loadByOption(ctx context.Context, optionID uint) (models.Submission, error) {
	option, err := s.submissions.GetOption(ctx, optionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrOptionNotFound
		}
		return models.Submission{}, err
	}

	category, err := s.submissions.GetCategory(ctx, option.SubmissionCategoryID)
	if err != nil {
		return models.Submission{}, err
	}

	submission, err := s.submissions.GetByID(ctx, category.SubmissionID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Submission{}, ErrSubmissionNotFound
		}
		return models.Submission{}, err
	}

	return submission, nil
}

func locateOption(submission *models.Submission, optionID uint) (*models.SubmissionCategory, *models.SubmissionOption) {
	for i := range submission.Categories {
		for j := range submission.Categories[i].Options {
			if submission.Categories[i].Options[j].ID == optionID {
				return &submission.Categories[i], &submission.Categories[i].Options[j]
			}
		}
	}
	return nil, nil
}
