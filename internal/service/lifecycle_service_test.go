package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/dto"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
)

func TestGetOrCreateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	lifecycle := fixture.lifecycle(t)
	ctx := context.Background()

	spec := SubmissionSpec{EvaluationID: fixture.evaluation.ID, MoveNumber: 0, TeamID: fixture.teams[0].ID}

	first, err := lifecycle.GetOrCreate(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, models.SubmissionStatusActive, first.Status)
	require.Zero(t, first.Score)
	require.Len(t, first.Categories, 2)
	require.Len(t, first.Categories[0].Options, 5)
	require.Len(t, first.Categories[1].Options, 2)
	for _, category := range first.Categories {
		require.Zero(t, category.Score)
		for _, option := range category.Options {
			require.False(t, option.IsSelected)
		}
	}

	second, err := lifecycle.GetOrCreate(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

// blindFirstReadRepo simulates losing the creation race: the first scope
// lookup misses even though a competing writer has already inserted the row.
type blindFirstReadRepo struct {
	repository.SubmissionRepository
	misses int
}

func (r *blindFirstReadRepo) GetByScope(ctx context.Context, evaluationID uint, moveNumber int, teamID, userID uint) (models.Submission, error) {
	if r.misses > 0 {
		r.misses--
		return models.Submission{}, gorm.ErrRecordNotFound
	}
	return r.SubmissionRepository.GetByScope(ctx, evaluationID, moveNumber, teamID, userID)
}

func TestGetOrCreateRecoversFromCreationRace(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	ctx := context.Background()

	spec := SubmissionSpec{EvaluationID: fixture.evaluation.ID, MoveNumber: 0, TeamID: fixture.teams[0].ID}

	winner, err := fixture.lifecycle(t).GetOrCreate(ctx, spec)
	require.NoError(t, err)

	submissions := &blindFirstReadRepo{SubmissionRepository: repository.NewSubmissionRepository(db), misses: 1}
	evaluations := repository.NewEvaluationRepository(db)
	rubrics := repository.NewScoringModelRepository(db)
	racer := NewLifecycleService(submissions, evaluations, rubrics, NewAuthorizer(evaluations, zerolog.Nop()), nopRecorder{}, zerolog.Nop())

	loser, err := racer.GetOrCreate(ctx, spec)
	require.NoError(t, err)
	require.Equal(t, winner.ID, loser.ID)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.EqualValues(t, 1, count)
}

func TestGetOrCreateRejectsBadScopes(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	lifecycle := fixture.lifecycle(t)
	ctx := context.Background()

	_, err := lifecycle.GetOrCreate(ctx, SubmissionSpec{EvaluationID: fixture.evaluation.ID, UserID: 100})
	require.ErrorIs(t, err, ErrInvalidScope)

	_, err = lifecycle.GetOrCreate(ctx, SubmissionSpec{EvaluationID: fixture.evaluation.ID, MoveNumber: 3})
	require.ErrorIs(t, err, ErrMoveOutOfRange)

	_, err = lifecycle.GetOrCreate(ctx, SubmissionSpec{EvaluationID: 9999})
	require.ErrorIs(t, err, ErrEvaluationNotFound)
}

func TestAdvanceMoveBackfillsAllScopes(t *testing.T) {
	db := newTestDB(t)
	fixture := seedFixture(t, db)
	lifecycle := fixture.lifecycle(t)
	ctx := context.Background()

	target := 2
	facilitator := Actor{ID: 1, Role: RoleFacilitator}

	evaluation, err := lifecycle.AdvanceMove(ctx, facilitator, fixture.evaluation.ID, dto.AdvanceMoveRequest{MoveNumber: &target})
	require.NoError(t, err)
	require.Equal(t, 2, evaluation.CurrentMoveNumber)

	// Moves 0..2, each with one official and one per-team submission.
	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.EqualValues(t, 9, count)

	var personal int64
	require.NoError(t, db.Model(&models.Submission{}).Where("user_id <> 0").Count(&personal).Error)
	require.Zero(t, personal)

	// Advancing to the same move changes nothing.
	_, err = lifecycle.AdvanceMove(ctx, facilitator, fixture.evaluation.ID, dto.AdvanceMoveRequest{MoveNumber: &target})
	require.NoError(t, err)
	require.NoError(t, db.Model(&models.Submission{}).Count(&count).Error)
	require.EqualValues(t, 9, count)

	_, err = lifecycle.AdvanceMove(ctx, Actor{ID: 100, Role: RoleParticipant}, fixture.evaluation.ID, dto.AdvanceMoveRequest{MoveNumber: &target})
	require.ErrorIs(t, err, ErrForbidden)
}
