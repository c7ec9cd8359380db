package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/noah-isme/exeval-api/internal/equation"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/repository"
)

// nopRecorder satisfies EventRecorder for tests that do not assert on
// telemetry.
type nopRecorder struct{}

func (nopRecorder) Emit(context.Context, Event) {}

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file:"+t.Name()+"?mode=memory&cache=shared"), &gorm.Config{
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.ScoringModel{}, &models.ScoringCategory{}, &models.ScoringOption{},
		&models.Evaluation{}, &models.TeamType{}, &models.Team{}, &models.TeamMembership{},
		&models.Submission{}, &models.SubmissionCategory{}, &models.SubmissionOption{}, &models.SubmissionComment{},
		&models.EventLog{},
	))

	return db
}

// testFixture seeds a rubric, an evaluation with two teams of one type, and
// one member per team.
type testFixture struct {
	db         *gorm.DB
	model      models.ScoringModel
	evaluation models.Evaluation
	teamType   models.TeamType
	teams      []models.Team
}

// Rubric layout: "Findings" is a multi-select category with values 2/3/5 and
// two modifiers (0.5 and 0.25), scored as {sum} * {modifier}. "Response" is
// single-select with values 4/8, clamped to [0, 10] and weighted double.
func seedFixture(t *testing.T, db *gorm.DB) testFixture {
	t.Helper()

	model := models.ScoringModel{
		Name:                "Incident Rubric",
		CalculationEquation: "{sum}",
		Status:              models.ScoringModelStatusActive,
		Categories: []models.ScoringCategory{
			{
				Name:                "Findings",
				CalculationEquation: "{sum} * {modifier}",
				ScoringWeight:       1,
				OptionSelection:     models.SelectionMultiple,
				DisplayOrder:        0,
				Options: []models.ScoringOption{
					{Description: "Minor finding", Value: 2, DisplayOrder: 0},
					{Description: "Major finding", Value: 3, DisplayOrder: 1},
					{Description: "Critical finding", Value: 5, DisplayOrder: 2},
					{Description: "Partial evidence", Value: 0.5, IsModifier: true, DisplayOrder: 3},
					{Description: "Weak evidence", Value: 0.25, IsModifier: true, DisplayOrder: 4},
				},
			},
			{
				Name:                "Response",
				CalculationEquation: "10 > {sum} > 0",
				ScoringWeight:       2,
				OptionSelection:     models.SelectionSingle,
				DisplayOrder:        1,
				Options: []models.ScoringOption{
					{Description: "Contained", Value: 4, DisplayOrder: 0},
					{Description: "Eradicated", Value: 8, DisplayOrder: 1},
				},
			},
		},
	}
	require.NoError(t, db.Create(&model).Error)

	teamType := models.TeamType{
		Name:                       "Blue Cell",
		IsOfficialScoreContributor: true,
		ShowTeamTypeAverage:        true,
	}
	require.NoError(t, db.Create(&teamType).Error)

	evaluation := models.Evaluation{
		Name:           "Quarterly Exercise",
		ScoringModelID: model.ID,
		Status:         models.EvaluationStatusActive,
		Teams: []models.Team{
			{Name: "Team Alpha", TeamTypeID: teamType.ID},
			{Name: "Team Bravo", TeamTypeID: teamType.ID},
		},
	}
	require.NoError(t, db.Create(&evaluation).Error)

	for i, team := range evaluation.Teams {
		membership := models.TeamMembership{TeamID: team.ID, UserID: uint(100 + i)}
		require.NoError(t, db.Create(&membership).Error)
	}

	return testFixture{
		db:         db,
		model:      model,
		evaluation: evaluation,
		teamType:   teamType,
		teams:      evaluation.Teams,
	}
}

func (f testFixture) lifecycle(t *testing.T) LifecycleService {
	t.Helper()

	submissions := repository.NewSubmissionRepository(f.db)
	evaluations := repository.NewEvaluationRepository(f.db)
	rubrics := repository.NewScoringModelRepository(f.db)
	authorizer := NewAuthorizer(evaluations, zerolog.Nop())

	return NewLifecycleService(submissions, evaluations, rubrics, authorizer, nopRecorder{}, zerolog.Nop())
}

func (f testFixture) setCurrentMove(t *testing.T, move int) {
	t.Helper()
	require.NoError(t, f.db.Model(&models.Evaluation{}).
		Where("id = ?", f.evaluation.ID).
		Update("current_move_number", move).Error)
}

func findOptionID(t *testing.T, submission models.Submission, description string) uint {
	t.Helper()
	for _, category := range submission.Categories {
		for _, option := range category.Options {
			if option.ScoringOption.Description == description {
				return option.ID
			}
		}
	}
	t.Fatalf("option %q not found in submission %d", description, submission.ID)
	return 0
}

func newEvaluator() *equation.Evaluator {
	return equation.New(zerolog.Nop())
}
