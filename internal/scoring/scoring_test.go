package scoring_test

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exeval-api/internal/equation"
	"github.com/noah-isme/exeval-api/internal/models"
	"github.com/noah-isme/exeval-api/internal/scoring"
)

func newEvaluator() *equation.Evaluator {
	return equation.New(zerolog.New(io.Discard))
}

func sumCategory(selected ...bool) models.SubmissionCategory {
	// Options A(2), B(5) and modifier M(1), category equation "{sum}".
	category := models.SubmissionCategory{
		ScoringCategoryID: 10,
		ScoringCategory: models.ScoringCategory{
			ID:                  10,
			CalculationEquation: "{sum}",
			ScoringWeight:       1,
			OptionSelection:     models.SelectionSingle,
		},
		Options: []models.SubmissionOption{
			{ScoringOptionID: 1, ScoringOption: models.ScoringOption{ID: 1, Value: 2}},
			{ScoringOptionID: 2, ScoringOption: models.ScoringOption{ID: 2, Value: 5}},
			{ScoringOptionID: 3, ScoringOption: models.ScoringOption{ID: 3, Value: 1, IsModifier: true}},
		},
	}
	for i, isSelected := range selected {
		category.Options[i].IsSelected = isSelected
	}
	return category
}

func TestScoreCategorySelections(t *testing.T) {
	eval := newEvaluator()

	category := sumCategory(true, false, false)
	score := scoring.ScoreCategory(eval, &category)
	require.InDelta(t, 2, score.Actual, 1e-9)
	require.InDelta(t, 2, category.Score, 1e-9)

	category = sumCategory(false, true, false)
	score = scoring.ScoreCategory(eval, &category)
	require.InDelta(t, 5, score.Actual, 1e-9)

	// A selected modifier does not join {sum}.
	category = sumCategory(false, true, true)
	score = scoring.ScoreCategory(eval, &category)
	require.InDelta(t, 5, score.Actual, 1e-9)
}

func TestScoreCategoryBoundsCoverAllOptions(t *testing.T) {
	eval := newEvaluator()

	category := sumCategory()
	score := scoring.ScoreCategory(eval, &category)
	require.InDelta(t, 1, score.Min, 1e-9)
	require.InDelta(t, 5, score.Max, 1e-9)
	require.Zero(t, score.Actual)
	require.Zero(t, category.Score)
}

func TestScoreCategoryModifierResolution(t *testing.T) {
	eval := newEvaluator()

	category := sumCategory(true, false, false)
	category.ScoringCategory.CalculationEquation = "{sum}*{modifier}"

	// No modifier selected, none required: neutral 1.0.
	score := scoring.ScoreCategory(eval, &category)
	require.InDelta(t, 2, score.Actual, 1e-9)

	// Required but missing: 0.0.
	category.ScoringCategory.IsModifierRequired = true
	score = scoring.ScoreCategory(eval, &category)
	require.Zero(t, score.Actual)

	// Selected modifier wins over the required default.
	category.Options[2].IsSelected = true
	score = scoring.ScoreCategory(eval, &category)
	require.InDelta(t, 2, score.Actual, 1e-9)
}

func TestScoreSubmissionWeightedBindings(t *testing.T) {
	eval := newEvaluator()

	submission := models.Submission{
		ScoringModel: models.ScoringModel{CalculationEquation: "{sum}"},
	}
	scores := []scoring.CategoryScore{
		{Min: 0, Max: 10, Weight: 2, Actual: 4},
		{Min: 1, Max: 5, Weight: 1, Actual: 3},
	}

	total := scoring.ScoreSubmission(eval, &submission, scores)
	require.InDelta(t, 11, total, 1e-9)
	require.InDelta(t, 11, submission.Score, 1e-9)

	submission.ScoringModel.CalculationEquation = "{average}"
	require.InDelta(t, 5.5, scoring.ScoreSubmission(eval, &submission, scores), 1e-9)

	submission.ScoringModel.CalculationEquation = "{maxPossible}-{minPossible}"
	require.InDelta(t, 24, scoring.ScoreSubmission(eval, &submission, scores), 1e-9)
}

func TestScoreSubmissionEmptyCategories(t *testing.T) {
	eval := newEvaluator()

	submission := models.Submission{
		Score:        9,
		ScoringModel: models.ScoringModel{CalculationEquation: "{sum}"},
	}
	require.Zero(t, scoring.ScoreSubmission(eval, &submission, nil))
	require.Zero(t, submission.Score)
}

func TestRescoreIsPure(t *testing.T) {
	eval := newEvaluator()

	submission := models.Submission{
		ScoringModel: models.ScoringModel{CalculationEquation: "{sum}"},
		Categories:   []models.SubmissionCategory{sumCategory(false, true, false)},
	}

	first := scoring.Rescore(eval, &submission)
	firstTotal := submission.Score
	second := scoring.Rescore(eval, &submission)

	require.Equal(t, first, second)
	require.InDelta(t, firstTotal, submission.Score, 1e-9)
	require.InDelta(t, 5, submission.Score, 1e-9)
}
