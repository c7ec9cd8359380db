// Package scoring holds the pure score derivation for the submission
// aggregate: category scores from the current selections, and the submission
// total from the weighted category scores. All functions are deterministic
// over their inputs; persistence is the caller's concern.
package scoring

import (
	"github.com/noah-isme/exeval-api/internal/equation"
	"github.com/noah-isme/exeval-api/internal/models"
)

// CategoryScore describes one category's theoretical range and current
// score. Min and Max cover every option in the category regardless of
// selection; Actual reflects the current selections only.
type CategoryScore struct {
	CategoryID uint
	Min        float64
	Max        float64
	Weight     float64
	Actual     float64
}

// ScoreCategory recomputes one submission category from its selections and
// stores the result on the category. The snapshot options must carry their
// originating ScoringOption, and the category its originating
// ScoringCategory.
func ScoreCategory(eval *equation.Evaluator, category *models.SubmissionCategory) CategoryScore {
	rubric := category.ScoringCategory

	score := CategoryScore{
		CategoryID: category.ScoringCategoryID,
		Weight:     rubric.ScoringWeight,
	}

	var selections []float64
	var modifiers []float64
	for i, option := range category.Options {
		value := option.ScoringOption.Value
		if i == 0 || value < score.Min {
			score.Min = value
		}
		if i == 0 || value > score.Max {
			score.Max = value
		}
		if !option.IsSelected {
			continue
		}
		if option.ScoringOption.IsModifier {
			modifiers = append(modifiers, value)
		} else {
			selections = append(selections, value)
		}
	}

	modifier := 1.0
	if len(modifiers) > 0 {
		modifier = maxOf(modifiers)
	} else if rubric.IsModifierRequired {
		modifier = 0.0
	}

	if len(selections) > 0 {
		score.Actual = eval.Evaluate(rubric.CalculationEquation, map[string]float64{
			"count":    float64(len(selections)),
			"min":      minOf(selections),
			"max":      maxOf(selections),
			"sum":      sumOf(selections),
			"modifier": modifier,
		})
	}

	category.Score = score.Actual
	return score
}

// ScoreSubmission recomputes the submission total from the given category
// scores and stores it on the submission. Category scores must already be
// current; stale inputs here would break score derivation.
func ScoreSubmission(eval *equation.Evaluator, submission *models.Submission, scores []CategoryScore) float64 {
	if len(scores) == 0 {
		submission.Score = 0
		return 0
	}

	var minPossible, maxPossible, sum float64
	for _, score := range scores {
		minPossible += score.Min * score.Weight
		maxPossible += score.Max * score.Weight
		sum += score.Actual * score.Weight
	}

	submission.Score = eval.Evaluate(submission.ScoringModel.CalculationEquation, map[string]float64{
		"count":       float64(len(scores)),
		"minPossible": minPossible,
		"maxPossible": maxPossible,
		"sum":         sum,
		"average":     sum / float64(len(scores)),
	})

	return submission.Score
}

// Rescore recomputes every category bottom-up and then the submission total,
// returning the category scores used.
func Rescore(eval *equation.Evaluator, submission *models.Submission) []CategoryScore {
	scores := make([]CategoryScore, 0, len(submission.Categories))
	for i := range submission.Categories {
		scores = append(scores, ScoreCategory(eval, &submission.Categories[i]))
	}
	ScoreSubmission(eval, submission, scores)
	return scores
}

func minOf(values []float64) float64 {
	result := values[0]
	for _, v := range values[1:] {
		if v < result {
			result = v
		}
	}
	return result
}

func maxOf(values []float64) float64 {
	result := values[0]
	for _, v := range values[1:] {
		if v > result {
			result = v
		}
	}
	return result
}

func sumOf(values []float64) float64 {
	var result float64
	for _, v := range values {
		result += v
	}
	return result
}
