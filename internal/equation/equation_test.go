package equation_test

import (
	"io"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/exeval-api/internal/equation"
)

func newEvaluator() *equation.Evaluator {
	return equation.New(zerolog.New(io.Discard))
}

func TestEvaluateArithmetic(t *testing.T) {
	eval := newEvaluator()

	cases := []struct {
		name     string
		template string
		bindings map[string]float64
		expected float64
	}{
		{"plain sum", "{sum}", map[string]float64{"sum": 7}, 7},
		{"weighted average", "{sum}/{count}", map[string]float64{"sum": 9, "count": 3}, 3},
		{"precedence", "2+3*4", nil, 14},
		{"parentheses", "(2+3)*4", nil, 20},
		{"unary minus", "-{sum}+1", map[string]float64{"sum": 4}, -3},
		{"modifier product", "{sum}*{modifier}", map[string]float64{"sum": 5, "modifier": 0.5}, 2.5},
		{"decimal literals", "0.5*{max}", map[string]float64{"max": 8}, 4},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.InDelta(t, tc.expected, eval.Evaluate(tc.template, tc.bindings), 1e-9)
		})
	}
}

func TestEvaluateClamp(t *testing.T) {
	eval := newEvaluator()
	bindings := func(sum float64) map[string]float64 {
		return map[string]float64{"sum": sum}
	}

	require.InDelta(t, 10, eval.Evaluate("10 > {sum} > -5", bindings(100)), 1e-9)
	require.InDelta(t, -5, eval.Evaluate("10 > {sum} > -5", bindings(-100)), 1e-9)
	require.InDelta(t, 3, eval.Evaluate("10 > {sum} > -5", bindings(3)), 1e-9)

	// Two segments clamp from above only.
	require.InDelta(t, 10, eval.Evaluate("10 > {sum}", bindings(50)), 1e-9)
	require.InDelta(t, -50, eval.Evaluate("10 > {sum}", bindings(-50)), 1e-9)
}

func TestEvaluateFaultsResolveToZero(t *testing.T) {
	eval := newEvaluator()

	require.Zero(t, eval.Evaluate("{sum}/{count}", map[string]float64{"sum": 5, "count": 0}))
	require.Zero(t, eval.Evaluate("{sum}+", map[string]float64{"sum": 5}))
	require.Zero(t, eval.Evaluate("{unknown}", map[string]float64{"sum": 5}))
	require.Zero(t, eval.Evaluate("", nil))
	require.Zero(t, eval.Evaluate("abc > {sum} > 0", map[string]float64{"sum": 5}))
	require.Zero(t, eval.Evaluate("(1+2", nil))
}

func TestEvaluatePlaceholdersAreCaseSensitive(t *testing.T) {
	eval := newEvaluator()

	require.InDelta(t, 6, eval.Evaluate("{minPossible}", map[string]float64{"minPossible": 6}), 1e-9)
	require.Zero(t, eval.Evaluate("{minpossible}", map[string]float64{"minPossible": 6}))
}
