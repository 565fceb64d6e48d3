package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptopt/promptopt/internal/types"
)

func TestHybridWeightNormalization(t *testing.T) {
	e := NewHybridEvaluator(3, 1)
	wn, wf := e.Weights()
	assert.InDelta(t, 0.75, wn, 1e-9)
	assert.InDelta(t, 0.25, wf, 1e-9)

	// Already-normalized weights pass through unchanged
	e = NewHybridEvaluator(0.6, 0.4)
	wn, wf = e.Weights()
	assert.InDelta(t, 0.6, wn, 1e-9)
	assert.InDelta(t, 0.4, wf, 1e-9)

	// Non-positive totals fall back to an even split
	e = NewHybridEvaluator(0, 0)
	wn, wf = e.Weights()
	assert.InDelta(t, 0.5, wn, 1e-9)
	assert.InDelta(t, 0.5, wf, 1e-9)
}

func TestHybridEvaluateCombinesSubScores(t *testing.T) {
	e := NewHybridEvaluator(0.5, 0.5)

	result, err := e.Evaluate(&Sample{
		Inputs:      []string{"q1", "q2"},
		Predictions: []float64{0.8, 0.6},
		Truth:       []float64{0.8, 0.6},
		Responses: []string{
			"Revenue grew this quarter.",
			"Revenue was strong.",
		},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
		)},
	})
	require.NoError(t, err)

	assert.Equal(t, "hybrid", result.Strategy)
	// Numeric is perfect (1.0) and fact coverage is full (1.0)
	assert.InDelta(t, 1.0, result.Score, 1e-9)

	require.NotNil(t, result.SubResults["numeric"])
	require.NotNil(t, result.SubResults["facts"])
	assert.Equal(t, "numeric", result.SubResults["numeric"].Strategy)
	assert.Equal(t, "facts", result.SubResults["facts"].Strategy)

	assert.InDelta(t, 0.5, result.Metrics["weight_numeric"], 1e-9)
	require.Len(t, result.Details, 2)
	assert.Contains(t, result.Details[0].Metrics, "gap")
}

func TestHybridPartialNumericTruthJoinsOnRecord(t *testing.T) {
	e := NewHybridEvaluator(0.5, 0.5)

	// Record 0 carries only fact requirements, record 1 only a corrected
	// score. The sub-results must land on their own records.
	result, err := e.Evaluate(&Sample{
		Inputs:      []string{"facts question", "scored question"},
		Responses:   []string{"Revenue grew this quarter.", "0.2"},
		Predictions: []float64{0.2},
		Truth:       []float64{0.9},
		ScoredIndex: []int{1},
		Facts: []*types.RequiredFacts{
			factsOf(types.FactDefinition{Name: "revenue", Required: true}),
			nil,
		},
	})
	require.NoError(t, err)
	require.Len(t, result.Details, 2)

	first := result.Details[0]
	assert.Equal(t, 0, first.Index)
	assert.Equal(t, "facts question", first.Input)
	assert.NotContains(t, first.Metrics, "numeric_score")
	assert.NotContains(t, first.Metrics, "gap")
	assert.InDelta(t, 1.0, first.Metrics["fact_score"], 1e-9)
	assert.InDelta(t, 1.0, first.Score, 1e-9)

	second := result.Details[1]
	assert.Equal(t, 1, second.Index)
	assert.Equal(t, "scored question", second.Input)
	assert.NotContains(t, second.Metrics, "fact_score")
	assert.NotContains(t, second.Metrics, "gap")
	assert.InDelta(t, -0.7, second.Error, 1e-9)
	assert.InDelta(t, 0.3, second.Score, 1e-9)
}

func TestHybridEvaluatePropagatesMismatch(t *testing.T) {
	e := NewHybridEvaluator(0.5, 0.5)

	_, err := e.Evaluate(&Sample{
		Predictions: []float64{0.5},
		Truth:       []float64{0.5, 0.6},
		Responses:   []string{"x", "y"},
	})
	require.ErrorIs(t, err, types.ErrLengthMismatch)
}

func TestHybridDivergenceFeedback(t *testing.T) {
	e := NewHybridEvaluator(0.5, 0.5)

	// Perfect numeric accuracy but zero fact coverage
	result, err := e.Evaluate(&Sample{
		Predictions: []float64{0.9, 0.9},
		Truth:       []float64{0.9, 0.9},
		Responses:   []string{"nothing relevant", "still nothing"},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
		)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 0.5, result.Score, 1e-9)

	fb := e.GenerateFeedback(result)
	require.NotEmpty(t, fb.Weaknesses)
	assert.Contains(t, fb.Weaknesses[0], "Fact coverage lags numeric accuracy")
}

func TestHybridAnalyzePatternsDivergence(t *testing.T) {
	e := NewHybridEvaluator(0.5, 0.5)

	result, err := e.Evaluate(&Sample{
		Predictions: []float64{0.9, 0.9},
		Truth:       []float64{0.9, 0.9},
		Responses:   []string{"nothing relevant", "still nothing"},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
		)},
	})
	require.NoError(t, err)

	patterns := e.AnalyzePatterns([]*types.EvaluationResult{result})
	var typeNames []string
	for _, p := range patterns {
		typeNames = append(typeNames, p.Type)
	}
	assert.Contains(t, typeNames, "numeric-fact-divergence")
	// Sub-strategy patterns keep their own source tags
	for _, p := range patterns {
		if p.Type == "systematic-missing-fact" {
			assert.Equal(t, "facts", p.Source)
		}
		if p.Type == "numeric-fact-divergence" {
			assert.Equal(t, "hybrid", p.Source)
		}
	}
}

func TestHybridIsApplicable(t *testing.T) {
	e := NewHybridEvaluator(0.5, 0.5)
	assert.True(t, e.IsApplicable(Capabilities{NumericTruth: true, TextContent: true, FactRequirements: true}))
	assert.False(t, e.IsApplicable(Capabilities{NumericTruth: true}))
}
