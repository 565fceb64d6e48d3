package evaluation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptopt/promptopt/internal/types"
)

func TestNumericEvaluatePerfectPredictions(t *testing.T) {
	e := NewNumericScoreEvaluator()

	result, err := e.Evaluate(&Sample{
		Predictions: []float64{0.2, 0.8},
		Truth:       []float64{0.2, 0.8},
	})
	require.NoError(t, err)

	assert.Equal(t, "numeric", result.Strategy)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.InDelta(t, 0.0, result.Metrics["rmse"], 1e-9)
	assert.InDelta(t, 1.0, result.Metrics["correlation"], 1e-9)
	assert.Len(t, result.Details, 2)
	for _, d := range result.Details {
		assert.InDelta(t, 1.0, d.Score, 1e-9)
	}
}

func TestNumericEvaluateScoredIndexMapsRecords(t *testing.T) {
	e := NewNumericScoreEvaluator()

	result, err := e.Evaluate(&Sample{
		Inputs:      []string{"unscored", "scored"},
		Predictions: []float64{0.5},
		Truth:       []float64{0.5},
		ScoredIndex: []int{1},
	})
	require.NoError(t, err)

	require.Len(t, result.Details, 1)
	assert.Equal(t, 1, result.Details[0].Index)
	assert.Equal(t, "scored", result.Details[0].Input)
}

func TestNumericEvaluateLengthMismatch(t *testing.T) {
	e := NewNumericScoreEvaluator()

	_, err := e.Evaluate(&Sample{
		Predictions: []float64{0.5},
		Truth:       []float64{0.5, 0.7},
	})
	require.Error(t, err)
	assert.True(t, errors.Is(err, types.ErrLengthMismatch))
}

func TestNumericEvaluateSystematicOverestimation(t *testing.T) {
	e := NewNumericScoreEvaluator()

	result, err := e.Evaluate(&Sample{
		Inputs:      []string{"a", "b", "c"},
		Predictions: []float64{0.9, 0.9, 0.9},
		Truth:       []float64{0.5, 0.5, 0.5},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.4, result.Metrics["bias"], 1e-9)
	assert.InDelta(t, 0.6, result.Score, 1e-9)

	patterns := e.AnalyzePatterns([]*types.EvaluationResult{result})
	require.NotEmpty(t, patterns)
	assert.Equal(t, "consistent-overestimation", patterns[0].Type)
	assert.InDelta(t, 1.0, patterns[0].Frequency, 1e-9)
	assert.Equal(t, "numeric", patterns[0].Source)
	assert.NotEmpty(t, patterns[0].Examples)
}

func TestNumericAnalyzePatternsEdgeCases(t *testing.T) {
	e := NewNumericScoreEvaluator()

	// Extreme ground truth badly missed in both directions
	result, err := e.Evaluate(&Sample{
		Predictions: []float64{0.5, 0.5},
		Truth:       []float64{0.05, 0.95},
	})
	require.NoError(t, err)

	patterns := e.AnalyzePatterns([]*types.EvaluationResult{result})
	found := false
	for _, p := range patterns {
		if p.Type == "edge-case-failure" {
			found = true
			assert.InDelta(t, 1.0, p.Frequency, 1e-9)
		}
	}
	assert.True(t, found, "expected edge-case-failure pattern, got %+v", patterns)
}

func TestNumericGenerateFeedback(t *testing.T) {
	e := NewNumericScoreEvaluator()

	result, err := e.Evaluate(&Sample{
		Predictions: []float64{0.9, 0.8, 0.85},
		Truth:       []float64{0.5, 0.4, 0.45},
	})
	require.NoError(t, err)

	fb := e.GenerateFeedback(result)
	require.NotNil(t, fb)
	assert.NotEmpty(t, fb.Summary)
	assert.NotEmpty(t, fb.Weaknesses, "systematic overestimation should surface as a weakness")
	assert.NotEmpty(t, fb.ActionItems)
}

func TestNumericIsApplicable(t *testing.T) {
	e := NewNumericScoreEvaluator()
	assert.True(t, e.IsApplicable(Capabilities{NumericTruth: true}))
	assert.False(t, e.IsApplicable(Capabilities{TextContent: true, FactRequirements: true}))
}
