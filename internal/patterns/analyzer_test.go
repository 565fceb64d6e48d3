package patterns

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptopt/promptopt/internal/evaluation"
	"github.com/promptopt/promptopt/internal/types"
)

func lowScoreResult() *types.EvaluationResult {
	return &types.EvaluationResult{
		Details: []types.ItemDetail{
			{Index: 0, Score: 0.2, Metrics: map[string]float64{"s": 0.2}},
			{Index: 1, Score: 0.3, Metrics: map[string]float64{"s": 0.3}},
			{Index: 2, Score: 0.25, Metrics: map[string]float64{"s": 0.25}},
		},
	}
}

func TestAnalyzePatternsDelegatesToStrategy(t *testing.T) {
	a := NewAnalyzer()

	// The numeric strategy has its own pattern detector
	numeric := evaluation.NewNumericScoreEvaluator()
	result, err := numeric.Evaluate(&evaluation.Sample{
		Predictions: []float64{0.9, 0.9, 0.9},
		Truth:       []float64{0.5, 0.5, 0.5},
	})
	require.NoError(t, err)

	patterns := a.AnalyzePatterns([]*types.EvaluationResult{result}, numeric)
	require.NotEmpty(t, patterns)
	assert.Equal(t, "consistent-overestimation", patterns[0].Type)
}

type plainStrategy struct{ evaluation.Strategy }

func (plainStrategy) Name() string { return "plain" }

func TestAnalyzePatternsGenericFallback(t *testing.T) {
	a := NewAnalyzer()

	patterns := a.AnalyzePatterns([]*types.EvaluationResult{lowScoreResult()}, plainStrategy{})
	require.NotEmpty(t, patterns)
	assert.Equal(t, "plain", patterns[0].Source)
}

func TestAnalyzeCrossStrategyPatterns(t *testing.T) {
	a := NewAnalyzer()

	merged := a.AnalyzeCrossStrategyPatterns(map[string][]*types.EvaluationResult{
		"numeric": {lowScoreResult()},
		"facts":   {lowScoreResult()},
	})
	require.NotEmpty(t, merged)

	for _, p := range merged {
		assert.True(t, strings.HasPrefix(p.Type, "cross-strategy-"), "type %s", p.Type)
	}
	assert.Equal(t, "facts,numeric", merged[0].Source)
}

func TestAnalyzeCrossStrategyPatternsSingleStrategyDropped(t *testing.T) {
	a := NewAnalyzer()

	merged := a.AnalyzeCrossStrategyPatterns(map[string][]*types.EvaluationResult{
		"numeric": {lowScoreResult()},
	})
	assert.Empty(t, merged, "patterns seen under one strategy only must not merge")
}

func TestGetPersistentPatternsRequiresMinIterations(t *testing.T) {
	a := NewAnalyzer()
	pattern := types.FailurePattern{Type: "consistent-overestimation", Frequency: 0.6}

	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 1)
	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 2)
	assert.Empty(t, a.GetPersistentPatterns(3), "two iterations are below the persistence threshold")

	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 3)
	persistent := a.GetPersistentPatterns(3)
	require.Len(t, persistent, 1)
	assert.Equal(t, "persistent-consistent-overestimation", persistent[0].Type)
	assert.InDelta(t, 1.0, persistent[0].Frequency, 1e-9)
}

func TestGetPersistentPatternsFrequencyScaling(t *testing.T) {
	a := NewAnalyzer()
	pattern := types.FailurePattern{Type: "high-variance", Frequency: 0.4}

	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 1)
	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 2)
	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 3)
	a.TrackPatternEvolution(nil, 4)

	persistent := a.GetPersistentPatterns(3)
	require.Len(t, persistent, 1)
	// Observed in 3 of 4 tracked iterations
	assert.InDelta(t, 0.75, persistent[0].Frequency, 1e-9)
	assert.Equal(t, 4, a.TrackedIterations())
}

func TestTrackPatternEvolutionDeduplicatesWithinIteration(t *testing.T) {
	a := NewAnalyzer()
	pattern := types.FailurePattern{Type: "high-variance", Frequency: 0.4}

	// The same type twice in one iteration counts once
	a.TrackPatternEvolution([]types.FailurePattern{pattern, pattern}, 1)
	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 2)
	a.TrackPatternEvolution([]types.FailurePattern{pattern}, 3)

	persistent := a.GetPersistentPatterns(3)
	require.Len(t, persistent, 1)
	assert.InDelta(t, 1.0, persistent[0].Frequency, 1e-9)
}

func TestSuggestImprovements(t *testing.T) {
	a := NewAnalyzer()

	suggestions := a.SuggestImprovements([]types.FailurePattern{
		{Type: "consistent-overestimation", Frequency: 0.4},
		{Type: "systematic-missing-fact", Frequency: 0.4},
		{Type: "persistent-consistent-overestimation", Frequency: 0.3},
	})

	require.NotEmpty(t, suggestions)
	assert.Contains(t, suggestions, "Calibrate the scoring scale with anchored examples at each band")
	assert.Contains(t, suggestions, "Restructure the prompt with an explicit checklist of required content")

	// The calibration suggestion matched two pattern types but appears once
	count := 0
	for _, s := range suggestions {
		if s == "Calibrate the scoring scale with anchored examples at each band" {
			count++
		}
	}
	assert.Equal(t, 1, count)
}

func TestSuggestImprovementsPriority(t *testing.T) {
	a := NewAnalyzer()

	suggestions := a.SuggestImprovements([]types.FailurePattern{
		{Type: "consistent-overestimation", Frequency: 0.8},
	})

	found := false
	for _, s := range suggestions {
		if strings.HasPrefix(s, "PRIORITY:") {
			found = true
		}
	}
	assert.True(t, found, "high-frequency patterns should yield a priority line")
}

func TestSuggestImprovementsEmpty(t *testing.T) {
	a := NewAnalyzer()
	assert.Empty(t, a.SuggestImprovements(nil))
}
