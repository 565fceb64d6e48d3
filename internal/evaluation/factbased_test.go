package evaluation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptopt/promptopt/internal/types"
)

func factsOf(defs ...types.FactDefinition) *types.RequiredFacts {
	return &types.RequiredFacts{Facts: defs}
}

func TestFactBasedEvaluateFullCoverage(t *testing.T) {
	e := NewFactBasedEvaluator()

	result, err := e.Evaluate(&Sample{
		Responses: []string{
			"Revenue grew 12% this quarter while churn stayed flat.",
			"Quarterly revenue was up again; churn has not moved.",
		},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
			types.FactDefinition{Name: "churn", Required: true},
		)},
	})
	require.NoError(t, err)

	assert.Equal(t, "facts", result.Strategy)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.Empty(t, result.MissingFacts)
	require.Len(t, result.Details, 2)
	assert.Len(t, result.Details[0].FactChecks, 2)
}

func TestFactBasedEvaluateMissingRequiredFact(t *testing.T) {
	e := NewFactBasedEvaluator()

	// "pricing" never appears in any response
	result, err := e.Evaluate(&Sample{
		Responses: []string{
			"Revenue grew this quarter.",
			"Revenue is strong again.",
		},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
			types.FactDefinition{Name: "pricing", Required: true},
		)},
	})
	require.NoError(t, err)

	assert.InDelta(t, 0.5, result.Score, 1e-9)
	assert.Equal(t, []string{"pricing"}, result.MissingFacts)
	assert.Equal(t, []string{"pricing"}, result.Details[0].Missing)

	patterns := e.AnalyzePatterns([]*types.EvaluationResult{result})
	require.NotEmpty(t, patterns)
	assert.Equal(t, "systematic-missing-fact", patterns[0].Type)
	assert.InDelta(t, 1.0, patterns[0].Frequency, 1e-9)
	assert.Contains(t, patterns[0].SuggestedFix, "pricing")
}

func TestFactBasedEvaluateNoFacts(t *testing.T) {
	e := NewFactBasedEvaluator()

	// No fact requirements at all: score must be 0, never NaN
	result, err := e.Evaluate(&Sample{
		Responses: []string{"anything"},
	})
	require.NoError(t, err)
	assert.Equal(t, 0.0, result.Score)
}

func TestFactBasedEvaluateLengthMismatch(t *testing.T) {
	e := NewFactBasedEvaluator()

	_, err := e.Evaluate(&Sample{
		Responses: []string{"one"},
		Facts: []*types.RequiredFacts{
			factsOf(types.FactDefinition{Name: "a", Required: true}),
			factsOf(types.FactDefinition{Name: "b", Required: true}),
		},
	})
	require.ErrorIs(t, err, types.ErrLengthMismatch)
}

func TestFactBasedOptionalFactBonus(t *testing.T) {
	e := NewFactBasedEvaluator()

	// One required fact present plus one optional fact present:
	// coverage = (1 + 0.5) / (1 + 0.5) = 1
	result, err := e.Evaluate(&Sample{
		Responses: []string{"Revenue grew; the outlook is positive."},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
			types.FactDefinition{Name: "outlook", Required: false},
		)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.Score, 1e-9)

	// Absent optional facts are ignored entirely
	result, err = e.Evaluate(&Sample{
		Responses: []string{"Revenue grew."},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
			types.FactDefinition{Name: "outlook", Required: false},
		)},
	})
	require.NoError(t, err)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
	assert.Empty(t, result.MissingFacts)
}

func TestCheckFactValidator(t *testing.T) {
	e := NewFactBasedEvaluator()

	fact := types.FactDefinition{
		Name:     "has-number",
		Required: true,
		Validator: func(response string) bool {
			return strings.ContainsAny(response, "0123456789")
		},
	}

	check := e.CheckFact("scored 42 points", fact)
	assert.True(t, check.Present)
	assert.InDelta(t, 0.9, check.Confidence, 1e-9)

	check = e.CheckFact("no digits here", fact)
	assert.False(t, check.Present)
	assert.InDelta(t, 0.1, check.Confidence, 1e-9)
}

func TestCheckFactKeywordConfidence(t *testing.T) {
	e := NewFactBasedEvaluator()

	// Two tokens ("revenue", "growth"); only one matches
	fact := types.FactDefinition{Name: "revenue growth", Required: true}
	check := e.CheckFact("Revenue was flat.", fact)
	assert.InDelta(t, 0.5, check.Confidence, 1e-9)
	assert.True(t, check.Present, "confidence of exactly 0.5 counts as present")
	assert.Contains(t, check.Evidence, "Revenue")
}

func TestKeywordTokens(t *testing.T) {
	tokens := keywordTokens("revenue growth", "the total revenue for this quarter")
	assert.Equal(t, []string{"revenue", "growth", "total", "quarter"}, tokens)

	// Short and stopword-only input falls back to the lowercased name
	tokens = keywordTokens("at", "")
	assert.Equal(t, []string{"at"}, tokens)
}

func TestFactBasedPartialCoveragePattern(t *testing.T) {
	e := NewFactBasedEvaluator()

	// Three facts, roughly half matched per response, keeps per-item scores
	// strictly between 0.3 and 0.7
	result, err := e.Evaluate(&Sample{
		Responses: []string{
			"Revenue grew.",
			"Revenue is up.",
		},
		Facts: []*types.RequiredFacts{factsOf(
			types.FactDefinition{Name: "revenue", Required: true},
			types.FactDefinition{Name: "churn", Required: true},
		)},
	})
	require.NoError(t, err)

	patterns := e.AnalyzePatterns([]*types.EvaluationResult{result})
	var typeNames []string
	for _, p := range patterns {
		typeNames = append(typeNames, p.Type)
	}
	assert.Contains(t, typeNames, "partial-fact-coverage")
}
