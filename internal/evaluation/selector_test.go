package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/promptopt/promptopt/internal/types"
)

func scorePtr(v float64) *float64 { return &v }

func TestDetectCapabilities(t *testing.T) {
	records := []*types.EvalRecord{
		{Input: "a", CorrectedScore: scorePtr(0.7)},
		{Input: "b", Facts: factsOf(types.FactDefinition{Name: "x", Required: true})},
	}
	c := DetectCapabilities(records)
	assert.True(t, c.NumericTruth)
	assert.True(t, c.TextContent)
	assert.True(t, c.FactRequirements)

	c = DetectCapabilities([]*types.EvalRecord{{Input: "a", CorrectedScore: scorePtr(0.5)}})
	assert.True(t, c.NumericTruth)
	assert.False(t, c.FactRequirements)
}

func TestSelectPrefersHybrid(t *testing.T) {
	c := Capabilities{NumericTruth: true, TextContent: true, FactRequirements: true}
	s, err := Select(c, DefaultStrategies())
	require.NoError(t, err)
	assert.Equal(t, "hybrid", s.Name())
}

func TestSelectFallsBackPerCapability(t *testing.T) {
	s, err := Select(Capabilities{NumericTruth: true}, DefaultStrategies())
	require.NoError(t, err)
	assert.Equal(t, "numeric", s.Name())

	s, err = Select(Capabilities{TextContent: true, FactRequirements: true}, DefaultStrategies())
	require.NoError(t, err)
	assert.Equal(t, "facts", s.Name())
}

func TestSelectNoneApplicable(t *testing.T) {
	_, err := Select(Capabilities{}, DefaultStrategies())
	require.Error(t, err)
}

func TestByName(t *testing.T) {
	for _, name := range []string{"numeric", "facts", "hybrid"} {
		s, err := ByName(name)
		require.NoError(t, err)
		assert.Equal(t, name, s.Name())
	}

	_, err := ByName("bogus")
	require.Error(t, err)
}
