package evaluation

import (
	"fmt"

	"github.com/promptopt/promptopt/internal/types"
)

// DetectCapabilities derives capability flags from a labeled sample.
func DetectCapabilities(records []*types.EvalRecord) Capabilities {
	var c Capabilities
	for _, r := range records {
		if r.CorrectedScore != nil {
			c.NumericTruth = true
		}
		if r.ExpectedOutput != "" || r.Input != "" {
			c.TextContent = true
		}
		if r.Facts != nil && len(r.Facts.Facts) > 0 {
			c.FactRequirements = true
		}
	}
	return c
}

// DefaultStrategies returns the closed set of strategy variants in
// preference order: hybrid when both dimensions are available, then
// numeric, then fact-based.
func DefaultStrategies() []Strategy {
	return []Strategy{
		NewHybridEvaluator(0.5, 0.5),
		NewNumericScoreEvaluator(),
		NewFactBasedEvaluator(),
	}
}

// Select returns the first strategy applicable to the given capabilities.
func Select(c Capabilities, strategies []Strategy) (Strategy, error) {
	for _, s := range strategies {
		if s.IsApplicable(c) {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no evaluation strategy applicable (numeric=%v text=%v facts=%v)",
		c.NumericTruth, c.TextContent, c.FactRequirements)
}

// ByName returns the named strategy, or an error listing the valid names.
func ByName(name string) (Strategy, error) {
	switch name {
	case "numeric":
		return NewNumericScoreEvaluator(), nil
	case "facts":
		return NewFactBasedEvaluator(), nil
	case "hybrid":
		return NewHybridEvaluator(0.5, 0.5), nil
	default:
		return nil, fmt.Errorf("unknown strategy %q (want numeric, facts, or hybrid)", name)
	}
}
