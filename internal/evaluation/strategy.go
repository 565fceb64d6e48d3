// Package evaluation implements the interchangeable evaluation strategies
// that turn raw agent predictions into a quality score, metric snapshot, and
// structured feedback. Three strategies exist: numeric, fact-based, and a
// hybrid that composes the other two. Strategy selection is driven by the
// capability flags of the evaluation sample.
package evaluation

import (
	"github.com/promptopt/promptopt/internal/types"
)

// Sample is the already-fetched input to one evaluation pass. Which fields
// are populated depends on the dataset: numeric predictions/truth for scored
// records, raw responses plus fact requirements for textual ones.
type Sample struct {
	// Inputs are the original dataset inputs, used for pattern examples
	Inputs []string

	// Predictions are the agent's numeric outputs, normalized to [0,1]
	Predictions []float64

	// Truth are the human-corrected scores aligned with Predictions
	Truth []float64

	// ScoredIndex maps each prediction to its position in Inputs/Responses
	// when only a subset of the records carries numeric truth. Empty means
	// predictions align 1:1 with the records.
	ScoredIndex []int

	// Responses are the agent's raw textual outputs
	Responses []string

	// Expected are the reference outputs aligned with Responses, if any
	Expected []string

	// Facts are the fact requirements per response. A single entry is
	// applied to every response; otherwise the slice must align 1:1.
	Facts []*types.RequiredFacts
}

// Capabilities flags what kinds of ground truth a sample offers. The
// selector evaluates IsApplicable against these to pick a strategy.
type Capabilities struct {
	NumericTruth     bool // Human-corrected numeric scores are available
	TextContent      bool // Raw textual responses are available
	FactRequirements bool // Fact definitions are available
}

// Strategy is the common contract over the evaluator variants. Evaluate
// must not mutate the sample, and GenerateFeedback is a pure function of
// one result.
type Strategy interface {
	// Name identifies the strategy ("numeric", "facts", "hybrid")
	Name() string

	// Evaluate scores the sample. Returns ErrLengthMismatch when aligned
	// slices differ in length.
	Evaluate(sample *Sample) (*types.EvaluationResult, error)

	// GenerateFeedback derives human-readable feedback from one result.
	// Never performs I/O.
	GenerateFeedback(result *types.EvaluationResult) *types.DetailedFeedback

	// IsApplicable reports whether this strategy can evaluate a sample
	// with the given capabilities.
	IsApplicable(c Capabilities) bool
}

// PatternDetector is the optional strategy capability for domain-specific
// failure pattern analysis. Strategies without it fall back to the generic
// pattern pass.
type PatternDetector interface {
	AnalyzePatterns(results []*types.EvaluationResult) []types.FailurePattern
}

// maxPatternExamples caps how many representative items a pattern carries.
const maxPatternExamples = 3

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
