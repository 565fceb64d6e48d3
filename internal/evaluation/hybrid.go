package evaluation

import (
	"fmt"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/promptopt/promptopt/internal/types"
)

// HybridEvaluator composes the numeric and fact-based strategies with
// configurable weights. The two sub-evaluations are independent pure
// computations over already-fetched data, so they run concurrently and are
// joined before combining.
type HybridEvaluator struct {
	numeric *NumericScoreEvaluator
	facts   *FactBasedEvaluator

	weightNumeric float64
	weightFacts   float64
}

// NewHybridEvaluator creates a hybrid strategy. Weights are renormalized to
// sum to 1 at construction; non-positive totals fall back to 0.5/0.5.
func NewHybridEvaluator(weightNumeric, weightFacts float64) *HybridEvaluator {
	sum := weightNumeric + weightFacts
	if sum <= 0 {
		weightNumeric, weightFacts, sum = 0.5, 0.5, 1
	}
	return &HybridEvaluator{
		numeric:       NewNumericScoreEvaluator(),
		facts:         NewFactBasedEvaluator(),
		weightNumeric: weightNumeric / sum,
		weightFacts:   weightFacts / sum,
	}
}

// Name implements Strategy.
func (e *HybridEvaluator) Name() string { return "hybrid" }

// Weights returns the effective (normalized) weights.
func (e *HybridEvaluator) Weights() (numeric, facts float64) {
	return e.weightNumeric, e.weightFacts
}

// IsApplicable implements Strategy: the hybrid needs both kinds of ground
// truth.
func (e *HybridEvaluator) IsApplicable(c Capabilities) bool {
	return e.numeric.IsApplicable(c) && e.facts.IsApplicable(c)
}

// Evaluate implements Strategy. The numeric and fact sub-evaluations have
// no ordering dependency and run in parallel.
func (e *HybridEvaluator) Evaluate(sample *Sample) (*types.EvaluationResult, error) {
	var (
		numericResult *types.EvaluationResult
		factResult    *types.EvaluationResult
	)

	var g errgroup.Group
	g.Go(func() error {
		r, err := e.numeric.Evaluate(sample)
		if err != nil {
			return fmt.Errorf("numeric sub-evaluation: %w", err)
		}
		numericResult = r
		return nil
	})
	g.Go(func() error {
		r, err := e.facts.Evaluate(sample)
		if err != nil {
			return fmt.Errorf("fact sub-evaluation: %w", err)
		}
		factResult = r
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	score := numericResult.Score*e.weightNumeric + factResult.Score*e.weightFacts

	// The sub-passes are joined on record index, not slice position: on
	// partially scored samples the numeric series covers only a subset of
	// the records. An item carrying one dimension keeps that dimension's
	// score undiluted; the gap metric exists only where both dimensions do.
	numByIdx := make(map[int]types.ItemDetail, len(numericResult.Details))
	for _, d := range numericResult.Details {
		numByIdx[d.Index] = d
	}
	factByIdx := make(map[int]types.ItemDetail, len(factResult.Details))
	for _, d := range factResult.Details {
		factByIdx[d.Index] = d
	}
	n := 0
	for idx := range numByIdx {
		if idx+1 > n {
			n = idx + 1
		}
	}
	for idx := range factByIdx {
		if idx+1 > n {
			n = idx + 1
		}
	}

	details := make([]types.ItemDetail, 0, n)
	for i := 0; i < n; i++ {
		nd, hasNum := numByIdx[i]
		fd, hasFactDetail := factByIdx[i]
		hasFacts := hasFactDetail && len(fd.FactChecks) > 0
		if !hasNum && !hasFacts {
			continue
		}

		detail := types.ItemDetail{Index: i, Metrics: map[string]float64{}}
		if hasFactDetail {
			detail.Input = fd.Input
			detail.Actual = fd.Actual
			detail.Expected = fd.Expected
		}
		if hasNum {
			if detail.Input == "" {
				detail.Input = nd.Input
			}
			detail.Expected = nd.Expected
			detail.Error = nd.Error
			detail.Metrics["numeric_score"] = nd.Score
		}
		if hasFacts {
			detail.FactChecks = fd.FactChecks
			detail.Missing = fd.Missing
			detail.Metrics["fact_score"] = fd.Score
		}

		switch {
		case hasNum && hasFacts:
			detail.Score = clamp01(nd.Score*e.weightNumeric + fd.Score*e.weightFacts)
			detail.Metrics["gap"] = math.Abs(nd.Score - fd.Score)
		case hasNum:
			detail.Score = nd.Score
		default:
			detail.Score = fd.Score
		}
		details = append(details, detail)
	}

	return &types.EvaluationResult{
		Strategy: e.Name(),
		Score:    clamp01(score),
		Metrics: map[string]float64{
			"numeric_score":  numericResult.Score,
			"fact_score":     factResult.Score,
			"weight_numeric": e.weightNumeric,
			"weight_facts":   e.weightFacts,
			"rmse":           numericResult.Metrics["rmse"],
			"correlation":    numericResult.Metrics["correlation"],
			"coverage":       factResult.Metrics["coverage"],
			"avg_confidence": factResult.Metrics["avg_confidence"],
		},
		Details: details,
		SubResults: map[string]*types.EvaluationResult{
			"numeric": numericResult,
			"facts":   factResult,
		},
		MissingFacts: factResult.MissingFacts,
	}, nil
}

// GenerateFeedback implements Strategy. Beyond merging sub-strategy
// signals, it synthesizes insights from how the two dimensions relate.
func (e *HybridEvaluator) GenerateFeedback(result *types.EvaluationResult) *types.DetailedFeedback {
	numScore := result.Metrics["numeric_score"]
	factScore := result.Metrics["fact_score"]

	fb := &types.DetailedFeedback{
		Summary: fmt.Sprintf("Hybrid evaluation scored %.2f (numeric %.2f x %.2f, facts %.2f x %.2f)",
			result.Score, numScore, result.Metrics["weight_numeric"], factScore, result.Metrics["weight_facts"]),
	}

	switch {
	case numScore > 0.8 && factScore > 0.8:
		fb.Strengths = append(fb.Strengths, "Both scoring accuracy and fact coverage are excellent")
	case numScore < 0.5 && factScore < 0.5:
		fb.Weaknesses = append(fb.Weaknesses, "Both scoring accuracy and fact coverage are poor")
		fb.ActionItems = append(fb.ActionItems, "Rework the prompt fundamentals before tuning either dimension")
	}

	if gap := math.Abs(numScore - factScore); gap > 0.3 {
		if numScore < factScore {
			fb.Weaknesses = append(fb.Weaknesses,
				fmt.Sprintf("Numeric accuracy lags fact coverage by %.2f; the agent covers content but misjudges quality", gap))
			fb.Improvements = append(fb.Improvements, "Focus the next revision on score calibration, coverage is already solid")
		} else {
			fb.Weaknesses = append(fb.Weaknesses,
				fmt.Sprintf("Fact coverage lags numeric accuracy by %.2f; the agent scores well but omits content", gap))
			fb.Improvements = append(fb.Improvements, "Focus the next revision on content completeness, calibration is already solid")
		}
	}

	if result.SubResults["numeric"] != nil {
		subFB := e.numeric.GenerateFeedback(result.SubResults["numeric"])
		fb.ActionItems = append(fb.ActionItems, subFB.ActionItems...)
	}
	if result.SubResults["facts"] != nil {
		subFB := e.facts.GenerateFeedback(result.SubResults["facts"])
		fb.ActionItems = append(fb.ActionItems, subFB.ActionItems...)
	}

	for _, p := range e.AnalyzePatterns([]*types.EvaluationResult{result}) {
		fb.Patterns = append(fb.Patterns, fmt.Sprintf("%s (%.0f%% of items): %s", p.Type, p.Frequency*100, p.SuggestedFix))
	}

	return fb
}

// AnalyzePatterns implements PatternDetector. Sub-strategy patterns are
// merged (already tagged with their source) and extended with the hybrid's
// own cross-dimension patterns.
func (e *HybridEvaluator) AnalyzePatterns(results []*types.EvaluationResult) []types.FailurePattern {
	var numericSubs, factSubs []*types.EvaluationResult
	var details []types.ItemDetail
	for _, r := range results {
		details = append(details, r.Details...)
		if sub := r.SubResults["numeric"]; sub != nil {
			numericSubs = append(numericSubs, sub)
		}
		if sub := r.SubResults["facts"]; sub != nil {
			factSubs = append(factSubs, sub)
		}
	}

	var patterns []types.FailurePattern
	patterns = append(patterns, e.numeric.AnalyzePatterns(numericSubs)...)
	patterns = append(patterns, e.facts.AnalyzePatterns(factSubs)...)

	if len(details) == 0 {
		return patterns
	}
	total := float64(len(details))

	// Numeric-fact divergence: the two dimensions disagree per item.
	var diverging []types.ItemDetail
	for _, d := range details {
		if d.Metrics["gap"] > 0.3 {
			diverging = append(diverging, d)
		}
	}
	if freq := float64(len(diverging)) / total; freq > 0.3 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "numeric-fact-divergence",
			Frequency:    clamp01(freq),
			Examples:     exampleItems(diverging),
			SuggestedFix: "Scoring accuracy and fact coverage disagree item by item; align the prompt's quality criteria with its content requirements",
			Source:       e.Name(),
		})
	}

	// Consistent underperformance across both dimensions.
	var low []types.ItemDetail
	for _, d := range details {
		if d.Score < 0.5 {
			low = append(low, d)
		}
	}
	if freq := float64(len(low)) / total; freq > 0.5 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "consistent-underperformance",
			Frequency:    clamp01(freq),
			Examples:     exampleItems(low),
			SuggestedFix: "Most items score below 0.5 overall; rewrite the prompt from scratch rather than patching it",
			Source:       e.Name(),
		})
	}

	return patterns
}
