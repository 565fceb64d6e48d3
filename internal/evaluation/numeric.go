package evaluation

import (
	"fmt"
	"math"
	"strconv"

	"github.com/promptopt/promptopt/internal/metrics"
	"github.com/promptopt/promptopt/internal/types"
)

// NumericScoreEvaluator scores numeric predictions against human-corrected
// ground truth. Errors are assumed normalized to a 0-1 scale, so an RMSE at
// or above 1 floors the score at 0.
type NumericScoreEvaluator struct{}

// NewNumericScoreEvaluator creates a numeric strategy instance.
func NewNumericScoreEvaluator() *NumericScoreEvaluator {
	return &NumericScoreEvaluator{}
}

// Name implements Strategy.
func (e *NumericScoreEvaluator) Name() string { return "numeric" }

// IsApplicable implements Strategy: numeric scoring needs numeric truth.
func (e *NumericScoreEvaluator) IsApplicable(c Capabilities) bool {
	return c.NumericTruth
}

// Evaluate implements Strategy.
func (e *NumericScoreEvaluator) Evaluate(sample *Sample) (*types.EvaluationResult, error) {
	preds, truth := sample.Predictions, sample.Truth
	if len(preds) != len(truth) {
		return nil, fmt.Errorf("%w: %d predictions vs %d ground truth values",
			types.ErrLengthMismatch, len(preds), len(truth))
	}

	errs := make([]float64, len(preds))
	for i := range preds {
		errs[i] = preds[i] - truth[i]
	}

	rmse := metrics.RMSE(preds, truth)
	score := clamp01(1 - rmse)

	details := make([]types.ItemDetail, len(preds))
	for i := range preds {
		// Index points at the record position so downstream pattern and
		// merge passes attribute each item correctly on partially scored
		// samples.
		recordIdx := i
		if i < len(sample.ScoredIndex) {
			recordIdx = sample.ScoredIndex[i]
		}
		detail := types.ItemDetail{
			Index:    recordIdx,
			Expected: strconv.FormatFloat(truth[i], 'f', -1, 64),
			Actual:   strconv.FormatFloat(preds[i], 'f', -1, 64),
			Score:    clamp01(1 - math.Abs(errs[i])),
			Error:    errs[i],
			Metrics: map[string]float64{
				"prediction": preds[i],
				"truth":      truth[i],
			},
		}
		if recordIdx < len(sample.Inputs) {
			detail.Input = sample.Inputs[recordIdx]
		}
		details[i] = detail
	}

	return &types.EvaluationResult{
		Strategy: e.Name(),
		Score:    score,
		Metrics: map[string]float64{
			"rmse":          rmse,
			"mae":           metrics.MAE(preds, truth),
			"correlation":   metrics.Pearson(preds, truth),
			"bias":          metrics.Mean(errs),
			"consistency":   metrics.Consistency(preds, truth),
			"max_error":     metrics.MaxAbs(errs),
			"min_error":     metrics.MinAbs(errs),
			"error_std_dev": metrics.StdDev(errs),
		},
		Details: details,
	}, nil
}

// GenerateFeedback implements Strategy.
func (e *NumericScoreEvaluator) GenerateFeedback(result *types.EvaluationResult) *types.DetailedFeedback {
	fb := &types.DetailedFeedback{
		Summary: fmt.Sprintf("Numeric evaluation scored %.2f across %d items (RMSE %.3f, correlation %.2f)",
			result.Score, len(result.Details), result.Metrics["rmse"], result.Metrics["correlation"]),
	}

	corr := result.Metrics["correlation"]
	bias := result.Metrics["bias"]
	consistency := result.Metrics["consistency"]
	stddev := result.Metrics["error_std_dev"]

	if corr >= 0.8 {
		fb.Strengths = append(fb.Strengths, fmt.Sprintf("Predictions track ground truth closely (correlation %.2f)", corr))
	} else if corr < 0.5 {
		fb.Weaknesses = append(fb.Weaknesses, fmt.Sprintf("Predictions barely track ground truth (correlation %.2f)", corr))
		fb.ActionItems = append(fb.ActionItems, "Add scored examples to the prompt so the agent learns the scale")
	}

	if math.Abs(bias) <= 0.05 {
		fb.Strengths = append(fb.Strengths, "Scores are well calibrated with negligible bias")
	} else if bias > 0 {
		fb.Weaknesses = append(fb.Weaknesses, fmt.Sprintf("Systematic overestimation (mean error %+.3f)", bias))
		fb.ActionItems = append(fb.ActionItems, "Instruct the agent to score more conservatively")
	} else {
		fb.Weaknesses = append(fb.Weaknesses, fmt.Sprintf("Systematic underestimation (mean error %+.3f)", bias))
		fb.ActionItems = append(fb.ActionItems, "Instruct the agent to use the full scoring range")
	}

	if consistency >= 0.8 {
		fb.Strengths = append(fb.Strengths, fmt.Sprintf("Similar inputs receive similar scores (consistency %.2f)", consistency))
	} else {
		fb.Weaknesses = append(fb.Weaknesses, fmt.Sprintf("Inconsistent scoring of similar inputs (consistency %.2f)", consistency))
		fb.Improvements = append(fb.Improvements, "Define explicit scoring anchors for each score band")
	}

	if stddev > 0.2 {
		fb.Improvements = append(fb.Improvements, "Reduce score variance with a step-by-step rubric in the prompt")
	}

	for _, p := range e.AnalyzePatterns([]*types.EvaluationResult{result}) {
		fb.Patterns = append(fb.Patterns, fmt.Sprintf("%s (%.0f%% of items): %s", p.Type, p.Frequency*100, p.SuggestedFix))
	}

	return fb
}

// AnalyzePatterns implements PatternDetector. It aggregates item details
// across all results and flags systematic over-estimation, high error
// variance, and edge-case failures near the score boundaries.
func (e *NumericScoreEvaluator) AnalyzePatterns(results []*types.EvaluationResult) []types.FailurePattern {
	var details []types.ItemDetail
	for _, r := range results {
		details = append(details, r.Details...)
	}
	if len(details) == 0 {
		return nil
	}

	var patterns []types.FailurePattern
	total := float64(len(details))

	// Systematic overestimation: too many items with error above +0.1.
	var overItems []types.ItemDetail
	for _, d := range details {
		if d.Error > 0.1 {
			overItems = append(overItems, d)
		}
	}
	if freq := float64(len(overItems)) / total; freq > 0.3 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "consistent-overestimation",
			Frequency:    clamp01(freq),
			Examples:     exampleItems(overItems),
			SuggestedFix: "Lower the agent's confidence or temperature; scores systematically overshoot the ground truth",
			Source:       e.Name(),
		})
	}

	// High variance: error spread above 0.2.
	errs := make([]float64, len(details))
	for i, d := range details {
		errs[i] = d.Error
	}
	if stddev := metrics.StdDev(errs); stddev > 0.2 {
		var spread []types.ItemDetail
		for _, d := range details {
			if math.Abs(d.Error) > 0.2 {
				spread = append(spread, d)
			}
		}
		patterns = append(patterns, types.FailurePattern{
			Type:         "high-variance",
			Frequency:    clamp01(float64(len(spread)) / total),
			Examples:     exampleItems(spread),
			SuggestedFix: "Add a concrete scoring rubric to stabilize predictions across similar inputs",
			Source:       e.Name(),
		})
	}

	// Edge-case failures: ground truth near 0 or 1 missed badly.
	var edge, edgeFailed []types.ItemDetail
	for _, d := range details {
		truth, ok := d.Metrics["truth"]
		if !ok {
			continue
		}
		if truth < 0.1 || truth > 0.9 {
			edge = append(edge, d)
			if math.Abs(d.Error) > 0.2 {
				edgeFailed = append(edgeFailed, d)
			}
		}
	}
	if len(edge) > 0 {
		if freq := float64(len(edgeFailed)) / float64(len(edge)); freq > 0.5 {
			patterns = append(patterns, types.FailurePattern{
				Type:         "edge-case-failure",
				Frequency:    clamp01(freq),
				Examples:     exampleItems(edgeFailed),
				SuggestedFix: "Add boundary examples (clearly excellent and clearly poor content) to the prompt",
				Source:       e.Name(),
			})
		}
	}

	return patterns
}

// exampleItems converts up to maxPatternExamples item details into pattern
// example tuples.
func exampleItems(items []types.ItemDetail) []types.PatternExample {
	n := len(items)
	if n > maxPatternExamples {
		n = maxPatternExamples
	}
	examples := make([]types.PatternExample, 0, n)
	for _, d := range items[:n] {
		examples = append(examples, types.PatternExample{
			Input:    d.Input,
			Expected: d.Expected,
			Actual:   d.Actual,
			Error:    strconv.FormatFloat(d.Error, 'f', 3, 64),
		})
	}
	return examples
}
