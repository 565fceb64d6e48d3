package evaluation

import (
	"fmt"

	"github.com/promptopt/promptopt/internal/metrics"
	"github.com/promptopt/promptopt/internal/types"
)

// scoreBucket is one band of the score-cluster pass.
type scoreBucket struct {
	label string
	lo    float64
	hi    float64 // exclusive, except the top bucket
	fix   string
}

var scoreBuckets = []scoreBucket{
	{"0.0-0.3", 0.0, 0.3, "Scores cluster at the bottom; the task is likely misunderstood, restate it with worked examples"},
	{"0.3-0.5", 0.3, 0.5, "Scores cluster below passing; tighten the success criteria in the prompt"},
	{"0.5-0.7", 0.5, 0.7, "Scores cluster at mediocre; the prompt gets the basics but misses refinement guidance"},
	{"0.7-0.9", 0.7, 0.9, "Scores cluster near-good; add edge-case instructions to push items over the line"},
	{"0.9-1.0", 0.9, 1.01, "Scores cluster at the top; consider a stricter dataset, the current one no longer discriminates"},
}

// AnalyzeGenericPatterns is the fallback pattern pass applied when a
// strategy provides no analysis of its own. It inspects only the common
// fields of the results, so it works for any strategy.
func AnalyzeGenericPatterns(results []*types.EvaluationResult, source string) []types.FailurePattern {
	var details []types.ItemDetail
	for _, r := range results {
		details = append(details, r.Details...)
	}
	if len(details) == 0 {
		return nil
	}

	total := float64(len(details))
	scores := make([]float64, len(details))
	for i, d := range details {
		scores[i] = d.Score
	}

	var patterns []types.FailurePattern

	var low []types.ItemDetail
	for _, d := range details {
		if d.Score < 0.5 {
			low = append(low, d)
		}
	}
	if freq := float64(len(low)) / total; freq > 0.3 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "low-scores",
			Frequency:    clamp01(freq),
			Examples:     exampleItems(low),
			SuggestedFix: "A large share of items score below 0.5; strengthen the prompt's core task guidance",
			Source:       source,
		})
	}

	if variance := metrics.Variance(scores); variance > 0.1 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "high-score-variance",
			Frequency:    clamp01(variance),
			SuggestedFix: "Item scores vary widely; add few-shot examples or lower the temperature for steadier output",
			Source:       source,
		})
	}

	missingMetrics := 0
	for _, d := range details {
		if len(d.Metrics) == 0 {
			missingMetrics++
		}
	}
	if freq := float64(missingMetrics) / total; freq > 0.2 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "missing-metrics",
			Frequency:    clamp01(freq),
			SuggestedFix: "Many items produced no per-item metrics; the evaluation inputs may be incomplete",
			Source:       source,
		})
	}

	for _, bucket := range scoreBuckets {
		var members []types.ItemDetail
		for _, d := range details {
			if d.Score >= bucket.lo && d.Score < bucket.hi {
				members = append(members, d)
			}
		}
		if freq := float64(len(members)) / total; freq > 0.4 {
			patterns = append(patterns, types.FailurePattern{
				Type:         fmt.Sprintf("score-cluster-%s", bucket.label),
				Frequency:    clamp01(freq),
				Examples:     exampleItems(members),
				SuggestedFix: bucket.fix,
				Source:       source,
			})
		}
	}

	return patterns
}
