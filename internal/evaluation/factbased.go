package evaluation

import (
	"fmt"
	"strings"

	"github.com/promptopt/promptopt/internal/types"
)

// FactBasedEvaluator checks that responses contain a set of expected facts.
// Detection uses a custom validator when the fact defines one, otherwise
// case-insensitive keyword matching derived from the fact's name and
// description.
type FactBasedEvaluator struct{}

// NewFactBasedEvaluator creates a fact-based strategy instance.
func NewFactBasedEvaluator() *FactBasedEvaluator {
	return &FactBasedEvaluator{}
}

// Name implements Strategy.
func (e *FactBasedEvaluator) Name() string { return "facts" }

// IsApplicable implements Strategy: fact checking needs textual responses
// and fact requirements.
func (e *FactBasedEvaluator) IsApplicable(c Capabilities) bool {
	return c.TextContent && c.FactRequirements
}

// requiredWeight and optionalWeight set the per-response scoring weights.
const (
	requiredWeight = 2.0
	optionalWeight = 1.0
)

// Evaluate implements Strategy.
func (e *FactBasedEvaluator) Evaluate(sample *Sample) (*types.EvaluationResult, error) {
	responses := sample.Responses
	if len(sample.Facts) > 1 && len(sample.Facts) != len(responses) {
		return nil, fmt.Errorf("%w: %d responses vs %d fact requirement sets",
			types.ErrLengthMismatch, len(responses), len(sample.Facts))
	}

	var (
		details        = make([]types.ItemDetail, 0, len(responses))
		presentWeight  float64 // coverage numerator
		requiredTotal  float64 // coverage denominator
		confidenceSum  float64
		checksTotal    int
		missingByName  = map[string]int{}
		missingOrdered []string
	)

	for i, response := range responses {
		facts := e.factsFor(sample, i)
		detail := types.ItemDetail{
			Index:   i,
			Actual:  response,
			Metrics: map[string]float64{},
		}
		if i < len(sample.Inputs) {
			detail.Input = sample.Inputs[i]
		}
		if i < len(sample.Expected) {
			detail.Expected = sample.Expected[i]
		}

		if facts != nil {
			var weightedConf, weightTotal float64
			for _, fact := range facts.Facts {
				check := e.CheckFact(response, fact)
				detail.FactChecks = append(detail.FactChecks, check)
				confidenceSum += check.Confidence
				checksTotal++

				w := optionalWeight
				if fact.Required {
					w = requiredWeight
					requiredTotal += 1
					if check.Present {
						presentWeight += 1
					} else {
						if missingByName[fact.Name] == 0 {
							missingOrdered = append(missingOrdered, fact.Name)
						}
						missingByName[fact.Name]++
						detail.Missing = append(detail.Missing, fact.Name)
					}
				} else if check.Present {
					// Optional facts are a bonus: they add equal credit to
					// both sides of the coverage ratio and are ignored when
					// absent.
					presentWeight += 0.5
					requiredTotal += 0.5
				}
				weightedConf += w * check.Confidence
				weightTotal += w
			}
			if weightTotal > 0 {
				detail.Score = clamp01(weightedConf / weightTotal)
			}
			detail.Metrics["facts_checked"] = float64(len(facts.Facts))
			detail.Metrics["facts_missing"] = float64(len(detail.Missing))
		}

		details = append(details, detail)
	}

	score := 0.0
	if requiredTotal > 0 {
		score = clamp01(presentWeight / requiredTotal)
	}
	avgConfidence := 0.0
	if checksTotal > 0 {
		avgConfidence = confidenceSum / float64(checksTotal)
	}

	totalMissing := 0
	for _, n := range missingByName {
		totalMissing += n
	}

	return &types.EvaluationResult{
		Strategy: e.Name(),
		Score:    score,
		Metrics: map[string]float64{
			"coverage":       score,
			"avg_confidence": avgConfidence,
			"facts_checked":  float64(checksTotal),
			"facts_missing":  float64(totalMissing),
		},
		Details:      details,
		MissingFacts: missingOrdered,
	}, nil
}

// factsFor returns the fact requirements for response i. A single entry in
// the sample applies to every response.
func (e *FactBasedEvaluator) factsFor(sample *Sample, i int) *types.RequiredFacts {
	switch {
	case len(sample.Facts) == 1:
		return sample.Facts[0]
	case i < len(sample.Facts):
		return sample.Facts[i]
	default:
		return nil
	}
}

// CheckFact tests whether one fact is present in a response. A custom
// validator short-circuits keyword detection; its confidence is fixed at
// 0.9 when present and 0.1 when absent.
func (e *FactBasedEvaluator) CheckFact(response string, fact types.FactDefinition) types.FactCheckResult {
	if fact.Validator != nil {
		present := fact.Validator(response)
		confidence := 0.1
		if present {
			confidence = 0.9
		}
		return types.FactCheckResult{
			FactName:   fact.Name,
			Present:    present,
			Confidence: confidence,
		}
	}

	tokens := keywordTokens(fact.Name, fact.Description)
	if len(tokens) == 0 {
		return types.FactCheckResult{FactName: fact.Name}
	}

	lower := strings.ToLower(response)
	matched := 0
	firstIdx := -1
	firstLen := 0
	for _, tok := range tokens {
		if idx := strings.Index(lower, tok); idx >= 0 {
			matched++
			if firstIdx < 0 || idx < firstIdx {
				firstIdx = idx
				firstLen = len(tok)
			}
		}
	}

	confidence := float64(matched) / float64(len(tokens))
	result := types.FactCheckResult{
		FactName:   fact.Name,
		Present:    confidence >= 0.5,
		Confidence: confidence,
	}
	if firstIdx >= 0 {
		result.Evidence = evidenceWindow(response, firstIdx, firstLen)
	}
	return result
}

// evidenceWindow returns a ±50 character window around the first keyword
// match, clamped to the response bounds.
func evidenceWindow(response string, idx, matchLen int) string {
	start := idx - 50
	if start < 0 {
		start = 0
	}
	end := idx + matchLen + 50
	if end > len(response) {
		end = len(response)
	}
	return response[start:end]
}

// keywordStopwords are connective words ignored during keyword extraction.
var keywordStopwords = map[string]bool{
	"the": true, "and": true, "for": true, "with": true, "that": true,
	"this": true, "are": true, "was": true, "has": true, "have": true,
	"its": true, "from": true, "into": true, "must": true, "should": true,
}

// keywordTokens derives lowercase detection tokens from a fact's name and
// description. Falls back to the whole lowercased name when nothing
// tokenizes.
func keywordTokens(name, description string) []string {
	split := func(s string) []string {
		return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
			return !(r >= 'a' && r <= 'z') && !(r >= '0' && r <= '9')
		})
	}

	seen := map[string]bool{}
	var tokens []string
	for _, tok := range append(split(name), split(description)...) {
		if len(tok) < 3 || keywordStopwords[tok] || seen[tok] {
			continue
		}
		seen[tok] = true
		tokens = append(tokens, tok)
	}

	if len(tokens) == 0 && name != "" {
		tokens = append(tokens, strings.ToLower(name))
	}
	return tokens
}

// GenerateFeedback implements Strategy.
func (e *FactBasedEvaluator) GenerateFeedback(result *types.EvaluationResult) *types.DetailedFeedback {
	fb := &types.DetailedFeedback{
		Summary: fmt.Sprintf("Fact coverage %.2f across %d responses (%d required facts missing)",
			result.Score, len(result.Details), len(result.MissingFacts)),
	}

	if result.Score >= 0.8 {
		fb.Strengths = append(fb.Strengths, "Responses cover nearly all required facts")
	} else if result.Score < 0.5 {
		fb.Weaknesses = append(fb.Weaknesses, fmt.Sprintf("Less than half of required fact coverage achieved (%.2f)", result.Score))
	}

	if conf := result.Metrics["avg_confidence"]; conf >= 0.7 {
		fb.Strengths = append(fb.Strengths, fmt.Sprintf("Fact detection is confident (avg %.2f)", conf))
	} else if conf < 0.4 && result.Metrics["facts_checked"] > 0 {
		fb.Weaknesses = append(fb.Weaknesses, "Facts appear only partially or with weak phrasing")
		fb.Improvements = append(fb.Improvements, "Require the agent to state key facts explicitly rather than implying them")
	}

	for _, name := range result.MissingFacts {
		fb.ActionItems = append(fb.ActionItems, fmt.Sprintf("Ensure responses always mention %q", name))
	}
	if len(result.MissingFacts) > 0 {
		fb.Improvements = append(fb.Improvements, "Enumerate the required facts as a checklist inside the prompt")
	}

	for _, p := range e.AnalyzePatterns([]*types.EvaluationResult{result}) {
		fb.Patterns = append(fb.Patterns, fmt.Sprintf("%s (%.0f%% of items): %s", p.Type, p.Frequency*100, p.SuggestedFix))
	}

	return fb
}

// AnalyzePatterns implements PatternDetector. It flags facts that go
// missing across a large share of responses and batches stuck at partial
// coverage.
func (e *FactBasedEvaluator) AnalyzePatterns(results []*types.EvaluationResult) []types.FailurePattern {
	var details []types.ItemDetail
	for _, r := range results {
		details = append(details, r.Details...)
	}
	if len(details) == 0 {
		return nil
	}

	total := float64(len(details))
	var patterns []types.FailurePattern

	// Systematic-missing-fact: one pattern per fact absent in >30% of items.
	missingCounts := map[string]int{}
	missingItems := map[string][]types.ItemDetail{}
	var order []string
	for _, d := range details {
		for _, name := range d.Missing {
			if missingCounts[name] == 0 {
				order = append(order, name)
			}
			missingCounts[name]++
			missingItems[name] = append(missingItems[name], d)
		}
	}
	for _, name := range order {
		if freq := float64(missingCounts[name]) / total; freq > 0.3 {
			patterns = append(patterns, types.FailurePattern{
				Type:         "systematic-missing-fact",
				Frequency:    clamp01(freq),
				Examples:     exampleItems(missingItems[name]),
				SuggestedFix: fmt.Sprintf("Add an explicit instruction to always include %q in the response", name),
				Source:       e.Name(),
			})
		}
	}

	// Partial-fact-coverage: most items land strictly between 0.3 and 0.7.
	var partial []types.ItemDetail
	for _, d := range details {
		if d.Score > 0.3 && d.Score < 0.7 {
			partial = append(partial, d)
		}
	}
	if freq := float64(len(partial)) / total; freq > 0.5 {
		patterns = append(patterns, types.FailurePattern{
			Type:         "partial-fact-coverage",
			Frequency:    clamp01(freq),
			Examples:     exampleItems(partial),
			SuggestedFix: "Responses mention some facts but not all; restructure the prompt around a complete fact checklist",
			Source:       e.Name(),
		})
	}

	return patterns
}
