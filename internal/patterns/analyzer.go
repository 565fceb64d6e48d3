// Package patterns aggregates failure patterns across evaluation results
// and iterations. An Analyzer owns its cross-iteration history for the
// lifetime of one optimization run; it is not safe for concurrent writers
// and is driven from the single loop goroutine.
package patterns

import (
	"fmt"
	"sort"
	"strings"

	"github.com/promptopt/promptopt/internal/evaluation"
	"github.com/promptopt/promptopt/internal/types"
)

// Analyzer tracks failure patterns across evaluation runs and iterations.
type Analyzer struct {
	// history maps iteration number to the patterns observed there
	history map[int][]types.FailurePattern

	// typeCounts counts, per pattern type, how many tracked iterations
	// observed it at least once
	typeCounts map[string]int
}

// NewAnalyzer creates an empty analyzer. Use one instance per optimization
// run; the history map is scoped to the instance, never process-global.
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		history:    make(map[int][]types.FailurePattern),
		typeCounts: make(map[string]int),
	}
}

// AnalyzePatterns runs the strategy's own pattern analysis when it has one,
// otherwise the generic fallback pass.
func (a *Analyzer) AnalyzePatterns(results []*types.EvaluationResult, strategy evaluation.Strategy) []types.FailurePattern {
	if detector, ok := strategy.(evaluation.PatternDetector); ok {
		return detector.AnalyzePatterns(results)
	}
	return evaluation.AnalyzeGenericPatterns(results, strategy.Name())
}

// AnalyzeCrossStrategyPatterns runs the generic pass per named strategy and
// keeps only patterns observed under at least two distinct strategies,
// re-tagged with a cross-strategy prefix and with example lists merged.
func (a *Analyzer) AnalyzeCrossStrategyPatterns(resultsByStrategy map[string][]*types.EvaluationResult) []types.FailurePattern {
	type group struct {
		pattern    types.FailurePattern
		strategies map[string]bool
	}
	groups := map[string]*group{}
	var order []string

	names := make([]string, 0, len(resultsByStrategy))
	for name := range resultsByStrategy {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, p := range evaluation.AnalyzeGenericPatterns(resultsByStrategy[name], name) {
			key := p.Type + "|" + p.SuggestedFix
			g, ok := groups[key]
			if !ok {
				g = &group{pattern: p, strategies: map[string]bool{}}
				groups[key] = g
				order = append(order, key)
			} else {
				g.pattern.Examples = append(g.pattern.Examples, p.Examples...)
				if p.Frequency > g.pattern.Frequency {
					g.pattern.Frequency = p.Frequency
				}
			}
			g.strategies[name] = true
		}
	}

	var merged []types.FailurePattern
	for _, key := range order {
		g := groups[key]
		if len(g.strategies) < 2 {
			continue
		}
		p := g.pattern
		p.Type = "cross-strategy-" + p.Type
		p.Source = strings.Join(sortedKeys(g.strategies), ",")
		merged = append(merged, p)
	}
	return merged
}

// TrackPatternEvolution appends the iteration's patterns to the history and
// bumps the per-type occurrence counters. This is the engine's only
// long-lived mutable state.
func (a *Analyzer) TrackPatternEvolution(patterns []types.FailurePattern, iteration int) {
	a.history[iteration] = append(a.history[iteration], patterns...)

	seen := map[string]bool{}
	for _, p := range patterns {
		if seen[p.Type] {
			continue
		}
		seen[p.Type] = true
		a.typeCounts[p.Type]++
	}
}

// TrackedIterations returns how many iterations have been tracked so far.
func (a *Analyzer) TrackedIterations() int {
	return len(a.history)
}

// GetPersistentPatterns re-emits every pattern type observed in at least
// minIterations tracked iterations, with a persistent prefix and frequency
// rescaled to occurrences over total tracked iterations.
func (a *Analyzer) GetPersistentPatterns(minIterations int) []types.FailurePattern {
	if minIterations <= 0 {
		minIterations = 3
	}
	total := len(a.history)
	if total == 0 {
		return nil
	}

	// Latest observation per type serves as the template
	latest := map[string]types.FailurePattern{}
	iterations := make([]int, 0, len(a.history))
	for it := range a.history {
		iterations = append(iterations, it)
	}
	sort.Ints(iterations)
	for _, it := range iterations {
		for _, p := range a.history[it] {
			latest[p.Type] = p
		}
	}

	var persistent []types.FailurePattern
	typeNames := sortedKeysInt(a.typeCounts)
	for _, typ := range typeNames {
		count := a.typeCounts[typ]
		if count < minIterations {
			continue
		}
		p := latest[typ]
		p.Type = "persistent-" + typ
		p.Frequency = float64(count) / float64(total)
		persistent = append(persistent, p)
	}
	return persistent
}

// suggestionRules maps pattern-type substrings to canned remediations.
var suggestionRules = []struct {
	substring  string
	suggestion string
}{
	{"bias", "Calibrate the scoring scale with anchored examples at each band"},
	{"overestimation", "Calibrate the scoring scale with anchored examples at each band"},
	{"underestimation", "Calibrate the scoring scale with anchored examples at each band"},
	{"variance", "Lower the temperature or add few-shot examples to stabilize output"},
	{"missing", "Restructure the prompt with an explicit checklist of required content"},
	{"incomplete", "Restructure the prompt with an explicit checklist of required content"},
	{"partial", "Restructure the prompt with an explicit checklist of required content"},
	{"edge-case", "Add boundary-condition handling instructions and boundary examples"},
}

// SuggestImprovements maps observed patterns to a de-duplicated set of
// improvement directions, with a priority line when a pattern type's average
// frequency exceeds 0.5.
func (a *Analyzer) SuggestImprovements(patterns []types.FailurePattern) []string {
	freqSum := map[string]float64{}
	freqCount := map[string]int{}
	for _, p := range patterns {
		freqSum[p.Type] += p.Frequency
		freqCount[p.Type]++
	}

	seen := map[string]bool{}
	var suggestions []string
	add := func(s string) {
		if !seen[s] {
			seen[s] = true
			suggestions = append(suggestions, s)
		}
	}

	for _, p := range patterns {
		for _, rule := range suggestionRules {
			if strings.Contains(p.Type, rule.substring) {
				add(rule.suggestion)
			}
		}
		if avg := freqSum[p.Type] / float64(freqCount[p.Type]); avg > 0.5 {
			add(fmt.Sprintf("PRIORITY: %s affects over half of evaluated items; address it first", p.Type))
		}
	}
	return suggestions
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func sortedKeysInt(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
