package types

// EvaluationResult is the output of one Strategy.Evaluate call. Results are
// immutable once returned; feedback and pattern analysis derive from them
// without touching the inputs.
type EvaluationResult struct {
	// Strategy is the name of the strategy that produced this result
	Strategy string `json:"strategy"`

	// Score is the overall quality score in [0,1]
	Score float64 `json:"score"`

	// Metrics maps metric names (rmse, mae, correlation, ...) to values
	Metrics map[string]float64 `json:"metrics"`

	// Details holds one record per evaluated item, in input order
	Details []ItemDetail `json:"details"`

	// SubResults holds per-strategy sub-results for composite strategies
	// (the hybrid evaluator stores its "numeric" and "facts" halves here)
	SubResults map[string]*EvaluationResult `json:"sub_results,omitempty"`

	// MissingFacts lists fact names absent from at least one response
	// (fact-based strategy only)
	MissingFacts []string `json:"missing_facts,omitempty"`
}

// ItemDetail records how a single item scored.
type ItemDetail struct {
	Index      int                `json:"index"`
	Input      string             `json:"input,omitempty"`
	Expected   string             `json:"expected,omitempty"`
	Actual     string             `json:"actual,omitempty"`
	Score      float64            `json:"score"`
	Error      float64            `json:"error"` // Signed prediction error (numeric strategy)
	Metrics    map[string]float64 `json:"metrics,omitempty"`
	FactChecks []FactCheckResult  `json:"fact_checks,omitempty"`
	Missing    []string           `json:"missing,omitempty"` // Required facts absent from this response
}

// DetailedFeedback is the human-readable view of one EvaluationResult,
// derived deterministically with no I/O.
type DetailedFeedback struct {
	Summary     string   `json:"summary"`
	Strengths   []string `json:"strengths"`
	Weaknesses  []string `json:"weaknesses"`
	ActionItems []string `json:"action_items"`
	Improvements []string `json:"improvements"`
	Patterns    []string `json:"patterns"`
}

// FailurePattern names one recurring failure mode observed across evaluated
// items, with how often it occurred and what to do about it.
type FailurePattern struct {
	// Type is the pattern tag (e.g., "consistent-overestimation")
	Type string `json:"type"`

	// Frequency is the fraction of items exhibiting the pattern, in [0,1]
	Frequency float64 `json:"frequency"`

	// Examples holds up to a few representative failing items
	Examples []PatternExample `json:"examples,omitempty"`

	// SuggestedFix is the canned remediation for this pattern
	SuggestedFix string `json:"suggested_fix"`

	// Source names the strategy whose analysis emitted the pattern
	Source string `json:"source"`
}

// PatternExample is one representative failing item attached to a pattern.
type PatternExample struct {
	Input    string `json:"input,omitempty"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
	Error    string `json:"error,omitempty"`
}

// FactDefinition describes one fact a response is expected to contain.
// Validator, when set, overrides keyword detection entirely.
type FactDefinition struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`

	// Required defaults to true; optional facts contribute bonus credit
	// to coverage but never penalize when absent
	Required bool `json:"required" yaml:"required"`

	// Validator is a custom presence check; not serializable
	Validator func(response string) bool `json:"-" yaml:"-"`
}

// RequiredFacts bundles the facts expected in one response.
type RequiredFacts struct {
	Facts []FactDefinition `json:"facts" yaml:"facts"`
}

// RequiredCount returns the number of required facts.
func (r *RequiredFacts) RequiredCount() int {
	n := 0
	for _, f := range r.Facts {
		if f.Required {
			n++
		}
	}
	return n
}

// FactCheckResult is the outcome of checking one fact against one response.
type FactCheckResult struct {
	FactName   string  `json:"fact_name"`
	Present    bool    `json:"present"`
	Confidence float64 `json:"confidence"` // Detection confidence in [0,1]
	Evidence   string  `json:"evidence"`   // Substring of the response supporting the detection
}
