package types

import "time"

// StopReason explains why an optimization run terminated.
type StopReason string

const (
	// StopTargetReached means the score met or exceeded the target
	StopTargetReached StopReason = "target-reached"

	// StopNoImprovement means too many consecutive iterations fell below
	// the minimum improvement threshold
	StopNoImprovement StopReason = "no-improvement"

	// StopMaxIterations means the iteration budget ran out
	StopMaxIterations StopReason = "max-iterations"

	// StopError means a collaborator failed after the first iteration and
	// the loop returned the best state reached so far
	StopError StopReason = "error"
)

// ConvergenceConfig controls when the optimization loop stops. It is
// immutable for the duration of one run.
type ConvergenceConfig struct {
	// TargetScore ends the run as soon as an evaluation meets it
	TargetScore float64 `json:"target_score"`

	// MaxIterations caps the total number of evaluate/rewrite cycles
	MaxIterations int `json:"max_iterations"`

	// MaxConsecutiveNoImprovement stops the run after this many
	// back-to-back iterations below MinImprovementThreshold
	MaxConsecutiveNoImprovement int `json:"max_consecutive_no_improvement"`

	// MinImprovementThreshold is the score delta below which an iteration
	// counts as "no improvement"
	MinImprovementThreshold float64 `json:"min_improvement_threshold"`
}

// DefaultConvergenceConfig returns the stock convergence criteria.
func DefaultConvergenceConfig() ConvergenceConfig {
	return ConvergenceConfig{
		TargetScore:                 0.9,
		MaxIterations:               10,
		MaxConsecutiveNoImprovement: 3,
		MinImprovementThreshold:     0.01,
	}
}

// OptimizationStep records one loop iteration. The history is append-only;
// every iteration including the terminal one produces exactly one step.
type OptimizationStep struct {
	Iteration           int        `json:"iteration"`
	AgentKey            string     `json:"agent_key"`
	PromptVersion       string     `json:"prompt_version"`
	Score               float64    `json:"score"`
	Improvement         float64    `json:"improvement"` // Score delta vs the previous iteration (0 on the first)
	FeedbackSummary     string     `json:"feedback_summary"`
	AppliedTechniques   []string   `json:"applied_techniques,omitempty"`
	ExpectedImprovement float64    `json:"expected_improvement,omitempty"` // Engineer's estimate; informational only, never gates the loop
	Timestamp           time.Time  `json:"timestamp"`
}

// OptimizationResult is the terminal summary of one optimize() invocation.
type OptimizationResult struct {
	RunID              string             `json:"run_id"`
	FinalAgentKey      string             `json:"final_agent_key"`
	FinalPromptVersion string             `json:"final_prompt_version"`
	FinalScore         float64            `json:"final_score"`
	TotalImprovement   float64            `json:"total_improvement"`
	Iterations         int                `json:"iterations"`
	History            []OptimizationStep `json:"history"`
	TargetReached      bool               `json:"target_reached"`
	StoppedReason      StopReason         `json:"stopped_reason"`
	InputTokens        int64              `json:"input_tokens"`
	OutputTokens       int64              `json:"output_tokens"`
}
