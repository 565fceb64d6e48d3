// Package types defines the core data model shared across the optimization
// engine: agents, prompt versions, labeled evaluation records, and the
// persisted run/assessment entities.
package types

import "time"

// Agent is one immutable agent configuration. Optimization never mutates an
// agent in place; each iteration materializes a new Agent row whose BasedOn
// field points at its predecessor, preserving full lineage.
type Agent struct {
	Key           string    `json:"key"`            // Unique agent key (e.g., "summarizer", "summarizer-opt2")
	Model         string    `json:"model"`          // Model identifier, carried unchanged across versions
	Temperature   float64   `json:"temperature"`    // Sampling temperature, carried unchanged across versions
	MaxTokens     int       `json:"max_tokens"`     // Response token budget
	PromptVersion string    `json:"prompt_version"` // Version of the instruction template this agent runs
	BasedOn       string    `json:"based_on"`       // Parent agent key, empty for base agents
	Iteration     int       `json:"iteration"`      // Optimization iteration that produced this version (0 = base)
	CreatedAt     time.Time `json:"created_at"`
}

// Prompt is one immutable instruction-template version. ParentVersion links
// versions into a directed acyclic lineage chain.
type Prompt struct {
	Version           string    `json:"version"`            // Version identifier (semver preferred, e.g., "v1.0.0")
	Template          string    `json:"template"`           // The instruction text given to the agent
	ParentVersion     string    `json:"parent_version"`     // Version this was derived from, empty for roots
	AppliedTechniques []string  `json:"applied_techniques"` // Techniques the engineer applied producing this version
	CreatedAt         time.Time `json:"created_at"`
}

// EvalRecord is one labeled record from the evaluation dataset. Numeric
// ground truth (CorrectedScore), expected textual output, and fact
// requirements are all optional; strategy selection inspects which are set.
type EvalRecord struct {
	ID             string         `json:"id"`
	Input          string         `json:"input"`
	ExpectedOutput string         `json:"expected_output,omitempty"`
	CorrectedScore *float64       `json:"corrected_score,omitempty"` // Human-corrected quality score in [0,1]
	Facts          *RequiredFacts `json:"facts,omitempty"`
}

// OptimizationRun is the persisted summary row for one optimize() invocation.
type OptimizationRun struct {
	ID               string     `json:"id"`
	AgentKey         string     `json:"agent_key"` // Base agent the run started from
	FinalAgentKey    string     `json:"final_agent_key"`
	FinalScore       float64    `json:"final_score"`
	TotalImprovement float64    `json:"total_improvement"`
	Iterations       int        `json:"iterations"`
	TargetReached    bool       `json:"target_reached"`
	StoppedReason    StopReason `json:"stopped_reason"`
	InputTokens      int64      `json:"input_tokens"`
	OutputTokens     int64      `json:"output_tokens"`
	StartedAt        time.Time  `json:"started_at"`
	FinishedAt       time.Time  `json:"finished_at"`
}

// Assessment is the persisted record of a single evaluation pass over an
// agent: its score, metric snapshot, and derived feedback summary.
type Assessment struct {
	ID              string             `json:"id"`
	AgentKey        string             `json:"agent_key"`
	PromptVersion   string             `json:"prompt_version"`
	Strategy        string             `json:"strategy"` // Evaluation strategy that produced the score
	Score           float64            `json:"score"`
	Metrics         map[string]float64 `json:"metrics"`
	FeedbackSummary string             `json:"feedback_summary"`
	CreatedAt       time.Time          `json:"created_at"`
}
