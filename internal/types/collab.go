package types

import "context"

// ResearchRequest carries the context the research collaborator needs to
// diagnose a prompt's weaknesses.
type ResearchRequest struct {
	CurrentPrompt   string  `json:"current_prompt"`
	EvaluationScore float64 `json:"evaluation_score"`
	Feedback        string  `json:"feedback"`
}

// Recommendation is one prioritized improvement suggestion from research.
type Recommendation struct {
	Technique string `json:"technique"`
	Rationale string `json:"rationale"`
	Priority  int    `json:"priority"` // 1 = highest
}

// ResearchFindings is the research collaborator's structured response.
type ResearchFindings struct {
	Issues                 []string         `json:"issues"`
	Recommendations        []Recommendation `json:"recommendations"`
	ImplementationStrategy string           `json:"implementation_strategy"`
}

// EngineerRequest carries the research findings plus evaluation context to
// the engineer collaborator for an actual rewrite.
type EngineerRequest struct {
	CurrentPrompt    string            `json:"current_prompt"`
	EvaluationScore  float64           `json:"evaluation_score"`
	Feedback         string            `json:"feedback"`
	ResearchFindings *ResearchFindings `json:"research_findings"`
}

// Revision is the engineer collaborator's structured response: the rewritten
// instruction template plus what it did and what it expects.
type Revision struct {
	ImprovedPrompt    string   `json:"improved_prompt"`
	AppliedTechniques []string `json:"applied_techniques"`

	// ExpectedImprovement is the engineer's own estimate of the score
	// delta; recorded on the step but never used to gate the loop
	ExpectedImprovement float64 `json:"expected_improvement"`
}

// Researcher turns evaluation feedback into prioritized recommendations.
// Opaque request/response from the engine's perspective.
type Researcher interface {
	Research(ctx context.Context, req ResearchRequest) (*ResearchFindings, error)
}

// Engineer turns recommendations into a revised instruction template.
type Engineer interface {
	Engineer(ctx context.Context, req EngineerRequest) (*Revision, error)
}

// AgentRunner executes an agent's instruction template against one input and
// returns the raw model output. The prompt is resolved by the caller so the
// runner stays a pure request/response function.
type AgentRunner interface {
	Run(ctx context.Context, agent *Agent, prompt *Prompt, input string) (string, error)
}
