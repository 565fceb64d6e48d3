package ai

import (
	"context"
	"fmt"

	"github.com/promptopt/promptopt/internal/types"
)

// Researcher turns evaluation feedback into a set of prioritized prompt
// improvement recommendations. It is an opaque request/response function
// from the loop's perspective.
type Researcher struct {
	client *Client
	model  string
}

// Compile-time check that Researcher satisfies the collaborator contract.
var _ types.Researcher = (*Researcher)(nil)

// NewResearcher creates a research collaborator backed by the shared client.
func NewResearcher(client *Client, model string) *Researcher {
	if model == "" {
		model = client.Model()
	}
	return &Researcher{client: client, model: model}
}

// Research implements types.Researcher.
func (r *Researcher) Research(ctx context.Context, req types.ResearchRequest) (*types.ResearchFindings, error) {
	prompt := buildResearchPrompt(req)

	responseText, err := r.client.CallText(ctx, "research", r.model, prompt, 4096)
	if err != nil {
		return nil, &types.CollaboratorError{Role: "research", Err: err}
	}

	parseResult := Parse[types.ResearchFindings](responseText, "research response")
	if !parseResult.Success {
		return nil, &types.CollaboratorError{
			Role: "research",
			Err:  fmt.Errorf("failed to parse research response: %s (response: %s)", parseResult.Error, truncate(responseText, 200)),
		}
	}

	findings := parseResult.Data
	return &findings, nil
}

func buildResearchPrompt(req types.ResearchRequest) string {
	return fmt.Sprintf(`You are a prompt engineering researcher. An instruction template is underperforming and you must diagnose why.

Current instruction template:
---
%s
---

Latest evaluation score: %.2f

Evaluation feedback:
%s

Identify the concrete issues holding the score back and recommend prompt engineering techniques to fix them. Prioritize recommendations by expected impact (1 = highest).

Respond with JSON only, no other text:
{
  "issues": ["specific problem observed in the template or its output"],
  "recommendations": [
    {"technique": "name of the technique", "rationale": "why it addresses an issue above", "priority": 1}
  ],
  "implementation_strategy": "one paragraph describing how to apply the recommendations together"
}`, req.CurrentPrompt, req.EvaluationScore, req.Feedback)
}
