package ai

import (
	"context"
	"fmt"

	"github.com/promptopt/promptopt/internal/types"
)

// Engineer turns research recommendations into a revised instruction
// template.
type Engineer struct {
	client *Client
	model  string
}

var _ types.Engineer = (*Engineer)(nil)

// NewEngineer creates an engineer collaborator backed by the shared client.
func NewEngineer(client *Client, model string) *Engineer {
	if model == "" {
		model = client.Model()
	}
	return &Engineer{client: client, model: model}
}

// Engineer implements types.Engineer.
func (e *Engineer) Engineer(ctx context.Context, req types.EngineerRequest) (*types.Revision, error) {
	prompt := buildEngineerPrompt(req)

	responseText, err := e.client.CallText(ctx, "engineer", e.model, prompt, 8192)
	if err != nil {
		return nil, &types.CollaboratorError{Role: "engineer", Err: err}
	}

	parseResult := Parse[types.Revision](responseText, "engineer response")
	if !parseResult.Success {
		return nil, &types.CollaboratorError{
			Role: "engineer",
			Err:  fmt.Errorf("failed to parse engineer response: %s (response: %s)", parseResult.Error, truncate(responseText, 200)),
		}
	}

	revision := parseResult.Data
	if revision.ImprovedPrompt == "" {
		return nil, &types.CollaboratorError{
			Role: "engineer",
			Err:  fmt.Errorf("engineer returned an empty improved prompt"),
		}
	}
	return &revision, nil
}

func buildEngineerPrompt(req types.EngineerRequest) string {
	findings := "none provided"
	if req.ResearchFindings != nil {
		findings = mustJSON(req.ResearchFindings)
	}

	return fmt.Sprintf(`You are a prompt engineer. Rewrite the instruction template below to address the research findings while preserving its intent and output format.

Current instruction template:
---
%s
---

Latest evaluation score: %.2f

Evaluation feedback:
%s

Research findings:
%s

Apply the recommended techniques, highest priority first. Keep everything that already works.

Respond with JSON only, no other text:
{
  "improved_prompt": "the complete rewritten instruction template",
  "applied_techniques": ["technique you actually applied"],
  "expected_improvement": 0.05
}`, req.CurrentPrompt, req.EvaluationScore, req.Feedback, findings)
}
