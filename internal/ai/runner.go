package ai

import (
	"context"
	"fmt"

	"github.com/promptopt/promptopt/internal/types"
)

// Runner executes an agent's instruction template against one input. The
// agent's model and parameters travel with the agent record, so optimized
// versions run exactly like their ancestors apart from the template.
type Runner struct {
	client *Client
}

var _ types.AgentRunner = (*Runner)(nil)

// NewRunner creates an agent runner backed by the shared client.
func NewRunner(client *Client) *Runner {
	return &Runner{client: client}
}

// Run implements types.AgentRunner.
func (r *Runner) Run(ctx context.Context, agent *types.Agent, prompt *types.Prompt, input string) (string, error) {
	maxTokens := agent.MaxTokens
	if maxTokens == 0 {
		maxTokens = 1024
	}

	fullPrompt := fmt.Sprintf("%s\n\nInput:\n%s", prompt.Template, input)

	output, err := r.client.CallText(ctx, "agent-run", agent.Model, fullPrompt, maxTokens)
	if err != nil {
		return "", &types.CollaboratorError{Role: "runner", Err: err}
	}
	return output, nil
}
