package optimize

import (
	"context"
	"fmt"

	"github.com/promptopt/promptopt/internal/evaluation"
	"github.com/promptopt/promptopt/internal/types"
)

// EvaluateOnce runs a single evaluation pass over the named agent without
// entering the optimization loop. The assessment is persisted like a loop
// iteration's would be.
func (o *Optimizer) EvaluateOnce(ctx context.Context, agentKey string) (*types.EvaluationResult, *types.DetailedFeedback, error) {
	agent, err := o.store.GetAgent(ctx, agentKey)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load agent %s: %w", agentKey, err)
	}
	if agent == nil {
		return nil, nil, fmt.Errorf("agent %s: %w", agentKey, types.ErrNotFound)
	}
	prompt, err := o.store.GetPrompt(ctx, agent.PromptVersion)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load prompt %s: %w", agent.PromptVersion, err)
	}
	if prompt == nil {
		return nil, nil, fmt.Errorf("prompt version %s: %w", agent.PromptVersion, types.ErrNotFound)
	}

	records, err := o.store.ListEvalRecords(ctx, o.sampleLimit)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load eval records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("agent %s: %w", agentKey, types.ErrNoTestData)
	}

	sample, err := o.buildSample(ctx, agent, prompt, records)
	if err != nil {
		return nil, nil, err
	}

	strategy := o.strategy
	if strategy == nil {
		strategy, err = evaluation.Select(evaluation.DetectCapabilities(records), evaluation.DefaultStrategies())
		if err != nil {
			return nil, nil, err
		}
	}

	result, err := strategy.Evaluate(sample)
	if err != nil {
		return nil, nil, err
	}
	feedback := strategy.GenerateFeedback(result)
	o.recordAssessment(ctx, agent, strategy.Name(), result, feedback)
	return result, feedback, nil
}
