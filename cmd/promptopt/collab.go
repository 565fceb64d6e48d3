package main

import (
	"fmt"

	"github.com/promptopt/promptopt/internal/ai"
	"github.com/promptopt/promptopt/internal/config"
	"github.com/promptopt/promptopt/internal/evaluation"
	"github.com/promptopt/promptopt/internal/optimize"
)

// buildOptimizer assembles the optimizer with live Anthropic-backed
// collaborators.
func buildOptimizer(cfg config.OptimizerConfig, strategyName string, sampleLimit int) (*optimize.Optimizer, error) {
	client, err := ai.NewClient(&ai.Config{
		RequestsPerSecond: cfg.RequestsPerSecond,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create AI client: %w", err)
	}

	strategy, err := resolveStrategy(strategyName)
	if err != nil {
		return nil, err
	}

	return optimize.New(&optimize.Config{
		Store:       store,
		Runner:      ai.NewRunner(client),
		Researcher:  ai.NewResearcher(client, ""),
		Engineer:    ai.NewEngineer(client, ""),
		Strategy:    strategy,
		SampleLimit: sampleLimit,
		Usage:       client,
	})
}

// resolveStrategy maps the --strategy flag to an evaluation strategy.
// Empty and "auto" mean capability-based selection.
func resolveStrategy(name string) (evaluation.Strategy, error) {
	if name == "" || name == "auto" {
		return nil, nil
	}
	return evaluation.ByName(name)
}
