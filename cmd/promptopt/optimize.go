package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptopt/promptopt/internal/config"
	"github.com/promptopt/promptopt/internal/types"
)

var (
	optimizeTarget        float64
	optimizeMaxIterations int
	optimizeStrategy      string
	optimizeSampleLimit   int
)

var optimizeCmd = &cobra.Command{
	Use:   "optimize <agent-key>",
	Short: "Iteratively optimize an agent's prompt",
	Long: `Run the optimization loop for an agent: evaluate it against the labeled
dataset, then have the research and engineer collaborators rewrite its
prompt, repeating until the target score is reached or improvement stalls.

Every iteration creates a new immutable agent and prompt version; the
original agent is never modified. Inspect lineage with 'promptopt agents show'.

Example:
  promptopt optimize summarizer
  promptopt optimize summarizer --target 0.95 --max-iterations 5
  promptopt optimize summarizer --strategy facts`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		agentKey := args[0]

		cfg, err := config.OptimizerConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("target") {
			cfg.TargetScore = optimizeTarget
		}
		if cmd.Flags().Changed("max-iterations") {
			cfg.MaxIterations = optimizeMaxIterations
		}
		if cmd.Flags().Changed("sample-limit") {
			cfg.SampleLimit = optimizeSampleLimit
		}
		if err := cfg.Validate(); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		optimizer, err := buildOptimizer(cfg, optimizeStrategy, cfg.SampleLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		fmt.Printf("\n%s\n", cyan("=== Optimizing "+agentKey+" ==="))
		fmt.Printf("Target: %.2f, max iterations: %d\n\n", cfg.TargetScore, cfg.MaxIterations)

		result, err := optimizer.Optimize(ctx, agentKey, types.ConvergenceConfig{
			TargetScore:                 cfg.TargetScore,
			MaxIterations:               cfg.MaxIterations,
			MaxConsecutiveNoImprovement: cfg.NoImprovementLimit,
			MinImprovementThreshold:     cfg.MinImprovement,
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: optimization failed: %v\n", err)
			os.Exit(1)
		}

		printOptimizationResult(result)
	},
}

func printOptimizationResult(result *types.OptimizationResult) {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Println()
	switch result.StoppedReason {
	case types.StopTargetReached:
		fmt.Printf("%s Target reached\n", green("✓"))
	case types.StopNoImprovement:
		fmt.Printf("%s Stopped: no improvement\n", yellow("⚠"))
	case types.StopMaxIterations:
		fmt.Printf("%s Stopped: iteration limit\n", yellow("⚠"))
	case types.StopError:
		fmt.Printf("%s Stopped early on error; best state returned\n", red("✗"))
	}

	fmt.Printf("\n  Run:         %s\n", result.RunID)
	fmt.Printf("  Final agent: %s (prompt %s)\n", result.FinalAgentKey, result.FinalPromptVersion)
	fmt.Printf("  Final score: %.3f (%+.3f over %d iterations)\n",
		result.FinalScore, result.TotalImprovement, result.Iterations)
	if result.InputTokens > 0 || result.OutputTokens > 0 {
		fmt.Printf("  Tokens:      %d in / %d out\n", result.InputTokens, result.OutputTokens)
	}

	if len(result.History) > 0 {
		fmt.Printf("\n%s\n", yellow("History:"))
		for _, step := range result.History {
			line := fmt.Sprintf("  %2d. %-24s score=%.3f", step.Iteration, step.AgentKey, step.Score)
			if step.Iteration > 1 {
				line += fmt.Sprintf(" (%+.3f)", step.Improvement)
			}
			if len(step.AppliedTechniques) > 0 {
				line += "  " + gray(strings.Join(step.AppliedTechniques, ", "))
			}
			fmt.Println(line)
		}
	}
	fmt.Println()
}

func init() {
	rootCmd.AddCommand(optimizeCmd)
	optimizeCmd.Flags().Float64Var(&optimizeTarget, "target", 0.9, "Target score that stops optimization early")
	optimizeCmd.Flags().IntVar(&optimizeMaxIterations, "max-iterations", 10, "Maximum loop iterations")
	optimizeCmd.Flags().StringVar(&optimizeStrategy, "strategy", "auto", "Evaluation strategy: auto, numeric, facts, or hybrid")
	optimizeCmd.Flags().IntVar(&optimizeSampleLimit, "sample-limit", 0, "Records per evaluation (0 = all)")
}
