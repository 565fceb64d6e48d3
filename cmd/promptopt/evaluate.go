package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptopt/promptopt/internal/config"
)

var (
	evaluateStrategy    string
	evaluateSampleLimit int
	evaluateVerbose     bool
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate <agent-key>",
	Short: "Evaluate an agent against the labeled dataset",
	Long: `Run the agent over every labeled record and score its responses with an
evaluation strategy. Without --strategy the strategy is selected from what
ground truth the dataset carries.

Example:
  promptopt evaluate summarizer
  promptopt evaluate summarizer --strategy numeric --verbose`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		agentKey := args[0]

		cfg, err := config.OptimizerConfigFromEnv()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if cmd.Flags().Changed("sample-limit") {
			cfg.SampleLimit = evaluateSampleLimit
		}

		optimizer, err := buildOptimizer(cfg, evaluateStrategy, cfg.SampleLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		result, feedback, err := optimizer.EvaluateOnce(ctx, agentKey)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: evaluation failed: %v\n", err)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Evaluation: "+agentKey+" ==="))
		fmt.Printf("  Strategy: %s\n", result.Strategy)
		fmt.Printf("  Score:    %s\n", scoreColor(result.Score)(fmt.Sprintf("%.3f", result.Score)))

		if len(result.Metrics) > 0 {
			fmt.Printf("\n%s\n", yellow("Metrics:"))
			names := make([]string, 0, len(result.Metrics))
			for name := range result.Metrics {
				names = append(names, name)
			}
			sort.Strings(names)
			for _, name := range names {
				fmt.Printf("  %-18s %.4f\n", name, result.Metrics[name])
			}
		}

		if len(result.MissingFacts) > 0 {
			fmt.Printf("\n%s\n", yellow("Missing facts:"))
			for _, fact := range result.MissingFacts {
				fmt.Printf("  - %s\n", fact)
			}
		}

		fmt.Printf("\n%s\n  %s\n", yellow("Feedback:"), feedback.Summary)
		printList(yellow("Strengths:"), feedback.Strengths)
		printList(yellow("Weaknesses:"), feedback.Weaknesses)
		printList(yellow("Action items:"), feedback.ActionItems)

		if evaluateVerbose && len(result.Details) > 0 {
			fmt.Printf("\n%s\n", yellow("Per-item scores:"))
			for _, item := range result.Details {
				fmt.Printf("  %3d. score=%.3f %s\n", item.Index+1, item.Score, gray(truncateLine(item.Input, 60)))
			}
		}
		fmt.Println()
	},
}

func scoreColor(score float64) func(a ...interface{}) string {
	switch {
	case score >= 0.8:
		return color.New(color.FgGreen).SprintFunc()
	case score >= 0.5:
		return color.New(color.FgYellow).SprintFunc()
	default:
		return color.New(color.FgRed).SprintFunc()
	}
}

func printList(header string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Printf("\n%s\n", header)
	for _, item := range items {
		fmt.Printf("  - %s\n", item)
	}
}

func truncateLine(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}

func init() {
	rootCmd.AddCommand(evaluateCmd)
	evaluateCmd.Flags().StringVar(&evaluateStrategy, "strategy", "auto", "Evaluation strategy: auto, numeric, facts, or hybrid")
	evaluateCmd.Flags().IntVar(&evaluateSampleLimit, "sample-limit", 0, "Records to evaluate (0 = all)")
	evaluateCmd.Flags().BoolVarP(&evaluateVerbose, "verbose", "v", false, "Show per-item scores")
}
