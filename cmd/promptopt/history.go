package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptopt/promptopt/internal/types"
)

var historyLimit int

var historyCmd = &cobra.Command{
	Use:   "history [run-id]",
	Short: "Show optimization run history",
	Long: `Without arguments, list past optimization runs. With a run ID, show the
run's full iteration history.`,
	Args: cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		if len(args) == 1 {
			showRun(ctx, args[0])
			return
		}

		runs, err := store.ListRuns(ctx, historyLimit)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(runs) == 0 {
			fmt.Printf("%s\n", gray("No optimization runs yet."))
			return
		}

		fmt.Printf("%-36s %-20s %-6s %-6s %s\n", "RUN", "AGENT", "ITERS", "SCORE", "STOPPED")
		for _, run := range runs {
			fmt.Printf("%-36s %-20s %-6d %-6.3f %s\n",
				run.ID, run.AgentKey, run.Iterations, run.FinalScore, reasonLabel(run))
		}
	},
}

func showRun(ctx context.Context, runID string) {
	run, err := store.GetRun(ctx, runID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if run == nil {
		fmt.Fprintf(os.Stderr, "Error: run %s not found\n", runID)
		os.Exit(1)
	}

	cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	gray := color.New(color.FgHiBlack).SprintFunc()

	fmt.Printf("\n%s\n\n", cyan("=== Run "+run.ID+" ==="))
	fmt.Printf("  Base agent:  %s\n", run.AgentKey)
	fmt.Printf("  Final agent: %s\n", run.FinalAgentKey)
	fmt.Printf("  Final score: %.3f (%+.3f)\n", run.FinalScore, run.TotalImprovement)
	fmt.Printf("  Stopped:     %s\n", reasonLabel(run))
	if run.InputTokens > 0 || run.OutputTokens > 0 {
		fmt.Printf("  Tokens:      %d in / %d out\n", run.InputTokens, run.OutputTokens)
	}
	fmt.Printf("  Started:     %s\n", run.StartedAt.Format("2006-01-02 15:04:05"))
	if !run.FinishedAt.IsZero() {
		fmt.Printf("  Finished:    %s\n", run.FinishedAt.Format("2006-01-02 15:04:05"))
	}

	steps, err := store.GetRunSteps(ctx, run.ID)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if len(steps) > 0 {
		fmt.Printf("\n%s\n", yellow("Iterations:"))
		for _, step := range steps {
			line := fmt.Sprintf("  %2d. %-24s score=%.3f", step.Iteration, step.AgentKey, step.Score)
			if step.Iteration > 1 {
				line += fmt.Sprintf(" (%+.3f)", step.Improvement)
			}
			if len(step.AppliedTechniques) > 0 {
				line += "  " + gray(strings.Join(step.AppliedTechniques, ", "))
			}
			fmt.Println(line)
			if step.FeedbackSummary != "" {
				fmt.Printf("      %s\n", gray(truncateLine(step.FeedbackSummary, 90)))
			}
		}
	}
	fmt.Println()
}

func reasonLabel(run *types.OptimizationRun) string {
	green := color.New(color.FgGreen).SprintFunc()
	yellow := color.New(color.FgYellow).SprintFunc()
	red := color.New(color.FgRed).SprintFunc()

	switch run.StoppedReason {
	case types.StopTargetReached:
		return green(string(run.StoppedReason))
	case types.StopError:
		return red(string(run.StoppedReason))
	case "":
		return yellow("in progress")
	default:
		return yellow(string(run.StoppedReason))
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list")
}
