package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptopt/promptopt/internal/types"
)

var agentsCmd = &cobra.Command{
	Use:   "agents",
	Short: "List and manage agents",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		agents, err := store.ListAgents(ctx)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to list agents: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(agents) == 0 {
			fmt.Printf("%s\n", gray("No agents. Create one with 'promptopt agents create'."))
			return
		}

		fmt.Printf("%-28s %-32s %-12s %s\n", "KEY", "MODEL", "PROMPT", "BASED ON")
		for _, agent := range agents {
			basedOn := agent.BasedOn
			if basedOn == "" {
				basedOn = gray("-")
			}
			fmt.Printf("%-28s %-32s %-12s %s\n", agent.Key, agent.Model, agent.PromptVersion, basedOn)
		}
	},
}

var (
	createModel       string
	createTemperature float64
	createMaxTokens   int
	createPromptFile  string
	createPromptVer   string
)

var agentsCreateCmd = &cobra.Command{
	Use:   "create --key <key> --prompt-file <file>",
	Short: "Register a base agent and its initial prompt version",
	Long: `Register a new base agent. The prompt template is read from --prompt-file
and stored as the agent's initial prompt version.

Example:
  promptopt agents create --key summarizer --prompt-file prompt.txt
  promptopt agents create --key scorer --model claude-3-5-haiku-20241022 --temperature 0.2`,
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		key, _ := cmd.Flags().GetString("key")
		if key == "" {
			fmt.Fprintf(os.Stderr, "Error: --key is required\n")
			os.Exit(1)
		}
		if createPromptFile == "" {
			fmt.Fprintf(os.Stderr, "Error: --prompt-file is required\n")
			os.Exit(1)
		}

		existing, err := store.GetAgent(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if existing != nil {
			fmt.Fprintf(os.Stderr, "Error: agent %s already exists\n", key)
			os.Exit(1)
		}

		template, err := os.ReadFile(createPromptFile)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: failed to read prompt file: %v\n", err)
			os.Exit(1)
		}

		version := createPromptVer + "-" + key
		prompt := &types.Prompt{
			Version:  version,
			Template: string(template),
		}
		if err := store.CreatePrompt(ctx, prompt); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		agent := &types.Agent{
			Key:           key,
			Model:         createModel,
			Temperature:   createTemperature,
			MaxTokens:     createMaxTokens,
			PromptVersion: version,
		}
		if err := store.CreateAgent(ctx, agent); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Created agent %s (prompt %s)\n", green("✓"), key, version)
	},
}

var agentsShowCmd = &cobra.Command{
	Use:   "show <agent-key>",
	Short: "Show an agent, its lineage, and recent assessments",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()
		key := args[0]

		agent, err := store.GetAgent(ctx, key)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if agent == nil {
			fmt.Fprintf(os.Stderr, "Error: agent %s not found\n", key)
			os.Exit(1)
		}

		cyan := color.New(color.FgCyan, color.Bold).SprintFunc()
		yellow := color.New(color.FgYellow).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s\n\n", cyan("=== Agent: "+key+" ==="))
		fmt.Printf("  Model:       %s\n", agent.Model)
		fmt.Printf("  Temperature: %.2f\n", agent.Temperature)
		fmt.Printf("  Max tokens:  %d\n", agent.MaxTokens)
		fmt.Printf("  Prompt:      %s\n", agent.PromptVersion)
		fmt.Printf("  Created:     %s\n", agent.CreatedAt.Format("2006-01-02 15:04:05"))

		lineage, err := store.GetAgentLineage(ctx, key)
		if err == nil && len(lineage) > 1 {
			fmt.Printf("\n%s\n", yellow("Lineage (newest first):"))
			for _, ancestor := range lineage {
				marker := ""
				if ancestor.Iteration > 0 {
					marker = gray(fmt.Sprintf(" (iteration %d)", ancestor.Iteration))
				}
				fmt.Printf("  %s%s\n", ancestor.Key, marker)
			}
		}

		assessments, err := store.GetAssessmentsByAgent(ctx, key)
		if err == nil && len(assessments) > 0 {
			fmt.Printf("\n%s\n", yellow("Recent assessments:"))
			limit := len(assessments)
			if limit > 5 {
				limit = 5
			}
			for _, a := range assessments[:limit] {
				fmt.Printf("  %s  %-8s score=%.3f\n",
					a.CreatedAt.Format("2006-01-02 15:04"), a.Strategy, a.Score)
			}
		}
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(agentsCmd)
	agentsCmd.AddCommand(agentsCreateCmd)
	agentsCmd.AddCommand(agentsShowCmd)

	agentsCreateCmd.Flags().String("key", "", "Unique agent key")
	agentsCreateCmd.Flags().StringVar(&createModel, "model", "claude-3-5-haiku-20241022", "Model identifier")
	agentsCreateCmd.Flags().Float64Var(&createTemperature, "temperature", 0.0, "Sampling temperature")
	agentsCreateCmd.Flags().IntVar(&createMaxTokens, "max-tokens", 1024, "Response token budget")
	agentsCreateCmd.Flags().StringVar(&createPromptFile, "prompt-file", "", "File holding the prompt template")
	agentsCreateCmd.Flags().StringVar(&createPromptVer, "prompt-version", "v1.0.0", "Initial prompt version prefix")
}
