package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize the promptopt database in the current directory",
	Long: `Initialize the promptopt database. By default this creates
.promptopt/promptopt.db; override with --db or PROMPTOPT_DB_PATH.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		// The database is created by the persistent pre-run hook; this
		// command exists so initialization is an explicit first step.
		green := color.New(color.FgGreen).SprintFunc()
		cyan := color.New(color.FgCyan).SprintFunc()
		gray := color.New(color.FgHiBlack).SprintFunc()

		fmt.Printf("\n%s Initialized promptopt\n\n", green("✓"))
		fmt.Printf("  Database: %s\n", cyan(dbPath))
		fmt.Println()
		fmt.Printf("%s Next steps:\n", gray("→"))
		fmt.Printf("  %s\n", gray("promptopt dataset import records.yaml"))
		fmt.Printf("  %s\n", gray("promptopt agents create --key myagent --prompt-file prompt.txt"))
		fmt.Printf("  %s\n", gray("promptopt optimize myagent"))
		fmt.Println()
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
}
