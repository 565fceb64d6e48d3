// promptopt is the CLI for the evaluation and prompt optimization engine.
package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/promptopt/promptopt/internal/storage"
)

var (
	// store is the shared database handle, opened before any command runs
	store  storage.Storage
	dbPath string
)

var rootCmd = &cobra.Command{
	Use:   "promptopt",
	Short: "Evaluation and iterative prompt optimization engine",
	Long: `promptopt evaluates agents against labeled datasets and iteratively
rewrites their prompts until a target quality score is reached.

Evaluation strategies:
  numeric  compare numeric predictions against human-corrected scores
  facts    check responses for required facts
  hybrid   weighted combination of both

Typical workflow:
  promptopt init
  promptopt dataset import testdata/records.yaml
  promptopt agents create --key summarizer --prompt-file prompt.txt
  promptopt evaluate summarizer
  promptopt optimize summarizer --target 0.9`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		path := dbPath
		if path == "" {
			path = os.Getenv("PROMPTOPT_DB_PATH")
		}
		if path == "" {
			path = storage.DefaultConfig().Path
		}
		if dir := filepath.Dir(path); dir != "." && dir != "" {
			if err := os.MkdirAll(dir, 0755); err != nil {
				return fmt.Errorf("failed to create %s: %w", dir, err)
			}
		}

		var err error
		store, err = storage.NewStorage(context.Background(), &storage.Config{Path: path})
		if err != nil {
			return fmt.Errorf("failed to open database %s: %w", path, err)
		}
		dbPath = path
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "Database path (default .promptopt/promptopt.db, or PROMPTOPT_DB_PATH)")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
