package main

import (
	"context"
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/promptopt/promptopt/internal/dataset"
)

var datasetCmd = &cobra.Command{
	Use:   "dataset",
	Short: "Manage the labeled evaluation dataset",
}

var datasetImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Import labeled records from a YAML file",
	Long: `Import labeled evaluation records. Each record needs an input plus at
least one kind of ground truth: a corrected score, an expected output, or
a fact list.

Example file:
  records:
    - input: "Summarize: the quarterly report ..."
      corrected_score: 0.8
      facts:
        - name: revenue
          description: total revenue figure
        - name: outlook
          required: false`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		records, err := dataset.Load(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		n, err := dataset.Import(ctx, store, records)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: imported %d records before failing: %v\n", n, err)
			os.Exit(1)
		}

		green := color.New(color.FgGreen).SprintFunc()
		fmt.Printf("%s Imported %d records\n", green("✓"), n)
	},
}

var datasetListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored records",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := context.Background()

		records, err := store.ListEvalRecords(ctx, 0)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		gray := color.New(color.FgHiBlack).SprintFunc()
		if len(records) == 0 {
			fmt.Printf("%s\n", gray("No records. Import some with 'promptopt dataset import'."))
			return
		}

		for i, record := range records {
			truth := ""
			if record.CorrectedScore != nil {
				truth = fmt.Sprintf("score=%.2f", *record.CorrectedScore)
			}
			if record.Facts != nil {
				if truth != "" {
					truth += " "
				}
				truth += fmt.Sprintf("facts=%d", len(record.Facts.Facts))
			}
			if record.ExpectedOutput != "" {
				if truth != "" {
					truth += " "
				}
				truth += "expected-output"
			}
			fmt.Printf("%3d. %-50s %s\n", i+1, truncateLine(record.Input, 50), gray(truth))
		}
		fmt.Printf("\n%d records\n", len(records))
	},
}

func init() {
	rootCmd.AddCommand(datasetCmd)
	datasetCmd.AddCommand(datasetImportCmd)
	datasetCmd.AddCommand(datasetListCmd)
}
