// Package dataset loads labeled evaluation records from YAML files and
// imports them into storage.
package dataset

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/promptopt/promptopt/internal/storage"
	"github.com/promptopt/promptopt/internal/types"
)

// file is the on-disk shape. Facts are flattened relative to the internal
// model so dataset authors write a plain list.
type file struct {
	Records []fileRecord `yaml:"records"`
}

type fileRecord struct {
	ID             string     `yaml:"id"`
	Input          string     `yaml:"input"`
	ExpectedOutput string     `yaml:"expected_output"`
	CorrectedScore *float64   `yaml:"corrected_score"`
	Facts          []fileFact `yaml:"facts"`
}

type fileFact struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Required defaults to true when omitted
	Required *bool `yaml:"required"`
}

// Load reads and validates a dataset file.
func Load(path string) ([]*types.EvalRecord, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset %s: %w", path, err)
	}
	defer f.Close()

	records, err := LoadReader(f)
	if err != nil {
		return nil, fmt.Errorf("dataset %s: %w", path, err)
	}
	return records, nil
}

// LoadReader parses and validates dataset YAML from r.
func LoadReader(r io.Reader) ([]*types.EvalRecord, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read dataset: %w", err)
	}

	var parsed file
	if err := yaml.Unmarshal(data, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse dataset YAML: %w", err)
	}
	if len(parsed.Records) == 0 {
		return nil, fmt.Errorf("dataset contains no records")
	}

	records := make([]*types.EvalRecord, 0, len(parsed.Records))
	for i, raw := range parsed.Records {
		record, err := convert(raw)
		if err != nil {
			return nil, fmt.Errorf("record %d: %w", i+1, err)
		}
		records = append(records, record)
	}
	return records, nil
}

func convert(raw fileRecord) (*types.EvalRecord, error) {
	if raw.Input == "" {
		return nil, fmt.Errorf("input is required")
	}
	if raw.CorrectedScore != nil && (*raw.CorrectedScore < 0 || *raw.CorrectedScore > 1) {
		return nil, fmt.Errorf("corrected_score %.3f outside [0,1]", *raw.CorrectedScore)
	}
	if raw.CorrectedScore == nil && raw.ExpectedOutput == "" && len(raw.Facts) == 0 {
		return nil, fmt.Errorf("record has no ground truth (corrected_score, expected_output, or facts)")
	}

	record := &types.EvalRecord{
		ID:             raw.ID,
		Input:          raw.Input,
		ExpectedOutput: raw.ExpectedOutput,
		CorrectedScore: raw.CorrectedScore,
	}

	if len(raw.Facts) > 0 {
		seen := map[string]bool{}
		facts := make([]types.FactDefinition, 0, len(raw.Facts))
		for _, f := range raw.Facts {
			if f.Name == "" {
				return nil, fmt.Errorf("fact name is required")
			}
			if seen[f.Name] {
				return nil, fmt.Errorf("duplicate fact %q", f.Name)
			}
			seen[f.Name] = true

			required := true
			if f.Required != nil {
				required = *f.Required
			}
			facts = append(facts, types.FactDefinition{
				Name:        f.Name,
				Description: f.Description,
				Required:    required,
			})
		}
		record.Facts = &types.RequiredFacts{Facts: facts}
	}
	return record, nil
}

// Import stores the records and returns how many were added.
func Import(ctx context.Context, store storage.Storage, records []*types.EvalRecord) (int, error) {
	for i, record := range records {
		if err := store.AddEvalRecord(ctx, record); err != nil {
			return i, fmt.Errorf("failed to import record %d: %w", i+1, err)
		}
	}
	return len(records), nil
}
