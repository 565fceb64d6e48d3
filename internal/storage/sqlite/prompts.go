package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/promptopt/promptopt/internal/types"
)

// CreatePrompt inserts a new prompt version. Prompt rows are append-only.
func (s *SQLiteStorage) CreatePrompt(ctx context.Context, prompt *types.Prompt) error {
	if prompt.Version == "" {
		return fmt.Errorf("prompt version is required")
	}
	if prompt.CreatedAt.IsZero() {
		prompt.CreatedAt = time.Now().UTC()
	}

	techniques, err := marshalJSON(prompt.AppliedTechniques)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO prompts (version, template, parent_version, applied_techniques, created_at)
		VALUES (?, ?, ?, ?, ?)`,
		prompt.Version, prompt.Template, prompt.ParentVersion, techniques, prompt.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create prompt %s: %w", prompt.Version, err)
	}
	return nil
}

// GetPrompt returns the prompt with the given version, or (nil, nil) if
// absent.
func (s *SQLiteStorage) GetPrompt(ctx context.Context, version string) (*types.Prompt, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT version, template, parent_version, applied_techniques, created_at
		FROM prompts WHERE version = ?`, version)

	var prompt types.Prompt
	var techniques string
	err := row.Scan(&prompt.Version, &prompt.Template, &prompt.ParentVersion, &techniques, &prompt.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get prompt %s: %w", version, err)
	}
	if err := unmarshalJSON(techniques, &prompt.AppliedTechniques); err != nil {
		return nil, err
	}
	return &prompt, nil
}

// GetPromptLineage walks the parent_version chain from the given version
// back to the root, newest first. Lineage is a directed acyclic chain; the
// seen guard only protects against corrupted data.
func (s *SQLiteStorage) GetPromptLineage(ctx context.Context, version string) ([]*types.Prompt, error) {
	var lineage []*types.Prompt
	seen := map[string]bool{}

	for version != "" && !seen[version] {
		seen[version] = true
		prompt, err := s.GetPrompt(ctx, version)
		if err != nil {
			return nil, err
		}
		if prompt == nil {
			break
		}
		lineage = append(lineage, prompt)
		version = prompt.ParentVersion
	}
	return lineage, nil
}
