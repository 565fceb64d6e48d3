package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/promptopt/promptopt/internal/types"
)

// CreateAgent inserts a new agent version. Agent rows are append-only;
// attempting to reuse a key is an error, not an overwrite.
func (s *SQLiteStorage) CreateAgent(ctx context.Context, agent *types.Agent) error {
	if agent.Key == "" {
		return fmt.Errorf("agent key is required")
	}
	if agent.CreatedAt.IsZero() {
		agent.CreatedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO agents (key, model, temperature, max_tokens, prompt_version, based_on, iteration, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		agent.Key, agent.Model, agent.Temperature, agent.MaxTokens,
		agent.PromptVersion, agent.BasedOn, agent.Iteration, agent.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create agent %s: %w", agent.Key, err)
	}
	return nil
}

// GetAgent returns the agent with the given key, or (nil, nil) if absent.
func (s *SQLiteStorage) GetAgent(ctx context.Context, key string) (*types.Agent, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT key, model, temperature, max_tokens, prompt_version, based_on, iteration, created_at
		FROM agents WHERE key = ?`, key)

	agent, err := scanAgent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get agent %s: %w", key, err)
	}
	return agent, nil
}

// ListAgents returns all agent versions, newest first.
func (s *SQLiteStorage) ListAgents(ctx context.Context) ([]*types.Agent, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key, model, temperature, max_tokens, prompt_version, based_on, iteration, created_at
		FROM agents ORDER BY created_at DESC, key`)
	if err != nil {
		return nil, fmt.Errorf("failed to list agents: %w", err)
	}
	defer rows.Close()

	var agents []*types.Agent
	for rows.Next() {
		agent, err := scanAgent(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan agent: %w", err)
		}
		agents = append(agents, agent)
	}
	return agents, rows.Err()
}

// GetAgentLineage walks the based_on chain from the given key back to the
// base agent, newest first.
func (s *SQLiteStorage) GetAgentLineage(ctx context.Context, key string) ([]*types.Agent, error) {
	var lineage []*types.Agent
	seen := map[string]bool{}

	for key != "" && !seen[key] {
		seen[key] = true
		agent, err := s.GetAgent(ctx, key)
		if err != nil {
			return nil, err
		}
		if agent == nil {
			break
		}
		lineage = append(lineage, agent)
		key = agent.BasedOn
	}
	return lineage, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAgent(row rowScanner) (*types.Agent, error) {
	var agent types.Agent
	err := row.Scan(&agent.Key, &agent.Model, &agent.Temperature, &agent.MaxTokens,
		&agent.PromptVersion, &agent.BasedOn, &agent.Iteration, &agent.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &agent, nil
}
