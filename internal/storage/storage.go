// Package storage defines the persistence boundary of the optimization
// engine. All entity creation is append-only: optimization produces new
// agent and prompt versions, never in-place mutation.
package storage

import (
	"context"

	"github.com/promptopt/promptopt/internal/storage/sqlite"
	"github.com/promptopt/promptopt/internal/types"
)

// Storage is the interface the engine uses for agents, prompts, labeled
// evaluation data, runs, and assessments. Lookups return (nil, nil) when
// the entity does not exist; callers map that to their own error taxonomy.
type Storage interface {
	// Agents (append-only versions)
	CreateAgent(ctx context.Context, agent *types.Agent) error
	GetAgent(ctx context.Context, key string) (*types.Agent, error)
	ListAgents(ctx context.Context) ([]*types.Agent, error)
	GetAgentLineage(ctx context.Context, key string) ([]*types.Agent, error)

	// Prompts (append-only versions, parent-linked lineage)
	CreatePrompt(ctx context.Context, prompt *types.Prompt) error
	GetPrompt(ctx context.Context, version string) (*types.Prompt, error)
	GetPromptLineage(ctx context.Context, version string) ([]*types.Prompt, error)

	// Labeled evaluation dataset
	AddEvalRecord(ctx context.Context, record *types.EvalRecord) error
	ListEvalRecords(ctx context.Context, limit int) ([]*types.EvalRecord, error)

	// Optimization runs and their step history
	CreateRun(ctx context.Context, run *types.OptimizationRun) error
	UpdateRun(ctx context.Context, run *types.OptimizationRun) error
	GetRun(ctx context.Context, id string) (*types.OptimizationRun, error)
	ListRuns(ctx context.Context, limit int) ([]*types.OptimizationRun, error)
	AddRunStep(ctx context.Context, runID string, step *types.OptimizationStep) error
	GetRunSteps(ctx context.Context, runID string) ([]*types.OptimizationStep, error)

	// Assessments
	CreateAssessment(ctx context.Context, assessment *types.Assessment) error
	GetAssessmentsByAgent(ctx context.Context, agentKey string) ([]*types.Assessment, error)

	// Config
	GetConfig(ctx context.Context, key string) (string, error)
	SetConfig(ctx context.Context, key, value string) error

	// Lifecycle
	Close() error
}

// Config holds database configuration.
type Config struct {
	// Path is the SQLite database file path.
	// Default: ".promptopt/promptopt.db"
	// Special value ":memory:" creates an in-memory database (useful for tests)
	Path string
}

// DefaultConfig returns a config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Path: ".promptopt/promptopt.db",
	}
}

// NewStorage creates a new SQLite storage backend.
func NewStorage(ctx context.Context, cfg *Config) (Storage, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if cfg.Path == "" {
		cfg.Path = DefaultConfig().Path
	}
	return sqlite.New(cfg.Path)
}
