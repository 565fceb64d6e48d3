package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/promptopt/promptopt/internal/types"
)

// CreateRun inserts a new optimization run summary row.
func (s *SQLiteStorage) CreateRun(ctx context.Context, run *types.OptimizationRun) error {
	if run.ID == "" {
		return fmt.Errorf("run ID is required")
	}
	if run.StartedAt.IsZero() {
		run.StartedAt = time.Now().UTC()
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO runs (id, agent_key, final_agent_key, final_score, total_improvement,
			iterations, target_reached, stopped_reason, input_tokens, output_tokens, started_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID, run.AgentKey, run.FinalAgentKey, run.FinalScore, run.TotalImprovement,
		run.Iterations, boolToInt(run.TargetReached), string(run.StoppedReason),
		run.InputTokens, run.OutputTokens, run.StartedAt)
	if err != nil {
		return fmt.Errorf("failed to create run %s: %w", run.ID, err)
	}
	return nil
}

// UpdateRun updates a run's terminal summary. The step history stays
// append-only; only the summary row is finalized here.
func (s *SQLiteStorage) UpdateRun(ctx context.Context, run *types.OptimizationRun) error {
	if run.FinishedAt.IsZero() {
		run.FinishedAt = time.Now().UTC()
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE runs SET final_agent_key = ?, final_score = ?, total_improvement = ?,
			iterations = ?, target_reached = ?, stopped_reason = ?,
			input_tokens = ?, output_tokens = ?, finished_at = ?
		WHERE id = ?`,
		run.FinalAgentKey, run.FinalScore, run.TotalImprovement, run.Iterations,
		boolToInt(run.TargetReached), string(run.StoppedReason),
		run.InputTokens, run.OutputTokens, run.FinishedAt, run.ID)
	if err != nil {
		return fmt.Errorf("failed to update run %s: %w", run.ID, err)
	}
	n, err := result.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("run %s does not exist", run.ID)
	}
	return nil
}

// GetRun returns the run with the given ID, or (nil, nil) if absent.
func (s *SQLiteStorage) GetRun(ctx context.Context, id string) (*types.OptimizationRun, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, agent_key, final_agent_key, final_score, total_improvement,
			iterations, target_reached, stopped_reason, input_tokens, output_tokens,
			started_at, finished_at
		FROM runs WHERE id = ?`, id)

	run, err := scanRun(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns returns up to limit runs, newest first. A limit of 0 returns
// everything.
func (s *SQLiteStorage) ListRuns(ctx context.Context, limit int) ([]*types.OptimizationRun, error) {
	query := `
		SELECT id, agent_key, final_agent_key, final_score, total_improvement,
			iterations, target_reached, stopped_reason, input_tokens, output_tokens,
			started_at, finished_at
		FROM runs ORDER BY started_at DESC`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list runs: %w", err)
	}
	defer rows.Close()

	var runs []*types.OptimizationRun
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// AddRunStep appends one iteration record to a run's history.
func (s *SQLiteStorage) AddRunStep(ctx context.Context, runID string, step *types.OptimizationStep) error {
	techniques, err := marshalJSON(step.AppliedTechniques)
	if err != nil {
		return err
	}
	if step.Timestamp.IsZero() {
		step.Timestamp = time.Now().UTC()
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO run_steps (run_id, iteration, agent_key, prompt_version, score,
			improvement, feedback_summary, applied_techniques, expected_improvement, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, step.Iteration, step.AgentKey, step.PromptVersion, step.Score,
		step.Improvement, step.FeedbackSummary, techniques, step.ExpectedImprovement, step.Timestamp)
	if err != nil {
		return fmt.Errorf("failed to add step %d to run %s: %w", step.Iteration, runID, err)
	}
	return nil
}

// GetRunSteps returns a run's step history in iteration order.
func (s *SQLiteStorage) GetRunSteps(ctx context.Context, runID string) ([]*types.OptimizationStep, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT iteration, agent_key, prompt_version, score, improvement,
			feedback_summary, applied_techniques, expected_improvement, created_at
		FROM run_steps WHERE run_id = ? ORDER BY iteration`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to get steps for run %s: %w", runID, err)
	}
	defer rows.Close()

	var steps []*types.OptimizationStep
	for rows.Next() {
		var step types.OptimizationStep
		var techniques string
		if err := rows.Scan(&step.Iteration, &step.AgentKey, &step.PromptVersion, &step.Score,
			&step.Improvement, &step.FeedbackSummary, &techniques, &step.ExpectedImprovement, &step.Timestamp); err != nil {
			return nil, fmt.Errorf("failed to scan run step: %w", err)
		}
		if err := unmarshalJSON(techniques, &step.AppliedTechniques); err != nil {
			return nil, err
		}
		steps = append(steps, &step)
	}
	return steps, rows.Err()
}

func scanRun(row rowScanner) (*types.OptimizationRun, error) {
	var run types.OptimizationRun
	var targetReached int
	var reason string
	var finishedAt sql.NullTime
	err := row.Scan(&run.ID, &run.AgentKey, &run.FinalAgentKey, &run.FinalScore,
		&run.TotalImprovement, &run.Iterations, &targetReached, &reason,
		&run.InputTokens, &run.OutputTokens, &run.StartedAt, &finishedAt)
	if err != nil {
		return nil, err
	}
	run.TargetReached = targetReached != 0
	run.StoppedReason = types.StopReason(reason)
	if finishedAt.Valid {
		run.FinishedAt = finishedAt.Time
	}
	return &run, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
