package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/promptopt/promptopt/internal/types"
)

// CreateAssessment inserts one evaluation assessment.
func (s *SQLiteStorage) CreateAssessment(ctx context.Context, assessment *types.Assessment) error {
	if assessment.ID == "" {
		assessment.ID = uuid.NewString()
	}
	if assessment.CreatedAt.IsZero() {
		assessment.CreatedAt = time.Now().UTC()
	}

	metricsJSON, err := marshalJSON(assessment.Metrics)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO assessments (id, agent_key, prompt_version, strategy, score, metrics, feedback_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		assessment.ID, assessment.AgentKey, assessment.PromptVersion, assessment.Strategy,
		assessment.Score, metricsJSON, assessment.FeedbackSummary, assessment.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create assessment for %s: %w", assessment.AgentKey, err)
	}
	return nil
}

// GetAssessmentsByAgent returns an agent's assessments, newest first.
func (s *SQLiteStorage) GetAssessmentsByAgent(ctx context.Context, agentKey string) ([]*types.Assessment, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, agent_key, prompt_version, strategy, score, metrics, feedback_summary, created_at
		FROM assessments WHERE agent_key = ? ORDER BY created_at DESC`, agentKey)
	if err != nil {
		return nil, fmt.Errorf("failed to get assessments for %s: %w", agentKey, err)
	}
	defer rows.Close()

	var assessments []*types.Assessment
	for rows.Next() {
		var a types.Assessment
		var metricsJSON string
		if err := rows.Scan(&a.ID, &a.AgentKey, &a.PromptVersion, &a.Strategy,
			&a.Score, &metricsJSON, &a.FeedbackSummary, &a.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan assessment: %w", err)
		}
		if err := unmarshalJSON(metricsJSON, &a.Metrics); err != nil {
			return nil, err
		}
		assessments = append(assessments, &a)
	}
	return assessments, rows.Err()
}

// GetConfig reads one config value; missing keys return an empty string.
func (s *SQLiteStorage) GetConfig(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, "SELECT value FROM config WHERE key = ?", key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to get config %s: %w", key, err)
	}
	return value, nil
}

// SetConfig upserts one config value.
func (s *SQLiteStorage) SetConfig(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO config (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	if err != nil {
		return fmt.Errorf("failed to set config %s: %w", key, err)
	}
	return nil
}
