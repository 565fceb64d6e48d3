package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/promptopt/promptopt/internal/types"
)

// AddEvalRecord inserts one labeled dataset record. An empty ID gets a
// generated one. Fact validators are not serializable and are dropped on
// the round trip; datasets needing custom validators attach them at load
// time.
func (s *SQLiteStorage) AddEvalRecord(ctx context.Context, record *types.EvalRecord) error {
	if record.ID == "" {
		record.ID = uuid.NewString()
	}

	var facts sql.NullString
	if record.Facts != nil {
		data, err := marshalJSON(record.Facts)
		if err != nil {
			return err
		}
		facts = sql.NullString{String: data, Valid: true}
	}

	var score sql.NullFloat64
	if record.CorrectedScore != nil {
		score = sql.NullFloat64{Float64: *record.CorrectedScore, Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO eval_records (id, input, expected_output, corrected_score, facts)
		VALUES (?, ?, ?, ?, ?)`,
		record.ID, record.Input, record.ExpectedOutput, score, facts)
	if err != nil {
		return fmt.Errorf("failed to add eval record %s: %w", record.ID, err)
	}
	return nil
}

// ListEvalRecords returns up to limit labeled records in insertion order.
// A limit of 0 returns everything.
func (s *SQLiteStorage) ListEvalRecords(ctx context.Context, limit int) ([]*types.EvalRecord, error) {
	query := `
		SELECT id, input, expected_output, corrected_score, facts
		FROM eval_records ORDER BY created_at, id`
	args := []any{}
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list eval records: %w", err)
	}
	defer rows.Close()

	var records []*types.EvalRecord
	for rows.Next() {
		var record types.EvalRecord
		var score sql.NullFloat64
		var facts sql.NullString
		if err := rows.Scan(&record.ID, &record.Input, &record.ExpectedOutput, &score, &facts); err != nil {
			return nil, fmt.Errorf("failed to scan eval record: %w", err)
		}
		if score.Valid {
			v := score.Float64
			record.CorrectedScore = &v
		}
		if facts.Valid && facts.String != "" {
			record.Facts = &types.RequiredFacts{}
			if err := unmarshalJSON(facts.String, record.Facts); err != nil {
				return nil, err
			}
		}
		records = append(records, &record)
	}
	return records, rows.Err()
}
