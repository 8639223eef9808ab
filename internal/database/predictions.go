// Package database defines the insertions and transactions to the database
package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// PredictionRecord is one persisted inference outcome. Rows are written in
// batches by the flush cache and read back by the history endpoint.
type PredictionRecord struct {
	RequestID    string    `json:"request_id"`
	Class        string    `json:"class"`
	Confidence   float32   `json:"confidence"`
	Severity     string    `json:"severity"`
	ModelVersion string    `json:"model_version"`
	LatencyMS    int64     `json:"latency_ms"`
	CreatedAt    time.Time `json:"created_at"`
}

func ExecuteTransaction(ctx context.Context, db *sql.DB, operations []func(*sql.Tx) error) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	for _, op := range operations {
		if err := op(tx); err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				return fmt.Errorf("rollback failed: %v, original error: %w", rbErr, err)
			}
			return err
		}
	}
	return tx.Commit()
}

// SavePredictions inserts a batch of prediction rows in one statement.
func SavePredictions(db *sql.DB, records []PredictionRecord, log *zap.SugaredLogger) error {
	if len(records) == 0 {
		return nil
	}

	placeholders := make([]string, 0, len(records))
	args := make([]any, 0, len(records)*7)
	for _, r := range records {
		placeholders = append(placeholders, "(?, ?, ?, ?, ?, ?, ?)")
		args = append(args,
			r.RequestID, r.Class, r.Confidence, r.Severity,
			r.ModelVersion, r.LatencyMS, r.CreatedAt)
	}

	query := fmt.Sprintf(`
		INSERT INTO prediction
		(request_id, class, confidence, severity, model_version, latency_ms, created_at)
		VALUES %s`, strings.Join(placeholders, ", "))

	if _, err := db.Exec(query, args...); err != nil {
		log.Errorw("Failed to insert prediction batch", "error", err, "rows", len(records))
		return err
	}
	return nil
}

// RecentPredictions returns the newest persisted predictions, newest first.
func RecentPredictions(ctx context.Context, db *sql.DB, limit int) ([]PredictionRecord, error) {
	rows, err := db.QueryContext(ctx, `
		SELECT request_id, class, confidence, severity, model_version, latency_ms, created_at
		FROM prediction
		ORDER BY created_at DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = rows.Close()
	}()

	var records []PredictionRecord
	for rows.Next() {
		var r PredictionRecord
		if err := rows.Scan(&r.RequestID, &r.Class, &r.Confidence, &r.Severity,
			&r.ModelVersion, &r.LatencyMS, &r.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating prediction rows: %w", err)
	}
	return records, nil
}
