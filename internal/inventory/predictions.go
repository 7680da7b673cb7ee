package inventory

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// LogPrediction records an ad-hoc prediction that is not tied to an item.
func (s *Store) LogPrediction(ctx context.Context, result Classification, source string) error {
	result, err := NewClassification(result.Score)
	if err != nil {
		return err
	}
	source = strings.TrimSpace(source)
	if source == "" {
		source = SourcePredict
	}
	return s.withTx(ctx, func(tx *sql.Tx) error {
		return insertPrediction(ctx, tx, nil, result, source, s.timestamp())
	})
}

func insertPrediction(ctx context.Context, tx *sql.Tx, itemID *int64, result Classification, source, createdAt string) error {
	var id any
	if itemID != nil {
		id = *itemID
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO predictions_log (item_id, score, label, source, created_at) VALUES (?, ?, ?, ?, ?)`,
		id, result.Score, result.Label, source, createdAt,
	); err != nil {
		return fmt.Errorf("insert prediction: %w", err)
	}
	return nil
}

// PredictionHistory returns the newest prediction log rows first. A
// non-positive limit uses the default; large limits are capped.
func (s *Store) PredictionHistory(ctx context.Context, limit int) ([]PredictionRecord, error) {
	if limit <= 0 {
		limit = defaultHistoryLimit
	}
	limit = min(limit, maxHistoryLimit)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, item_id, score, label, source, created_at FROM predictions_log ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query prediction history: %w", err)
	}
	defer rows.Close()

	var records []PredictionRecord
	for rows.Next() {
		var (
			rec        PredictionRecord
			itemID     sql.NullInt64
			createdRaw string
		)
		if err := rows.Scan(&rec.ID, &itemID, &rec.Score, &rec.Label, &rec.Source, &createdRaw); err != nil {
			return nil, fmt.Errorf("scan prediction: %w", err)
		}
		if itemID.Valid {
			v := itemID.Int64
			rec.ItemID = &v
		}
		if created, err := parseTimeString(createdRaw); err == nil {
			rec.CreatedAt = created
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}
