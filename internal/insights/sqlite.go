package insights

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/haasonsaas/case-nexus/pkg/models"
)

// SQLLog persists insights to the same relational store the Corpus Store
// reads its snapshot from (the "insights" table migrated in
// internal/corpus). Rows are only ever inserted, never updated or deleted.
type SQLLog struct {
	db *sql.DB
}

// NewSQLLog wraps an already-migrated *sql.DB.
func NewSQLLog(db *sql.DB) *SQLLog {
	return &SQLLog{db: db}
}

func (l *SQLLog) Append(ctx context.Context, insight models.Insight) (models.Insight, error) {
	if insight.ID == "" {
		insight.ID = uuid.New().String()
	}

	row := l.db.QueryRowContext(ctx, `SELECT COALESCE(MAX(sequence), 0) + 1 FROM insights`)
	var seq uint64
	if err := row.Scan(&seq); err != nil {
		return models.Insight{}, fmt.Errorf("next sequence: %w", err)
	}
	insight.Sequence = seq

	_, err := l.db.ExecContext(ctx,
		`INSERT INTO insights (id, analysis_type, scope, payload, timestamp, sequence) VALUES (?, ?, ?, ?, ?, ?)`,
		insight.ID, string(insight.AnalysisType), insight.Scope, string(insight.Payload), insight.Timestamp, insight.Sequence,
	)
	if err != nil {
		return models.Insight{}, fmt.Errorf("insert insight: %w", err)
	}
	return insight, nil
}

func (l *SQLLog) List(ctx context.Context, scope, analysisType string, limit int) ([]models.Insight, error) {
	query := `SELECT id, analysis_type, scope, payload, timestamp, sequence FROM insights WHERE 1=1`
	var args []any
	if scope != "" {
		query += " AND scope = ?"
		args = append(args, scope)
	}
	if analysisType != "" {
		query += " AND analysis_type = ?"
		args = append(args, analysisType)
	}
	query += " ORDER BY timestamp DESC, sequence DESC"
	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := l.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query insights: %w", err)
	}
	defer rows.Close()

	var out []models.Insight
	for rows.Next() {
		var ins models.Insight
		var analysisType string
		var payload string
		if err := rows.Scan(&ins.ID, &analysisType, &ins.Scope, &payload, &ins.Timestamp, &ins.Sequence); err != nil {
			return nil, fmt.Errorf("scan insight: %w", err)
		}
		ins.AnalysisType = models.AnalysisType(analysisType)
		ins.Payload = []byte(payload)
		out = append(out, ins)
	}
	return out, rows.Err()
}
