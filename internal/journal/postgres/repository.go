package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/smartfinance/smartfinance/internal/journal"
)

type Repository struct {
	db  *sql.DB
	now func() time.Time
}

func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (r *Repository) HealthCheck(ctx context.Context) error {
	if err := r.db.PingContext(ctx); err != nil {
		return fmt.Errorf("ping journal db: %w", err)
	}
	return nil
}

func (r *Repository) Record(ctx context.Context, entry journal.Entry) error {
	if entry.ID == "" {
		entry.ID = uuid.NewString()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = r.now()
	}

	query := `
INSERT INTO query_journal (
	entry_id, session_id, question, model, generated_sql, outcome, error_text, duration_ms, created_at
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	if _, err := r.db.ExecContext(ctx, query,
		entry.ID,
		entry.SessionID,
		entry.Question,
		entry.Model,
		entry.SQL,
		entry.Outcome,
		entry.ErrorText,
		entry.Duration.Milliseconds(),
		entry.CreatedAt,
	); err != nil {
		return fmt.Errorf("record journal entry: %w", err)
	}
	return nil
}

func (r *Repository) ListRecent(ctx context.Context, limit int) ([]journal.Entry, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT entry_id, session_id, question, model, generated_sql, outcome, error_text, duration_ms, created_at
FROM query_journal
ORDER BY created_at DESC
LIMIT $1`, journal.ClampLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list journal entries: %w", err)
	}
	defer func() { _ = rows.Close() }()

	entries := make([]journal.Entry, 0)
	for rows.Next() {
		var entry journal.Entry
		var durationMS int64
		if err := rows.Scan(
			&entry.ID,
			&entry.SessionID,
			&entry.Question,
			&entry.Model,
			&entry.SQL,
			&entry.Outcome,
			&entry.ErrorText,
			&durationMS,
			&entry.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan journal entry: %w", err)
		}
		entry.Duration = time.Duration(durationMS) * time.Millisecond
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate journal entries: %w", err)
	}
	return entries, nil
}
