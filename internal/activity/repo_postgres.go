package activity

import (
	"context"
	"database/sql"
)

// PostgresRepo stores events in the activities table.
// The table is insert-only; see internal/db/migrations.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

func (r *PostgresRepo) Append(ctx context.Context, e Event) error {
	const q = `
INSERT INTO activities (id, type, message, order_number, call_sid, metadata, created_at)
VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), NULLIF($6, '')::jsonb, $7)
`
	_, err := r.db.ExecContext(ctx, q, e.ID, e.Type, e.Message, e.OrderNumber, e.CallID, e.Metadata, e.CreatedAt)
	return err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Event, error) {
	const q = `
SELECT id, type, message, COALESCE(order_number, ''), COALESCE(call_sid, ''), COALESCE(metadata::text, ''), created_at
FROM activities
ORDER BY created_at DESC
LIMIT $1
`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Event{}
	for rows.Next() {
		var e Event
		if err := rows.Scan(&e.ID, &e.Type, &e.Message, &e.OrderNumber, &e.CallID, &e.Metadata, &e.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}
