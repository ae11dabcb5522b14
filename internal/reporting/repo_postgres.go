package reporting

import (
	"context"
	"database/sql"
)

// PostgresMetricsRepo stores readings in the business_metrics table.
type PostgresMetricsRepo struct {
	db *sql.DB
}

func NewPostgresMetricsRepo(db *sql.DB) *PostgresMetricsRepo { return &PostgresMetricsRepo{db: db} }

func (r *PostgresMetricsRepo) Insert(ctx context.Context, m BusinessMetric) (BusinessMetric, error) {
	const q = `
INSERT INTO business_metrics (name, value, change, target, progress, category, recorded_at)
VALUES ($1, $2, NULLIF($3, ''), NULLIF($4, ''), $5, NULLIF($6, ''), $7)
RETURNING id
`
	var progress sql.NullInt64
	if m.Progress != nil {
		progress = sql.NullInt64{Int64: int64(*m.Progress), Valid: true}
	}
	if err := r.db.QueryRowContext(ctx, q, m.Name, m.Value, m.Change, m.Target, progress, m.Category, m.RecordedAt).Scan(&m.ID); err != nil {
		return BusinessMetric{}, err
	}
	return m, nil
}

func (r *PostgresMetricsRepo) Latest(ctx context.Context) ([]BusinessMetric, error) {
	const q = `
SELECT DISTINCT ON (name)
       id, name, value, COALESCE(change, ''), COALESCE(target, ''), progress, COALESCE(category, ''), recorded_at
FROM business_metrics
ORDER BY name, recorded_at DESC, id DESC
`
	rows, err := r.db.QueryContext(ctx, q)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []BusinessMetric{}
	for rows.Next() {
		var (
			m        BusinessMetric
			progress sql.NullInt64
		)
		if err := rows.Scan(&m.ID, &m.Name, &m.Value, &m.Change, &m.Target, &progress, &m.Category, &m.RecordedAt); err != nil {
			return nil, err
		}
		if progress.Valid {
			p := int(progress.Int64)
			m.Progress = &p
		}
		out = append(out, m)
	}
	return out, rows.Err()
}
