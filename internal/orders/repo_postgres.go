package orders

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"framing-command-center/pkg/utils"
)

// PostgresRepo persists orders in the orders and order_status_changes tables.
type PostgresRepo struct {
	db *sql.DB
}

func NewPostgresRepo(db *sql.DB) *PostgresRepo { return &PostgresRepo{db: db} }

const orderColumns = `id, order_number, customer_name, COALESCE(customer_phone, ''), COALESCE(customer_email, ''),
frame_type, dimensions, COALESCE(special_instructions, ''), status, sms_enabled, COALESCE(internal_notes, ''),
created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (Order, error) {
	var o Order
	err := row.Scan(
		&o.ID,
		&o.OrderNumber,
		&o.CustomerName,
		&o.CustomerPhone,
		&o.CustomerEmail,
		&o.FrameType,
		&o.Dimensions,
		&o.SpecialInstructions,
		&o.Status,
		&o.SMSEnabled,
		&o.InternalNotes,
		&o.CreatedAt,
		&o.UpdatedAt,
	)
	return o, err
}

func (r *PostgresRepo) Insert(ctx context.Context, o Order) error {
	const q = `
INSERT INTO orders (
    id, order_number, customer_name, customer_phone, customer_email,
    frame_type, dimensions, special_instructions, status, sms_enabled,
    internal_notes, created_at, updated_at
) VALUES ($1, $2, $3, NULLIF($4, ''), NULLIF($5, ''), $6, $7, NULLIF($8, ''), $9, $10, NULLIF($11, ''), $12, $13)
`
	_, err := r.db.ExecContext(ctx, q,
		o.ID,
		o.OrderNumber,
		o.CustomerName,
		o.CustomerPhone,
		o.CustomerEmail,
		o.FrameType,
		o.Dimensions,
		o.SpecialInstructions,
		o.Status,
		o.SMSEnabled,
		o.InternalNotes,
		o.CreatedAt,
		o.UpdatedAt,
	)
	if utils.IsUniqueViolation(err) {
		return ErrDuplicateOrder
	}
	return err
}

func (r *PostgresRepo) GetByNumber(ctx context.Context, orderNumber string) (Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1`
	o, err := scanOrder(r.db.QueryRowContext(ctx, q, orderNumber))
	if errors.Is(err, sql.ErrNoRows) {
		return Order{}, ErrNotFound
	}
	return o, err
}

func (r *PostgresRepo) List(ctx context.Context, limit int) ([]Order, error) {
	q := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC, order_number DESC LIMIT $1`
	rows, err := r.db.QueryContext(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []Order{}
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) ChangeStatus(ctx context.Context, orderNumber string, ch StatusChange, at time.Time) (Order, StatusChange, error) {
	var updated Order
	err := utils.WithTx(ctx, r.db, nil, func(ctx context.Context, tx *sql.Tx) error {
		// Row lock keeps the old_status in the audit row consistent with the update.
		q := `SELECT ` + orderColumns + ` FROM orders WHERE order_number = $1 FOR UPDATE`
		o, err := scanOrder(tx.QueryRowContext(ctx, q, orderNumber))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}

		ch.OrderID = o.ID
		ch.OrderNumber = o.OrderNumber
		ch.OldStatus = o.Status

		const upd = `
UPDATE orders
SET status = $2, internal_notes = COALESCE(NULLIF($3, ''), internal_notes), updated_at = $4
WHERE id = $1
`
		if _, err := tx.ExecContext(ctx, upd, o.ID, ch.NewStatus, ch.Notes, at); err != nil {
			return err
		}

		const ins = `
INSERT INTO order_status_changes (id, order_id, order_number, old_status, new_status, notes, created_at)
VALUES ($1, $2, $3, $4, $5, NULLIF($6, ''), $7)
`
		if _, err := tx.ExecContext(ctx, ins, ch.ID, ch.OrderID, ch.OrderNumber, ch.OldStatus, ch.NewStatus, ch.Notes, ch.CreatedAt); err != nil {
			return err
		}

		o.Status = ch.NewStatus
		if ch.Notes != "" {
			o.InternalNotes = ch.Notes
		}
		o.UpdatedAt = at
		updated = o
		return nil
	})
	if err != nil {
		return Order{}, StatusChange{}, err
	}
	return updated, ch, nil
}

func (r *PostgresRepo) History(ctx context.Context, orderNumber string) ([]StatusChange, error) {
	if _, err := r.GetByNumber(ctx, orderNumber); err != nil {
		return nil, err
	}
	const q = `
SELECT id, order_id, order_number, old_status, new_status, COALESCE(notes, ''), created_at
FROM order_status_changes
WHERE order_number = $1
ORDER BY created_at ASC
`
	rows, err := r.db.QueryContext(ctx, q, orderNumber)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []StatusChange{}
	for rows.Next() {
		var ch StatusChange
		if err := rows.Scan(&ch.ID, &ch.OrderID, &ch.OrderNumber, &ch.OldStatus, &ch.NewStatus, &ch.Notes, &ch.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ch)
	}
	return out, rows.Err()
}

func (r *PostgresRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT status, COUNT(*) FROM orders GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[Status]int)
	for rows.Next() {
		var s Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, err
		}
		out[s] = n
	}
	return out, rows.Err()
}
