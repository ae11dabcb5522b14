package orders

import (
	"context"
	"time"
)

// Repository is the persistence contract for orders and their status history.
type Repository interface {
	// Insert stores a new order. A duplicate order number returns ErrDuplicateOrder.
	Insert(ctx context.Context, o Order) error
	GetByNumber(ctx context.Context, orderNumber string) (Order, error)
	List(ctx context.Context, limit int) ([]Order, error)

	// ChangeStatus sets the order's status and appends ch in one unit of work.
	// It fills ch's order fields and OldStatus from the stored row and returns
	// the updated order. Unknown orders return ErrNotFound with nothing written.
	ChangeStatus(ctx context.Context, orderNumber string, ch StatusChange, at time.Time) (Order, StatusChange, error)
	History(ctx context.Context, orderNumber string) ([]StatusChange, error)

	CountByStatus(ctx context.Context) (map[Status]int, error)
}
