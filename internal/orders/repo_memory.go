package orders

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryRepo is an in-memory Repository for tests and local runs without Postgres.
type MemoryRepo struct {
	mu      sync.Mutex
	orders  map[string]Order
	history []StatusChange
}

func NewMemoryRepo() *MemoryRepo {
	return &MemoryRepo{orders: make(map[string]Order)}
}

func (r *MemoryRepo) Insert(ctx context.Context, o Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[o.OrderNumber]; ok {
		return ErrDuplicateOrder
	}
	r.orders[o.OrderNumber] = o
	return nil
}

func (r *MemoryRepo) GetByNumber(ctx context.Context, orderNumber string) (Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNumber]
	if !ok {
		return Order{}, ErrNotFound
	}
	return o, nil
}

func (r *MemoryRepo) List(ctx context.Context, limit int) ([]Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Order, 0, len(r.orders))
	for _, o := range r.orders {
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].OrderNumber > out[j].OrderNumber
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (r *MemoryRepo) ChangeStatus(ctx context.Context, orderNumber string, ch StatusChange, at time.Time) (Order, StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[orderNumber]
	if !ok {
		return Order{}, StatusChange{}, ErrNotFound
	}
	ch.OrderID = o.ID
	ch.OrderNumber = o.OrderNumber
	ch.OldStatus = o.Status

	o.Status = ch.NewStatus
	if ch.Notes != "" {
		o.InternalNotes = ch.Notes
	}
	o.UpdatedAt = at
	r.orders[orderNumber] = o
	r.history = append(r.history, ch)
	return o, ch, nil
}

func (r *MemoryRepo) History(ctx context.Context, orderNumber string) ([]StatusChange, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.orders[orderNumber]; !ok {
		return nil, ErrNotFound
	}
	out := []StatusChange{}
	for _, ch := range r.history {
		if ch.OrderNumber == orderNumber {
			out = append(out, ch)
		}
	}
	return out, nil
}

func (r *MemoryRepo) CountByStatus(ctx context.Context) (map[Status]int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[Status]int)
	for _, o := range r.orders {
		out[o.Status]++
	}
	return out, nil
}

// HistoryLen reports the number of status rows written across all orders.
func (r *MemoryRepo) HistoryLen() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.history)
}
