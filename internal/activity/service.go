package activity

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Repository is the persistence contract for the activity feed.
// It is append-only; there is no Update or Delete.
type Repository interface {
	Append(ctx context.Context, e Event) error
	List(ctx context.Context, limit int) ([]Event, error)
}

const (
	DefaultListLimit = 20
	MaxListLimit     = 200
)

type Service struct {
	repo  Repository
	clock func() time.Time
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo, clock: time.Now}
}

var ErrInvalidEvent = errors.New("activity: invalid event")

func (s *Service) Append(ctx context.Context, e Event) error {
	if s.repo == nil {
		return errors.New("activity: repository not configured")
	}
	if e.Type == "" || e.Message == "" {
		return ErrInvalidEvent
	}

	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = s.clock().UTC()
	}
	return s.repo.Append(ctx, e)
}

// List returns the most recent events. limit is clamped to [1, MaxListLimit].
func (s *Service) List(ctx context.Context, limit int) ([]Event, error) {
	if s.repo == nil {
		return nil, errors.New("activity: repository not configured")
	}
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

func (s *Service) OrderCreated(ctx context.Context, orderNumber, customerName string) error {
	return s.Append(ctx, Event{
		Type:        TypeOrderCreated,
		OrderNumber: orderNumber,
		Message:     fmt.Sprintf("New order %s for %s", orderNumber, customerName),
	})
}

func (s *Service) StatusChanged(ctx context.Context, orderNumber, oldStatus, newStatus string) error {
	return s.Append(ctx, Event{
		Type:        TypeStatusChanged,
		OrderNumber: orderNumber,
		Message:     fmt.Sprintf("Order %s moved from %s to %s", orderNumber, oldStatus, newStatus),
	})
}

// PaymentReceived records a completed checkout. amountMinor is in the currency's minor unit.
func (s *Service) PaymentReceived(ctx context.Context, orderNumber string, amountMinor int64, currency, sessionID string) error {
	return s.Append(ctx, Event{
		Type:        TypePaymentReceived,
		OrderNumber: orderNumber,
		Message:     fmt.Sprintf("Payment of %d.%02d %s received for order %s", amountMinor/100, amountMinor%100, currency, orderNumber),
		Metadata:    metadataJSON(map[string]string{"checkout_session_id": sessionID}),
	})
}

// metadataJSON encodes fields for the jsonb metadata column.
func metadataJSON(fields map[string]string) string {
	b, err := json.Marshal(fields)
	if err != nil {
		return ""
	}
	return string(b)
}

func (s *Service) CallPlaced(ctx context.Context, callID, to string) error {
	return s.Append(ctx, Event{
		Type:    TypeCallPlaced,
		CallID:  callID,
		Message: fmt.Sprintf("Outbound call to %s", to),
	})
}
