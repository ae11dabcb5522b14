package orders

import (
	"context"
	"errors"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"

	"github.com/google/uuid"
)

// NotificationKind says why a customer is being notified.
type NotificationKind string

const (
	NotifyCreated       NotificationKind = "created"
	NotifyStatusChanged NotificationKind = "status_changed"
)

// Notifier sends customer notifications. Implementations must not block the
// caller on delivery and must not report delivery failures back.
type Notifier interface {
	Notify(o Order, kind NotificationKind)
}

// ActivityLog receives feed entries for the dashboard.
type ActivityLog interface {
	OrderCreated(ctx context.Context, orderNumber, customerName string) error
	StatusChanged(ctx context.Context, orderNumber, oldStatus, newStatus string) error
}

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

type Service struct {
	repo     Repository
	notifier Notifier
	activity ActivityLog
	log      *slog.Logger
	clock    func() time.Time
}

// NewService wires the order gateway. notifier and activity may be nil.
func NewService(repo Repository, notifier Notifier, activity ActivityLog, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		repo:     repo,
		notifier: notifier,
		activity: activity,
		log:      log.With("component", "orders"),
		clock:    time.Now,
	}
}

// SetClock replaces the time source used for order numbers and timestamps.
func (s *Service) SetClock(now func() time.Time) { s.clock = now }

// Create validates and stores a new order in status received.
func (s *Service) Create(ctx context.Context, in CreateInput) (Order, error) {
	if s.repo == nil {
		return Order{}, errors.New("orders: repository not configured")
	}
	in = in.trimmed()
	if err := in.validate(); err != nil {
		return Order{}, err
	}

	phone := in.CustomerPhone
	if phone != "" {
		normalized, err := calls.NormalizeE164(phone)
		if err != nil {
			return Order{}, apperr.Validation("customer_phone", "must contain at least 10 digits")
		}
		phone = normalized
	}

	now := s.clock().UTC()
	o := Order{
		ID:                  uuid.NewString(),
		OrderNumber:         NewOrderNumber(now),
		CustomerName:        in.CustomerName,
		CustomerPhone:       phone,
		CustomerEmail:       in.CustomerEmail,
		FrameType:           in.FrameType,
		Dimensions:          in.Dimensions,
		SpecialInstructions: in.SpecialInstructions,
		Status:              StatusReceived,
		SMSEnabled:          in.SMSEnabled,
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := s.repo.Insert(ctx, o); err != nil {
		return Order{}, err
	}
	s.log.Info("order created", "order_number", o.OrderNumber, "sms_enabled", o.SMSEnabled)

	if s.activity != nil {
		if err := s.activity.OrderCreated(ctx, o.OrderNumber, o.CustomerName); err != nil {
			s.log.Warn("activity append failed", "order_number", o.OrderNumber, "err", err)
		}
	}
	s.notify(o, NotifyCreated)
	return o, nil
}

// UpdateStatus moves an order to newStatus and records the transition.
// Concurrent updates are last-write-wins; each one still gets its own history row.
func (s *Service) UpdateStatus(ctx context.Context, orderNumber string, newStatus Status, notes string) (StatusUpdate, error) {
	if s.repo == nil {
		return StatusUpdate{}, errors.New("orders: repository not configured")
	}
	if !newStatus.Valid() {
		return StatusUpdate{}, ErrInvalidStatus
	}
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return StatusUpdate{}, ErrNotFound
	}

	now := s.clock().UTC()
	ch := StatusChange{
		ID:        uuid.NewString(),
		NewStatus: newStatus,
		Notes:     strings.TrimSpace(notes),
		CreatedAt: now,
	}
	o, ch, err := s.repo.ChangeStatus(ctx, orderNumber, ch, now)
	if err != nil {
		return StatusUpdate{}, err
	}
	s.log.Info("order status changed", "order_number", o.OrderNumber, "old_status", ch.OldStatus, "new_status", ch.NewStatus)

	if s.activity != nil {
		if err := s.activity.StatusChanged(ctx, o.OrderNumber, string(ch.OldStatus), string(ch.NewStatus)); err != nil {
			s.log.Warn("activity append failed", "order_number", o.OrderNumber, "err", err)
		}
	}
	s.notify(o, NotifyStatusChanged)
	return StatusUpdate{Order: o, Change: ch}, nil
}

func (s *Service) Get(ctx context.Context, orderNumber string) (Order, error) {
	orderNumber = strings.TrimSpace(orderNumber)
	if orderNumber == "" {
		return Order{}, ErrNotFound
	}
	return s.repo.GetByNumber(ctx, orderNumber)
}

// GetPublic returns the customer-safe view of an order.
func (s *Service) GetPublic(ctx context.Context, orderNumber string) (PublicOrder, error) {
	o, err := s.Get(ctx, strings.ToUpper(strings.TrimSpace(orderNumber)))
	if err != nil {
		return PublicOrder{}, err
	}
	return o.Public(), nil
}

// List returns the newest orders first. limit is clamped to [1, MaxListLimit].
func (s *Service) List(ctx context.Context, limit int) ([]Order, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	return s.repo.List(ctx, limit)
}

// History returns an order's status transitions, oldest first.
func (s *Service) History(ctx context.Context, orderNumber string) ([]StatusChange, error) {
	return s.repo.History(ctx, strings.TrimSpace(orderNumber))
}

// CountByStatus reports how many orders sit in each status.
func (s *Service) CountByStatus(ctx context.Context) (map[Status]int, error) {
	return s.repo.CountByStatus(ctx)
}

// LookupByText finds the order referenced in a free-text message such as an
// inbound SMS. A message with no order number returns a validation error.
func (s *Service) LookupByText(ctx context.Context, text string) (PublicOrder, error) {
	number, ok := FindOrderNumber(text)
	if !ok {
		return PublicOrder{}, apperr.Validation("message", "does not contain an order number")
	}
	return s.GetPublic(ctx, number)
}

func (s *Service) notify(o Order, kind NotificationKind) {
	if s.notifier == nil || !o.SMSEnabled || o.CustomerPhone == "" {
		return
	}
	s.notifier.Notify(o, kind)
}

func (in CreateInput) trimmed() CreateInput {
	in.CustomerName = strings.TrimSpace(in.CustomerName)
	in.CustomerPhone = strings.TrimSpace(in.CustomerPhone)
	in.CustomerEmail = strings.TrimSpace(in.CustomerEmail)
	in.FrameType = strings.TrimSpace(in.FrameType)
	in.Dimensions = strings.TrimSpace(in.Dimensions)
	in.SpecialInstructions = strings.TrimSpace(in.SpecialInstructions)
	return in
}

func (in CreateInput) validate() error {
	var errs []error
	if in.CustomerName == "" {
		errs = append(errs, apperr.Validation("customer_name", "is required"))
	}
	if in.CustomerPhone == "" && in.CustomerEmail == "" {
		errs = append(errs, apperr.Validation("customer_phone", "or customer_email is required"))
	}
	if in.CustomerEmail != "" {
		if _, err := mail.ParseAddress(in.CustomerEmail); err != nil {
			errs = append(errs, apperr.Validation("customer_email", "is not a valid address"))
		}
	}
	if in.FrameType == "" {
		errs = append(errs, apperr.Validation("frame_type", "is required"))
	}
	if in.Dimensions == "" {
		errs = append(errs, apperr.Validation("dimensions", "is required"))
	}
	return errors.Join(errs...)
}
