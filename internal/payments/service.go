package payments

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/orders"

	"github.com/stripe/stripe-go/v79"
	"github.com/stripe/stripe-go/v79/webhook"
)

const (
	// EventDedupeTTL bounds how long a delivered Stripe event id is remembered.
	EventDedupeTTL = 24 * time.Hour

	metadataOrderNumber = "order_number"
	eventCheckoutDone   = "checkout.session.completed"
)

var ErrNotConfigured = apperr.Wrap(apperr.ErrUnavailable, "payments: stripe not configured")

// OrderReader loads the order being paid for.
type OrderReader interface {
	Get(ctx context.Context, orderNumber string) (orders.Order, error)
}

// Deduper remembers keys for a TTL and reports whether a key is new.
// Forget drops a key so a failed delivery can be retried.
type Deduper interface {
	MarkOnce(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Forget(ctx context.Context, key string) error
}

// PaymentRecorder adds completed payments to the activity feed.
type PaymentRecorder interface {
	PaymentReceived(ctx context.Context, orderNumber string, amountMinor int64, currency, sessionID string) error
}

type Options struct {
	WebhookSecret string
	Currency      string
	// PublicURL is the base for Checkout's success and cancel redirects.
	PublicURL string
	Logger    *slog.Logger
}

type Service struct {
	gateway  CheckoutGateway
	orders   OrderReader
	dedupe   Deduper
	activity PaymentRecorder

	webhookSecret string
	currency      string
	publicURL     string
	log           *slog.Logger
}

func NewService(gateway CheckoutGateway, orders OrderReader, dedupe Deduper, activity PaymentRecorder, opts Options) *Service {
	if opts.Currency == "" {
		opts.Currency = "usd"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Service{
		gateway:       gateway,
		orders:        orders,
		dedupe:        dedupe,
		activity:      activity,
		webhookSecret: opts.WebhookSecret,
		currency:      strings.ToLower(opts.Currency),
		publicURL:     strings.TrimRight(opts.PublicURL, "/"),
		log:           opts.Logger.With("component", "payments"),
	}
}

type CheckoutRequest struct {
	OrderNumber string
	// AmountMinor is the total in the currency's minor unit (cents).
	AmountMinor int64
	Currency    string
}

type Checkout struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// CreateCheckout opens a Checkout session for one framed order.
func (s *Service) CreateCheckout(ctx context.Context, req CheckoutRequest) (Checkout, error) {
	if s.gateway == nil {
		return Checkout{}, ErrNotConfigured
	}
	if req.AmountMinor <= 0 {
		return Checkout{}, apperr.Validation("amount", "must be greater than zero")
	}
	currency := strings.ToLower(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	if len(currency) != 3 {
		return Checkout{}, apperr.Validation("currency", "must be a three-letter ISO code")
	}

	o, err := s.orders.Get(ctx, req.OrderNumber)
	if err != nil {
		return Checkout{}, err
	}

	description := fmt.Sprintf("%s frame, %s", o.FrameType, o.Dimensions)
	params := &stripe.CheckoutSessionParams{
		Mode:               stripe.String(string(stripe.CheckoutSessionModePayment)),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{{
			PriceData: &stripe.CheckoutSessionLineItemPriceDataParams{
				Currency: stripe.String(currency),
				ProductData: &stripe.CheckoutSessionLineItemPriceDataProductDataParams{
					Name:        stripe.String("Custom Frame Order #" + o.OrderNumber),
					Description: stripe.String(description),
				},
				UnitAmount: stripe.Int64(req.AmountMinor),
			},
			Quantity: stripe.Int64(1),
		}},
		SuccessURL: stripe.String(s.redirectURL(o.OrderNumber, "success")),
		CancelURL:  stripe.String(s.redirectURL(o.OrderNumber, "cancelled")),
	}
	if o.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(o.CustomerEmail)
	}
	params.Context = ctx
	params.AddMetadata(metadataOrderNumber, o.OrderNumber)

	sess, err := s.gateway.NewCheckoutSession(params)
	if err != nil {
		s.log.Error("stripe checkout failed", "order_number", o.OrderNumber, "err", err)
		return Checkout{}, errors.Join(apperr.Wrap(apperr.ErrUnavailable, "payments: checkout session failed"), err)
	}
	s.log.Info("checkout session created", "order_number", o.OrderNumber, "session_id", sess.ID, "amount_minor", req.AmountMinor)
	return Checkout{ID: sess.ID, URL: sess.URL}, nil
}

func (s *Service) redirectURL(orderNumber, outcome string) string {
	return fmt.Sprintf("%s/orders/%s?payment=%s", s.publicURL, orderNumber, outcome)
}

// WebhookResult describes what HandleWebhook did with an event.
type WebhookResult struct {
	EventID   string
	Type      string
	Duplicate bool
}

// HandleWebhook verifies a Stripe delivery and records completed checkouts.
// Redeliveries of an event id already seen are acknowledged and skipped.
func (s *Service) HandleWebhook(ctx context.Context, payload []byte, signature string) (WebhookResult, error) {
	if s.webhookSecret == "" {
		return WebhookResult{}, ErrNotConfigured
	}
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return WebhookResult{}, errors.Join(apperr.Validation("Stripe-Signature", "does not verify"), err)
	}
	res := WebhookResult{EventID: event.ID, Type: string(event.Type)}

	key := "stripe:event:" + event.ID
	marked := false
	if s.dedupe != nil {
		first, err := s.dedupe.MarkOnce(ctx, key, EventDedupeTTL)
		if err != nil {
			s.log.Warn("stripe event dedupe unavailable", "event_id", event.ID, "err", err)
		} else if !first {
			res.Duplicate = true
			s.log.Info("duplicate stripe event skipped", "event_id", event.ID, "type", res.Type)
			return res, nil
		}
		marked = err == nil
	}

	if err := s.handleEvent(ctx, event); err != nil {
		if marked {
			// Unmark so Stripe's retry is processed rather than skipped.
			if ferr := s.dedupe.Forget(context.WithoutCancel(ctx), key); ferr != nil {
				s.log.Warn("stripe event unmark failed", "event_id", event.ID, "err", ferr)
			}
		}
		return res, err
	}
	return res, nil
}

func (s *Service) handleEvent(ctx context.Context, event stripe.Event) error {
	if string(event.Type) != eventCheckoutDone {
		s.log.Debug("stripe event ignored", "event_id", event.ID, "type", event.Type)
		return nil
	}

	var sess stripe.CheckoutSession
	if err := json.Unmarshal(event.Data.Raw, &sess); err != nil {
		return errors.Join(apperr.Validation("data", "is not a checkout session"), err)
	}
	orderNumber := sess.Metadata[metadataOrderNumber]
	s.log.Info("checkout completed", "event_id", event.ID, "order_number", orderNumber, "amount_total", sess.AmountTotal)

	if s.activity != nil && orderNumber != "" {
		if err := s.activity.PaymentReceived(ctx, orderNumber, sess.AmountTotal, string(sess.Currency), sess.ID); err != nil {
			s.log.Warn("activity append failed", "order_number", orderNumber, "err", err)
		}
	}
	return nil
}
