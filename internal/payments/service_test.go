package payments

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"testing"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/orders"

	"github.com/stripe/stripe-go/v79"
)

const testWebhookSecret = "whsec_test"

type fakeGateway struct {
	params []*stripe.CheckoutSessionParams
	err    error
}

func (g *fakeGateway) NewCheckoutSession(p *stripe.CheckoutSessionParams) (*stripe.CheckoutSession, error) {
	if g.err != nil {
		return nil, g.err
	}
	g.params = append(g.params, p)
	return &stripe.CheckoutSession{ID: "cs_test_1", URL: "https://checkout.stripe.com/c/pay/cs_test_1"}, nil
}

type memDedupe struct {
	mu   sync.Mutex
	seen map[string]bool
	err  error
}

func (d *memDedupe) MarkOnce(_ context.Context, key string, _ time.Duration) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.err != nil {
		return false, d.err
	}
	if d.seen == nil {
		d.seen = map[string]bool{}
	}
	if d.seen[key] {
		return false, nil
	}
	d.seen[key] = true
	return true, nil
}

func (d *memDedupe) Forget(_ context.Context, key string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	delete(d.seen, key)
	return nil
}

type memPayments struct {
	mu      sync.Mutex
	entries []string
}

func (m *memPayments) PaymentReceived(_ context.Context, orderNumber string, amountMinor int64, currency, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = append(m.entries, fmt.Sprintf("%s:%d:%s:%s", orderNumber, amountMinor, currency, sessionID))
	return nil
}

func seedOrder(t *testing.T) (*orders.Service, orders.Order) {
	t.Helper()
	svc := orders.NewService(orders.NewMemoryRepo(), nil, nil, nil)
	o, err := svc.Create(context.Background(), orders.CreateInput{
		CustomerName:  "Ada",
		CustomerEmail: "ada@example.com",
		FrameType:     "oak",
		Dimensions:    "16x20",
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return svc, o
}

// signPayload builds a Stripe-Signature header for payload.
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := strconv.FormatInt(at.Unix(), 10)
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts + "." + string(payload)))
	return "t=" + ts + ",v1=" + hex.EncodeToString(mac.Sum(nil))
}

func checkoutCompleted(eventID, orderNumber string) []byte {
	return []byte(fmt.Sprintf(`{
  "id": %q,
  "object": "event",
  "type": "checkout.session.completed",
  "api_version": "2024-06-20",
  "data": {"object": {"id": "cs_test_1", "object": "checkout.session", "amount_total": 12550, "currency": "usd", "metadata": {"order_number": %q}}}
}`, eventID, orderNumber))
}

func TestCreateCheckout(t *testing.T) {
	ordersSvc, o := seedOrder(t)
	gw := &fakeGateway{}
	svc := NewService(gw, ordersSvc, nil, nil, Options{PublicURL: "https://shop.example/"})

	out, err := svc.CreateCheckout(context.Background(), CheckoutRequest{OrderNumber: o.OrderNumber, AmountMinor: 12550})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if out.ID != "cs_test_1" || out.URL == "" {
		t.Fatalf("unexpected checkout: %+v", out)
	}

	p := gw.params[0]
	if p.Metadata["order_number"] != o.OrderNumber {
		t.Fatalf("expected order number metadata, got %v", p.Metadata)
	}
	item := p.LineItems[0]
	if *item.PriceData.UnitAmount != 12550 || *item.PriceData.Currency != "usd" || *item.Quantity != 1 {
		t.Fatalf("unexpected line item")
	}
	if *p.CustomerEmail != "ada@example.com" {
		t.Fatalf("expected customer email")
	}
	if *p.SuccessURL != "https://shop.example/orders/"+o.OrderNumber+"?payment=success" {
		t.Fatalf("unexpected success url %s", *p.SuccessURL)
	}
}

func TestCreateCheckoutValidation(t *testing.T) {
	ordersSvc, o := seedOrder(t)
	svc := NewService(&fakeGateway{}, ordersSvc, nil, nil, Options{})

	if _, err := svc.CreateCheckout(context.Background(), CheckoutRequest{OrderNumber: o.OrderNumber}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for zero amount, got %v", err)
	}
	if _, err := svc.CreateCheckout(context.Background(), CheckoutRequest{OrderNumber: o.OrderNumber, AmountMinor: 100, Currency: "dollars"}); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error for currency, got %v", err)
	}
	if _, err := svc.CreateCheckout(context.Background(), CheckoutRequest{OrderNumber: "JF404", AmountMinor: 100}); !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestCreateCheckoutUnconfigured(t *testing.T) {
	ordersSvc, o := seedOrder(t)
	svc := NewService(NewStripeGateway(""), ordersSvc, nil, nil, Options{})

	_, err := svc.CreateCheckout(context.Background(), CheckoutRequest{OrderNumber: o.OrderNumber, AmountMinor: 100})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestCreateCheckoutGatewayFailure(t *testing.T) {
	ordersSvc, o := seedOrder(t)
	svc := NewService(&fakeGateway{err: errors.New("stripe down")}, ordersSvc, nil, nil, Options{})

	_, err := svc.CreateCheckout(context.Background(), CheckoutRequest{OrderNumber: o.OrderNumber, AmountMinor: 100})
	if !errors.Is(err, apperr.ErrUnavailable) {
		t.Fatalf("expected unavailable, got %v", err)
	}
}

func TestWebhookRecordsPaymentOnce(t *testing.T) {
	rec := &memPayments{}
	svc := NewService(nil, nil, &memDedupe{}, rec, Options{WebhookSecret: testWebhookSecret})

	payload := checkoutCompleted("evt_1", "JF1")
	sig := signPayload(payload, testWebhookSecret, time.Now())

	res, err := svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if res.Duplicate || res.Type != "checkout.session.completed" {
		t.Fatalf("unexpected result: %+v", res)
	}

	res, err = svc.HandleWebhook(context.Background(), payload, sig)
	if err != nil || !res.Duplicate {
		t.Fatalf("expected duplicate delivery to be skipped, got %+v %v", res, err)
	}

	if len(rec.entries) != 1 || rec.entries[0] != "JF1:12550:usd:cs_test_1" {
		t.Fatalf("unexpected payments: %v", rec.entries)
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	svc := NewService(nil, nil, &memDedupe{}, &memPayments{}, Options{WebhookSecret: testWebhookSecret})
	payload := checkoutCompleted("evt_1", "JF1")

	_, err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, "whsec_other", time.Now()))
	if !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestWebhookUnconfigured(t *testing.T) {
	svc := NewService(nil, nil, nil, nil, Options{})
	if _, err := svc.HandleWebhook(context.Background(), []byte("{}"), ""); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected not configured, got %v", err)
	}
}

func TestWebhookDedupeOutageStillProcesses(t *testing.T) {
	rec := &memPayments{}
	svc := NewService(nil, nil, &memDedupe{err: errors.New("redis down")}, rec, Options{WebhookSecret: testWebhookSecret})
	payload := checkoutCompleted("evt_2", "JF2")

	if _, err := svc.HandleWebhook(context.Background(), payload, signPayload(payload, testWebhookSecret, time.Now())); err != nil {
		t.Fatalf("webhook: %v", err)
	}
	if len(rec.entries) != 1 {
		t.Fatalf("expected payment recorded despite dedupe outage")
	}
}

func TestWebhookFailedEventCanBeRetried(t *testing.T) {
	dedupe := &memDedupe{}
	svc := NewService(nil, nil, dedupe, &memPayments{}, Options{WebhookSecret: testWebhookSecret})
	payload := []byte(`{
  "id": "evt_bad",
  "object": "event",
  "type": "checkout.session.completed",
  "api_version": "2024-06-20",
  "data": {"object": {"id": "cs_test_1", "object": "checkout.session", "amount_total": "not-a-number"}}
}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	for i := 0; i < 2; i++ {
		res, err := svc.HandleWebhook(context.Background(), payload, sig)
		if !errors.Is(err, apperr.ErrValidation) {
			t.Fatalf("delivery %d: expected validation error, got %v", i+1, err)
		}
		if res.Duplicate {
			t.Fatalf("delivery %d: failed event must not be treated as duplicate", i+1)
		}
	}
	if dedupe.seen["stripe:event:evt_bad"] {
		t.Fatalf("failed event should not stay marked")
	}
}
