package notify

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"framing-command-center/internal/orders"
)

type stubSender struct {
	mu    sync.Mutex
	calls []string
	err   error
	block bool
}

func (s *stubSender) SendSMS(ctx context.Context, to, body string) (string, error) {
	s.mu.Lock()
	s.calls = append(s.calls, to+"|"+body)
	block, err := s.block, s.err
	s.mu.Unlock()

	if block {
		<-ctx.Done()
		return "", ctx.Err()
	}
	if err != nil {
		return "", err
	}
	return "SM123", nil
}

func (s *stubSender) Calls() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.calls...)
}

type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testOrder() orders.Order {
	return orders.Order{
		OrderNumber:   "JF1700000000000",
		CustomerName:  "Ada",
		CustomerPhone: "+15551234567",
		FrameType:     "oak",
		Dimensions:    "16x20",
		Status:        orders.StatusReady,
		SMSEnabled:    true,
	}
}

func waitFor(t *testing.T, d *Dispatcher) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := d.Wait(ctx); err != nil {
		t.Fatalf("wait: %v", err)
	}
}

func TestNotifySendsOneMessage(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(sender, Options{Enabled: true})

	d.Notify(testOrder(), orders.NotifyStatusChanged)
	waitFor(t, d)

	got := sender.Calls()
	if len(got) != 1 {
		t.Fatalf("expected exactly one send, got %d", len(got))
	}
	if !strings.HasPrefix(got[0], "+15551234567|") || !strings.Contains(got[0], "ready for pickup") {
		t.Fatalf("unexpected send: %q", got[0])
	}
}

func TestNotifyDisabledSkipsSend(t *testing.T) {
	sender := &stubSender{}
	d := NewDispatcher(sender, Options{Enabled: false})

	d.Notify(testOrder(), orders.NotifyCreated)
	waitFor(t, d)

	if n := len(sender.Calls()); n != 0 {
		t.Fatalf("expected no sends, got %d", n)
	}
}

func TestNotifyFailureIsLoggedAsAlert(t *testing.T) {
	var out syncBuffer
	log := slog.New(slog.NewJSONHandler(&out, nil))
	sender := &stubSender{err: errors.New("carrier rejected")}
	d := NewDispatcher(sender, Options{Enabled: true, Logger: log})

	d.Notify(testOrder(), orders.NotifyStatusChanged)
	waitFor(t, d)

	logs := out.String()
	if !strings.Contains(logs, `"level":"ERROR"`) || !strings.Contains(logs, `"alert":true`) {
		t.Fatalf("expected alertable error log, got %s", logs)
	}
	if !strings.Contains(logs, "carrier rejected") {
		t.Fatalf("expected cause in log, got %s", logs)
	}
}

func TestNotifyTimesOut(t *testing.T) {
	sender := &stubSender{block: true}
	d := NewDispatcher(sender, Options{Enabled: true, Timeout: 20 * time.Millisecond})

	start := time.Now()
	d.Notify(testOrder(), orders.NotifyStatusChanged)
	if time.Since(start) > 15*time.Millisecond {
		t.Fatalf("notify must not block the caller")
	}
	waitFor(t, d)
}

func TestMessageWording(t *testing.T) {
	o := testOrder()
	if msg := Message(o, orders.NotifyCreated); !strings.Contains(msg, "we received your framing order JF1700000000000") {
		t.Fatalf("unexpected created message: %q", msg)
	}
	o.Status = orders.StatusCutting
	if msg := Message(o, orders.NotifyStatusChanged); !strings.Contains(msg, "Cutting materials") {
		t.Fatalf("unexpected status message: %q", msg)
	}
}
