// Package notify delivers customer SMS notifications for order events.
//
// Delivery is best-effort: every send runs on its own goroutine with a bounded
// timeout and failures are logged, never returned.
package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"framing-command-center/internal/orders"
)

const DefaultTimeout = 10 * time.Second

// Sender is the outbound SMS transport.
type Sender interface {
	SendSMS(ctx context.Context, to, body string) (string, error)
}

type Options struct {
	Enabled bool
	Timeout time.Duration
	Logger  *slog.Logger
}

type Dispatcher struct {
	sender  Sender
	enabled bool
	timeout time.Duration
	log     *slog.Logger

	wg sync.WaitGroup
}

func NewDispatcher(sender Sender, opts Options) *Dispatcher {
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Dispatcher{
		sender:  sender,
		enabled: opts.Enabled,
		timeout: opts.Timeout,
		log:     opts.Logger.With("component", "notify"),
	}
}

// Notify starts a send and returns immediately.
func (d *Dispatcher) Notify(o orders.Order, kind orders.NotificationKind) {
	log := d.log.With("order_number", o.OrderNumber, "kind", kind)
	if !d.enabled {
		log.Debug("sms notifications disabled; skipping")
		return
	}
	if d.sender == nil {
		log.Error("order notification skipped: no sms sender configured", "alert", true)
		return
	}

	body := Message(o, kind)
	to := o.CustomerPhone

	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
		defer cancel()

		sid, err := d.sender.SendSMS(ctx, to, body)
		if err != nil {
			log.Error("order notification failed", "alert", true, "err", err)
			return
		}
		log.Info("order notification sent", "message_sid", sid)
	}()
}

// Wait blocks until in-flight sends finish or ctx is done.
func (d *Dispatcher) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
