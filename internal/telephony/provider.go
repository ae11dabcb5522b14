package telephony

import (
	"context"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"
)

// Provider is the vendor-agnostic telephony backend used by handlers and the
// notification dispatcher.
//
// Rules:
// - No vendor SDK calls outside this package.
// - Results use internal types; raw vendor statuses travel in RawStatus.
type Provider interface {
	Name() string
	HealthCheck(ctx context.Context) error

	PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error)
	// CallHistory returns recent calls, most recent first.
	CallHistory(ctx context.Context) ([]calls.LogEntry, error)
	// SendSMS returns the vendor message id.
	SendSMS(ctx context.Context, to, body string) (string, error)
}

var ErrNotConfigured = apperr.Wrap(apperr.ErrUnavailable, "telephony: credentials not configured")

// PlaceCallRequest starts an outbound call from the shop's number.
type PlaceCallRequest struct {
	To string `json:"to"`
	// From overrides the configured caller ID.
	From string `json:"from,omitempty"`
}

type PlaceCallResult struct {
	CallID string `json:"call_sid"`
	Status string `json:"status"`
	To     string `json:"to"`
	From   string `json:"from"`
}

// UnconfiguredProvider answers every call with ErrNotConfigured.
// It stands in when vendor credentials are missing so the process still starts.
type UnconfiguredProvider struct{}

func (UnconfiguredProvider) Name() string { return "unconfigured" }

func (UnconfiguredProvider) HealthCheck(ctx context.Context) error { return ErrNotConfigured }

func (UnconfiguredProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	return PlaceCallResult{}, ErrNotConfigured
}

func (UnconfiguredProvider) CallHistory(ctx context.Context) ([]calls.LogEntry, error) {
	return nil, ErrNotConfigured
}

func (UnconfiguredProvider) SendSMS(ctx context.Context, to, body string) (string, error) {
	return "", ErrNotConfigured
}
