// Package phone keeps the softphone's single view of "what is the phone doing
// right now" and mediates between UI intents and a telephony client.
//
// The vendor SDK is hidden behind Client and Call so the state machine here is
// independent of any one vendor's event names.
package phone

import (
	"context"

	"framing-command-center/internal/calls"
)

// EventKind is a call event emitted by the telephony client.
type EventKind string

const (
	EventAccept     EventKind = "accept"
	EventDisconnect EventKind = "disconnect"
	EventError      EventKind = "error"
	EventCancel     EventKind = "cancel"
)

// Event is delivered asynchronously, on any goroutine, with no ordering
// guarantee relative to local commands.
type Event struct {
	Kind EventKind
	Err  error
}

// Call is one vendor call object.
type Call interface {
	RemoteAddress() string
	Accept() error
	Reject() error
	Disconnect() error
	Mute(muted bool) error
	// OnEvent registers the single event handler for this call.
	OnEvent(fn func(Event))
}

// Client is the vendor device: it must be set up with an access token before
// it can place or receive calls.
type Client interface {
	Setup(ctx context.Context, token string) error
	Connect(ctx context.Context, to string) (Call, error)
	// OnIncoming registers the handler for inbound calls.
	OnIncoming(fn func(Call))
}

// TokenSource issues access tokens for the telephony client.
type TokenSource interface {
	AccessToken(ctx context.Context, identity string) (string, error)
}

// HistorySource returns the backend's authoritative call history, most recent first.
type HistorySource interface {
	CallHistory(ctx context.Context) ([]calls.LogEntry, error)
}
