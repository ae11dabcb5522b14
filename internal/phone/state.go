package phone

import (
	"time"

	"framing-command-center/internal/calls"
)

// State is the adapter's lifecycle state.
//
//	ready -> calling  -> connected -> ready   (outbound)
//	ready -> incoming -> connected -> ready   (inbound, answered)
//	incoming -> ready                         (declined or caller gave up)
//	calling|connected -> ready                (error or remote hangup)
//
// StateEnded is transient; the adapter never exposes it.
type State string

const (
	StateReady     State = "ready"
	StateCalling   State = "calling"
	StateConnected State = "connected"
	StateIncoming  State = "incoming"
	StateEnded     State = "ended"
)

// CallSession is the adapter-owned view of the current call.
type CallSession struct {
	RemoteAddress string          `json:"remote_address"`
	Direction     calls.Direction `json:"direction"`
	State         State           `json:"state"`
	Muted         bool            `json:"muted"`

	CreatedAt time.Time `json:"created_at"`
	// StartedAt is set once the call is connected.
	StartedAt *time.Time `json:"started_at,omitempty"`
	EndedAt   *time.Time `json:"ended_at,omitempty"`
}

// Snapshot is a read-only copy of everything the UI renders.
type Snapshot struct {
	State   State        `json:"state"`
	Usable  bool         `json:"usable"`
	Session *CallSession `json:"session,omitempty"`

	// LastCall is the most recently finished session.
	LastCall  *CallSession     `json:"last_call,omitempty"`
	History   []calls.LogEntry `json:"history"`
	LastError string           `json:"last_error,omitempty"`
}

func (s *CallSession) clone() *CallSession {
	if s == nil {
		return nil
	}
	out := *s
	if s.StartedAt != nil {
		t := *s.StartedAt
		out.StartedAt = &t
	}
	if s.EndedAt != nil {
		t := *s.EndedAt
		out.EndedAt = &t
	}
	return &out
}
