package calls

import (
	"strings"
	"time"
)

// LogEntry is one finished or missed call as reported by the telephony backend.
//
// Entries are immutable. The call log is always replaced wholesale from the
// backend's history rather than patched locally.
//
// NOTE: entries are not linked to orders; the backend history carries no order reference.
type LogEntry struct {
	CallID        string    `json:"call_sid"`
	RemoteAddress string    `json:"remote_address"`
	From          string    `json:"from"`
	To            string    `json:"to"`
	Direction     Direction `json:"direction"`

	DurationSeconds int        `json:"duration_seconds"`
	StartedAt       *time.Time `json:"started_at,omitempty"`
	EndedAt         *time.Time `json:"ended_at,omitempty"`

	Outcome Outcome `json:"outcome"`
	// RawStatus is the backend status string, passed through unchanged.
	RawStatus string `json:"raw_status"`
}

type Direction string

const (
	DirectionOutbound Direction = "outbound"
	DirectionInbound  Direction = "inbound"
)

type Outcome string

const (
	OutcomeCompleted Outcome = "completed"
	OutcomeMissed    Outcome = "missed"
	OutcomeFailed    Outcome = "failed"
)

// Backend status values (Twilio call resource statuses).
const (
	StatusQueued     = "queued"
	StatusRinging    = "ringing"
	StatusInProgress = "in-progress"
	StatusCompleted  = "completed"
	StatusBusy       = "busy"
	StatusFailed     = "failed"
	StatusNoAnswer   = "no-answer"
	StatusCanceled   = "canceled"
)

// OutcomeFromStatus classifies a backend status for display.
func OutcomeFromStatus(raw string, durationSeconds int) Outcome {
	switch raw {
	case StatusCompleted:
		return OutcomeCompleted
	case StatusBusy, StatusNoAnswer, StatusCanceled:
		return OutcomeMissed
	case StatusFailed:
		return OutcomeFailed
	}
	if durationSeconds > 0 {
		return OutcomeCompleted
	}
	return OutcomeMissed
}

// DirectionFromBackend maps backend direction labels such as "outbound-api",
// "outbound-dial" and "inbound".
func DirectionFromBackend(raw string) Direction {
	if strings.HasPrefix(raw, "outbound") {
		return DirectionOutbound
	}
	return DirectionInbound
}
