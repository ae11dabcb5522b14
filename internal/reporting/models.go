package reporting

import (
	"time"

	"framing-command-center/internal/kanban"
	"framing-command-center/internal/orders"
)

// TimeRange limits call metrics to calls started inside it. A zero range means all calls.
type TimeRange struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to"`
}

func (r TimeRange) IsZero() bool { return r.From.IsZero() && r.To.IsZero() }

func (r TimeRange) contains(t *time.Time) bool {
	if r.IsZero() {
		return true
	}
	if t == nil {
		return false
	}
	return !t.Before(r.From) && t.Before(r.To)
}

type SummaryRequest struct {
	Range TimeRange `json:"range"`
}

// DashboardSummary is the command center's landing-page metrics.
type DashboardSummary struct {
	Orders OrdersSummary `json:"orders"`
	Calls  CallsSummary  `json:"calls"`
	// Tasks is nil when no production board is configured.
	Tasks        *kanban.Metrics       `json:"tasks,omitempty"`
	TaskActivity []kanban.ActivityItem `json:"task_activity,omitempty"`
	GeneratedAt  time.Time             `json:"generated_at"`
}

type OrdersSummary struct {
	TotalOrders int `json:"total_orders"`
	// OpenOrders are orders not yet completed or cancelled.
	OpenOrders     int                   `json:"open_orders"`
	ReadyForPickup int                   `json:"ready_for_pickup"`
	ByStatus       map[orders.Status]int `json:"by_status"`
}

type CallsSummary struct {
	// Available is false when the telephony backend could not be reached.
	Available bool `json:"available"`

	TotalCalls     int `json:"total_calls"`
	CompletedCalls int `json:"completed_calls"`
	MissedCalls    int `json:"missed_calls"`
	FailedCalls    int `json:"failed_calls"`
	InboundCalls   int `json:"inbound_calls"`
	OutboundCalls  int `json:"outbound_calls"`

	TotalDurationSeconds   int     `json:"total_duration_seconds"`
	AverageDurationSeconds int     `json:"average_duration_seconds"`
	ConnectionRate         float64 `json:"connection_rate"`
}
