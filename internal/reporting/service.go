package reporting

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"
	"framing-command-center/internal/kanban"
	"framing-command-center/internal/orders"

	"golang.org/x/sync/errgroup"
)

var ErrInvalidRequest = apperr.Wrap(apperr.ErrValidation, "reporting: invalid request")

type OrderCounter interface {
	CountByStatus(ctx context.Context) (map[orders.Status]int, error)
}

type CallHistory interface {
	CallHistory(ctx context.Context) ([]calls.LogEntry, error)
}

// TaskBoard reports workshop progress from the production board. Both methods
// fall back to placeholder values rather than fail.
type TaskBoard interface {
	FetchMetrics(ctx context.Context) kanban.Metrics
	RecentActivity(ctx context.Context) ([]kanban.ActivityItem, bool)
}

type Service struct {
	orders OrderCounter
	calls  CallHistory
	tasks  TaskBoard
	log    *slog.Logger
	clock  func() time.Time
}

func NewService(orders OrderCounter, calls CallHistory, tasks TaskBoard, log *slog.Logger) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{orders: orders, calls: calls, tasks: tasks, log: log.With("component", "reporting"), clock: time.Now}
}

// Summary aggregates order counts, call outcomes and board progress. Order
// storage errors fail the request; a telephony outage only marks the call
// section unavailable. Calls and the board are read concurrently.
func (s *Service) Summary(ctx context.Context, req SummaryRequest) (DashboardSummary, error) {
	if !req.Range.IsZero() && (req.Range.From.IsZero() || req.Range.To.IsZero() || !req.Range.To.After(req.Range.From)) {
		return DashboardSummary{}, ErrInvalidRequest
	}
	if s.orders == nil {
		return DashboardSummary{}, errors.New("reporting: order source not configured")
	}

	counts, err := s.orders.CountByStatus(ctx)
	if err != nil {
		return DashboardSummary{}, err
	}
	out := DashboardSummary{
		Orders:      OrdersSummaryFromCounts(counts),
		GeneratedAt: s.clock().UTC(),
	}

	var g errgroup.Group
	if s.calls != nil {
		g.Go(func() error {
			entries, err := s.calls.CallHistory(ctx)
			if err != nil {
				s.log.Warn("call history unavailable for summary", "err", err)
				return nil
			}
			out.Calls = CallsSummaryFromLog(entries, req.Range)
			return nil
		})
	}
	if s.tasks != nil {
		g.Go(func() error {
			m := s.tasks.FetchMetrics(ctx)
			items, _ := s.tasks.RecentActivity(ctx)
			out.Tasks = &m
			out.TaskActivity = items
			return nil
		})
	}
	_ = g.Wait()
	return out, nil
}

func OrdersSummaryFromCounts(counts map[orders.Status]int) OrdersSummary {
	out := OrdersSummary{ByStatus: make(map[orders.Status]int, len(orders.Statuses))}
	for _, st := range orders.Statuses {
		out.ByStatus[st] = 0
	}
	for st, n := range counts {
		out.ByStatus[st] += n
		out.TotalOrders += n
		if !st.Terminal() {
			out.OpenOrders += n
		}
		if st == orders.StatusReady {
			out.ReadyForPickup += n
		}
	}
	return out
}

func CallsSummaryFromLog(entries []calls.LogEntry, r TimeRange) CallsSummary {
	out := CallsSummary{Available: true}
	for _, e := range entries {
		if !r.contains(e.StartedAt) {
			continue
		}
		out.TotalCalls++
		out.TotalDurationSeconds += e.DurationSeconds

		switch e.Outcome {
		case calls.OutcomeCompleted:
			out.CompletedCalls++
		case calls.OutcomeMissed:
			out.MissedCalls++
		case calls.OutcomeFailed:
			out.FailedCalls++
		}
		switch e.Direction {
		case calls.DirectionInbound:
			out.InboundCalls++
		case calls.DirectionOutbound:
			out.OutboundCalls++
		}
	}
	if out.TotalCalls > 0 {
		out.AverageDurationSeconds = out.TotalDurationSeconds / out.TotalCalls
		out.ConnectionRate = float64(out.CompletedCalls) / float64(out.TotalCalls)
	}
	return out
}
