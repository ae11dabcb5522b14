package reporting

import (
	"context"
	"errors"
	"strings"
	"time"

	"framing-command-center/internal/apperr"
)

// BusinessMetric is one headline figure on the dashboard, entered by staff.
// Value, Change and Target are display strings ("$12,400", "+8%").
type BusinessMetric struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Value      string    `json:"value"`
	Change     string    `json:"change,omitempty"`
	Target     string    `json:"target,omitempty"`
	Progress   *int      `json:"progress,omitempty"`
	Category   string    `json:"category,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

type MetricInput struct {
	Name     string `json:"name"`
	Value    string `json:"value"`
	Change   string `json:"change"`
	Target   string `json:"target"`
	Progress *int   `json:"progress"`
	Category string `json:"category"`
}

type MetricsRepository interface {
	Insert(ctx context.Context, m BusinessMetric) (BusinessMetric, error)
	// Latest returns the most recent entry per metric name, ordered by name.
	Latest(ctx context.Context) ([]BusinessMetric, error)
}

const maxCategoryLen = 50

// Scorecard keeps the dashboard's business metrics.
type Scorecard struct {
	repo  MetricsRepository
	clock func() time.Time
}

func NewScorecard(repo MetricsRepository) *Scorecard {
	return &Scorecard{repo: repo, clock: time.Now}
}

func (s *Scorecard) List(ctx context.Context) ([]BusinessMetric, error) {
	if s.repo == nil {
		return nil, errors.New("reporting: metrics repository not configured")
	}
	return s.repo.Latest(ctx)
}

// Record stores a new reading. Earlier readings of the same name are kept
// as history; List shows the newest.
func (s *Scorecard) Record(ctx context.Context, in MetricInput) (BusinessMetric, error) {
	if s.repo == nil {
		return BusinessMetric{}, errors.New("reporting: metrics repository not configured")
	}
	m := BusinessMetric{
		Name:       strings.TrimSpace(in.Name),
		Value:      strings.TrimSpace(in.Value),
		Change:     strings.TrimSpace(in.Change),
		Target:     strings.TrimSpace(in.Target),
		Progress:   in.Progress,
		Category:   strings.TrimSpace(in.Category),
		RecordedAt: s.clock().UTC(),
	}
	switch {
	case m.Name == "":
		return BusinessMetric{}, apperr.Validation("name", "is required")
	case m.Value == "":
		return BusinessMetric{}, apperr.Validation("value", "is required")
	case len(m.Category) > maxCategoryLen:
		return BusinessMetric{}, apperr.Validation("category", "must be at most 50 characters")
	case m.Progress != nil && (*m.Progress < 0 || *m.Progress > 100):
		return BusinessMetric{}, apperr.Validation("progress", "must be between 0 and 100")
	}
	return s.repo.Insert(ctx, m)
}
