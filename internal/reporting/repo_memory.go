package reporting

import (
	"context"
	"sort"
	"sync"
)

// MemoryMetricsRepo is an in-memory MetricsRepository for tests and local runs.
type MemoryMetricsRepo struct {
	mu     sync.Mutex
	nextID int64
	rows   []BusinessMetric
}

func NewMemoryMetricsRepo() *MemoryMetricsRepo { return &MemoryMetricsRepo{} }

func (r *MemoryMetricsRepo) Insert(ctx context.Context, m BusinessMetric) (BusinessMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	m.ID = r.nextID
	r.rows = append(r.rows, m)
	return m, nil
}

func (r *MemoryMetricsRepo) Latest(ctx context.Context) ([]BusinessMetric, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	latest := map[string]BusinessMetric{}
	for _, m := range r.rows {
		cur, ok := latest[m.Name]
		if !ok || !m.RecordedAt.Before(cur.RecordedAt) {
			latest[m.Name] = m
		}
	}
	out := make([]BusinessMetric, 0, len(latest))
	for _, m := range latest {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}
