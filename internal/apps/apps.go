// Package apps checks the shop's web applications so the dashboard can show
// which ones are reachable.
package apps

import (
	"context"
	"log/slog"
	"net/http"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"
)

const (
	StatusActive = "Active"
	StatusDown   = "Down"

	DefaultCheckTimeout = 10 * time.Second
	maxConcurrentChecks = 8
)

type Application struct {
	ID   int    `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

type ApplicationStatus struct {
	Application
	Status         string    `json:"status"`
	ResponseTimeMS int64     `json:"response_time"`
	LastChecked    time.Time `json:"last_checked"`
}

// DefaultApplications is the list monitored when no override is configured.
var DefaultApplications = []Application{
	{ID: 1, Name: "Main Website", URL: "https://frame-houston-JayFrames.replit.app"},
	{ID: 2, Name: "Virtual Designer", URL: "https://jays-frames-ai-JayFrames.replit.app"},
	{ID: 3, Name: "Kanban Production", URL: "https://4ac71b60-f981-4aba-8f8c-73dde0fc14da-00-3gz99m4rduv0e.kirk.replit.dev/kanban"},
	{ID: 4, Name: "Enterprise CRM", URL: "https://enterprise-intelligence-JayFrames.replit.app"},
	{ID: 5, Name: "POS System", URL: "https://frame-craft-pro-JayFrames.replit.app"},
	{ID: 6, Name: "Business Listing Analyzer", URL: "https://business-listing-analyzer-JayFrames.replit.app"},
	{ID: 7, Name: "Larson Juhl Designer", URL: "https://shop.larsonjuhl.com/en-US/lj-design-studio?customizable=#maincontent"},
}

// FromMap builds an application list from name=url pairs, sorted by name so IDs are stable.
func FromMap(m map[string]string) []Application {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)

	out := make([]Application, 0, len(names))
	for i, name := range names {
		out = append(out, Application{ID: i + 1, Name: name, URL: m[name]})
	}
	return out
}

type Options struct {
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
	Now     func() time.Time
}

type Monitor struct {
	apps    []Application
	timeout time.Duration
	client  *http.Client
	log     *slog.Logger
	now     func() time.Time
}

func NewMonitor(apps []Application, opts Options) *Monitor {
	if len(apps) == 0 {
		apps = DefaultApplications
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultCheckTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		apps:    append([]Application(nil), apps...),
		timeout: opts.Timeout,
		client:  opts.Client,
		log:     opts.Logger.With("component", "apps"),
		now:     opts.Now,
	}
}

func (m *Monitor) Applications() []Application {
	return append([]Application(nil), m.apps...)
}

// Lookup returns the application with the given ID.
func (m *Monitor) Lookup(id int) (Application, bool) {
	for _, a := range m.apps {
		if a.ID == id {
			return a, true
		}
	}
	return Application{}, false
}

// CheckAll checks every application concurrently. A failed check marks that
// application Down and never fails the whole check.
func (m *Monitor) CheckAll(ctx context.Context) ([]ApplicationStatus, error) {
	out := make([]ApplicationStatus, len(m.apps))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrentChecks)
	for i, app := range m.apps {
		g.Go(func() error {
			out[i] = m.Check(gctx, app)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// Check sends a HEAD request and reports Active for any 2xx response.
func (m *Monitor) Check(ctx context.Context, app Application) ApplicationStatus {
	start := m.now()
	status := StatusDown

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodHead, app.URL, nil)
	if err == nil {
		var resp *http.Response
		resp, err = m.client.Do(req)
		if err == nil {
			resp.Body.Close()
			if resp.StatusCode >= 200 && resp.StatusCode < 300 {
				status = StatusActive
			}
		}
	}
	if err != nil {
		m.log.Debug("application check failed", "app", app.Name, "err", err)
	}

	end := m.now()
	return ApplicationStatus{
		Application:    app,
		Status:         status,
		ResponseTimeMS: end.Sub(start).Milliseconds(),
		LastChecked:    end.UTC(),
	}
}
