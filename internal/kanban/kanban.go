// Package kanban reads the production board of the shop's task tracker so the
// dashboard can show workshop throughput next to orders and calls.
package kanban

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"
)

const (
	DefaultBaseURL = "https://kanbanmain-JayFrames.replit.app"
	DefaultTimeout = 10 * time.Second

	// RecentActivityLimit caps the board activity shown on the dashboard.
	RecentActivityLimit = 5

	userAgent = "JaysFrames-Dashboard/1.0"
)

type TaskStatus string

const (
	TaskTodo       TaskStatus = "todo"
	TaskInProgress TaskStatus = "in-progress"
	TaskDone       TaskStatus = "done"
)

type Task struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Status    TaskStatus `json:"status"`
	Assignee  string     `json:"assignee,omitempty"`
	CreatedAt string     `json:"createdAt"`
	UpdatedAt string     `json:"updatedAt"`
}

// Metrics summarizes the board. Live is false when the values are the
// built-in fallback because the board could not be read.
type Metrics struct {
	TotalTasks      int  `json:"total_tasks"`
	CompletedTasks  int  `json:"completed_tasks"`
	InProgressTasks int  `json:"in_progress_tasks"`
	PendingTasks    int  `json:"pending_tasks"`
	TeamMembers     int  `json:"team_members"`
	CompletionRate  int  `json:"completion_rate"`
	Live            bool `json:"live"`
}

type ActivityItem struct {
	Action string `json:"action"`
	Time   string `json:"time"`
	Type   string `json:"type"`
}

// FallbackMetrics is shown while the board is unreachable.
var FallbackMetrics = Metrics{
	TotalTasks:      24,
	CompletedTasks:  18,
	InProgressTasks: 4,
	PendingTasks:    2,
	TeamMembers:     5,
	CompletionRate:  75,
}

var FallbackActivity = []ActivityItem{
	{Action: "Task 'Frame Design Review' completed", Time: "5 min ago", Type: "task"},
	{Action: "New task 'Customer Consultation' added", Time: "12 min ago", Type: "task"},
	{Action: "Task moved to 'In Progress'", Time: "25 min ago", Type: "task"},
}

type Options struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client
	Logger  *slog.Logger
}

type Client struct {
	baseURL string
	timeout time.Duration
	client  *http.Client
	log     *slog.Logger
}

func NewClient(opts Options) *Client {
	if strings.TrimSpace(opts.BaseURL) == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Client == nil {
		opts.Client = &http.Client{}
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Client{
		baseURL: strings.TrimRight(opts.BaseURL, "/"),
		timeout: opts.Timeout,
		client:  opts.Client,
		log:     opts.Logger.With("component", "kanban"),
	}
}

// Tasks returns every task on the board.
func (c *Client) Tasks(ctx context.Context) ([]Task, error) {
	var tasks []Task
	if err := c.getJSON(ctx, "/api/tasks", &tasks); err != nil {
		return nil, err
	}
	return tasks, nil
}

// FetchMetrics computes board metrics. When the board cannot be read it logs
// the failure and returns FallbackMetrics.
func (c *Client) FetchMetrics(ctx context.Context) Metrics {
	tasks, err := c.Tasks(ctx)
	if err != nil {
		c.log.Warn("kanban metrics unavailable, using fallback", "err", err)
		return FallbackMetrics
	}
	return MetricsFromTasks(tasks)
}

// RecentActivity returns up to RecentActivityLimit board events and whether
// they came from the board rather than FallbackActivity.
func (c *Client) RecentActivity(ctx context.Context) ([]ActivityItem, bool) {
	var items []ActivityItem
	if err := c.getJSON(ctx, "/api/activity", &items); err != nil {
		c.log.Warn("kanban activity unavailable, using fallback", "err", err)
		return append([]ActivityItem(nil), FallbackActivity...), false
	}
	if len(items) > RecentActivityLimit {
		items = items[:RecentActivityLimit]
	}
	return items, true
}

func MetricsFromTasks(tasks []Task) Metrics {
	m := Metrics{TotalTasks: len(tasks), Live: true}
	assignees := map[string]struct{}{}
	for _, t := range tasks {
		switch t.Status {
		case TaskDone:
			m.CompletedTasks++
		case TaskInProgress:
			m.InProgressTasks++
		case TaskTodo:
			m.PendingTasks++
		}
		if a := strings.TrimSpace(t.Assignee); a != "" {
			assignees[a] = struct{}{}
		}
	}
	m.TeamMembers = len(assignees)
	if m.TotalTasks > 0 {
		m.CompletionRate = int(math.Round(float64(m.CompletedTasks) * 100 / float64(m.TotalTasks)))
	}
	return m
}

func (c *Client) getJSON(ctx context.Context, path string, dst any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("kanban: GET %s: status %d", path, resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("kanban: decode %s: %w", path, err)
	}
	return nil
}
