package httpapi

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"framing-command-center/internal/activity"
	"framing-command-center/internal/apperr"
	"framing-command-center/internal/apps"
	"framing-command-center/internal/auth"
	"framing-command-center/internal/orders"
	"framing-command-center/internal/reporting"
	"framing-command-center/internal/suppliers"
	"framing-command-center/pkg/logger"

	"github.com/gin-gonic/gin"
)

// Handlers groups the dashboard's HTTP handlers for dependency injection.
// Keep these thin: parse/validate input, call internal services, return JSON.
type Handlers struct {
	Auth  *auth.Manager
	Admin *auth.Admin

	Orders    *orders.Service
	Activity  *activity.Service
	Reporting *reporting.Service
	Scorecard *reporting.Scorecard
	Board     reporting.TaskBoard
	Apps      *apps.Monitor
	Suppliers *suppliers.Directory

	Now func() time.Time
}

func (h Handlers) now() time.Time {
	if h.Now != nil {
		return h.Now()
	}
	return time.Now()
}

func abortWithError(c *gin.Context, err error) {
	status, code, msg := apperr.Public(err)
	if status >= http.StatusInternalServerError {
		logger.FromGin(c).Error("request failed", "err", err)
	}
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
}

func queryLimit(c *gin.Context) (int, bool) {
	raw := strings.TrimSpace(c.Query("limit"))
	if raw == "" {
		return 0, true
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": "limit must be a non-negative integer"})
		return 0, false
	}
	return n, true
}

// --- Auth ---

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login exchanges the admin credentials for a token pair.
func (h Handlers) Login(c *gin.Context) {
	if h.Auth == nil || h.Admin == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "admin login is not enabled"})
		return
	}
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if err := h.Admin.Authenticate(req.Username, req.Password); err != nil {
		logger.FromGin(c).Warn("admin login rejected", "username", req.Username)
		abortWithError(c, err)
		return
	}
	pair, err := h.Auth.IssuePair(h.now(), h.Admin.Username())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// Refresh issues a new pair from a valid refresh token.
func (h Handlers) Refresh(c *gin.Context) {
	if h.Auth == nil || h.Admin == nil {
		c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "not_found", "message": "admin login is not enabled"})
		return
	}
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.RefreshToken == "" {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "refresh_token required"})
		return
	}
	now := h.now()
	claims, err := h.Auth.Verify(req.RefreshToken, auth.TokenTypeRefresh, now)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized", "message": "invalid refresh token"})
		return
	}
	pair, err := h.Auth.IssuePair(now, claims.UserID)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, pair)
}

// --- Orders ---

// CreateOrder answers POST /api/orders.
func (h Handlers) CreateOrder(c *gin.Context) {
	var in orders.CreateInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	o, err := h.Orders.Create(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"id":           o.ID,
		"order_number": o.OrderNumber,
		"message":      "Order created successfully",
	})
}

func (h Handlers) ListOrders(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	list, err := h.Orders.List(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) GetOrder(c *gin.Context) {
	o, err := h.Orders.Get(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

func (h Handlers) OrderHistory(c *gin.Context) {
	number := c.Param("orderNumber")
	if _, err := h.Orders.Get(c.Request.Context(), number); err != nil {
		abortWithError(c, err)
		return
	}
	history, err := h.Orders.History(c.Request.Context(), number)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, history)
}

type statusUpdateRequest struct {
	Status string `json:"status"`
	Notes  string `json:"notes"`
}

// UpdateOrderStatus answers PUT /api/orders/:orderNumber/status.
func (h Handlers) UpdateOrderStatus(c *gin.Context) {
	var req statusUpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	up, err := h.Orders.UpdateStatus(c.Request.Context(), c.Param("orderNumber"), orders.Status(strings.TrimSpace(req.Status)), req.Notes)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":      "Order status updated",
		"order_number": up.Order.OrderNumber,
		"old_status":   up.Change.OldStatus,
		"new_status":   up.Change.NewStatus,
	})
}

// PublicOrder answers GET /api/public/orders/:orderNumber for customers.
func (h Handlers) PublicOrder(c *gin.Context) {
	o, err := h.Orders.GetPublic(c.Request.Context(), c.Param("orderNumber"))
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, o)
}

// --- Dashboard ---

// Summary answers GET /api/dashboard/summary[?from=RFC3339&to=RFC3339].
func (h Handlers) Summary(c *gin.Context) {
	var req reporting.SummaryRequest
	for _, p := range []struct {
		name string
		dst  *time.Time
	}{{"from", &req.Range.From}, {"to", &req.Range.To}} {
		raw := c.Query(p.name)
		if raw == "" {
			continue
		}
		t, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "validation_failed", "message": p.name + " must be RFC3339"})
			return
		}
		*p.dst = t
	}
	out, err := h.Reporting.Summary(c.Request.Context(), req)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) Activities(c *gin.Context) {
	limit, ok := queryLimit(c)
	if !ok {
		return
	}
	list, err := h.Activity.List(c.Request.Context(), limit)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

func (h Handlers) Applications(c *gin.Context) {
	c.JSON(http.StatusOK, h.Apps.Applications())
}

// ApplicationStatuses checks every application.
func (h Handlers) ApplicationStatuses(c *gin.Context) {
	out, err := h.Apps.CheckAll(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

func (h Handlers) ApplicationStatus(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		abortWithError(c, apperr.Validation("id", "must be an integer"))
		return
	}
	app, ok := h.Apps.Lookup(id)
	if !ok {
		abortWithError(c, apperr.Wrap(apperr.ErrNotFound, "application not found"))
		return
	}
	c.JSON(http.StatusOK, h.Apps.Check(c.Request.Context(), app))
}

// --- Business metrics ---

func (h Handlers) BusinessMetrics(c *gin.Context) {
	if h.Scorecard == nil {
		abortWithError(c, apperr.Wrap(apperr.ErrUnavailable, "business metrics not configured"))
		return
	}
	list, err := h.Scorecard.List(c.Request.Context())
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// RecordBusinessMetric answers POST /api/metrics.
func (h Handlers) RecordBusinessMetric(c *gin.Context) {
	if h.Scorecard == nil {
		abortWithError(c, apperr.Wrap(apperr.ErrUnavailable, "business metrics not configured"))
		return
	}
	var in reporting.MetricInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	m, err := h.Scorecard.Record(c.Request.Context(), in)
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusCreated, m)
}

// --- Production board ---

func (h Handlers) TaskMetrics(c *gin.Context) {
	if h.Board == nil {
		abortWithError(c, apperr.Wrap(apperr.ErrUnavailable, "task board not configured"))
		return
	}
	c.JSON(http.StatusOK, h.Board.FetchMetrics(c.Request.Context()))
}

func (h Handlers) TaskActivity(c *gin.Context) {
	if h.Board == nil {
		abortWithError(c, apperr.Wrap(apperr.ErrUnavailable, "task board not configured"))
		return
	}
	items, live := h.Board.RecentActivity(c.Request.Context())
	c.JSON(http.StatusOK, gin.H{"items": items, "live": live})
}

// --- Suppliers ---

// ListSuppliers answers GET /api/suppliers[?q=term].
func (h Handlers) ListSuppliers(c *gin.Context) {
	c.JSON(http.StatusOK, h.directory().Search(c.Query("q")))
}

func (h Handlers) GetSupplier(c *gin.Context) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil {
		abortWithError(c, apperr.Validation("id", "must be an integer"))
		return
	}
	s, ok := h.directory().Lookup(id)
	if !ok {
		abortWithError(c, apperr.Wrap(apperr.ErrNotFound, "supplier not found"))
		return
	}
	c.JSON(http.StatusOK, s)
}

func (h Handlers) directory() *suppliers.Directory {
	if h.Suppliers == nil {
		return suppliers.NewDirectory(nil)
	}
	return h.Suppliers
}
