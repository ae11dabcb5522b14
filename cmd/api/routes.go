package main

import (
	"context"
	"net/http"

	"framing-command-center/internal/httpapi"
	"framing-command-center/internal/payments"
	"framing-command-center/internal/telephony"

	"github.com/gin-gonic/gin"
)

// routeDeps carries everything registerRoutes needs. Nil middleware is skipped.
type routeDeps struct {
	API       httpapi.Handlers
	Telephony telephony.Handler
	Payments  payments.Handler

	AdminAuth       gin.HandlerFunc
	TwilioSignature gin.HandlerFunc
	PublicLimiter   httpapi.Limiter

	Health func(ctx context.Context) error
}

func use(g *gin.RouterGroup, mw gin.HandlerFunc) {
	if mw != nil {
		g.Use(mw)
	}
}

// registerRoutes wires HTTP routes to handlers.
// Keep this file free of business logic. Handlers should delegate to internal modules.
func registerRoutes(r *gin.Engine, d routeDeps) {
	// public
	r.GET("/healthz", func(c *gin.Context) {
		if d.Health != nil {
			if err := d.Health(c.Request.Context()); err != nil {
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded", "error": "database unreachable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	authGroup := r.Group("/api/auth")
	{
		authGroup.POST("/login", d.API.Login)
		authGroup.POST("/refresh", d.API.Refresh)
	}

	public := r.Group("/api/public")
	public.Use(httpapi.RateLimitByIP(d.PublicLimiter))
	{
		public.GET("/orders/:orderNumber", d.API.PublicOrder)
	}

	// Vendor webhooks. Twilio requests are signed; Stripe verifies inside the handler.
	twilioHooks := r.Group("/webhook")
	use(twilioHooks, d.TwilioSignature)
	{
		twilioHooks.POST("/voice", d.Telephony.VoiceWebhook)
		twilioHooks.POST("/sms", d.Telephony.SMSWebhook)
		twilioHooks.POST("/call-status", d.Telephony.CallStatusWebhook)
	}
	r.POST("/webhook/stripe", d.Payments.Webhook)

	// admin API
	api := r.Group("/api")
	use(api, d.AdminAuth)
	{
		tel := api.Group("/telephony")
		tel.GET("/access-token", d.Telephony.AccessToken)
		tel.GET("/call-history", d.Telephony.CallHistory)
		tel.POST("/make-call", d.Telephony.MakeCall)

		ord := api.Group("/orders")
		ord.POST("", d.API.CreateOrder)
		ord.GET("", d.API.ListOrders)
		ord.GET("/:orderNumber", d.API.GetOrder)
		ord.GET("/:orderNumber/history", d.API.OrderHistory)
		ord.PUT("/:orderNumber/status", d.API.UpdateOrderStatus)
		ord.POST("/:orderNumber/checkout", d.Payments.CreateCheckout)

		api.GET("/dashboard/summary", d.API.Summary)
		api.GET("/activities", d.API.Activities)
		api.GET("/applications", d.API.Applications)
		api.GET("/applications/status", d.API.ApplicationStatuses)
		api.GET("/applications/:id/status", d.API.ApplicationStatus)

		api.GET("/metrics", d.API.BusinessMetrics)
		api.POST("/metrics", d.API.RecordBusinessMetric)
		api.GET("/tasks/metrics", d.API.TaskMetrics)
		api.GET("/tasks/activity", d.API.TaskActivity)
		api.GET("/suppliers", d.API.ListSuppliers)
		api.GET("/suppliers/:id", d.API.GetSupplier)
	}
}
