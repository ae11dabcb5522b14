package payments

import (
	"io"
	"math"
	"net/http"

	"framing-command-center/internal/apperr"
	"framing-command-center/pkg/logger"

	"github.com/gin-gonic/gin"
)

const maxWebhookBody = 64 << 10

type Handler struct {
	Service *Service
}

type checkoutRequest struct {
	// Amount is in major units (dollars); it is rounded to cents.
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

// CreateCheckout answers POST /api/orders/:orderNumber/checkout.
func (h Handler) CreateCheckout(c *gin.Context) {
	var req checkoutRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	out, err := h.Service.CreateCheckout(c.Request.Context(), CheckoutRequest{
		OrderNumber: c.Param("orderNumber"),
		AmountMinor: int64(math.Round(req.Amount * 100)),
		Currency:    req.Currency,
	})
	if err != nil {
		status, code, msg := apperr.Public(err)
		c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
		return
	}
	c.JSON(http.StatusOK, out)
}

// Webhook answers POST /webhook/stripe.
func (h Handler) Webhook(c *gin.Context) {
	log := logger.FromGin(c)
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, maxWebhookBody))
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "unreadable body"})
		return
	}

	res, err := h.Service.HandleWebhook(c.Request.Context(), payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Warn("stripe webhook rejected", "err", err)
		status, code, msg := apperr.Public(err)
		c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
		return
	}
	c.JSON(http.StatusOK, gin.H{"received": true, "duplicate": res.Duplicate})
}
