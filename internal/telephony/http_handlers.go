package telephony

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"
	"framing-command-center/internal/orders"
	"framing-command-center/pkg/logger"

	"github.com/gin-gonic/gin"
)

// TokenIssuer issues Voice SDK access tokens.
type TokenIssuer interface {
	Issue(identity string) (string, error)
}

// OrderLookup answers "where is my order" texts.
type OrderLookup interface {
	LookupByText(ctx context.Context, text string) (orders.PublicOrder, error)
}

// CallRecorder adds placed calls to the activity feed.
type CallRecorder interface {
	CallPlaced(ctx context.Context, callID, to string) error
}

// Handler converts HTTP requests and Twilio webhooks to provider calls and
// writes JSON or TwiML. No business logic lives here.
type Handler struct {
	Provider Provider
	Tokens   TokenIssuer
	Orders   OrderLookup
	Activity CallRecorder

	// CallerID is the shop number presented on calls bridged from the softphone.
	CallerID string
	Greeting string
}

func abortWithError(c *gin.Context, err error) {
	status, code, msg := apperr.Public(err)
	c.AbortWithStatusJSON(status, gin.H{"error": code, "message": msg})
}

// AccessToken answers GET /api/telephony/access-token?identity=<id>.
func (h Handler) AccessToken(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Tokens == nil {
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "telephony_unavailable", "message": ErrNotConfigured.Error()})
		return
	}
	token, err := h.Tokens.Issue(c.Query("identity"))
	if errors.Is(err, ErrNotConfigured) {
		log.Error("access token requested without credentials", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "telephony_unavailable", "message": err.Error()})
		return
	}
	if err != nil {
		abortWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"token": token})
}

// CallHistory answers GET /api/telephony/call-history with the most recent calls first.
func (h Handler) CallHistory(c *gin.Context) {
	if h.Provider == nil {
		abortWithError(c, ErrNotConfigured)
		return
	}
	entries, err := h.Provider.CallHistory(c.Request.Context())
	if err != nil {
		logger.FromGin(c).Error("call history failed", "provider", h.Provider.Name(), "err", err)
		abortWithError(c, err)
		return
	}
	if entries == nil {
		entries = []calls.LogEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

type makeCallRequest struct {
	To   string `json:"to"`
	From string `json:"from"`
}

// MakeCall answers POST /api/telephony/make-call.
func (h Handler) MakeCall(c *gin.Context) {
	log := logger.FromGin(c)
	if h.Provider == nil {
		abortWithError(c, ErrNotConfigured)
		return
	}
	var req makeCallRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.To) == "" {
		abortWithError(c, apperr.Validation("to", "is required"))
		return
	}

	res, err := h.Provider.PlaceCall(c.Request.Context(), PlaceCallRequest{To: req.To, From: req.From})
	if err != nil {
		log.Error("place call failed", "provider", h.Provider.Name(), "err", err)
		abortWithError(c, err)
		return
	}
	log.Info("call placed", "call_sid", res.CallID, "status", res.Status)

	if h.Activity != nil {
		if err := h.Activity.CallPlaced(c.Request.Context(), res.CallID, res.To); err != nil {
			log.Warn("activity append failed", "err", err)
		}
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "callSid": res.CallID, "status": res.Status})
}

// VoiceWebhook answers Twilio's voice URL. Softphone calls are bridged to the
// dialed number; everything else hears the greeting.
func (h Handler) VoiceWebhook(c *gin.Context) {
	log := logger.FromGin(c)
	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		log.Warn("twilio voice webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}

	var twiml string
	if form.FromClient() && form.To != "" {
		to, nerr := calls.NormalizeE164(form.To)
		if nerr != nil {
			log.Warn("softphone dialed an invalid number", "to", form.To)
			twiml, err = RenderGreeting("Sorry, that number could not be dialed.")
		} else {
			log.Info("bridging softphone call", "call_sid", form.CallSid, "to", to)
			twiml, err = RenderDial(to, h.CallerID)
		}
	} else {
		log.Info("inbound call", "call_sid", form.CallSid, "from", form.From, "direction", form.Direction)
		greeting := h.Greeting
		if greeting == "" {
			greeting = DefaultGreeting
		}
		twiml, err = RenderGreeting(greeting)
	}
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	writeTwiML(c, twiml)
}

// SMSWebhook replies to inbound texts with the status of the order they name.
func (h Handler) SMSWebhook(c *gin.Context) {
	log := logger.FromGin(c)
	form, err := ParseSMSWebhook(c.Request)
	if err != nil {
		log.Warn("twilio sms webhook parse failed", "err", err)
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	log.Info("inbound sms", "message_sid", form.MessageSid, "from", form.From)

	reply := h.smsReply(c.Request.Context(), form.Body)
	twiml, err := RenderMessage(reply)
	if err != nil {
		log.Error("twiml render failed", "err", err)
		c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "twiml failed"})
		return
	}
	writeTwiML(c, twiml)
}

func (h Handler) smsReply(ctx context.Context, body string) string {
	if h.Orders == nil {
		return ""
	}
	o, err := h.Orders.LookupByText(ctx, body)
	switch {
	case err == nil:
		return "Order " + o.OrderNumber + ": " + o.StatusLabel + "."
	case errors.Is(err, apperr.ErrValidation):
		return "Text your order number (for example JF1700000000000) to get its status."
	case errors.Is(err, apperr.ErrNotFound):
		number, _ := orders.FindOrderNumber(body)
		return "We couldn't find order " + number + ". Please check the number and try again."
	default:
		logger.From(ctx).Error("sms order lookup failed", "err", err)
		return "Sorry, we couldn't look up your order right now. Please call the shop."
	}
}

// CallStatusWebhook receives call progress callbacks.
func (h Handler) CallStatusWebhook(c *gin.Context) {
	log := logger.FromGin(c)
	form, err := ParseVoiceWebhook(c.Request)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "invalid form"})
		return
	}
	log.Info("call status",
		"call_sid", form.CallSid,
		"status", form.CallStatus,
		"outcome", calls.OutcomeFromStatus(form.CallStatus, form.CallDuration),
		"duration_seconds", form.CallDuration,
	)
	c.Status(http.StatusNoContent)
}

func writeTwiML(c *gin.Context, twiml string) {
	c.Header("Content-Type", "application/xml")
	c.String(http.StatusOK, twiml)
}
