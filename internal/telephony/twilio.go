package telephony

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"

	"github.com/twilio/twilio-go"
	twclient "github.com/twilio/twilio-go/client"
	openapi "github.com/twilio/twilio-go/rest/api/v2010"
)

// HistoryLimit is how many recent calls CallHistory fetches.
const HistoryLimit = 50

// twilioAPI is the slice of the Twilio REST client this package uses.
type twilioAPI interface {
	FetchAccount(sid string) (*openapi.ApiV2010Account, error)
	CreateCall(params *openapi.CreateCallParams) (*openapi.ApiV2010Call, error)
	ListCall(params *openapi.ListCallParams) ([]openapi.ApiV2010Call, error)
	CreateMessage(params *openapi.CreateMessageParams) (*openapi.ApiV2010Message, error)
}

type TwilioOptions struct {
	AccountSID  string
	AuthToken   string
	PhoneNumber string

	// VoiceURL is fetched by Twilio when an outbound call is answered.
	// When empty the greeting TwiML is sent inline.
	VoiceURL string
	// StatusCallbackURL receives call progress events.
	StatusCallbackURL string
}

type TwilioProvider struct {
	api  twilioAPI
	opts TwilioOptions
}

// NewTwilioProvider builds the REST-backed provider. Missing credentials
// return ErrNotConfigured.
func NewTwilioProvider(opts TwilioOptions) (*TwilioProvider, error) {
	if opts.AccountSID == "" || opts.AuthToken == "" || opts.PhoneNumber == "" {
		return nil, ErrNotConfigured
	}
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: opts.AccountSID,
		Password: opts.AuthToken,
	})
	return &TwilioProvider{api: client.Api, opts: opts}, nil
}

func (p *TwilioProvider) Name() string { return "twilio" }

func (p *TwilioProvider) HealthCheck(ctx context.Context) error {
	if _, err := p.api.FetchAccount(p.opts.AccountSID); err != nil {
		return mapTwilioError("fetch account", err)
	}
	return nil
}

func (p *TwilioProvider) PlaceCall(ctx context.Context, req PlaceCallRequest) (PlaceCallResult, error) {
	to, err := calls.NormalizeE164(req.To)
	if err != nil {
		return PlaceCallResult{}, err
	}
	from := strings.TrimSpace(req.From)
	if from == "" {
		from = p.opts.PhoneNumber
	}

	params := &openapi.CreateCallParams{}
	params.SetTo(to)
	params.SetFrom(from)
	if p.opts.VoiceURL != "" {
		params.SetUrl(p.opts.VoiceURL)
	} else {
		twiml, err := RenderGreeting(DefaultGreeting)
		if err != nil {
			return PlaceCallResult{}, err
		}
		params.SetTwiml(twiml)
	}
	if p.opts.StatusCallbackURL != "" {
		params.SetStatusCallback(p.opts.StatusCallbackURL)
		params.SetStatusCallbackEvent([]string{"initiated", "ringing", "answered", "completed"})
	}

	call, err := p.api.CreateCall(params)
	if err != nil {
		return PlaceCallResult{}, mapTwilioError("create call", err)
	}
	return PlaceCallResult{
		CallID: deref(call.Sid),
		Status: deref(call.Status),
		To:     to,
		From:   from,
	}, nil
}

func (p *TwilioProvider) CallHistory(ctx context.Context) ([]calls.LogEntry, error) {
	params := &openapi.ListCallParams{}
	params.SetLimit(HistoryLimit)

	rows, err := p.api.ListCall(params)
	if err != nil {
		return nil, mapTwilioError("list calls", err)
	}

	out := make([]calls.LogEntry, 0, len(rows))
	for _, r := range rows {
		out = append(out, logEntryFromTwilio(r))
	}
	sort.SliceStable(out, func(i, j int) bool {
		ti, tj := out[i].StartedAt, out[j].StartedAt
		if ti == nil || tj == nil {
			return ti != nil
		}
		return ti.After(*tj)
	})
	return out, nil
}

func (p *TwilioProvider) SendSMS(ctx context.Context, to, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", apperr.Validation("body", "is required")
	}
	normalized, err := calls.NormalizeE164(to)
	if err != nil {
		return "", err
	}

	params := &openapi.CreateMessageParams{}
	params.SetTo(normalized)
	params.SetFrom(p.opts.PhoneNumber)
	params.SetBody(body)

	msg, err := p.api.CreateMessage(params)
	if err != nil {
		return "", mapTwilioError("create message", err)
	}
	return deref(msg.Sid), nil
}

func logEntryFromTwilio(r openapi.ApiV2010Call) calls.LogEntry {
	duration, _ := strconv.Atoi(deref(r.Duration))
	if duration < 0 {
		duration = 0
	}
	e := calls.LogEntry{
		CallID:          deref(r.Sid),
		From:            deref(r.From),
		To:              deref(r.To),
		Direction:       calls.DirectionFromBackend(deref(r.Direction)),
		DurationSeconds: duration,
		StartedAt:       parseTwilioTime(deref(r.StartTime)),
		EndedAt:         parseTwilioTime(deref(r.EndTime)),
		RawStatus:       deref(r.Status),
	}
	if e.Direction == calls.DirectionOutbound {
		e.RemoteAddress = e.To
	} else {
		e.RemoteAddress = e.From
	}
	e.Outcome = calls.OutcomeFromStatus(e.RawStatus, e.DurationSeconds)
	return e
}

// Twilio's REST API formats timestamps as RFC 1123 with a numeric zone.
func parseTwilioTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC1123Z, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

// mapTwilioError keeps caller mistakes (bad numbers) as validation errors and
// treats everything else as the vendor being unavailable.
func mapTwilioError(op string, err error) error {
	var restErr *twclient.TwilioRestError
	if errors.As(err, &restErr) && restErr.Status >= 400 && restErr.Status < 500 &&
		restErr.Status != http.StatusUnauthorized && restErr.Status != http.StatusForbidden {
		return errors.Join(apperr.Validation("", fmt.Sprintf("twilio %s: %s", op, restErr.Message)), err)
	}
	return errors.Join(apperr.Wrap(apperr.ErrUnavailable, "telephony: twilio "+op+" failed"), err)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
