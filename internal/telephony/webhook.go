package telephony

import (
	"net/http"
	"strconv"
	"strings"
)

// Twilio posts application/x-www-form-urlencoded webhooks. These forms keep
// the subset of fields the handlers use.

type VoiceForm struct {
	CallSid      string
	AccountSid   string
	From         string
	To           string
	Direction    string
	CallStatus   string
	CallDuration int
	CallerName   string
}

type SMSForm struct {
	MessageSid string
	AccountSid string
	From       string
	To         string
	Body       string
}

// ClientPrefix marks calls that originate from a Voice SDK client rather than the PSTN.
const ClientPrefix = "client:"

func (f VoiceForm) FromClient() bool {
	return strings.HasPrefix(f.From, ClientPrefix)
}

func ParseVoiceWebhook(r *http.Request) (VoiceForm, error) {
	if err := r.ParseForm(); err != nil {
		return VoiceForm{}, err
	}
	duration, _ := strconv.Atoi(r.PostFormValue("CallDuration"))
	return VoiceForm{
		CallSid:      r.PostFormValue("CallSid"),
		AccountSid:   r.PostFormValue("AccountSid"),
		From:         strings.TrimSpace(r.PostFormValue("From")),
		To:           strings.TrimSpace(r.PostFormValue("To")),
		Direction:    r.PostFormValue("Direction"),
		CallStatus:   r.PostFormValue("CallStatus"),
		CallDuration: duration,
		CallerName:   r.PostFormValue("CallerName"),
	}, nil
}

func ParseSMSWebhook(r *http.Request) (SMSForm, error) {
	if err := r.ParseForm(); err != nil {
		return SMSForm{}, err
	}
	return SMSForm{
		MessageSid: r.PostFormValue("MessageSid"),
		AccountSid: r.PostFormValue("AccountSid"),
		From:       strings.TrimSpace(r.PostFormValue("From")),
		To:         strings.TrimSpace(r.PostFormValue("To")),
		Body:       strings.TrimSpace(r.PostFormValue("Body")),
	}, nil
}
