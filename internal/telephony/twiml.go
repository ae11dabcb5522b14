package telephony

import (
	"errors"
	"strings"

	"github.com/twilio/twilio-go/twiml"
)

// DefaultGreeting is read to callers who dial the shop number.
const DefaultGreeting = "Thank you for calling Jay's Frames! For order updates, please text your order number to this number, or visit our website. Have a great day!"

// RenderGreeting says text and hangs up.
func RenderGreeting(text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", errors.New("telephony: greeting text required")
	}
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceSay{Message: text, Voice: "alice"},
		&twiml.VoiceHangup{},
	})
}

// RenderDial bridges the current call to number.
func RenderDial(number, callerID string) (string, error) {
	if strings.TrimSpace(number) == "" {
		return "", errors.New("telephony: dial number required")
	}
	return twiml.Voice([]twiml.Element{
		&twiml.VoiceDial{
			CallerId:      callerID,
			InnerElements: []twiml.Element{&twiml.VoiceNumber{PhoneNumber: number}},
		},
	})
}

// RenderMessage replies to an inbound SMS. An empty body yields an empty
// response so Twilio sends nothing back.
func RenderMessage(body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return twiml.Messages(nil)
	}
	return twiml.Messages([]twiml.Element{&twiml.MessagingMessage{Body: body}})
}
