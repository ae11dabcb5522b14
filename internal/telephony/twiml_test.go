package telephony

import (
	"strings"
	"testing"
)

func TestRenderGreeting(t *testing.T) {
	xml, err := RenderGreeting(DefaultGreeting)
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	for _, want := range []string{`<Say voice="alice">Thank you for calling Jay`, "<Hangup/>"} {
		if !strings.Contains(xml, want) {
			t.Fatalf("expected %q in xml: %s", want, xml)
		}
	}
	if !strings.HasPrefix(xml, "<?xml") {
		t.Fatalf("expected xml header: %s", xml)
	}
}

func TestRenderDialRequiresNumber(t *testing.T) {
	if _, err := RenderDial(" ", "+15550000000"); err == nil {
		t.Fatalf("expected error")
	}
	xml, err := RenderDial("+15551234567", "+15550000000")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, `<Dial callerId="+15550000000">`) || !strings.Contains(xml, "<Number>+15551234567</Number>") {
		t.Fatalf("unexpected dial xml: %s", xml)
	}
}

func TestRenderMessageEscapesBody(t *testing.T) {
	xml, err := RenderMessage("Order JF1 <ready> & waiting")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if !strings.Contains(xml, "&lt;ready&gt; &amp; waiting") {
		t.Fatalf("expected escaped body: %s", xml)
	}

	empty, err := RenderMessage("")
	if err != nil || strings.Contains(empty, "<Message") {
		t.Fatalf("expected empty response, got %s %v", empty, err)
	}
}
