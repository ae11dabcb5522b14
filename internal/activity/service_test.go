package activity

import (
	"context"
	"encoding/json"
	"strings"
	"testing"
)

func TestService_AppendRequiresTypeAndMessage(t *testing.T) {
	svc := NewService(NewMemoryRepo())

	if err := svc.Append(context.Background(), Event{Type: TypeOrderCreated}); err == nil {
		t.Fatalf("expected error")
	}
	if err := svc.Append(context.Background(), Event{Message: "x"}); err == nil {
		t.Fatalf("expected error")
	}
}

func TestService_RecordsOrderEvents(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.OrderCreated(context.Background(), "JF1", "Ada"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if err := svc.StatusChanged(context.Background(), "JF1", "received", "cutting"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	evs := repo.Events()
	if len(evs) != 2 {
		t.Fatalf("expected 2 events, got %d", len(evs))
	}
	if evs[0].ID == "" || evs[0].CreatedAt.IsZero() {
		t.Fatalf("expected id and timestamp to be filled")
	}
	if evs[1].Type != TypeStatusChanged || evs[1].OrderNumber != "JF1" {
		t.Fatalf("unexpected event: %+v", evs[1])
	}
}

func TestService_PaymentMessageFormatsMinorUnits(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	if err := svc.PaymentReceived(context.Background(), "JF1", 12505, "usd", "cs_test"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	ev := repo.Events()[0]
	if !strings.Contains(ev.Message, "125.05 usd") {
		t.Fatalf("unexpected message: %q", ev.Message)
	}
	if !strings.Contains(ev.Metadata, "cs_test") {
		t.Fatalf("expected session id in metadata: %q", ev.Metadata)
	}
}

func TestService_PaymentMetadataIsValidJSON(t *testing.T) {
	repo := NewMemoryRepo()
	svc := NewService(repo)

	sessionID := "cs_\x7f\u00e9\"quoted\""
	if err := svc.PaymentReceived(context.Background(), "JF1", 100, "usd", sessionID); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	var meta map[string]string
	if err := json.Unmarshal([]byte(repo.Events()[0].Metadata), &meta); err != nil {
		t.Fatalf("metadata is not JSON: %v", err)
	}
	if meta["checkout_session_id"] != sessionID {
		t.Fatalf("unexpected metadata: %v", meta)
	}
}

func TestService_ListNewestFirstAndClamped(t *testing.T) {
	svc := NewService(NewMemoryRepo())
	for _, n := range []string{"JF1", "JF2", "JF3"} {
		if err := svc.OrderCreated(context.Background(), n, "Ada"); err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
	}

	evs, err := svc.List(context.Background(), 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(evs) != 2 || evs[0].OrderNumber != "JF3" {
		t.Fatalf("unexpected list: %+v", evs)
	}
	all, _ := svc.List(context.Background(), 0)
	if len(all) != 3 {
		t.Fatalf("expected default limit to include all events, got %d", len(all))
	}
}
