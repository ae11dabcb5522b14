package orders

import (
	"context"
	"errors"
	"regexp"
	"sync"
	"testing"
	"time"

	"framing-command-center/internal/apperr"
)

type recordingNotifier struct {
	mu    sync.Mutex
	calls []NotificationKind
	last  Order
}

func (n *recordingNotifier) Notify(o Order, kind NotificationKind) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, kind)
	n.last = o
}

type memActivity struct {
	created []string
	changed []string
	err     error
}

func (a *memActivity) OrderCreated(_ context.Context, orderNumber, _ string) error {
	a.created = append(a.created, orderNumber)
	return a.err
}

func (a *memActivity) StatusChanged(_ context.Context, orderNumber, oldStatus, newStatus string) error {
	a.changed = append(a.changed, orderNumber+":"+oldStatus+"->"+newStatus)
	return a.err
}

func newTestService(t *testing.T) (*Service, *MemoryRepo, *recordingNotifier, *memActivity) {
	t.Helper()
	repo := NewMemoryRepo()
	n := &recordingNotifier{}
	act := &memActivity{}
	svc := NewService(repo, n, act, nil)
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	tick := 0
	svc.clock = func() time.Time {
		tick++
		return base.Add(time.Duration(tick) * time.Millisecond)
	}
	return svc, repo, n, act
}

func validInput() CreateInput {
	return CreateInput{
		CustomerName:  "Ada Lovelace",
		CustomerPhone: "5551234567",
		FrameType:     "walnut",
		Dimensions:    "11x14",
		SMSEnabled:    true,
	}
}

func TestCreate_GeneratesNumberAndNotifies(t *testing.T) {
	svc, _, n, act := newTestService(t)

	o, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !regexp.MustCompile(`^JF\d+$`).MatchString(o.OrderNumber) {
		t.Fatalf("unexpected order number %q", o.OrderNumber)
	}
	if o.Status != StatusReceived {
		t.Fatalf("expected received, got %s", o.Status)
	}
	if o.CustomerPhone != "+15551234567" {
		t.Fatalf("expected normalized phone, got %q", o.CustomerPhone)
	}
	if len(n.calls) != 1 || n.calls[0] != NotifyCreated {
		t.Fatalf("expected one created notification, got %v", n.calls)
	}
	if len(act.created) != 1 || act.created[0] != o.OrderNumber {
		t.Fatalf("expected activity entry, got %v", act.created)
	}
}

func TestCreate_NoNotificationWithoutOptIn(t *testing.T) {
	svc, _, n, _ := newTestService(t)
	in := validInput()
	in.SMSEnabled = false

	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(n.calls) != 0 {
		t.Fatalf("expected no notification, got %v", n.calls)
	}
}

func TestCreate_EmailOnlyIsAccepted(t *testing.T) {
	svc, _, n, _ := newTestService(t)
	in := validInput()
	in.CustomerPhone = ""
	in.CustomerEmail = "ada@example.com"

	if _, err := svc.Create(context.Background(), in); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(n.calls) != 0 {
		t.Fatalf("no phone means no sms, got %v", n.calls)
	}
}

func TestCreate_Validation(t *testing.T) {
	svc, repo, _, _ := newTestService(t)

	cases := map[string]func(*CreateInput){
		"missing name":       func(in *CreateInput) { in.CustomerName = " " },
		"missing contact":    func(in *CreateInput) { in.CustomerPhone = "" },
		"bad email":          func(in *CreateInput) { in.CustomerEmail = "not-an-email" },
		"missing frame type": func(in *CreateInput) { in.FrameType = "" },
		"missing dimensions": func(in *CreateInput) { in.Dimensions = "" },
		"short phone":        func(in *CreateInput) { in.CustomerPhone = "555-1234" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			in := validInput()
			mutate(&in)
			_, err := svc.Create(context.Background(), in)
			if !errors.Is(err, apperr.ErrValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
	if all, _ := repo.List(context.Background(), 0); len(all) != 0 {
		t.Fatalf("invalid input must not be stored")
	}
}

func TestCreate_DuplicateNumberIsConflict(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	fixed := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	svc.clock = func() time.Time { return fixed }

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	_, err := svc.Create(context.Background(), validInput())
	if !errors.Is(err, apperr.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestUpdateStatus_WritesHistoryAndNotifies(t *testing.T) {
	svc, repo, n, act := newTestService(t)
	o, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	res, err := svc.UpdateStatus(context.Background(), o.OrderNumber, StatusCutting, "mat cut to 10x13")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Change.OldStatus != StatusReceived || res.Change.NewStatus != StatusCutting {
		t.Fatalf("unexpected change: %+v", res.Change)
	}
	if res.Order.InternalNotes != "mat cut to 10x13" {
		t.Fatalf("expected note stored, got %q", res.Order.InternalNotes)
	}
	if repo.HistoryLen() != 1 {
		t.Fatalf("expected one history row, got %d", repo.HistoryLen())
	}
	if len(n.calls) != 2 || n.calls[1] != NotifyStatusChanged || n.last.Status != StatusCutting {
		t.Fatalf("unexpected notifications: %v", n.calls)
	}
	if len(act.changed) != 1 || act.changed[0] != o.OrderNumber+":received->cutting" {
		t.Fatalf("unexpected activity: %v", act.changed)
	}

	hist, err := svc.History(context.Background(), o.OrderNumber)
	if err != nil || len(hist) != 1 {
		t.Fatalf("expected history, got %v %v", hist, err)
	}
}

func TestUpdateStatus_InvalidStatusLeavesOrderUnchanged(t *testing.T) {
	svc, repo, n, _ := newTestService(t)
	o, err := svc.Create(context.Background(), validInput())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	_, err = svc.UpdateStatus(context.Background(), o.OrderNumber, Status("shipped"), "")
	if !errors.Is(err, ErrInvalidStatus) || !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected invalid status, got %v", err)
	}
	got, _ := svc.Get(context.Background(), o.OrderNumber)
	if got.Status != StatusReceived || repo.HistoryLen() != 0 {
		t.Fatalf("order must be unchanged")
	}
	if len(n.calls) != 1 {
		t.Fatalf("no notification for rejected update, got %v", n.calls)
	}
}

func TestUpdateStatus_UnknownOrderWritesNothing(t *testing.T) {
	svc, repo, n, act := newTestService(t)

	_, err := svc.UpdateStatus(context.Background(), "JF404", StatusReady, "")
	if !errors.Is(err, apperr.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if repo.HistoryLen() != 0 || len(n.calls) != 0 || len(act.changed) != 0 {
		t.Fatalf("unknown order must not write history or notify")
	}
}

func TestUpdateStatus_TerminalIsOnlyALabel(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	o, _ := svc.Create(context.Background(), validInput())

	if _, err := svc.UpdateStatus(context.Background(), o.OrderNumber, StatusCancelled, ""); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if _, err := svc.UpdateStatus(context.Background(), o.OrderNumber, StatusReceived, "reopened"); err != nil {
		t.Fatalf("expected transition out of cancelled to be allowed, got %v", err)
	}
}

func TestActivityFailureDoesNotFailCreate(t *testing.T) {
	svc, _, _, act := newTestService(t)
	act.err = errors.New("feed down")

	if _, err := svc.Create(context.Background(), validInput()); err != nil {
		t.Fatalf("activity failure must not surface, got %v", err)
	}
}

func TestGetPublicHidesInternalFields(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	o, _ := svc.Create(context.Background(), validInput())
	if _, err := svc.UpdateStatus(context.Background(), o.OrderNumber, StatusReady, "customer was rude"); err != nil {
		t.Fatalf("unexpected err: %v", err)
	}

	pub, err := svc.GetPublic(context.Background(), " "+o.OrderNumber+" ")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if pub.Status != StatusReady || pub.StatusLabel != "Ready for pickup" {
		t.Fatalf("unexpected projection: %+v", pub)
	}

	if _, err := svc.GetPublic(context.Background(), "JF1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestLookupByText(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	o, _ := svc.Create(context.Background(), validInput())

	pub, err := svc.LookupByText(context.Background(), "status of "+o.OrderNumber+" please")
	if err != nil || pub.OrderNumber != o.OrderNumber {
		t.Fatalf("expected lookup to succeed, got %+v %v", pub, err)
	}
	if _, err := svc.LookupByText(context.Background(), "hello"); !errors.Is(err, apperr.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	first, _ := svc.Create(context.Background(), validInput())
	second, _ := svc.Create(context.Background(), validInput())

	got, err := svc.List(context.Background(), 0)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(got) != 2 || got[0].OrderNumber != second.OrderNumber || got[1].OrderNumber != first.OrderNumber {
		t.Fatalf("unexpected order: %+v", got)
	}

	counts, _ := svc.CountByStatus(context.Background())
	if counts[StatusReceived] != 2 {
		t.Fatalf("unexpected counts: %v", counts)
	}
}

func TestFindOrderNumber(t *testing.T) {
	if n, ok := FindOrderNumber("where is jf1700000000000?"); !ok || n != "JF1700000000000" {
		t.Fatalf("unexpected %q %v", n, ok)
	}
	if _, ok := FindOrderNumber("JFK airport"); ok {
		t.Fatalf("expected no match")
	}
}
