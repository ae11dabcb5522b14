package phone

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"sync"
	"time"

	"framing-command-center/internal/apperr"
	"framing-command-center/internal/calls"
)

const historyRefreshTimeout = 10 * time.Second

var (
	ErrNotUsable   = apperr.Wrap(apperr.ErrUnavailable, "phone: telephony client is not ready")
	ErrCallActive  = apperr.Wrap(apperr.ErrStateConflict, "phone: a call is already active")
	ErrNoCall      = apperr.Wrap(apperr.ErrStateConflict, "phone: no active call")
	ErrNotIncoming = apperr.Wrap(apperr.ErrStateConflict, "phone: no incoming call to answer")
	ErrSuperseded  = apperr.Wrap(apperr.ErrStateConflict, "phone: call ended before it connected")
)

type Options struct {
	// Identity is the client name presented to the token endpoint.
	Identity string
	Logger   *slog.Logger
	Now      func() time.Time
}

// Adapter owns the single call session of one softphone.
//
// All state sits behind mu. Vendor calls and observer notifications are made
// without holding it, since vendor SDKs may fire events synchronously.
// Every session gets a generation number; events carrying a stale generation
// are dropped, which makes late disconnects after a local hangup a no-op.
type Adapter struct {
	client  Client
	tokens  TokenSource
	history HistorySource

	identity string
	log      *slog.Logger
	now      func() time.Time

	mu       sync.Mutex
	usable   bool
	state    State
	session  *CallSession
	lastCall *CallSession
	call     Call
	gen      uint64
	entries  []calls.LogEntry
	lastErr  error

	// historySeq numbers refresh requests; historyApplied is the newest one
	// whose result is in entries.
	historySeq     uint64
	historyApplied uint64

	observer func(Snapshot)
}

func NewAdapter(client Client, tokens TokenSource, history HistorySource, opts Options) *Adapter {
	if opts.Identity == "" {
		opts.Identity = "dashboard"
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Adapter{
		client:   client,
		tokens:   tokens,
		history:  history,
		identity: opts.Identity,
		log:      opts.Logger.With("component", "phone"),
		now:      opts.Now,
		state:    StateReady,
	}
}

// Subscribe sets the observer notified after every state change.
// There is exactly one observer: the component that owns the adapter.
func (a *Adapter) Subscribe(fn func(Snapshot)) {
	a.mu.Lock()
	a.observer = fn
	a.mu.Unlock()
}

// Init fetches an access token and registers the telephony client.
// On failure the adapter stays ready but unusable and the error is returned
// for display; nothing panics.
func (a *Adapter) Init(ctx context.Context) error {
	err := a.setup(ctx)

	a.mu.Lock()
	a.usable = err == nil
	a.lastErr = err
	a.mu.Unlock()

	if err != nil {
		a.log.Warn("telephony client unavailable", "err", err)
	} else {
		a.log.Info("telephony client ready", "identity", a.identity)
	}
	a.notify()

	if herr := a.RefreshHistory(ctx); herr != nil {
		a.log.Warn("initial call history load failed", "err", herr)
	}
	return err
}

func (a *Adapter) setup(ctx context.Context) error {
	if a.client == nil || a.tokens == nil {
		return apperr.Wrap(apperr.ErrUnavailable, "phone: telephony client not configured")
	}
	token, err := a.tokens.AccessToken(ctx, a.identity)
	if err != nil {
		return errors.Join(ErrNotUsable, err)
	}
	if token == "" {
		return errors.Join(ErrNotUsable, errors.New("empty access token"))
	}
	a.client.OnIncoming(a.handleIncoming)
	if err := a.client.Setup(ctx, token); err != nil {
		return errors.Join(ErrNotUsable, err)
	}
	return nil
}

// PlaceCall normalizes raw and dials it. It is rejected while any session exists.
func (a *Adapter) PlaceCall(ctx context.Context, raw string) (CallSession, error) {
	a.mu.Lock()
	if !a.usable {
		a.mu.Unlock()
		return CallSession{}, ErrNotUsable
	}
	if a.state != StateReady || a.session != nil {
		a.mu.Unlock()
		return CallSession{}, ErrCallActive
	}
	to, err := calls.NormalizeE164(raw)
	if err != nil {
		a.mu.Unlock()
		return CallSession{}, err
	}

	a.gen++
	gen := a.gen
	a.state = StateCalling
	a.session = &CallSession{
		RemoteAddress: to,
		Direction:     calls.DirectionOutbound,
		State:         StateCalling,
		CreatedAt:     a.now().UTC(),
	}
	a.lastErr = nil
	a.mu.Unlock()
	a.notify()

	call, err := a.client.Connect(ctx, to)
	if err != nil {
		a.log.Warn("connect failed", "to", to, "err", err)
		if a.finish(gen, err) {
			a.refreshAfterCall(ctx)
		}
		return CallSession{}, errors.Join(apperr.Wrap(apperr.ErrUnavailable, "phone: connect failed"), err)
	}

	a.mu.Lock()
	if gen != a.gen {
		// Hung up (or errored) while Connect was in flight.
		a.mu.Unlock()
		if err := call.Disconnect(); err != nil {
			a.log.Debug("disconnect of superseded call failed", "err", err)
		}
		return CallSession{}, ErrSuperseded
	}
	a.call = call
	out := *a.session.clone()
	a.mu.Unlock()

	call.OnEvent(a.eventHandler(gen))
	a.log.Info("call placed", "to", to)
	return out, nil
}

// Answer accepts the pending inbound call.
func (a *Adapter) Answer() error {
	a.mu.Lock()
	if a.state != StateIncoming || a.call == nil {
		a.mu.Unlock()
		return ErrNotIncoming
	}
	call, gen := a.call, a.gen
	a.mu.Unlock()

	if err := call.Accept(); err != nil {
		if a.finish(gen, err) {
			a.refreshAfterCall(context.Background())
		}
		return errors.Join(apperr.Wrap(apperr.ErrUnavailable, "phone: answer failed"), err)
	}
	if !a.connected(gen) {
		// The caller hung up while Accept was in flight.
		return ErrSuperseded
	}
	return nil
}

// Decline rejects the pending inbound call.
func (a *Adapter) Decline() error {
	a.mu.Lock()
	if a.state != StateIncoming || a.call == nil {
		a.mu.Unlock()
		return ErrNotIncoming
	}
	call, gen := a.call, a.gen
	a.mu.Unlock()

	ended := a.finish(gen, nil)
	if err := call.Reject(); err != nil {
		a.log.Warn("reject failed", "err", err)
	}
	if ended {
		a.refreshAfterCall(context.Background())
	}
	return nil
}

// HangUp ends whatever call is in progress. Local state is cleared to ready
// immediately, whether or not the client ever confirms the disconnect.
func (a *Adapter) HangUp(ctx context.Context) error {
	a.mu.Lock()
	if a.state == StateReady || a.session == nil {
		a.mu.Unlock()
		return ErrNoCall
	}
	call, state := a.call, a.state
	a.endLocked(nil)
	a.mu.Unlock()
	a.notify()

	if call != nil {
		var err error
		if state == StateIncoming {
			err = call.Reject()
		} else {
			err = call.Disconnect()
		}
		if err != nil {
			a.log.Warn("disconnect request failed", "err", err)
		}
	}
	a.refreshAfterCall(ctx)
	return nil
}

// ToggleMute flips the mute flag of a connected call and returns the new value.
// Outside the connected state it does nothing.
func (a *Adapter) ToggleMute() (bool, error) {
	a.mu.Lock()
	if a.state != StateConnected || a.call == nil {
		a.mu.Unlock()
		return false, nil
	}
	want := !a.session.Muted
	call, gen := a.call, a.gen
	a.mu.Unlock()

	if err := call.Mute(want); err != nil {
		return !want, errors.Join(apperr.Wrap(apperr.ErrUnavailable, "phone: mute failed"), err)
	}

	a.mu.Lock()
	if gen == a.gen && a.session != nil {
		a.session.Muted = want
	}
	a.mu.Unlock()
	a.notify()
	return want, nil
}

// RefreshHistory replaces the local call log with the backend's history.
// On failure the previous list is kept. When refreshes overlap, a response
// older than the one already applied is dropped.
func (a *Adapter) RefreshHistory(ctx context.Context) error {
	if a.history == nil {
		return nil
	}
	a.mu.Lock()
	a.historySeq++
	seq := a.historySeq
	a.mu.Unlock()

	fetched, err := a.history.CallHistory(ctx)
	if err != nil {
		return err
	}
	entries := make([]calls.LogEntry, len(fetched))
	copy(entries, fetched)
	sortMostRecentFirst(entries)

	a.mu.Lock()
	if seq < a.historyApplied {
		a.mu.Unlock()
		return nil
	}
	a.historyApplied = seq
	a.entries = entries
	a.mu.Unlock()
	a.notify()
	return nil
}

// Usable reports whether Init registered the telephony client.
func (a *Adapter) Usable() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.usable
}

// Snapshot returns a copy of the current state.
func (a *Adapter) Snapshot() Snapshot {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.snapshotLocked()
}

func (a *Adapter) snapshotLocked() Snapshot {
	s := Snapshot{
		State:    a.state,
		Usable:   a.usable,
		Session:  a.session.clone(),
		LastCall: a.lastCall.clone(),
		History:  make([]calls.LogEntry, len(a.entries)),
	}
	copy(s.History, a.entries)
	if a.lastErr != nil {
		s.LastError = a.lastErr.Error()
	}
	return s
}

func (a *Adapter) handleIncoming(call Call) {
	a.mu.Lock()
	if !a.usable || a.state != StateReady || a.session != nil {
		a.mu.Unlock()
		// One session per adapter: a second caller gets busy.
		if err := call.Reject(); err != nil {
			a.log.Debug("reject of concurrent incoming call failed", "err", err)
		}
		return
	}
	a.gen++
	gen := a.gen
	a.state = StateIncoming
	a.call = call
	a.session = &CallSession{
		RemoteAddress: call.RemoteAddress(),
		Direction:     calls.DirectionInbound,
		State:         StateIncoming,
		CreatedAt:     a.now().UTC(),
	}
	a.lastErr = nil
	a.mu.Unlock()

	call.OnEvent(a.eventHandler(gen))
	a.log.Info("incoming call", "from", call.RemoteAddress())
	a.notify()
}

func (a *Adapter) eventHandler(gen uint64) func(Event) {
	return func(ev Event) {
		switch ev.Kind {
		case EventAccept:
			a.connected(gen)
		case EventDisconnect, EventCancel:
			if a.finish(gen, nil) {
				a.refreshAfterCall(context.Background())
			}
		case EventError:
			err := ev.Err
			if err == nil {
				err = errors.New("telephony client error")
			}
			a.log.Warn("call error", "err", err)
			if a.finish(gen, err) {
				a.refreshAfterCall(context.Background())
			}
		default:
			a.log.Debug("ignoring unknown call event", "kind", ev.Kind)
		}
	}
}

// connected moves the session of generation gen to connected and reports
// whether it applied.
func (a *Adapter) connected(gen uint64) bool {
	a.mu.Lock()
	if gen != a.gen || a.session == nil {
		a.mu.Unlock()
		return false
	}
	if a.state == StateConnected {
		a.mu.Unlock()
		return true
	}
	if a.state != StateCalling && a.state != StateIncoming {
		a.mu.Unlock()
		return false
	}
	now := a.now().UTC()
	a.state = StateConnected
	a.session.State = StateConnected
	a.session.StartedAt = &now
	a.mu.Unlock()
	a.notify()
	return true
}

// finish ends the session of generation gen and reports whether it did.
func (a *Adapter) finish(gen uint64, cause error) bool {
	a.mu.Lock()
	if gen != a.gen || a.session == nil {
		a.mu.Unlock()
		return false
	}
	a.endLocked(cause)
	a.mu.Unlock()
	a.notify()
	return true
}

// endLocked passes through StateEnded and lands on ready. Callers hold mu.
func (a *Adapter) endLocked(cause error) {
	now := a.now().UTC()
	a.session.State = StateEnded
	a.session.EndedAt = &now
	a.lastCall = a.session

	a.gen++
	a.session = nil
	a.call = nil
	a.state = StateReady
	if cause != nil {
		a.lastErr = cause
	}
}

func (a *Adapter) refreshAfterCall(ctx context.Context) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), historyRefreshTimeout)
	defer cancel()
	if err := a.RefreshHistory(ctx); err != nil {
		a.log.Warn("call history refresh failed", "err", err)
	}
}

func (a *Adapter) notify() {
	a.mu.Lock()
	fn := a.observer
	var snap Snapshot
	if fn != nil {
		snap = a.snapshotLocked()
	}
	a.mu.Unlock()
	if fn != nil {
		fn(snap)
	}
}

func sortMostRecentFirst(entries []calls.LogEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		ti, tj := entries[i].StartedAt, entries[j].StartedAt
		switch {
		case ti == nil:
			return false
		case tj == nil:
			return true
		default:
			return ti.After(*tj)
		}
	})
}
