package session

import (
	"context"
	"sync"
	"time"

	apperrors "github.com/saferunner/saferunner/internal/errors"
	"github.com/saferunner/saferunner/internal/logging"
	"github.com/saferunner/saferunner/internal/timer"
	"github.com/saferunner/saferunner/internal/timeutil"
)

// Tracker is the keyed store of live sessions. All mutations for a given
// owner are serialized by the tracker's lock; the deadline callback also
// takes it, which is what makes the extend/resolve versus just-fired race
// resolve cleanly (see onDeadlineElapsed).
type Tracker struct {
	alerter Alerter
	timers  *timer.Service[DeadlinePayload]
	now     func() time.Time

	mu       sync.Mutex
	sessions map[int64]*entry

	// onChange, when set, is called after every mutation so the caller
	// can persist a fresh snapshot.
	onChange func()
}

type entry struct {
	rec    Record
	handle *timer.Handle[DeadlinePayload]
}

// Option configures a Tracker.
type Option func(*Tracker)

// WithClock overrides the time source. Tests use this to pin "now".
func WithClock(now func() time.Time) Option {
	return func(t *Tracker) { t.now = now }
}

// WithOnChange registers a hook called after every mutating operation.
func WithOnChange(fn func()) Option {
	return func(t *Tracker) { t.onChange = fn }
}

// NewTracker creates a tracker that alerts through alerter when a
// deadline elapses unresolved.
func NewTracker(alerter Alerter, opts ...Option) *Tracker {
	t := &Tracker{
		alerter:  alerter,
		now:      time.Now,
		sessions: make(map[int64]*entry),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.timers = timer.New(t.onDeadlineElapsed)
	return t
}

// Stop cancels all pending deadline timers and waits for in-flight
// callbacks. Sessions themselves are left intact for export.
func (t *Tracker) Stop() {
	t.timers.Stop()
}

// Begin starts a fresh session for owner, discarding any previous one.
// A live timer from the previous session is cancelled first; cancelling
// an already-fired or already-cancelled timer is a no-op.
func (t *Tracker) Begin(owner int64) {
	t.mu.Lock()
	if prev := t.sessions[owner]; prev != nil && prev.handle != nil {
		t.timers.Cancel(prev.handle)
	}
	t.sessions[owner] = &entry{rec: Record{State: StateAwaitingLocation}}
	t.mu.Unlock()
	t.changed()
}

// SubmitLocation records the session's starting location and moves on to
// deadline collection.
func (t *Tracker) SubmitLocation(owner int64, loc Location) error {
	if !loc.IsSet() {
		return apperrors.ErrEmptyLocation
	}

	t.mu.Lock()
	e := t.sessions[owner]
	if e == nil {
		t.mu.Unlock()
		return apperrors.ErrNoActiveSession
	}
	if e.rec.State != StateAwaitingLocation {
		t.mu.Unlock()
		return apperrors.ErrWrongState
	}
	e.rec.Location = loc
	e.rec.State = StateAwaitingDeadline
	t.mu.Unlock()
	t.changed()
	return nil
}

// SubmitDeadline arms the session: schedules the deadline callback and
// stores its handle. The scheduling delay is clamped to a positive floor
// so a deadline in the past still fires instead of being dropped. On
// scheduler failure the session stays in deadline collection and the
// error is surfaced to the caller.
func (t *Tracker) SubmitDeadline(owner int64, deadline time.Time) error {
	deadline = timeutil.ToUTC(deadline)

	t.mu.Lock()
	e := t.sessions[owner]
	if e == nil {
		t.mu.Unlock()
		return apperrors.ErrNoActiveSession
	}
	if e.rec.State != StateAwaitingDeadline {
		t.mu.Unlock()
		return apperrors.ErrWrongState
	}

	delay := timeutil.DelayUntil(t.now(), deadline)
	h, err := t.timers.Schedule(delay, DeadlinePayload{
		OwnerID:  owner,
		Location: e.rec.Location,
		Deadline: deadline,
	})
	if err != nil {
		t.mu.Unlock()
		return err
	}

	e.handle = h
	e.rec.Deadline = deadline
	e.rec.State = StateArmed
	t.mu.Unlock()
	t.changed()
	return nil
}

// Extend moves an armed session's deadline by delta and re-arms the
// timer: the old handle is cancelled before the new one is installed. If
// the old timer already fired, the extend has lost the race: the fan-out
// in flight completes normally and ErrNoActiveSession is returned.
func (t *Tracker) Extend(owner int64, delta time.Duration) (time.Time, error) {
	t.mu.Lock()
	e := t.sessions[owner]
	if e == nil || e.rec.State != StateArmed || e.handle == nil {
		t.mu.Unlock()
		return time.Time{}, apperrors.ErrNoActiveSession
	}

	if !t.timers.Cancel(e.handle) {
		// Fired an instant ago; onDeadlineElapsed is waiting on the lock
		// and will clear this session.
		t.mu.Unlock()
		return time.Time{}, apperrors.ErrNoActiveSession
	}

	newDeadline := e.rec.Deadline.Add(delta)
	delay := timeutil.DelayUntil(t.now(), newDeadline)
	h, err := t.timers.Schedule(delay, DeadlinePayload{
		OwnerID:  owner,
		Location: e.rec.Location,
		Deadline: newDeadline,
	})
	if err != nil {
		// Old timer is gone and no new one could be armed: drop back to
		// deadline collection rather than pretending to be armed.
		e.handle = nil
		e.rec.State = StateAwaitingDeadline
		t.mu.Unlock()
		t.changed()
		return time.Time{}, err
	}

	e.handle = h
	e.rec.Deadline = newDeadline
	t.mu.Unlock()
	t.changed()
	return newDeadline, nil
}

// UpdateLocation replaces the session's location in both the record and
// the live timer payload, so a callback scheduled earlier still reports
// the latest position. With no session this is a benign no-op; the
// return value reports whether anything was updated.
func (t *Tracker) UpdateLocation(owner int64, loc Location) bool {
	if !loc.IsSet() {
		return false
	}

	t.mu.Lock()
	e := t.sessions[owner]
	if e == nil {
		t.mu.Unlock()
		return false
	}
	e.rec.Location = loc
	if e.handle != nil {
		e.handle.Update(func(p *DeadlinePayload) { p.Location = loc })
	}
	t.mu.Unlock()
	t.changed()
	return true
}

// Resolve ends a session by explicit completion or cancellation: the
// timer is cancelled and the session discarded, no alert in either case.
// Resolving twice (or with nothing live) is a no-op; the return value
// reports whether a session was actually discarded.
func (t *Tracker) Resolve(owner int64, _ Outcome) bool {
	t.mu.Lock()
	e := t.sessions[owner]
	if e == nil {
		t.mu.Unlock()
		return false
	}
	if e.handle != nil {
		t.timers.Cancel(e.handle)
	}
	delete(t.sessions, owner)
	t.mu.Unlock()
	t.changed()
	return true
}

// State returns the owner's current lifecycle position.
func (t *Tracker) State(owner int64) State {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.sessions[owner]; e != nil {
		return e.rec.State
	}
	return StateNone
}

// Get returns a copy of the owner's session record.
func (t *Tracker) Get(owner int64) (Record, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e := t.sessions[owner]; e != nil {
		return e.rec, true
	}
	return Record{}, false
}

// ActiveCount returns the number of live sessions in any state.
func (t *Tracker) ActiveCount() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

// Export returns persistable copies of all session records.
func (t *Tracker) Export() map[int64]Record {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make(map[int64]Record, len(t.sessions))
	for owner, e := range t.sessions {
		out[owner] = e.rec
	}
	return out
}

// Restore installs persisted records. Armed sessions whose deadline is
// still ahead are re-armed; armed sessions whose deadline passed while
// the process was down degrade to no session rather than alerting late.
func (t *Tracker) Restore(records map[int64]Record) {
	now := t.now()

	t.mu.Lock()
	defer t.mu.Unlock()
	for owner, rec := range records {
		switch rec.State {
		case StateAwaitingLocation, StateAwaitingDeadline:
			t.sessions[owner] = &entry{rec: rec}
		case StateArmed:
			if !rec.Deadline.After(now) {
				logging.Warn("dropping expired armed session on restore",
					logging.Int64("owner", owner))
				continue
			}
			h, err := t.timers.Schedule(rec.Deadline.Sub(now), DeadlinePayload{
				OwnerID:  owner,
				Location: rec.Location,
				Deadline: rec.Deadline,
			})
			if err != nil {
				logging.Warn("could not re-arm restored session",
					logging.Int64("owner", owner), logging.Err(err))
				continue
			}
			t.sessions[owner] = &entry{rec: rec, handle: h}
		default:
			// Anything else in the snapshot is corrupt; treat as no
			// active session.
			logging.Warn("ignoring corrupted session record",
				logging.Int64("owner", owner))
		}
	}
}

// onDeadlineElapsed runs on the timer goroutine when a deadline fires
// without having been cancelled. The fired handle is compared against
// the one the session currently holds: if the session was resolved or
// replaced in the race window, the callback is a no-op, so an owner who
// pressed Complete a beat after the deadline is not alerted on. An
// extend that lost the same race leaves the handle in place, so the
// fan-out proceeds with the pre-extend payload.
func (t *Tracker) onDeadlineElapsed(h *timer.Handle[DeadlinePayload], p DeadlinePayload) {
	t.mu.Lock()
	e := t.sessions[p.OwnerID]
	if e == nil || e.handle != h {
		t.mu.Unlock()
		logging.Debug("stale deadline callback suppressed",
			logging.Int64("owner", p.OwnerID))
		return
	}
	delete(t.sessions, p.OwnerID)
	t.mu.Unlock()
	t.changed()

	logging.Info("deadline elapsed without completion",
		logging.Int64("owner", p.OwnerID))
	if t.alerter != nil {
		t.alerter.DeadlineMissed(context.Background(), p)
	}
}

func (t *Tracker) changed() {
	if t.onChange != nil {
		t.onChange()
	}
}
