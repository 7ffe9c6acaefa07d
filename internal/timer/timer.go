// Package timer provides one-shot deadline callbacks with idempotent
// cancellation and mutable payload cells.
package timer

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

// Handle references one scheduled callback. The payload it carries is a
// mutable cell: callers may update it after scheduling, and the fired
// callback reads whatever the cell holds at fire time. The cancelled flag
// is compare-and-set exactly once, by either Cancel or the firing path,
// so a callback never runs for a cancelled handle and never runs twice.
type Handle[P any] struct {
	id uuid.UUID

	mu      sync.Mutex
	payload P

	done  atomic.Bool
	timer *time.Timer
}

// ID returns the handle's identifier.
func (h *Handle[P]) ID() uuid.UUID {
	return h.id
}

// Update mutates the payload cell under the handle's lock.
func (h *Handle[P]) Update(fn func(*P)) {
	if h == nil || fn == nil {
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	fn(&h.payload)
}

// Payload returns a copy of the current payload cell.
func (h *Handle[P]) Payload() P {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.payload
}

// Service schedules one-shot callbacks on its own execution context.
type Service[P any] struct {
	fire func(*Handle[P], P)

	mu      sync.Mutex
	pending map[uuid.UUID]*Handle[P]
	stopped bool
	wg      sync.WaitGroup
}

// New creates a timer service. fire is invoked once per elapsed,
// uncancelled handle, on a goroutine owned by the service. The fired
// handle is passed along so callers can tell a stale callback from the
// one their state currently references.
func New[P any](fire func(*Handle[P], P)) *Service[P] {
	return &Service[P]{
		fire:    fire,
		pending: make(map[uuid.UUID]*Handle[P]),
	}
}

// Schedule arms a one-shot callback after delay carrying payload.
// Returns apperrors.ErrSchedulerUnavailable once the service is stopped.
func (s *Service[P]) Schedule(delay time.Duration, payload P) (*Handle[P], error) {
	if s == nil {
		return nil, apperrors.ErrSchedulerUnavailable
	}
	if delay < 0 {
		delay = 0
	}

	h := &Handle[P]{
		id:      uuid.New(),
		payload: payload,
	}

	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return nil, apperrors.ErrSchedulerUnavailable
	}
	s.pending[h.id] = h
	s.wg.Add(1)
	h.timer = time.AfterFunc(delay, func() { s.fired(h) })
	s.mu.Unlock()

	return h, nil
}

// Cancel stops a scheduled callback. It reports whether the cancellation
// won: false means the handle was nil, already cancelled, or its callback
// already fired (or is in flight). Cancelling in any of those states is a
// no-op, not an error.
func (s *Service[P]) Cancel(h *Handle[P]) bool {
	if s == nil || h == nil {
		return false
	}
	if !h.done.CompareAndSwap(false, true) {
		return false
	}

	h.timer.Stop()
	s.forget(h)
	s.wg.Done()
	return true
}

// Pending returns the number of live handles. Used by status reporting
// and tests.
func (s *Service[P]) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.pending)
}

// Stop cancels all pending handles and waits for in-flight callbacks to
// return. Further Schedule calls fail.
func (s *Service[P]) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	live := make([]*Handle[P], 0, len(s.pending))
	for _, h := range s.pending {
		live = append(live, h)
	}
	s.mu.Unlock()

	for _, h := range live {
		s.Cancel(h)
	}
	s.wg.Wait()
}

// fired runs on the timer goroutine when a delay elapses.
func (s *Service[P]) fired(h *Handle[P]) {
	// Lose the race against Cancel exactly once.
	if !h.done.CompareAndSwap(false, true) {
		return
	}
	defer s.wg.Done()

	payload := h.Payload()
	s.forget(h)

	if s.fire != nil {
		s.fire(h, payload)
	}
}

func (s *Service[P]) forget(h *Handle[P]) {
	s.mu.Lock()
	delete(s.pending, h.id)
	s.mu.Unlock()
}
