// Package session implements the per-user check-in session state machine.
//
// Each user has at most one live session walking the states
// NoSession -> AwaitingLocation -> AwaitingDeadline -> Armed. An armed
// session holds exactly one scheduled deadline timer; extending or
// resolving it always cancels the old handle before anything else, so two
// live timers for one session cannot exist.
package session

import (
	"context"
	"time"
)

// State is the position of a session in its lifecycle.
type State int

const (
	// StateNone means the user has no session.
	StateNone State = iota
	// StateAwaitingLocation means a session was begun and is collecting
	// the location.
	StateAwaitingLocation
	// StateAwaitingDeadline means the location is set and the deadline is
	// being collected.
	StateAwaitingDeadline
	// StateArmed means the deadline timer is scheduled.
	StateArmed
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateAwaitingLocation:
		return "awaiting-location"
	case StateAwaitingDeadline:
		return "awaiting-deadline"
	case StateArmed:
		return "armed"
	default:
		return "unknown"
	}
}

// Outcome is how the user ended an armed session. Both outcomes cancel
// the timer and discard the session without alerting anyone; the value
// only drives the acknowledgement text.
type Outcome int

const (
	// OutcomeCompleted means the user checked in as done.
	OutcomeCompleted Outcome = iota
	// OutcomeCancelled means the user abandoned the session.
	OutcomeCancelled
)

// Record is the persistable view of a session: no timer handle, just the
// lifecycle position, the last reported location, and the planned
// deadline (UTC, zero until armed).
type Record struct {
	State    State     `json:"state"`
	Location Location  `json:"location"`
	Deadline time.Time `json:"deadline,omitempty"`
}

// DeadlinePayload is the immutable-at-read snapshot a fired deadline
// callback receives. It carries everything the fan-out needs so the
// callback never has to re-read possibly-cleared session state.
type DeadlinePayload struct {
	OwnerID  int64
	Location Location
	Deadline time.Time
}

// Alerter receives the fan-out call when a deadline elapses unresolved.
type Alerter interface {
	DeadlineMissed(ctx context.Context, p DeadlinePayload)
}

// AlerterFunc adapts a function to the Alerter interface.
type AlerterFunc func(ctx context.Context, p DeadlinePayload)

// DeadlineMissed implements Alerter.
func (f AlerterFunc) DeadlineMissed(ctx context.Context, p DeadlinePayload) { f(ctx, p) }
