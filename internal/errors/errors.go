// Package errors provides sentinel errors for the saferunner application.
package errors

import "errors"

// Configuration errors
var (
	// ErrNotInitialized is returned when saferunner has not been initialized.
	ErrNotInitialized = errors.New("saferunner not initialized")

	// ErrMissingToken is returned when no bot token is configured.
	ErrMissingToken = errors.New("bot token not configured")
)

// Session errors
var (
	// ErrNoActiveSession is returned when an operation requires an armed session.
	ErrNoActiveSession = errors.New("no active session")

	// ErrSessionCorrupted is returned when a persisted session cannot be decoded.
	// Callers treat this the same as ErrNoActiveSession.
	ErrSessionCorrupted = errors.New("session state corrupted")

	// ErrEmptyLocation is returned when a blank free-text location is submitted.
	ErrEmptyLocation = errors.New("location must not be empty")

	// ErrWrongState is returned when an input arrives in a state that cannot
	// accept it (e.g. a deadline before a location).
	ErrWrongState = errors.New("operation not valid in current session state")
)

// Time errors
var (
	// ErrInvalidTime is returned when an HH:MM string cannot be parsed.
	ErrInvalidTime = errors.New("invalid time, expected 24-hour HH:MM")

	// ErrUnknownTimezone is returned when an IANA timezone name is not recognized.
	ErrUnknownTimezone = errors.New("unrecognized timezone")
)

// Scheduling errors
var (
	// ErrSchedulerUnavailable is returned when the timer service is stopped or
	// absent. This is a deployment problem, not a per-request one.
	ErrSchedulerUnavailable = errors.New("timer service unavailable")
)

// Link errors
var (
	// ErrInvalidLink is returned when a deep-link parameter cannot be parsed.
	ErrInvalidLink = errors.New("invalid link parameter")

	// ErrBundleTooLarge is returned when a bundle link carries too many ids.
	ErrBundleTooLarge = errors.New("bundle link exceeds maximum contacts")
)
