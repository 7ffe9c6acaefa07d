// Package timeutil handles deadline time parsing and timezone conversion.
package timeutil

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	apperrors "github.com/saferunner/saferunner/internal/errors"
)

// ParseHHMM parses a strict 24-hour "HH:MM" string. Both fields must be
// unsigned digits; Atoi alone would let "+1:30" through. Returns
// apperrors.ErrInvalidTime for anything outside 00:00-23:59.
func ParseHHMM(s string) (hour, minute int, err error) {
	parts := strings.SplitN(strings.TrimSpace(s), ":", 2)
	if len(parts) != 2 {
		return 0, 0, apperrors.ErrInvalidTime
	}

	hour, err = parseDigits(parts[0])
	if err != nil {
		return 0, 0, apperrors.ErrInvalidTime
	}
	minute, err = parseDigits(parts[1])
	if err != nil {
		return 0, 0, apperrors.ErrInvalidTime
	}

	if hour > 23 || minute > 59 {
		return 0, 0, apperrors.ErrInvalidTime
	}
	return hour, minute, nil
}

func parseDigits(s string) (int, error) {
	if s == "" {
		return 0, apperrors.ErrInvalidTime
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, apperrors.ErrInvalidTime
		}
	}
	return strconv.Atoi(s)
}

// NextOccurrence returns the next wall-clock occurrence of HH:MM in loc,
// relative to now: today if the time has not passed yet, otherwise tomorrow.
// The result is always strictly after now.
func NextOccurrence(now time.Time, hour, minute int, loc *time.Location) time.Time {
	local := now.In(loc)
	candidate := time.Date(local.Year(), local.Month(), local.Day(), hour, minute, 0, 0, loc)
	if !candidate.After(local) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

// LoadZone resolves an IANA timezone name, falling back with
// apperrors.ErrUnknownTimezone when the name is not in the zone database.
func LoadZone(name string) (*time.Location, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.ErrUnknownTimezone
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", apperrors.ErrUnknownTimezone, name)
	}
	return loc, nil
}

// IsValidZone reports whether name resolves against the IANA zone database.
func IsValidZone(name string) bool {
	_, err := LoadZone(name)
	return err == nil
}

// ToUTC normalizes an instant to the canonical internal representation.
func ToUTC(t time.Time) time.Time {
	return t.UTC()
}

// DelayUntil computes the scheduling delay for a deadline, clamped to a
// minimum positive floor so a timer is never armed in the past or at zero.
func DelayUntil(now, deadline time.Time) time.Duration {
	delay := deadline.Sub(now)
	if delay < time.Second {
		delay = time.Second
	}
	return delay
}

// FormatLocal renders a deadline instant in the user's zone for display.
func FormatLocal(t time.Time, loc *time.Location) string {
	return t.In(loc).Format("2006-01-02 15:04 (MST)")
}
