package domain

import "errors"

// Parse failures. ErrPastTime refines ErrPastDate for the case where the
// date is today but the time of day has already passed; the user-facing
// remediation differs.
var (
	ErrUnrecognized      = errors.New("date/time not recognized")
	ErrInvalidComponents = errors.New("date/time components out of range")
	ErrPastDate          = errors.New("date is in the past")
	ErrPastTime          = errors.New("time of day is in the past")
)

// Transition failures.
var (
	ErrEventNotFound       = errors.New("event not found")
	ErrInvalidTransition   = errors.New("invalid event transition")
	ErrSnoozeLimitExceeded = errors.New("snooze limit exceeded")
)

// IsPast reports whether err is either past-date flavor.
func IsPast(err error) bool {
	return errors.Is(err, ErrPastDate) || errors.Is(err, ErrPastTime)
}
