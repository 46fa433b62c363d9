package services

import "errors"

// Failure taxonomy returned by the queue services. The HTTP layer maps
// these to status codes with errors.Is; nothing here is fatal to the process.
var (
	// ErrDuplicateEntry: the appointment already has a non-terminal entry.
	ErrDuplicateEntry = errors.New("appointment already has an active queue entry")
	// ErrInvalidTransition: illegal state-machine edge.
	ErrInvalidTransition = errors.New("invalid status transition")
	// ErrConflict: lost the race for scheduled→called, or the call guard
	// (queue inactive / another patient active) rejected the transition.
	ErrConflict = errors.New("conflicting queue operation")
	// ErrInvalidSchedule: malformed working hours.
	ErrInvalidSchedule = errors.New("invalid working hours")
	// ErrNotFound: unknown entry or doctor.
	ErrNotFound = errors.New("record not found")
)
