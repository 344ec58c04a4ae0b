package workflow

import "errors"

var (
	// ErrInvalidTransition is returned when a trigger is not permitted in the current step
	ErrInvalidTransition = errors.New("invalid step transition")

	// ErrGuardFailed is returned when every guarded transition for a trigger refused
	ErrGuardFailed = errors.New("guard condition failed")
)
