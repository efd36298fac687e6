package workflow

import "errors"

var (
	// ErrInvalidTransition means the current state has no transition for the trigger
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrInvalidState means a status string is not one of the lifecycle states
	ErrInvalidState = errors.New("invalid state")

	// ErrGuardFailed means transitions exist for the trigger but every guard rejected the actor
	ErrGuardFailed = errors.New("guard condition failed")

	// ErrUnknownAction means an action name maps to no trigger
	ErrUnknownAction = errors.New("unknown action")
)
