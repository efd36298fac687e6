package workflow

import "context"

// Transition describes one fired transition
type Transition struct {
	From    State
	To      State
	Trigger Trigger
	// Tag is the label given to the transition at configuration time
	Tag string
}

// StateMachine tracks a current state and validates transitions against guards
type StateMachine interface {
	// State returns the current state
	State() State

	// CanFire returns true if any transition is configured for the trigger in the current state
	CanFire(trigger Trigger) bool

	// Fire executes the first transition whose guard passes
	Fire(ctx context.Context, trigger Trigger) (Transition, error)

	// PermittedTriggers returns triggers with at least one passing guard in the current state
	PermittedTriggers(ctx context.Context) []Trigger
}
