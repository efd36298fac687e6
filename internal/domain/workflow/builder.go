package workflow

import (
	"context"
	"fmt"
)

// GuardFunc evaluates whether a transition should be allowed
type GuardFunc func(ctx context.Context) bool

// StateMachineBuilder builds a configured state machine
type StateMachineBuilder interface {
	// Configure returns a state configuration for the given state
	Configure(state State) StateConfiguration

	// Build creates a new state machine instance with the given initial state
	Build(initialState State) StateMachine
}

// StateConfiguration configures transitions for a specific state.
// Transitions for one trigger are tried in registration order.
type StateConfiguration interface {
	// Permit allows a trigger to transition to the target state
	Permit(trigger Trigger, toState State) StateConfiguration

	// PermitIf allows a trigger to transition to the target state if the guard passes
	PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration

	// PermitIfAs is PermitIf with a tag reported back in the fired Transition
	PermitIfAs(trigger Trigger, toState State, tag string, guard GuardFunc) StateConfiguration
}

type transition struct {
	toState State
	tag     string
	guard   GuardFunc
}

type stateConfig struct {
	transitions map[Trigger][]transition
	order       []Trigger
}

type stateMachineBuilder struct {
	configurations map[State]*stateConfig
}

type stateMachine struct {
	currentState   State
	configurations map[State]*stateConfig
}

// NewBuilder creates a new state machine builder
func NewBuilder() StateMachineBuilder {
	return &stateMachineBuilder{
		configurations: make(map[State]*stateConfig),
	}
}

// Configure returns a state configuration for the given state
func (b *stateMachineBuilder) Configure(state State) StateConfiguration {
	if !state.IsValid() {
		panic(fmt.Sprintf("invalid state: %s", state))
	}

	config, exists := b.configurations[state]
	if !exists {
		config = &stateConfig{transitions: make(map[Trigger][]transition)}
		b.configurations[state] = config
	}

	return config
}

// Build creates a new state machine instance with the given initial state
func (b *stateMachineBuilder) Build(initialState State) StateMachine {
	if !initialState.IsValid() {
		panic(fmt.Sprintf("invalid initial state: %s", initialState))
	}

	// Copy so later Configure calls do not leak into built machines
	configsCopy := make(map[State]*stateConfig, len(b.configurations))
	for state, config := range b.configurations {
		transitionsCopy := make(map[Trigger][]transition, len(config.transitions))
		for trigger, transitions := range config.transitions {
			transitionsCopy[trigger] = append([]transition{}, transitions...)
		}
		configsCopy[state] = &stateConfig{
			transitions: transitionsCopy,
			order:       append([]Trigger{}, config.order...),
		}
	}

	return &stateMachine{
		currentState:   initialState,
		configurations: configsCopy,
	}
}

// Permit allows a trigger to transition to the target state
func (c *stateConfig) Permit(trigger Trigger, toState State) StateConfiguration {
	return c.PermitIfAs(trigger, toState, "", nil)
}

// PermitIf allows a trigger to transition to the target state if the guard passes
func (c *stateConfig) PermitIf(trigger Trigger, toState State, guard GuardFunc) StateConfiguration {
	return c.PermitIfAs(trigger, toState, "", guard)
}

// PermitIfAs allows a guarded transition and tags it
func (c *stateConfig) PermitIfAs(trigger Trigger, toState State, tag string, guard GuardFunc) StateConfiguration {
	if !toState.IsValid() {
		panic(fmt.Sprintf("invalid target state: %s", toState))
	}

	if _, seen := c.transitions[trigger]; !seen {
		c.order = append(c.order, trigger)
	}
	c.transitions[trigger] = append(c.transitions[trigger], transition{
		toState: toState,
		tag:     tag,
		guard:   guard,
	})

	return c
}

// State returns the current state
func (m *stateMachine) State() State {
	return m.currentState
}

// CanFire returns true if the trigger is configured in the current state.
// Guards are not evaluated; use PermittedTriggers for that.
func (m *stateMachine) CanFire(trigger Trigger) bool {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return false
	}
	return len(config.transitions[trigger]) > 0
}

// Fire attempts to execute the trigger, transitioning to the new state if allowed
func (m *stateMachine) Fire(ctx context.Context, trigger Trigger) (Transition, error) {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return Transition{}, fmt.Errorf("%w: cannot fire trigger %s from state %s (no configuration)", ErrInvalidTransition, trigger, m.currentState)
	}

	transitions := config.transitions[trigger]
	if len(transitions) == 0 {
		return Transition{}, fmt.Errorf("%w: cannot fire trigger %s from state %s", ErrInvalidTransition, trigger, m.currentState)
	}

	for _, t := range transitions {
		if t.guard == nil || t.guard(ctx) {
			fired := Transition{
				From:    m.currentState,
				To:      t.toState,
				Trigger: trigger,
				Tag:     t.tag,
			}
			m.currentState = t.toState
			return fired, nil
		}
	}

	return Transition{}, fmt.Errorf("%w: trigger %s from state %s", ErrGuardFailed, trigger, m.currentState)
}

// PermittedTriggers returns the triggers that would fire from the current state
func (m *stateMachine) PermittedTriggers(ctx context.Context) []Trigger {
	config, exists := m.configurations[m.currentState]
	if !exists {
		return []Trigger{}
	}

	triggers := make([]Trigger, 0, len(config.order))
	for _, trigger := range config.order {
		for _, t := range config.transitions[trigger] {
			if t.guard == nil || t.guard(ctx) {
				triggers = append(triggers, trigger)
				break
			}
		}
	}

	return triggers
}
