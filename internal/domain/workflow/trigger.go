package workflow

import "fmt"

// Trigger represents an actor action that can cause a state transition
type Trigger string

const (
	TriggerApprove Trigger = "approve"
	TriggerReject  Trigger = "reject"
	TriggerCancel  Trigger = "cancel"
)

// String returns the string representation of the trigger
func (t Trigger) String() string {
	return string(t)
}

// ParseTrigger converts an action name into a Trigger
func ParseTrigger(s string) (Trigger, error) {
	switch t := Trigger(s); t {
	case TriggerApprove, TriggerReject, TriggerCancel:
		return t, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, s)
	}
}
