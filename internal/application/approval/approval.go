// Package approval decides and applies approval chain transitions.
//
// Every document type shares one chain: Diajukan, Divalidasi, Diproses,
// Disetujui, with Ditolak and Dibatalkan as side exits. A Policy switches the
// validation step on or off. Decide is pure; persisting the result is the
// caller's job and must be a conditional write on (id, status, version).
package approval

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

const superAdminTagPrefix = "sa:"

// Decision is the outcome of a permitted action
type Decision struct {
	Trigger workflow.Trigger
	From    workflow.State
	To      workflow.State
	// Slot is the step the actor acted for
	Slot Slot
	// SuperAdmin is set when a Super Admin stood in for Slot
	SuperAdmin bool
	Label      string
	Reason     string
	Actor      Actor
}

// Engine evaluates actions against per document type policies
type Engine struct {
	policies Policies
}

// NewEngine creates an engine; nil policies means DefaultPolicies
func NewEngine(policies Policies) *Engine {
	if policies == nil {
		policies = DefaultPolicies()
	}
	return &Engine{policies: policies}
}

// Policy returns the policy in force for a document type
func (e *Engine) Policy(docType entity.DocType) Policy {
	return e.policies.For(docType)
}

// Decide works out what the action would do. Nothing is modified.
func (e *Engine) Decide(ctx context.Context, sub *entity.Submission, actor Actor, trigger workflow.Trigger, reason string) (Decision, error) {
	if !sub.Status.IsValid() {
		return Decision{}, fmt.Errorf("%w: %q", workflow.ErrInvalidState, sub.Status)
	}

	m := buildMachine(e.policies.For(sub.DocType), membershipOf(sub, actor), sub.Status)
	fired, err := m.Fire(ctx, trigger)
	if err != nil {
		if errors.Is(err, workflow.ErrInvalidTransition) || errors.Is(err, workflow.ErrGuardFailed) {
			return Decision{}, fmt.Errorf("%w: %s on %s document as %s", ErrNotPermitted, trigger, sub.Status, describe(actor))
		}
		return Decision{}, err
	}

	reason = strings.TrimSpace(reason)
	if trigger != workflow.TriggerApprove && reason == "" {
		return Decision{}, ErrReasonRequired
	}

	slot, superAdmin := parseTag(fired.Tag)
	d := Decision{
		Trigger:    trigger,
		From:       fired.From,
		To:         fired.To,
		Slot:       slot,
		SuperAdmin: superAdmin,
		Reason:     reason,
		Actor:      actor,
	}
	d.Label = label(d)
	return d, nil
}

// AvailableActions lists the triggers the actor may fire on the submission
func (e *Engine) AvailableActions(ctx context.Context, sub *entity.Submission, actor Actor) []workflow.Trigger {
	if !sub.Status.IsValid() || sub.Status.IsTerminal() {
		return []workflow.Trigger{}
	}
	m := buildMachine(e.policies.For(sub.DocType), membershipOf(sub, actor), sub.Status)
	return m.PermittedTriggers(ctx)
}

// AwaitsAction reports whether the actor has an approve or reject pending on the submission
func (e *Engine) AwaitsAction(ctx context.Context, sub *entity.Submission, actor Actor) bool {
	for _, t := range e.AvailableActions(ctx, sub, actor) {
		if t == workflow.TriggerApprove || t == workflow.TriggerReject {
			return true
		}
	}
	return false
}

// Apply writes a decision onto the submission and appends one history entry.
// The version is left for the store to bump.
func Apply(sub *entity.Submission, d Decision, now time.Time) {
	sub.Status = d.To

	switch d.Trigger {
	case workflow.TriggerApprove:
		switch d.Slot {
		case SlotValidator:
			sub.ApprovedByValidator = true
		case SlotReviewer1Validator:
			sub.ApprovedByValidator = true
			sub.ApprovedByReviewer1Status = true
		case SlotReviewer1:
			sub.ApprovedByReviewer1Status = true
		case SlotReviewer2:
			sub.ApprovedByReviewer2Status = true
		}
	case workflow.TriggerReject:
		sub.RejectReason = d.Reason
	case workflow.TriggerCancel:
		sub.CancelReason = d.Reason
	}

	sub.StatusHistory = append(sub.StatusHistory, entity.StatusEntry{
		Status:    d.Label,
		Timestamp: now,
		Actor:     d.Actor.UID,
		ActorName: d.Actor.Name,
		Reason:    d.Reason,
	})
	sub.UpdatedAt = now
}

func label(d Decision) string {
	switch d.Trigger {
	case workflow.TriggerApprove:
		if d.SuperAdmin {
			return fmt.Sprintf("Disetujui oleh Super Admin (Pengganti %s)", d.Slot)
		}
		return fmt.Sprintf("Disetujui oleh %s", d.Slot)
	case workflow.TriggerReject:
		if d.SuperAdmin {
			return "Ditolak oleh Super Admin"
		}
		return fmt.Sprintf("Ditolak oleh %s", d.Slot)
	case workflow.TriggerCancel:
		return string(workflow.StateDibatalkan)
	}
	return string(d.To)
}

func parseTag(tag string) (Slot, bool) {
	if rest, ok := strings.CutPrefix(tag, superAdminTagPrefix); ok {
		return Slot(rest), true
	}
	return Slot(tag), false
}

func describe(actor Actor) string {
	if actor.Role != "" {
		return fmt.Sprintf("%s (%s)", actor.UID, actor.Role)
	}
	return actor.UID
}
