package approval

import (
	"context"

	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

func is(ok bool) workflow.GuardFunc {
	return func(context.Context) bool { return ok }
}

func substitute(slot Slot) string {
	return superAdminTagPrefix + string(slot)
}

// buildMachine configures the chain for one actor on one submission.
// Within a trigger, human slots are registered before the Super Admin
// fallback so a human role wins when the actor holds both.
func buildMachine(p Policy, m membership, current workflow.State) workflow.StateMachine {
	b := workflow.NewBuilder()

	diajukan := b.Configure(workflow.StateDiajukan)
	if p.ValidationStep {
		diajukan.
			PermitIfAs(workflow.TriggerApprove, workflow.StateDiproses, string(SlotReviewer1Validator), is(m.validator && m.reviewer1)).
			PermitIfAs(workflow.TriggerApprove, workflow.StateDivalidasi, string(SlotValidator), is(m.validator)).
			PermitIfAs(workflow.TriggerApprove, workflow.StateDivalidasi, substitute(SlotValidator), is(m.superAdmin)).
			PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, string(SlotValidator), is(m.validator)).
			PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, substitute(SlotValidator), is(m.superAdmin))
	} else {
		diajukan.
			PermitIfAs(workflow.TriggerApprove, workflow.StateDiproses, string(SlotReviewer1), is(m.reviewer1)).
			PermitIfAs(workflow.TriggerApprove, workflow.StateDiproses, substitute(SlotReviewer1), is(m.superAdmin)).
			PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, string(SlotReviewer1), is(m.reviewer1)).
			PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, substitute(SlotReviewer1), is(m.superAdmin))
	}
	diajukan.PermitIfAs(workflow.TriggerCancel, workflow.StateDibatalkan, string(SlotSubmitter), is(m.submitter))

	b.Configure(workflow.StateDivalidasi).
		PermitIfAs(workflow.TriggerApprove, workflow.StateDiproses, string(SlotReviewer1), is(m.reviewer1)).
		PermitIfAs(workflow.TriggerApprove, workflow.StateDiproses, substitute(SlotReviewer1), is(m.superAdmin)).
		PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, string(SlotReviewer1), is(m.reviewer1)).
		PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, substitute(SlotReviewer1), is(m.superAdmin))

	b.Configure(workflow.StateDiproses).
		PermitIfAs(workflow.TriggerApprove, workflow.StateDisetujui, string(SlotReviewer2), is(m.reviewer2 && m.reviewer1Done)).
		PermitIfAs(workflow.TriggerApprove, workflow.StateDisetujui, substitute(SlotReviewer2), is(m.superAdmin && m.reviewer1Done)).
		PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, string(SlotReviewer2), is(m.reviewer2 && m.reviewer1Done)).
		PermitIfAs(workflow.TriggerReject, workflow.StateDitolak, substitute(SlotReviewer2), is(m.superAdmin && m.reviewer1Done))

	return b.Build(current)
}
