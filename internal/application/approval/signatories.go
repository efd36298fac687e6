package approval

import (
	"strings"
	"time"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Signatory is who signed off one step of an approved document
type Signatory struct {
	Slot       Slot
	UID        string
	Name       string
	SuperAdmin bool
	SignedAt   time.Time
}

const (
	approvedPrefix   = "Disetujui oleh "
	substitutePrefix = "Disetujui oleh Super Admin (Pengganti "
)

// Signatories resolves the approvers of each step from the status history.
// Substituted steps are signed "Super Admin". The result is ordered
// Validator, Reviewer 1, Reviewer 2 and skips steps nobody approved.
func Signatories(history []entity.StatusEntry) []Signatory {
	bySlot := make(map[Slot]Signatory, 3)

	for _, entry := range history {
		var (
			slot       Slot
			superAdmin bool
		)
		switch {
		case strings.HasPrefix(entry.Status, substitutePrefix):
			slot = Slot(strings.TrimSuffix(strings.TrimPrefix(entry.Status, substitutePrefix), ")"))
			superAdmin = true
		case strings.HasPrefix(entry.Status, approvedPrefix):
			slot = Slot(strings.TrimPrefix(entry.Status, approvedPrefix))
		default:
			continue
		}

		sig := Signatory{
			UID:        entry.Actor,
			Name:       entry.ActorName,
			SuperAdmin: superAdmin,
			SignedAt:   entry.Timestamp,
		}
		if superAdmin {
			sig.Name = string(entity.RoleSuperAdmin)
		}

		if slot == SlotReviewer1Validator {
			sig.Slot = SlotValidator
			bySlot[SlotValidator] = sig
			sig.Slot = SlotReviewer1
			bySlot[SlotReviewer1] = sig
			continue
		}
		sig.Slot = slot
		bySlot[slot] = sig
	}

	out := make([]Signatory, 0, len(bySlot))
	for _, slot := range []Slot{SlotValidator, SlotReviewer1, SlotReviewer2} {
		if sig, ok := bySlot[slot]; ok {
			out = append(out, sig)
		}
	}
	return out
}
