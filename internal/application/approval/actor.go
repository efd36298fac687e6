package approval

import (
	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Actor is the user performing an action
type Actor struct {
	UID  string
	Name string
	Role entity.Role
}

// Slot names one approval step of the chain
type Slot string

const (
	SlotValidator          Slot = "Validator"
	SlotReviewer1          Slot = "Reviewer 1"
	SlotReviewer2          Slot = "Reviewer 2"
	SlotReviewer1Validator Slot = "Reviewer 1 Sekaligus Validator"
	SlotSubmitter          Slot = "Pengaju"
)

// membership is what an actor is to a particular submission
type membership struct {
	validator     bool
	reviewer1     bool
	reviewer2     bool
	superAdmin    bool
	submitter     bool
	reviewer1Done bool
}

func membershipOf(sub *entity.Submission, actor Actor) membership {
	return membership{
		validator:     entity.Contains(sub.User.Validator, actor.UID),
		reviewer1:     entity.Contains(sub.User.Reviewer1, actor.UID),
		reviewer2:     entity.Contains(sub.User.Reviewer2, actor.UID),
		superAdmin:    actor.Role == entity.RoleSuperAdmin,
		submitter:     actor.UID != "" && actor.UID == sub.User.UID,
		reviewer1Done: sub.ApprovedByReviewer1Status,
	}
}
