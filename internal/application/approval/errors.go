package approval

import (
	"errors"
	"fmt"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

var (
	// ErrNotPermitted means the actor may not perform the action in the current state
	ErrNotPermitted = errors.New("action not permitted")

	// ErrReasonRequired means a reject or cancel came without a reason
	ErrReasonRequired = fmt.Errorf("%w: reason is required", entity.ErrInvalidInput)
)
