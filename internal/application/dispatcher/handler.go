package dispatcher

import (
	"context"

	"github.com/garyjia/expense-approval/internal/domain/event"
)

// Handler reacts to a submission event
type Handler func(ctx context.Context, evt *event.Event) error

type subscriber struct {
	name   string
	handle Handler
}
