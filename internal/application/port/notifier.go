package port

import "context"

// Message is a plain notification to one recipient
type Message struct {
	To      string
	Subject string
	Body    string
}

// Notifier delivers messages to users
type Notifier interface {
	Send(ctx context.Context, msg Message) error
}
