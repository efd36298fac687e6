// Package event carries submission lifecycle notifications between services.
package event

import (
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/domain/entity"
)

// Type names a lifecycle event
type Type string

const (
	TypeSubmitted     Type = "submission.submitted"
	TypeStatusChanged Type = "submission.status_changed"
	TypeDraftSaved    Type = "draft.saved"
)

func (t Type) String() string {
	return string(t)
}

// Known reports whether t is one of the declared types
func (t Type) Known() bool {
	switch t {
	case TypeSubmitted, TypeStatusChanged, TypeDraftSaved:
		return true
	}
	return false
}

// Event is one thing that happened to a submission or draft
type Event struct {
	ID           string            `json:"id"`
	Type         Type              `json:"type"`
	SubmissionID string            `json:"submissionId,omitempty"`
	DocType      entity.DocType    `json:"docType,omitempty"`
	DisplayID    string            `json:"displayId,omitempty"`
	OccurredAt   time.Time         `json:"occurredAt"`
	Attrs        map[string]string `json:"attrs"`

	// Submission is a copy of the document right after the change
	Submission *entity.Submission `json:"-"`
}

// NewEvent creates an event with a fresh id
func NewEvent(eventType Type, attrs map[string]string) *Event {
	if attrs == nil {
		attrs = map[string]string{}
	}
	return &Event{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now(),
		Attrs:      attrs,
	}
}

// ForSubmission creates an event about sub. Handlers run later on other
// goroutines, so the event holds a deep copy.
func ForSubmission(eventType Type, sub *entity.Submission, attrs map[string]string) *Event {
	evt := NewEvent(eventType, attrs)
	evt.SubmissionID = sub.ID
	evt.DocType = sub.DocType
	evt.DisplayID = sub.DisplayID
	evt.Submission = sub.Clone()
	return evt
}

// Attr returns an attribute or "" when unset
func (e *Event) Attr(key string) string {
	return e.Attrs[key]
}
