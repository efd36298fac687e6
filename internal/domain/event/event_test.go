package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

func TestType_Known(t *testing.T) {
	tests := []struct {
		eventType Type
		want      bool
	}{
		{TypeSubmitted, true},
		{TypeStatusChanged, true},
		{TypeDraftSaved, true},
		{Type("submission.deleted"), false},
		{Type(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.eventType.String(), func(t *testing.T) {
			assert.Equal(t, tt.want, tt.eventType.Known())
		})
	}
}

func TestNewEvent(t *testing.T) {
	a := NewEvent(TypeDraftSaved, nil)
	b := NewEvent(TypeDraftSaved, map[string]string{"uid": "u1"})

	assert.NotEmpty(t, a.ID)
	assert.NotEqual(t, a.ID, b.ID)
	assert.NotNil(t, a.Attrs)
	assert.False(t, a.OccurredAt.IsZero())
	assert.Equal(t, "u1", b.Attr("uid"))
	assert.Empty(t, b.Attr("missing"))
}

func TestForSubmission_CopiesSubmission(t *testing.T) {
	sub := &entity.Submission{
		ID:        "sub-1",
		DocType:   entity.DocReimbursement,
		DisplayID: "RMEDHO2403150001",
		Status:    workflow.StateDiajukan,
		StatusHistory: []entity.StatusEntry{
			{Status: "Diajukan", Actor: "u1"},
		},
	}

	evt := ForSubmission(TypeStatusChanged, sub, map[string]string{"new_status": "Divalidasi"})
	sub.StatusHistory[0].Actor = "mutated"

	assert.Equal(t, "sub-1", evt.SubmissionID)
	assert.Equal(t, entity.DocReimbursement, evt.DocType)
	assert.Equal(t, "RMEDHO2403150001", evt.DisplayID)
	require.NotNil(t, evt.Submission)
	assert.Equal(t, "u1", evt.Submission.StatusHistory[0].Actor, "event holds an independent copy")
	assert.Equal(t, "Divalidasi", evt.Attr("new_status"))
}
