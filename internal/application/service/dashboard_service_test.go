package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

func TestDashboardService_Summary(t *testing.T) {
	subs := newMockSubmissionRepo()
	emp := newEmployee("emp-1")
	other := newEmployee("emp-2")

	approved := submitted(entity.DocReimbursement, "r-1", emp)
	approved.Status = workflow.StateDisetujui
	pending := submitted(entity.DocReimbursement, "r-2", emp)
	rejected := submitted(entity.DocReimbursement, "r-3", other)
	rejected.Status = workflow.StateDitolak
	lastYear := submitted(entity.DocReimbursement, "r-4", emp)
	lastYear.SubmittedAt = testNow.AddDate(-1, 0, 0)
	bs := submitted(entity.DocBonSementara, "b-1", other)
	for _, s := range []*entity.Submission{approved, pending, rejected, lastYear, bs} {
		subs.put(s)
	}

	svc := NewDashboardService(subs, time.UTC, fixedClock, &mockLogger{})

	dash, err := svc.Summary(context.Background(), sessionFor(uAdmin), DashboardFilter{})
	require.NoError(t, err)
	assert.Equal(t, 2024, dash.Year)
	assert.Equal(t, "Semua Bulan", dash.MonthLabel)
	require.Len(t, dash.Summaries, 3)

	reimb := dash.Summaries[0]
	assert.Equal(t, entity.DocReimbursement, reimb.DocType)
	assert.Equal(t, 3, reimb.Total)
	assert.Equal(t, 1, reimb.Pending)
	assert.Equal(t, 1, reimb.Counts[workflow.StateDisetujui])
	assert.Equal(t, 1, reimb.Counts[workflow.StateDitolak])
	assert.Equal(t, 0, reimb.Counts[workflow.StateDibatalkan])
	assert.Equal(t, int64(1500000), reimb.Biaya)
	assert.Equal(t, int64(500000), reimb.Approved)
	assert.Equal(t, 1, dash.Summaries[1].Total)

	mine, err := svc.Summary(context.Background(), sessionFor(emp), DashboardFilter{Year: 2024, Month: 3})
	require.NoError(t, err)
	assert.Equal(t, "Maret", mine.MonthLabel)
	assert.Equal(t, 2, mine.Summaries[0].Total)
	assert.Equal(t, 0, mine.Summaries[1].Total)

	april, err := svc.Summary(context.Background(), sessionFor(uAdmin), DashboardFilter{Year: 2024, Month: 4})
	require.NoError(t, err)
	assert.Zero(t, april.Summaries[0].Total)
}
