package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/infrastructure/storage"
)

func TestAttachmentService_Upload(t *testing.T) {
	subs := newMockSubmissionRepo()
	files := &mockFileStorage{}
	emp := newEmployee("emp-1")
	subs.put(submitted(entity.DocReimbursement, "r-1", emp))
	svc := NewAttachmentService(subs, files, fixedClock, &mockLogger{})

	sub, err := svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "kuitansi apotek.pdf", []byte("%PDF-1.4"))
	require.NoError(t, err)

	want := "Reimbursement/Medical/DOCr-1/kuitansi_apotek.pdf"
	assert.Equal(t, []string{want}, sub.Attachments)
	assert.Equal(t, []byte("%PDF-1.4"), files.files[want])
	assert.Equal(t, int64(2), subs.stored(entity.DocReimbursement, "r-1").Version)

	// same name again replaces the file, not the list entry
	sub, err = svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "kuitansi apotek.pdf", []byte("v2"))
	require.NoError(t, err)
	assert.Len(t, sub.Attachments, 1)
}

func TestAttachmentService_UploadRules(t *testing.T) {
	emp := newEmployee("emp-1")

	tests := []struct {
		name    string
		user    *entity.User
		status  workflow.State
		content []byte
		wantErr error
	}{
		{"approver but not the submitter", uReviewer1, workflow.StateDiajukan, []byte("x"), ErrForbidden},
		{"unrelated user", newEmployee("emp-9"), workflow.StateDiajukan, []byte("x"), port.ErrNotFound},
		{"empty file", emp, workflow.StateDiajukan, nil, entity.ErrInvalidInput},
		{"too large", emp, workflow.StateDiajukan, make([]byte, MaxAttachmentBytes+1), entity.ErrInvalidInput},
		{"already approved", emp, workflow.StateDisetujui, []byte("x"), entity.ErrInvalidInput},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			subs := newMockSubmissionRepo()
			sub := submitted(entity.DocReimbursement, "r-1", emp)
			sub.Status = tt.status
			subs.put(sub)
			files := &mockFileStorage{}
			svc := NewAttachmentService(subs, files, fixedClock, &mockLogger{})

			_, err := svc.Upload(context.Background(), sessionFor(tt.user), entity.DocReimbursement, "r-1", "a.pdf", tt.content)

			assert.ErrorIs(t, err, tt.wantErr)
			assert.Empty(t, files.files, "a refused upload must not leave an object behind")
		})
	}
}

func TestAttachmentService_RetriesAfterConcurrentReview(t *testing.T) {
	subs := newMockSubmissionRepo()
	emp := newEmployee("emp-1")
	subs.put(submitted(entity.DocReimbursement, "r-1", emp))
	svc := NewAttachmentService(subs, &mockFileStorage{}, fixedClock, &mockLogger{})

	calls := 0
	subs.updateFunc = func(ctx context.Context, sub *entity.Submission, status workflow.State, version int64) error {
		calls++
		if calls == 1 {
			return port.ErrConcurrentModification
		}
		return nil
	}

	_, err := svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "a.pdf", []byte("x"))

	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestAttachmentService_ApprovalSheetNameIsReserved(t *testing.T) {
	for _, status := range []workflow.State{workflow.StateDiajukan, workflow.StateDisetujui} {
		t.Run(status.String(), func(t *testing.T) {
			subs := newMockSubmissionRepo()
			emp := newEmployee("emp-1")
			sub := submitted(entity.DocReimbursement, "r-1", emp)
			sub.Status = status
			subs.put(sub)
			sheet := storage.ApprovalSheetKey(sub)
			files := &mockFileStorage{files: map[string][]byte{sheet: []byte("GENUINE")}}
			svc := NewAttachmentService(subs, files, fixedClock, &mockLogger{})

			for _, name := range []string{sub.DisplayID + "_approval.xlsx", "docr-1_APPROVAL.xlsx"} {
				_, err := svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", name, []byte("FORGED"))
				assert.ErrorIs(t, err, entity.ErrInvalidInput, name)
			}

			assert.Equal(t, map[string][]byte{sheet: []byte("GENUINE")}, files.files)
			assert.Empty(t, subs.stored(entity.DocReimbursement, "r-1").Attachments)
		})
	}
}

func TestAttachmentService_UnrecordedUploadIsRemoved(t *testing.T) {
	subs := newMockSubmissionRepo()
	emp := newEmployee("emp-1")
	subs.put(submitted(entity.DocReimbursement, "r-1", emp))
	subs.updateFunc = func(ctx context.Context, sub *entity.Submission, status workflow.State, version int64) error {
		return errors.New("database is locked")
	}
	files := &mockFileStorage{}
	svc := NewAttachmentService(subs, files, fixedClock, &mockLogger{})

	_, err := svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "a.pdf", []byte("x"))

	require.Error(t, err)
	assert.Empty(t, files.files)
}

func TestAttachmentService_ReplacedUploadSurvivesFailedRecord(t *testing.T) {
	subs := newMockSubmissionRepo()
	emp := newEmployee("emp-1")
	subs.put(submitted(entity.DocReimbursement, "r-1", emp))
	files := &mockFileStorage{}
	svc := NewAttachmentService(subs, files, fixedClock, &mockLogger{})

	sub, err := svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "a.pdf", []byte("v1"))
	require.NoError(t, err)
	key := sub.Attachments[0]

	subs.updateFunc = func(ctx context.Context, sub *entity.Submission, status workflow.State, version int64) error {
		return errors.New("database is locked")
	}
	_, err = svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "a.pdf", []byte("v2"))

	require.Error(t, err)
	assert.Contains(t, files.files, key, "a recorded attachment is never removed")
}

func TestAttachmentService_ApprovedWhileUploading(t *testing.T) {
	subs := newMockSubmissionRepo()
	emp := newEmployee("emp-1")
	subs.put(submitted(entity.DocReimbursement, "r-1", emp))
	files := &mockFileStorage{}
	svc := NewAttachmentService(subs, files, fixedClock, &mockLogger{})

	subs.updateFunc = func(ctx context.Context, sub *entity.Submission, status workflow.State, version int64) error {
		stored := subs.stored(entity.DocReimbursement, "r-1")
		stored.Status = workflow.StateDisetujui
		subs.put(stored)
		subs.updateFunc = nil
		return port.ErrConcurrentModification
	}

	_, err := svc.Upload(context.Background(), sessionFor(emp), entity.DocReimbursement, "r-1", "a.pdf", []byte("x"))

	assert.ErrorIs(t, err, entity.ErrInvalidInput)
	assert.Empty(t, files.files)
}
