package service

import (
	"context"
	"errors"
	"fmt"
	"path"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/infrastructure/storage"
	"github.com/garyjia/expense-approval/internal/session"
)

const (
	// MaxAttachmentBytes caps a single upload
	MaxAttachmentBytes = 10 << 20

	attachRetries = 3
)

// AttachmentService stores supporting files of a submission
type AttachmentService interface {
	Upload(ctx context.Context, s *session.Session, docType entity.DocType, id, filename string, content []byte) (*entity.Submission, error)
}

type attachmentServiceImpl struct {
	subs   port.SubmissionRepository
	files  port.FileStorage
	now    Clock
	logger Logger
}

// NewAttachmentService creates a new AttachmentService
func NewAttachmentService(subs port.SubmissionRepository, files port.FileStorage, now Clock, logger Logger) AttachmentService {
	if now == nil {
		now = time.Now
	}
	return &attachmentServiceImpl{subs: subs, files: files, now: now, logger: logger}
}

// Upload saves the file under {DocType}/{Category}/{displayId}/{filename} and
// records its key. Only the submitter may attach, and only while the
// document is still in the chain. The generated approval sheet name is reserved.
func (s *attachmentServiceImpl) Upload(ctx context.Context, sess *session.Session, docType entity.DocType, id, filename string, content []byte) (*entity.Submission, error) {
	if err := requireDocType(docType); err != nil {
		return nil, err
	}
	if len(content) == 0 {
		return nil, fmt.Errorf("%w: attachment is empty", entity.ErrInvalidInput)
	}
	if len(content) > MaxAttachmentBytes {
		return nil, fmt.Errorf("%w: attachment exceeds %d bytes", entity.ErrInvalidInput, MaxAttachmentBytes)
	}

	sub, err := s.subs.GetByID(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	if !canView(sess, sub) {
		return nil, port.ErrNotFound
	}
	if sub.User.UID != sess.UID {
		return nil, ErrForbidden
	}
	if sub.Status.IsTerminal() {
		return nil, fmt.Errorf("%w: document is already %s", entity.ErrInvalidInput, sub.Status)
	}

	key := storage.ObjectKey(docType, sub.Category, sub.DisplayID, filename)
	if storage.IsApprovalSheetKey(sub, key) {
		return nil, fmt.Errorf("%w: %q is reserved for the approval sheet", entity.ErrInvalidInput, path.Base(key))
	}
	// a replaced file was already recorded; only a new object is ours to remove
	replacing := entity.Contains(sub.Attachments, key)

	if err := s.files.Put(ctx, key, content); err != nil {
		s.logger.Error("Failed to store attachment", "error", err, "key", key)
		return nil, fmt.Errorf("store attachment: %w", err)
	}

	for attempt := 1; ; attempt++ {
		if sub.Status.IsTerminal() {
			s.discard(ctx, key, replacing)
			return nil, fmt.Errorf("%w: document is already %s", entity.ErrInvalidInput, sub.Status)
		}
		if !entity.Contains(sub.Attachments, key) {
			sub.Attachments = append(sub.Attachments, key)
		}
		sub.UpdatedAt = s.now()

		err = s.subs.UpdateIfUnchanged(ctx, sub, sub.Status, sub.Version)
		if err == nil {
			break
		}
		if !errors.Is(err, port.ErrConcurrentModification) || attempt == attachRetries {
			s.logger.Error("Failed to record attachment", "error", err, "key", key)
			s.discard(ctx, key, replacing)
			return nil, err
		}
		// a reviewer acted meanwhile; reread and try again
		if sub, err = s.subs.GetByID(ctx, docType, id); err != nil {
			s.discard(ctx, key, replacing)
			return nil, err
		}
	}

	s.logger.Info("Attachment stored", "display_id", sub.DisplayID, "key", key)
	return sub, nil
}

// discard removes an object that was written but never recorded
func (s *attachmentServiceImpl) discard(ctx context.Context, key string, replacing bool) {
	if replacing {
		return
	}
	if err := s.files.Delete(ctx, key); err != nil {
		s.logger.Error("Failed to remove unrecorded attachment", "error", err, "key", key)
	}
}
