package service

import (
	"context"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/export"
	"github.com/garyjia/expense-approval/internal/infrastructure/storage"
	"github.com/garyjia/expense-approval/internal/session"
)

// ErrNotApproved is returned when an approval sheet is requested for a document that is not Disetujui
var ErrNotApproved = fmt.Errorf("%w: only approved documents have an approval sheet", entity.ErrInvalidInput)

// ExportService renders workbooks
type ExportService interface {
	// Spreadsheet returns the list export file name and bytes
	Spreadsheet(ctx context.Context, s *session.Session, f export.Filter) (string, []byte, error)

	// ApprovalSheet renders the approval workbook of an approved document,
	// stores it and returns its object key
	ApprovalSheet(ctx context.Context, s *session.Session, docType entity.DocType, id string) (string, error)
}

type exportServiceImpl struct {
	subs     port.SubmissionRepository
	files    port.FileStorage
	exporter *export.Exporter
	now      Clock
	logger   Logger
}

// NewExportService creates a new ExportService
func NewExportService(subs port.SubmissionRepository, files port.FileStorage, exporter *export.Exporter, now Clock, logger Logger) ExportService {
	if now == nil {
		now = time.Now
	}
	return &exportServiceImpl{subs: subs, files: files, exporter: exporter, now: now, logger: logger}
}

func (s *exportServiceImpl) Spreadsheet(ctx context.Context, sess *session.Session, f export.Filter) (string, []byte, error) {
	if err := requireDocType(f.DocType); err != nil {
		return "", nil, err
	}
	if f.Year == 0 {
		f.Year = s.now().In(s.exporter.Location()).Year()
	}

	from, to := f.Range(s.exporter.Location())
	q := port.SubmissionQuery{Unit: f.Unit, From: from, To: to, SortBy: port.SortSubmittedAt}
	if !sess.Role.CanManageUsers() {
		q.SubmitterUID = sess.UID
	}

	subs, err := s.subs.Find(ctx, f.DocType, q)
	if err != nil {
		s.logger.Error("Failed to load export data", "error", err, "doc_type", f.DocType)
		return "", nil, err
	}

	data, err := s.exporter.Spreadsheet(subs, f)
	if err != nil {
		s.logger.Error("Failed to render export", "error", err, "doc_type", f.DocType)
		return "", nil, err
	}

	name := export.Filename(f)
	s.logger.Info("Export rendered", "file", name, "documents", len(subs), "by", sess.UID)
	return name, data, nil
}

func (s *exportServiceImpl) ApprovalSheet(ctx context.Context, sess *session.Session, docType entity.DocType, id string) (string, error) {
	if err := requireDocType(docType); err != nil {
		return "", err
	}
	sub, err := s.subs.GetByID(ctx, docType, id)
	if err != nil {
		return "", err
	}
	if !canView(sess, sub) {
		return "", fmt.Errorf("submission %s: %w", id, port.ErrNotFound)
	}
	if sub.Status != workflow.StateDisetujui {
		return "", ErrNotApproved
	}

	data, err := s.exporter.ApprovalSheet(sub, approval.Signatories(sub.StatusHistory), s.now())
	if err != nil {
		s.logger.Error("Failed to render approval sheet", "error", err, "display_id", sub.DisplayID)
		return "", err
	}

	key := storage.ApprovalSheetKey(sub)
	if err := s.files.Put(ctx, key, data); err != nil {
		s.logger.Error("Failed to store approval sheet", "error", err, "key", key)
		return "", fmt.Errorf("store approval sheet: %w", err)
	}

	s.logger.Info("Approval sheet stored", "display_id", sub.DisplayID, "key", key)
	return key, nil
}
