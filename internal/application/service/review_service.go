package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/session"
)

// ReviewService moves submissions along the approval chain
type ReviewService interface {
	Approve(ctx context.Context, s *session.Session, docType entity.DocType, id string) (*entity.Submission, error)
	Reject(ctx context.Context, s *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error)
	Cancel(ctx context.Context, s *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error)

	// Pending lists the documents waiting for the caller to approve or reject
	Pending(ctx context.Context, s *session.Session, docType entity.DocType) ([]*entity.Submission, error)

	// AvailableActions lists what the caller may do to the submission right now
	AvailableActions(ctx context.Context, s *session.Session, sub *entity.Submission) []workflow.Trigger
}

type reviewServiceImpl struct {
	subs       port.SubmissionRepository
	engine     *approval.Engine
	dispatcher dispatcher.Dispatcher
	now        Clock
	logger     Logger
}

// NewReviewService creates a new ReviewService
func NewReviewService(
	subs port.SubmissionRepository,
	engine *approval.Engine,
	disp dispatcher.Dispatcher,
	now Clock,
	logger Logger,
) ReviewService {
	if now == nil {
		now = time.Now
	}
	return &reviewServiceImpl{
		subs:       subs,
		engine:     engine,
		dispatcher: disp,
		now:        now,
		logger:     logger,
	}
}

func (s *reviewServiceImpl) Approve(ctx context.Context, sess *session.Session, docType entity.DocType, id string) (*entity.Submission, error) {
	return s.act(ctx, sess, docType, id, workflow.TriggerApprove, "")
}

func (s *reviewServiceImpl) Reject(ctx context.Context, sess *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error) {
	return s.act(ctx, sess, docType, id, workflow.TriggerReject, reason)
}

func (s *reviewServiceImpl) Cancel(ctx context.Context, sess *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error) {
	return s.act(ctx, sess, docType, id, workflow.TriggerCancel, reason)
}

// act reads the document, decides, and writes back only if nobody else
// changed it in between
func (s *reviewServiceImpl) act(ctx context.Context, sess *session.Session, docType entity.DocType, id string, trigger workflow.Trigger, reason string) (*entity.Submission, error) {
	if err := requireDocType(docType); err != nil {
		return nil, err
	}

	sub, err := s.subs.GetByID(ctx, docType, id)
	if err != nil {
		return nil, err
	}
	if !canView(sess, sub) {
		return nil, fmt.Errorf("submission %s: %w", id, port.ErrNotFound)
	}

	d, err := s.engine.Decide(ctx, sub, sess.Actor(), trigger, reason)
	if err != nil {
		s.logger.Info("Action refused",
			"doc_type", docType,
			"display_id", sub.DisplayID,
			"trigger", trigger,
			"actor", sess.UID,
			"reason", err.Error(),
		)
		return nil, err
	}

	expectedStatus, expectedVersion := sub.Status, sub.Version
	approval.Apply(sub, d, s.now())

	err = s.subs.UpdateIfUnchanged(ctx, sub, expectedStatus, expectedVersion)
	if errors.Is(err, port.ErrConcurrentModification) {
		s.logger.Info("Lost update prevented",
			"doc_type", docType,
			"display_id", sub.DisplayID,
			"trigger", trigger,
			"actor", sess.UID,
		)
		return nil, err
	}
	if err != nil {
		s.logger.Error("Failed to store transition", "error", err, "display_id", sub.DisplayID)
		return nil, fmt.Errorf("store transition: %w", err)
	}

	s.logger.Info("Status changed",
		"doc_type", docType,
		"display_id", sub.DisplayID,
		"from", d.From,
		"to", d.To,
		"label", d.Label,
		"actor", sess.UID,
	)
	evt := event.ForSubmission(event.TypeStatusChanged, sub, map[string]string{
		"old_status": string(d.From),
		"new_status": string(d.To),
		"label":      d.Label,
		"actor":      sess.UID,
	})
	if err := s.dispatcher.Enqueue(ctx, evt); err != nil {
		s.logger.Error("Failed to enqueue status change", "error", err, "submission_id", sub.ID)
	}
	return sub, nil
}

func (s *reviewServiceImpl) Pending(ctx context.Context, sess *session.Session, docType entity.DocType) ([]*entity.Submission, error) {
	if err := requireDocType(docType); err != nil {
		return nil, err
	}

	candidates, err := s.subs.Find(ctx, docType, port.SubmissionQuery{
		Statuses: workflow.PendingStates(),
		SortBy:   port.SortSubmittedAt,
	})
	if err != nil {
		s.logger.Error("Failed to load pending submissions", "error", err, "doc_type", docType)
		return nil, err
	}

	actor := sess.Actor()
	out := make([]*entity.Submission, 0, len(candidates))
	for _, sub := range candidates {
		if s.engine.AwaitsAction(ctx, sub, actor) {
			out = append(out, sub)
		}
	}
	return out, nil
}

func (s *reviewServiceImpl) AvailableActions(ctx context.Context, sess *session.Session, sub *entity.Submission) []workflow.Trigger {
	return s.engine.AvailableActions(ctx, sub, sess.Actor())
}
