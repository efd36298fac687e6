package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/domain/numbering"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/session"
	"github.com/garyjia/expense-approval/pkg/utils"
)

const maxDisplayIDAttempts = 5

// LineItemInput is one expense line as entered on a form
type LineItemInput struct {
	Description string `json:"description" validate:"required"`
	Tanggal     string `json:"tanggal" validate:"omitempty,datetime=2006-01-02"`
	Biaya       int64  `json:"biaya" validate:"gte=0,max=1000000000000"`
	Jumlah      int64  `json:"jumlah" validate:"gte=1,max=1000000"`
}

// SubmitInput is a filled in form of any document type
type SubmitInput struct {
	Category  string          `json:"category" validate:"required"`
	LineItems []LineItemInput `json:"lineItems" validate:"required,min=1,max=500,dive"`
	// BonSementaraID links an LPJ to the cash advance it accounts for
	BonSementaraID string `json:"bonSementaraId"`
}

// SubmissionService creates and reads submissions
type SubmissionService interface {
	Submit(ctx context.Context, s *session.Session, docType entity.DocType, in SubmitInput) (*entity.Submission, error)
	Get(ctx context.Context, s *session.Session, docType entity.DocType, id string) (*entity.Submission, error)
	List(ctx context.Context, s *session.Session, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error)
}

type submissionServiceImpl struct {
	subs       port.SubmissionRepository
	users      port.UserRepository
	tx         port.TransactionManager
	numbers    *numbering.Generator
	dispatcher dispatcher.Dispatcher
	now        Clock
	logger     Logger
}

// NewSubmissionService creates a new SubmissionService
func NewSubmissionService(
	subs port.SubmissionRepository,
	users port.UserRepository,
	tx port.TransactionManager,
	numbers *numbering.Generator,
	disp dispatcher.Dispatcher,
	now Clock,
	logger Logger,
) SubmissionService {
	if now == nil {
		now = time.Now
	}
	return &submissionServiceImpl{
		subs:       subs,
		users:      users,
		tx:         tx,
		numbers:    numbers,
		dispatcher: disp,
		now:        now,
		logger:     logger,
	}
}

// Submit validates the form, snapshots the submitter and stores the document as Diajukan
func (s *submissionServiceImpl) Submit(ctx context.Context, sess *session.Session, docType entity.DocType, in SubmitInput) (*entity.Submission, error) {
	if err := requireDocType(docType); err != nil {
		return nil, err
	}

	verr, err := validate(in)
	if err != nil {
		return nil, err
	}
	if in.Category != "" && !docType.AcceptsCategory(in.Category) {
		verr.Add("category", fmt.Sprintf("%q is not a %s category", in.Category, docType.Label()))
	}
	if docType == entity.DocLPJ && in.BonSementaraID == "" {
		verr.Add("bonSementaraId", "is required")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	user, err := s.users.GetByUID(ctx, sess.UID)
	if err != nil {
		return nil, fmt.Errorf("load submitter: %w", err)
	}
	snap := user.Snapshot()
	if err := checkApprovers(snap); err != nil {
		return nil, err
	}

	now := s.now()
	sub := &entity.Submission{
		ID:        uuid.NewString(),
		DocType:   docType,
		Category:  in.Category,
		Status:    workflow.StateDiajukan,
		User:      snap,
		LineItems: toLineItems(in.LineItems),
		StatusHistory: []entity.StatusEntry{{
			Status:    string(workflow.StateDiajukan),
			Timestamp: now,
			Actor:     sess.UID,
			ActorName: sess.Name,
		}},
		SubmittedAt: now,
		UpdatedAt:   now,
	}

	if docType == entity.DocLPJ {
		bs, err := s.approvedBonSementara(ctx, sess, in.BonSementaraID)
		if err != nil {
			return nil, err
		}
		sub.BonSementaraID = bs.ID
		sub.JumlahBS = bs.TotalBiaya
	}
	if err := sub.RecomputeTotals(); err != nil {
		verr := &entity.ValidationError{}
		verr.Add("lineItems", err.Error())
		return nil, verr
	}

	if err := s.create(ctx, sub); err != nil {
		return nil, err
	}

	s.logger.Info("Submission created",
		"doc_type", docType,
		"display_id", sub.DisplayID,
		"submitter", sess.UID,
		"total_biaya", sub.TotalBiaya,
	)
	evt := event.ForSubmission(event.TypeSubmitted, sub, map[string]string{
		"display_id": sub.DisplayID,
	})
	if err := s.dispatcher.Enqueue(ctx, evt); err != nil {
		s.logger.Error("Failed to enqueue submission event", "error", err, "submission_id", sub.ID)
	}
	return sub, nil
}

// create allocates a display id and inserts, regenerating on collision.
// The existence check and the insert share one transaction.
func (s *submissionServiceImpl) create(ctx context.Context, sub *entity.Submission) error {
	for attempt := 1; attempt <= maxDisplayIDAttempts; attempt++ {
		candidate := s.numbers.Generate(sub.DocType, sub.Category, sub.User.Unit)

		err := s.tx.WithTransaction(ctx, func(ctx context.Context) error {
			exists, err := s.subs.DisplayIDExists(ctx, sub.DocType, candidate)
			if err != nil {
				return fmt.Errorf("check display id: %w", err)
			}
			if exists {
				return port.ErrDuplicate
			}
			sub.DisplayID = candidate
			return s.subs.Create(ctx, sub)
		})
		if errors.Is(err, port.ErrDuplicate) {
			s.logger.Info("Display id collision, regenerating", "display_id", candidate, "attempt", attempt)
			sub.DisplayID = ""
			continue
		}
		if err != nil {
			s.logger.Error("Failed to store submission", "error", err, "display_id", candidate)
			return fmt.Errorf("store submission: %w", err)
		}
		return nil
	}

	s.logger.Error("Display id allocation exhausted", "doc_type", sub.DocType, "unit", sub.User.Unit)
	return ErrDisplayIDExhausted
}

func (s *submissionServiceImpl) approvedBonSementara(ctx context.Context, sess *session.Session, id string) (*entity.Submission, error) {
	bs, err := s.subs.GetByID(ctx, entity.DocBonSementara, id)
	if errors.Is(err, port.ErrNotFound) {
		verr := &entity.ValidationError{}
		verr.Add("bonSementaraId", "bon sementara not found")
		return nil, verr
	}
	if err != nil {
		return nil, fmt.Errorf("load bon sementara: %w", err)
	}
	if bs.User.UID != sess.UID {
		verr := &entity.ValidationError{}
		verr.Add("bonSementaraId", "bon sementara belongs to another user")
		return nil, verr
	}
	if bs.Status != workflow.StateDisetujui {
		return nil, ErrBonSementaraNotApproved
	}
	return bs, nil
}

// Get returns a submission the caller is allowed to see. To anyone else it
// does not exist.
func (s *submissionServiceImpl) Get(ctx context.Context, sess *session.Session, docType entity.DocType, id string) (*entity.Submission, error) {
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
	return sub, nil
}

// List returns matching submissions. Only Admin and Super Admin see other
// people's documents; everyone else is limited to their own.
func (s *submissionServiceImpl) List(ctx context.Context, sess *session.Session, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error) {
	if err := requireDocType(docType); err != nil {
		return nil, err
	}
	if !sess.Role.CanManageUsers() {
		q.SubmitterUID = sess.UID
	}
	subs, err := s.subs.Find(ctx, docType, q)
	if err != nil {
		s.logger.Error("Failed to list submissions", "error", err, "doc_type", docType)
		return nil, err
	}
	return subs, nil
}

// checkApprovers rejects a snapshot that can never finish the chain
func checkApprovers(snap entity.Submitter) error {
	verr := &entity.ValidationError{}
	if len(snap.Reviewer1) == 0 {
		verr.Add("reviewer1", "no Reviewer 1 is assigned to the submitter")
	}
	if len(snap.Reviewer2) == 0 {
		verr.Add("reviewer2", "no Reviewer 2 is assigned to the submitter")
	}
	if err := verr.OrNil(); err != nil {
		return err
	}
	if !entity.ReviewersDisjoint(snap.Reviewer1, snap.Reviewer2) {
		return fmt.Errorf("%w: %w", entity.ErrInvalidInput, entity.ErrReviewersOverlap)
	}
	return nil
}

func toLineItems(in []LineItemInput) []entity.LineItem {
	out := make([]entity.LineItem, 0, len(in))
	for _, item := range in {
		out = append(out, entity.LineItem{
			Description: utils.SanitizeString(item.Description),
			Tanggal:     item.Tanggal,
			Biaya:       item.Biaya,
			Jumlah:      item.Jumlah,
		})
	}
	return out
}
