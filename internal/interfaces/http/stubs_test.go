package http

import (
	"context"
	"encoding/json"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/application/service"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/export"
	"github.com/garyjia/expense-approval/internal/session"
)

type stubUserRepo struct {
	users []*entity.User
}

func (r *stubUserRepo) Create(ctx context.Context, user *entity.User) error { return nil }
func (r *stubUserRepo) Update(ctx context.Context, user *entity.User) error { return nil }
func (r *stubUserRepo) List(ctx context.Context) ([]*entity.User, error)   { return r.users, nil }

func (r *stubUserRepo) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	for _, u := range r.users {
		if u.UID == uid {
			return u, nil
		}
	}
	return nil, port.ErrNotFound
}

func (r *stubUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	for _, u := range r.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, port.ErrNotFound
}

type stubSubmissions struct {
	submitFunc func(ctx context.Context, s *session.Session, docType entity.DocType, in service.SubmitInput) (*entity.Submission, error)
	getFunc    func(ctx context.Context, s *session.Session, docType entity.DocType, id string) (*entity.Submission, error)
	listFunc   func(ctx context.Context, s *session.Session, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error)
}

func (m *stubSubmissions) Submit(ctx context.Context, s *session.Session, docType entity.DocType, in service.SubmitInput) (*entity.Submission, error) {
	return m.submitFunc(ctx, s, docType, in)
}

func (m *stubSubmissions) Get(ctx context.Context, s *session.Session, docType entity.DocType, id string) (*entity.Submission, error) {
	return m.getFunc(ctx, s, docType, id)
}

func (m *stubSubmissions) List(ctx context.Context, s *session.Session, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error) {
	return m.listFunc(ctx, s, docType, q)
}

type stubReviews struct {
	approveFunc func(ctx context.Context, s *session.Session, docType entity.DocType, id string) (*entity.Submission, error)
	rejectFunc  func(ctx context.Context, s *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error)
	cancelFunc  func(ctx context.Context, s *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error)
	pendingFunc func(ctx context.Context, s *session.Session, docType entity.DocType) ([]*entity.Submission, error)
}

func (m *stubReviews) Approve(ctx context.Context, s *session.Session, docType entity.DocType, id string) (*entity.Submission, error) {
	return m.approveFunc(ctx, s, docType, id)
}

func (m *stubReviews) Reject(ctx context.Context, s *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error) {
	return m.rejectFunc(ctx, s, docType, id, reason)
}

func (m *stubReviews) Cancel(ctx context.Context, s *session.Session, docType entity.DocType, id, reason string) (*entity.Submission, error) {
	return m.cancelFunc(ctx, s, docType, id, reason)
}

func (m *stubReviews) Pending(ctx context.Context, s *session.Session, docType entity.DocType) ([]*entity.Submission, error) {
	return m.pendingFunc(ctx, s, docType)
}

func (m *stubReviews) AvailableActions(ctx context.Context, s *session.Session, sub *entity.Submission) []workflow.Trigger {
	if sub.Status.IsTerminal() {
		return nil
	}
	return []workflow.Trigger{workflow.TriggerApprove, workflow.TriggerReject}
}

type stubDrafts struct {
	saved map[string]json.RawMessage
}

func (m *stubDrafts) Save(ctx context.Context, s *session.Session, draftType string, payload json.RawMessage) (*entity.Draft, error) {
	if m.saved == nil {
		m.saved = make(map[string]json.RawMessage)
	}
	key := entity.DraftKey(s.UID, draftType)
	m.saved[key] = payload
	return &entity.Draft{Key: key, UID: s.UID, DraftType: draftType, Payload: payload}, nil
}

func (m *stubDrafts) Load(ctx context.Context, s *session.Session, draftType string) (*entity.Draft, error) {
	key := entity.DraftKey(s.UID, draftType)
	payload, ok := m.saved[key]
	if !ok {
		return nil, port.ErrNotFound
	}
	delete(m.saved, key)
	return &entity.Draft{Key: key, UID: s.UID, DraftType: draftType, Payload: payload}, nil
}

type stubUsers struct {
	repo *stubUserRepo
}

func (m *stubUsers) Create(ctx context.Context, s *session.Session, in service.UserInput) (*entity.User, error) {
	if !s.Role.CanManageUsers() {
		return nil, service.ErrForbidden
	}
	return &entity.User{UID: "new-1", Nama: in.Nama, Email: in.Email, Role: entity.Role(in.Role)}, nil
}

func (m *stubUsers) Update(ctx context.Context, s *session.Session, uid string, in service.UserInput) (*entity.User, error) {
	return &entity.User{UID: uid, Nama: in.Nama}, nil
}

func (m *stubUsers) Get(ctx context.Context, s *session.Session, uid string) (*entity.User, error) {
	return m.repo.GetByUID(ctx, uid)
}

func (m *stubUsers) List(ctx context.Context, s *session.Session) ([]*entity.User, error) {
	if !s.Role.CanManageUsers() {
		return nil, service.ErrForbidden
	}
	return m.repo.users, nil
}

func (m *stubUsers) Bootstrap(ctx context.Context, in service.UserInput) error { return nil }

type stubDashboard struct {
	lastFilter service.DashboardFilter
}

func (m *stubDashboard) Summary(ctx context.Context, s *session.Session, f service.DashboardFilter) (*service.Dashboard, error) {
	m.lastFilter = f
	return &service.Dashboard{Year: f.Year, MonthLabel: export.MonthLabel(f.Month)}, nil
}

type stubExports struct {
	lastFilter export.Filter
}

func (m *stubExports) Spreadsheet(ctx context.Context, s *session.Session, f export.Filter) (string, []byte, error) {
	m.lastFilter = f
	return export.Filename(f), []byte("PK-xlsx"), nil
}

func (m *stubExports) ApprovalSheet(ctx context.Context, s *session.Session, docType entity.DocType, id string) (string, error) {
	return "Reimbursement/Medical/" + id + "/" + id + "_approval.xlsx", nil
}

type stubAttachments struct {
	filename string
	content  []byte
}

func (m *stubAttachments) Upload(ctx context.Context, s *session.Session, docType entity.DocType, id, filename string, content []byte) (*entity.Submission, error) {
	m.filename = filename
	m.content = content
	return &entity.Submission{ID: id, DocType: docType, Status: workflow.StateDiajukan, Attachments: []string{filename}}, nil
}

type nopLogger struct{}

func (nopLogger) Info(msg string, keysAndValues ...interface{})  {}
func (nopLogger) Error(msg string, keysAndValues ...interface{}) {}
