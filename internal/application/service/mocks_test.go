package service

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sort"
	"sync"
	"time"

	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/domain/numbering"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/session"
)

var testNow = time.Date(2024, 3, 15, 10, 30, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

func testNumbers() *numbering.Generator {
	return numbering.NewGenerator(
		numbering.WithClock(fixedClock),
		numbering.WithRand(rand.New(rand.NewPCG(7, 11))),
	)
}

func sessionFor(u *entity.User) *session.Session {
	return &session.Session{ID: "sess-" + u.UID, UID: u.UID, Name: u.Nama, Email: u.Email, Role: u.Role, Unit: u.Unit}
}

// Mock repositories

type mockSubmissionRepo struct {
	mu   sync.Mutex
	docs map[string]*entity.Submission

	createFunc func(ctx context.Context, sub *entity.Submission) error
	existsFunc func(ctx context.Context, docType entity.DocType, displayID string) (bool, error)
	updateFunc func(ctx context.Context, sub *entity.Submission, status workflow.State, version int64) error

	existsCalls int
	lastQuery   port.SubmissionQuery
}

func newMockSubmissionRepo() *mockSubmissionRepo {
	return &mockSubmissionRepo{docs: make(map[string]*entity.Submission)}
}

func docKey(docType entity.DocType, id string) string {
	return string(docType) + "/" + id
}

func (m *mockSubmissionRepo) put(sub *entity.Submission) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if sub.Version == 0 {
		sub.Version = 1
	}
	m.docs[docKey(sub.DocType, sub.ID)] = sub.Clone()
}

func (m *mockSubmissionRepo) stored(docType entity.DocType, id string) *entity.Submission {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.docs[docKey(docType, id)]
}

func (m *mockSubmissionRepo) Create(ctx context.Context, sub *entity.Submission) error {
	if m.createFunc != nil {
		if err := m.createFunc(ctx, sub); err != nil {
			return err
		}
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.DocType == sub.DocType && d.DisplayID == sub.DisplayID {
			return fmt.Errorf("submission %s: %w", sub.DisplayID, port.ErrDuplicate)
		}
	}
	sub.Version = 1
	m.docs[docKey(sub.DocType, sub.ID)] = sub.Clone()
	return nil
}

func (m *mockSubmissionRepo) GetByID(ctx context.Context, docType entity.DocType, id string) (*entity.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	d, ok := m.docs[docKey(docType, id)]
	if !ok {
		return nil, fmt.Errorf("submission %s: %w", id, port.ErrNotFound)
	}
	return d.Clone(), nil
}

func (m *mockSubmissionRepo) DisplayIDExists(ctx context.Context, docType entity.DocType, displayID string) (bool, error) {
	m.mu.Lock()
	m.existsCalls++
	m.mu.Unlock()
	if m.existsFunc != nil {
		return m.existsFunc(ctx, docType, displayID)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, d := range m.docs {
		if d.DocType == docType && d.DisplayID == displayID {
			return true, nil
		}
	}
	return false, nil
}

func (m *mockSubmissionRepo) Find(ctx context.Context, docType entity.DocType, q port.SubmissionQuery) ([]*entity.Submission, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastQuery = q

	var out []*entity.Submission
	for _, d := range m.docs {
		if d.DocType != docType {
			continue
		}
		if q.SubmitterUID != "" && d.User.UID != q.SubmitterUID {
			continue
		}
		if q.Unit != "" && d.User.Unit != q.Unit {
			continue
		}
		if len(q.Statuses) > 0 && !containsState(q.Statuses, d.Status) {
			continue
		}
		if !q.From.IsZero() && d.SubmittedAt.Before(q.From) {
			continue
		}
		if !q.To.IsZero() && !d.SubmittedAt.Before(q.To) {
			continue
		}
		out = append(out, d.Clone())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].SubmittedAt.Before(out[j].SubmittedAt) })
	return out, nil
}

func (m *mockSubmissionRepo) UpdateIfUnchanged(ctx context.Context, sub *entity.Submission, status workflow.State, version int64) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, sub, status, version)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.docs[docKey(sub.DocType, sub.ID)]
	if !ok {
		return port.ErrNotFound
	}
	if cur.Status != status || cur.Version != version {
		return port.ErrConcurrentModification
	}
	sub.Version = version + 1
	m.docs[docKey(sub.DocType, sub.ID)] = sub.Clone()
	return nil
}

func containsState(states []workflow.State, s workflow.State) bool {
	for _, v := range states {
		if v == s {
			return true
		}
	}
	return false
}

type mockUserRepo struct {
	mu    sync.Mutex
	users map[string]*entity.User
}

func newMockUserRepo(users ...*entity.User) *mockUserRepo {
	m := &mockUserRepo{users: make(map[string]*entity.User)}
	for _, u := range users {
		m.users[u.UID] = u
	}
	return m
}

func (m *mockUserRepo) Create(ctx context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == user.Email {
			return fmt.Errorf("user %s: %w", user.Email, port.ErrDuplicate)
		}
	}
	c := *user
	m.users[user.UID] = &c
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *entity.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[user.UID]; !ok {
		return port.ErrNotFound
	}
	c := *user
	m.users[user.UID] = &c
	return nil
}

func (m *mockUserRepo) GetByUID(ctx context.Context, uid string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[uid]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", uid, port.ErrNotFound)
	}
	c := *u
	return &c, nil
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, u := range m.users {
		if u.Email == email {
			c := *u
			return &c, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", email, port.ErrNotFound)
}

func (m *mockUserRepo) List(ctx context.Context) ([]*entity.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*entity.User, 0, len(m.users))
	for _, u := range m.users {
		c := *u
		out = append(out, &c)
	}
	return out, nil
}

type mockDraftRepo struct {
	drafts map[string]*entity.Draft
}

func (m *mockDraftRepo) Save(ctx context.Context, draft *entity.Draft) error {
	if m.drafts == nil {
		m.drafts = make(map[string]*entity.Draft)
	}
	c := *draft
	m.drafts[draft.Key] = &c
	return nil
}

func (m *mockDraftRepo) Take(ctx context.Context, key string) (*entity.Draft, error) {
	d, ok := m.drafts[key]
	if !ok {
		return nil, fmt.Errorf("draft %s: %w", key, port.ErrNotFound)
	}
	delete(m.drafts, key)
	return d, nil
}

type mockFileStorage struct {
	files map[string][]byte
}

func (m *mockFileStorage) Put(ctx context.Context, key string, content []byte) error {
	if m.files == nil {
		m.files = make(map[string][]byte)
	}
	m.files[key] = content
	return nil
}

func (m *mockFileStorage) Get(ctx context.Context, key string) ([]byte, error) {
	b, ok := m.files[key]
	if !ok {
		return nil, port.ErrNotFound
	}
	return b, nil
}

func (m *mockFileStorage) Exists(ctx context.Context, key string) (bool, error) {
	_, ok := m.files[key]
	return ok, nil
}

func (m *mockFileStorage) Delete(ctx context.Context, key string) error {
	delete(m.files, key)
	return nil
}

type mockNotifier struct {
	mu      sync.Mutex
	sent    []port.Message
	sendErr error
}

func (m *mockNotifier) Send(ctx context.Context, msg port.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, msg)
	return nil
}

func (m *mockNotifier) recipients() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]string, 0, len(m.sent))
	for _, msg := range m.sent {
		out = append(out, msg.To)
	}
	return out
}

// mockDispatcher records events instead of running handlers
type mockDispatcher struct {
	mu         sync.Mutex
	events     []*event.Event
	subscribed map[event.Type][]string
	handlers   map[event.Type][]dispatcher.Handler
}

func newMockDispatcher() *mockDispatcher {
	return &mockDispatcher{
		subscribed: make(map[event.Type][]string),
		handlers:   make(map[event.Type][]dispatcher.Handler),
	}
}

func (m *mockDispatcher) Subscribe(eventType event.Type, name string, handler dispatcher.Handler) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.subscribed[eventType] = append(m.subscribed[eventType], name)
	m.handlers[eventType] = append(m.handlers[eventType], handler)
}

func (m *mockDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, evt)
	return nil
}

func (m *mockDispatcher) Enqueue(ctx context.Context, evt *event.Event) error {
	return m.Dispatch(ctx, evt)
}

func (m *mockDispatcher) Subscribers(eventType event.Type) []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.subscribed[eventType]
}

func (m *mockDispatcher) Close() error { return nil }

func (m *mockDispatcher) eventsOf(t event.Type) []*event.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*event.Event
	for _, e := range m.events {
		if e.Type == t {
			out = append(out, e)
		}
	}
	return out
}

// mockTxManager runs fn directly
type mockTxManager struct{}

func (mockTxManager) WithTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type mockLogger struct{}

func (m *mockLogger) Info(msg string, keysAndValues ...interface{})  {}
func (m *mockLogger) Error(msg string, keysAndValues ...interface{}) {}

// Fixture users: an employee with a validator, two reviewer 1 and one reviewer 2

var (
	uValidator = &entity.User{UID: "val-1", Nama: "Vina", Email: "vina@example.com", Role: entity.RoleValidator, Unit: "Head Office"}
	uReviewer1 = &entity.User{UID: "rev1-1", Nama: "Rudi", Email: "rudi@example.com", Role: entity.RoleReviewer, Unit: "Head Office"}
	uReviewer2 = &entity.User{UID: "rev2-1", Nama: "Rani", Email: "rani@example.com", Role: entity.RoleReviewer, Unit: "Head Office"}
	uAdmin     = &entity.User{UID: "adm-1", Nama: "Adi", Email: "adi@example.com", Role: entity.RoleAdmin, Unit: "Head Office"}
	uSuper     = &entity.User{UID: "sa-1", Nama: "Sinta", Email: "sinta@example.com", Role: entity.RoleSuperAdmin, Unit: "Head Office"}
)

func newEmployee(uid string) *entity.User {
	return &entity.User{
		UID:           uid,
		Nama:          "Budi " + uid,
		Email:         uid + "@example.com",
		Role:          entity.RoleEmployee,
		Unit:          "Head Office",
		Department:    []string{"Finance"},
		BankName:      "BNI",
		AccountNumber: "0123456789",
		Validator:     []string{uValidator.UID},
		Reviewer1:     []string{uReviewer1.UID},
		Reviewer2:     []string{uReviewer2.UID},
	}
}

func allUsers(extra ...*entity.User) *mockUserRepo {
	return newMockUserRepo(append([]*entity.User{uValidator, uReviewer1, uReviewer2, uAdmin, uSuper}, extra...)...)
}

// submitted returns a stored-shape submission in state Diajukan for the employee
func submitted(docType entity.DocType, id string, owner *entity.User, items ...entity.LineItem) *entity.Submission {
	if len(items) == 0 {
		items = []entity.LineItem{{Description: "Tiket", Biaya: 250000, Jumlah: 2}}
	}
	category := docType.Categories()[0]
	sub := &entity.Submission{
		ID:          id,
		DocType:     docType,
		DisplayID:   "DOC" + id,
		Category:    category,
		Status:      workflow.StateDiajukan,
		User:        owner.Snapshot(),
		LineItems:   items,
		SubmittedAt: testNow,
		UpdatedAt:   testNow,
		StatusHistory: []entity.StatusEntry{
			{Status: string(workflow.StateDiajukan), Timestamp: testNow, Actor: owner.UID, ActorName: owner.Nama},
		},
	}
	_ = sub.RecomputeTotals()
	return sub
}
