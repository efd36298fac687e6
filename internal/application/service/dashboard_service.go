package service

import (
	"context"
	"time"

	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
	"github.com/garyjia/expense-approval/internal/export"
	"github.com/garyjia/expense-approval/internal/session"
)

// DashboardFilter narrows the dashboard to a period and unit
type DashboardFilter struct {
	Year int `form:"year"`
	// Month is 1-12, or 0 for the whole year
	Month int    `form:"month"`
	Unit  string `form:"unit"`
}

// DocSummary aggregates one document type
type DocSummary struct {
	DocType  entity.DocType         `json:"docType"`
	Counts   map[workflow.State]int `json:"counts"`
	Total    int                    `json:"total"`
	Pending  int                    `json:"pending"`
	Biaya    int64                  `json:"totalBiaya"`
	Approved int64                  `json:"approvedBiaya"`
}

// Dashboard is the summary of every document type for one filter
type Dashboard struct {
	Year       int          `json:"year"`
	MonthLabel string       `json:"monthLabel"`
	Unit       string       `json:"unit,omitempty"`
	Summaries  []DocSummary `json:"summaries"`
}

// DashboardService computes read-only summaries
type DashboardService interface {
	Summary(ctx context.Context, s *session.Session, f DashboardFilter) (*Dashboard, error)
}

type dashboardServiceImpl struct {
	subs   port.SubmissionRepository
	loc    *time.Location
	now    Clock
	logger Logger
}

// NewDashboardService creates a new DashboardService
func NewDashboardService(subs port.SubmissionRepository, loc *time.Location, now Clock, logger Logger) DashboardService {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &dashboardServiceImpl{subs: subs, loc: loc, now: now, logger: logger}
}

// Summary counts documents per status and sums their totals. Employees
// only see their own documents.
func (s *dashboardServiceImpl) Summary(ctx context.Context, sess *session.Session, f DashboardFilter) (*Dashboard, error) {
	if f.Year == 0 {
		f.Year = s.now().In(s.loc).Year()
	}
	from, to := export.Filter{Year: f.Year, Month: f.Month}.Range(s.loc)

	q := port.SubmissionQuery{Unit: f.Unit, From: from, To: to}
	if !sess.Role.CanManageUsers() {
		q.SubmitterUID = sess.UID
	}

	out := &Dashboard{Year: f.Year, MonthLabel: export.MonthLabel(f.Month), Unit: f.Unit}
	for _, docType := range entity.DocTypes() {
		subs, err := s.subs.Find(ctx, docType, q)
		if err != nil {
			s.logger.Error("Failed to load dashboard data", "error", err, "doc_type", docType)
			return nil, err
		}
		out.Summaries = append(out.Summaries, summarize(docType, subs))
	}
	return out, nil
}

func summarize(docType entity.DocType, subs []*entity.Submission) DocSummary {
	sum := DocSummary{DocType: docType, Counts: make(map[workflow.State]int, len(workflow.AllStates()))}
	for _, state := range workflow.AllStates() {
		sum.Counts[state] = 0
	}
	for _, sub := range subs {
		sum.Counts[sub.Status]++
		sum.Total++
		sum.Biaya += sub.TotalBiaya
		if !sub.Status.IsTerminal() {
			sum.Pending++
		}
		if sub.Status == workflow.StateDisetujui {
			sum.Approved += sub.TotalBiaya
		}
	}
	return sum
}
