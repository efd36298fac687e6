package entity

import (
	"time"

	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// LineItem is one expense line of a submission
type LineItem struct {
	Description string `json:"description" bson:"description"`
	Tanggal     string `json:"tanggal,omitempty" bson:"tanggal,omitempty"`
	Biaya       int64  `json:"biaya" bson:"biaya"`
	Jumlah      int64  `json:"jumlah" bson:"jumlah"`
	JumlahBiaya int64  `json:"jumlahBiaya" bson:"jumlahBiaya"`
}

// StatusEntry is one append-only audit record.
// Status holds the recorded label, e.g. "Disetujui oleh Validator".
type StatusEntry struct {
	Status    string    `json:"status" bson:"status"`
	Timestamp time.Time `json:"timestamp" bson:"timestamp"`
	Actor     string    `json:"actor" bson:"actor"`
	ActorName string    `json:"actorName,omitempty" bson:"actorName,omitempty"`
	Reason    string    `json:"reason,omitempty" bson:"reason,omitempty"`
}

// Submission is a reimbursement, bon sementara or LPJ document
type Submission struct {
	ID        string         `json:"id" bson:"_id"`
	DocType   DocType        `json:"docType" bson:"docType"`
	DisplayID string         `json:"displayId" bson:"displayId"`
	Category  string         `json:"category" bson:"category"`
	Status    workflow.State `json:"status" bson:"status"`
	User      Submitter      `json:"user" bson:"user"`

	StatusHistory []StatusEntry `json:"statusHistory" bson:"statusHistory"`

	LineItems  []LineItem `json:"lineItems" bson:"lineItems"`
	TotalBiaya int64      `json:"totalBiaya" bson:"totalBiaya"`

	// LPJ only
	BonSementaraID string `json:"bonSementaraId,omitempty" bson:"bonSementaraId,omitempty"`
	JumlahBS       int64  `json:"jumlahBS,omitempty" bson:"jumlahBS,omitempty"`
	SisaLebih      int64  `json:"sisaLebih" bson:"sisaLebih"`
	SisaKurang     int64  `json:"sisaKurang" bson:"sisaKurang"`

	ApprovedByValidator       bool `json:"approvedByValidator" bson:"approvedByValidator"`
	ApprovedByReviewer1Status bool `json:"approvedByReviewer1Status" bson:"approvedByReviewer1Status"`
	ApprovedByReviewer2Status bool `json:"approvedByReviewer2Status" bson:"approvedByReviewer2Status"`

	Attachments  []string `json:"attachments,omitempty" bson:"attachments,omitempty"`
	CancelReason string   `json:"cancelReason,omitempty" bson:"cancelReason,omitempty"`
	RejectReason string   `json:"rejectReason,omitempty" bson:"rejectReason,omitempty"`

	// Version increases by one on every successful write
	Version     int64     `json:"version" bson:"version"`
	SubmittedAt time.Time `json:"submittedAt" bson:"submittedAt"`
	UpdatedAt   time.Time `json:"updatedAt" bson:"updatedAt"`
}

// RecomputeTotals refreshes every derived amount from the line items.
// On overflow the submission is left unchanged.
func (s *Submission) RecomputeTotals() error {
	items, total, err := ComputeTotals(s.LineItems)
	if err != nil {
		return err
	}
	s.LineItems, s.TotalBiaya = items, total
	if s.DocType == DocLPJ {
		s.SisaLebih, s.SisaKurang = Reconcile(s.JumlahBS, s.TotalBiaya)
	} else {
		s.SisaLebih, s.SisaKurang = 0, 0
	}
	return nil
}

// LastEntry returns the most recent history entry, if any
func (s *Submission) LastEntry() (StatusEntry, bool) {
	if len(s.StatusHistory) == 0 {
		return StatusEntry{}, false
	}
	return s.StatusHistory[len(s.StatusHistory)-1], true
}

// Clone returns a deep copy so callers can mutate without touching a cached original
func (s *Submission) Clone() *Submission {
	c := *s
	c.User.Department = append([]string(nil), s.User.Department...)
	c.User.Validator = append([]string(nil), s.User.Validator...)
	c.User.Reviewer1 = append([]string(nil), s.User.Reviewer1...)
	c.User.Reviewer2 = append([]string(nil), s.User.Reviewer2...)
	c.StatusHistory = append([]StatusEntry(nil), s.StatusHistory...)
	c.LineItems = append([]LineItem(nil), s.LineItems...)
	c.Attachments = append([]string(nil), s.Attachments...)
	return &c
}
