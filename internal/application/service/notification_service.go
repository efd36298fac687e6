package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/garyjia/expense-approval/internal/application/approval"
	"github.com/garyjia/expense-approval/internal/application/dispatcher"
	"github.com/garyjia/expense-approval/internal/application/port"
	"github.com/garyjia/expense-approval/internal/domain/entity"
	"github.com/garyjia/expense-approval/internal/domain/event"
	"github.com/garyjia/expense-approval/internal/domain/workflow"
)

// NotificationService tells people when a document needs them
type NotificationService interface {
	// Register subscribes the service to submission events
	Register(d dispatcher.Dispatcher)

	// NotifyNextApprovers mails everyone who can now approve or reject the submission
	NotifyNextApprovers(ctx context.Context, sub *entity.Submission) error

	// NotifySubmitter mails the submitter about a final decision
	NotifySubmitter(ctx context.Context, sub *entity.Submission) error
}

type notificationServiceImpl struct {
	users    port.UserRepository
	engine   *approval.Engine
	notifier port.Notifier
	logger   Logger
}

// NewNotificationService creates a new NotificationService
func NewNotificationService(users port.UserRepository, engine *approval.Engine, notifier port.Notifier, logger Logger) NotificationService {
	return &notificationServiceImpl{users: users, engine: engine, notifier: notifier, logger: logger}
}

func (s *notificationServiceImpl) Register(d dispatcher.Dispatcher) {
	d.Subscribe(event.TypeSubmitted, "notify-approvers", s.onSubmitted)
	d.Subscribe(event.TypeStatusChanged, "notify-status", s.onStatusChanged)
}

func (s *notificationServiceImpl) onSubmitted(ctx context.Context, evt *event.Event) error {
	if evt.Submission == nil {
		return nil
	}
	return s.NotifyNextApprovers(ctx, evt.Submission)
}

func (s *notificationServiceImpl) onStatusChanged(ctx context.Context, evt *event.Event) error {
	if evt.Submission == nil {
		return nil
	}
	if evt.Submission.Status.IsTerminal() {
		return s.NotifySubmitter(ctx, evt.Submission)
	}
	return s.NotifyNextApprovers(ctx, evt.Submission)
}

func (s *notificationServiceImpl) NotifyNextApprovers(ctx context.Context, sub *entity.Submission) error {
	var errs []error
	sent := 0
	for _, uid := range approverUIDs(sub) {
		user, err := s.users.GetByUID(ctx, uid)
		if err != nil {
			s.logger.Error("Failed to resolve approver", "error", err, "uid", uid)
			continue
		}
		actor := approval.Actor{UID: user.UID, Name: user.Nama, Role: user.Role}
		if !s.engine.AwaitsAction(ctx, sub, actor) {
			continue
		}

		msg := port.Message{
			To:      user.Email,
			Subject: fmt.Sprintf("[%s] Menunggu persetujuan Anda", sub.DisplayID),
			Body: fmt.Sprintf(
				"Halo %s,\n\n%s %s dari %s (%s) sebesar Rp %s menunggu tindakan Anda.\nStatus saat ini: %s.\n",
				user.Nama, sub.DocType.Label(), sub.DisplayID, sub.User.Nama, sub.User.Unit,
				formatRupiah(sub.TotalBiaya), sub.Status,
			),
		}
		if err := s.notifier.Send(ctx, msg); err != nil {
			errs = append(errs, fmt.Errorf("notify %s: %w", uid, err))
			continue
		}
		sent++
	}

	s.logger.Info("Approvers notified", "display_id", sub.DisplayID, "status", sub.Status, "sent", sent)
	return errors.Join(errs...)
}

func (s *notificationServiceImpl) NotifySubmitter(ctx context.Context, sub *entity.Submission) error {
	if sub.User.Email == "" {
		return nil
	}

	var detail string
	switch sub.Status {
	case workflow.StateDisetujui:
		detail = "telah disetujui."
	case workflow.StateDitolak:
		detail = fmt.Sprintf("ditolak dengan alasan: %s", sub.RejectReason)
	case workflow.StateDibatalkan:
		detail = fmt.Sprintf("dibatalkan dengan alasan: %s", sub.CancelReason)
	default:
		return nil
	}

	msg := port.Message{
		To:      sub.User.Email,
		Subject: fmt.Sprintf("[%s] %s", sub.DisplayID, sub.Status),
		Body:    fmt.Sprintf("Halo %s,\n\n%s %s %s\n", sub.User.Nama, sub.DocType.Label(), sub.DisplayID, detail),
	}
	if err := s.notifier.Send(ctx, msg); err != nil {
		return fmt.Errorf("notify submitter: %w", err)
	}
	s.logger.Info("Submitter notified", "display_id", sub.DisplayID, "status", sub.Status)
	return nil
}

// approverUIDs lists every approver of the snapshot once, in chain order
func approverUIDs(sub *entity.Submission) []string {
	seen := make(map[string]bool)
	var out []string
	for _, set := range [][]string{sub.User.Validator, sub.User.Reviewer1, sub.User.Reviewer2} {
		for _, uid := range set {
			if uid != "" && !seen[uid] {
				seen[uid] = true
				out = append(out, uid)
			}
		}
	}
	return out
}

// formatRupiah groups thousands with dots: 1250000 -> 1.250.000
func formatRupiah(n int64) string {
	sign := ""
	if n < 0 {
		sign, n = "-", -n
	}
	digits := fmt.Sprintf("%d", n)
	var b strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			b.WriteByte('.')
		}
		b.WriteRune(r)
	}
	return sign + b.String()
}
