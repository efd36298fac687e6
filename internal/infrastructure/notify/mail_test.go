package notify

import (
	"bytes"
	"context"
	"errors"
	"testing"

	mail "github.com/go-mail/mail/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/expense-approval/internal/application/port"
)

type fakeSender struct {
	sent []*mail.Message
	err  error
}

func (f *fakeSender) DialAndSend(m ...*mail.Message) error {
	if f.err != nil {
		return f.err
	}
	f.sent = append(f.sent, m...)
	return nil
}

func TestMailNotifier_Send(t *testing.T) {
	fake := &fakeSender{}
	n := &MailNotifier{from: "Approval <no-reply@example.com>", sender: fake, logger: zap.NewNop()}

	err := n.Send(context.Background(), port.Message{
		To:      "sari@example.com",
		Subject: "Menunggu persetujuan: RMEDHO2403151234",
		Body:    "Ada pengajuan baru.",
	})

	require.NoError(t, err)
	require.Len(t, fake.sent, 1)
	assert.Equal(t, []string{"sari@example.com"}, fake.sent[0].GetHeader("To"))
	assert.Equal(t, []string{"Approval <no-reply@example.com>"}, fake.sent[0].GetHeader("From"))

	var buf bytes.Buffer
	_, err = fake.sent[0].WriteTo(&buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "Ada pengajuan baru.")
}

func TestMailNotifier_SkipsEmptyRecipient(t *testing.T) {
	fake := &fakeSender{}
	n := &MailNotifier{sender: fake, logger: zap.NewNop()}

	require.NoError(t, n.Send(context.Background(), port.Message{Subject: "x"}))
	assert.Empty(t, fake.sent)
}

func TestMailNotifier_WrapsError(t *testing.T) {
	dialErr := errors.New("connection refused")
	n := &MailNotifier{sender: &fakeSender{err: dialErr}, logger: zap.NewNop()}

	err := n.Send(context.Background(), port.Message{To: "a@example.com"})
	assert.ErrorIs(t, err, dialErr)
}

func TestNewMailNotifier_RequiresStartTLS(t *testing.T) {
	n := NewMailNotifier(SMTPConfig{Host: "smtp.example.com", Port: 587, From: "x@example.com"}, zap.NewNop())

	d, ok := n.sender.(*mail.Dialer)
	require.True(t, ok)
	assert.Equal(t, mail.MandatoryStartTLS, d.StartTLSPolicy)
	assert.Equal(t, "smtp.example.com", d.TLSConfig.ServerName)
}

func TestLogNotifier(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	n := NewLogNotifier(zap.New(core))

	require.NoError(t, n.Send(context.Background(), port.Message{To: "a@example.com", Subject: "s"}))
	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "a@example.com", logs.All()[0].ContextMap()["to"])
}
