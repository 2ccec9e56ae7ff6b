package mail

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// recordingSender captures dispatched messages for inspection.
type recordingSender struct {
	mu       sync.Mutex
	messages []*Message
	err      error
}

func (s *recordingSender) Send(msg *Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) sent() []*Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func testMailer(t *testing.T) (*Mailer, *recordingSender) {
	t.Helper()
	sender := &recordingSender{}
	mailer, err := NewMailer(sender, zap.NewNop(), "Aerarium", "no-reply@example.com")
	require.NoError(t, err)
	return mailer, sender
}

func TestSend(t *testing.T) {
	mailer, sender := testMailer(t)

	err := mailer.Send("Reset Your Password", "reset_password_request", map[string]interface{}{
		"Name":            "Jane",
		"Link":            "https://example.com/auth/reset-password/abc",
		"ValidityMinutes": 15,
	}, "jane@example.com")
	require.NoError(t, err)
	mailer.Wait()

	messages := sender.sent()
	require.Len(t, messages, 1)
	msg := messages[0]

	assert.Equal(t, "Aerarium » Reset Your Password", msg.Subject)
	assert.Equal(t, "no-reply@example.com", msg.From)
	assert.Equal(t, []string{"jane@example.com"}, msg.Recipients)
	assert.Contains(t, msg.BodyPlain, "Jane")
	assert.Contains(t, msg.BodyPlain, "https://example.com/auth/reset-password/abc")
	assert.Contains(t, msg.BodyPlain, "15")
	assert.Contains(t, msg.BodyHTML, "https://example.com/auth/reset-password/abc")
}

func TestSendUnknownTemplate(t *testing.T) {
	mailer, sender := testMailer(t)

	err := mailer.Send("Subject", "no_such_template", nil, "jane@example.com")
	assert.Error(t, err)
	mailer.Wait()
	assert.Empty(t, sender.sent())
}

func TestSendNoRecipients(t *testing.T) {
	mailer, _ := testMailer(t)

	err := mailer.Send("Subject", "reset_password_request", map[string]interface{}{"Name": "Jane"})
	assert.Error(t, err)
}

func TestSendDeliveryFailureIsNotPropagated(t *testing.T) {
	sender := &recordingSender{err: assert.AnError}
	mailer, err := NewMailer(sender, zap.NewNop(), "Aerarium", "no-reply@example.com")
	require.NoError(t, err)

	// Delivery runs in the background, only rendering errors surface.
	err = mailer.Send("Reset Your Password", "reset_password_request", map[string]interface{}{
		"Name":            "Jane",
		"Link":            "https://example.com",
		"ValidityMinutes": 15,
	}, "jane@example.com")
	assert.NoError(t, err)
	mailer.Wait()
}

func TestNewMailerRequiresFromAddress(t *testing.T) {
	_, err := NewMailer(&recordingSender{}, zap.NewNop(), "Aerarium", "")
	assert.ErrorIs(t, err, ErrNoSender)
}

func TestAllTemplatePairsRender(t *testing.T) {
	mailer, sender := testMailer(t)

	data := map[string]interface{}{
		"Name":            "Jane",
		"Link":            "https://example.com/action",
		"ValidityMinutes": 15,
		"OldEmail":        "old@example.com",
		"NewEmail":        "new@example.com",
		"SupportAddress":  "support@example.com",
		"Time":            "2026-01-01 12:00:00",
		"Message":         "something failed",
		"Details":         "stack",
	}

	templates := []string{
		"change_email_request",
		"change_email_confirmation",
		"reset_password_request",
		"reset_password_confirmation",
		"delete_account_request",
		"delete_account_confirmation",
		"error_report",
	}
	for _, name := range templates {
		assert.NoError(t, mailer.Send("Subject", name, data, "jane@example.com"), "template %s", name)
	}
	mailer.Wait()
	assert.Len(t, sender.sent(), len(templates))
}
