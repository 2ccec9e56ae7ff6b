package logging

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"aerarium/mail"
)

type recordingSender struct {
	mu       sync.Mutex
	messages []*mail.Message
}

func (s *recordingSender) Send(msg *mail.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.messages = append(s.messages, msg)
	return nil
}

func (s *recordingSender) sent() []*mail.Message {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.messages
}

func TestAttachErrorMailer(t *testing.T) {
	sender := &recordingSender{}
	mailer, err := mail.NewMailer(sender, zap.NewNop(), "Aerarium", "no-reply@example.com")
	require.NoError(t, err)

	logger := AttachErrorMailer(zap.NewNop(), mailer, []string{"admin@example.com"})

	logger.Info("routine entry")
	logger.Error("something broke", zap.String("detail", "value"))
	mailer.Wait()

	messages := sender.sent()
	require.Len(t, messages, 1)
	assert.Equal(t, []string{"admin@example.com"}, messages[0].Recipients)
	assert.Equal(t, "Aerarium » Internal Error", messages[0].Subject)
	assert.Contains(t, messages[0].BodyPlain, "something broke")
}

func TestAttachErrorMailerWithoutAdmins(t *testing.T) {
	mailer, err := mail.NewMailer(&recordingSender{}, zap.NewNop(), "Aerarium", "no-reply@example.com")
	require.NoError(t, err)

	logger := zap.NewNop()
	assert.Same(t, logger, AttachErrorMailer(logger, mailer, nil))
}
