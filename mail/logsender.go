package mail

import "go.uber.org/zap"

// LogSender writes mails to the log instead of delivering them. It is
// the sender of choice for development setups without an SMTP server.
type LogSender struct {
	log *zap.Logger
}

var _ Sender = (*LogSender)(nil)

// NewLogSender creates a new LogSender instance.
func NewLogSender(log *zap.Logger) *LogSender {
	return &LogSender{log: log}
}

func (s *LogSender) Send(msg *Message) error {
	s.log.Info("Mail (not delivered, no SMTP server configured)",
		zap.String("from", msg.From),
		zap.Strings("recipients", msg.Recipients),
		zap.String("subject", msg.Subject),
		zap.String("body", msg.BodyPlain),
	)
	return nil
}
