package mail

import (
	"fmt"

	gomail "github.com/wneessen/go-mail"
)

// SMTPConfig carries the connection settings for the outbound mail
// server.
type SMTPConfig struct {
	Server   string
	Port     int
	Username string
	Password string
	UseTLS   bool
	UseSSL   bool
}

// SMTPSender delivers messages over SMTP.
type SMTPSender struct {
	client *gomail.Client
}

var _ Sender = (*SMTPSender)(nil)

// NewSMTPSender connects message dispatch to the configured SMTP server.
func NewSMTPSender(cfg SMTPConfig) (*SMTPSender, error) {
	if cfg.Server == "" {
		return nil, fmt.Errorf("no mail server configured")
	}

	options := []gomail.Option{
		gomail.WithPort(cfg.Port),
	}

	switch {
	case cfg.UseSSL:
		options = append(options, gomail.WithSSLPort(false))
	case cfg.UseTLS:
		options = append(options, gomail.WithTLSPolicy(gomail.TLSMandatory))
	default:
		options = append(options, gomail.WithTLSPolicy(gomail.TLSOpportunistic))
	}

	if cfg.Username != "" {
		options = append(options,
			gomail.WithSMTPAuth(gomail.SMTPAuthPlain),
			gomail.WithUsername(cfg.Username),
			gomail.WithPassword(cfg.Password),
		)
	}

	client, err := gomail.NewClient(cfg.Server, options...)
	if err != nil {
		return nil, fmt.Errorf("creating SMTP client: %w", err)
	}
	return &SMTPSender{client: client}, nil
}

// Send delivers the message. It blocks until the SMTP conversation has
// finished and is expected to run on the mailer's dispatch goroutine.
func (s *SMTPSender) Send(msg *Message) error {
	out := gomail.NewMsg()
	if err := out.From(msg.From); err != nil {
		return fmt.Errorf("setting sender: %w", err)
	}
	if err := out.To(msg.Recipients...); err != nil {
		return fmt.Errorf("setting recipients: %w", err)
	}
	out.Subject(msg.Subject)
	out.SetBodyString(gomail.TypeTextPlain, msg.BodyPlain)
	out.AddAlternativeString(gomail.TypeTextHTML, msg.BodyHTML)

	return s.client.DialAndSend(out)
}
