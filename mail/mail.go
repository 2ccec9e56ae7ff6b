// Package mail renders and dispatches the application's outbound emails.
// Every mail consists of a plain text and an HTML body rendered from a
// template pair. Dispatch happens on a separate goroutine so HTTP
// responses are never blocked by SMTP latency; send failures are logged
// and not propagated to the caller.
package mail

import (
	"bytes"
	"embed"
	"errors"
	"fmt"
	htmltemplate "html/template"
	"sync"
	texttemplate "text/template"

	"go.uber.org/zap"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// ErrNoSender is returned when neither an explicit sender nor a
// configured default sender is available.
var ErrNoSender = errors.New("no mail sender given and none configured")

// Message is a fully rendered email ready for dispatch.
type Message struct {
	From       string
	Recipients []string
	Subject    string
	BodyPlain  string
	BodyHTML   string
}

// Sender delivers a rendered message. Implementations must be safe for
// concurrent use.
type Sender interface {
	Send(msg *Message) error
}

// Mailer renders template pairs into messages and dispatches them
// asynchronously through a Sender.
type Mailer struct {
	sender Sender
	log    *zap.Logger

	titleShort string
	from       string

	textTemplates *texttemplate.Template
	htmlTemplates *htmltemplate.Template

	wg sync.WaitGroup
}

// NewMailer creates a mailer with the given default sender address. The
// application title prefixes every subject line.
func NewMailer(sender Sender, log *zap.Logger, titleShort, from string) (*Mailer, error) {
	if from == "" {
		return nil, ErrNoSender
	}

	textTemplates, err := texttemplate.ParseFS(templateFS, "templates/*.txt.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing plain text mail templates: %w", err)
	}
	htmlTemplates, err := htmltemplate.ParseFS(templateFS, "templates/*.html.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parsing HTML mail templates: %w", err)
	}

	return &Mailer{
		sender:        sender,
		log:           log,
		titleShort:    titleShort,
		from:          from,
		textTemplates: textTemplates,
		htmlTemplates: htmlTemplates,
	}, nil
}

// Send renders the template pair given by its base name (without the
// .txt.tmpl/.html.tmpl extension) and dispatches the mail to the given
// recipients in the background. Rendering and addressing errors are
// reported synchronously; delivery errors are only logged.
func (m *Mailer) Send(subject, templateBase string, data interface{}, recipients ...string) error {
	if len(recipients) == 0 {
		return errors.New("no recipients given")
	}

	msg, err := m.prepare(subject, templateBase, data, recipients)
	if err != nil {
		return err
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()
		if err := m.sender.Send(msg); err != nil {
			m.log.Error("Failed to send mail",
				zap.String("subject", msg.Subject),
				zap.Strings("recipients", msg.Recipients),
				zap.Error(err),
			)
		}
	}()

	return nil
}

// Wait blocks until all mails handed off so far have been dispatched.
// Used during shutdown and in tests.
func (m *Mailer) Wait() {
	m.wg.Wait()
}

func (m *Mailer) prepare(subject, templateBase string, data interface{}, recipients []string) (*Message, error) {
	var plain bytes.Buffer
	if err := m.textTemplates.ExecuteTemplate(&plain, templateBase+".txt.tmpl", data); err != nil {
		return nil, fmt.Errorf("rendering plain text body %q: %w", templateBase, err)
	}

	var html bytes.Buffer
	if err := m.htmlTemplates.ExecuteTemplate(&html, templateBase+".html.tmpl", data); err != nil {
		return nil, fmt.Errorf("rendering HTML body %q: %w", templateBase, err)
	}

	return &Message{
		From:       m.from,
		Recipients: recipients,
		Subject:    fmt.Sprintf("%s » %s", m.titleShort, subject),
		BodyPlain:  plain.String(),
		BodyHTML:   html.String(),
	}, nil
}
