package logging

import (
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"aerarium/mail"
)

// AttachErrorMailer tees a core onto the logger that mails every
// error-level entry to the system administrators. The mailer itself must
// log through a logger without this core attached, otherwise a failing
// mail server would feed its own error reports.
func AttachErrorMailer(logger *zap.Logger, mailer *mail.Mailer, admins []string) *zap.Logger {
	if len(admins) == 0 {
		return logger
	}

	encoder := zapcore.NewConsoleEncoder(zap.NewProductionEncoderConfig())
	return logger.WithOptions(zap.WrapCore(func(core zapcore.Core) zapcore.Core {
		return zapcore.NewTee(core, &mailCore{
			LevelEnabler: zapcore.ErrorLevel,
			encoder:      encoder,
			mailer:       mailer,
			admins:       admins,
		})
	}))
}

type mailCore struct {
	zapcore.LevelEnabler
	encoder zapcore.Encoder
	mailer  *mail.Mailer
	admins  []string
	fields  []zapcore.Field
}

var _ zapcore.Core = (*mailCore)(nil)

func (c *mailCore) With(fields []zapcore.Field) zapcore.Core {
	clone := *c
	clone.encoder = c.encoder.Clone()
	clone.fields = append(append([]zapcore.Field(nil), c.fields...), fields...)
	return &clone
}

func (c *mailCore) Check(entry zapcore.Entry, checked *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(entry.Level) {
		return checked.AddCore(entry, c)
	}
	return checked
}

func (c *mailCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	buf, err := c.encoder.EncodeEntry(entry, append(append([]zapcore.Field(nil), c.fields...), fields...))
	if err != nil {
		return err
	}
	details := buf.String()
	buf.Free()

	return c.mailer.Send("Internal Error", "error_report", map[string]interface{}{
		"Time":    entry.Time.Format(time.RFC3339),
		"Message": entry.Message,
		"Details": details,
	}, c.admins...)
}

func (c *mailCore) Sync() error {
	return nil
}
