// internal/app/system/mailer/mailer.go
package mailer

import (
	"fmt"
	"mime"
	"net/smtp"
	"strings"

	"go.uber.org/zap"
)

// Email is a single outbound message with text and HTML alternatives.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Config holds SMTP settings. An empty Host disables delivery; Send then
// only logs, which is the dev default.
type Config struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

type Mailer struct {
	cfg Config
	log *zap.Logger
}

func New(cfg Config, log *zap.Logger) *Mailer {
	if log == nil {
		log = zap.NewNop()
	}
	return &Mailer{cfg: cfg, log: log}
}

// Send delivers the email over SMTP. Callers on request paths should invoke
// this in a goroutine; delivery latency must not block the response.
func (m *Mailer) Send(e Email) error {
	if m.cfg.Host == "" {
		m.log.Info("mailer disabled, skipping send",
			zap.String("to", e.To), zap.String("subject", e.Subject))
		return nil
	}

	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	var auth smtp.Auth
	if m.cfg.Username != "" {
		auth = smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
	}

	msg := buildMessage(m.cfg.From, e)
	if err := smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, msg); err != nil {
		m.log.Error("send email failed", zap.String("to", e.To), zap.Error(err))
		return fmt.Errorf("send email: %w", err)
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

const altBoundary = "manpro-alt-boundary"

func buildMessage(from string, e Email) []byte {
	var b strings.Builder
	b.WriteString("From: " + from + "\r\n")
	b.WriteString("To: " + e.To + "\r\n")
	b.WriteString("Subject: " + mime.QEncoding.Encode("utf-8", e.Subject) + "\r\n")
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: multipart/alternative; boundary=" + altBoundary + "\r\n")
	b.WriteString("\r\n")

	b.WriteString("--" + altBoundary + "\r\n")
	b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
	b.WriteString(e.TextBody + "\r\n")

	b.WriteString("--" + altBoundary + "\r\n")
	b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
	b.WriteString(e.HTMLBody + "\r\n")

	b.WriteString("--" + altBoundary + "--\r\n")
	return []byte(b.String())
}
