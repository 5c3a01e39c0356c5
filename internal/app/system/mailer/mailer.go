// Package mailer sends transactional email over SMTP.
package mailer

import (
	"bytes"
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"mime"
	"net"
	"net/mail"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"github.com/dalemusser/waffle/pantry/validate"
	"go.uber.org/zap"
)

// Email is a single outbound message. Either body may be empty.
type Email struct {
	To       string
	Subject  string
	TextBody string
	HTMLBody string
}

// Sender is implemented by Mailer and by test doubles.
type Sender interface {
	Send(ctx context.Context, e Email) error
}

// Config holds SMTP settings.
type Config struct {
	Host     string
	Port     int
	User     string
	Pass     string
	From     string
	FromName string
}

// Mailer sends mail through one SMTP relay.
type Mailer struct {
	cfg Config
	log *zap.Logger
}

// New creates a Mailer.
func New(cfg Config, logger *zap.Logger) *Mailer {
	return &Mailer{cfg: cfg, log: logger}
}

// Send delivers e. PLAIN auth is used only when a username is configured,
// so a local catcher such as Mailpit works without credentials.
func (m *Mailer) Send(ctx context.Context, e Email) error {
	if e.To == "" {
		return fmt.Errorf("mailer: empty recipient")
	}
	msg, err := m.build(e)
	if err != nil {
		return err
	}

	addr := net.JoinHostPort(m.cfg.Host, strconv.Itoa(m.cfg.Port))
	var auth smtp.Auth
	if m.cfg.User != "" {
		auth = smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)
	}

	done := make(chan error, 1)
	go func() { done <- smtp.SendMail(addr, auth, m.cfg.From, []string{e.To}, msg) }()

	select {
	case <-ctx.Done():
		return fmt.Errorf("mailer: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			m.log.Error("smtp send failed", zap.Error(err), zap.String("to", e.To), zap.String("subject", e.Subject))
			return fmt.Errorf("mailer: send: %w", err)
		}
	}
	m.log.Info("email sent", zap.String("to", e.To), zap.String("subject", e.Subject))
	return nil
}

func (m *Mailer) build(e Email) ([]byte, error) {
	from := mail.Address{Name: m.cfg.FromName, Address: m.cfg.From}
	if !validate.SimpleEmailValid(e.To) || validate.Var(e.To, "email") != nil {
		return nil, fmt.Errorf("mailer: bad recipient %q", e.To)
	}

	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", from.String())
	fmt.Fprintf(&b, "To: %s\r\n", e.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", mime.QEncoding.Encode("utf-8", e.Subject))
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case e.HTMLBody != "" && e.TextBody != "":
		boundary := randomBoundary()
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		writePart(&b, boundary, "text/plain", e.TextBody)
		writePart(&b, boundary, "text/html", e.HTMLBody)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case e.HTMLBody != "":
		b.WriteString("Content-Type: text/html; charset=utf-8\r\n\r\n")
		b.WriteString(normalizeNewlines(e.HTMLBody))
	default:
		b.WriteString("Content-Type: text/plain; charset=utf-8\r\n\r\n")
		b.WriteString(normalizeNewlines(e.TextBody))
	}
	return b.Bytes(), nil
}

func writePart(b *bytes.Buffer, boundary, contentType, body string) {
	fmt.Fprintf(b, "--%s\r\n", boundary)
	fmt.Fprintf(b, "Content-Type: %s; charset=utf-8\r\n\r\n", contentType)
	b.WriteString(normalizeNewlines(body))
	b.WriteString("\r\n")
}

func normalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	return strings.ReplaceAll(s, "\n", "\r\n")
}

func randomBoundary() string {
	var buf [12]byte
	_, _ = rand.Read(buf[:])
	return "ph-" + hex.EncodeToString(buf[:])
}
