package smtp

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"time"

	"github.com/contrib-gateway/internal/config"
	"github.com/contrib-gateway/internal/domain"
)

// Mailer sends emails.
type Mailer interface {
	SendEmail(to, subject, body string) error
}

type mailer struct {
	cfg config.SMTP
}

func NewMailer(cfg *config.Config) Mailer {
	return &mailer{cfg: cfg.SMTP}
}

// SendEmail delivers a plain-text message. The dial carries the configured
// timeout so a stuck SMTP server fails the request instead of hanging it;
// any transport failure surfaces as domain.ErrUpstream.
func (m *mailer) SendEmail(to, subject, body string) error {
	addr := net.JoinHostPort(m.cfg.Host, m.cfg.Port)

	conn, err := net.DialTimeout("tcp", addr, m.cfg.Timeout)
	if err != nil {
		return fmt.Errorf("smtp dial: %w", domain.ErrUpstream)
	}
	// Bound the whole exchange, not just the dial.
	_ = conn.SetDeadline(time.Now().Add(m.cfg.Timeout))

	c, err := smtp.NewClient(conn, m.cfg.Host)
	if err != nil {
		conn.Close()
		return fmt.Errorf("smtp handshake: %w", domain.ErrUpstream)
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: m.cfg.Host}); err != nil {
			return fmt.Errorf("smtp starttls: %w", domain.ErrUpstream)
		}
	}
	if m.cfg.Username != "" {
		auth := smtp.PlainAuth("", m.cfg.Username, m.cfg.Password, m.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return fmt.Errorf("smtp auth: %w", domain.ErrUpstream)
		}
	}

	if err := c.Mail(m.cfg.From); err != nil {
		return fmt.Errorf("smtp mail from: %w", domain.ErrUpstream)
	}
	if err := c.Rcpt(to); err != nil {
		return fmt.Errorf("smtp rcpt to: %w", domain.ErrUpstream)
	}
	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("smtp data: %w", domain.ErrUpstream)
	}
	msg := fmt.Sprintf("From: %s\r\nTo: %s\r\nSubject: %s\r\n\r\n%s",
		m.cfg.From, to, subject, body)
	if _, err := w.Write([]byte(msg)); err != nil {
		return fmt.Errorf("smtp write: %w", domain.ErrUpstream)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("smtp close: %w", domain.ErrUpstream)
	}
	if err := c.Quit(); err != nil {
		return fmt.Errorf("smtp quit: %w", domain.ErrUpstream)
	}
	return nil
}
