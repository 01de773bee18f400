package notify

import (
	"context"
	"errors"
	"fmt"
	"html"
	"log/slog"
	"strings"

	"algotracker/internal/config"
	"algotracker/internal/pkg/metrics"

	"gopkg.in/gomail.v2"
)

// ErrNotConfigured is returned when SMTP settings are incomplete.
var ErrNotConfigured = errors.New("email config missing")

// ResetSubject is the subject of the password reset email.
const ResetSubject = "Your OTP Code for Password Reset"

// Dialer sends prepared messages. *gomail.Dialer satisfies it.
type Dialer interface {
	DialAndSend(m ...*gomail.Message) error
}

// EmailSender sends mail over SMTP.
type EmailSender struct {
	cfg    *config.EmailConfig
	dialer Dialer
	logger *slog.Logger
}

// NewEmailSender creates an SMTP sender from cfg.
func NewEmailSender(cfg *config.EmailConfig, logger *slog.Logger) *EmailSender {
	return &EmailSender{
		cfg:    cfg,
		dialer: gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPass),
		logger: logger,
	}
}

// WithDialer replaces the SMTP dialer.
func (n *EmailSender) WithDialer(d Dialer) *EmailSender {
	n.dialer = d
	return n
}

// Send delivers one HTML email.
func (n *EmailSender) Send(ctx context.Context, to, subject, htmlBody string) error {
	if n.cfg.SMTPHost == "" || n.cfg.SMTPUser == "" || n.cfg.FromEmail == "" {
		metrics.EmailSentTotal.WithLabelValues("error").Inc()
		return ErrNotConfigured
	}
	if strings.TrimSpace(to) == "" {
		metrics.EmailSentTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("empty recipient")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.cfg.FromEmail)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)

	if err := n.dialer.DialAndSend(m); err != nil {
		metrics.EmailSentTotal.WithLabelValues("error").Inc()
		return fmt.Errorf("send email: %w", err)
	}

	metrics.EmailSentTotal.WithLabelValues("ok").Inc()
	if n.logger != nil {
		n.logger.Info("email sent", slog.String("to", to), slog.String("subject", subject))
	}
	return nil
}

// ResetMessage renders the reset email carrying the code and a link to the
// reset page.
func ResetMessage(code, link string) string {
	return fmt.Sprintf(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; background: #f6f7fb; color: #1f2937;">
  <div style="max-width: 520px; margin: 24px auto; padding: 20px; background: #ffffff; border-radius: 12px; border: 1px solid #e5e7eb;">
    <h2>Password Reset Request</h2>
    <p>Your OTP code is:</p>
    <div style="font-size: 28px; font-weight: bold; letter-spacing: 3px;">%s</div>
    <p>This code is valid for 10 minutes.</p>
    <p style="text-align: center; margin: 20px 0;">
      <a href="%s" target="_blank" style="display: inline-block; padding: 12px 20px; background: #22c55e; color: #fff; text-decoration: none; border-radius: 8px; font-weight: bold;">Reset Password</a>
    </p>
    <p style="font-size: 12px; color: #6b7280;">If you did not request a password reset, you can ignore this email.</p>
  </div>
</body>
</html>`, html.EscapeString(code), html.EscapeString(link))
}
