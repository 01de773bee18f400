package notify

import (
	"context"
	"errors"
	"strings"
	"testing"

	"algotracker/internal/config"

	"gopkg.in/gomail.v2"
)

type fakeDialer struct {
	sent []*gomail.Message
	err  error
}

func (d *fakeDialer) DialAndSend(m ...*gomail.Message) error {
	if d.err != nil {
		return d.err
	}
	d.sent = append(d.sent, m...)
	return nil
}

func validEmailConfig() *config.EmailConfig {
	return &config.EmailConfig{
		SMTPHost:  "smtp.example.com",
		SMTPPort:  587,
		SMTPUser:  "noreply@example.com",
		SMTPPass:  "pass",
		FromEmail: "noreply@example.com",
	}
}

func TestEmailSender_Send(t *testing.T) {
	d := &fakeDialer{}
	s := NewEmailSender(validEmailConfig(), nil).WithDialer(d)

	if err := s.Send(context.Background(), "a@b.com", ResetSubject, "<p>hi</p>"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if len(d.sent) != 1 {
		t.Fatalf("expected 1 message, got %d", len(d.sent))
	}
	msg := d.sent[0]
	if got := msg.GetHeader("To"); len(got) != 1 || got[0] != "a@b.com" {
		t.Fatalf("unexpected recipient: %v", got)
	}
	if got := msg.GetHeader("Subject"); len(got) != 1 || got[0] != ResetSubject {
		t.Fatalf("unexpected subject: %v", got)
	}
}

func TestEmailSender_MissingConfig(t *testing.T) {
	d := &fakeDialer{}
	cfg := validEmailConfig()
	cfg.SMTPUser = ""
	s := NewEmailSender(cfg, nil).WithDialer(d)

	err := s.Send(context.Background(), "a@b.com", ResetSubject, "body")
	if !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
	if len(d.sent) != 0 {
		t.Fatalf("nothing should be sent")
	}
}

func TestEmailSender_DialFailure(t *testing.T) {
	d := &fakeDialer{err: errors.New("connection refused")}
	s := NewEmailSender(validEmailConfig(), nil).WithDialer(d)

	if err := s.Send(context.Background(), "a@b.com", ResetSubject, "body"); err == nil {
		t.Fatalf("expected error")
	}
}

func TestResetMessage(t *testing.T) {
	body := ResetMessage("042137", "http://localhost:5173/reset-password/abc")
	for _, want := range []string{"042137", "10 minutes", `href="http://localhost:5173/reset-password/abc"`} {
		if !strings.Contains(body, want) {
			t.Fatalf("body missing %q", want)
		}
	}
}
