package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/scentshop/internal/config"
)

func TestSendEmailRequiresConfig(t *testing.T) {
	disabled := NewEmailService(&config.EmailConfig{Enabled: false})
	if err := disabled.SendEmail("a@b.com", "hi", "body"); !errors.Is(err, ErrEmailServiceDisabled) {
		t.Fatalf("expected disabled error, got %v", err)
	}
	missingHost := NewEmailService(&config.EmailConfig{Enabled: true, Port: 587, From: "shop@b.com"})
	if err := missingHost.SendEmail("a@b.com", "hi", "body"); !errors.Is(err, ErrEmailServiceNotConfigured) {
		t.Fatalf("expected not configured error, got %v", err)
	}
	configured := NewEmailService(&config.EmailConfig{Enabled: true, Host: "smtp.local", Port: 587, From: "shop@b.com"})
	if err := configured.SendEmail("not-an-email", "hi", "body"); !errors.Is(err, ErrInvalidEmail) {
		t.Fatalf("expected invalid email error, got %v", err)
	}
}

func TestBuildEmailMessageHeaders(t *testing.T) {
	msg := buildEmailMessage(buildFromAddress("shop@b.com", "Scent Shop"), "a@b.com", "Order shipped", "Your order #ORD-ABC123 has been shipped.")
	for _, want := range []string{"From: ", "To: a@b.com\r\n", "Subject: ", "Content-Type: text/plain; charset=UTF-8", "#ORD-ABC123"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("message missing %q:\n%s", want, msg)
		}
	}
}

func TestNormalizeEmailSendError(t *testing.T) {
	if !errors.Is(normalizeEmailSendError(errors.New("550 5.1.1 Recipient address rejected")), ErrEmailRecipientRejected) {
		t.Fatalf("expected recipient rejected mapping")
	}
	other := errors.New("connection reset")
	if normalizeEmailSendError(other) != other {
		t.Fatalf("expected other errors to pass through")
	}
	if normalizeEmailSendError(nil) != nil {
		t.Fatalf("expected nil")
	}
}
