package email

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	sc "fileshare/internal/server/config"
)

func testConfig() *sc.Config {
	cfg := &sc.Config{}
	cfg.LoadDefaults()
	cfg.SMTPHost = "mail.example.com"
	cfg.SMTPPort = 2525
	cfg.SMTPUser = "noreply@example.com"
	cfg.BaseURL = "https://files.example.com/"
	return cfg
}

func TestSendVerification_BuildsLinkAndRecipient(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	var gotAddr, gotFrom string
	var gotTo []string
	var gotMsg []byte
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotFrom, gotTo, gotMsg = addr, from, to, msg
		return nil
	}

	s := NewSMTPSender(testConfig())
	if err := s.SendVerification(context.Background(), "a@x.com", "tok123"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if gotAddr != "mail.example.com:2525" {
		t.Fatalf("unexpected addr: %q", gotAddr)
	}
	if gotFrom != "noreply@example.com" {
		t.Fatalf("unexpected from: %q", gotFrom)
	}
	if len(gotTo) != 1 || gotTo[0] != "a@x.com" {
		t.Fatalf("unexpected recipients: %v", gotTo)
	}
	if !strings.Contains(string(gotMsg), "https://files.example.com/auth/verify-email?token=tok123") {
		t.Fatalf("verification link missing from message:\n%s", gotMsg)
	}
}

func TestSendVerification_RelayError(t *testing.T) {
	orig := sendMail
	defer func() { sendMail = orig }()

	wantErr := errors.New("connection refused")
	sendMail = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		return wantErr
	}

	s := NewSMTPSender(testConfig())
	err := s.SendVerification(context.Background(), "a@x.com", "tok123")
	if !errors.Is(err, wantErr) {
		t.Fatalf("expected relay error to propagate, got %v", err)
	}
}
