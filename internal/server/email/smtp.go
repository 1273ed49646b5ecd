package email

import (
	"context"
	"fmt"
	"net/smtp"
	"strings"

	sc "fileshare/internal/server/config"
)

// sendMail is a seam for testing without an SMTP relay.
var sendMail = smtp.SendMail

// SMTPSender sends verification mail through a plain-auth SMTP relay.
type SMTPSender struct {
	host     string
	port     int
	from     string
	password string
	baseURL  string
}

func NewSMTPSender(config *sc.Config) *SMTPSender {
	return &SMTPSender{
		host:     config.SMTPHost,
		port:     config.SMTPPort,
		from:     config.SMTPUser,
		password: config.SMTPPassword,
		baseURL:  strings.TrimRight(config.BaseURL, "/"),
	}
}

// SendVerification mails the recipient a link embedding the verification
// token. The link expires with the token; the message says so.
func (s *SMTPSender) SendVerification(ctx context.Context, recipient, token string) error {
	link := fmt.Sprintf("%s/auth/verify-email?token=%s", s.baseURL, token)

	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", s.from)
	fmt.Fprintf(&b, "To: %s\r\n", recipient)
	b.WriteString("Subject: Email Verification\r\n")
	b.WriteString("\r\n")
	b.WriteString("Hello,\r\n\r\n")
	b.WriteString("Please verify your email by clicking the link below:\r\n")
	fmt.Fprintf(&b, "%s\r\n\r\n", link)
	b.WriteString("This link will expire in 30 minutes.\r\n")

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	auth := smtp.PlainAuth("", s.from, s.password, s.host)

	if err := sendMail(addr, auth, s.from, []string{recipient}, []byte(b.String())); err != nil {
		return fmt.Errorf("failed to send verification email: %w", err)
	}
	return nil
}
