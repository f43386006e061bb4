package user

import (
	"bytes"
	"fmt"
	"net/smtp"
	"text/template"
	"time"

	"github.com/rs/zerolog"
)

// Mailer delivers registration codes to users.
type Mailer interface {
	SendOTP(email, code string) error
}

// SMTPConfig holds SMTP delivery settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// SMTPMailer sends OTP emails over plain SMTP.
type SMTPMailer struct {
	config SMTPConfig
	logger zerolog.Logger
}

// NewSMTPMailer creates an SMTP mailer.
func NewSMTPMailer(cfg SMTPConfig, logger zerolog.Logger) *SMTPMailer {
	return &SMTPMailer{config: cfg, logger: logger}
}

var otpTemplate = template.Must(template.New("otp").Parse(`Your verification code is: {{.Code}}

This code will expire in 10 minutes.

If you didn't request this, please ignore this email.
`))

// SendOTP delivers a registration code. When SMTP is not configured the code
// is logged instead, which keeps local development working without a relay.
func (m *SMTPMailer) SendOTP(email, code string) error {
	var body bytes.Buffer
	if err := otpTemplate.Execute(&body, struct{ Code string }{Code: code}); err != nil {
		return fmt.Errorf("rendering otp email: %w", err)
	}

	if m.config.Username == "" || m.config.Password == "" {
		m.logger.Warn().Str("email", email).Msg("smtp not configured, logging otp instead of sending")
		m.logger.Info().Str("email", email).Str("otp", code).Msg("registration code")
		return nil
	}

	var message bytes.Buffer
	fmt.Fprintf(&message, "From: %s\r\n", m.config.From)
	fmt.Fprintf(&message, "To: %s\r\n", email)
	fmt.Fprintf(&message, "Subject: CivicAir - Verification Code\r\n")
	fmt.Fprintf(&message, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	message.WriteString("\r\n")
	message.Write(body.Bytes())

	auth := smtp.PlainAuth("", m.config.Username, m.config.Password, m.config.Host)
	addr := fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)
	if err := smtp.SendMail(addr, auth, m.config.From, []string{email}, message.Bytes()); err != nil {
		return fmt.Errorf("sending otp email: %w", err)
	}

	m.logger.Info().Str("email", email).Msg("otp email sent")
	return nil
}

// Ensure SMTPMailer implements Mailer.
var _ Mailer = (*SMTPMailer)(nil)
