package service

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"gopkg.in/gomail.v2"

	"invexqr/internal/config"
)

var ErrEmailDisabled = errors.New("email delivery is not configured")

type EmailService interface {
	SendContactEmail(name, email, subject, message string) error
	SendWelcomeEmail(to, firstName string) error
	SendScanMilestoneEmail(to, qrName string, scanCount int64) error
}

type emailService struct {
	dialer      *gomail.Dialer
	from        string
	contactTo   string
	enabled     bool
	emailLogger zerolog.Logger
}

// NewEmailService creates an EmailService over SMTP. Without SMTP credentials
// every send returns ErrEmailDisabled, which callers treat as best-effort.
func NewEmailService(cfg *config.Config, logger zerolog.Logger) EmailService {
	return &emailService{
		dialer:      gomail.NewDialer(cfg.SMTPHost, cfg.SMTPPort, cfg.SMTPUser, cfg.SMTPPassword),
		from:        cfg.EmailFrom,
		contactTo:   cfg.ContactRecipient,
		enabled:     cfg.SMTPUser != "" && cfg.SMTPPassword != "",
		emailLogger: logger.With().Str("service", "EmailService").Logger(),
	}
}

func (s *emailService) send(to, subject, htmlBody string) error {
	if !s.enabled {
		return ErrEmailDisabled
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.from)
	m.SetHeader("To", to)
	m.SetHeader("Subject", subject)
	m.SetBody("text/html", htmlBody)
	if err := s.dialer.DialAndSend(m); err != nil {
		return fmt.Errorf("send email to %s: %w", to, err)
	}
	return nil
}

func (s *emailService) SendContactEmail(name, email, subject, message string) error {
	body := fmt.Sprintf(
		"<h2>New contact form submission</h2><p><strong>Name:</strong> %s</p><p><strong>Email:</strong> %s</p><p><strong>Subject:</strong> %s</p><p>%s</p>",
		name, email, subject, message,
	)
	if err := s.send(s.contactTo, "[InvexQR Contact] "+subject, body); err != nil {
		return err
	}
	s.emailLogger.Info().Str("from_email", email).Msg("Contact email delivered")
	return nil
}

func (s *emailService) SendWelcomeEmail(to, firstName string) error {
	greeting := "there"
	if firstName != "" {
		greeting = firstName
	}
	body := fmt.Sprintf(
		"<h2>Welcome to InvexQR</h2><p>Hi %s,</p><p>Your account is ready. Create your first QR code and start tracking scans in real time.</p>",
		greeting,
	)
	return s.send(to, "Welcome to InvexQR", body)
}

func (s *emailService) SendScanMilestoneEmail(to, qrName string, scanCount int64) error {
	body := fmt.Sprintf(
		"<h2>Scan milestone reached</h2><p>Your QR code <strong>%s</strong> just passed %d scans. Check your dashboard for the full breakdown.</p>",
		qrName, scanCount,
	)
	return s.send(to, fmt.Sprintf("%s reached %d scans", qrName, scanCount), body)
}
