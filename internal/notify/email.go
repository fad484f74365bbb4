package notify

import (
	"context"
	"fmt"

	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// EmailSender delivers one staff email.
type EmailSender interface {
	Send(ctx context.Context, msg EmailMessage) error
}

// EmailMessage is a staff email. HTML is optional; providers fall back to
// the plain body.
type EmailMessage struct {
	To      string
	ToName  string
	Subject string
	Body    string
	HTML    string
}

// SendGridSender delivers through the SendGrid v3 API.
type SendGridSender struct {
	client *sendgrid.Client
	from   From
	logger *logging.Logger
}

// NewSendGridSender returns nil without an API key so callers can fall back.
func NewSendGridSender(apiKey string, from From, logger *logging.Logger) *SendGridSender {
	if apiKey == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SendGridSender{
		client: sendgrid.NewSendClient(apiKey),
		from:   from.withDefaults(),
		logger: logger,
	}
}

func (s *SendGridSender) Send(ctx context.Context, msg EmailMessage) error {
	if s.client == nil {
		return fmt.Errorf("notify: sendgrid client not configured")
	}
	if err := checkRecipient(msg); err != nil {
		return err
	}

	htmlBody := msg.HTML
	if htmlBody == "" {
		htmlBody = msg.Body
	}
	message := mail.NewSingleEmail(
		mail.NewEmail(s.from.Name, s.from.Address),
		msg.Subject,
		mail.NewEmail(msg.ToName, msg.To),
		msg.Body,
		htmlBody,
	)

	resp, err := s.client.SendWithContext(ctx, message)
	if err != nil {
		return fmt.Errorf("notify: sendgrid send: %w", err)
	}
	if resp.StatusCode >= 400 {
		s.logger.Error("sendgrid rejected staff email", "status", resp.StatusCode, "body", resp.Body, "to", msg.To)
		return fmt.Errorf("notify: sendgrid returned status %d", resp.StatusCode)
	}
	s.logger.Info("staff email sent", "provider", "sendgrid", "to", msg.To, "subject", msg.Subject)
	return nil
}

// StubEmailSender only logs. Used when no provider is configured.
type StubEmailSender struct {
	logger *logging.Logger
}

func NewStubEmailSender(logger *logging.Logger) *StubEmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &StubEmailSender{logger: logger}
}

func (s *StubEmailSender) Send(_ context.Context, msg EmailMessage) error {
	if err := checkRecipient(msg); err != nil {
		return err
	}
	s.logger.Info("staff email not sent, no provider configured", "to", msg.To, "subject", msg.Subject)
	return nil
}

var (
	_ EmailSender = (*SendGridSender)(nil)
	_ EmailSender = (*StubEmailSender)(nil)
)
