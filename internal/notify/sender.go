package notify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// DefaultFromName signs staff emails when EMAIL_FROM_NAME is unset.
const DefaultFromName = "Clinic Booking Agent"

var errNoRecipient = errors.New("notify: recipient required")

// From is the sender identity every provider signs with.
type From struct {
	Address string
	Name    string
}

func (f From) withDefaults() From {
	if strings.TrimSpace(f.Name) == "" {
		f.Name = DefaultFromName
	}
	return f
}

// String renders `Name <address>`.
func (f From) String() string {
	return fmt.Sprintf("%s <%s>", f.Name, f.Address)
}

// SenderConfig selects and configures an EmailSender.
type SenderConfig struct {
	Provider       string // sendgrid, ses or stub
	SendGridAPIKey string
	FromEmail      string
	FromName       string
}

// NewEmailSender builds the configured sender. Unknown providers and
// providers missing credentials fall back to the stub.
func NewEmailSender(cfg SenderConfig, ses *sesv2.Client, logger *logging.Logger) EmailSender {
	if logger == nil {
		logger = logging.Default()
	}
	from := From{Address: cfg.FromEmail, Name: cfg.FromName}
	switch strings.ToLower(strings.TrimSpace(cfg.Provider)) {
	case "sendgrid":
		if s := NewSendGridSender(cfg.SendGridAPIKey, from, logger); s != nil {
			return s
		}
		logger.Warn("sendgrid selected without api key, using stub email sender")
	case "ses":
		if ses != nil {
			return newSESSender(ses, from, logger)
		}
		logger.Warn("ses selected without client, using stub email sender")
	}
	return NewStubEmailSender(logger)
}

func checkRecipient(msg EmailMessage) error {
	if strings.TrimSpace(msg.To) == "" {
		return errNoRecipient
	}
	return nil
}
