package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

type sesAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// SESSender delivers through Amazon SES v2.
type SESSender struct {
	client sesAPI
	from   From
	logger *logging.Logger
}

func newSESSender(client sesAPI, from From, logger *logging.Logger) *SESSender {
	if client == nil {
		panic("notify: ses client required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &SESSender{client: client, from: from.withDefaults(), logger: logger}
}

func (s *SESSender) Send(ctx context.Context, msg EmailMessage) error {
	if err := checkRecipient(msg); err != nil {
		return err
	}

	body := &types.Body{}
	if msg.Body != "" {
		body.Text = utf8Content(msg.Body)
	}
	if msg.HTML != "" {
		body.Html = utf8Content(msg.HTML)
	}
	out, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from.String()),
		Destination:      &types.Destination{ToAddresses: []string{msg.To}},
		Content: &types.EmailContent{
			Simple: &types.Message{Subject: utf8Content(msg.Subject), Body: body},
		},
	})
	if err != nil {
		return fmt.Errorf("notify: ses send: %w", err)
	}
	s.logger.Info("staff email sent", "provider", "ses", "to", msg.To, "subject", msg.Subject, "message_id", aws.ToString(out.MessageId))
	return nil
}

func utf8Content(data string) *types.Content {
	return &types.Content{Data: aws.String(data), Charset: aws.String("UTF-8")}
}

var _ EmailSender = (*SESSender)(nil)
