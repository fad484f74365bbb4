package bootstrap

import (
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/wolfman30/voice-booking-agent/internal/booking"
	appconfig "github.com/wolfman30/voice-booking-agent/internal/config"
	"github.com/wolfman30/voice-booking-agent/internal/notify"
	"github.com/wolfman30/voice-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// BuildAppointmentStore prefers Postgres and falls back to memory.
func BuildAppointmentStore(pool *pgxpool.Pool, logger *logging.Logger) booking.Store {
	if logger == nil {
		logger = logging.Default()
	}
	if pool == nil {
		logger.Warn("no database configured; appointments are kept in memory only")
		return booking.NewMemoryStore()
	}
	return booking.NewPostgresStore(pool)
}

// BuildDispatcher wires the appointment store with the optional SQS event
// publisher and staff email notifier.
func BuildDispatcher(cfg *appconfig.Config, store booking.Store, awsCfg *aws.Config, callMetrics *metrics.CallMetrics, logger *logging.Logger) *booking.Dispatcher {
	if logger == nil {
		logger = logging.Default()
	}
	opts := []booking.DispatcherOption{booking.WithMetrics(callMetrics)}

	if cfg != nil && strings.TrimSpace(cfg.BookingEventsQueueURL) != "" {
		if awsCfg == nil {
			logger.Warn("booking events queue configured without aws config; events disabled")
		} else {
			queue := booking.NewSQSQueue(sqs.NewFromConfig(*awsCfg), cfg.BookingEventsQueueURL)
			opts = append(opts, booking.WithPublisher(booking.NewEventPublisher(queue, logger)))
			logger.Info("booking events enabled", "queue_url", cfg.BookingEventsQueueURL)
		}
	}

	if cfg != nil && strings.TrimSpace(cfg.StaffNotifyEmail) != "" {
		var sesClient *sesv2.Client
		if awsCfg != nil && cfg.EmailProvider == "ses" {
			sesClient = sesv2.NewFromConfig(*awsCfg)
		}
		sender := notify.NewEmailSender(notify.SenderConfig{
			Provider:       cfg.EmailProvider,
			SendGridAPIKey: cfg.SendGridAPIKey,
			FromEmail:      cfg.EmailFromAddress,
			FromName:       cfg.EmailFromName,
		}, sesClient, logger)
		opts = append(opts, booking.WithNotifier(notify.NewBookingNotifier(sender, notify.BookingNotifierConfig{
			ClinicName: cfg.ClinicName,
			StaffEmail: cfg.StaffNotifyEmail,
			Location:   cfg.Location(),
		}, logger)))
		logger.Info("staff booking notifications enabled", "provider", cfg.EmailProvider)
	}

	return booking.NewDispatcher(store, logger, opts...)
}
