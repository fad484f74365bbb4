package notify

import (
	"context"
	"fmt"
	"html"
	"strings"
	"time"

	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// BookingNotifierConfig holds the staff notification target.
type BookingNotifierConfig struct {
	ClinicName string
	StaffEmail string
	// Location renders appointment times for staff. Defaults to UTC.
	Location *time.Location
}

// BookingNotifier emails clinic staff a summary of every appointment the
// agent commits.
type BookingNotifier struct {
	email  EmailSender
	config BookingNotifierConfig
	logger *logging.Logger
}

func NewBookingNotifier(email EmailSender, cfg BookingNotifierConfig, logger *logging.Logger) *BookingNotifier {
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	return &BookingNotifier{email: email, config: cfg, logger: logger}
}

// NotifyAppointment sends the summary. Missing sender or recipient is a
// logged no-op.
func (n *BookingNotifier) NotifyAppointment(ctx context.Context, appt booking.Appointment) error {
	if n.email == nil || n.config.StaffEmail == "" {
		n.logger.Warn("notify: no staff email configured", "appointment_id", appt.ID)
		return nil
	}

	msg := EmailMessage{
		To:      n.config.StaffEmail,
		Subject: fmt.Sprintf("New Appointment: %s (%s)", valueOrNA(appt.CustomerName), appt.Service),
		Body:    FormatAppointmentSummary(appt, n.config.Location),
		HTML:    FormatAppointmentSummaryHTML(appt, n.config.ClinicName, n.config.Location),
	}
	if err := n.email.Send(ctx, msg); err != nil {
		n.logger.Error("notify: failed to send appointment email",
			"error", err,
			"appointment_id", appt.ID,
			"call_id", appt.CallID,
			"to", n.config.StaffEmail,
		)
		return fmt.Errorf("notify: appointment email: %w", err)
	}
	n.logger.Info("notify: appointment email sent", "appointment_id", appt.ID, "to", n.config.StaffEmail)
	return nil
}

// FormatAppointmentSummary renders a plain-text summary.
func FormatAppointmentSummary(appt booking.Appointment, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Customer: %s\n", valueOrNA(appt.CustomerName))
	fmt.Fprintf(&b, "Service: %s\n", appt.Service)
	fmt.Fprintf(&b, "When: %s\n", formatWhen(appt.Time, loc))
	fmt.Fprintf(&b, "Status: %s\n", appt.Status)
	if appt.Notes != "" {
		fmt.Fprintf(&b, "Notes: %s\n", appt.Notes)
	}
	fmt.Fprintf(&b, "Call: %s\n", valueOrNA(appt.CallID))
	return b.String()
}

// FormatAppointmentSummaryHTML renders the email body.
func FormatAppointmentSummaryHTML(appt booking.Appointment, clinicName string, loc *time.Location) string {
	var notesRow string
	if appt.Notes != "" {
		notesRow = fmt.Sprintf(`<tr><td style="padding:6px 12px;font-weight:bold;">Notes</td><td style="padding:6px 12px;">%s</td></tr>`, html.EscapeString(appt.Notes))
	}
	if clinicName == "" {
		clinicName = "the clinic"
	}

	return fmt.Sprintf(`<div style="font-family:sans-serif;max-width:600px;">
<h2 style="color:#333;">New Appointment</h2>
<table style="border-collapse:collapse;width:100%%;">
<tr><td style="padding:6px 12px;font-weight:bold;">Customer</td><td style="padding:6px 12px;">%s</td></tr>
<tr><td style="padding:6px 12px;font-weight:bold;">Service</td><td style="padding:6px 12px;">%s</td></tr>
<tr><td style="padding:6px 12px;font-weight:bold;">When</td><td style="padding:6px 12px;">%s</td></tr>
%s
</table>
<p style="color:#666;font-size:12px;">Booked by the voice assistant for %s.</p>
</div>`,
		html.EscapeString(valueOrNA(appt.CustomerName)),
		html.EscapeString(appt.Service.String()),
		html.EscapeString(formatWhen(appt.Time, loc)),
		notesRow,
		html.EscapeString(clinicName),
	)
}

func formatWhen(t time.Time, loc *time.Location) string {
	if loc == nil {
		loc = time.UTC
	}
	return t.In(loc).Format("Monday, January 2 at 3:04 PM MST")
}

func valueOrNA(s string) string {
	if strings.TrimSpace(s) == "" {
		return "N/A"
	}
	return s
}

var _ booking.Notifier = (*BookingNotifier)(nil)
