package booking

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// EventTypeAppointmentBooked labels events emitted for a new appointment.
const EventTypeAppointmentBooked = "appointment.booked.v1"

// AppointmentEvent is the queue payload.
type AppointmentEvent struct {
	Type        string      `json:"type"`
	Appointment Appointment `json:"appointment"`
	OccurredAt  time.Time   `json:"occurred_at"`
}

// EventPublisher encodes appointments as events and enqueues them.
type EventPublisher struct {
	queue  queueClient
	logger *logging.Logger
	now    func() time.Time
}

func NewEventPublisher(queue queueClient, logger *logging.Logger) *EventPublisher {
	if queue == nil {
		panic("booking: queue cannot be nil")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &EventPublisher{queue: queue, logger: logger, now: time.Now}
}

func (p *EventPublisher) Publish(ctx context.Context, appt Appointment) error {
	body, err := json.Marshal(AppointmentEvent{
		Type:        EventTypeAppointmentBooked,
		Appointment: appt,
		OccurredAt:  p.now().UTC(),
	})
	if err != nil {
		return fmt.Errorf("booking: encode event: %w", err)
	}
	if err := p.queue.Send(ctx, string(body)); err != nil {
		return fmt.Errorf("booking: failed to enqueue event: %w", err)
	}
	p.logger.Debug("appointment event enqueued", "appointment_id", appt.ID, "call_id", appt.CallID)
	return nil
}

var _ Publisher = (*EventPublisher)(nil)
