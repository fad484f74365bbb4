package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// Dispatcher turns a committed draft into an appointment and hands it to
// every configured sink. The store write must succeed; publisher and
// notifier failures are logged and counted but never undo the booking.
type Dispatcher struct {
	store     Store
	publisher Publisher
	notifier  Notifier
	metrics   *metrics.CallMetrics
	logger    *logging.Logger
	now       func() time.Time
}

// DispatcherOption customises a Dispatcher.
type DispatcherOption func(*Dispatcher)

func WithPublisher(p Publisher) DispatcherOption {
	return func(d *Dispatcher) { d.publisher = p }
}

func WithNotifier(n Notifier) DispatcherOption {
	return func(d *Dispatcher) { d.notifier = n }
}

func WithMetrics(m *metrics.CallMetrics) DispatcherOption {
	return func(d *Dispatcher) { d.metrics = m }
}

func NewDispatcher(store Store, logger *logging.Logger, opts ...DispatcherOption) *Dispatcher {
	if store == nil {
		panic("booking: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	d := &Dispatcher{store: store, logger: logger, now: time.Now}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// Dispatch records a committed draft for callID. A draft the store already
// holds for that call returns ErrAppointmentExists and reaches no other sink.
func (d *Dispatcher) Dispatch(ctx context.Context, callID string, draft conversation.BookingDraft) (Appointment, error) {
	if !draft.Complete() {
		return Appointment{}, errors.New("booking: draft is incomplete")
	}
	appt := NewAppointment(callID, draft, d.now())

	if err := d.store.Save(ctx, appt); err != nil {
		if errors.Is(err, ErrAppointmentExists) {
			d.metrics.ObserveDuplicate("booking")
			d.logger.Info("appointment already stored", "call_id", callID, "service", appt.Service.String(), "time", appt.Time)
			return Appointment{}, err
		}
		d.metrics.ObserveSinkFailure("store")
		return Appointment{}, fmt.Errorf("booking: save: %w", err)
	}
	d.metrics.ObserveBooking(appt.Service.String())
	d.logger.Info("appointment booked",
		"call_id", callID,
		"appointment_id", appt.ID,
		"service", appt.Service.String(),
		"time", appt.Time,
	)

	if d.publisher != nil {
		if err := d.publisher.Publish(ctx, appt); err != nil {
			d.metrics.ObserveSinkFailure("queue")
			d.logger.Error("failed to publish appointment event", "error", err, "appointment_id", appt.ID)
		}
	}
	if d.notifier != nil {
		if err := d.notifier.NotifyAppointment(ctx, appt); err != nil {
			d.metrics.ObserveSinkFailure("notify")
			d.logger.Error("failed to notify staff", "error", err, "appointment_id", appt.ID)
		}
	}
	return appt, nil
}

// Appointments lists stored appointments.
func (d *Dispatcher) Appointments(ctx context.Context) ([]Appointment, error) {
	return d.store.List(ctx)
}

// Appointment returns one stored appointment or ErrAppointmentNotFound.
func (d *Dispatcher) Appointment(ctx context.Context, id string) (Appointment, error) {
	return d.store.Get(ctx, id)
}
