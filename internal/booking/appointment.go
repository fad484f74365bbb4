// Package booking persists and fans out appointments committed by a call.
package booking

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
)

// StatusConfirmed is the only status the agent ever writes.
const StatusConfirmed = "confirmed"

// ErrAppointmentNotFound is returned when a lookup misses.
var ErrAppointmentNotFound = errors.New("booking: appointment not found")

// ErrAppointmentExists is returned by Store.Save when the same call already
// stored this customer, service and time.
var ErrAppointmentExists = errors.New("booking: appointment already stored")

// Appointment is a committed booking draft.
type Appointment struct {
	ID           string                   `json:"id"`
	CallID       string                   `json:"call_id"`
	CustomerName string                   `json:"customer_name"`
	Service      conversation.ServiceKind `json:"service"`
	Time         time.Time                `json:"time"`
	Status       string                   `json:"status"`
	Notes        string                   `json:"notes,omitempty"`
	CreatedAt    time.Time                `json:"created_at"`
}

// NewAppointment builds a confirmed appointment from a complete draft.
func NewAppointment(callID string, draft conversation.BookingDraft, now time.Time) Appointment {
	return Appointment{
		ID:           uuid.NewString(),
		CallID:       callID,
		CustomerName: draft.CustomerName,
		Service:      draft.Service,
		Time:         draft.AppointmentTime,
		Status:       StatusConfirmed,
		CreatedAt:    now.UTC(),
	}
}

// Store persists appointments.
type Store interface {
	Save(ctx context.Context, appt Appointment) error
	Get(ctx context.Context, id string) (Appointment, error)
	List(ctx context.Context) ([]Appointment, error)
}

// Publisher emits an event per committed appointment.
type Publisher interface {
	Publish(ctx context.Context, appt Appointment) error
}

// Notifier tells clinic staff about a committed appointment.
type Notifier interface {
	NotifyAppointment(ctx context.Context, appt Appointment) error
}
