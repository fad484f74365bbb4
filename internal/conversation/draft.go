package conversation

import (
	"time"
)

// BookingDraft is the slot set extracted from a history. It is recomputed
// every time extraction runs and is never stored by the engine.
type BookingDraft struct {
	CustomerName    string      `json:"customer_name"`
	Service         ServiceKind `json:"service"`
	AppointmentTime time.Time   `json:"appointment_time"`
}

// Complete reports whether every slot is filled.
func (d BookingDraft) Complete() bool {
	return d.CustomerName != "" && d.Service != ServiceUnknown && !d.AppointmentTime.IsZero()
}

// BookingFingerprint keys a completed draft. Drafts with equal fields share
// a fingerprint no matter when they were derived.
type BookingFingerprint string

// Fingerprint derives the dedupe key of the draft.
func (d BookingDraft) Fingerprint() BookingFingerprint {
	return BookingFingerprint(d.CustomerName + "|" + d.Service.String() + "|" + d.AppointmentTime.Format(time.RFC3339))
}

// ExtractDraft runs the three slot extractors over the whole history.
func ExtractDraft(reference time.Time, history []Turn) BookingDraft {
	h := NewHistory(history...)
	text := h.Text()
	return BookingDraft{
		CustomerName:    ExtractCustomerName(history),
		Service:         ClassifyService(text),
		AppointmentTime: ResolveAppointmentTime(reference, text),
	}
}
