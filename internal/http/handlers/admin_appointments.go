package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/http/middleware"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

const (
	defaultAppointmentPageSize = 50
	maxAppointmentPageSize     = 200
)

// AppointmentLister is the read side of the booking store.
type AppointmentLister interface {
	Appointments(ctx context.Context) ([]booking.Appointment, error)
	Appointment(ctx context.Context, id string) (booking.Appointment, error)
}

// AdminAppointmentsHandler serves the staff dashboard's appointment views.
type AdminAppointmentsHandler struct {
	appointments AppointmentLister
	logger       *logging.Logger
}

// NewAdminAppointmentsHandler creates a new admin appointments handler.
func NewAdminAppointmentsHandler(appointments AppointmentLister, logger *logging.Logger) *AdminAppointmentsHandler {
	if appointments == nil {
		panic("handlers: appointment lister required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &AdminAppointmentsHandler{appointments: appointments, logger: logger}
}

// AppointmentsListResponse is a page of appointments ordered by time.
type AppointmentsListResponse struct {
	Appointments []booking.Appointment `json:"appointments"`
	Total        int                   `json:"total"`
	Page         int                   `json:"page"`
	PageSize     int                   `json:"page_size"`
	TotalPages   int                   `json:"total_pages"`
}

// ListAppointments handles GET /admin/appointments.
// Query params: service, from (RFC3339), page, page_size.
func (h *AdminAppointmentsHandler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var service conversation.ServiceKind
	if raw := q.Get("service"); raw != "" {
		kind, ok := conversation.ParseServiceKind(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown service")
			return
		}
		service = kind
	}
	var from time.Time
	if raw := q.Get("from"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "from must be RFC3339")
			return
		}
		from = parsed
	}
	page := positiveInt(q.Get("page"), 1)
	pageSize := positiveInt(q.Get("page_size"), defaultAppointmentPageSize)
	if pageSize > maxAppointmentPageSize {
		pageSize = maxAppointmentPageSize
	}

	all, err := h.appointments.Appointments(r.Context())
	if err != nil {
		h.logger.Error("failed to list appointments", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list appointments")
		return
	}

	filtered := make([]booking.Appointment, 0, len(all))
	for _, appt := range all {
		if service != conversation.ServiceUnknown && appt.Service != service {
			continue
		}
		if !from.IsZero() && appt.Time.Before(from) {
			continue
		}
		filtered = append(filtered, appt)
	}

	total := len(filtered)
	totalPages := (total + pageSize - 1) / pageSize
	// Pages past the end are empty; the offset is only computed for pages
	// that exist so a huge page number cannot overflow.
	start := total
	if page <= totalPages {
		start = (page - 1) * pageSize
	}
	end := start + pageSize
	if end > total {
		end = total
	}

	writeJSON(w, http.StatusOK, AppointmentsListResponse{
		Appointments: filtered[start:end],
		Total:        total,
		Page:         page,
		PageSize:     pageSize,
		TotalPages:   totalPages,
	})
}

// GetAppointment handles GET /admin/appointments/{appointmentID}.
func (h *AdminAppointmentsHandler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "appointmentID")
	appt, err := h.appointments.Appointment(r.Context(), id)
	if errors.Is(err, booking.ErrAppointmentNotFound) {
		writeError(w, http.StatusNotFound, "appointment not found")
		return
	}
	if err != nil {
		h.logger.Error("failed to load appointment", "error", err, "appointment_id", id)
		writeError(w, http.StatusInternalServerError, "failed to load appointment")
		return
	}
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok {
		h.logger.Info("appointment viewed", "appointment_id", id, "admin", claims.Subject)
	}
	writeJSON(w, http.StatusOK, appt)
}

func positiveInt(raw string, fallback int) int {
	n, err := strconv.Atoi(raw)
	if err != nil || n < 1 {
		return fallback
	}
	return n
}

// HealthCheck returns a simple health check response.
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
