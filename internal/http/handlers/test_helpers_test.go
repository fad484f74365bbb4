package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// Wednesday 2025-01-15 10:30 UTC.
var testNow = time.Date(2025, 1, 15, 10, 30, 0, 0, time.UTC)

type testEnv struct {
	manager    *calls.Manager
	dispatcher *booking.Dispatcher
	router     chi.Router
}

func newTestEnv(t *testing.T) testEnv {
	t.Helper()
	logger := logging.New("error")
	dispatcher := booking.NewDispatcher(booking.NewMemoryStore(), logger)
	manager := calls.NewManager(llm.ScriptedClient{}, dispatcher, calls.Config{}, logger,
		calls.WithClock(func() time.Time { return testNow }),
	)

	callsHandler := NewCallsHandler(manager, logger)
	voiceHandler := NewVoiceAIHandler(manager, logger)
	streamHandler := NewStreamHandler(manager, nil, logger)
	adminHandler := NewAdminAppointmentsHandler(dispatcher, logger)

	r := chi.NewRouter()
	r.Get("/health", HealthCheck)
	r.Post("/calls", callsHandler.StartCall)
	r.Route("/calls/{callID}", func(c chi.Router) {
		c.Get("/", callsHandler.GetCall)
		c.Delete("/", callsHandler.EndCall)
		c.Post("/prompt-delivered", callsHandler.PromptDelivered)
		c.Post("/messages", callsHandler.SendMessage)
		c.Post("/events", voiceHandler.HandleEvent)
		c.Post("/mute", callsHandler.Mute)
		c.Get("/draft", callsHandler.Draft)
		c.Get("/transcript", callsHandler.Transcript)
		c.Get("/stream", streamHandler.Stream)
	})
	r.Get("/admin/appointments", adminHandler.ListAppointments)
	r.Get("/admin/appointments/{appointmentID}", adminHandler.GetAppointment)

	return testEnv{manager: manager, dispatcher: dispatcher, router: r}
}

func (e testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if raw, ok := body.(string); ok {
			buf.WriteString(raw)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	if err := json.NewDecoder(rec.Body).Decode(&out); err != nil {
		t.Fatalf("decode response: %v (body=%q)", err, rec.Body.String())
	}
	return out
}

func (e testEnv) startCall(t *testing.T, mode string) calls.Info {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/calls", map[string]string{"mode": mode})
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
	}
	return decodeBody[calls.Info](t, rec)
}
