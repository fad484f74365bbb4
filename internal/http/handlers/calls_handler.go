package handlers

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/transcript"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// CallService is the call layer as seen by HTTP handlers.
type CallService interface {
	StartCall(ctx context.Context, mode calls.Mode) (calls.Info, error)
	Get(callID string) (calls.Info, error)
	PromptDelivered(callID string) (conversation.AgentState, error)
	SendMessage(ctx context.Context, callID, text string) (calls.Reply, error)
	HandleVoiceEvent(ctx context.Context, callID string, evt calls.VoiceEvent) (calls.EventResult, error)
	SetMuted(callID string, muted bool) (calls.Info, error)
	Draft(callID string) (conversation.BookingDraft, error)
	Transcript(ctx context.Context, callID string) ([]transcript.Line, error)
	EndCall(ctx context.Context, callID string) error
	Subscribe(callID string) (<-chan calls.Event, func(), error)
}

// CallsHandler serves the call lifecycle and text-mode endpoints.
type CallsHandler struct {
	calls  CallService
	logger *logging.Logger
}

func NewCallsHandler(svc CallService, logger *logging.Logger) *CallsHandler {
	if svc == nil {
		panic("handlers: call service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CallsHandler{calls: svc, logger: logger}
}

type startCallRequest struct {
	Mode string `json:"mode"`
}

type stateResponse struct {
	CallID string                  `json:"call_id"`
	State  conversation.AgentState `json:"state"`
}

// StartCall handles POST /calls.
func (h *CallsHandler) StartCall(w http.ResponseWriter, r *http.Request) {
	var req startCallRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	mode, err := calls.ParseMode(req.Mode)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	info, err := h.calls.StartCall(r.Context(), mode)
	if err != nil {
		h.logger.Error("failed to start call", "error", err)
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, info)
}

// GetCall handles GET /calls/{callID}.
func (h *CallsHandler) GetCall(w http.ResponseWriter, r *http.Request) {
	info, err := h.calls.Get(chi.URLParam(r, "callID"))
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// PromptDelivered handles POST /calls/{callID}/prompt-delivered.
func (h *CallsHandler) PromptDelivered(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	state, err := h.calls.PromptDelivered(callID)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, stateResponse{CallID: callID, State: state})
}

type messageRequest struct {
	Text string `json:"text"`
}

// SendMessage handles POST /calls/{callID}/messages.
func (h *CallsHandler) SendMessage(w http.ResponseWriter, r *http.Request) {
	var req messageRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	callID := chi.URLParam(r, "callID")
	reply, err := h.calls.SendMessage(r.Context(), callID, req.Text)
	if err != nil {
		h.logger.Warn("text turn failed", "error", err, "call_id", callID)
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

type muteRequest struct {
	Muted bool `json:"muted"`
}

// Mute handles POST /calls/{callID}/mute.
func (h *CallsHandler) Mute(w http.ResponseWriter, r *http.Request) {
	var req muteRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}
	info, err := h.calls.SetMuted(chi.URLParam(r, "callID"), req.Muted)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Draft handles GET /calls/{callID}/draft.
func (h *CallsHandler) Draft(w http.ResponseWriter, r *http.Request) {
	draft, err := h.calls.Draft(chi.URLParam(r, "callID"))
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		conversation.BookingDraft
		Complete bool `json:"complete"`
	}{draft, draft.Complete()})
}

// Transcript handles GET /calls/{callID}/transcript.
func (h *CallsHandler) Transcript(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	lines, err := h.calls.Transcript(r.Context(), callID)
	if err != nil {
		writeCallError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"call_id": callID, "lines": lines})
}

// EndCall handles DELETE /calls/{callID}.
func (h *CallsHandler) EndCall(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")
	if err := h.calls.EndCall(r.Context(), callID); err != nil {
		writeCallError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
