package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wolfman30/voice-booking-agent/internal/calls"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
)

// VoiceAIHandler receives events from the external voice agent. The agent
// owns speech recognition, speech synthesis and the reply model; it posts
// every finalized transcript (both caller and assistant) and its
// speech-start/speech-end notifications here so the call's dialogue engine
// can track slots and commit the booking.
type VoiceAIHandler struct {
	calls  CallService
	logger *logging.Logger
}

func NewVoiceAIHandler(svc CallService, logger *logging.Logger) *VoiceAIHandler {
	if svc == nil {
		panic("handlers: call service required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &VoiceAIHandler{calls: svc, logger: logger}
}

// HandleEvent is the HTTP handler for POST /calls/{callID}/events.
func (h *VoiceAIHandler) HandleEvent(w http.ResponseWriter, r *http.Request) {
	callID := chi.URLParam(r, "callID")

	var evt calls.VoiceEvent
	if err := decodeJSON(r, &evt); err != nil {
		h.logger.Warn("voice-ai: failed to parse event", "error", err, "call_id", callID)
		writeError(w, http.StatusBadRequest, "invalid json")
		return
	}

	res, err := h.calls.HandleVoiceEvent(r.Context(), callID, evt)
	if err != nil {
		h.logger.Warn("voice-ai: event rejected", "error", err, "call_id", callID, "type", evt.Type)
		writeCallError(w, err)
		return
	}

	h.logger.Debug("voice-ai: event handled",
		"call_id", callID,
		"type", evt.Type,
		"role", evt.Role,
		"index", evt.Index,
		"accepted", res.Accepted,
		"state", res.State,
	)
	writeJSON(w, http.StatusOK, res)
}
