package calls

import (
	"context"
	"strings"

	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
)

// Voice agent event types.
const (
	VoiceEventTranscript  = "transcript"
	VoiceEventSpeechStart = "speech-start"
	VoiceEventSpeechEnd   = "speech-end"
)

// VoiceEvent is one message from the external voice agent. Transcript events
// carry the role and the index the agent assigned to the utterance; an
// empty Type means transcript.
type VoiceEvent struct {
	Type       string `json:"type,omitempty"`
	Role       string `json:"role"`
	Transcript string `json:"transcript"`
	Index      int    `json:"index"`
}

// EventResult reports what a voice event did.
type EventResult struct {
	// Accepted is false for redelivered, muted, system or unknown events.
	Accepted    bool                       `json:"accepted"`
	State       conversation.AgentState    `json:"state"`
	Duplicate   bool                       `json:"duplicate,omitempty"`
	Action      *llm.Action                `json:"action,omitempty"`
	Booking     *conversation.BookingDraft `json:"booking,omitempty"`
	Appointment *booking.Appointment       `json:"appointment,omitempty"`
}

// HandleVoiceEvent folds one event from the voice agent.
func (m *Manager) HandleVoiceEvent(ctx context.Context, callID string, evt VoiceEvent) (EventResult, error) {
	c, err := m.lookup(callID)
	if err != nil {
		return EventResult{}, err
	}

	ctx, span := m.tracer.Start(ctx, "calls.voice_event")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeVoice {
		return EventResult{}, ErrWrongMode
	}

	switch evt.Type {
	case "", VoiceEventTranscript:
	case VoiceEventSpeechEnd:
		state, err := c.deliver()
		if err != nil {
			return EventResult{}, sessionErr(err)
		}
		return EventResult{Accepted: true, State: state}, nil
	case VoiceEventSpeechStart:
		return EventResult{Accepted: true, State: c.session.State()}, nil
	default:
		// Acknowledged but ignored so the voice platform does not retry it.
		return EventResult{State: c.session.State()}, nil
	}

	text := strings.TrimSpace(evt.Transcript)
	speaker, ok := conversation.ParseSpeaker(evt.Role)
	if !ok || text == "" {
		return EventResult{State: c.session.State()}, nil
	}
	if speaker == conversation.SpeakerUser && c.muted {
		m.logger.Debug("muted call dropped user transcript", "call_id", c.id, "index", evt.Index)
		return EventResult{State: c.session.State()}, nil
	}

	result, err := c.session.IngestUtterance(speaker, text, evt.Index)
	if err != nil {
		return EventResult{}, sessionErr(err)
	}
	if result.Duplicate {
		m.metrics.ObserveDuplicate("utterance")
		m.logger.Debug("redelivered utterance ignored", "call_id", c.id, "speaker", speaker, "index", evt.Index)
		return EventResult{State: result.State, Duplicate: true}, nil
	}

	c.recordLatest(m.now())
	m.metrics.ObserveTurn(string(ModeVoice), string(speaker))

	out := EventResult{Accepted: true, State: result.State, Booking: result.Booking}
	if speaker == conversation.SpeakerAgent {
		action := llm.ClassifyAction(text)
		out.Action = &action
		m.observeBookingDuplicate(c, action, result)
	}
	out.Appointment = m.commit(ctx, c, result.Booking)
	return out, nil
}
