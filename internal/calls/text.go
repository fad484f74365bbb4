package calls

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
)

// Reply is the outcome of one text-mode exchange.
type Reply struct {
	State conversation.AgentState `json:"state"`
	Text  string                  `json:"reply"`
	// Action is advisory; the state machine alone decides when the call ends.
	Action      llm.Action                 `json:"action"`
	Booking     *conversation.BookingDraft `json:"booking,omitempty"`
	Appointment *booking.Appointment       `json:"appointment,omitempty"`
	// Fallback is set when the collaborator failed and the fixed fallback
	// utterance was used instead.
	Fallback bool `json:"fallback,omitempty"`
}

// SendMessage folds a caller's typed message, asks the completion
// collaborator for the reply and folds that reply as the assistant turn.
// The reply is treated as delivered as soon as it is returned.
func (m *Manager) SendMessage(ctx context.Context, callID, text string) (Reply, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return Reply{}, ErrEmptyText
	}
	c, err := m.lookup(callID)
	if err != nil {
		return Reply{}, err
	}

	ctx, span := m.tracer.Start(ctx, "calls.send_message")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeText {
		return Reply{}, ErrWrongMode
	}

	if _, err := c.session.SubmitUserTurn(text); err != nil {
		return Reply{}, sessionErr(err)
	}
	c.recordLatest(m.now())
	m.metrics.ObserveTurn(string(ModeText), string(conversation.SpeakerUser))

	replyText, fallback := m.complete(ctx, c)

	result, err := c.session.SubmitAssistantTurn(replyText, "")
	if err != nil {
		return Reply{}, sessionErr(err)
	}
	c.recordLatest(m.now())
	m.metrics.ObserveTurn(string(ModeText), string(conversation.SpeakerAgent))

	action := llm.ClassifyAction(replyText)
	m.observeBookingDuplicate(c, action, result)
	appt := m.commit(ctx, c, result.Booking)

	state, err := c.deliver()
	if err != nil {
		return Reply{}, sessionErr(err)
	}

	return Reply{
		State:       state,
		Text:        replyText,
		Action:      action,
		Booking:     result.Booking,
		Appointment: appt,
		Fallback:    fallback,
	}, nil
}

// complete asks the collaborator for the next reply. Any failure yields the
// fixed fallback utterance.
func (m *Manager) complete(ctx context.Context, c *call) (string, bool) {
	ctx, cancel := context.WithTimeout(ctx, m.cfg.LLMTimeout)
	defer cancel()

	started := time.Now()
	resp, err := m.llm.Complete(ctx, llm.Request{
		System:      []string{llm.SystemPrompt(m.cfg.ClinicName)},
		Messages:    llm.MessagesFromTurns(c.session.History()),
		MaxTokens:   m.cfg.MaxTokens,
		Temperature: m.cfg.Temperature,
	})
	elapsed := time.Since(started).Seconds()

	switch {
	case err != nil:
		reason := "error"
		if errors.Is(err, context.DeadlineExceeded) {
			reason = "timeout"
		}
		m.metrics.ObserveLLMLatency("error", elapsed)
		m.metrics.ObserveLLMFailure(reason)
		m.logger.Warn("completion failed, using fallback utterance", "error", err, "call_id", c.id)
		return llm.FallbackUtterance, true
	case strings.TrimSpace(resp.Text) == "":
		m.metrics.ObserveLLMLatency("empty", elapsed)
		m.metrics.ObserveLLMFailure("empty")
		m.logger.Warn("completion returned no text, using fallback utterance", "call_id", c.id)
		return llm.FallbackUtterance, true
	}
	m.metrics.ObserveLLMLatency("ok", elapsed)
	return strings.TrimSpace(resp.Text), false
}

// observeBookingDuplicate counts confirmations that matched an already
// committed booking.
func (m *Manager) observeBookingDuplicate(c *call, action llm.Action, result conversation.TurnResult) {
	if action.Kind != llm.ActionBook || result.Booking != nil {
		return
	}
	draft, err := c.session.Draft()
	if err != nil || !draft.Complete() {
		return
	}
	m.metrics.ObserveDuplicate("booking")
	m.logger.Debug("repeated confirmation suppressed", "call_id", c.id, "fingerprint", string(draft.Fingerprint()))
}

func sessionErr(err error) error {
	if errors.Is(err, conversation.ErrSessionEnded) {
		return ErrCallNotFound
	}
	return err
}
