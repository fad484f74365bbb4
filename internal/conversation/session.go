package conversation

import (
	"errors"
	"strings"
	"time"
)

// DefaultGreeting is the opening prompt spoken when a call connects.
const DefaultGreeting = "Hello, thanks for calling Dr. Smith's clinic. May I have your full name please?"

// ErrSessionEnded is returned by every operation on a session after End.
var ErrSessionEnded = errors.New("conversation: session has ended")

// Session owns the state of one call: its history, its dedupe sets and its
// interaction state. A Session is not safe for concurrent use; exactly one
// caller drives it at a time.
type Session struct {
	reference time.Time
	history   History
	dedupe    *DedupeTracker
	machine   *StateMachine
	ended     bool
}

// Option customises a new session.
type Option func(*sessionOptions)

type sessionOptions struct {
	greeting string
}

// WithGreeting overrides the opening prompt. An empty greeting skips it and
// leaves the session Listening.
func WithGreeting(text string) Option {
	return func(o *sessionOptions) {
		o.greeting = text
	}
}

// TurnResult is returned for every assistant turn and every utterance event.
type TurnResult struct {
	State AgentState `json:"state"`
	// Booking is set only when this turn committed a new booking.
	Booking *BookingDraft `json:"booking,omitempty"`
	// Duplicate is set when the utterance event was already folded earlier
	// and was ignored.
	Duplicate bool `json:"duplicate,omitempty"`
}

// StartSession opens a call anchored at reference. Relative dates in the
// conversation resolve against that instant. The session starts Speaking
// its greeting; call Delivered once it has been played.
func StartSession(reference time.Time, opts ...Option) *Session {
	o := sessionOptions{greeting: DefaultGreeting}
	for _, opt := range opts {
		opt(&o)
	}
	s := &Session{
		reference: reference,
		dedupe:    NewDedupeTracker(),
		machine:   NewStateMachine(),
	}
	if strings.TrimSpace(o.greeting) == "" {
		s.machine.Greet()
		s.machine.Delivered()
		return s
	}
	s.history.Append(SpeakerAgent, o.greeting)
	s.machine.Greet()
	return s
}

// State returns the current interaction state.
func (s *Session) State() AgentState {
	return s.machine.State()
}

// History returns a copy of the turns folded so far.
func (s *Session) History() []Turn {
	return s.history.Turns()
}

// Ended reports whether End was called.
func (s *Session) Ended() bool {
	return s.ended
}

// SubmitUserTurn appends a user utterance and moves to Processing.
func (s *Session) SubmitUserTurn(text string) (AgentState, error) {
	if s.ended {
		return StateIdle, ErrSessionEnded
	}
	s.history.Append(SpeakerUser, text)
	return s.machine.UserSpoke(), nil
}

// SubmitAssistantTurn folds an agent utterance into history and, when it
// sounds like a confirmation, tries to commit the booking. fp is the
// utterance fingerprint of an event-sourced turn; pass "" for turns the
// caller produced itself.
func (s *Session) SubmitAssistantTurn(text string, fp UtteranceFingerprint) (TurnResult, error) {
	if s.ended {
		return TurnResult{State: StateIdle}, ErrSessionEnded
	}
	if fp != "" && !s.dedupe.AdmitUtterance(fp) {
		return TurnResult{State: s.machine.State(), Duplicate: true}, nil
	}

	s.history.Append(SpeakerAgent, text)
	result := TurnResult{State: s.machine.AgentResponded(text)}
	if ShouldAttemptFinalization(text) {
		result.Booking = s.finalize()
	}
	return result, nil
}

// IngestUtterance folds a transcription event delivered by a streaming
// source. index is the position the source assigned to the event; the same
// (speaker, text, index) is folded at most once.
func (s *Session) IngestUtterance(speaker Speaker, text string, index int) (TurnResult, error) {
	if s.ended {
		return TurnResult{State: StateIdle}, ErrSessionEnded
	}
	fp := NewUtteranceFingerprint(speaker, text, index)
	if speaker == SpeakerAgent {
		return s.SubmitAssistantTurn(text, fp)
	}
	if !s.dedupe.AdmitUtterance(fp) {
		return TurnResult{State: s.machine.State(), Duplicate: true}, nil
	}
	state, err := s.SubmitUserTurn(text)
	return TurnResult{State: state}, err
}

// Delivered marks the current prompt or response as fully spoken.
func (s *Session) Delivered() (AgentState, error) {
	if s.ended {
		return StateIdle, ErrSessionEnded
	}
	return s.machine.Delivered(), nil
}

// Draft extracts the current slot set without committing anything.
func (s *Session) Draft() (BookingDraft, error) {
	if s.ended {
		return BookingDraft{}, ErrSessionEnded
	}
	return ExtractDraft(s.reference, s.history.turns), nil
}

// End discards the session. Nothing is committed on the way out.
func (s *Session) End() {
	s.ended = true
	s.history = History{}
	s.dedupe = NewDedupeTracker()
	s.machine = NewStateMachine()
}

// finalize extracts a draft and returns it if it is complete and has not been
// committed before. Incomplete drafts are not an error.
func (s *Session) finalize() *BookingDraft {
	draft := ExtractDraft(s.reference, s.history.turns)
	if !draft.Complete() {
		return nil
	}
	if !s.dedupe.AdmitBooking(draft.Fingerprint()) {
		return nil
	}
	return &draft
}
