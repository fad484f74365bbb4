// Package calls runs dialogue sessions for live calls: it owns the session
// registry, drives the completion collaborator in text mode, folds
// transcription events in voice mode and hands committed bookings to the
// booking dispatcher.
package calls

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/llm"
	"github.com/wolfman30/voice-booking-agent/internal/observability/metrics"
	"github.com/wolfman30/voice-booking-agent/internal/transcript"
	"github.com/wolfman30/voice-booking-agent/pkg/logging"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// Mode is how turns reach a call.
type Mode string

const (
	// ModeText: the caller types, the completion collaborator answers.
	ModeText Mode = "text"
	// ModeVoice: an external voice agent streams both sides as transcripts.
	ModeVoice Mode = "voice"
)

var (
	ErrCallNotFound = errors.New("calls: call not found")
	ErrWrongMode    = errors.New("calls: operation not supported in this call mode")
	ErrEmptyText    = errors.New("calls: text required")
)

// ParseMode defaults to text.
func ParseMode(raw string) (Mode, error) {
	switch Mode(raw) {
	case "", ModeText:
		return ModeText, nil
	case ModeVoice:
		return ModeVoice, nil
	default:
		return "", fmt.Errorf("calls: unknown mode %q", raw)
	}
}

// Dispatcher receives committed bookings.
type Dispatcher interface {
	Dispatch(ctx context.Context, callID string, draft conversation.BookingDraft) (booking.Appointment, error)
}

// Config tunes call handling.
type Config struct {
	ClinicName  string
	Greeting    string
	Location    *time.Location
	MaxTokens   int32
	Temperature float32
	LLMTimeout  time.Duration
}

// Info describes a call.
type Info struct {
	ID        string                  `json:"call_id"`
	Mode      Mode                    `json:"mode"`
	State     conversation.AgentState `json:"state"`
	Greeting  string                  `json:"greeting,omitempty"`
	Muted     bool                    `json:"muted"`
	StartedAt time.Time               `json:"started_at"`
}

type call struct {
	mu        sync.Mutex
	id        string
	mode      Mode
	session   *conversation.Session
	muted     bool
	lines     []transcript.Line
	startedAt time.Time
	greeting  string
	subs      map[chan Event]struct{}
}

// Manager is the registry of live calls. Each call has its own session and
// its own lock, so calls proceed independently.
type Manager struct {
	mu    sync.RWMutex
	calls map[string]*call

	llm        llm.Client
	dispatcher Dispatcher
	archive    transcript.Archive
	metrics    *metrics.CallMetrics
	logger     *logging.Logger
	tracer     trace.Tracer
	cfg        Config
	now        func() time.Time
}

// Option customises a Manager.
type Option func(*Manager)

func WithArchive(a transcript.Archive) Option {
	return func(m *Manager) { m.archive = a }
}

func WithMetrics(cm *metrics.CallMetrics) Option {
	return func(m *Manager) { m.metrics = cm }
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

func NewManager(client llm.Client, dispatcher Dispatcher, cfg Config, logger *logging.Logger, opts ...Option) *Manager {
	if client == nil {
		panic("calls: llm client required")
	}
	if dispatcher == nil {
		panic("calls: booking dispatcher required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Greeting == "" {
		cfg.Greeting = llm.Greeting(cfg.ClinicName)
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = llm.DefaultMaxTokens
	}
	if cfg.LLMTimeout <= 0 {
		cfg.LLMTimeout = 30 * time.Second
	}
	m := &Manager{
		calls:      make(map[string]*call),
		llm:        client,
		dispatcher: dispatcher,
		archive:    transcript.NewMemoryStore(),
		logger:     logger,
		tracer:     otel.Tracer("voicebooking.internal.calls"),
		cfg:        cfg,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// StartCall opens a session for a new call. Text calls have their greeting
// delivered immediately; voice calls wait for PromptDelivered.
func (m *Manager) StartCall(ctx context.Context, mode Mode) (Info, error) {
	_, span := m.tracer.Start(ctx, "calls.start")
	defer span.End()

	now := m.now()
	c := &call{
		id:        uuid.NewString(),
		mode:      mode,
		session:   conversation.StartSession(now.In(m.cfg.Location), conversation.WithGreeting(m.cfg.Greeting)),
		startedAt: now.UTC(),
		greeting:  m.cfg.Greeting,
		subs:      make(map[chan Event]struct{}),
	}
	for _, turn := range c.session.History() {
		c.record(turn, now)
	}
	if mode == ModeText {
		if _, err := c.session.Delivered(); err != nil {
			return Info{}, err
		}
	}

	m.mu.Lock()
	m.calls[c.id] = c
	m.mu.Unlock()

	m.metrics.CallStarted()
	m.logger.Info("call started", "call_id", c.id, "mode", mode)
	return c.info(), nil
}

// Get returns a snapshot of a live call.
func (m *Manager) Get(callID string) (Info, error) {
	c, err := m.lookup(callID)
	if err != nil {
		return Info{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.info(), nil
}

// PromptDelivered reports that the greeting or last response finished playing.
func (m *Manager) PromptDelivered(callID string) (conversation.AgentState, error) {
	c, err := m.lookup(callID)
	if err != nil {
		return conversation.StateIdle, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deliver()
}

// SetMuted toggles whether inbound user speech is folded.
func (m *Manager) SetMuted(callID string, muted bool) (Info, error) {
	c, err := m.lookup(callID)
	if err != nil {
		return Info{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.mode != ModeVoice {
		return Info{}, ErrWrongMode
	}
	c.muted = muted
	m.logger.Info("call mute toggled", "call_id", callID, "muted", muted)
	return c.info(), nil
}

// Draft reports what has been collected so far.
func (m *Manager) Draft(callID string) (conversation.BookingDraft, error) {
	c, err := m.lookup(callID)
	if err != nil {
		return conversation.BookingDraft{}, err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.session.Draft()
}

// Transcript returns the live transcript of an active call, or the archived
// transcript of an ended one.
func (m *Manager) Transcript(ctx context.Context, callID string) ([]transcript.Line, error) {
	if c, err := m.lookup(callID); err == nil {
		c.mu.Lock()
		defer c.mu.Unlock()
		return append([]transcript.Line{}, c.lines...), nil
	}
	lines, err := m.archive.List(ctx, callID)
	if err != nil {
		return nil, err
	}
	if len(lines) == 0 {
		return nil, ErrCallNotFound
	}
	return lines, nil
}

// EndCall archives the transcript and discards the session. Nothing is
// committed on the way out.
func (m *Manager) EndCall(ctx context.Context, callID string) error {
	ctx, span := m.tracer.Start(ctx, "calls.end")
	defer span.End()

	m.mu.Lock()
	c, ok := m.calls[callID]
	delete(m.calls, callID)
	m.mu.Unlock()
	if !ok {
		return ErrCallNotFound
	}

	c.mu.Lock()
	lines := append([]transcript.Line(nil), c.lines...)
	c.session.End()
	c.publish(Event{Type: EventEnded, State: conversation.StateIdle})
	for ch := range c.subs {
		close(ch)
	}
	c.subs = nil
	c.mu.Unlock()

	m.metrics.CallEnded()
	// The call is gone at this point; a failed archive loses the transcript
	// but does not fail the hangup.
	if err := m.archive.Save(ctx, callID, lines); err != nil {
		span.RecordError(err)
		m.metrics.ObserveSinkFailure("archive")
		m.logger.Error("failed to archive transcript", "error", err, "call_id", callID, "lines", len(lines))
		return nil
	}
	m.logger.Info("call ended", "call_id", callID, "lines", len(lines))
	return nil
}

// ActiveCalls is the number of live sessions.
func (m *Manager) ActiveCalls() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.calls)
}

func (m *Manager) lookup(callID string) (*call, error) {
	m.mu.RLock()
	c, ok := m.calls[callID]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrCallNotFound
	}
	return c, nil
}

// commit hands a freshly committed draft to the dispatcher. Dispatch
// failures are logged; the engine has already recorded the booking.
func (m *Manager) commit(ctx context.Context, c *call, draft *conversation.BookingDraft) *booking.Appointment {
	if draft == nil {
		return nil
	}
	appt, err := m.dispatcher.Dispatch(ctx, c.id, *draft)
	if errors.Is(err, booking.ErrAppointmentExists) {
		c.publish(Event{Type: EventBooking, State: c.session.State(), Draft: draft})
		return nil
	}
	if err != nil {
		m.logger.Error("failed to dispatch booking", "error", err, "call_id", c.id, "fingerprint", string(draft.Fingerprint()))
		c.publish(Event{Type: EventBooking, State: c.session.State(), Draft: draft})
		return nil
	}
	c.publish(Event{Type: EventBooking, State: c.session.State(), Draft: draft, Appointment: &appt})
	return &appt
}

func (c *call) info() Info {
	return Info{
		ID:        c.id,
		Mode:      c.mode,
		State:     c.session.State(),
		Greeting:  c.greeting,
		Muted:     c.muted,
		StartedAt: c.startedAt,
	}
}

func (c *call) deliver() (conversation.AgentState, error) {
	state, err := c.session.Delivered()
	if err != nil {
		return state, err
	}
	c.publish(Event{Type: EventState, State: state})
	return state, nil
}

// record appends a folded turn to the transcript and pushes it to
// subscribers.
func (c *call) record(turn conversation.Turn, at time.Time) {
	line := transcript.Line{
		Role:      string(turn.Speaker),
		Text:      turn.Text,
		Index:     turn.SequenceIndex,
		Timestamp: at.UTC(),
	}
	c.lines = append(c.lines, line)
	c.publish(Event{Type: EventTranscript, State: c.session.State(), Line: &line})
}

// recordLatest records the most recent history turn.
func (c *call) recordLatest(at time.Time) {
	history := c.session.History()
	if len(history) == 0 {
		return
	}
	c.record(history[len(history)-1], at)
}
