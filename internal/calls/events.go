package calls

import (
	"github.com/wolfman30/voice-booking-agent/internal/booking"
	"github.com/wolfman30/voice-booking-agent/internal/conversation"
	"github.com/wolfman30/voice-booking-agent/internal/transcript"
)

// EventType labels what changed on a call.
type EventType string

const (
	EventTranscript EventType = "transcript"
	EventState      EventType = "state"
	EventBooking    EventType = "booking"
	EventEnded      EventType = "ended"
)

// Event is pushed to stream subscribers of a call.
type Event struct {
	Type        EventType                  `json:"type"`
	State       conversation.AgentState    `json:"state"`
	Line        *transcript.Line           `json:"line,omitempty"`
	Draft       *conversation.BookingDraft `json:"booking,omitempty"`
	Appointment *booking.Appointment       `json:"appointment,omitempty"`
}

const subscriberBuffer = 32

// Subscribe streams events of a live call until cancel is called or the call
// ends, at which point the channel is closed. Slow subscribers miss events
// rather than block the call.
func (m *Manager) Subscribe(callID string) (<-chan Event, func(), error) {
	c, err := m.lookup(callID)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan Event, subscriberBuffer)

	c.mu.Lock()
	if c.subs == nil {
		c.mu.Unlock()
		return nil, nil, ErrCallNotFound
	}
	c.subs[ch] = struct{}{}
	c.mu.Unlock()

	cancel := func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		if _, ok := c.subs[ch]; ok {
			delete(c.subs, ch)
			close(ch)
		}
	}
	return ch, cancel, nil
}

// publish must be called with c.mu held.
func (c *call) publish(evt Event) {
	for ch := range c.subs {
		select {
		case ch <- evt:
		default:
		}
	}
}
