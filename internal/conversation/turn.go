package conversation

import (
	"strconv"
	"strings"
)

// Speaker identifies who produced a turn.
type Speaker string

const (
	SpeakerUser  Speaker = "user"
	SpeakerAgent Speaker = "agent"
)

// ParseSpeaker maps transport role names onto a Speaker. Voice transcription
// providers report the agent as "assistant".
func ParseSpeaker(role string) (Speaker, bool) {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case "user", "caller", "customer":
		return SpeakerUser, true
	case "agent", "assistant", "bot":
		return SpeakerAgent, true
	default:
		return "", false
	}
}

// Turn is one utterance in arrival order. Turns are values and are never
// mutated once appended to a History.
type Turn struct {
	Speaker       Speaker `json:"speaker"`
	Text          string  `json:"text"`
	SequenceIndex int     `json:"sequence_index"`
}

// History is the append-only ordered turn list of one session.
type History struct {
	turns []Turn
}

// Append adds a turn at the next sequence index and returns it.
func (h *History) Append(speaker Speaker, text string) Turn {
	turn := Turn{Speaker: speaker, Text: text, SequenceIndex: len(h.turns)}
	h.turns = append(h.turns, turn)
	return turn
}

// Len reports the number of turns.
func (h *History) Len() int {
	return len(h.turns)
}

// Turns returns a copy of the turns so callers cannot rewrite history.
func (h *History) Turns() []Turn {
	out := make([]Turn, len(h.turns))
	copy(out, h.turns)
	return out
}

// NewHistory builds a history from raw turns, renumbering them in order.
func NewHistory(turns ...Turn) History {
	var h History
	for _, t := range turns {
		h.Append(t.Speaker, t.Text)
	}
	return h
}

// Text joins every turn with single spaces.
func (h *History) Text() string {
	parts := make([]string, len(h.turns))
	for i, t := range h.turns {
		parts[i] = t.Text
	}
	return strings.Join(parts, " ")
}

// UtteranceFingerprint keys an externally delivered utterance event.
type UtteranceFingerprint string

// NewUtteranceFingerprint derives the fingerprint of an utterance event from
// its speaker, its text and the index the upstream source assigned to it.
func NewUtteranceFingerprint(speaker Speaker, text string, sequenceIndex int) UtteranceFingerprint {
	return UtteranceFingerprint(string(speaker) + "|" + strconv.Itoa(sequenceIndex) + "|" + text)
}
