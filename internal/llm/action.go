package llm

import (
	"strings"

	"github.com/wolfman30/voice-booking-agent/internal/conversation"
)

// ActionKind is the intent read off an assistant reply.
type ActionKind string

const (
	ActionNone              ActionKind = ""
	ActionBook              ActionKind = "book"
	ActionCheckAvailability ActionKind = "check_availability"
)

// Action describes what an assistant reply is doing.
type Action struct {
	Kind ActionKind `json:"kind,omitempty"`
	// Ending is advisory: the reply sounds like a sign-off.
	Ending bool `json:"ending,omitempty"`
}

var endingPhrases = []string{"goodbye", "have a great day", "bye"}

// ClassifyAction inspects an assistant reply.
func ClassifyAction(reply string) Action {
	lower := strings.ToLower(reply)
	var a Action
	switch {
	case conversation.ShouldAttemptFinalization(reply):
		a.Kind = ActionBook
	case strings.Contains(lower, "check") && strings.Contains(lower, "availability"):
		a.Kind = ActionCheckAvailability
	}
	a.Ending = containsAnyWord(lower, endingPhrases...)
	return a
}
