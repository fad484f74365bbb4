package llm

import (
	"context"
	"strings"
)

// ScriptedClient answers with fixed keyword-driven replies. It stands in for
// a real model in the simulator and in tests, and walks a caller through
// service, time and name the way the clinic prompt asks a model to.
type ScriptedClient struct{}

func (ScriptedClient) Complete(_ context.Context, req Request) (Response, error) {
	var last string
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == RoleUser {
			last = req.Messages[i].Content
			break
		}
	}
	return Response{Text: ScriptedReply(last)}, nil
}

// ScriptedReply picks the canned reply for one caller utterance.
func ScriptedReply(input string) string {
	lower := strings.ToLower(input)

	switch {
	case containsAnyWord(lower, "book", "appointment", "schedule"):
		// The menu is left to the system prompt. Naming services here would
		// put every service into the history the classifier scans.
		return "I can help with that. What service are you looking to book?"
	case containsAnyWord(lower, "physio", "massage", "consultation"):
		service := "General Consultation"
		if strings.Contains(lower, "physio") {
			service = "Physiotherapy"
		} else if strings.Contains(lower, "massage") {
			service = "Massage"
		}
		return "Great, a " + service + ". What day and time works best for you?"
	case containsAnyWord(lower, "monday", "tuesday", "morning", "pm", "am"):
		return "Let me check availability... Yes, that slot is open. Can I get your full name to lock that in?"
	case len(lower) > 3 && !strings.Contains(lower, "thanks"):
		return "Perfect. I have you booked. You'll receive a confirmation shortly. Is there anything else?"
	case containsAnyWord(lower, "no", "thanks", "bye"):
		return "You're welcome! Have a great day. Goodbye."
	default:
		return "I didn't quite catch that. Could you repeat it?"
	}
}

func containsAnyWord(text string, needles ...string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
