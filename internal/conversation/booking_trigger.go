package conversation

import "strings"

// ShouldAttemptFinalization reports whether an agent utterance sounds like a
// booking confirmation.
func ShouldAttemptFinalization(agentText string) bool {
	lower := strings.ToLower(agentText)
	if strings.Contains(lower, "booked") || strings.Contains(lower, "confirmed") {
		return true
	}
	return strings.Contains(lower, "perfect") && strings.Contains(lower, "appointment")
}
