package conversation

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var fillerWords = []string{"um", "uh", "ah", "er", "hmm", "like", "you know", "well", "so", "yeah", "yes", "no"}

var fillerREs = func() []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(fillerWords))
	for i, w := range fillerWords {
		out[i] = regexp.MustCompile(`(?i)\b` + regexp.QuoteMeta(w) + `\b`)
	}
	return out
}()

var whitespaceRE = regexp.MustCompile(`\s+`)

// nameStopWords disqualify a turn from being a name. "am" and "pm" are
// substring checks, so a caller named "Sam" is never picked up.
var nameStopWords = []string{
	"book", "appointment", "physio", "massage", "consultation",
	"monday", "tuesday", "wednesday", "thursday", "friday",
	"am", "pm",
}

// ExtractCustomerName returns the first user turn that looks like a name:
// one to three words once fillers are stripped, longer than two characters,
// and free of booking vocabulary. It returns "" when no turn qualifies.
func ExtractCustomerName(history []Turn) string {
	for _, turn := range history {
		if turn.Speaker != SpeakerUser {
			continue
		}
		raw := strings.TrimSpace(turn.Text)
		lower := strings.ToLower(raw)
		if isFillerWord(lower) {
			continue
		}

		cleaned := stripFillers(raw)
		if cleaned == "" {
			continue
		}
		words := strings.Fields(cleaned)
		if len(words) < 1 || len(words) > 3 {
			continue
		}
		if utf8.RuneCountInString(cleaned) <= 2 {
			continue
		}
		if containsAny(lower, nameStopWords) {
			continue
		}
		return cleaned
	}
	return ""
}

func stripFillers(text string) string {
	out := text
	for _, re := range fillerREs {
		out = strings.TrimSpace(re.ReplaceAllString(out, ""))
	}
	return strings.TrimSpace(whitespaceRE.ReplaceAllString(out, " "))
}

func isFillerWord(lower string) bool {
	for _, w := range fillerWords {
		if lower == w {
			return true
		}
	}
	return false
}

func containsAny(text string, needles []string) bool {
	for _, n := range needles {
		if strings.Contains(text, n) {
			return true
		}
	}
	return false
}
