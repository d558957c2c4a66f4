// Package reply classifies short inbound SMS replies.
package reply

import "strings"

var affirmative = []string{
	"yes", "yep", "yeah", "y", "sure", "ok", "add it", "do it",
	"yes please", "yes!", "yesss",
}

// GapFillPhrases extend the shared set for waitlist offers.
var GapFillPhrases = []string{"grab it", "i want it", "book it"}

// IsAffirmative reports whether text, trimmed and lowercased, is exactly one
// of the shared affirmative phrases or one of extra.
func IsAffirmative(text string, extra ...string) bool {
	t := strings.ToLower(strings.TrimSpace(text))
	for _, p := range affirmative {
		if t == p {
			return true
		}
	}
	for _, p := range extra {
		if t == p {
			return true
		}
	}
	return false
}
