package pipeline

import (
	"strings"

	"github.com/pi11/podcaster/internal/models"
)

// durationWithinBounds applies the source's inclusive duration filter.
// A zero bound means unbounded on that side.
func durationWithinBounds(src models.Source, seconds int) bool {
	if src.MinDuration > 0 && seconds < src.MinDuration {
		return false
	}
	if src.MaxDuration > 0 && seconds > src.MaxDuration {
		return false
	}
	return true
}

// containsBannedWord reports the first banned term found in the text,
// matched as a case-insensitive substring.
func containsBannedWord(words []string, text string) (string, bool) {
	lower := strings.ToLower(text)
	for _, w := range words {
		if w == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(w)) {
			return w, true
		}
	}
	return "", false
}

// matchesKeywords reports whether any of the category's keywords occur in
// the text.
func matchesKeywords(c models.Category, text string) bool {
	lower := strings.ToLower(text)
	for _, kw := range c.Keywords {
		if kw == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(kw)) {
			return true
		}
	}
	return false
}
