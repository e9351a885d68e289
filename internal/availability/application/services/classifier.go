package services

import (
	"strings"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
)

var (
	defaultMeetingKeywords = []string{"meeting", "sync", "standup", "stand-up", "1:1", "one-on-one", "call", "interview", "review", "retro", "planning"}
	defaultFocusKeywords   = []string{"focus", "deep work", "heads down", "no meetings", "maker time"}
)

// KeywordClassifier marks items as meetings or focus time by matching
// keywords against the title and category. Flags already set on an item win.
type KeywordClassifier struct {
	meeting []string
	focus   []string
}

// NewKeywordClassifier uses the default keyword lists plus any extras.
func NewKeywordClassifier(extraMeeting, extraFocus []string) *KeywordClassifier {
	return &KeywordClassifier{
		meeting: lower(append(append([]string{}, defaultMeetingKeywords...), extraMeeting...)),
		focus:   lower(append(append([]string{}, defaultFocusKeywords...), extraFocus...)),
	}
}

// Classify implements availabilityDomain.Classifier.
func (c *KeywordClassifier) Classify(item availabilityDomain.TimedItem) availabilityDomain.Classification {
	if item.IsMeeting || item.IsFocusTime {
		return availabilityDomain.Classification{IsMeeting: item.IsMeeting, IsFocusTime: item.IsFocusTime}
	}
	text := strings.ToLower(item.Title + " " + item.CategoryID)
	// focus wins so "focus block (no meetings)" is not counted as a meeting
	if containsAny(text, c.focus) {
		return availabilityDomain.Classification{IsFocusTime: true}
	}
	return availabilityDomain.Classification{IsMeeting: containsAny(text, c.meeting)}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}

func lower(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if w = strings.TrimSpace(strings.ToLower(w)); w != "" {
			out = append(out, w)
		}
	}
	return out
}
