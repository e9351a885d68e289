package domain

// Classification is the resolved kind of a timed item.
type Classification struct {
	IsMeeting   bool
	IsFocusTime bool
}

// Classifier decides whether an item is a meeting or focus time. It is
// supplied by the caller so the engine never inspects titles itself.
type Classifier func(item TimedItem) Classification

// Classify returns a copy of items with classification applied. A nil
// classifier leaves items untouched.
func Classify(items []TimedItem, classifier Classifier) []TimedItem {
	out := make([]TimedItem, len(items))
	copy(out, items)
	if classifier == nil {
		return out
	}
	for i := range out {
		c := classifier(out[i])
		out[i].IsMeeting = c.IsMeeting
		out[i].IsFocusTime = c.IsFocusTime
	}
	return out
}
