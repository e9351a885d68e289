package domain

import "time"

var testDay = NewDate(2024, time.January, 15)

func at(h, m int) time.Time {
	return time.Date(2024, time.January, 15, h, m, 0, 0, time.UTC)
}

func rng(sh, sm, eh, em int) TimeRange {
	return TimeRange{Start: at(sh, sm), End: at(eh, em)}
}

func item(id string, sh, sm, eh, em int) TimedItem {
	return TimedItem{ID: id, Range: rng(sh, sm, eh, em)}
}
