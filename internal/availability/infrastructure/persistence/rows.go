// Package persistence stores events and tasks in SQLite or PostgreSQL.
package persistence

import (
	"database/sql"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/domain"
)

// sqliteTimeLayout stores UTC instants as fixed-width text so that string
// comparison orders them.
const sqliteTimeLayout = "2006-01-02T15:04:05Z"

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseSQLiteTime(s string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, s)
}

func toNullTime(t *time.Time) sql.NullString {
	if t == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: formatSQLiteTime(*t), Valid: true}
}

func toNullDate(d *domain.Date) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.String(), Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// seriesReaches reports whether a recurring event can still have an
// occurrence ending after start.
func seriesReaches(e domain.Event, start time.Time) bool {
	if e.RecurrenceEnd == nil {
		return true
	}
	return e.RecurrenceEnd.Add(e.End.Sub(e.Start)).After(start)
}

func filterSeries(events []domain.Event, start time.Time) []domain.Event {
	out := events[:0]
	for _, e := range events {
		if e.IsRecurring() && !seriesReaches(e, start) {
			continue
		}
		out = append(out, e)
	}
	return out
}
