package ics

import (
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = "BEGIN:VCALENDAR\r\n" +
	"VERSION:2.0\r\n" +
	"PRODID:-//planwise//test//EN\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:review-1\r\n" +
	"SUMMARY:Design review\r\n" +
	"CATEGORIES:Work,Design\r\n" +
	"DTSTART:20240610T090000Z\r\n" +
	"DTEND:20240610T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"SUMMARY:Standup\r\n" +
	"DTSTART:20240603T083000Z\r\n" +
	"DTEND:20240603T084500Z\r\n" +
	"RRULE:FREQ=DAILY;COUNT=5\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:standup\r\n" +
	"RECURRENCE-ID:20240604T083000Z\r\n" +
	"DTSTART:20240604T090000Z\r\n" +
	"DTEND:20240604T091500Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:holiday\r\n" +
	"SUMMARY:Holiday\r\n" +
	"DTSTART;VALUE=DATE:20240612\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:cancelled\r\n" +
	"STATUS:CANCELLED\r\n" +
	"DTSTART:20240611T090000Z\r\n" +
	"DTEND:20240611T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"UID:free\r\n" +
	"TRANSP:TRANSPARENT\r\n" +
	"DTSTART:20240611T090000Z\r\n" +
	"DTEND:20240611T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"BEGIN:VEVENT\r\n" +
	"SUMMARY:No uid\r\n" +
	"DTSTART:20240611T090000Z\r\n" +
	"DTEND:20240611T100000Z\r\n" +
	"END:VEVENT\r\n" +
	"END:VCALENDAR\r\n"

func TestDecoder_Decode(t *testing.T) {
	userID := uuid.New()
	d := NewDecoder(time.UTC, slog.New(slog.NewTextHandler(io.Discard, nil)))

	events, err := d.Decode(strings.NewReader(sample), userID)
	require.NoError(t, err)
	require.Len(t, events, 3)

	review := events[0]
	assert.Equal(t, "review-1", review.ID)
	assert.Equal(t, userID, review.UserID)
	assert.Equal(t, "Design review", review.Title)
	assert.Equal(t, "work", review.CategoryID)
	assert.True(t, review.Start.Equal(time.Date(2024, time.June, 10, 9, 0, 0, 0, time.UTC)))
	assert.True(t, review.End.Equal(time.Date(2024, time.June, 10, 10, 0, 0, 0, time.UTC)))
	assert.False(t, review.IsRecurring())

	standup := events[1]
	assert.Equal(t, "standup", standup.ID)
	assert.Equal(t, "FREQ=DAILY;COUNT=5", standup.RecurrenceRule)
	require.NotNil(t, standup.RecurrenceEnd)
	assert.True(t, standup.RecurrenceEnd.Equal(time.Date(2024, time.June, 7, 8, 30, 0, 0, time.UTC)))

	holiday := events[2]
	assert.True(t, holiday.AllDay)
	assert.Equal(t, time.Date(2024, time.June, 12, 0, 0, 0, 0, time.UTC), holiday.Start)
	assert.Equal(t, time.Date(2024, time.June, 13, 0, 0, 0, 0, time.UTC), holiday.End)
}

func TestDecoder_Malformed(t *testing.T) {
	_, err := NewDecoder(nil, nil).Decode(strings.NewReader("not a calendar\r\n"), uuid.New())
	assert.Error(t, err)
}

func TestSeriesEnd(t *testing.T) {
	first := time.Date(2024, time.January, 1, 9, 0, 0, 0, time.UTC)

	assert.Nil(t, seriesEnd("FREQ=WEEKLY", first))
	assert.Nil(t, seriesEnd("FREQ=SOMETIMES", first))

	until := seriesEnd("FREQ=DAILY;UNTIL=20240110T090000Z", first)
	require.NotNil(t, until)
	assert.True(t, until.Equal(time.Date(2024, time.January, 10, 9, 0, 0, 0, time.UTC)))

	last := seriesEnd("FREQ=WEEKLY;COUNT=3", first)
	require.NotNil(t, last)
	assert.True(t, last.Equal(time.Date(2024, time.January, 15, 9, 0, 0, 0, time.UTC)))
}
