package cli

import (
	"fmt"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
)

// ParseDateFlag parses a YYYY-MM-DD flag. An empty value means today in loc.
func ParseDateFlag(value string, loc *time.Location) (availabilityDomain.Date, error) {
	if value == "" {
		return availabilityDomain.DateOf(time.Now().In(loc)), nil
	}
	date, err := availabilityDomain.ParseDate(value)
	if err != nil {
		return availabilityDomain.Date{}, fmt.Errorf("invalid --date, use YYYY-MM-DD: %w", err)
	}
	return date, nil
}

// ParseWindowFlags builds a working window override from --start/--end.
// Both empty keeps the configured window; giving only one is an error.
func ParseWindowFlags(start, end string) (*availabilityDomain.WorkingWindow, error) {
	if start == "" && end == "" {
		return nil, nil
	}
	if start == "" || end == "" {
		return nil, fmt.Errorf("--start and --end must be given together")
	}
	window, err := availabilityDomain.ParseWorkingWindow(start, end)
	if err != nil {
		return nil, err
	}
	return &window, nil
}

// FormatRange renders a time range as HH:MM-HH:MM in loc.
func FormatRange(start, end time.Time, loc *time.Location) string {
	return fmt.Sprintf("%s-%s", start.In(loc).Format("15:04"), end.In(loc).Format("15:04"))
}
