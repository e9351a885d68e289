package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/teambition/rrule-go"
)

// MaxOccurrencesPerSeries is the most instances one expansion may return.
// Wider windows are rejected with ErrTooManyOccurrences.
const MaxOccurrencesPerSeries = 5000

var (
	// ErrRecurrenceParse marks a recurrence rule that could not be parsed.
	ErrRecurrenceParse = errors.New("malformed recurrence rule")
	// ErrTooManyOccurrences is returned when a window holds more than
	// MaxOccurrencesPerSeries instances of a series.
	ErrTooManyOccurrences = errors.New("too many occurrences in window")
)

// ParseError reports a malformed recurrence rule.
type ParseError struct {
	Rule string
	Err  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("%s %q: %v", ErrRecurrenceParse, e.Rule, e.Err)
}

func (e *ParseError) Unwrap() []error {
	return []error{ErrRecurrenceParse, e.Err}
}

// RecurrenceSpec describes a recurring series anchored at its first occurrence.
type RecurrenceSpec struct {
	Rule  string
	First TimeRange
	Until *time.Time
}

// RuleParser turns RRULE text into rrule options.
type RuleParser interface {
	Parse(rule string) (rrule.ROption, error)
}

// RuleParserFunc adapts a function to RuleParser.
type RuleParserFunc func(rule string) (rrule.ROption, error)

func (f RuleParserFunc) Parse(rule string) (rrule.ROption, error) { return f(rule) }

// DefaultRuleParser parses without caching.
var DefaultRuleParser RuleParser = RuleParserFunc(ParseRule)

var supportedFrequencies = map[rrule.Frequency]bool{
	rrule.DAILY:   true,
	rrule.WEEKLY:  true,
	rrule.MONTHLY: true,
	rrule.YEARLY:  true,
}

// ParseRule parses an RFC-5545 RRULE value, with or without the "RRULE:" prefix.
func ParseRule(rule string) (rrule.ROption, error) {
	text := strings.TrimSpace(rule)
	text = strings.TrimPrefix(text, "RRULE:")
	if text == "" {
		return rrule.ROption{}, &ParseError{Rule: rule, Err: errors.New("empty rule")}
	}

	opt, err := rrule.StrToROption(text)
	if err != nil {
		return rrule.ROption{}, &ParseError{Rule: rule, Err: err}
	}
	if !supportedFrequencies[opt.Freq] {
		return rrule.ROption{}, &ParseError{Rule: rule, Err: fmt.Errorf("unsupported frequency %v", opt.Freq)}
	}
	// rrule-go reads a zero COUNT or INTERVAL as unset, so check the raw parts
	if err := requirePositive(text, "INTERVAL", "COUNT"); err != nil {
		return rrule.ROption{}, &ParseError{Rule: rule, Err: err}
	}
	if opt.Count > 0 && !opt.Until.IsZero() {
		return rrule.ROption{}, &ParseError{Rule: rule, Err: errors.New("COUNT and UNTIL are mutually exclusive")}
	}
	return *opt, nil
}

func requirePositive(text string, keys ...string) error {
	for _, part := range strings.Split(text, ";") {
		key, value, ok := strings.Cut(part, "=")
		if !ok {
			continue
		}
		key = strings.ToUpper(strings.TrimSpace(key))
		for _, want := range keys {
			if key != want {
				continue
			}
			n, err := strconv.Atoi(strings.TrimSpace(value))
			if err != nil || n < 1 {
				return fmt.Errorf("%s must be at least 1, got %q", key, value)
			}
		}
	}
	return nil
}

// Expander expands recurrence specs using a RuleParser.
type Expander struct {
	parser RuleParser
}

// NewExpander creates an expander. A nil parser falls back to DefaultRuleParser.
func NewExpander(parser RuleParser) *Expander {
	if parser == nil {
		parser = DefaultRuleParser
	}
	return &Expander{parser: parser}
}

// Expand returns every occurrence whose start lies in [windowStart, windowEnd].
// Each occurrence keeps the duration of series.First. A window holding more
// than MaxOccurrencesPerSeries instances fails with ErrTooManyOccurrences.
func Expand(series RecurrenceSpec, windowStart, windowEnd time.Time) ([]TimeRange, error) {
	return NewExpander(nil).Expand(series, windowStart, windowEnd)
}

// Expand returns every occurrence whose start lies in [windowStart, windowEnd].
func (x *Expander) Expand(series RecurrenceSpec, windowStart, windowEnd time.Time) ([]TimeRange, error) {
	if err := series.First.Validate(); err != nil {
		return nil, err
	}
	if windowEnd.Before(windowStart) {
		return nil, ErrInvalidInterval
	}

	opt, err := x.parser.Parse(series.Rule)
	if err != nil {
		var perr *ParseError
		if errors.As(err, &perr) {
			return nil, err
		}
		return nil, &ParseError{Rule: series.Rule, Err: err}
	}

	opt.Dtstart = series.First.Start
	if series.Until != nil && opt.Count == 0 && opt.Until.IsZero() {
		opt.Until = *series.Until
	}

	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, &ParseError{Rule: series.Rule, Err: err}
	}

	starts := r.Between(windowStart, windowEnd, true)
	if len(starts) > MaxOccurrencesPerSeries {
		return nil, fmt.Errorf("%w: %d, limit %d", ErrTooManyOccurrences, len(starts), MaxOccurrencesPerSeries)
	}

	duration := series.First.Duration()
	out := make([]TimeRange, 0, len(starts))
	for _, start := range starts {
		start = start.In(series.First.Start.Location())
		out = append(out, TimeRange{Start: start, End: start.Add(duration)})
	}
	return out, nil
}

// OccurrenceResult is the outcome of expanding a set of events over a window.
type OccurrenceResult struct {
	Items []TimedItem
	// Failures lists series that could not be expanded; they contribute no
	// occurrences.
	Failures []EventParseFailure
}

// EventParseFailure ties an expansion error to the event that carried it.
type EventParseFailure struct {
	EventID string
	Err     error
}

// Occurrences expands events into timed items that intersect window. All-day
// events carry no busy time and are skipped.
func (x *Expander) Occurrences(events []Event, window TimeRange) (OccurrenceResult, error) {
	if err := window.Validate(); err != nil {
		return OccurrenceResult{}, err
	}

	result := OccurrenceResult{Items: []TimedItem{}}
	for _, ev := range events {
		if ev.AllDay {
			continue
		}
		if err := ev.Range().Validate(); err != nil {
			return OccurrenceResult{}, fmt.Errorf("event %s: %w", ev.ID, err)
		}

		if !ev.IsRecurring() {
			if intersects(ev.Range(), window) {
				result.Items = append(result.Items, ev.Item(ev.ID, ev.Range()))
			}
			continue
		}

		// shift the query start back so a series instance that began before
		// the window but is still running is found
		series := RecurrenceSpec{Rule: ev.RecurrenceRule, First: ev.Range(), Until: ev.RecurrenceEnd}
		ranges, err := x.Expand(series, window.Start.Add(-ev.Range().Duration()), window.End)
		if err != nil {
			var perr *ParseError
			if errors.As(err, &perr) || errors.Is(err, ErrTooManyOccurrences) {
				result.Failures = append(result.Failures, EventParseFailure{EventID: ev.ID, Err: err})
				continue
			}
			return OccurrenceResult{}, err
		}
		for _, r := range ranges {
			if !intersects(r, window) {
				continue
			}
			result.Items = append(result.Items, ev.Item(InstanceID(ev.ID, r.Start), r))
		}
	}
	return result, nil
}

// Occurrences expands events with the default parser.
func Occurrences(events []Event, window TimeRange) (OccurrenceResult, error) {
	return NewExpander(nil).Occurrences(events, window)
}

// InstanceID builds a stable identifier for one occurrence of a series.
func InstanceID(eventID string, start time.Time) string {
	return eventID + "@" + start.UTC().Format(time.RFC3339)
}

func intersects(r, window TimeRange) bool {
	if r.Duration() == 0 {
		return !r.Start.Before(window.Start) && r.Start.Before(window.End)
	}
	return r.Overlaps(window)
}
