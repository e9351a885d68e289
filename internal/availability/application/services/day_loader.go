package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

// Day is everything the engine needs about one calendar day.
type Day struct {
	Date   availabilityDomain.Date
	Today  availabilityDomain.Date
	Window availabilityDomain.TimeRange
	Items  []availabilityDomain.TimedItem
	Tasks  []availabilityDomain.Task
}

// DayLoaderConfig holds the defaults applied to every load.
type DayLoaderConfig struct {
	Window   availabilityDomain.WorkingWindow
	Location *time.Location
	// Now defaults to time.Now.
	Now func() time.Time
}

// DayLoader reads events and tasks, expands recurring series and classifies
// the resulting items. A series with an unparsable rule contributes nothing
// and is logged; the rest of the day still loads.
type DayLoader struct {
	events     EventSource
	tasks      availabilityDomain.TaskRepository
	expander   *availabilityDomain.Expander
	classifier availabilityDomain.Classifier
	cfg        DayLoaderConfig
	logger     *slog.Logger
	metrics    observability.Metrics
}

// NewDayLoader creates a DayLoader. A nil parser uses the default rule
// parser and a nil classifier leaves items as stored.
func NewDayLoader(
	events EventSource,
	tasks availabilityDomain.TaskRepository,
	parser availabilityDomain.RuleParser,
	classifier availabilityDomain.Classifier,
	cfg DayLoaderConfig,
	logger *slog.Logger,
	metrics observability.Metrics,
) *DayLoader {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &DayLoader{
		events:     events,
		tasks:      tasks,
		expander:   availabilityDomain.NewExpander(parser),
		classifier: classifier,
		cfg:        cfg,
		logger:     logger,
		metrics:    metrics,
	}
}

// Location returns the timezone days are resolved in.
func (l *DayLoader) Location() *time.Location {
	return l.cfg.Location
}

// Today returns the current date in the loader's timezone.
func (l *DayLoader) Today() availabilityDomain.Date {
	return availabilityDomain.DateOf(l.cfg.Now().In(l.cfg.Location))
}

// Window resolves the working window for date, preferring override.
func (l *DayLoader) Window(date availabilityDomain.Date, override *availabilityDomain.WorkingWindow) (availabilityDomain.TimeRange, error) {
	window := l.cfg.Window
	if override != nil {
		window = *override
	}
	if err := window.Validate(); err != nil {
		return availabilityDomain.TimeRange{}, err
	}
	return window.On(date, l.cfg.Location), nil
}

// LoadItems returns the classified occurrences that touch date.
func (l *DayLoader) LoadItems(ctx context.Context, userID uuid.UUID, date availabilityDomain.Date) ([]availabilityDomain.TimedItem, error) {
	day := availabilityDomain.TimeRange{
		Start: date.At(l.cfg.Location),
		End:   date.AddDays(1).At(l.cfg.Location),
	}

	events, err := l.events.FindInRange(ctx, userID, day.Start, day.End)
	if err != nil {
		return nil, fmt.Errorf("load events for %s: %w", date, err)
	}

	// stores return UTC; series expand in the user's wall clock
	local := make([]availabilityDomain.Event, len(events))
	for i, e := range events {
		e.Start = e.Start.In(l.cfg.Location)
		e.End = e.End.In(l.cfg.Location)
		local[i] = e
	}

	result, err := l.expander.Occurrences(local, day)
	if err != nil {
		return nil, fmt.Errorf("expand events for %s: %w", date, err)
	}
	for _, failure := range result.Failures {
		l.logger.WarnContext(ctx, "skipping recurring event with malformed rule",
			"event_id", failure.EventID,
			"date", date.String(),
			"error", failure.Err,
		)
		l.metrics.Counter(observability.MetricRecurrenceFailures, 1)
	}

	return availabilityDomain.Classify(result.Items, l.classifier), nil
}

// Load returns the day's items and open tasks with the resolved window.
func (l *DayLoader) Load(ctx context.Context, userID uuid.UUID, date availabilityDomain.Date, override *availabilityDomain.WorkingWindow) (*Day, error) {
	window, err := l.Window(date, override)
	if err != nil {
		return nil, err
	}
	items, err := l.LoadItems(ctx, userID, date)
	if err != nil {
		return nil, err
	}
	tasks, err := l.tasks.FindOpen(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load tasks: %w", err)
	}
	return &Day{
		Date:   date,
		Today:  l.Today(),
		Window: window,
		Items:  items,
		Tasks:  tasks,
	}, nil
}
