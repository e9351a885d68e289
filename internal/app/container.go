package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	availabilityCommands "github.com/felixgeelhaar/planwise/internal/availability/application/commands"
	availabilityQueries "github.com/felixgeelhaar/planwise/internal/availability/application/queries"
	availabilityServices "github.com/felixgeelhaar/planwise/internal/availability/application/services"
	"github.com/felixgeelhaar/planwise/internal/availability/application/subscribers"
	availabilityDomain "github.com/felixgeelhaar/planwise/internal/availability/domain"
	"github.com/felixgeelhaar/planwise/internal/availability/infrastructure/ics"
	"github.com/felixgeelhaar/planwise/internal/availability/infrastructure/state"
	bookingCommands "github.com/felixgeelhaar/planwise/internal/booking/application/commands"
	bookingQueries "github.com/felixgeelhaar/planwise/internal/booking/application/queries"
	bookingServices "github.com/felixgeelhaar/planwise/internal/booking/application/services"
	sharedApplication "github.com/felixgeelhaar/planwise/internal/shared/application"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database"
	_ "github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database/postgres" // Register PostgreSQL driver
	_ "github.com/felixgeelhaar/planwise/internal/shared/infrastructure/database/sqlite"   // Register SQLite driver
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/eventbus"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/migrations"
	"github.com/felixgeelhaar/planwise/internal/shared/infrastructure/outbox"
	"github.com/felixgeelhaar/planwise/pkg/config"
	"github.com/felixgeelhaar/planwise/pkg/observability"
)

// Container holds all application dependencies.
type Container struct {
	Config  *config.Config
	Logger  *slog.Logger
	Metrics observability.Metrics
	Health  *observability.HealthRegistry

	// Database
	DBConn   database.Connection
	DBDriver database.Driver

	// Repositories
	Repos *Repositories

	// Unit of Work
	UnitOfWork sharedApplication.UnitOfWork

	// Dismissal flags
	StateStore availabilityServices.StateStore

	// Publishers. With a broker, handlers write to the outbox and
	// OutboxProcessor relays to Broker.
	EventPublisher  eventbus.Publisher
	Broker          eventbus.Publisher
	LocalBus        *eventbus.LocalBus
	OutboxProcessor *outbox.Processor

	// Availability services
	RuleParser  *availabilityServices.CachedRuleParser
	EventSource *availabilityServices.BreakerEventSource
	Classifier  *availabilityServices.KeywordClassifier
	DayLoader   *availabilityServices.DayLoader

	// Availability query handlers
	GetDayRisksHandler      *availabilityQueries.GetDayRisksHandler
	FindBestSlotsHandler    *availabilityQueries.FindBestSlotsHandler
	InsightsHandler         *availabilityQueries.InsightsHandler
	ExpandRecurrenceHandler *availabilityQueries.ExpandRecurrenceHandler

	// Availability command handlers
	DismissRiskHandler    *availabilityCommands.DismissRiskHandler
	ScanRisksHandler      *availabilityCommands.ScanRisksHandler
	ImportCalendarHandler *availabilityCommands.ImportCalendarHandler
	CreateTaskHandler     *availabilityCommands.CreateTaskHandler

	// Booking
	AvailabilityCalculator *bookingServices.AvailabilityCalculator
	GetBookingSlotsHandler *bookingQueries.GetBookingSlotsHandler
	CreateLinkHandler      *bookingCommands.CreateLinkHandler
	CreateBookingHandler   *bookingCommands.CreateBookingHandler
}

// NewContainer creates and wires all dependencies. A nil metrics sink
// discards measurements.
func NewContainer(ctx context.Context, cfg *config.Config, logger *slog.Logger, metrics observability.Metrics) (*Container, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if metrics == nil {
		metrics = observability.NoopMetrics{}
	}
	c := &Container{
		Config:  cfg,
		Logger:  logger,
		Metrics: metrics,
		Health:  observability.NewHealthRegistry(),
	}

	if err := c.openDatabase(ctx); err != nil {
		return nil, err
	}

	factory := NewRepositoryFactory(c.DBConn)
	repos, err := factory.All()
	if err != nil {
		c.Close()
		return nil, err
	}
	c.Repos = repos
	c.UnitOfWork = database.NewUnitOfWork(c.DBConn)

	if err := c.connectStateStore(ctx); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.connectPublisher(); err != nil {
		c.Close()
		return nil, err
	}
	if err := c.wireAvailability(); err != nil {
		c.Close()
		return nil, err
	}
	c.wireBooking()

	return c, nil
}

func (c *Container) openDatabase(ctx context.Context) error {
	dbCfg := database.Config{URL: c.Config.DatabaseURL, SQLitePath: c.Config.SQLitePath}
	if c.Config.LocalMode {
		dbCfg.Driver = database.DriverSQLite
	}

	conn, err := database.Open(ctx, dbCfg)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := conn.Ping(ctx); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to ping database: %w", err)
	}
	if err := migrations.Run(ctx, conn); err != nil {
		_ = conn.Close()
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	c.DBConn = conn
	c.DBDriver = conn.Driver()
	c.Health.Register("database", observability.PingChecker("database", true, conn.Ping))
	c.Logger.Info("connected to database", "driver", c.DBDriver)
	return nil
}

// connectStateStore prefers Redis. In development an unreachable Redis falls
// back to the in-memory store.
func (c *Container) connectStateStore(ctx context.Context) error {
	if c.Config.RedisURL != "" {
		store, err := state.NewRedisStore(c.Config.RedisURL)
		if err == nil {
			err = store.Ping(ctx)
			if err != nil {
				_ = store.Close()
			}
		}
		if err == nil {
			c.StateStore = store
			c.Health.Register("redis", observability.PingChecker("redis", false, store.Ping))
			c.Logger.Info("connected to Redis")
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to Redis: %w", err)
		}
		c.Logger.Warn("Redis not available, dismissals will use in-memory store", "error", err)
	}

	c.StateStore = state.NewMemoryStore(state.DefaultMemoryEntries, c.Config.StateTTL)
	return nil
}

// connectPublisher prefers RabbitMQ behind the outbox. Without it events go
// to an in-process bus that logs risk alerts.
func (c *Container) connectPublisher() error {
	if c.Config.RabbitMQURL != "" {
		publisher, err := eventbus.NewRabbitMQPublisher(c.Config.RabbitMQURL, c.Logger)
		if err == nil {
			c.Broker = publisher
			c.EventPublisher = outbox.NewPublisher(c.Repos.Outbox)
			c.OutboxProcessor = outbox.NewProcessor(c.Repos.Outbox, publisher, outbox.ProcessorConfig{
				PollInterval:    c.Config.OutboxPollInterval,
				BatchSize:       c.Config.OutboxBatchSize,
				MaxRetries:      c.Config.OutboxMaxRetries,
				RetentionDays:   c.Config.OutboxRetentionDays,
				CleanupInterval: c.Config.OutboxCleanupInterval,
			}, c.Logger, c.Metrics)
			c.Health.Register("rabbitmq", observability.PingChecker("rabbitmq", false, publisher.Ping))
			c.Logger.Info("connected to RabbitMQ")
			return nil
		}
		if !c.Config.IsDevelopment() {
			return fmt.Errorf("failed to connect to RabbitMQ: %w", err)
		}
		c.Logger.Warn("RabbitMQ not available, using local event bus", "error", err)
	}

	c.LocalBus = eventbus.NewLocalBus(c.Logger)
	c.LocalBus.Subscribe(subscribers.NewRiskAlertLogger(c.Logger))
	c.EventPublisher = c.LocalBus
	return nil
}

func (c *Container) wireAvailability() error {
	cfg := c.Config
	loc := cfg.Location()

	window, err := availabilityDomain.ParseWorkingWindow(cfg.WorkStart, cfg.WorkEnd)
	if err != nil {
		return fmt.Errorf("invalid working window: %w", err)
	}

	c.RuleParser, err = availabilityServices.NewCachedRuleParser(availabilityDomain.DefaultRuleParser, cfg.RuleCacheSize, c.Metrics)
	if err != nil {
		return err
	}
	c.EventSource = availabilityServices.NewBreakerEventSource(c.Repos.Events, availabilityServices.BreakerConfig{
		MaxFailures: cfg.BreakerMaxFailures,
		MaxRequests: 1,
		Interval:    cfg.BreakerInterval,
		Timeout:     cfg.BreakerTimeout,
	}, c.Logger, c.Metrics)
	c.Classifier = availabilityServices.NewKeywordClassifier(nil, nil)
	c.DayLoader = availabilityServices.NewDayLoader(
		c.EventSource,
		c.Repos.Tasks,
		c.RuleParser,
		c.Classifier.Classify,
		availabilityServices.DayLoaderConfig{Window: window, Location: loc},
		c.Logger,
		c.Metrics,
	)

	c.GetDayRisksHandler = availabilityQueries.NewGetDayRisksHandler(c.DayLoader, c.StateStore, thresholds(cfg), c.Logger, c.Metrics)
	c.FindBestSlotsHandler = availabilityQueries.NewFindBestSlotsHandler(c.DayLoader, c.Repos.Tasks, c.Logger, c.Metrics)
	c.InsightsHandler = availabilityQueries.NewInsightsHandler(c.DayLoader, c.Logger, c.Metrics)
	c.ExpandRecurrenceHandler = availabilityQueries.NewExpandRecurrenceHandler(c.RuleParser, c.Logger, c.Metrics)

	today := func() availabilityDomain.Date { return availabilityDomain.DateOf(time.Now().In(loc)) }
	c.DismissRiskHandler = availabilityCommands.NewDismissRiskHandler(c.StateStore, cfg.StateTTL, c.Logger, c.Metrics)
	c.ScanRisksHandler = availabilityCommands.NewScanRisksHandler(c.Repos.Events, c.GetDayRisksHandler, c.EventPublisher, today, c.Logger, c.Metrics)
	c.ImportCalendarHandler = availabilityCommands.NewImportCalendarHandler(ics.NewDecoder(loc, c.Logger), c.Repos.Events, c.UnitOfWork, c.Logger, c.Metrics)
	c.CreateTaskHandler = availabilityCommands.NewCreateTaskHandler(c.Repos.Tasks)
	return nil
}

func (c *Container) wireBooking() {
	c.AvailabilityCalculator = bookingServices.NewAvailabilityCalculator(c.Repos.Links, c.Repos.Bookings, nil)
	c.GetBookingSlotsHandler = bookingQueries.NewGetBookingSlotsHandler(c.AvailabilityCalculator, c.Logger, c.Metrics)
	c.CreateLinkHandler = bookingCommands.NewCreateLinkHandler(c.Repos.Links, c.UnitOfWork)
	c.CreateBookingHandler = bookingCommands.NewCreateBookingHandler(c.AvailabilityCalculator, c.Repos.Bookings, c.UnitOfWork, c.Logger)
}

// thresholds applies the configured overrides to the default risk thresholds.
func thresholds(cfg *config.Config) availabilityDomain.RiskThresholds {
	th := availabilityDomain.DefaultRiskThresholds()
	th.OverbookedRatio = cfg.RiskOverbookedRatio
	th.BackToBackGapMinutes = cfg.RiskBackToBackMinutes
	th.BackToBackMinCount = cfg.RiskBackToBackMinCount
	th.NoBreakGapMinutes = cfg.RiskNoBreakGapMinutes
	th.NoBreakMinScheduledMinutes = cfg.RiskNoBreakMinMinutes
	return th
}

// Close cleans up all resources.
func (c *Container) Close() {
	if c.OutboxProcessor != nil {
		c.OutboxProcessor.Stop()
	}
	if c.Broker != nil {
		if err := c.Broker.Close(); err != nil {
			c.Logger.Error("failed to close broker", "error", err)
		}
	}
	if c.EventPublisher != nil {
		if err := c.EventPublisher.Close(); err != nil {
			c.Logger.Error("failed to close event publisher", "error", err)
		}
	}
	if closer, ok := c.StateStore.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			c.Logger.Error("failed to close state store", "error", err)
		}
	}
	if c.DBConn != nil {
		if err := c.DBConn.Close(); err != nil {
			c.Logger.Error("failed to close database", "error", err)
		}
	}
}
