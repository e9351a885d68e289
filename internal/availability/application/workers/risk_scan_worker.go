package workers

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/felixgeelhaar/planwise/internal/availability/application/commands"
	"github.com/robfig/cron/v3"
)

// DefaultRiskScanSchedule runs the scan every morning at 07:00.
const DefaultRiskScanSchedule = "0 7 * * *"

// RiskScanner runs one scan across all users.
type RiskScanner interface {
	Handle(ctx context.Context, cmd commands.ScanRisksCommand) (*commands.ScanResult, error)
}

// RiskScanWorkerConfig configures the scan worker.
type RiskScanWorkerConfig struct {
	// Schedule is a standard five-field cron expression.
	Schedule string
	// Location interprets the schedule; nil means UTC.
	Location   *time.Location
	RunOnStart bool
}

// RiskScanWorker runs the daily risk scan on a cron schedule. A scan still
// in progress when the next one is due is skipped.
type RiskScanWorker struct {
	scanner  RiskScanner
	config   RiskScanWorkerConfig
	schedule cron.Schedule
	logger   *slog.Logger
	running  atomic.Bool
	last     atomic.Pointer[commands.ScanResult]
}

// NewRiskScanWorker validates the schedule and creates the worker.
func NewRiskScanWorker(scanner RiskScanner, config RiskScanWorkerConfig, logger *slog.Logger) (*RiskScanWorker, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Schedule == "" {
		config.Schedule = DefaultRiskScanSchedule
	}
	if config.Location == nil {
		config.Location = time.UTC
	}
	schedule, err := cron.ParseStandard(config.Schedule)
	if err != nil {
		return nil, fmt.Errorf("invalid risk scan schedule %q: %w", config.Schedule, err)
	}
	return &RiskScanWorker{scanner: scanner, config: config, schedule: schedule, logger: logger}, nil
}

// Run starts the scheduler and blocks until ctx is cancelled. Scans in
// flight finish before Run returns.
func (w *RiskScanWorker) Run(ctx context.Context) error {
	cronLogger := cron.PrintfLogger(slog.NewLogLogger(w.logger.Handler(), slog.LevelWarn))
	c := cron.New(
		cron.WithLocation(w.config.Location),
		cron.WithLogger(cronLogger),
		cron.WithChain(cron.Recover(cronLogger), cron.SkipIfStillRunning(cronLogger)),
	)
	c.Schedule(w.schedule, cron.FuncJob(func() {
		_, _ = w.RunOnce(ctx)
	}))

	w.running.Store(true)
	defer w.running.Store(false)
	c.Start()
	w.logger.Info("risk scan worker started",
		"schedule", w.config.Schedule,
		"next_run", w.NextRun(time.Now()),
	)

	if w.config.RunOnStart {
		_, _ = w.RunOnce(ctx)
	}

	<-ctx.Done()
	<-c.Stop().Done()
	w.logger.Info("risk scan worker stopped")
	return nil
}

// RunOnce scans today for every user and records the result.
func (w *RiskScanWorker) RunOnce(ctx context.Context) (*commands.ScanResult, error) {
	result, err := w.scanner.Handle(ctx, commands.ScanRisksCommand{})
	if err != nil {
		w.logger.ErrorContext(ctx, "risk scan failed", "error", err)
		return nil, err
	}
	w.last.Store(result)
	w.logger.InfoContext(ctx, "risk scan completed",
		"date", result.Date,
		"users", result.Users,
		"users_with_risks", result.WithRisks,
		"findings", result.Findings,
		"failed", result.Failed,
	)
	return result, nil
}

// NextRun returns the first scheduled run after t.
func (w *RiskScanWorker) NextRun(t time.Time) time.Time {
	return w.schedule.Next(t.In(w.config.Location))
}

// LastResult returns the most recent successful scan, or nil.
func (w *RiskScanWorker) LastResult() *commands.ScanResult {
	return w.last.Load()
}

// IsRunning reports whether the scheduler is active.
func (w *RiskScanWorker) IsRunning() bool {
	return w.running.Load()
}
