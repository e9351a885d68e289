package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/felixgeelhaar/planwise/adapter/cli"
	"github.com/felixgeelhaar/planwise/adapter/cli/booking"
	"github.com/felixgeelhaar/planwise/adapter/cli/insight"
	"github.com/felixgeelhaar/planwise/adapter/cli/risk"
	"github.com/felixgeelhaar/planwise/adapter/cli/task"
	"github.com/felixgeelhaar/planwise/internal/app"
	"github.com/felixgeelhaar/planwise/pkg/config"
	"github.com/felixgeelhaar/planwise/pkg/observability"
	"github.com/google/uuid"
)

func main() {
	logger := observability.LoggerFromEnv()

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.IsDevelopment() && os.Getenv("PLANWISE_LOG_LEVEL") == "" {
		logCfg := observability.DefaultLogConfig()
		logCfg.Level = observability.LogLevel(cfg.LogLevel)
		logger = observability.NewLogger(logCfg)
	}
	cli.SetLogger(logger)

	var cliApp *cli.App
	container, err := app.NewContainer(ctx, cfg, logger, nil)
	if err != nil {
		if !cfg.IsDevelopment() {
			logger.Error("failed to initialize container", "error", err)
			os.Exit(1)
		}
		// version and help still work without storage
		logger.Warn("failed to initialize container, running in limited mode", "error", err)
	} else {
		defer container.Close()

		userID, err := uuid.Parse(cfg.UserID)
		if err != nil {
			logger.Error("invalid PLANWISE_USER_ID", "error", err)
			os.Exit(1)
		}
		cliApp = cli.NewApp(container, userID)
	}
	cli.SetApp(cliApp)

	cli.AddCommand(risk.Cmd)
	cli.AddCommand(insight.Cmd)
	cli.AddCommand(task.Cmd)
	cli.AddCommand(booking.Cmd)

	cli.Execute(ctx)
}
