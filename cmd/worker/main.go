package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/felixgeelhaar/planwise/internal/app"
	"github.com/felixgeelhaar/planwise/internal/availability/application/workers"
	"github.com/felixgeelhaar/planwise/pkg/config"
	"github.com/felixgeelhaar/planwise/pkg/observability"
)

func main() {
	logger := observability.LoggerFromEnv()
	logger.Info("starting planwise worker")

	// Create context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Handle shutdown signals
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logger.Info("received shutdown signal", "signal", sig)
		cancel()
	}()

	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if cfg.IsProduction() {
		logger = observability.NewLogger(observability.ProductionLogConfig())
	}

	metrics := observability.NewPrometheusMetrics()
	container, err := app.NewContainer(ctx, cfg, logger, metrics)
	if err != nil {
		logger.Error("failed to initialize container", "error", err)
		os.Exit(1)
	}
	defer container.Close()

	worker, err := workers.NewRiskScanWorker(container.ScanRisksHandler, workers.RiskScanWorkerConfig{
		Schedule: cfg.RiskScanCron,
		Location: cfg.Location(),
	}, logger)
	if err != nil {
		logger.Error("failed to create risk scan worker", "error", err)
		os.Exit(1)
	}

	if container.OutboxProcessor != nil {
		if err := container.OutboxProcessor.Start(ctx); err != nil {
			logger.Error("failed to start outbox processor", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Info("no broker configured, events are dispatched in-process")
	}

	if cfg.WorkerHealthAddr != "" {
		mux := http.NewServeMux()
		mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
			response := map[string]any{
				"status":   "ok",
				"running":  worker.IsRunning(),
				"next_run": worker.NextRun(time.Now()),
			}
			if container.OutboxProcessor != nil {
				response["outbox"] = container.OutboxProcessor.GetStats()
			}
			if last := worker.LastResult(); last != nil {
				response["last_scan"] = map[string]any{
					"date":             last.Date.String(),
					"users":            last.Users,
					"users_with_risks": last.WithRisks,
					"findings":         last.Findings,
					"failed":           last.Failed,
				}
			}
			w.Header().Set("Content-Type", "application/json")
			_ = json.NewEncoder(w).Encode(response)
		})

		mux.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
			checkCtx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			health := container.Health.Check(checkCtx)
			w.Header().Set("Content-Type", "application/json")
			if health.Status == observability.HealthStatusUnhealthy {
				w.WriteHeader(http.StatusServiceUnavailable)
			}
			_ = json.NewEncoder(w).Encode(health)
		})

		mux.Handle("/metrics", metrics.Handler())

		healthSrv := &http.Server{
			Addr:              cfg.WorkerHealthAddr,
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}

		go func() {
			logger.Info("health server starting", "addr", cfg.WorkerHealthAddr)
			if err := healthSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logger.Error("health server error", "error", err)
			}
		}()

		go func() {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := healthSrv.Shutdown(shutdownCtx); err != nil {
				logger.Warn("health server shutdown error", "error", err)
			}
		}()
	}

	// Blocks until shutdown
	if err := worker.Run(ctx); err != nil {
		logger.Error("risk scan worker failed", "error", err)
	}
	logger.Info("worker stopped")

	fmt.Println("Goodbye!")
}
