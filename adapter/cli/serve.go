package cli

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/felixgeelhaar/planwise/adapter/api"
	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve booking links over HTTP",
	Long: `Serve the booking API until interrupted.

Endpoints:
  GET  /health
  GET  /api/v1/links/{link}/slots?date=YYYY-MM-DD&rank=true
  POST /api/v1/links/{link}/bookings`,
	RunE: func(cmd *cobra.Command, args []string) error {
		app := GetApp()
		if app == nil || app.GetBookingSlotsHandler == nil || app.CreateBookingHandler == nil {
			return ErrNotInitialized
		}

		cfg := api.DefaultServerConfig()
		cfg.Addr = serveAddr
		server := api.NewServer(cfg, api.NewBookingHandler(app.GetBookingSlotsHandler, app.CreateBookingHandler, logger), app.Health, logger)

		errCh := make(chan error, 1)
		go func() { errCh <- server.Start() }()

		select {
		case err := <-errCh:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err
		case <-cmd.Context().Done():
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return server.Shutdown(shutdownCtx)
		}
	},
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", api.DefaultServerConfig().Addr, "listen address")
	rootCmd.AddCommand(serveCmd)
}
