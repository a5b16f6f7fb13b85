package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alexshd/xrayprep/internal/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 5 * time.Second

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serve the solvers as JSON endpoints under /v1 with Prometheus metrics on
/metrics. A plan file, if given, supplies the default thresholds, search
configuration and worker count.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, _ := cmd.Flags().GetString("addr")

		cfg := server.DefaultConfig()
		if path, _ := cmd.Flags().GetString("plan"); path != "" {
			p, err := loadPlan(cmd)
			if err != nil {
				return err
			}
			cfg.Thresholds = p.SuitabilityThresholds()
			cfg.Feasibility = p.FeasibilityConfig()
			cfg.Workers = p.Workers
		}

		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		srv := &http.Server{
			Addr:              addr,
			Handler:           server.NewHandler(cfg, logger, reg),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("server starting", "addr", addr)
			serverErrors <- srv.ListenAndServe()
		}()

		select {
		case err := <-serverErrors:
			if errors.Is(err, http.ErrServerClosed) {
				return nil
			}
			return err

		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("graceful shutdown did not complete", "timeout", shutdownTimeout, "error", err)
				return srv.Close()
			}
			logger.Info("server stopped")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", ":8080", "Listen address")
	serveCmd.Flags().String("plan", "", "Plan file supplying default thresholds (optional)")
}
