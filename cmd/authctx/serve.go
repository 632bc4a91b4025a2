package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	httpAdapter "github.com/unimarket/authctx/internal/adapters/http"
	"github.com/unimarket/authctx/internal/cli"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Expose this context's session over HTTP",
	Long:  `Runs one long-lived context that restores the session, follows signals from other contexts and serves the session, an SSE event stream and metrics over HTTP.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}
		if cmd.Flags().Changed("addr") {
			cfg.HTTPAddr, _ = cmd.Flags().GetString("addr")
		}

		logger := cli.CreateLogger(cfg.LogLevel)
		reg := prometheus.NewRegistry()
		reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

		w, err := cli.BuildStore(cfg, logger, reg)
		if err != nil {
			return err
		}
		defer w.Close()

		ctx := cli.NewSignalContext(cmd.Context())
		defer ctx.Cancel()

		srv := &http.Server{
			Addr:    cfg.HTTPAddr,
			Handler: httpAdapter.NewHandler(w.Store, httpAdapter.WithLogger(logger), httpAdapter.WithGatherer(reg)),
		}

		// Channel to listen for errors coming from the listener.
		serverErrors := make(chan error, 1)
		go func() {
			logger.Info("Starting session server", "addr", srv.Addr, "backend", cfg.Backend)
			serverErrors <- srv.ListenAndServe()
		}()

		// Restore after the listener is up so GET /session reports 503 meanwhile.
		w.Store.Initialize(ctx)
		go func() {
			if err := w.Store.Listen(ctx); err != nil && !errors.Is(err, context.Canceled) {
				logger.Warn("Running without cross-context sync", "err", err)
			}
		}()

		select {
		case err := <-serverErrors:
			return fmt.Errorf("server error: %w", err)

		case <-ctx.Done():
			logger.Info("Start shutdown", "signal", ctx.Signal())

			// Give outstanding requests a deadline for completion.
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			if err := srv.Shutdown(shutdownCtx); err != nil {
				logger.Error("Graceful shutdown did not complete", "timeout", 5*time.Second, "err", err)
				if err := srv.Close(); err != nil {
					return fmt.Errorf("error killing server: %w", err)
				}
			}
			logger.Info("Session server stopped gracefully")
			return nil
		}
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("addr", "", "Address to listen on (defaults to http_addr from config)")
}
