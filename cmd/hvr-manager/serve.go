package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	httpapp "github.com/hvr-ops/hvr-manager/internal/http"
	"github.com/hvr-ops/hvr-manager/internal/metrics"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the JSON API server.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.CommandPath())
	},
}

func runServe(commandPath string) error {
	ctx, stop := commandContext()
	defer stop()

	svc, cfg, err := buildService(ctx, commandPath, false)
	if err != nil {
		return err
	}

	if _, metricsErrCh := metrics.StartServer(ctx, cfg.MetricsAddr); metricsErrCh != nil {
		go func() {
			if err := <-metricsErrCh; err != nil {
				slog.Error("metrics server failed", "err", err)
			}
		}()
	}

	srv, err := httpapp.NewEchoServer(cfg, svc)
	if err != nil {
		return err
	}

	httpServer := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("listening", "addr", cfg.HTTPAddr)
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return err
		}
		return nil
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}
