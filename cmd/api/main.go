// backend/cmd/api/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	httpin "solusd/internal/adapters/in/http"
	"solusd/internal/infra/config"
	"solusd/internal/infra/logging"
	"solusd/internal/platform/di"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "solusd api: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, File: cfg.LogFile})
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cont, err := di.NewContainer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("di init: %w", err)
	}
	defer func() {
		if err := cont.Close(); err != nil {
			logger.Warn("container close", zap.Error(err))
		}
	}()

	// No WriteTimeout: mint/burn wait for confirmation and the balance stream is long-lived.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           httpin.NewRouter(cont.RouterDeps()),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	// ─────────────────────────────────────────────────────────────
	// Graceful shutdown for Cloud Run
	// ─────────────────────────────────────────────────────────────
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", srv.Addr), zap.String("cluster", cfg.Cluster))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server error: %w", err)
		}
	case <-ctx.Done():
		logger.Info("shutting down")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("server shutdown", zap.Error(err))
	}
	logger.Info("server stopped")
	return nil
}
