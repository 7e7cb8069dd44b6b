// Package cli provides common initialization utilities for cmd/pocket.
package cli

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"pocket/internal/backend"
	"pocket/internal/config"
	"pocket/internal/event"
	"pocket/internal/log"
)

// SetupLogger initializes structured logging at the given level and sets
// it as the process default.
func SetupLogger(level slog.Level) *log.Logger {
	logger := log.New(log.Config{
		Handler: slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
			Level: level,
		}),
		Component: log.ComponentApp,
	})
	log.SetDefault(logger)
	return logger
}

// LoadEnvFile loads the .env file for local development.
// Errors are ignored silently as this is optional in production.
func LoadEnvFile() {
	_ = godotenv.Load()
}

// LoadAndValidateConfig loads configuration and validates it.
// Returns the config or exits the process on validation failure.
func LoadAndValidateConfig(logger *log.Logger) *config.Config {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", log.FieldError, err)
		os.Exit(1)
	}
	return cfg
}

// OpenBackend opens the configured persistence backend.
// Returns the result or exits the process on failure.
func OpenBackend(logger *log.Logger, cfg *config.Config) *backend.Result {
	res, err := backend.Open(backend.Config{
		Type:         backend.Type(cfg.DataBackend),
		DataDir:      cfg.DataDir,
		SQLiteDBPath: cfg.SQLiteDBPath,
	}, logger)
	if err != nil {
		logger.Error("Failed to open persistence backend",
			log.FieldError, err, log.FieldBackend, cfg.DataBackend)
		os.Exit(1)
	}
	return res
}

// OpenEventClient connects the optional AMQP event publisher. An empty
// URL disables publishing; the returned client is nil in that case.
func OpenEventClient(logger *log.Logger, cfg *config.Config) *event.Client {
	if cfg.AMQPURL == "" {
		return nil
	}
	client, err := event.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue, logger)
	if err != nil {
		logger.Warn("Event publishing disabled, AMQP connection failed",
			log.FieldError, err)
		return nil
	}
	logger.Info("Event publishing enabled",
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)
	return client
}

// GracefulShutdown sets up signal handling for graceful shutdown.
// Returns a context that will be cancelled on shutdown signals,
// and a channel that signals when shutdown is complete.
func GracefulShutdown(logger *log.Logger, timeout time.Duration, cleanup func()) (context.Context, <-chan struct{}) {
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), timeout)
		defer shutdownCancel()

		if cleanup != nil {
			cleanup()
		}

		cancel()

		select {
		case <-shutdownCtx.Done():
			logger.Warn("Shutdown timeout reached")
		case <-time.After(2 * time.Second):
			logger.Info("Shutdown complete")
		}
		close(done)
	}()

	return ctx, done
}

// WaitForShutdown blocks until the context is cancelled.
func WaitForShutdown(ctx context.Context, done <-chan struct{}) {
	<-ctx.Done()
	<-done
}
