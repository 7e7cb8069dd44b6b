package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"time"

	"pocket/internal/cli"
	apphttp "pocket/internal/http"
	"pocket/internal/log"
	"pocket/internal/store"
)

func main() {
	cli.LoadEnvFile()

	logger := cli.SetupLogger(slog.LevelInfo)
	cfg := cli.LoadAndValidateConfig(logger)
	if cfg.LogLevel != "info" {
		logger = cli.SetupLogger(cfg.SlogLevel())
	}

	res := cli.OpenBackend(logger, cfg)
	defer func() {
		if err := res.Cleanup(); err != nil {
			logger.Error("Failed to close persistence backend", log.FieldError, err)
		}
	}()

	var publisher store.Publisher
	eventClient := cli.OpenEventClient(logger, cfg)
	if eventClient != nil {
		publisher = eventClient
		defer eventClient.Close()
	}

	categories := store.NewCategoryStore(res.Store, publisher, logger)
	transactions := store.NewTransactionStore(res.Store, publisher, logger)

	loadCtx, loadCancel := context.WithTimeout(context.Background(), 30*time.Second)
	categories.Load(loadCtx)
	transactions.Load(loadCtx)
	loadCancel()

	srv := apphttp.NewServer(":"+cfg.Port, categories, transactions, res.Store, apphttp.Options{
		RecentLimit: cfg.RecentLimit,
		CacheTTL:    cfg.CacheTTL,
	})

	// Configure server timeouts and limits
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", log.FieldError, err)
		}
	})

	logger.Info("Starting pocket server",
		"port", cfg.Port, log.FieldBackend, cfg.DataBackend)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", log.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}
