package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orrfdash/internal/amqp"
	"orrfdash/internal/config"
	apphttp "orrfdash/internal/http"
	applog "orrfdash/internal/log"
	"orrfdash/internal/services"
	"orrfdash/internal/storage"
	"orrfdash/internal/worker"
)

func main() {
	// Load .env file for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "orrfdash",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DatasetPath)
	if err != nil {
		logger.Error("Failed to open dataset", "error", err, "path", cfg.DatasetPath)
		os.Exit(1)
	}
	defer store.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := store.Load(ctx); err != nil {
		logger.Error("Failed to load dataset", "error", err, "path", cfg.DatasetPath)
		os.Exit(1)
	}

	reports := services.New(store)
	srv := apphttp.NewServer(":"+cfg.Port, reports, cfg.SearchCacheSize, cfg.SearchCacheTTL)

	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 30 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	// Hot reload: the ingest pipeline announces grant table rebuilds over
	// AMQP. Without a broker the server still works, it just needs a restart
	// to pick up a new dataset file.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		refreshWorker := worker.NewRefreshWorker(store, srv.PurgeCaches)
		go func() {
			if err := refreshWorker.Run(ctx, amqpClient); err != nil && err != context.Canceled {
				logger.Error("Refresh worker stopped", "error", err)
			}
		}()
		logger.Info("Dataset refresh worker started", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - dataset reloads require a restart")
	}

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		logger.Info("Shutdown signal received", "signal", sig.String())

		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer shutdownCancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
		cancel()
	}()

	logger.Info("Starting orrfdash server", "port", cfg.Port, "dataset", cfg.DatasetPath)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logger.Error("Server error", "error", err, "port", cfg.Port)
		os.Exit(1)
	}

	<-ctx.Done()
	logger.Info("Server stopped gracefully")
}
