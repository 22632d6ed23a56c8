package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"orrfdash/internal/amqp"
	"orrfdash/internal/config"
	"orrfdash/internal/ingest"
	applog "orrfdash/internal/log"
	gsheet "orrfdash/internal/sheets/google"
	"orrfdash/internal/storage"
)

func main() {
	_ = godotenv.Load()

	logger := applog.New(applog.Config{
		Level:     slog.LevelInfo,
		Component: "orrf-ingest",
	})
	applog.SetDefault(logger)

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}
	if err := cfg.ValidateIngest(); err != nil {
		logger.Error("Ingest configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	if err := storage.RunMigrations(cfg.DatasetPath); err != nil {
		logger.Error("Failed to run migrations", "error", err, "path", cfg.DatasetPath)
		os.Exit(1)
	}

	store, err := storage.Open(cfg.DatasetPath)
	if err != nil {
		logger.Error("Failed to open dataset", "error", err, "path", cfg.DatasetPath)
		os.Exit(1)
	}
	defer store.Close()

	sheetsClient, err := gsheet.NewClient(ctx, cfg.GoogleSpreadsheetID, cfg.GoogleCredentialsJSON, cfg.GoogleCredentialsFile)
	if err != nil {
		logger.Error("Failed to initialize Google Sheets client", "error", err)
		os.Exit(1)
	}

	var publisher ingest.RefreshPublisher
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()
		publisher = amqpClient
	} else {
		logger.Info("AMQP disabled - running servers will not be notified")
	}

	pipeline := ingest.New(store, sheetsClient, sheetsClient, publisher)
	start := time.Now()
	if err := pipeline.Run(ctx, ingest.SheetNames{
		Rize:             cfg.RizeSheet,
		MosaicCore:       cfg.MosaicCoreSheet,
		FamilyResilience: cfg.FamilyResilienceSheet,
		County:           cfg.CountySheet,
	}); err != nil {
		logger.Error("Ingest pipeline failed", "error", err)
		os.Exit(1)
	}

	logger.Info("Ingest complete", "duration", time.Since(start).Round(time.Millisecond))
}
