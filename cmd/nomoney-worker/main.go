package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"nomoney/internal/amqp"
	"nomoney/internal/config"
	"nomoney/internal/export"
	"nomoney/internal/log"
	"nomoney/internal/services"
	"nomoney/internal/storage"
)

func main() {
	// Load .env for local development (ignore errors in production/docker)
	_ = godotenv.Load()

	logger := log.New(log.Config{
		Level:     log.DefaultConfig().Level,
		Component: log.ComponentWorker,
	})
	log.SetDefault(logger)

	logger.Info("Starting nomoney-worker")

	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Configuration validation failed", "error", err)
		os.Exit(1)
	}

	if cfg.GoogleSpreadsheetID == "" {
		logger.Error("Google Sheets export disabled - no GOOGLE_SPREADSHEET_ID provided, nothing to do")
		os.Exit(1)
	}

	repo, err := storage.NewRepository(cfg.SQLiteDBPath)
	if err != nil {
		logger.Error("Failed to initialize storage", "error", err, "path", cfg.SQLiteDBPath)
		os.Exit(1)
	}
	defer repo.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	exporter, err := export.NewClient(ctx, export.Options{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		logger.Error("Failed to initialize Google Sheets export client", "error", err)
		os.Exit(1)
	}

	processor := services.NewSyncProcessor(repo, exporter, services.SyncProcessorConfig{
		PollInterval: cfg.SyncInterval,
		BatchSize:    cfg.SyncBatchSize,
	})

	group, gctx := errgroup.WithContext(ctx)

	// The poll loop catches expenses whose events were lost.
	if err := processor.Start(gctx); err != nil {
		logger.Error("Failed to start sync processor", "error", err)
		os.Exit(1)
	}

	// AMQP consumption is optional; without a broker we run on polling only.
	if cfg.AMQPURL != "" {
		amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("Failed to initialize AMQP client", "error", err)
			os.Exit(1)
		}
		defer amqpClient.Close()

		group.Go(func() error {
			err := amqpClient.ConsumeExpenseEvents(gctx, func(msg *amqp.ExpenseEvent) error {
				return processor.HandleEvent(gctx, msg)
			})
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
		logger.Info("Consuming expense events", "queue", cfg.AMQPQueue)
	} else {
		logger.Info("AMQP disabled - running on periodic sync only")
	}

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigChan:
		logger.Info("Shutdown signal received", "signal", sig.String())
	case <-gctx.Done():
		logger.Info("Worker context cancelled")
	}

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	if err := processor.Stop(shutdownCtx); err != nil {
		logger.Warn("Sync processor stop timed out", "error", err)
	}

	if err := group.Wait(); err != nil {
		logger.Error("Worker error", "error", err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}
