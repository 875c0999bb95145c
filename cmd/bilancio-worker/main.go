package main

import (
	"context"
	"os"
	"time"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/export"
	"bilancio/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting bilancio-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	store, cleanup := cli.InitStore(context.Background(), logger, cfg)

	var appender export.Appender
	if cfg.GoogleSpreadsheetID != "" {
		client, err := export.NewFromConfig(context.Background(), cfg)
		if err != nil {
			logger.Error("Failed to initialize Google Sheets client", "error", err)
			os.Exit(1)
		}
		appender = client
		logger.Info("Google Sheets export enabled", "spreadsheet_id", cfg.GoogleSpreadsheetID)
	} else {
		// Without credentials the worker still drains the queue so messages
		// do not pile up.
		appender = export.NewMemoryAppender()
		logger.Info("Google Sheets export disabled, consuming messages without export")
	}

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		logger.Error("Failed to initialize AMQP client", "error", err)
		os.Exit(1)
	}

	exportWorker := worker.NewExportWorker(store, appender)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := amqpClient.Close(); err != nil {
			logger.Error("AMQP close error", "error", err)
		}
		if cleanup != nil {
			if err := cleanup(); err != nil {
				logger.Error("Store cleanup error", "error", err)
			}
		}
	})

	go func() {
		err := amqpClient.ConsumeExpenseSync(ctx, func(msg *amqp.ExpenseSyncMessage) error {
			return exportWorker.HandleSyncMessage(ctx, msg)
		})
		if err != nil && err != context.Canceled {
			logger.Error("Message consumption failed", "error", err)
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Bilancio-worker stopped")
}
