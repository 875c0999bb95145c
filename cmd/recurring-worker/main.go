package main

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"bilancio/internal/amqp"
	"bilancio/internal/cli"
	"bilancio/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger()
	logger.Info("Starting recurring-worker")

	cfg := cli.LoadAndValidateConfig(logger)
	store, cleanup := cli.InitStore(context.Background(), logger, cfg)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		var err error
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("Failed to initialize AMQP client, installments will not be exported", "error", err)
			amqpClient = nil
		} else {
			logger.Info("AMQP client initialized, installments will be exported")
		}
	}

	entries := services.NewEntryService(store, amqpClient)
	recurring := services.NewRecurringService(store, entries)
	large := services.NewLargeService(store, entries)

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func() {
		if err := entries.Close(); err != nil {
			logger.Error("Entry service close error", "error", err)
		}
		if cleanup != nil {
			if err := cleanup(); err != nil {
				logger.Error("Store cleanup error", "error", err)
			}
		}
	})

	logger.Info("Materializer configured",
		"interval", cfg.MaterializeInterval,
		"backend", cfg.DataBackend)

	materialize := func(now time.Time) {
		// Expire stale definitions first so the generators below never
		// materialize from a schedule that is already over.
		if expired, err := large.ExpireOld(ctx, now); err != nil {
			logger.Error("Large expense housekeeping failed", "error", err)
		} else if expired > 0 {
			logger.Info("Expired large expense definitions", "count", expired)
		}

		// Recurring and large definitions materialize independently; the
		// per-month installment index keeps concurrent inserts safe.
		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error {
			count, err := recurring.Materialize(gctx, now)
			if err != nil {
				return err
			}
			logger.Info("Recurring materialization complete", "installments_created", count)
			return nil
		})
		g.Go(func() error {
			count, err := large.Materialize(gctx, now)
			if err != nil {
				return err
			}
			logger.Info("Large expense materialization complete", "installments_created", count)
			return nil
		})
		if err := g.Wait(); err != nil {
			logger.Error("Materialization failed", "error", err)
		}
	}

	// Catch up immediately on startup, then tick.
	logger.Info("Running initial materialization...")
	materialize(time.Now())

	ticker := time.NewTicker(cfg.MaterializeInterval)
	defer ticker.Stop()

	go func() {
		for {
			select {
			case <-ctx.Done():
				return
			case now := <-ticker.C:
				materialize(now)
			}
		}
	}()

	cli.WaitForShutdown(ctx, done)
	logger.Info("Recurring-worker stopped")
}
