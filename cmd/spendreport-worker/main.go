// The spendreport worker mirrors dataset blobs from the primary store to an
// outward backend (remote HTTP service or Google Sheets). It reacts to
// dataset-change messages over AMQP and runs a periodic full sync as a
// backup for lost messages.
package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spendreport/internal/amqp"
	"spendreport/internal/backend"
	"spendreport/internal/cli"
	"spendreport/internal/log"
	"spendreport/internal/worker"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentWorker)
	cfg := cli.LoadAndValidateConfig(logger)
	if err := cfg.ValidateMirror(); err != nil {
		logger.Error("Mirror configuration validation failed", "error", err)
		os.Exit(1)
	}

	ctx := context.Background()
	factory := backend.NewFactory(logger.Logger)

	primaryResult, err := factory.Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize primary backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	mirrorResult, err := factory.CreateMirror(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize mirror backend", "error", err, "backend", cfg.MirrorBackend)
		os.Exit(1)
	}

	syncWorker := worker.NewSyncWorker(primaryResult.Store, mirrorResult.Store)

	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Error("AMQP connection failed", "error", err)
			os.Exit(1)
		}
	} else {
		logger.Warn("No AMQP URL configured, running on the periodic sync only")
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", "error", err)
			}
		}
		if primaryResult.Cleanup != nil {
			if err := primaryResult.Cleanup(); err != nil {
				logger.Error("Primary backend cleanup failed", "error", err)
			}
		}
	})

	// Catch up before consuming; covers downtime between runs.
	if err := syncWorker.FullSync(shutdownCtx); err != nil {
		logger.Error("Startup sync failed", "error", err)
	}

	g, gctx := errgroup.WithContext(shutdownCtx)
	if amqpClient != nil {
		g.Go(func() error {
			err := amqpClient.ConsumeDatasetChanges(gctx, func(msg *amqp.DatasetChangeMessage) error {
				return syncWorker.HandleChangeMessage(gctx, msg)
			})
			if err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}
	g.Go(func() error {
		syncWorker.RunPeriodicSync(gctx, cfg.SyncInterval)
		return nil
	})

	logger.Info("Worker started",
		"primary", cfg.DataBackend,
		"mirror", cfg.MirrorBackend,
		"sync_interval", cfg.SyncInterval.String())

	if err := g.Wait(); err != nil {
		logger.Error("Worker exited with error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(shutdownCtx, done)
}
