// The generator worker periodically projects recurring-transaction
// templates forward, appending the due transactions to the persisted ledger
// and advancing each template's cursor.
package main

import (
	"context"
	"os"
	"time"

	"spendreport/internal/amqp"
	"spendreport/internal/backend"
	"spendreport/internal/cli"
	"spendreport/internal/ledger"
	"spendreport/internal/log"
	"spendreport/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentGenerator)
	cfg := cli.LoadAndValidateConfig(logger)

	ctx := context.Background()

	backendResult, err := backend.NewFactory(logger.Logger).Create(ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize storage backend", "error", err, "backend", cfg.DataBackend)
		os.Exit(1)
	}
	store := backendResult.Store

	var publisher services.Publisher
	var amqpClient *amqp.Client
	if cfg.AMQPURL != "" {
		amqpClient, err = amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			logger.Warn("AMQP connection failed, running without sync announcements", "error", err)
		} else {
			publisher = amqpClient
		}
	}

	led := ledger.New(store)
	recurring := services.NewRecurringService(led, store, publisher)

	if err := led.Load(ctx); err != nil {
		logger.Error("Failed to load transactions", "error", err)
		os.Exit(1)
	}
	if err := recurring.Load(ctx); err != nil {
		logger.Error("Failed to load generators", "error", err)
		os.Exit(1)
	}

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		if amqpClient != nil {
			if err := amqpClient.Close(); err != nil {
				logger.Error("AMQP close failed", "error", err)
			}
		}
		if backendResult.Cleanup != nil {
			if err := backendResult.Cleanup(); err != nil {
				logger.Error("Backend cleanup failed", "error", err)
			}
		}
	})

	runOnce := func() {
		added, err := recurring.RunDue(shutdownCtx)
		if err != nil {
			logger.Error("Generator run failed", "error", err)
			return
		}
		if added > 0 {
			logger.Info("Generator run completed", "added", added)
		}
	}

	logger.Info("Generator worker started", "interval", cfg.SyncInterval.String())
	runOnce()

	ticker := time.NewTicker(cfg.SyncInterval)
	defer ticker.Stop()
	for {
		select {
		case <-shutdownCtx.Done():
			cli.WaitForShutdown(shutdownCtx, done)
			return
		case <-ticker.C:
			runOnce()
		}
	}
}
