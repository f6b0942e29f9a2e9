// The spendreport server exposes the categorization and reporting engine as
// a JSON API. State lives in memory and is persisted through the configured
// blob backend; mutations are announced over AMQP when a broker is set.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"spendreport/internal/amqp"
	"spendreport/internal/backend"
	"spendreport/internal/cache"
	"spendreport/internal/cli"
	apphttp "spendreport/internal/http"
	"spendreport/internal/ledger"
	"spendreport/internal/log"
	"spendreport/internal/services"
)

func main() {
	cli.LoadEnvFile()
	logger := cli.SetupLogger(log.ComponentApp)
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
			// The engine works without the broker; sync just stalls.
			logger.Warn("AMQP connection failed, running without sync announcements", "error", err)
		} else {
			publisher = amqpClient
		}
	}

	led := ledger.New(store)
	rules := services.NewRulesService(store, publisher)
	settings := services.NewSettingsService(cfg.Settings, store, publisher)
	reports := services.NewReportService(led, rules, settings, cfg.CacheSize, cfg.CacheTTL)
	recurring := services.NewRecurringService(led, store, publisher)

	cacheManager := cache.NewManager()
	reports.RegisterCaches(cacheManager)
	cacheManager.StartCleanup(10 * time.Minute)

	var ready atomic.Bool
	for name, load := range map[string]func(context.Context) error{
		"transactions": led.Load,
		"rules":        rules.Load,
		"settings":     settings.Load,
		"generators":   recurring.Load,
	} {
		if err := load(ctx); err != nil {
			logger.Error("Failed to load persisted state", "error", err, "key", name)
			os.Exit(1)
		}
	}
	ready.Store(true)

	srv := apphttp.NewServer(":"+cfg.Port, apphttp.Services{
		Import:       services.NewImportService(led, rules, publisher),
		Transactions: services.NewTransactionService(led, rules, publisher),
		Rules:        rules,
		Settings:     settings,
		Reports:      reports,
		Recurring:    recurring,
	}, ready.Load)

	shutdownCtx, done := cli.GracefulShutdown(logger, 15*time.Second, func() {
		sctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Error("Server shutdown failed", "error", err)
		}
		cacheManager.Stop()
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

	g, gctx := errgroup.WithContext(shutdownCtx)
	g.Go(func() error {
		logger.Info("Server starting", "addr", srv.Addr, "backend", cfg.DataBackend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		return nil
	})

	if err := g.Wait(); err != nil {
		logger.Error("Server exited with error", "error", err)
		os.Exit(1)
	}
	cli.WaitForShutdown(shutdownCtx, done)
}
