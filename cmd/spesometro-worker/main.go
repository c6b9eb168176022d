package main

import (
	"context"
	"errors"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"spesometro/internal/aggregate"
	"spesometro/internal/amqp"
	"spesometro/internal/cache"
	"spesometro/internal/cli"
	"spesometro/internal/config"
	"spesometro/internal/core"
	applog "spesometro/internal/log"
	gsheet "spesometro/internal/sheets/google"
	"spesometro/internal/store"
	"spesometro/internal/worker"
)

const shutdownTimeout = 30 * time.Second

func main() {
	cli.LoadEnvFile()

	cfg, err := cli.LoadAndValidateConfig(true)
	if err != nil {
		// The logger is not configured yet; report on a default one.
		applog.New(applog.DefaultConfig()).Error("Configuration validation failed",
			applog.FieldOperation, applog.OpValidate, applog.FieldError, err)
		os.Exit(1)
	}
	logger := cli.SetupLogger(cfg, applog.ComponentWorker, os.Stdout)
	logger.Info("Starting spesometro-worker",
		applog.FieldOperation, applog.OpStartup,
		applog.FieldBackend, cfg.DataBackend,
		"export_interval", cfg.ExportInterval,
		"export_months", cfg.ExportMonths)

	if err := run(cfg, logger); err != nil {
		logger.Error("Worker stopped with error", applog.FieldError, err)
		os.Exit(1)
	}
	logger.Info("Worker shutdown complete")
}

func run(cfg *config.Config, logger *applog.Logger) error {
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Slog())
	ctx, done := cli.GracefulShutdown(logger.Slog(), shutdownTimeout, caches.Stop)

	res, err := cli.OpenBackend(ctx, cfg, logger.WithComponent(applog.ComponentBackend).Slog())
	if err != nil {
		return err
	}
	defer res.Cleanup()

	st := store.New(res.KV, store.WithLogger(logger.WithComponent(applog.ComponentStore).Slog()))
	if err := st.Initialize(ctx); err != nil {
		return err
	}

	overviews := cache.NewLRUCache[core.MonthOverview](cfg.CacheSize, cfg.CacheTTL)
	caches.Register(overviews)
	caches.StartCleanup(cfg.CacheTTL)
	agg := aggregate.New(st, aggregate.WithOverviewCache(overviews))

	sheetsClient, err := gsheet.New(ctx, gsheet.Config{
		SpreadsheetID:      cfg.GoogleSpreadsheetID,
		SheetName:          cfg.GoogleSheetName,
		ServiceAccountJSON: cfg.GoogleServiceAccountJSON,
		ServiceAccountFile: cfg.GoogleServiceAccountFile,
	})
	if err != nil {
		return err
	}
	logger.WithComponent(applog.ComponentSheets).Info("Google Sheets client initialized",
		"spreadsheet_id", cfg.GoogleSpreadsheetID)

	amqpClient, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
	if err != nil {
		return err
	}
	defer amqpClient.Close()
	logger.WithComponent(applog.ComponentAMQP).Info("AMQP client connected",
		"exchange", cfg.AMQPExchange, "queue", cfg.AMQPQueue)

	exporter := worker.NewExportWorker(st, agg, sheetsClient, logger.Slog())

	// Catch up on anything written while the worker was down.
	if err := exporter.ExportRecent(ctx, cfg.ExportMonths); err != nil {
		logger.Error("Startup export failed", applog.FieldError, err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return amqpClient.ConsumeLedgerChanged(gctx, exporter.HandleLedgerChanged)
	})
	g.Go(func() error {
		return exporter.RunPeriodic(gctx, cfg.ExportInterval, cfg.ExportMonths)
	})

	err = g.Wait()
	if ctx.Err() != nil {
		<-done
	}
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
