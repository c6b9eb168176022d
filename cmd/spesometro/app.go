package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"spesometro/internal/aggregate"
	"spesometro/internal/amqp"
	"spesometro/internal/cache"
	"spesometro/internal/cli"
	"spesometro/internal/config"
	"spesometro/internal/core"
	applog "spesometro/internal/log"
	"spesometro/internal/services"
	"spesometro/internal/sheets"
	"spesometro/internal/store"
)

// app is everything a command needs, opened once per invocation.
type app struct {
	cfg    *config.Config
	logger *applog.Logger
	store  *store.Store
	ledger *services.LedgerService
	agg    *aggregate.Aggregator
	now    func() time.Time
	// sheets overrides the Google Sheets writer; nil builds one from config.
	sheets sheets.ReportWriter

	closers []func() error
}

type opener func(ctx context.Context) (*app, error)

// openApp wires the configured substrate, the optional change publisher and
// the aggregator, then loads the ledger.
func openApp(ctx context.Context) (*app, error) {
	cli.LoadEnvFile()
	cfg, err := cli.LoadAndValidateConfig(false)
	if err != nil {
		return nil, err
	}
	if os.Getenv("LOG_LEVEL") == "" {
		// Keep command output clean unless asked otherwise.
		cfg.LogLevel = "warn"
	}
	logger := cli.SetupLogger(cfg, applog.ComponentCLI, os.Stderr)

	res, err := cli.OpenBackend(ctx, cfg, logger.WithComponent(applog.ComponentBackend).Slog())
	if err != nil {
		return nil, err
	}

	st := store.New(res.KV, store.WithLogger(logger.WithComponent(applog.ComponentStore).Slog()))

	var publisher services.Publisher
	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// Change events are optional; the ledger still works without them.
			logger.Warn("AMQP unavailable, change events disabled", applog.FieldError, err)
		} else {
			publisher = client
		}
	}

	a := newApp(cfg, logger, st, publisher, time.Now)
	a.closers = append(a.closers, res.Cleanup)

	if err := st.Initialize(ctx); err != nil {
		return nil, errors.Join(err, a.Close())
	}
	return a, nil
}

func newApp(cfg *config.Config, logger *applog.Logger, st *store.Store, publisher services.Publisher, now func() time.Time) *app {
	overviews := cache.NewLRUCache[core.MonthOverview](cfg.CacheSize, cfg.CacheTTL)
	ledger := services.NewLedgerService(st, publisher, logger.WithComponent(applog.ComponentLedger).Slog())
	return &app{
		cfg:     cfg,
		logger:  logger,
		store:   st,
		ledger:  ledger,
		agg:     aggregate.New(st, aggregate.WithClock(now), aggregate.WithOverviewCache(overviews)),
		now:     now,
		closers: []func() error{ledger.Close},
	}
}

func (a *app) today() core.Date {
	return core.DateOf(a.now())
}

func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// run opens the app around fn and closes it afterwards.
func run(open opener, fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) (err error) {
		a, err := open(cmd.Context())
		if err != nil {
			return fmt.Errorf("open ledger: %w", err)
		}
		defer func() {
			if cerr := a.Close(); cerr != nil && err == nil {
				err = cerr
			}
		}()
		return fn(cmd, a, args)
	}
}
