package main

import (
	"go.uber.org/zap"

	"github.com/marketscan-lab/marketscan/internal/calendar"
	"github.com/marketscan-lab/marketscan/internal/config"
	"github.com/marketscan-lab/marketscan/internal/fetch"
	"github.com/marketscan-lab/marketscan/internal/indicator"
	"github.com/marketscan-lab/marketscan/internal/job"
	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/store"
	"github.com/marketscan-lab/marketscan/internal/strategy"
)

// app holds the wired pipeline for one CLI invocation.
type app struct {
	cfg      *config.Config
	logger   *logger.Logger
	calendar *calendar.Calendar
	store    *store.DuckDBStore
	runner   *job.Runner
}

// newApp loads the configuration and wires every pipeline stage.
func newApp(configPath string) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}

	log, err := logger.NewLogger(cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	holidays, err := cfg.HolidayDates()
	if err != nil {
		return nil, err
	}

	cal := calendar.New(holidays, calendar.WithCloseHour(cfg.Calendar.CloseHour))

	provider, err := fetch.NewProvider(cfg.Provider)
	if err != nil {
		return nil, err
	}

	pool := fetch.NewPool(cfg.Credentials, cfg.Pool)
	fetcher := fetch.NewFetcher(provider, pool, cfg.Fetch, log)

	indicatorRegistry, err := indicator.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	indicatorEngine := indicator.NewEngine(indicatorRegistry, log)

	strategyRegistry, err := strategy.DefaultRegistry()
	if err != nil {
		return nil, err
	}

	strategies, err := strategyRegistry.Snapshot(cfg.Strategies)
	if err != nil {
		return nil, err
	}

	strategyEngine := strategy.NewEngine(strategies, cfg.Fetch.Workers, log)

	st, err := store.NewDuckDBStore(cfg.Store.Path, log)
	if err != nil {
		return nil, err
	}

	runner := job.NewRunner(fetcher, indicatorEngine, strategyEngine, st, cal,
		cfg.Universe, cfg.Job, cfg.Fetch.Workers, log)

	return &app{
		cfg:      cfg,
		logger:   log,
		calendar: cal,
		store:    st,
		runner:   runner,
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.logger.Warn("failed to close store", zap.Error(err))
	}

	_ = a.logger.Sync()
}
