// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/Athenodoros/TopHat-sub000/internal/domain/ledger"
)

// RateSource fetches fresh exchange rates, keyed by currency ticker, with
// each rate expressed against the shared base currency.
type RateSource func(ctx context.Context) (map[string]string, error)

// RateScheduler refreshes the ledger's currency exchange rates on a cron
// schedule so transfer matching converts with recent data.
type RateScheduler struct {
	cron     *cron.Cron
	source   RateSource
	updater  ledger.RateUpdater
	schedule string
	logger   *slog.Logger
}

// NewRateScheduler creates the refresh job. schedule is a standard 5-field
// cron expression.
func NewRateScheduler(source RateSource, updater ledger.RateUpdater, schedule string, logger *slog.Logger) *RateScheduler {
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &RateScheduler{
		cron:     c,
		source:   source,
		updater:  updater,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins the scheduled refresh.
func (s *RateScheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.refresh)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("rate scheduler started",
		slog.String("schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops the scheduler.
func (s *RateScheduler) Stop() context.Context {
	s.logger.Info("rate scheduler stopping")
	return s.cron.Stop()
}

// RunNow manually triggers a refresh (for testing/admin).
func (s *RateScheduler) RunNow() {
	go s.refresh()
}

func (s *RateScheduler) refresh() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	s.logger.Info("starting exchange rate refresh")

	rates, err := s.source(ctx)
	if err != nil {
		s.logger.Error("failed to fetch exchange rates", slog.Any("error", err))
		return
	}
	if len(rates) == 0 {
		s.logger.Warn("rate source returned no rates")
		return
	}

	if err := s.updater.UpdateCurrencyRates(ctx, rates); err != nil {
		s.logger.Error("failed to store exchange rates", slog.Any("error", err))
		return
	}

	s.logger.Info("exchange rate refresh completed",
		slog.Int("currencies", len(rates)),
	)
}
