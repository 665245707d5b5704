package job

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"

	"github.com/marketscan-lab/marketscan/internal/calendar"
	"github.com/marketscan-lab/marketscan/internal/config"
	"github.com/marketscan-lab/marketscan/internal/fetch"
	"github.com/marketscan-lab/marketscan/internal/indicator"
	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/store"
	"github.com/marketscan-lab/marketscan/internal/strategy"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// commitRetryDelay spaces out re-attempts of a failed commit.
const commitRetryDelay = 250 * time.Millisecond

// DateOutcome is the terminal record of one trading date in a run.
type DateOutcome struct {
	Date          types.TradingDate
	State         DateState
	Fetched       int
	FetchFailures int
	Matches       int
	EvalFailures  int
	// Err is set only when State is StateFailed.
	Err error
}

// Summary aggregates the outcomes of one run, keyed by a run ID.
type Summary struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Outcomes []DateOutcome
}

// Committed counts the dates that reached StateCommitted.
func (s Summary) Committed() int {
	n := 0
	for _, o := range s.Outcomes {
		if o.State == StateCommitted {
			n++
		}
	}

	return n
}

// FailedDates returns the dates that ended in StateFailed. A failed date
// is never folded into the success count; callers decide how loudly to
// surface it.
func (s Summary) FailedDates() []DateOutcome {
	var failed []DateOutcome
	for _, o := range s.Outcomes {
		if o.State == StateFailed {
			failed = append(failed, o)
		}
	}

	return failed
}

// OK reports whether every processed date committed.
func (s Summary) OK() bool {
	return len(s.FailedDates()) == 0
}

// Runner drives the per-date pipeline. It owns no goroutines between
// calls; each RunDate is a self-contained pass.
type Runner struct {
	fetcher    *fetch.Fetcher
	indicators *indicator.Engine
	strategies *strategy.Engine
	store      store.Store
	calendar   *calendar.Calendar
	universe   []types.Instrument
	cfg        config.JobConfig
	workers    int
	logger     *logger.Logger
}

// NewRunner wires the pipeline stages together. workers bounds the
// indicator-priming concurrency.
func NewRunner(
	fetcher *fetch.Fetcher,
	indicators *indicator.Engine,
	strategies *strategy.Engine,
	st store.Store,
	cal *calendar.Calendar,
	universe []types.Instrument,
	cfg config.JobConfig,
	workers int,
	log *logger.Logger,
) *Runner {
	if workers < 1 {
		workers = 1
	}

	// A lookback shorter than the widest registered window would make
	// the engine silently skip that indicator or strategy on every
	// date, so the configured value is a floor, not a cap.
	if required := requiredLookback(indicators, strategies); cfg.LookbackBars < required {
		log.Named("job").Info("raising lookback to cover registered windows",
			zap.Int("configured", cfg.LookbackBars),
			zap.Int("required", required))
		cfg.LookbackBars = required
	}

	return &Runner{
		fetcher:    fetcher,
		indicators: indicators,
		strategies: strategies,
		store:      st,
		calendar:   cal,
		universe:   universe,
		cfg:        cfg,
		workers:    workers,
		logger:     log.Named("job"),
	}
}

// requiredLookback is the longest history any registered indicator or
// snapshot strategy needs.
func requiredLookback(indicators *indicator.Engine, strategies *strategy.Engine) int {
	n := indicator.MaxMinBars(indicators.Registry())
	if m := strategy.MaxMinBars(strategies.Strategies()); m > n {
		n = m
	}

	return n
}

// Lookback returns the effective priming window: the configured
// lookback, raised when a registered window needs more bars.
func (r *Runner) Lookback() int {
	return r.cfg.LookbackBars
}

// RunDate executes the full pipeline for one trading date. The commit is
// idempotent: re-running a date overwrites its partition and yields the
// same stored bytes. Per-instrument fetch or evaluation failures are
// recorded in the outcome but never fail the date; only a commit that
// keeps failing, or cancellation, does.
func (r *Runner) RunDate(ctx context.Context, date types.TradingDate) DateOutcome {
	outcome := DateOutcome{Date: date, State: StatePending}

	if !r.calendar.IsTradingDate(date) {
		outcome.State = StateFailed
		outcome.Err = errors.Newf(errors.ErrCodeInvalidDate, "%s is not a trading date", date)

		return outcome
	}

	outcome.State = StateFetching
	fetched := r.fetcher.FetchAll(ctx, r.tradableUniverse(), date)

	for _, f := range fetched {
		if f.OK() {
			outcome.Fetched++
		} else {
			outcome.FetchFailures++
		}
	}

	if err := ctx.Err(); err != nil {
		outcome.State = StateFailed
		outcome.Err = errors.Wrap(errors.ErrCodeRunCancelled, "run cancelled during fetch", err)

		return outcome
	}

	outcome.State = StateComputing
	histories, bars, rows := r.primeHistories(ctx, date, fetched)

	if err := ctx.Err(); err != nil {
		outcome.State = StateFailed
		outcome.Err = errors.Wrap(errors.ErrCodeRunCancelled, "run cancelled during compute", err)

		return outcome
	}

	outcome.State = StateEvaluating
	results, failures := r.strategies.EvaluateAll(ctx, date, histories)
	outcome.Matches = len(results)
	outcome.EvalFailures = len(failures)

	if err := ctx.Err(); err != nil {
		outcome.State = StateFailed
		outcome.Err = errors.Wrap(errors.ErrCodeRunCancelled, "run cancelled during evaluation", err)

		return outcome
	}

	if err := r.commitWithRetry(ctx, date, bars, rows, results); err != nil {
		outcome.State = StateFailed
		outcome.Err = err

		return outcome
	}

	outcome.State = StateCommitted
	r.logger.Info("date committed",
		zap.String("date", date.String()),
		zap.Int("fetched", outcome.Fetched),
		zap.Int("fetchFailures", outcome.FetchFailures),
		zap.Int("matches", outcome.Matches),
		zap.Int("evalFailures", outcome.EvalFailures))

	return outcome
}

// tradableUniverse excludes suspended and delisted instruments before
// the fetch stage ever sees them.
func (r *Runner) tradableUniverse() []types.Instrument {
	tradable := make([]types.Instrument, 0, len(r.universe))
	for _, inst := range r.universe {
		if inst.Tradable() {
			tradable = append(tradable, inst)
		}
	}

	return tradable
}

// primeHistories loads each fetched instrument's prior bars from the
// store, appends the day's bar and computes the indicator series. An
// instrument whose history cannot be loaded degrades to the single
// fetched bar; its indicators come out undefined and its strategies
// simply do not match.
func (r *Runner) primeHistories(ctx context.Context, date types.TradingDate, fetched map[string]types.FetchOutcome) ([]strategy.InstrumentHistory, []types.Bar, []types.IndicatorRow) {
	jobs := make(chan types.FetchOutcome)

	var (
		mu        sync.Mutex
		histories []strategy.InstrumentHistory
		bars      []types.Bar
		rows      []types.IndicatorRow
		wg        sync.WaitGroup
	)

	for i := 0; i < r.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for f := range jobs {
				history := r.primeOne(ctx, date, f)
				indicatorRows := r.indicators.ComputeSeries(history)

				mu.Lock()
				histories = append(histories, strategy.InstrumentHistory{
					Instrument: f.Instrument,
					Bars:       history,
					Rows:       indicatorRows,
				})
				bars = append(bars, *f.Bar)
				rows = append(rows, indicatorRows[len(indicatorRows)-1])
				mu.Unlock()
			}
		}()
	}

feed:
	for _, f := range fetched {
		if !f.OK() {
			continue
		}

		select {
		case <-ctx.Done():
			break feed
		case jobs <- f:
		}
	}

	close(jobs)
	wg.Wait()

	sort.Slice(bars, func(i, j int) bool { return bars[i].Code < bars[j].Code })
	sort.Slice(rows, func(i, j int) bool { return rows[i].Code < rows[j].Code })
	sort.Slice(histories, func(i, j int) bool {
		return histories[i].Instrument.Code < histories[j].Instrument.Code
	})

	return histories, bars, rows
}

// primeOne builds one instrument's ascending bar history ending at the
// fetched bar, bounded by the configured lookback.
func (r *Runner) primeOne(ctx context.Context, date types.TradingDate, f types.FetchOutcome) []types.Bar {
	// Calendar days overshoot trading days; pad for weekends and
	// holidays and let the bar-count trim below do the exact bounding.
	from := date.AddDays(-(r.cfg.LookbackBars*7/5 + 30))
	to := date.AddDays(-1)

	prior, err := r.store.GetBars(ctx, f.Instrument.Code, from, to)
	if err != nil {
		r.logger.Warn("history priming failed, continuing with fetched bar only",
			zap.String("code", f.Instrument.Code),
			zap.String("date", date.String()),
			zap.Error(err))
		prior = nil
	}

	history := make([]types.Bar, 0, len(prior)+1)
	for _, b := range prior {
		if b.Date.Before(date) {
			history = append(history, b)
		}
	}
	history = append(history, *f.Bar)

	if len(history) > r.cfg.LookbackBars {
		history = history[len(history)-r.cfg.LookbackBars:]
	}

	return history
}

// commitWithRetry commits the date, re-attempting a bounded number of
// times when the store reports itself unavailable. Constraint and query
// failures are not retried.
func (r *Runner) commitWithRetry(ctx context.Context, date types.TradingDate, bars []types.Bar, rows []types.IndicatorRow, results []types.StrategyResult) error {
	var lastErr error

	for attempt := 0; attempt <= r.cfg.CommitRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return errors.Wrap(errors.ErrCodeRunCancelled, "run cancelled during commit", ctx.Err())
			case <-time.After(commitRetryDelay):
			}
		}

		lastErr = r.store.CommitDate(ctx, date, bars, rows, results)
		if lastErr == nil {
			return nil
		}

		if !errors.HasCode(lastErr, errors.ErrCodeStoreUnavailable) {
			break
		}

		r.logger.Warn("commit failed, retrying",
			zap.String("date", date.String()),
			zap.Int("attempt", attempt+1),
			zap.Error(lastErr))
	}

	return errors.Wrapf(errors.ErrCodeStoreCommitFailure, lastErr, "commit for %s did not succeed", date)
}

// RunDates runs the pipeline for each trading date in order. Non-trading
// dates are skipped. Cancellation stops between dates; dates not yet
// started are left out of the summary rather than marked failed.
func (r *Runner) RunDates(ctx context.Context, dates []types.TradingDate) Summary {
	summary := Summary{
		RunID:   uuid.NewString(),
		Started: time.Now(),
	}

	trading := make([]types.TradingDate, 0, len(dates))
	for _, d := range dates {
		if r.calendar.IsTradingDate(d) {
			trading = append(trading, d)
		} else {
			r.logger.Debug("skipping non-trading date", zap.String("date", d.String()))
		}
	}

	if r.cfg.CommitInOrder {
		sort.Slice(trading, func(i, j int) bool { return trading[i].Before(trading[j]) })
	}

	var bar *progressbar.ProgressBar
	if len(trading) > 1 {
		bar = progressbar.Default(int64(len(trading)), "screening")
	}

	for _, d := range trading {
		if ctx.Err() != nil {
			break
		}

		summary.Outcomes = append(summary.Outcomes, r.RunDate(ctx, d))

		if bar != nil {
			_ = bar.Add(1)
		}
	}

	summary.Finished = time.Now()

	r.logger.Info("run finished",
		zap.String("runID", summary.RunID),
		zap.Int("dates", len(summary.Outcomes)),
		zap.Int("committed", summary.Committed()),
		zap.Int("failed", len(summary.FailedDates())),
		zap.Duration("elapsed", summary.Finished.Sub(summary.Started)))

	return summary
}

// RunRange expands the inclusive date range through the calendar and
// runs every trading date in it.
func (r *Runner) RunRange(ctx context.Context, from, to types.TradingDate) (Summary, error) {
	dates, err := r.calendar.TradingDatesBetween(from, to)
	if err != nil {
		return Summary{}, err
	}

	return r.RunDates(ctx, dates), nil
}
