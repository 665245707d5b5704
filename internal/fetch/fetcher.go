package fetch

import (
	"context"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/marketscan-lab/marketscan/internal/config"
	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// attemptState is the per-fetch retry state machine. Transitions are
// driven purely by classified fetch errors, which keeps the policy
// testable without live network calls.
type attemptState int

const (
	stateAttempting attemptState = iota
	stateBackoff
	stateRotatingCredential
	stateExhausted
)

// Fetcher retrieves bars for a whole universe concurrently, isolating
// every instrument's failures from the rest of the batch.
type Fetcher struct {
	provider Provider
	pool     *Pool
	limiter  *Limiter
	cfg      config.FetchConfig
	logger   *logger.Logger
}

// NewFetcher creates a fetcher over the given provider and pool.
func NewFetcher(provider Provider, pool *Pool, cfg config.FetchConfig, log *logger.Logger) *Fetcher {
	return &Fetcher{
		provider: provider,
		pool:     pool,
		limiter:  NewLimiter(),
		cfg:      cfg,
		logger:   log.Named("fetch"),
	}
}

// FetchAll fetches the date's bar for every instrument in the universe.
// Every instrument yields exactly one outcome; exhausted retries are an
// outcome, never a batch failure. Fetches run concurrently bounded by
// the configured worker count.
func (f *Fetcher) FetchAll(ctx context.Context, universe []types.Instrument, date types.TradingDate) map[string]types.FetchOutcome {
	outcomes := make(map[string]types.FetchOutcome, len(universe))

	var mu sync.Mutex

	jobs := make(chan types.Instrument)

	var wg sync.WaitGroup

	workers := f.cfg.Workers
	if workers > len(universe) {
		workers = len(universe)
	}

	for i := 0; i < workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for inst := range jobs {
				outcome := f.fetchOne(ctx, inst, date)

				mu.Lock()
				outcomes[inst.Code] = outcome
				mu.Unlock()
			}
		}()
	}

	for _, inst := range universe {
		jobs <- inst
	}

	close(jobs)
	wg.Wait()

	ok := 0

	for _, o := range outcomes {
		if o.OK() {
			ok++
		}
	}

	f.logger.Info("fetch completed",
		zap.String("date", date.String()),
		zap.Int("universe", len(universe)),
		zap.Int("ok", ok),
		zap.Int("failed", len(universe)-ok))

	return outcomes
}

// fetchOne drives the retry state machine for a single instrument.
func (f *Fetcher) fetchOne(ctx context.Context, inst types.Instrument, date types.TradingDate) types.FetchOutcome {
	policy := backoff.NewExponentialBackOff()
	policy.InitialInterval = f.cfg.BackoffInitial
	policy.MaxInterval = f.cfg.BackoffMax
	policy.Reset()

	outcome := types.FetchOutcome{Instrument: inst}
	state := stateAttempting

	cred, err := f.pool.Acquire(ctx)
	if err != nil {
		outcome.Err = err

		return outcome
	}

	var lastErr error

	for state != stateExhausted {
		if outcome.Attempts >= f.cfg.MaxAttempts {
			state = stateExhausted

			break
		}

		if err := f.limiter.Wait(ctx, cred.ID, f.cfg.RateCapacity, f.cfg.RateRefill); err != nil {
			f.pool.Release(cred, false)
			outcome.Err = errors.Wrap(errors.ErrCodeRunCancelled, "rate limit wait", err)

			return outcome
		}

		reqCtx, cancel := context.WithTimeout(ctx, f.cfg.RequestTimeout)
		bar, err := f.provider.FetchDaily(reqCtx, cred, inst, date)

		cancel()

		outcome.Attempts++

		if err == nil {
			f.pool.Release(cred, false)
			outcome.Bar = &bar

			return outcome
		}

		lastErr = err

		switch errors.GetCode(err) {
		case errors.ErrCodeFetchNotFound, errors.ErrCodeFetchMalformedPayload:
			// Neither is retryable: no data is no data, and a schema
			// change needs a code fix, not another request.
			f.pool.Release(cred, false)
			outcome.Err = err

			return outcome
		case errors.ErrCodeFetchRateLimited:
			state = stateRotatingCredential
		default:
			state = stateBackoff
		}

		if state == stateRotatingCredential {
			f.pool.Release(cred, true)

			cred, err = f.pool.Acquire(ctx)
			if err != nil {
				outcome.Err = err

				return outcome
			}
		}

		select {
		case <-ctx.Done():
			f.pool.Release(cred, false)
			outcome.Err = errors.Wrap(errors.ErrCodeRunCancelled, "fetch cancelled", ctx.Err())

			return outcome
		case <-time.After(policy.NextBackOff()):
			state = stateAttempting
		}
	}

	f.pool.Release(cred, false)

	outcome.Err = errors.Wrapf(errors.ErrCodeFetchExhausted, lastErr, "gave up on %s after %d attempts", inst.Code, outcome.Attempts)

	f.logger.Warn("fetch exhausted",
		zap.String("code", inst.Code),
		zap.String("date", date.String()),
		zap.Int("attempts", outcome.Attempts),
		zap.Error(lastErr))

	return outcome
}
