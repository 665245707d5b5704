package strategy

import (
	"context"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// InstrumentHistory is one instrument's aligned bar and indicator
// history up to and including the evaluation date.
type InstrumentHistory struct {
	Instrument types.Instrument
	Bars       []types.Bar
	Rows       []types.IndicatorRow
}

// EvalFailure records one isolated (strategy, instrument) failure.
type EvalFailure struct {
	Strategy string
	Code     string
	Err      error
}

// Engine evaluates a strategy snapshot against the indicator dataset of
// one trading date. Evaluation runs in parallel across (strategy,
// instrument) pairs; a failing or panicking pair is recorded and never
// stops the others.
type Engine struct {
	strategies []Strategy
	workers    int
	logger     *logger.Logger
}

// NewEngine creates an engine over an immutable strategy snapshot.
func NewEngine(strategies []Strategy, workers int, log *logger.Logger) *Engine {
	if workers < 1 {
		workers = 1
	}

	return &Engine{
		strategies: strategies,
		workers:    workers,
		logger:     log.Named("strategy"),
	}
}

// Strategies exposes the snapshot the engine runs.
func (e *Engine) Strategies() []Strategy {
	return e.strategies
}

// MaxMinBars returns the largest history any strategy in the snapshot
// needs. Callers sizing a priming window must cover at least this many
// bars or the widest strategies never evaluate.
func MaxMinBars(strategies []Strategy) int {
	maxBars := 0

	for _, s := range strategies {
		if s.MinBars() > maxBars {
			maxBars = s.MinBars()
		}
	}

	return maxBars
}

type evalTask struct {
	strategy Strategy
	history  InstrumentHistory
}

// EvaluateAll runs every snapshot strategy against every instrument
// history and returns the matches for the date, sorted by strategy name
// then instrument code, together with the isolated failures.
func (e *Engine) EvaluateAll(ctx context.Context, date types.TradingDate, histories []InstrumentHistory) ([]types.StrategyResult, []EvalFailure) {
	tasks := make(chan evalTask)

	var (
		mu       sync.Mutex
		results  []types.StrategyResult
		failures []EvalFailure
		wg       sync.WaitGroup
	)

	for i := 0; i < e.workers; i++ {
		wg.Add(1)

		go func() {
			defer wg.Done()

			for task := range tasks {
				result, matched, err := e.evaluateOne(task.strategy, task.history)

				mu.Lock()
				if err != nil {
					failures = append(failures, EvalFailure{
						Strategy: task.strategy.Name(),
						Code:     task.history.Instrument.Code,
						Err:      err,
					})
				} else if matched {
					results = append(results, result)
				}
				mu.Unlock()
			}
		}()
	}

	sort.SliceStable(histories, func(i, j int) bool {
		return histories[i].Instrument.Code < histories[j].Instrument.Code
	})

feed:
	for _, s := range e.strategies {
		for _, h := range histories {
			select {
			case <-ctx.Done():
				break feed
			case tasks <- evalTask{strategy: s, history: h}:
			}
		}
	}

	close(tasks)
	wg.Wait()

	types.SortStrategyResults(results)

	for _, f := range failures {
		e.logger.Warn("strategy evaluation failed",
			zap.String("strategy", f.Strategy),
			zap.String("code", f.Code),
			zap.String("date", date.String()),
			zap.Error(f.Err))
	}

	return results, failures
}

// evaluateOne applies eligibility and the core predicate for one pair,
// converting panics into recorded failures.
func (e *Engine) evaluateOne(s Strategy, h InstrumentHistory) (result types.StrategyResult, matched bool, err error) {
	defer func() {
		if r := recover(); r != nil {
			result = types.StrategyResult{}
			matched = false
			err = errors.Newf(errors.ErrCodeStrategyRuntimeError, "strategy %s panicked on %s: %v", s.Name(), h.Instrument.Code, r)
		}
	}()

	if len(h.Bars) < s.MinBars() {
		return types.StrategyResult{}, false, nil
	}

	if !s.Eligible(h.Instrument, h.Bars) {
		return types.StrategyResult{}, false, nil
	}

	return s.Evaluate(h.Instrument, h.Bars, h.Rows)
}
