package strategy

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
	"github.com/marketscan-lab/marketscan/pkg/errors"
)

// stubStrategy is a configurable strategy for engine tests.
type stubStrategy struct {
	name     string
	minBars  int
	eligible bool
	evaluate func(inst types.Instrument, bars []types.Bar) (types.StrategyResult, bool, error)
}

func (s *stubStrategy) Name() string { return s.name }

func (s *stubStrategy) MinBars() int { return s.minBars }

func (s *stubStrategy) Eligible(types.Instrument, []types.Bar) bool { return s.eligible }

func (s *stubStrategy) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	return s.evaluate(inst, bars)
}

func alwaysMatch(name string) *stubStrategy {
	return &stubStrategy{
		name:     name,
		minBars:  1,
		eligible: true,
		evaluate: func(inst types.Instrument, bars []types.Bar) (types.StrategyResult, bool, error) {
			return types.StrategyResult{
				Strategy: name,
				Code:     inst.Code,
				Name:     inst.Name,
				Date:     bars[len(bars)-1].Date,
				Score:    1,
			}, true, nil
		},
	}
}

func histories(codes ...string) []InstrumentHistory {
	date := types.NewTradingDate(2026, time.March, 9)

	out := make([]InstrumentHistory, 0, len(codes))
	for _, code := range codes {
		out = append(out, InstrumentHistory{
			Instrument: types.Instrument{Code: code, Name: "inst " + code},
			Bars:       []types.Bar{{Code: code, Date: date, Close: 10}},
			Rows:       []types.IndicatorRow{types.NewIndicatorRow(code, date)},
		})
	}

	return out
}

func TestEvaluateAllSortsResults(t *testing.T) {
	engine := NewEngine([]Strategy{alwaysMatch("zeta"), alwaysMatch("alpha")}, 4, logger.NewNopLogger())

	results, failures := engine.EvaluateAll(context.Background(),
		types.NewTradingDate(2026, time.March, 9), histories("600000", "000001"))

	require.Empty(t, failures)
	require.Len(t, results, 4)

	assert.Equal(t, "alpha", results[0].Strategy)
	assert.Equal(t, "000001", results[0].Code)
	assert.Equal(t, "alpha", results[1].Strategy)
	assert.Equal(t, "600000", results[1].Code)
	assert.Equal(t, "zeta", results[2].Strategy)
}

// A panicking strategy yields a recorded failure for its own pair and
// leaves every other (strategy, instrument) pair untouched.
func TestEvaluateAllIsolatesPanics(t *testing.T) {
	panics := &stubStrategy{
		name:     "panics",
		minBars:  1,
		eligible: true,
		evaluate: func(types.Instrument, []types.Bar) (types.StrategyResult, bool, error) {
			panic("index out of range")
		},
	}

	engine := NewEngine([]Strategy{panics, alwaysMatch("steady")}, 2, logger.NewNopLogger())

	results, failures := engine.EvaluateAll(context.Background(),
		types.NewTradingDate(2026, time.March, 9), histories("600000", "000001"))

	require.Len(t, results, 2)
	for _, r := range results {
		assert.Equal(t, "steady", r.Strategy)
	}

	require.Len(t, failures, 2)
	for _, f := range failures {
		assert.Equal(t, "panics", f.Strategy)
		assert.True(t, errors.HasCode(f.Err, errors.ErrCodeStrategyRuntimeError))
	}
}

func TestEvaluateAllSkipsShortHistories(t *testing.T) {
	demanding := alwaysMatch("demanding")
	demanding.minBars = 100

	engine := NewEngine([]Strategy{demanding}, 1, logger.NewNopLogger())

	results, failures := engine.EvaluateAll(context.Background(),
		types.NewTradingDate(2026, time.March, 9), histories("600000"))

	assert.Empty(t, results)
	assert.Empty(t, failures)
}

func TestEvaluateAllSkipsIneligible(t *testing.T) {
	gated := alwaysMatch("gated")
	gated.eligible = false

	engine := NewEngine([]Strategy{gated}, 1, logger.NewNopLogger())

	results, failures := engine.EvaluateAll(context.Background(),
		types.NewTradingDate(2026, time.March, 9), histories("600000"))

	assert.Empty(t, results)
	assert.Empty(t, failures)
}

func TestRegistrySnapshot(t *testing.T) {
	registry, err := DefaultRegistry()
	require.NoError(t, err)

	all, err := registry.Snapshot(nil)
	require.NoError(t, err)
	assert.Len(t, all, 10)

	subset, err := registry.Snapshot([]string{"turtle_trade", "volume_surge"})
	require.NoError(t, err)
	require.Len(t, subset, 2)

	_, err = registry.Snapshot([]string{"no_such_strategy"})
	assert.Error(t, err)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(NewTurtleTrade()))
	assert.Error(t, registry.Register(NewTurtleTrade()))
}

func TestMaxMinBars(t *testing.T) {
	assert.Equal(t, 0, MaxMinBars(nil))

	snapshot := []Strategy{NewTurtleTrade(), NewBacktraceMA250(), NewParkingApron()}
	assert.Equal(t, NewBacktraceMA250().MinBars(), MaxMinBars(snapshot))
}
