package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// KeepIncreasing matches instruments whose 30-day moving average has
// been rising through the whole window: sampled at thirds it must be
// strictly increasing and have gained at least the configured factor
// from the window's start.
type KeepIncreasing struct {
	window    int
	minFactor float64
}

// NewKeepIncreasing creates the strategy with its default parameters:
// 30-bar window and 1.2x minimum rise of the moving average.
func NewKeepIncreasing() *KeepIncreasing {
	return &KeepIncreasing{window: 30, minFactor: 1.2}
}

// Name returns the strategy's unique name.
func (s *KeepIncreasing) Name() string {
	return "keep_increasing"
}

// MinBars returns the minimum history length the strategy needs: the
// ma30 value must be defined at the start of the window.
func (s *KeepIncreasing) MinBars() int {
	return s.window*2 - 1
}

// Eligible accepts every instrument.
func (s *KeepIncreasing) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *KeepIncreasing) Evaluate(inst types.Instrument, bars []types.Bar, rows []types.IndicatorRow) (types.StrategyResult, bool, error) {
	offset := len(bars) - s.window

	sample := func(i int) (float64, bool) {
		return rowValue(rows, offset+i, "ma30")
	}

	first, ok1 := sample(0)
	second, ok2 := sample(s.window / 3)
	third, ok3 := sample(s.window * 2 / 3)
	last, ok4 := sample(s.window - 1)

	if !ok1 || !ok2 || !ok3 || !ok4 {
		return types.StrategyResult{}, false, nil
	}

	if !(first < second && second < third && third < last) || last <= s.minFactor*first {
		return types.StrategyResult{}, false, nil
	}

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     bars[len(bars)-1].Date,
		Score:    last / first,
		Params: map[string]float64{
			"ma30_start": first,
			"ma30_end":   last,
		},
	}, true, nil
}
