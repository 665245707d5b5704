package strategy

import (
	"math"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// LowATR matches instruments that gained substantially over a short
// window while keeping daily moves small: a steady climb rather than a
// volatile spike. Requires a full year of history so the setup is
// judged on a mature name.
type LowATR struct {
	window       int
	historyBars  int
	maxAvgChange float64
	minRangePct  float64
}

// NewLowATR creates the strategy with its default parameters: 10-bar
// window over at least 250 bars of history, average absolute daily
// change at most 10% and window close range above 10%.
func NewLowATR() *LowATR {
	return &LowATR{
		window:       10,
		historyBars:  250,
		maxAvgChange: 10.0,
		minRangePct:  0.1,
	}
}

// Name returns the strategy's unique name.
func (s *LowATR) Name() string {
	return "low_atr"
}

// MinBars returns the minimum history length the strategy needs.
func (s *LowATR) MinBars() int {
	return s.historyBars
}

// Eligible accepts every instrument.
func (s *LowATR) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *LowATR) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	window := bars[len(bars)-s.window:]
	offset := len(bars) - s.window

	totalChange := 0.0

	for i := range window {
		change, ok := changePct(bars, offset+i)
		if !ok {
			return types.StrategyResult{}, false, nil
		}

		totalChange += math.Abs(change)
	}

	avgChange := totalChange / float64(s.window)
	if avgChange > s.maxAvgChange {
		return types.StrategyResult{}, false, nil
	}

	high, _ := maxClose(window)
	low, _ := minClose(window)

	if low == 0 {
		return types.StrategyResult{}, false, nil
	}

	rangePct := (high - low) / low
	if rangePct <= s.minRangePct {
		return types.StrategyResult{}, false, nil
	}

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     bars[len(bars)-1].Date,
		Score:    rangePct / math.Max(avgChange, 1e-9),
		Params: map[string]float64{
			"avg_abs_change": avgChange,
			"range_pct":      rangePct,
		},
	}, true, nil
}
