package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// LowBacktraceIncrease matches a sustained advance with no meaningful
// pullback: the window gains substantially while no session, alone or
// paired with its predecessor, gives back more than the drawdown
// bounds. Holders not selling into strength is the tell of a main
// advance.
type LowBacktraceIncrease struct {
	window        int
	minRise       float64
	maxDayDrop    float64
	maxTwoDayDrop float64
}

// NewLowBacktraceIncrease creates the strategy with its default
// parameters: 60-bar window, 60% minimum window gain, 7% single-day and
// 10% two-day drawdown bounds.
func NewLowBacktraceIncrease() *LowBacktraceIncrease {
	return &LowBacktraceIncrease{
		window:        60,
		minRise:       0.6,
		maxDayDrop:    -7.0,
		maxTwoDayDrop: -10.0,
	}
}

// Name returns the strategy's unique name.
func (s *LowBacktraceIncrease) Name() string {
	return "low_backtrace_increase"
}

// MinBars returns the minimum history length the strategy needs. Every
// window bar must have a defined daily change.
func (s *LowBacktraceIncrease) MinBars() int {
	return s.window + 1
}

// Eligible accepts every instrument.
func (s *LowBacktraceIncrease) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *LowBacktraceIncrease) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	offset := len(bars) - s.window
	window := bars[offset:]

	first := window[0]
	last := window[len(window)-1]

	if first.Close == 0 {
		return types.StrategyResult{}, false, nil
	}

	rise := (last.Close - first.Close) / first.Close
	if rise < s.minRise {
		return types.StrategyResult{}, false, nil
	}

	for i, b := range window {
		change, ok := changePct(bars, offset+i)
		if !ok || b.Open == 0 {
			return types.StrategyResult{}, false, nil
		}

		intraday := (b.Close - b.Open) / b.Open * 100.0
		if change < s.maxDayDrop || intraday < s.maxDayDrop {
			return types.StrategyResult{}, false, nil
		}

		// Two-day drawdowns pair the bar with its predecessor; the
		// first window bar has none.
		if i > 0 {
			prev := window[i-1]

			prevChange, _ := changePct(bars, offset+i-1)
			if prevChange+change < s.maxTwoDayDrop {
				return types.StrategyResult{}, false, nil
			}

			if prev.Open != 0 && (b.Close-prev.Open)/prev.Open*100.0 < s.maxTwoDayDrop {
				return types.StrategyResult{}, false, nil
			}
		}
	}

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     last.Date,
		Score:    rise,
		Params: map[string]float64{
			"window_rise": rise,
		},
	}, true, nil
}
