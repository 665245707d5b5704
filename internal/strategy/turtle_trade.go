package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// TurtleTrade matches instruments whose close sets a new high over the
// breakout window, the turtle system's entry signal.
type TurtleTrade struct {
	window int
}

// NewTurtleTrade creates the strategy with its default 60-bar window.
func NewTurtleTrade() *TurtleTrade {
	return &TurtleTrade{window: 60}
}

// Name returns the strategy's unique name.
func (s *TurtleTrade) Name() string {
	return "turtle_trade"
}

// MinBars returns the minimum history length the strategy needs.
func (s *TurtleTrade) MinBars() int {
	return s.window
}

// Eligible accepts every instrument; the breakout test needs no
// liquidity floor.
func (s *TurtleTrade) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *TurtleTrade) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	window := bars[len(bars)-s.window:]
	last := window[len(window)-1]

	high, _ := maxClose(window)
	if last.Close < high {
		return types.StrategyResult{}, false, nil
	}

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     last.Date,
		Score:    last.Close,
		Params: map[string]float64{
			"window_high": high,
		},
	}, true, nil
}
