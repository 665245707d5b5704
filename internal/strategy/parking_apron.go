package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// ParkingApron matches the post-limit-up consolidation pattern: a near
// limit-up day that is also a window breakout, followed by three flat
// sessions holding above the limit-up close.
type ParkingApron struct {
	window        int
	limitUpPct    float64
	flatTolerance float64
	maxSwingPct   float64
}

// NewParkingApron creates the strategy with its default parameters:
// 15-bar window, 9.5% limit-up threshold, 3% flat-candle tolerance and
// 5% maximum daily swing during consolidation.
func NewParkingApron() *ParkingApron {
	return &ParkingApron{
		window:        15,
		limitUpPct:    9.5,
		flatTolerance: 0.03,
		maxSwingPct:   5.0,
	}
}

// Name returns the strategy's unique name.
func (s *ParkingApron) Name() string {
	return "parking_apron"
}

// MinBars returns the minimum history length the strategy needs.
func (s *ParkingApron) MinBars() int {
	return s.window + 1
}

// Eligible accepts every instrument.
func (s *ParkingApron) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *ParkingApron) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	start := len(bars) - s.window

	for i := start; i < len(bars); i++ {
		change, ok := changePct(bars, i)
		if !ok || change <= s.limitUpPct {
			continue
		}

		if !isBreakout(bars, i, s.window) {
			continue
		}

		if s.consolidates(bars, i) {
			last := bars[len(bars)-1]

			return types.StrategyResult{
				Strategy: s.Name(),
				Code:     inst.Code,
				Name:     inst.Name,
				Date:     last.Date,
				Score:    change,
				Params: map[string]float64{
					"limit_up_close": bars[i].Close,
					"limit_up_pct":   change,
				},
			}, true, nil
		}
	}

	return types.StrategyResult{}, false, nil
}

// consolidates checks the three sessions after the limit-up day: all
// must open and close above the limit-up close with near-flat candles,
// and the last two must also keep their daily change inside the swing
// bound.
func (s *ParkingApron) consolidates(bars []types.Bar, limitUpIdx int) bool {
	if limitUpIdx+3 >= len(bars) {
		return false
	}

	limitUpClose := bars[limitUpIdx].Close

	for n := 1; n <= 3; n++ {
		b := bars[limitUpIdx+n]
		if b.Open == 0 || b.Close <= limitUpClose || b.Open <= limitUpClose {
			return false
		}

		body := b.Close / b.Open
		if body <= 1.0-s.flatTolerance || body >= 1.0+s.flatTolerance {
			return false
		}

		if n > 1 {
			change, ok := changePct(bars, limitUpIdx+n)
			if !ok || change <= -s.maxSwingPct || change >= s.maxSwingPct {
				return false
			}
		}
	}

	return true
}
