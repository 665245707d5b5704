package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// HighTightFlag matches O'Neil's high tight flag: the price roughly
// doubles inside a two-week pole ending about ten sessions ago, with at
// least two consecutive near limit-up days inside the pole, and the
// name has since held up into a tight flag.
type HighTightFlag struct {
	window     int
	poleEnd    int
	poleLen    int
	minRise    float64
	limitUpPct float64
}

// NewHighTightFlag creates the strategy with its default parameters:
// 60-bar window, a 14-bar pole ending 10 sessions back, a 1.9x rise off
// the pole low and a 9.5% limit-up threshold.
func NewHighTightFlag() *HighTightFlag {
	return &HighTightFlag{
		window:     60,
		poleEnd:    10,
		poleLen:    14,
		minRise:    1.9,
		limitUpPct: 9.5,
	}
}

// Name returns the strategy's unique name.
func (s *HighTightFlag) Name() string {
	return "high_tight_flag"
}

// MinBars returns the minimum history length the strategy needs.
func (s *HighTightFlag) MinBars() int {
	return s.window
}

// Eligible accepts every instrument.
func (s *HighTightFlag) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *HighTightFlag) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	// The pole is the poleLen bars ending poleEnd sessions before the
	// evaluation date.
	start := len(bars) - s.poleEnd - s.poleLen
	pole := bars[start : start+s.poleLen]

	low := pole[0].Low
	for _, b := range pole {
		if b.Low < low {
			low = b.Low
		}
	}

	if low == 0 {
		return types.StrategyResult{}, false, nil
	}

	rise := pole[len(pole)-1].High / low
	if rise < s.minRise {
		return types.StrategyResult{}, false, nil
	}

	// Two consecutive near limit-up sessions inside the pole.
	streak := 0
	surged := false

	for i := range pole {
		change, ok := changePct(bars, start+i)
		if ok && change >= s.limitUpPct {
			streak++
			if streak >= 2 {
				surged = true

				break
			}
		} else {
			streak = 0
		}
	}

	if !surged {
		return types.StrategyResult{}, false, nil
	}

	last := bars[len(bars)-1]

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     last.Date,
		Score:    rise,
		Params: map[string]float64{
			"pole_rise": rise,
			"pole_low":  low,
		},
	}, true, nil
}
