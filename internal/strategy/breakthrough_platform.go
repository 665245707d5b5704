package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// BreakthroughPlatform matches the platform-break setup: a day whose
// candle crosses the 60-day moving average from below on surging
// volume, after a consolidation in which every close hugged the moving
// average from slightly above to at most 20% below.
type BreakthroughPlatform struct {
	window       int
	minChangePct float64
	volumeFactor float64
	hugLow       float64
	hugHigh      float64
}

// NewBreakthroughPlatform creates the strategy with its default
// parameters: 60-bar window, 2% minimum break-day gain on 2x volume, and
// a consolidation band of -5%..+20% around the moving average.
func NewBreakthroughPlatform() *BreakthroughPlatform {
	return &BreakthroughPlatform{
		window:       60,
		minChangePct: 2.0,
		volumeFactor: 2.0,
		hugLow:       -0.05,
		hugHigh:      0.2,
	}
}

// Name returns the strategy's unique name.
func (s *BreakthroughPlatform) Name() string {
	return "breakthrough_platform"
}

// MinBars returns the minimum history length the strategy needs. The
// 60-day moving average must be defined through the whole window.
func (s *BreakthroughPlatform) MinBars() int {
	return s.window*2 - 1
}

// Eligible accepts every instrument.
func (s *BreakthroughPlatform) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *BreakthroughPlatform) Evaluate(inst types.Instrument, bars []types.Bar, rows []types.IndicatorRow) (types.StrategyResult, bool, error) {
	offset := len(bars) - s.window
	window := bars[offset:]

	breakIdx := -1

	for i, b := range window {
		ma, ok := rowValue(rows, offset+i, "ma60")
		if !ok {
			return types.StrategyResult{}, false, nil
		}

		if b.Open < ma && ma <= b.Close && s.surges(bars, offset+i) {
			breakIdx = i

			break
		}
	}

	if breakIdx < 0 {
		return types.StrategyResult{}, false, nil
	}

	// Consolidation before the break: closes stay within the hug band
	// around the moving average.
	for i := 0; i < breakIdx; i++ {
		ma, ok := rowValue(rows, offset+i, "ma60")
		if !ok || ma == 0 {
			return types.StrategyResult{}, false, nil
		}

		gap := (ma - window[i].Close) / ma
		if gap <= s.hugLow || gap >= s.hugHigh {
			return types.StrategyResult{}, false, nil
		}
	}

	breakBar := window[breakIdx]
	last := bars[len(bars)-1]

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     last.Date,
		Score:    breakBar.Close,
		Params: map[string]float64{
			"break_close": breakBar.Close,
			"break_ago":   float64(s.window - 1 - breakIdx),
		},
	}, true, nil
}

// surges reports whether bars[i] gained at least minChangePct on a
// positive candle with volume at least volumeFactor times the average
// of the five preceding sessions.
func (s *BreakthroughPlatform) surges(bars []types.Bar, i int) bool {
	if i < 6 {
		return false
	}

	change, ok := changePct(bars, i)
	if !ok || change < s.minChangePct || bars[i].Close < bars[i].Open {
		return false
	}

	sum := 0.0
	for _, b := range bars[i-5 : i] {
		sum += b.Volume
	}

	avg := sum / 5.0

	return avg > 0 && bars[i].Volume/avg >= s.volumeFactor
}
