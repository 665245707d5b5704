package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// BacktraceMA250 matches the pullback-to-yearly-line setup: the price
// crosses the 250-day moving average from below, makes a window high,
// then pulls back on shrinking volume while staying above the yearly
// line. The pullback must retrace more than 20% from the high within
// 10 to 50 calendar days, with the high-day volume at least twice the
// pullback-low-day volume.
type BacktraceMA250 struct {
	window       int
	minBackdays  int
	maxBackdays  int
	minVolRatio  float64
	maxBackRatio float64
}

// NewBacktraceMA250 creates the strategy with its default parameters.
func NewBacktraceMA250() *BacktraceMA250 {
	return &BacktraceMA250{
		window:       60,
		minBackdays:  10,
		maxBackdays:  50,
		minVolRatio:  2.0,
		maxBackRatio: 0.8,
	}
}

// Name returns the strategy's unique name.
func (s *BacktraceMA250) Name() string {
	return "backtrace_ma250"
}

// MinBars returns the minimum history length the strategy needs. The
// yearly moving average must be defined through the whole window.
func (s *BacktraceMA250) MinBars() int {
	return 250 + s.window - 1
}

// Eligible accepts every instrument.
func (s *BacktraceMA250) Eligible(types.Instrument, []types.Bar) bool {
	return true
}

// Evaluate runs the core predicate.
func (s *BacktraceMA250) Evaluate(inst types.Instrument, bars []types.Bar, rows []types.IndicatorRow) (types.StrategyResult, bool, error) {
	offset := len(bars) - s.window
	window := bars[offset:]

	_, highIdx := maxClose(window)
	if highIdx <= 0 {
		// The high must have a front segment to cross the yearly line in.
		return types.StrategyResult{}, false, nil
	}

	high := window[highIdx]

	// Front segment: first bar below its ma250, last bar above its ma250.
	frontFirstMA, ok1 := rowValue(rows, offset, "ma250")
	frontLastMA, ok2 := rowValue(rows, offset+highIdx-1, "ma250")

	if !ok1 || !ok2 {
		return types.StrategyResult{}, false, nil
	}

	if !(window[0].Close < frontFirstMA && window[highIdx-1].Close > frontLastMA) {
		return types.StrategyResult{}, false, nil
	}

	// Back segment: never close below the yearly line, and find the
	// pullback low.
	low := high

	for i := highIdx; i < len(window); i++ {
		ma, ok := rowValue(rows, offset+i, "ma250")
		if !ok || window[i].Close < ma {
			return types.StrategyResult{}, false, nil
		}

		if window[i].Close < low.Close {
			low = window[i]
		}
	}

	backDays := int(low.Date.Time().Sub(high.Date.Time()).Hours() / 24)
	if backDays < s.minBackdays || backDays > s.maxBackdays {
		return types.StrategyResult{}, false, nil
	}

	if low.Volume == 0 || high.Volume/low.Volume <= s.minVolRatio {
		return types.StrategyResult{}, false, nil
	}

	backRatio := low.Close / high.Close
	if backRatio >= s.maxBackRatio {
		return types.StrategyResult{}, false, nil
	}

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     bars[len(bars)-1].Date,
		Score:    1.0 - backRatio,
		Params: map[string]float64{
			"back_ratio": backRatio,
			"vol_ratio":  high.Volume / low.Volume,
			"back_days":  float64(backDays),
		},
	}, true, nil
}
