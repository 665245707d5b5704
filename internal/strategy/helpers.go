package strategy

import "github.com/marketscan-lab/marketscan/internal/types"

// changePct returns the percent change of bars[i] over the previous
// close. The first bar of a history has no defined change.
func changePct(bars []types.Bar, i int) (float64, bool) {
	if i <= 0 || i >= len(bars) || bars[i-1].Close == 0 {
		return 0, false
	}

	return (bars[i].Close - bars[i-1].Close) / bars[i-1].Close * 100.0, true
}

// maxClose returns the highest close of the window and its index.
func maxClose(bars []types.Bar) (float64, int) {
	best, idx := 0.0, -1

	for i, b := range bars {
		if b.Close > best {
			best, idx = b.Close, i
		}
	}

	return best, idx
}

// minClose returns the lowest close of the window and its index.
func minClose(bars []types.Bar) (float64, int) {
	if len(bars) == 0 {
		return 0, -1
	}

	best, idx := bars[0].Close, 0

	for i, b := range bars {
		if b.Close < best {
			best, idx = b.Close, i
		}
	}

	return best, idx
}

// rowValue reads a named indicator from the row aligned with bar index
// i, reporting false when the row set is missing or the value is
// undefined. Strategies require defined indicator values by default.
func rowValue(rows []types.IndicatorRow, i int, name string) (float64, bool) {
	if i < 0 || i >= len(rows) {
		return 0, false
	}

	v := rows[i].Value(name)
	if v.IsNone() {
		return 0, false
	}

	return v.Unwrap(), true
}

// isBreakout reports whether bars[i] closes at or above every close of
// the trailing window of length period ending at i.
func isBreakout(bars []types.Bar, i, period int) bool {
	start := i - period + 1
	if start < 0 {
		start = 0
	}

	high, _ := maxClose(bars[start : i+1])

	return bars[i].Close >= high
}
