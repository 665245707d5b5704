package types

import "sort"

// Bar is one instrument's daily OHLCV record for one TradingDate.
// Bars are created only by the fetcher and are immutable once committed
// for a date; re-running a date overwrites, never appends.
type Bar struct {
	Code   string      `json:"code"`
	Date   TradingDate `json:"date"`
	Open   float64     `json:"open"`
	High   float64     `json:"high"`
	Low    float64     `json:"low"`
	Close  float64     `json:"close"`
	Volume float64     `json:"volume"`
	// Amount is the traded turnover in currency units.
	Amount float64 `json:"amount"`
	// ChangePct is the close-over-previous-close change in percent.
	ChangePct float64 `json:"change_pct"`
	// TurnoverPct is the share turnover rate in percent.
	TurnoverPct float64 `json:"turnover_pct"`
}

// SortBars orders bars ascending by date in place.
func SortBars(bars []Bar) {
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Date.Before(bars[j].Date)
	})
}
