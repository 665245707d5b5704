package types

import "sort"

// StrategyResult records that a named strategy matched an instrument on
// a trading date, with the parameter values that produced the match.
// Results are unique on (Strategy, Code, Date).
type StrategyResult struct {
	Strategy string             `json:"strategy"`
	Code     string             `json:"code"`
	Name     string             `json:"name"`
	Date     TradingDate        `json:"date"`
	Score    float64            `json:"score"`
	Params   map[string]float64 `json:"params,omitempty"`
}

// SortStrategyResults orders results by strategy name then instrument
// code, the deterministic reporting order for a trading date.
func SortStrategyResults(results []StrategyResult) {
	sort.Slice(results, func(i, j int) bool {
		if results[i].Strategy != results[j].Strategy {
			return results[i].Strategy < results[j].Strategy
		}

		return results[i].Code < results[j].Code
	})
}
