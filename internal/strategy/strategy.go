// Package strategy evaluates selection strategies against indicator
// and bar history. Strategies are independent: they share no mutable
// state, are invoked uniformly by the engine, and adding one never
// requires touching the pipeline's control flow.
package strategy

import (
	"github.com/marketscan-lab/marketscan/internal/types"
)

// Strategy decides whether an instrument matches on the evaluation
// date, the last entry of the supplied history. bars and rows are
// aligned slices in ascending date order; rows[i] is derived from
// bars[:i+1] only.
//
// Strategies must be stateless with respect to evaluation: any
// aggregate input (e.g. a market-wide average) is precomputed and
// passed read-only, never accumulated inside the strategy.
type Strategy interface {
	// Name returns the strategy's unique name.
	Name() string
	// MinBars returns the minimum history length the strategy needs.
	// Shorter histories are treated as not matching, not as errors.
	MinBars() int
	// Eligible is the pre-predicate filter (liquidity, listing status).
	// A filtered-out instrument is absent from results, not recorded as
	// a non-match.
	Eligible(inst types.Instrument, bars []types.Bar) bool
	// Evaluate runs the core predicate. The boolean reports a match;
	// errors are recorded per (strategy, instrument) and isolated from
	// all other evaluations.
	Evaluate(inst types.Instrument, bars []types.Bar, rows []types.IndicatorRow) (types.StrategyResult, bool, error)
}
