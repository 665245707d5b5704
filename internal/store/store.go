// Package store persists the pipeline's three derived layers — bars,
// indicator rows and strategy results — partitioned by trading date.
package store

import (
	"context"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// Store is the date-partitioned persistence surface. A commit for one
// date covers all three layers in a single transaction and overwrites
// whatever that date held before, so re-running a date is idempotent.
// Commits for different dates are independent and may run in parallel;
// commits for the same date are serialized.
type Store interface {
	// CommitDate atomically replaces all data for the date.
	CommitDate(ctx context.Context, date types.TradingDate, bars []types.Bar, rows []types.IndicatorRow, results []types.StrategyResult) error
	// GetBars returns one instrument's bars in the inclusive date range,
	// ascending by date.
	GetBars(ctx context.Context, code string, from, to types.TradingDate) ([]types.Bar, error)
	// GetIndicators returns the indicator row for one (instrument, date).
	GetIndicators(ctx context.Context, code string, date types.TradingDate) (types.IndicatorRow, error)
	// GetStrategyResults returns the date's results, optionally filtered
	// by strategy name, sorted by strategy then code.
	GetStrategyResults(ctx context.Context, date types.TradingDate, strategyName string) ([]types.StrategyResult, error)
	// ListMatches returns the date's matches in deterministic order.
	// This is the sole contract downstream automation relies on; it
	// exposes no indicator internals.
	ListMatches(ctx context.Context, date types.TradingDate) ([]types.StrategyResult, error)
	// Close releases the underlying resources.
	Close() error
}
