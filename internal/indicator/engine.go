package indicator

import (
	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
)

// Engine computes indicator rows for an instrument's bar history. It
// holds no mutable state; computation across instruments can run
// concurrently.
type Engine struct {
	registry Registry
	logger   *logger.Logger
}

// NewEngine creates an engine over the given registry.
func NewEngine(registry Registry, log *logger.Logger) *Engine {
	return &Engine{
		registry: registry,
		logger:   log.Named("indicator"),
	}
}

// Registry exposes the engine's indicator set.
func (e *Engine) Registry() Registry {
	return e.registry
}

// ComputeRow computes one row for the last bar of the history. The
// history must be sorted ascending by date and must not contain bars
// dated after the evaluation date.
func (e *Engine) ComputeRow(history []types.Bar) types.IndicatorRow {
	last := history[len(history)-1]
	row := types.NewIndicatorRow(last.Code, last.Date)

	for _, ind := range e.registry.List() {
		row.Values[ind.Name()] = ind.Compute(history)
	}

	return row
}

// ComputeSeries computes one row per bar of the history, each derived
// only from bars up to and including its own date.
func (e *Engine) ComputeSeries(history []types.Bar) []types.IndicatorRow {
	rows := make([]types.IndicatorRow, 0, len(history))

	for i := range history {
		rows = append(rows, e.ComputeRow(history[:i+1]))
	}

	return rows
}
