package indicator

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// emaLookbackFactor bounds the look-back window of smoothed indicators.
// Beyond this many periods the seed's contribution is negligible, and a
// fixed bound keeps recomputation deterministic for any history length
// the store hands us.
const emaLookbackFactor = 5

// EMA implements the exponential moving average of closing prices.
type EMA struct {
	period int
}

// NewEMA creates an exponential moving average indicator over the given period.
func NewEMA(period int) *EMA {
	return &EMA{period: period}
}

// Name returns the name of the indicator.
func (e *EMA) Name() string {
	return fmt.Sprintf("ema%d", e.period)
}

// MinBars returns the minimum window length for a defined value.
func (e *EMA) MinBars() int {
	return e.period
}

// Compute derives the exponential moving average seeded with the simple
// average of the first period closes in the bounded window.
func (e *EMA) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < e.period {
		return optional.None[float64]()
	}

	series := emaSeries(closes(tail(window, e.period*emaLookbackFactor)), e.period)

	last := series[len(series)-1]
	if math.IsNaN(last) {
		return optional.None[float64]()
	}

	return optional.Some(last)
}
