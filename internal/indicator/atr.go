package indicator

import (
	"fmt"
	"math"

	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// ATR implements Wilder's average true range.
type ATR struct {
	period int
}

// NewATR creates an ATR indicator over the given period.
func NewATR(period int) *ATR {
	return &ATR{period: period}
}

// Name returns the name of the indicator.
func (a *ATR) Name() string {
	return fmt.Sprintf("atr%d", a.period)
}

// MinBars returns the minimum window length for a defined value. One
// extra bar is needed for the first true range.
func (a *ATR) MinBars() int {
	return a.period + 1
}

// Compute derives the ATR with Wilder smoothing over a bounded window.
func (a *ATR) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < a.period+1 {
		return optional.None[float64]()
	}

	bars := tail(window, a.period*emaLookbackFactor+1)

	trs := make([]float64, 0, len(bars)-1)

	for i := 1; i < len(bars); i++ {
		hl := bars[i].High - bars[i].Low
		hc := math.Abs(bars[i].High - bars[i-1].Close)
		lc := math.Abs(bars[i].Low - bars[i-1].Close)
		trs = append(trs, math.Max(hl, math.Max(hc, lc)))
	}

	atr := mean(trs[:a.period])
	for i := a.period; i < len(trs); i++ {
		atr = (atr*float64(a.period-1) + trs[i]) / float64(a.period)
	}

	return optional.Some(atr)
}
