package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// RSI implements Wilder's relative strength index.
type RSI struct {
	period int
}

// NewRSI creates an RSI indicator over the given period.
func NewRSI(period int) *RSI {
	return &RSI{period: period}
}

// Name returns the name of the indicator.
func (r *RSI) Name() string {
	return fmt.Sprintf("rsi%d", r.period)
}

// MinBars returns the minimum window length for a defined value. One
// extra bar is needed for the first price difference.
func (r *RSI) MinBars() int {
	return r.period + 1
}

// Compute derives the RSI with Wilder smoothing over a bounded window.
func (r *RSI) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < r.period+1 {
		return optional.None[float64]()
	}

	cs := closes(tail(window, r.period*emaLookbackFactor+1))

	gains := make([]float64, 0, len(cs)-1)
	losses := make([]float64, 0, len(cs)-1)

	for i := 1; i < len(cs); i++ {
		diff := cs[i] - cs[i-1]
		if diff > 0 {
			gains = append(gains, diff)
			losses = append(losses, 0)
		} else {
			gains = append(gains, 0)
			losses = append(losses, -diff)
		}
	}

	avgGain := mean(gains[:r.period])
	avgLoss := mean(losses[:r.period])

	for i := r.period; i < len(gains); i++ {
		avgGain = (avgGain*float64(r.period-1) + gains[i]) / float64(r.period)
		avgLoss = (avgLoss*float64(r.period-1) + losses[i]) / float64(r.period)
	}

	if avgGain+avgLoss == 0 {
		return optional.Some(50.0)
	}

	return optional.Some(100.0 * avgGain / (avgGain + avgLoss))
}
