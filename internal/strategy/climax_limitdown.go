package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// ClimaxLimitDown matches panic selloffs: a near limit-down day on
// volume several times the recent average, the kind of capitulation
// that can mark a short-term bottom. The day must also clear a turnover
// floor so the signal reflects real money leaving, not a thin print.
type ClimaxLimitDown struct {
	window       int
	limitDownPct float64
	volumeFactor float64
	minTurnover  decimal.Decimal
}

// NewClimaxLimitDown creates the strategy with its default parameters:
// 60-bar window, 9.5% limit-down threshold, 4x volume surge and 200M
// minimum turnover.
func NewClimaxLimitDown() *ClimaxLimitDown {
	return &ClimaxLimitDown{
		window:       60,
		limitDownPct: -9.5,
		volumeFactor: 4.0,
		minTurnover:  decimal.NewFromInt(200_000_000),
	}
}

// Name returns the strategy's unique name.
func (s *ClimaxLimitDown) Name() string {
	return "climax_limitdown"
}

// MinBars returns the minimum history length the strategy needs. The
// five-day volume average of the previous session must be defined.
func (s *ClimaxLimitDown) MinBars() int {
	return s.window + 1
}

// Eligible requires the day's turnover to clear the liquidity floor,
// compared in decimal space like the volume-surge check.
func (s *ClimaxLimitDown) Eligible(_ types.Instrument, bars []types.Bar) bool {
	last := bars[len(bars)-1]

	turnover := decimal.NewFromFloat(last.Close).Mul(decimal.NewFromFloat(last.Volume))

	return turnover.GreaterThanOrEqual(s.minTurnover)
}

// Evaluate runs the core predicate.
func (s *ClimaxLimitDown) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	last := bars[len(bars)-1]

	change, ok := changePct(bars, len(bars)-1)
	if !ok || change > s.limitDownPct {
		return types.StrategyResult{}, false, nil
	}

	// Average volume of the five sessions preceding the current bar.
	prior := bars[len(bars)-6 : len(bars)-1]

	sum := 0.0
	for _, b := range prior {
		sum += b.Volume
	}

	avgVol := sum / float64(len(prior))
	if avgVol == 0 {
		return types.StrategyResult{}, false, nil
	}

	ratio := last.Volume / avgVol
	if ratio < s.volumeFactor {
		return types.StrategyResult{}, false, nil
	}

	return types.StrategyResult{
		Strategy: s.Name(),
		Code:     inst.Code,
		Name:     inst.Name,
		Date:     last.Date,
		Score:    ratio,
		Params: map[string]float64{
			"change_pct":   change,
			"volume_ratio": ratio,
		},
	}, true, nil
}
