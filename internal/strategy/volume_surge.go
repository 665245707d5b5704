package strategy

import (
	"github.com/shopspring/decimal"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// VolumeSurge matches instruments that close up strongly on volume at
// least twice their recent average, the classic sign of fresh money
// entering a name. The day must gain at least MinChangePct on a
// positive candle, and the day's volume must be at least VolumeFactor
// times the five-day average volume of the previous session.
type VolumeSurge struct {
	window       int
	minChangePct float64
	volumeFactor float64
	minTurnover  decimal.Decimal
}

// NewVolumeSurge creates the strategy with its default parameters:
// 60-bar window, 2% minimum gain, 2x volume and 200M minimum turnover.
func NewVolumeSurge() *VolumeSurge {
	return &VolumeSurge{
		window:       60,
		minChangePct: 2.0,
		volumeFactor: 2.0,
		minTurnover:  decimal.NewFromInt(200_000_000),
	}
}

// Name returns the strategy's unique name.
func (s *VolumeSurge) Name() string {
	return "volume_surge"
}

// MinBars returns the minimum history length the strategy needs.
func (s *VolumeSurge) MinBars() int {
	return s.window + 1
}

// Eligible requires the day's turnover to clear the liquidity floor.
// Turnover is compared in decimal space so the threshold check does not
// wobble on float accumulation for large volume numbers.
func (s *VolumeSurge) Eligible(_ types.Instrument, bars []types.Bar) bool {
	last := bars[len(bars)-1]

	turnover := decimal.NewFromFloat(last.Close).Mul(decimal.NewFromFloat(last.Volume))

	return turnover.GreaterThanOrEqual(s.minTurnover)
}

// Evaluate runs the core predicate.
func (s *VolumeSurge) Evaluate(inst types.Instrument, bars []types.Bar, _ []types.IndicatorRow) (types.StrategyResult, bool, error) {
	last := bars[len(bars)-1]

	change, ok := changePct(bars, len(bars)-1)
	if !ok || change < s.minChangePct || last.Close < last.Open {
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
