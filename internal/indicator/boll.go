package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// bollBand selects which Bollinger band an instance yields.
type bollBand int

const (
	bollBandUpper bollBand = iota
	bollBandMiddle
	bollBandLower
)

// Bollinger implements Bollinger bands over closing prices.
type Bollinger struct {
	period int
	width  float64
	band   bollBand
	name   string
}

// NewBollingerUpper creates the upper band with the standard 20/2 setup.
func NewBollingerUpper() *Bollinger {
	return &Bollinger{period: 20, width: 2, band: bollBandUpper, name: "boll_upper"}
}

// NewBollingerMiddle creates the middle band with the standard 20/2 setup.
func NewBollingerMiddle() *Bollinger {
	return &Bollinger{period: 20, width: 2, band: bollBandMiddle, name: "boll"}
}

// NewBollingerLower creates the lower band with the standard 20/2 setup.
func NewBollingerLower() *Bollinger {
	return &Bollinger{period: 20, width: 2, band: bollBandLower, name: "boll_lower"}
}

// Name returns the name of the indicator.
func (b *Bollinger) Name() string {
	return b.name
}

// MinBars returns the minimum window length for a defined value.
func (b *Bollinger) MinBars() int {
	return b.period
}

// Compute derives the selected band from the last period closes.
func (b *Bollinger) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < b.period {
		return optional.None[float64]()
	}

	cs := closes(tail(window, b.period))
	mid := mean(cs)

	switch b.band {
	case bollBandUpper:
		return optional.Some(mid + b.width*stdDev(cs))
	case bollBandLower:
		return optional.Some(mid - b.width*stdDev(cs))
	default:
		return optional.Some(mid)
	}
}
