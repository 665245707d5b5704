package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// MA implements the simple moving average of closing prices.
type MA struct {
	period int
}

// NewMA creates a simple moving average indicator over the given period.
func NewMA(period int) *MA {
	return &MA{period: period}
}

// Name returns the name of the indicator.
func (m *MA) Name() string {
	return fmt.Sprintf("ma%d", m.period)
}

// MinBars returns the minimum window length for a defined value.
func (m *MA) MinBars() int {
	return m.period
}

// Compute derives the average of the last period closes.
func (m *MA) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < m.period {
		return optional.None[float64]()
	}

	return optional.Some(mean(closes(tail(window, m.period))))
}
