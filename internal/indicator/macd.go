package indicator

import (
	"math"

	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// macdOutput selects which of the three MACD lines an instance yields.
type macdOutput int

const (
	macdOutputDiff macdOutput = iota
	macdOutputDEA
	macdOutputHist
)

// MACD implements the moving average convergence/divergence family.
// Three registry entries share the calculation: the DIF line, the DEA
// (signal) line, and the histogram 2*(DIF-DEA).
type MACD struct {
	fast   int
	slow   int
	signal int
	output macdOutput
	name   string
}

// NewMACDDiff creates the MACD DIF line with the standard 12/26/9 setup.
func NewMACDDiff() *MACD {
	return &MACD{fast: 12, slow: 26, signal: 9, output: macdOutputDiff, name: "macd_dif"}
}

// NewMACDDEA creates the MACD signal line with the standard 12/26/9 setup.
func NewMACDDEA() *MACD {
	return &MACD{fast: 12, slow: 26, signal: 9, output: macdOutputDEA, name: "macd_dea"}
}

// NewMACDHist creates the MACD histogram with the standard 12/26/9 setup.
func NewMACDHist() *MACD {
	return &MACD{fast: 12, slow: 26, signal: 9, output: macdOutputHist, name: "macd"}
}

// Name returns the name of the indicator.
func (m *MACD) Name() string {
	return m.name
}

// MinBars returns the minimum window length for a defined value.
func (m *MACD) MinBars() int {
	if m.output == macdOutputDiff {
		return m.slow
	}

	return m.slow + m.signal - 1
}

// Compute derives the selected MACD line over a bounded window.
func (m *MACD) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < m.MinBars() {
		return optional.None[float64]()
	}

	cs := closes(tail(window, m.slow*emaLookbackFactor))

	fast := emaSeries(cs, m.fast)
	slow := emaSeries(cs, m.slow)

	diff := make([]float64, 0, len(cs))

	for i := range cs {
		if math.IsNaN(fast[i]) || math.IsNaN(slow[i]) {
			continue
		}

		diff = append(diff, fast[i]-slow[i])
	}

	if len(diff) == 0 {
		return optional.None[float64]()
	}

	if m.output == macdOutputDiff {
		return optional.Some(diff[len(diff)-1])
	}

	dea := emaSeries(diff, m.signal)

	lastDEA := dea[len(dea)-1]
	if math.IsNaN(lastDEA) {
		return optional.None[float64]()
	}

	if m.output == macdOutputDEA {
		return optional.Some(lastDEA)
	}

	return optional.Some(2.0 * (diff[len(diff)-1] - lastDEA))
}
