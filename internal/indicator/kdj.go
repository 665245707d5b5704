package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// kdjLine selects which of the K, D and J lines an instance yields.
type kdjLine int

const (
	kdjLineK kdjLine = iota
	kdjLineD
	kdjLineJ
)

// KDJ implements the stochastic KDJ oscillator with the standard 9/3/3
// setup. K and D are seeded at 50.
type KDJ struct {
	period int
	line   kdjLine
	name   string
}

// NewKDJK creates the K line.
func NewKDJK() *KDJ {
	return &KDJ{period: 9, line: kdjLineK, name: "kdj_k"}
}

// NewKDJD creates the D line.
func NewKDJD() *KDJ {
	return &KDJ{period: 9, line: kdjLineD, name: "kdj_d"}
}

// NewKDJJ creates the J line.
func NewKDJJ() *KDJ {
	return &KDJ{period: 9, line: kdjLineJ, name: "kdj_j"}
}

// Name returns the name of the indicator.
func (k *KDJ) Name() string {
	return k.name
}

// MinBars returns the minimum window length for a defined value.
func (k *KDJ) MinBars() int {
	return k.period
}

// Compute derives the selected line over a bounded window.
func (k *KDJ) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < k.period {
		return optional.None[float64]()
	}

	bars := tail(window, k.period*emaLookbackFactor)

	kv, dv := 50.0, 50.0

	for i := k.period - 1; i < len(bars); i++ {
		lowest := bars[i-k.period+1].Low
		highest := bars[i-k.period+1].High

		for _, b := range bars[i-k.period+2 : i+1] {
			if b.Low < lowest {
				lowest = b.Low
			}

			if b.High > highest {
				highest = b.High
			}
		}

		rsv := 50.0
		if highest > lowest {
			rsv = (bars[i].Close - lowest) / (highest - lowest) * 100.0
		}

		kv = kv*2.0/3.0 + rsv/3.0
		dv = dv*2.0/3.0 + kv/3.0
	}

	switch k.line {
	case kdjLineK:
		return optional.Some(kv)
	case kdjLineD:
		return optional.Some(dv)
	default:
		return optional.Some(3.0*kv - 2.0*dv)
	}
}
