package indicator

import (
	"fmt"

	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// VolMA implements the simple moving average of traded volume.
type VolMA struct {
	period int
}

// NewVolMA creates a volume moving average over the given period.
func NewVolMA(period int) *VolMA {
	return &VolMA{period: period}
}

// Name returns the name of the indicator.
func (v *VolMA) Name() string {
	return fmt.Sprintf("vol_ma%d", v.period)
}

// MinBars returns the minimum window length for a defined value.
func (v *VolMA) MinBars() int {
	return v.period
}

// Compute derives the average of the last period volumes.
func (v *VolMA) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < v.period {
		return optional.None[float64]()
	}

	return optional.Some(mean(volumes(tail(window, v.period))))
}

// VolumeRatio compares the current volume against the average volume of
// the preceding period bars, the current bar excluded.
type VolumeRatio struct {
	period int
}

// NewVolumeRatio creates a volume ratio indicator over the given period.
func NewVolumeRatio(period int) *VolumeRatio {
	return &VolumeRatio{period: period}
}

// Name returns the name of the indicator.
func (v *VolumeRatio) Name() string {
	return "volume_ratio"
}

// MinBars returns the minimum window length for a defined value.
func (v *VolumeRatio) MinBars() int {
	return v.period + 1
}

// Compute derives current volume over the prior period's average volume.
func (v *VolumeRatio) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < v.period+1 {
		return optional.None[float64]()
	}

	prior := window[len(window)-1-v.period : len(window)-1]

	avg := mean(volumes(prior))
	if avg == 0 {
		return optional.None[float64]()
	}

	return optional.Some(window[len(window)-1].Volume / avg)
}

// ChangePct is the close-over-previous-close change in percent,
// recomputed from bars so derived rows never depend on upstream fields.
type ChangePct struct{}

// NewChangePct creates a change percent indicator.
func NewChangePct() *ChangePct {
	return &ChangePct{}
}

// Name returns the name of the indicator.
func (c *ChangePct) Name() string {
	return "change_pct"
}

// MinBars returns the minimum window length for a defined value.
func (c *ChangePct) MinBars() int {
	return 2
}

// Compute derives the percentage change from the previous close.
func (c *ChangePct) Compute(window []types.Bar) optional.Option[float64] {
	if len(window) < 2 {
		return optional.None[float64]()
	}

	prev := window[len(window)-2].Close
	if prev == 0 {
		return optional.None[float64]()
	}

	return optional.Some((window[len(window)-1].Close - prev) / prev * 100.0)
}
