// Package indicator computes named technical indicators from bar
// history. Every indicator is a pure function of a bounded look-back
// window ending at the evaluation date; identical input history always
// yields identical values.
package indicator

import (
	"github.com/moznion/go-optional"

	"github.com/marketscan-lab/marketscan/internal/types"
)

// Indicator is one named technical indicator. Compute receives the
// instrument's bars in ascending date order, the last element being the
// bar of the evaluation date; it must never be handed bars dated after
// that. When the window holds fewer than MinBars bars the result is
// None — undefined, not zero and not an error.
type Indicator interface {
	// Name returns the indicator's unique name, e.g. "ma5".
	Name() string
	// MinBars returns the minimum window length for a defined value.
	MinBars() int
	// Compute derives the value from the window, or None.
	Compute(window []types.Bar) optional.Option[float64]
}
