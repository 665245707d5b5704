package types

import (
	"sort"

	"github.com/moznion/go-optional"
)

// IndicatorRow maps indicator names to computed values for one
// (instrument, date). A value is None when the instrument's history is
// shorter than the indicator's window; callers must treat undefined
// distinctly from zero. Recomputation from the same bar history is
// deterministic.
type IndicatorRow struct {
	Code   string
	Date   TradingDate
	Values map[string]optional.Option[float64]
}

// NewIndicatorRow creates an empty row for one (instrument, date).
func NewIndicatorRow(code string, date TradingDate) IndicatorRow {
	return IndicatorRow{
		Code:   code,
		Date:   date,
		Values: make(map[string]optional.Option[float64]),
	}
}

// Value returns the named indicator value, or None when the indicator
// is absent or undefined for this date.
func (r IndicatorRow) Value(name string) optional.Option[float64] {
	v, ok := r.Values[name]
	if !ok {
		return optional.None[float64]()
	}

	return v
}

// Defined reports whether every named indicator has a defined value.
func (r IndicatorRow) Defined(names ...string) bool {
	for _, name := range names {
		if r.Value(name).IsNone() {
			return false
		}
	}

	return true
}

// Names returns the indicator names present in the row, sorted for
// deterministic output.
func (r IndicatorRow) Names() []string {
	names := make([]string, 0, len(r.Values))
	for name := range r.Values {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}
