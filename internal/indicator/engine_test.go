package indicator

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marketscan-lab/marketscan/internal/logger"
	"github.com/marketscan-lab/marketscan/internal/types"
)

// makeBars builds an ascending synthetic history with mildly varying
// prices and nonzero volume.
func makeBars(n int) []types.Bar {
	start := types.NewTradingDate(2025, time.January, 2)

	bars := make([]types.Bar, 0, n)
	for i := 0; i < n; i++ {
		close := 10.0 + 0.1*float64(i) + 0.3*math.Sin(float64(i))
		bars = append(bars, types.Bar{
			Code:   "600000",
			Date:   start.AddDays(i),
			Open:   close - 0.1,
			High:   close + 0.5,
			Low:    close - 0.5,
			Close:  close,
			Volume: 1000 + 10*float64(i),
			Amount: close * (1000 + 10*float64(i)),
		})
	}

	return bars
}

func newTestEngine(t *testing.T) *Engine {
	t.Helper()

	registry, err := DefaultRegistry()
	require.NoError(t, err)

	return NewEngine(registry, logger.NewNopLogger())
}

// Every indicator with an N-bar window must be undefined for windows of
// N-1 bars and defined at exactly N.
func TestWindowBoundary(t *testing.T) {
	registry, err := DefaultRegistry()
	require.NoError(t, err)

	bars := makeBars(300)

	for _, ind := range registry.List() {
		short := bars[:ind.MinBars()-1]
		assert.True(t, ind.Compute(short).IsNone(),
			"%s should be undefined with %d bars", ind.Name(), len(short))

		exact := bars[:ind.MinBars()]
		assert.True(t, ind.Compute(exact).IsSome(),
			"%s should be defined with %d bars", ind.Name(), len(exact))
	}
}

func TestMAValue(t *testing.T) {
	ma := NewMA(5)

	bars := make([]types.Bar, 0, 10)
	start := types.NewTradingDate(2025, time.January, 2)

	for i := 0; i < 10; i++ {
		bars = append(bars, types.Bar{Code: "600000", Date: start.AddDays(i), Close: float64(i + 1)})
	}

	v := ma.Compute(bars)
	require.True(t, v.IsSome())
	// Average of closes 6..10.
	assert.InDelta(t, 8.0, v.Unwrap(), 1e-9)
}

func TestRSIExtremes(t *testing.T) {
	rsi := NewRSI(6)

	rising := make([]types.Bar, 0, 20)
	flat := make([]types.Bar, 0, 20)
	start := types.NewTradingDate(2025, time.January, 2)

	for i := 0; i < 20; i++ {
		rising = append(rising, types.Bar{Date: start.AddDays(i), Close: 10 + float64(i)})
		flat = append(flat, types.Bar{Date: start.AddDays(i), Close: 10})
	}

	up := rsi.Compute(rising)
	require.True(t, up.IsSome())
	assert.InDelta(t, 100.0, up.Unwrap(), 1e-9)

	even := rsi.Compute(flat)
	require.True(t, even.IsSome())
	assert.InDelta(t, 50.0, even.Unwrap(), 1e-9)
}

func TestChangePctValue(t *testing.T) {
	ind := NewChangePct()
	start := types.NewTradingDate(2025, time.January, 2)

	bars := []types.Bar{
		{Date: start, Close: 10},
		{Date: start.AddDays(1), Close: 10.25},
	}

	v := ind.Compute(bars)
	require.True(t, v.IsSome())
	assert.InDelta(t, 2.5, v.Unwrap(), 1e-9)
}

func TestMACDHistConvention(t *testing.T) {
	dif := NewMACDDiff()
	dea := NewMACDDEA()
	hist := NewMACDHist()

	bars := makeBars(120)

	d := dif.Compute(bars).Unwrap()
	s := dea.Compute(bars).Unwrap()
	h := hist.Compute(bars).Unwrap()

	assert.InDelta(t, 2.0*(d-s), h, 1e-9)
}

// A row for date D must be derived only from bars up to D: appending
// later bars must not change earlier rows.
func TestNoLookahead(t *testing.T) {
	engine := newTestEngine(t)

	full := makeBars(80)
	series := engine.ComputeSeries(full)
	require.Len(t, series, 80)

	for _, i := range []int{0, 4, 30, 60, 79} {
		prefixRow := engine.ComputeRow(full[:i+1])
		assert.Equal(t, prefixRow, series[i], "row %d changed with future bars present", i)
	}
}

func TestComputeRowDeterminism(t *testing.T) {
	engine := newTestEngine(t)
	bars := makeBars(300)

	first := engine.ComputeRow(bars)
	second := engine.ComputeRow(bars)

	assert.Equal(t, first, second)
}

func TestRegistryRejectsDuplicates(t *testing.T) {
	registry := NewRegistry()

	require.NoError(t, registry.Register(NewMA(5)))
	assert.Error(t, registry.Register(NewMA(5)))

	_, err := registry.Get("ma5")
	assert.NoError(t, err)

	_, err = registry.Get("ma99")
	assert.Error(t, err)
}

func TestMaxMinBars(t *testing.T) {
	registry, err := DefaultRegistry()
	require.NoError(t, err)

	// ma250 dominates the default set.
	assert.Equal(t, 250, MaxMinBars(registry))
}
