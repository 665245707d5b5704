package indicator

import (
	"math"

	"github.com/marketscan-lab/marketscan/internal/types"
)

func closes(window []types.Bar) []float64 {
	out := make([]float64, len(window))
	for i, b := range window {
		out[i] = b.Close
	}

	return out
}

func volumes(window []types.Bar) []float64 {
	out := make([]float64, len(window))
	for i, b := range window {
		out[i] = b.Volume
	}

	return out
}

func mean(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	sum := 0.0
	for _, x := range xs {
		sum += x
	}

	return sum / float64(len(xs))
}

// stdDev is the population standard deviation, the convention
// used for the Bollinger band width.
func stdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}

	m := mean(xs)

	sum := 0.0
	for _, x := range xs {
		d := x - m
		sum += d * d
	}

	return math.Sqrt(sum / float64(len(xs)))
}

// tail returns at most the last n elements of xs.
func tail[T any](xs []T, n int) []T {
	if len(xs) <= n {
		return xs
	}

	return xs[len(xs)-n:]
}

// emaSeries computes an exponential moving average series seeded with
// the simple average of the first period values. The returned slice is
// aligned with xs; indexes before period-1 are NaN.
func emaSeries(xs []float64, period int) []float64 {
	out := make([]float64, len(xs))
	for i := range out {
		out[i] = math.NaN()
	}

	if len(xs) < period {
		return out
	}

	out[period-1] = mean(xs[:period])

	k := 2.0 / (float64(period) + 1.0)
	for i := period; i < len(xs); i++ {
		out[i] = xs[i]*k + out[i-1]*(1.0-k)
	}

	return out
}
