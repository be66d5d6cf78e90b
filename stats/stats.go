// Package stats holds the percentile-clip normalization shared by the grid
// and intersection features.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"
)

// Percentile returns the value at the given fraction of the distribution.
// An empty input has no distribution, its percentile is 0.
func Percentile(values []float64, fraction float64) float64 {
	if len(values) == 0 {
		return 0
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	return stat.Quantile(fraction, stat.Empirical, sorted, nil)
}

// ClipNormalize rescales the given weights to [0,1]: weights are clipped to
// the percentile value and divided by max(percentile, floor). The floor
// prevents near-empty distributions from being amplified. With at least
// (1-fraction) of the weights at zero the percentile is 0 and every
// normalized value clips to 0.
func ClipNormalize(weights []float64, fraction float64, floor float64) []float64 {
	p := Percentile(weights, fraction)

	denominator := p
	if denominator < floor {
		denominator = floor
	}

	normalized := make([]float64, len(weights))
	for i, weight := range weights {
		clipped := weight
		if clipped > p {
			clipped = p
		}
		value := clipped / denominator
		if value < 0 {
			value = 0
		}
		if value > 1 {
			value = 1
		}
		normalized[i] = value
	}
	return normalized
}
