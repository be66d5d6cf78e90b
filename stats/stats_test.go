package stats

import (
	"riskgrid/util"
	"testing"
)

func TestPercentile(t *testing.T) {
	values := make([]float64, 100)
	for i := range values {
		values[i] = float64(i + 1)
	}

	util.AssertEqual(t, 95.0, Percentile(values, 0.95))
	util.AssertEqual(t, 50.0, Percentile(values, 0.5))
}

func TestPercentile_empty(t *testing.T) {
	util.AssertEqual(t, 0.0, Percentile(nil, 0.95))
}

func TestPercentile_doesNotMutateInput(t *testing.T) {
	values := []float64{3, 1, 2}
	Percentile(values, 0.5)
	util.AssertEqual(t, []float64{3, 1, 2}, values)
}

func TestClipNormalize_bounds(t *testing.T) {
	weights := make([]float64, 100)
	for i := range weights {
		weights[i] = float64(i)
	}

	normalized := ClipNormalize(weights, 0.95, 1.0)
	for _, value := range normalized {
		util.AssertTrue(t, value >= 0)
		util.AssertTrue(t, value <= 1)
	}

	// Monotonically non-decreasing below the clip point, constant above.
	for i := 1; i < len(normalized); i++ {
		util.AssertTrue(t, normalized[i] >= normalized[i-1])
	}
	util.AssertEqual(t, 1.0, normalized[99])
	util.AssertEqual(t, 1.0, normalized[95])
}

func TestClipNormalize_floorPreventsAmplification(t *testing.T) {
	// Percentile of this distribution is 0.2, the floor lifts the
	// denominator to 1.0.
	weights := []float64{0.2, 0.2, 0.2, 0.2}
	normalized := ClipNormalize(weights, 0.95, 1.0)
	util.AssertApprox(t, 0.2, normalized[0], 1e-12)
}

func TestClipNormalize_mostlyZeroDistributionClipsToZero(t *testing.T) {
	// One crash of weight 2.0 among 99 empty cells: the 95th percentile is
	// 0, so even the loaded cell normalizes to 0. This is the documented
	// boundary behavior, not an accident.
	weights := make([]float64, 100)
	weights[42] = 2.0

	normalized := ClipNormalize(weights, 0.95, 1.0)
	util.AssertEqual(t, 0.0, normalized[42])
	util.AssertEqual(t, 0.0, normalized[0])
}
