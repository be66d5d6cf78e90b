package grid

import (
	"github.com/hauke96/sigolo/v2"

	"riskgrid/stats"
)

// Normalize rescales the summed point-event weights of every cell to [0,1]
// with a percentile clip. Each event category is normalized independently,
// percentiles are never mixed across categories. Must run after all
// aggregation passes since the percentile is a global property of the grid.
func (g *Grid) Normalize(percentile float64, floor float64) {
	crashWeights := make([]float64, len(g.Cells))
	crimeWeights := make([]float64, len(g.Cells))
	for i, cell := range g.Cells {
		crashWeights[i] = cell.CrashWeight
		crimeWeights[i] = cell.CrimeWeight
	}

	crashDensities := stats.ClipNormalize(crashWeights, percentile, floor)
	crimeDensities := stats.ClipNormalize(crimeWeights, percentile, floor)

	for i, cell := range g.Cells {
		cell.CrashDensity = crashDensities[i]
		cell.CrimeDensity = crimeDensities[i]
	}

	sigolo.Infof("Normalized densities of %d cells (crash p%.0f=%.2f, crime p%.0f=%.2f)",
		len(g.Cells),
		percentile*100, stats.Percentile(crashWeights, percentile),
		percentile*100, stats.Percentile(crimeWeights, percentile))
}
