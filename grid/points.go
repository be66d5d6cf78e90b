package grid

import (
	"github.com/hauke96/sigolo/v2"

	"riskgrid/dataset"
)

// AggregatePoints assigns each event to the unique cell containing it and
// sums the severity weights per cell. The lattice is a partition, so the
// floor-division bucket is that unique cell. Events outside the grid extent
// are excluded.
func (g *Grid) AggregatePoints(category dataset.Category, events []dataset.Event) {
	aggregatedEvents := 0
	excludedEvents := 0

	for _, event := range events {
		cell := g.CellAt(g.CellIndexForPoint(event.Point))
		if cell == nil {
			excludedEvents++
			continue
		}

		switch category {
		case dataset.CategoryCrash:
			cell.CrashWeight += event.Weight
		case dataset.CategoryCrime:
			cell.CrimeWeight += event.Weight
		}
		aggregatedEvents++
	}

	sigolo.Infof("Aggregated %d %s events into cells (%d outside the grid)", aggregatedEvents, category, excludedEvents)
}
