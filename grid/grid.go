// Package grid implements the discretized risk surface: a rectangular
// lattice of square cells in planar space, weighted aggregation of point
// events and network segments into those cells and the percentile-based
// density normalization.
package grid

import (
	"fmt"
	"math"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"

	"riskgrid/dataset"
	"riskgrid/penalty"
	"riskgrid/projection"
)

// EmptyCellRoadPenalty is the road-class penalty of a cell no segment
// intersects. It is deliberately above the unknown-tag classifier default,
// cells without any mapped road are treated as slightly worse than cells
// with unclassified roads.
const EmptyCellRoadPenalty = 0.5

// CellIndex is the column/row position of a cell within the grid lattice.
type CellIndex [2]int

func (c CellIndex) X() int { return c[0] }

func (c CellIndex) Y() int { return c[1] }

// Cell is one square region of the planar study area. It is mutated
// additively by the aggregation passes and read-only afterwards.
type Cell struct {
	ID    string
	Index CellIndex
	Bound orb.Bound

	CrashWeight float64
	CrimeWeight float64

	RoadClassPenalty float64
	BikeLanePenalty  float64
	BikeCoverage     float64

	CrashDensity float64
	CrimeDensity float64

	// Centroid in geographic coordinates, for the exported lookup keys.
	Centroid orb.Point
}

// Grid is a full rectangular lattice of square cells covering the padded
// extent of the point events. Cells are stored column-major.
type Grid struct {
	MinX     float64
	MinY     float64
	CellSize float64
	Columns  int
	Rows     int
	Cells    []*Cell
}

// Build creates the grid lattice over the union of all given point events,
// expanded by the given padding in cell widths on each side. An empty event
// set yields an empty grid.
func Build(eventSets [][]dataset.Event, cellSize float64, paddingCells int) *Grid {
	minX, minY := math.MaxFloat64, math.MaxFloat64
	maxX, maxY := -math.MaxFloat64, -math.MaxFloat64
	eventCount := 0
	for _, events := range eventSets {
		for _, event := range events {
			eventCount++
			minX = math.Min(minX, event.Point.X())
			minY = math.Min(minY, event.Point.Y())
			maxX = math.Max(maxX, event.Point.X())
			maxY = math.Max(maxY, event.Point.Y())
		}
	}

	if eventCount == 0 {
		sigolo.Warn("No point events given, the grid will be empty")
		return &Grid{CellSize: cellSize}
	}

	padding := float64(paddingCells) * cellSize
	minX -= padding
	minY -= padding
	maxX += padding
	maxY += padding

	columns := int(math.Ceil((maxX - minX) / cellSize))
	rows := int(math.Ceil((maxY - minY) / cellSize))

	grid := &Grid{
		MinX:     minX,
		MinY:     minY,
		CellSize: cellSize,
		Columns:  columns,
		Rows:     rows,
		Cells:    make([]*Cell, 0, columns*rows),
	}

	for col := 0; col < columns; col++ {
		for row := 0; row < rows; row++ {
			cellMinX := minX + float64(col)*cellSize
			cellMinY := minY + float64(row)*cellSize
			grid.Cells = append(grid.Cells, &Cell{
				ID:    fmt.Sprintf("%d_%d", col, row),
				Index: CellIndex{col, row},
				Bound: orb.Bound{
					Min: orb.Point{cellMinX, cellMinY},
					Max: orb.Point{cellMinX + cellSize, cellMinY + cellSize},
				},
				RoadClassPenalty: EmptyCellRoadPenalty,
				BikeLanePenalty:  penalty.DefaultBikeInfra,
			})
		}
	}

	sigolo.Infof("Built grid with %d cells (%d columns, %d rows, cell size %.0fm)", len(grid.Cells), columns, rows, cellSize)
	return grid
}

// CellIndexForPoint buckets a planar point into its cell. This floor
// division is equivalent to an exact point-in-polygon test against the
// axis-aligned lattice.
func (g *Grid) CellIndexForPoint(point orb.Point) CellIndex {
	return CellIndex{
		int(math.Floor((point.X() - g.MinX) / g.CellSize)),
		int(math.Floor((point.Y() - g.MinY) / g.CellSize)),
	}
}

// CellAt returns the cell at the given index or nil if the index lies
// outside the lattice.
func (g *Grid) CellAt(index CellIndex) *Cell {
	if index.X() < 0 || index.X() >= g.Columns || index.Y() < 0 || index.Y() >= g.Rows {
		return nil
	}
	return g.Cells[index.X()*g.Rows+index.Y()]
}

// ComputeCentroids converts each cell's planar centroid back to geographic
// coordinates for the runtime lookup keys.
func (g *Grid) ComputeCentroids(proj *projection.Projection) error {
	for _, cell := range g.Cells {
		planarCentroid := orb.Point{
			(cell.Bound.Min.X() + cell.Bound.Max.X()) / 2,
			(cell.Bound.Min.Y() + cell.Bound.Max.Y()) / 2,
		}
		geographicCentroid, err := proj.ToGeographic(planarCentroid)
		if err != nil {
			return err
		}
		cell.Centroid = geographicCentroid
	}
	return nil
}
