package grid

import (
	"math"
	"sync"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"

	"riskgrid/network"
)

// lengthEpsilon guards the per-cell division against zero intersecting
// length.
const lengthEpsilon = 1e-6

// goodBikePenaltyLimit separates decent bike infrastructure from poor one
// for the coverage ratio.
const goodBikePenaltyLimit = 0.5

// segmentCellStats are the partial per-cell sums of one aggregation worker.
// Summation is associative and commutative, so partial maps can be merged in
// any order once all workers are done.
type segmentCellStats struct {
	roadNumerator float64
	bikeNumerator float64
	totalLength   float64
	goodLength    float64
}

// AggregateSegments joins every segment to all cells its geometry
// intersects and computes length-weighted penalty means and the
// good-infrastructure coverage ratio per cell. The full segment length is
// credited to every intersecting cell instead of clipping the geometry to
// the cell, trading geometric precision for speed. Cells without any
// intersecting length keep their default penalties.
func (g *Grid) AggregateSegments(segments []network.Segment, workers int) {
	if len(g.Cells) == 0 {
		return
	}
	if workers > len(segments) && len(segments) > 0 {
		workers = len(segments)
	}
	if workers < 1 {
		workers = 1
	}

	sigolo.Infof("Aggregate %d segments into cells with %d workers", len(segments), workers)
	aggregationStartTime := time.Now()

	// Contiguous chunks per worker keep the partial sums independent of
	// scheduling, so re-runs produce identical results.
	partials := make([]map[CellIndex]*segmentCellStats, workers)
	chunkSize := (len(segments) + workers - 1) / workers

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		firstSegment := w * chunkSize
		lastSegment := firstSegment + chunkSize
		if lastSegment > len(segments) {
			lastSegment = len(segments)
		}
		if firstSegment >= lastSegment {
			partials[w] = map[CellIndex]*segmentCellStats{}
			continue
		}

		wg.Add(1)
		go func(workerIndex int, chunk []network.Segment) {
			defer wg.Done()
			partials[workerIndex] = g.aggregateSegmentChunk(chunk)
		}(w, segments[firstSegment:lastSegment])
	}
	wg.Wait()

	// Merge the partial sums in worker order.
	merged := map[CellIndex]*segmentCellStats{}
	for _, partial := range partials {
		for index, partialStats := range partial {
			stats, ok := merged[index]
			if !ok {
				stats = &segmentCellStats{}
				merged[index] = stats
			}
			stats.roadNumerator += partialStats.roadNumerator
			stats.bikeNumerator += partialStats.bikeNumerator
			stats.totalLength += partialStats.totalLength
			stats.goodLength += partialStats.goodLength
		}
	}

	cellsWithSegments := 0
	for _, cell := range g.Cells {
		stats, ok := merged[cell.Index]
		if !ok || stats.totalLength <= 0 {
			// Defaults from Build stay in place.
			continue
		}

		length := math.Max(stats.totalLength, lengthEpsilon)
		cell.RoadClassPenalty = stats.roadNumerator / length
		cell.BikeLanePenalty = stats.bikeNumerator / length

		coverage := stats.goodLength / length
		if coverage > 1 {
			coverage = 1
		}
		if coverage < 0 {
			coverage = 0
		}
		cell.BikeCoverage = coverage
		cellsWithSegments++
	}

	sigolo.Infof("Aggregated segments into %d cells in %s", cellsWithSegments, time.Since(aggregationStartTime))
}

func (g *Grid) aggregateSegmentChunk(segments []network.Segment) map[CellIndex]*segmentCellStats {
	partial := map[CellIndex]*segmentCellStats{}

	for _, segment := range segments {
		for _, index := range g.cellsIntersecting(segment.Geometry) {
			stats, ok := partial[index]
			if !ok {
				stats = &segmentCellStats{}
				partial[index] = stats
			}
			stats.roadNumerator += segment.RoadPenalty * segment.Length
			stats.bikeNumerator += segment.BikePenalty * segment.Length
			stats.totalLength += segment.Length
			if segment.BikePenalty < goodBikePenaltyLimit {
				stats.goodLength += segment.Length
			}
		}
	}

	return partial
}

// cellsIntersecting returns the indices of all lattice cells the given
// polyline intersects. Each cell appears at most once even when several
// parts of the polyline cross it.
func (g *Grid) cellsIntersecting(lineString orb.LineString) []CellIndex {
	seen := map[CellIndex]struct{}{}
	var indices []CellIndex

	for i := 0; i+1 < len(lineString); i++ {
		start := lineString[i]
		end := lineString[i+1]

		startCell := g.CellIndexForPoint(start)
		endCell := g.CellIndexForPoint(end)

		minCol := clamp(min(startCell.X(), endCell.X()), 0, g.Columns-1)
		maxCol := clamp(max(startCell.X(), endCell.X()), 0, g.Columns-1)
		minRow := clamp(min(startCell.Y(), endCell.Y()), 0, g.Rows-1)
		maxRow := clamp(max(startCell.Y(), endCell.Y()), 0, g.Rows-1)

		for col := minCol; col <= maxCol; col++ {
			for row := minRow; row <= maxRow; row++ {
				index := CellIndex{col, row}
				if _, ok := seen[index]; ok {
					continue
				}

				cell := g.CellAt(index)
				if cell != nil && segmentIntersectsBound(start, end, cell.Bound) {
					seen[index] = struct{}{}
					indices = append(indices, index)
				}
			}
		}
	}

	return indices
}

// segmentIntersectsBound is a Liang-Barsky clip test of the line segment
// from a to b against an axis-aligned rectangle. Touching the boundary
// counts as intersecting.
func segmentIntersectsBound(a orb.Point, b orb.Point, bound orb.Bound) bool {
	dx := b.X() - a.X()
	dy := b.Y() - a.Y()

	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{
		a.X() - bound.Min.X(),
		bound.Max.X() - a.X(),
		a.Y() - bound.Min.Y(),
		bound.Max.Y() - a.Y(),
	}

	tEnter, tLeave := 0.0, 1.0
	for i := 0; i < 4; i++ {
		if p[i] == 0 {
			if q[i] < 0 {
				return false
			}
			continue
		}

		t := q[i] / p[i]
		if p[i] < 0 {
			if t > tLeave {
				return false
			}
			if t > tEnter {
				tEnter = t
			}
		} else {
			if t < tEnter {
				return false
			}
			if t < tLeave {
				tLeave = t
			}
		}
	}

	return tEnter <= tLeave
}

func clamp(value int, lower int, upper int) int {
	if value < lower {
		return lower
	}
	if value > upper {
		return upper
	}
	return value
}
