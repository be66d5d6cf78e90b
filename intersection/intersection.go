// Package intersection derives per-intersection complexity features from the
// street graph and the crash events: node degree, major-road touch count and
// the severity-weighted crash mass within a fixed radius.
package intersection

import (
	"math"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"

	"riskgrid/config"
	"riskgrid/dataset"
	"riskgrid/network"
	"riskgrid/penalty"
	"riskgrid/stats"
)

// minIntersectionDegree separates decision points from pass-through nodes.
// A cyclist makes no decision at a degree 1 or 2 node.
const minIntersectionDegree = 3

// Intersection is one scored street-graph vertex with degree >= 3.
type Intersection struct {
	NodeID          int64
	Point           orb.Point
	Degree          int
	MajorTouchCount int
	CrashWeight     float64
	CrashCluster    float64
	Complexity      float64
}

// Score computes the composite complexity score for every intersection of
// the graph. Degree and major-touch count are derived from segment endpoint
// incidence, so a self-loop touches its node twice.
func Score(net *network.Network, crashes []dataset.Event, cfg *config.Config) []Intersection {
	sigolo.Infof("Score intersections over %d nodes and %d segments", len(net.Nodes), len(net.Segments))
	scoreStartTime := time.Now()

	degrees := map[int64]int{}
	majorTouches := map[int64]int{}
	for _, segment := range net.Segments {
		degrees[segment.FromNodeID]++
		degrees[segment.ToNodeID]++
		if penalty.IsMajor(segment.RoadClass) {
			majorTouches[segment.FromNodeID]++
			majorTouches[segment.ToNodeID]++
		}
	}

	// net.Nodes is sorted by ID, so the output order is stable.
	var intersections []Intersection
	for _, node := range net.Nodes {
		if degrees[node.ID] < minIntersectionDegree {
			continue
		}
		intersections = append(intersections, Intersection{
			NodeID:          node.ID,
			Point:           node.Point,
			Degree:          degrees[node.ID],
			MajorTouchCount: majorTouches[node.ID],
		})
	}
	sigolo.Infof("Found %d intersections (degree >= %d)", len(intersections), minIntersectionDegree)

	crashIndex := newEventIndex(crashes, cfg.CrashRadius)
	crashWeights := make([]float64, len(intersections))
	for i := range intersections {
		crashWeights[i] = crashIndex.weightWithin(intersections[i].Point, cfg.CrashRadius)
		intersections[i].CrashWeight = crashWeights[i]
	}

	crashClusters := stats.ClipNormalize(crashWeights, cfg.Percentile, cfg.PercentileFloor)
	for i := range intersections {
		intersections[i].CrashCluster = crashClusters[i]
		intersections[i].Complexity = complexity(intersections[i], cfg)
	}

	sigolo.Infof("Scored %d intersections in %s", len(intersections), time.Since(scoreStartTime))
	return intersections
}

// complexity combines degree, major-road touches and the crash cluster into
// one score in [0,1]. Degree 2 maps to 0 and degree 6 or more to 1, four or
// more major-road touches map to 1.
func complexity(intersection Intersection, cfg *config.Config) float64 {
	degreeNorm := clipUnit(float64(intersection.Degree-2) / 4)
	majorNorm := clipUnit(float64(intersection.MajorTouchCount) / 4)

	return clipUnit(cfg.DegreeWeight*degreeNorm +
		cfg.MajorWeight*majorNorm +
		cfg.ClusterWeight*intersection.CrashCluster)
}

func clipUnit(value float64) float64 {
	if value < 0 {
		return 0
	}
	if value > 1 {
		return 1
	}
	return value
}

// eventIndex buckets events into a coarse lattice so the radius search only
// has to look at the neighborhood of a point instead of all events.
type eventIndex struct {
	bucketSize float64
	buckets    map[[2]int][]dataset.Event
}

func newEventIndex(events []dataset.Event, bucketSize float64) *eventIndex {
	index := &eventIndex{
		bucketSize: bucketSize,
		buckets:    map[[2]int][]dataset.Event{},
	}
	for _, event := range events {
		bucket := index.bucketOf(event.Point)
		index.buckets[bucket] = append(index.buckets[bucket], event)
	}
	return index
}

func (i *eventIndex) bucketOf(point orb.Point) [2]int {
	return [2]int{
		int(math.Floor(point.X() / i.bucketSize)),
		int(math.Floor(point.Y() / i.bucketSize)),
	}
}

// weightWithin sums the severity weight of all events within the given
// radius around the center. Equivalent to joining the events against a
// buffer polygon of that radius.
func (i *eventIndex) weightWithin(center orb.Point, radius float64) float64 {
	centerBucket := i.bucketOf(center)

	sum := 0.0
	for dx := -1; dx <= 1; dx++ {
		for dy := -1; dy <= 1; dy++ {
			bucket := [2]int{centerBucket[0] + dx, centerBucket[1] + dy}
			for _, event := range i.buckets[bucket] {
				if planar.Distance(center, event.Point) <= radius {
					sum += event.Weight
				}
			}
		}
	}
	return sum
}
