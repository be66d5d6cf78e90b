// Package network loads the street graph from an OSM file. Only ways with a
// highway tag become segments, everything else in the file is skipped.
package network

import (
	"context"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/paulmach/osm"
	"github.com/paulmach/osm/osmpbf"
	"github.com/paulmach/osm/osmxml"
	"github.com/pkg/errors"

	"riskgrid/penalty"
	"riskgrid/projection"
)

// bikeInfraTagKeys are the tag fields inspected for bike infrastructure.
var bikeInfraTagKeys = []string{"cycleway", "cycleway:left", "cycleway:right", "cycleway:both"}

// Segment is one edge of the street graph in planar coordinates. The
// penalties are pure functions of the tags, computed once at load time.
type Segment struct {
	FromNodeID  int64
	ToNodeID    int64
	Geometry    orb.LineString
	Length      float64
	RoadClass   string
	RoadPenalty float64
	BikePenalty float64
}

// Node is a street-graph vertex in planar coordinates.
type Node struct {
	ID    int64
	Point orb.Point
}

type Network struct {
	Nodes    []Node
	Segments []Segment
}

// highwayWay is one highway-tagged way with its vertices already resolved
// to positions. Ways are buffered during the scan because the split points
// depend on node usage across all ways of the file.
type highwayWay struct {
	roadClass string
	bikeTags  []string
	nodeIDs   []int64
	geometry  orb.LineString
}

// Load reads the given .osm or .osm.pbf file and builds the street graph.
// Way vertices get their positions from the node elements of the same file,
// so the usual node-before-way ordering of OSM files is required.
//
// Ways are split at every shared node, so a node where two highways cross
// mid-way becomes a graph vertex with the full incidence of both ways. OSM
// maps most crossings as interior nodes of through-ways, without the split
// they would not be part of the graph at all.
func Load(inputFile string, proj *projection.Projection) (*Network, error) {
	if !strings.HasSuffix(inputFile, ".osm") && !strings.HasSuffix(inputFile, ".osm.pbf") {
		return nil, errors.Errorf("Input file %s must be an .osm or .osm.pbf file", inputFile)
	}

	file, err := os.Open(inputFile)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to open network file %s", inputFile)
	}
	defer file.Close()

	var scanner osm.Scanner
	if strings.HasSuffix(inputFile, ".osm.pbf") {
		scanner = osmpbf.New(context.Background(), file, 1)
	} else {
		scanner = osmxml.New(context.Background(), file)
	}
	defer scanner.Close()

	sigolo.Infof("Start reading street network from %s", inputFile)
	loadStartTime := time.Now()

	nodePositions := map[osm.NodeID]orb.Point{}
	nodeUsage := map[int64]int{}
	var ways []highwayWay
	droppedWays := 0

	for scanner.Scan() {
		switch osmObj := scanner.Object().(type) {
		case *osm.Node:
			nodePositions[osmObj.ID] = orb.Point{osmObj.Lon, osmObj.Lat}
		case *osm.Way:
			roadClass := osmObj.Tags.Find("highway")
			if roadClass == "" {
				continue
			}

			nodeIDs := make([]int64, 0, len(osmObj.Nodes))
			geographicLineString := make(orb.LineString, 0, len(osmObj.Nodes))
			for _, wayNode := range osmObj.Nodes {
				position, ok := nodePositions[wayNode.ID]
				if !ok {
					continue
				}
				nodeIDs = append(nodeIDs, int64(wayNode.ID))
				geographicLineString = append(geographicLineString, position)
			}
			if len(nodeIDs) < 2 {
				droppedWays++
				continue
			}

			for _, nodeID := range nodeIDs {
				nodeUsage[nodeID]++
			}

			bikeInfraTags := make([]string, 0, len(bikeInfraTagKeys))
			for _, key := range bikeInfraTagKeys {
				bikeInfraTags = append(bikeInfraTags, osmObj.Tags.Find(key))
			}

			ways = append(ways, highwayWay{
				roadClass: roadClass,
				bikeTags:  bikeInfraTags,
				nodeIDs:   nodeIDs,
				geometry:  geographicLineString,
			})
		}
	}
	if err = scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "Unable to scan network file %s", inputFile)
	}

	endpointNodes := map[int64]orb.Point{}
	var segments []Segment
	for _, way := range ways {
		planarLineString, err := proj.LineStringToPlanar(way.geometry)
		if err != nil {
			return nil, err
		}

		roadPenalty := penalty.RoadClass(way.roadClass)
		bikePenalty := penalty.BikeInfra(way.bikeTags)

		// Split the way at its endpoints and at every node another way
		// also passes through.
		splitStart := 0
		for i := 1; i < len(way.nodeIDs); i++ {
			if i < len(way.nodeIDs)-1 && nodeUsage[way.nodeIDs[i]] < 2 {
				continue
			}

			geometry := orb.LineString(planarLineString[splitStart : i+1])
			segments = append(segments, Segment{
				FromNodeID:  way.nodeIDs[splitStart],
				ToNodeID:    way.nodeIDs[i],
				Geometry:    geometry,
				Length:      planar.Length(geometry),
				RoadClass:   way.roadClass,
				RoadPenalty: roadPenalty,
				BikePenalty: bikePenalty,
			})

			endpointNodes[way.nodeIDs[splitStart]] = planarLineString[splitStart]
			endpointNodes[way.nodeIDs[i]] = planarLineString[i]
			splitStart = i
		}
	}

	// Stable node order keeps downstream outputs byte-identical across runs.
	nodes := make([]Node, 0, len(endpointNodes))
	for id, point := range endpointNodes {
		nodes = append(nodes, Node{ID: id, Point: point})
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].ID < nodes[j].ID })

	sigolo.Infof("Read %d nodes and %d segments from %d ways (%d ways dropped) in %s", len(nodes), len(segments), len(ways), droppedWays, time.Since(loadStartTime))

	return &Network{
		Nodes:    nodes,
		Segments: segments,
	}, nil
}
