package network

import (
	"os"
	"path/filepath"
	"riskgrid/config"
	"riskgrid/penalty"
	"riskgrid/projection"
	"riskgrid/util"
	"testing"
)

const testOsmData = `<osm version="0.6">
  <node id="1" lat="40.7000" lon="-74.0000"/>
  <node id="2" lat="40.7010" lon="-74.0000"/>
  <node id="3" lat="40.7020" lon="-74.0000"/>
  <node id="4" lat="40.7030" lon="-74.0000"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="2"/>
    <nd ref="3"/>
    <tag k="highway" v="residential"/>
    <tag k="cycleway" v="lane"/>
  </way>
  <way id="11">
    <nd ref="3"/>
    <nd ref="4"/>
    <tag k="highway" v="primary"/>
  </way>
  <way id="12">
    <nd ref="1"/>
    <nd ref="4"/>
    <tag k="building" v="yes"/>
  </way>
  <way id="13">
    <nd ref="99"/>
    <nd ref="98"/>
    <tag k="highway" v="service"/>
  </way>
</osm>`

func loadTestNetwork(t *testing.T) *Network {
	file := filepath.Join(t.TempDir(), "network.osm")
	err := os.WriteFile(file, []byte(testOsmData), 0644)
	util.AssertNil(t, err)

	proj, err := projection.New(config.Default().PlanarProj)
	util.AssertNil(t, err)

	net, err := Load(file, proj)
	util.AssertNil(t, err)
	return net
}

func TestLoad_segments(t *testing.T) {
	net := loadTestNetwork(t)

	// Way 12 has no highway tag, way 13 has no resolvable nodes.
	util.AssertEqual(t, 2, len(net.Segments))

	residential := net.Segments[0]
	util.AssertEqual(t, int64(1), residential.FromNodeID)
	util.AssertEqual(t, int64(3), residential.ToNodeID)
	util.AssertEqual(t, "residential", residential.RoadClass)
	util.AssertEqual(t, 0.25, residential.RoadPenalty)
	util.AssertEqual(t, 0.3, residential.BikePenalty)
	util.AssertEqual(t, 3, len(residential.Geometry))

	primary := net.Segments[1]
	util.AssertEqual(t, 1.0, primary.RoadPenalty)
	util.AssertEqual(t, penalty.DefaultBikeInfra, primary.BikePenalty)
}

func TestLoad_segmentLengthInMeters(t *testing.T) {
	net := loadTestNetwork(t)

	// 0.002 degrees of latitude are roughly 222 m.
	util.AssertApprox(t, 222.0, net.Segments[0].Length, 3.0)
	util.AssertApprox(t, 111.0, net.Segments[1].Length, 2.0)
}

func TestLoad_nodes(t *testing.T) {
	net := loadTestNetwork(t)

	// Only segment endpoints become graph vertices, sorted by ID.
	util.AssertEqual(t, 3, len(net.Nodes))
	util.AssertEqual(t, int64(1), net.Nodes[0].ID)
	util.AssertEqual(t, int64(3), net.Nodes[1].ID)
	util.AssertEqual(t, int64(4), net.Nodes[2].ID)
}

func TestLoad_splitsWaysAtSharedInteriorNode(t *testing.T) {
	// Two ways crossing at node 3, which is interior to both. The crossing
	// must become a graph vertex with all four segments incident.
	crossingOsmData := `<osm version="0.6">
  <node id="1" lat="40.7000" lon="-74.0000"/>
  <node id="2" lat="40.7020" lon="-74.0000"/>
  <node id="3" lat="40.7010" lon="-74.0000"/>
  <node id="4" lat="40.7010" lon="-74.0010"/>
  <node id="5" lat="40.7010" lon="-73.9990"/>
  <way id="10">
    <nd ref="1"/>
    <nd ref="3"/>
    <nd ref="2"/>
    <tag k="highway" v="residential"/>
  </way>
  <way id="11">
    <nd ref="4"/>
    <nd ref="3"/>
    <nd ref="5"/>
    <tag k="highway" v="primary"/>
  </way>
</osm>`
	file := filepath.Join(t.TempDir(), "crossing.osm")
	err := os.WriteFile(file, []byte(crossingOsmData), 0644)
	util.AssertNil(t, err)

	proj, err := projection.New(config.Default().PlanarProj)
	util.AssertNil(t, err)

	net, err := Load(file, proj)
	util.AssertNil(t, err)

	util.AssertEqual(t, 4, len(net.Segments))
	util.AssertEqual(t, 5, len(net.Nodes))

	incidence := 0
	for _, segment := range net.Segments {
		if segment.FromNodeID == 3 {
			incidence++
		}
		if segment.ToNodeID == 3 {
			incidence++
		}
	}
	util.AssertEqual(t, 4, incidence)

	// Both halves of way 10 keep the way's tags.
	util.AssertEqual(t, "residential", net.Segments[0].RoadClass)
	util.AssertEqual(t, "residential", net.Segments[1].RoadClass)
	util.AssertApprox(t, 111.0, net.Segments[0].Length, 2.0)
}

func TestLoad_interiorNodeOfSingleWayIsNoVertex(t *testing.T) {
	net := loadTestNetwork(t)

	// Node 2 is interior to way 10 only, the way must not split there.
	for _, node := range net.Nodes {
		util.AssertTrue(t, node.ID != 2)
	}
	for _, segment := range net.Segments {
		util.AssertTrue(t, segment.FromNodeID != 2)
		util.AssertTrue(t, segment.ToNodeID != 2)
	}
}

func TestLoad_rejectsUnknownFileType(t *testing.T) {
	proj, err := projection.New(config.Default().PlanarProj)
	util.AssertNil(t, err)

	_, err = Load("network.geojson", proj)
	util.AssertNotNil(t, err)

	// A bare .pbf is not a supported suffix, only .osm.pbf is.
	_, err = Load("network.pbf", proj)
	util.AssertNotNil(t, err)
}
