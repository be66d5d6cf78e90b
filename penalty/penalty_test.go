package penalty

import (
	"riskgrid/util"
	"testing"
)

func TestRoadClass(t *testing.T) {
	util.AssertEqual(t, 1.0, RoadClass("motorway"))
	util.AssertEqual(t, 1.0, RoadClass("trunk_link"))
	util.AssertEqual(t, 1.0, RoadClass("primary"))
	util.AssertEqual(t, 0.75, RoadClass("secondary"))
	util.AssertEqual(t, 0.55, RoadClass("tertiary_link"))
	util.AssertEqual(t, 0.25, RoadClass("residential"))
	util.AssertEqual(t, 0.1, RoadClass("living_street"))
	util.AssertEqual(t, 0.05, RoadClass("cycleway"))
	util.AssertEqual(t, 0.15, RoadClass("steps"))
}

func TestRoadClass_defaults(t *testing.T) {
	util.AssertEqual(t, DefaultRoadClass, RoadClass(""))
	util.AssertEqual(t, DefaultRoadClass, RoadClass("construction"))
	util.AssertEqual(t, DefaultRoadClass, RoadClass("something_else"))
}

func TestRoadClass_multiValuedTag(t *testing.T) {
	// Only the first value of a multi-digitized tag counts.
	util.AssertEqual(t, 0.25, RoadClass("residential;service"))
	util.AssertEqual(t, 1.0, RoadClass("motorway; trunk"))
	util.AssertEqual(t, DefaultRoadClass, RoadClass(";residential"))
}

func TestIsMajor(t *testing.T) {
	util.AssertTrue(t, IsMajor("motorway"))
	util.AssertTrue(t, IsMajor("motorway_link"))
	util.AssertTrue(t, IsMajor("trunk"))
	util.AssertTrue(t, IsMajor("primary_link"))
	util.AssertTrue(t, IsMajor("primary;residential"))

	util.AssertFalse(t, IsMajor("secondary"))
	util.AssertFalse(t, IsMajor("residential"))
	util.AssertFalse(t, IsMajor("cycleway"))
	util.AssertFalse(t, IsMajor(""))
}

func TestBikeInfra(t *testing.T) {
	util.AssertEqual(t, 0.05, BikeInfra([]string{"track"}))
	util.AssertEqual(t, 0.05, BikeInfra([]string{"", "separate", ""}))
	util.AssertEqual(t, 0.3, BikeInfra([]string{"lane"}))
	util.AssertEqual(t, 0.7, BikeInfra([]string{"shared_lane"}))
	util.AssertEqual(t, 0.7, BikeInfra([]string{"share_busway"}))
	util.AssertEqual(t, 1.0, BikeInfra([]string{"no"}))
}

func TestBikeInfra_noTags(t *testing.T) {
	util.AssertEqual(t, DefaultBikeInfra, BikeInfra(nil))
	util.AssertEqual(t, DefaultBikeInfra, BikeInfra([]string{"", "", "", ""}))
}

func TestBikeInfra_priorityOrder(t *testing.T) {
	// A track on one side wins over a shared lane on the other.
	util.AssertEqual(t, 0.05, BikeInfra([]string{"track", "shared_lane"}))
	// "shared" suppresses the plain lane rule, the shared-lane rule fires.
	util.AssertEqual(t, 0.7, BikeInfra([]string{"shared_lane", "lane"}))
	// "no" on one side with a lane on the other: the lane rule comes first.
	util.AssertEqual(t, 0.3, BikeInfra([]string{"lane", "no"}))
}

func TestBikeInfra_caseInsensitive(t *testing.T) {
	util.AssertEqual(t, 0.05, BikeInfra([]string{"Track"}))
	util.AssertEqual(t, 0.3, BikeInfra([]string{"LANE"}))
	util.AssertEqual(t, DefaultBikeInfra, BikeInfra([]string{"yes"}))
}

func TestBikeInfra_unknownValue(t *testing.T) {
	util.AssertEqual(t, DefaultBikeInfra, BikeInfra([]string{"opposite"}))
}

func TestFirstValue(t *testing.T) {
	util.AssertEqual(t, "", FirstValue(""))
	util.AssertEqual(t, "residential", FirstValue("residential"))
	util.AssertEqual(t, "residential", FirstValue("residential;service"))
	util.AssertEqual(t, "primary", FirstValue(" primary ; secondary"))
}
