package projection

import (
	"riskgrid/config"
	"riskgrid/util"
	"testing"

	"github.com/paulmach/orb"
)

func newTestProjection(t *testing.T) *Projection {
	p, err := New(config.Default().PlanarProj)
	util.AssertNil(t, err)
	return p
}

func TestProjection_roundtrip(t *testing.T) {
	p := newTestProjection(t)

	original := orb.Point{-73.98, 40.75}

	planar, err := p.ToPlanar(original)
	util.AssertNil(t, err)

	back, err := p.ToGeographic(planar)
	util.AssertNil(t, err)

	util.AssertApprox(t, original.Lon(), back.Lon(), 1e-9)
	util.AssertApprox(t, original.Lat(), back.Lat(), 1e-9)
}

func TestProjection_planarUnitsAreMeters(t *testing.T) {
	p := newTestProjection(t)

	// Two points 0.01 degrees of latitude apart are roughly 1.11 km apart.
	a, err := p.ToPlanar(orb.Point{-74.0, 40.70})
	util.AssertNil(t, err)
	b, err := p.ToPlanar(orb.Point{-74.0, 40.71})
	util.AssertNil(t, err)

	util.AssertApprox(t, 1110.0, b.Y()-a.Y(), 10.0)
}

func TestProjection_deterministic(t *testing.T) {
	p := newTestProjection(t)

	first, err := p.ToPlanar(orb.Point{-73.95, 40.68})
	util.AssertNil(t, err)
	second, err := p.ToPlanar(orb.Point{-73.95, 40.68})
	util.AssertNil(t, err)

	util.AssertEqual(t, first, second)
}

func TestProjection_invalidDefinition(t *testing.T) {
	_, err := New("+proj=doesnotexist")
	util.AssertNotNil(t, err)
}

func TestProjection_lineString(t *testing.T) {
	p := newTestProjection(t)

	lineString := orb.LineString{{-74.0, 40.7}, {-73.99, 40.71}}
	planar, err := p.LineStringToPlanar(lineString)
	util.AssertNil(t, err)

	util.AssertEqual(t, 2, len(planar))
	util.AssertTrue(t, planar[0].Y() < planar[1].Y())
}
