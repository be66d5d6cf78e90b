package projection

import (
	"github.com/ctessum/geom/proj"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"
)

const geographicProj = "+proj=longlat"

// Projection converts between geographic (longitude/latitude) coordinates
// and a local planar meter-based coordinate system. The planar system is a
// fixed configuration constant, so two transforms cover the whole engine.
type Projection struct {
	forward proj.Transformer
	inverse proj.Transformer
}

func New(planarProjDefinition string) (*Projection, error) {
	geographicSR, err := proj.Parse(geographicProj)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to parse geographic projection %s", geographicProj)
	}

	planarSR, err := proj.Parse(planarProjDefinition)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to parse planar projection %s", planarProjDefinition)
	}

	forward, err := geographicSR.NewTransform(planarSR)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create geographic to planar transform")
	}

	inverse, err := planarSR.NewTransform(geographicSR)
	if err != nil {
		return nil, errors.Wrap(err, "Unable to create planar to geographic transform")
	}

	return &Projection{
		forward: forward,
		inverse: inverse,
	}, nil
}

// ToPlanar converts a geographic point (lon/lat) to planar meters.
func (p *Projection) ToPlanar(point orb.Point) (orb.Point, error) {
	x, y, err := p.forward(point.Lon(), point.Lat())
	if err != nil {
		return orb.Point{}, errors.Wrapf(err, "Unable to project point lon=%f, lat=%f to planar coordinates", point.Lon(), point.Lat())
	}
	return orb.Point{x, y}, nil
}

// ToGeographic converts a planar point back to geographic lon/lat.
func (p *Projection) ToGeographic(point orb.Point) (orb.Point, error) {
	lon, lat, err := p.inverse(point.X(), point.Y())
	if err != nil {
		return orb.Point{}, errors.Wrapf(err, "Unable to project point x=%f, y=%f to geographic coordinates", point.X(), point.Y())
	}
	return orb.Point{lon, lat}, nil
}

// LineStringToPlanar converts every vertex of the given geographic line
// string to planar meters.
func (p *Projection) LineStringToPlanar(lineString orb.LineString) (orb.LineString, error) {
	planarLineString := make(orb.LineString, 0, len(lineString))
	for _, point := range lineString {
		planarPoint, err := p.ToPlanar(point)
		if err != nil {
			return nil, err
		}
		planarLineString = append(planarLineString, planarPoint)
	}
	return planarLineString, nil
}
