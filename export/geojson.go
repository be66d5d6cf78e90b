package export

import (
	"io"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"riskgrid/grid"
	"riskgrid/projection"
)

// WriteGridAsGeoJson dumps the non-empty grid cells as GeoJSON polygons in
// geographic coordinates. Meant for visual inspection of a build, not for
// the runtime scorer.
func WriteGridAsGeoJson(g *grid.Grid, proj *projection.Projection, writer io.Writer) error {
	sigolo.Info("Write grid cells to GeoJSON")
	writeStartTime := time.Now()

	featureCollection := geojson.NewFeatureCollection()
	for _, cell := range g.Cells {
		if cell.CrashWeight == 0 && cell.CrimeWeight == 0 &&
			cell.RoadClassPenalty == grid.EmptyCellRoadPenalty && cell.BikeCoverage == 0 {
			continue
		}

		ring, err := boundToGeographicRing(cell.Bound, proj)
		if err != nil {
			return err
		}

		geoJsonFeature := geojson.NewFeature(orb.Polygon{ring})
		geoJsonFeature.Properties["cell_id"] = cell.ID
		geoJsonFeature.Properties["crash_density"] = round4(cell.CrashDensity)
		geoJsonFeature.Properties["crime_density"] = round4(cell.CrimeDensity)
		geoJsonFeature.Properties["road_class_penalty"] = round4(cell.RoadClassPenalty)
		geoJsonFeature.Properties["bike_lane_penalty"] = round4(cell.BikeLanePenalty)
		geoJsonFeature.Properties["bike_coverage"] = round4(cell.BikeCoverage)

		featureCollection.Features = append(featureCollection.Features, geoJsonFeature)
	}

	geojsonBytes, err := featureCollection.MarshalJSON()
	if err != nil {
		return err
	}

	_, err = writer.Write(geojsonBytes)
	if err != nil {
		return err
	}

	sigolo.Infof("Finished writing %d cells in %s", len(featureCollection.Features), time.Since(writeStartTime))
	return nil
}

func boundToGeographicRing(bound orb.Bound, proj *projection.Projection) (orb.Ring, error) {
	planarRing := orb.Ring{
		bound.Min,
		orb.Point{bound.Max.X(), bound.Min.Y()},
		bound.Max,
		orb.Point{bound.Min.X(), bound.Max.Y()},
		bound.Min,
	}

	geographicRing := make(orb.Ring, 0, len(planarRing))
	for _, point := range planarRing {
		geographicPoint, err := proj.ToGeographic(point)
		if err != nil {
			return nil, err
		}
		geographicRing = append(geographicRing, geographicPoint)
	}
	return geographicRing, nil
}
