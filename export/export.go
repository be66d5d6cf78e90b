// Package export writes the finalized feature tables as JSON artifacts for
// the downstream route scorer. Artifacts are written to a temporary file
// first and renamed afterwards, so a failing run never leaves a partial
// artifact behind.
package export

import (
	"encoding/json"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"riskgrid/config"
	"riskgrid/grid"
	"riskgrid/intersection"
	"riskgrid/projection"
)

// CellFeatures is the exported per-cell feature record. All values are in
// [0,1] and rounded to 4 decimal places.
type CellFeatures struct {
	CrashDensity     float64 `json:"crashDensity"`
	CrimeDensity     float64 `json:"crimeDensity"`
	RoadClassPenalty float64 `json:"roadClassPenalty"`
	BikeLanePenalty  float64 `json:"bikeLanePenalty"`
	BikeCoverage     float64 `json:"bikeCoverage"`
}

// GridArtifact keys cell features by quantized geographic centroid
// coordinates, so the runtime consumer can look cells up by coordinate
// without any spatial index.
type GridArtifact struct {
	GridStep float64                 `json:"gridStep"`
	Cells    map[string]CellFeatures `json:"cells"`
}

// IntersectionRecord is one exported intersection.
type IntersectionRecord struct {
	ID           string  `json:"id"`
	Lng          float64 `json:"lng"`
	Lat          float64 `json:"lat"`
	Complexity   float64 `json:"complexity"`
	CrashCluster float64 `json:"crashCluster"`
}

// WriteGridArtifact exports the per-cell feature table. Fully empty cells
// (no event weight in any category, default road-class penalty, zero
// coverage) are omitted to bound the artifact size.
func WriteGridArtifact(g *grid.Grid, gridStep float64, file string) (int, error) {
	artifact := GridArtifact{
		GridStep: gridStep,
		Cells:    map[string]CellFeatures{},
	}

	for _, cell := range g.Cells {
		if cell.CrashWeight == 0 && cell.CrimeWeight == 0 &&
			cell.RoadClassPenalty == grid.EmptyCellRoadPenalty && cell.BikeCoverage == 0 {
			continue
		}

		latIndex := int(math.Floor(cell.Centroid.Lat() / gridStep))
		lngIndex := int(math.Floor(cell.Centroid.Lon() / gridStep))
		key := fmt.Sprintf("%d,%d", latIndex, lngIndex)

		artifact.Cells[key] = CellFeatures{
			CrashDensity:     round4(cell.CrashDensity),
			CrimeDensity:     round4(cell.CrimeDensity),
			RoadClassPenalty: round4(cell.RoadClassPenalty),
			BikeLanePenalty:  round4(cell.BikeLanePenalty),
			BikeCoverage:     round4(cell.BikeCoverage),
		}
	}

	err := writeJsonFile(file, artifact)
	if err != nil {
		return 0, err
	}

	sigolo.Infof("Exported %d grid cells to %s", len(artifact.Cells), file)
	return len(artifact.Cells), nil
}

// WriteIntersectionsArtifact exports the intersections whose complexity
// exceeds the inclusion threshold, with geographic coordinates rounded to 6
// decimal places.
func WriteIntersectionsArtifact(intersections []intersection.Intersection, proj *projection.Projection, threshold float64, file string) (int, error) {
	// An all-filtered result is an empty list, not null.
	records := []IntersectionRecord{}
	for _, i := range intersections {
		if i.Complexity <= threshold {
			continue
		}

		geographicPoint, err := proj.ToGeographic(i.Point)
		if err != nil {
			return 0, err
		}

		records = append(records, IntersectionRecord{
			ID:           fmt.Sprintf("i_%d", i.NodeID),
			Lng:          round6(geographicPoint.Lon()),
			Lat:          round6(geographicPoint.Lat()),
			Complexity:   round4(i.Complexity),
			CrashCluster: round4(i.CrashCluster),
		})
	}

	err := writeJsonFile(file, records)
	if err != nil {
		return 0, err
	}

	sigolo.Infof("Exported %d intersections to %s", len(records), file)
	return len(records), nil
}

type scoringConfigArtifact struct {
	GridStep      float64              `json:"gridStep"`
	Weights       config.ScoringConfig `json:"weights"`
	Lambda        float64              `json:"intersectionLambda"`
	Normalization struct {
		RouteRawMin float64 `json:"routeRawMin"`
		RouteRawMax float64 `json:"routeRawMax"`
	} `json:"normalization"`
	SearchRadiusDeg float64 `json:"intersectionSearchRadiusDeg"`
}

// WriteScoringConfig exports the scoring constants the downstream route
// scorer applies at consumption time. The aggregation engine itself never
// reads these values.
func WriteScoringConfig(cfg *config.Config, file string) error {
	artifact := scoringConfigArtifact{
		GridStep:        cfg.GridStep,
		Weights:         cfg.Scoring,
		Lambda:          cfg.Scoring.IntersectionLambda,
		SearchRadiusDeg: cfg.Scoring.SearchRadiusDeg,
	}
	artifact.Normalization.RouteRawMin = cfg.Scoring.RouteRawMin
	artifact.Normalization.RouteRawMax = cfg.Scoring.RouteRawMax

	err := writeJsonFile(file, artifact)
	if err != nil {
		return err
	}

	sigolo.Infof("Exported scoring config to %s", file)
	return nil
}

// writeJsonFile marshals the artifact into a temporary file and renames it
// into place.
func writeJsonFile(file string, artifact any) error {
	data, err := json.Marshal(artifact)
	if err != nil {
		return errors.Wrapf(err, "Unable to marshal artifact for %s", file)
	}

	directory := filepath.Dir(file)
	err = os.MkdirAll(directory, os.ModePerm)
	if err != nil {
		return errors.Wrapf(err, "Unable to create artifact directory %s", directory)
	}

	temporaryFile := file + fmt.Sprintf(".tmp-%d", time.Now().UnixNano())
	err = os.WriteFile(temporaryFile, data, 0644)
	if err != nil {
		return errors.Wrapf(err, "Unable to write temporary artifact file %s", temporaryFile)
	}

	err = os.Rename(temporaryFile, file)
	if err != nil {
		os.Remove(temporaryFile)
		return errors.Wrapf(err, "Unable to move artifact into place at %s", file)
	}

	return nil
}

func round4(value float64) float64 {
	return math.Round(value*10000) / 10000
}

func round6(value float64) float64 {
	return math.Round(value*1000000) / 1000000
}
