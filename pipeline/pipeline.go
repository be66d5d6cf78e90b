// Package pipeline runs the full batch pass: load datasets and network,
// build and fill the grid, score the intersections and export the
// artifacts. Each stage requires the complete output of the previous one,
// global normalization in particular cannot run on partial aggregates.
package pipeline

import (
	"os"
	"path/filepath"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/pkg/errors"

	"riskgrid/config"
	"riskgrid/dataset"
	"riskgrid/export"
	"riskgrid/grid"
	"riskgrid/intersection"
	"riskgrid/network"
	"riskgrid/projection"
)

const (
	GridArtifactFile          = "risk_grid.json"
	IntersectionsArtifactFile = "intersections.json"
	ScoringConfigArtifactFile = "scoring_config.json"
)

// Options are the input and output locations of one engine run.
type Options struct {
	CrashFile   string
	CrimeFile   string // optional, missing crime data yields zero crime weights
	NetworkFile string
	OutputDir   string
	GeoJsonFile string // optional debug dump of the grid
}

// Run executes the whole aggregation pass. Configuration and input files
// are validated up front, no stage starts on inputs that cannot work.
func Run(options Options, cfg *config.Config) error {
	err := cfg.Validate()
	if err != nil {
		return errors.Wrap(err, "Invalid engine configuration")
	}

	if _, err := os.Stat(options.CrashFile); err != nil {
		return errors.Errorf("Crash dataset %s is missing, run the crash download stage first", options.CrashFile)
	}
	if _, err := os.Stat(options.NetworkFile); err != nil {
		return errors.Errorf("Street network %s is missing, run the network extraction stage first", options.NetworkFile)
	}

	sigolo.Info("Start risk grid build")
	runStartTime := time.Now()

	proj, err := projection.New(cfg.PlanarProj)
	if err != nil {
		return err
	}

	crashes, err := dataset.LoadCrashes(options.CrashFile, proj)
	if err != nil {
		return err
	}

	var crimes []dataset.Event
	if options.CrimeFile != "" {
		if _, err := os.Stat(options.CrimeFile); err == nil {
			crimes, err = dataset.LoadCrimes(options.CrimeFile, proj)
			if err != nil {
				return err
			}
		} else {
			sigolo.Warnf("No crime data at %s, crime densities will be zero", options.CrimeFile)
		}
	}

	net, err := network.Load(options.NetworkFile, proj)
	if err != nil {
		return err
	}

	riskGrid := grid.Build([][]dataset.Event{crashes, crimes}, cfg.CellSize, cfg.PaddingCells)
	riskGrid.AggregatePoints(dataset.CategoryCrash, crashes)
	riskGrid.AggregatePoints(dataset.CategoryCrime, crimes)
	riskGrid.AggregateSegments(net.Segments, cfg.Workers)
	riskGrid.Normalize(cfg.Percentile, cfg.PercentileFloor)

	err = riskGrid.ComputeCentroids(proj)
	if err != nil {
		return err
	}

	intersections := intersection.Score(net, crashes, cfg)

	_, err = export.WriteGridArtifact(riskGrid, cfg.GridStep, filepath.Join(options.OutputDir, GridArtifactFile))
	if err != nil {
		return err
	}

	_, err = export.WriteIntersectionsArtifact(intersections, proj, cfg.ComplexityThreshold, filepath.Join(options.OutputDir, IntersectionsArtifactFile))
	if err != nil {
		return err
	}

	err = export.WriteScoringConfig(cfg, filepath.Join(options.OutputDir, ScoringConfigArtifactFile))
	if err != nil {
		return err
	}

	if options.GeoJsonFile != "" {
		file, err := os.Create(options.GeoJsonFile)
		if err != nil {
			return errors.Wrapf(err, "Unable to create GeoJSON file %s", options.GeoJsonFile)
		}
		err = export.WriteGridAsGeoJson(riskGrid, proj, file)
		closeErr := file.Close()
		if err != nil {
			return err
		}
		if closeErr != nil {
			return errors.Wrapf(closeErr, "Unable to close GeoJSON file %s", options.GeoJsonFile)
		}
	}

	sigolo.Infof("Finished risk grid build in %s", time.Since(runStartTime))
	return nil
}
