package config

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds all constants of the aggregation engine. Values are fixed for
// a run; they are validated once before any aggregation work starts.
type Config struct {
	// CellSize is the side length of a grid cell in meters (planar CRS).
	CellSize float64 `yaml:"cellSize"`
	// PaddingCells is the number of cell widths added to each side of the
	// point-event extent when building the grid.
	PaddingCells int `yaml:"paddingCells"`
	// CrashRadius is the search radius in meters around an intersection
	// within which crash mass is summed.
	CrashRadius float64 `yaml:"crashRadius"`
	// Percentile used to clip heavy-tailed weight distributions.
	Percentile float64 `yaml:"percentile"`
	// PercentileFloor is the lower bound of the normalization denominator.
	// It assumes severity-weighted counts as the weight unit.
	PercentileFloor float64 `yaml:"percentileFloor"`
	// GridStep is the quantization step in degrees for the exported cell
	// lookup keys.
	GridStep float64 `yaml:"gridStep"`
	// ComplexityThreshold filters the exported intersections.
	ComplexityThreshold float64 `yaml:"complexityThreshold"`

	// Composite intersection score weights.
	DegreeWeight  float64 `yaml:"degreeWeight"`
	MajorWeight   float64 `yaml:"majorWeight"`
	ClusterWeight float64 `yaml:"clusterWeight"`

	// PlanarProj is the proj4 definition of the local meter-based CRS all
	// distance and area computations happen in.
	PlanarProj string `yaml:"planarProj"`

	// Workers is the number of goroutines used for the segment aggregation.
	Workers int `yaml:"workers"`

	Scoring ScoringConfig `yaml:"scoring"`
}

// ScoringConfig is passed through to the downstream route scorer as its own
// artifact. The engine itself does not use these values.
type ScoringConfig struct {
	CrashDensityWeight      float64 `yaml:"crashDensityWeight" json:"crashDensity"`
	CrimeDensityWeight      float64 `yaml:"crimeDensityWeight" json:"crimeDensity"`
	RoadClassPenaltyWeight  float64 `yaml:"roadClassPenaltyWeight" json:"roadClassPenalty"`
	BikeLanePenaltyWeight   float64 `yaml:"bikeLanePenaltyWeight" json:"bikeLanePenalty"`
	ContinuityPenaltyWeight float64 `yaml:"continuityPenaltyWeight" json:"continuityPenalty"`
	IntersectionLambda      float64 `yaml:"intersectionLambda" json:"-"`
	RouteRawMin             float64 `yaml:"routeRawMin" json:"-"`
	RouteRawMax             float64 `yaml:"routeRawMax" json:"-"`
	SearchRadiusDeg         float64 `yaml:"searchRadiusDeg" json:"-"`
}

// Default returns the reference configuration of the engine. The planar CRS
// is a conformal conic projection centered on the study region, so planar
// units are meters.
func Default() *Config {
	return &Config{
		CellSize:            200,
		PaddingCells:        5,
		CrashRadius:         30,
		Percentile:          0.95,
		PercentileFloor:     1.0,
		GridStep:            0.002,
		ComplexityThreshold: 0.3,
		DegreeWeight:        0.5,
		MajorWeight:         0.3,
		ClusterWeight:       0.2,
		PlanarProj:          "+proj=lcc +lat_1=40.5 +lat_2=41.0 +lat_0=40.7 +lon_0=-74.0 +x_0=0 +y_0=0 +ellps=GRS80 +units=m +no_defs",
		Workers:             4,
		Scoring: ScoringConfig{
			CrashDensityWeight:      0.35,
			CrimeDensityWeight:      0.15,
			RoadClassPenaltyWeight:  0.22,
			BikeLanePenaltyWeight:   0.22,
			ContinuityPenaltyWeight: 0.06,
			IntersectionLambda:      0.08,
			RouteRawMin:             0.05,
			RouteRawMax:             2.50,
			SearchRadiusDeg:         0.0003,
		},
	}
}

// Load reads the given YAML file and merges it over the default
// configuration.
func Load(file string) (*Config, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to read config file %s", file)
	}

	config := Default()
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, errors.Wrapf(err, "Unable to parse config file %s", file)
	}

	return config, nil
}

// Validate checks the configuration for values no aggregation pass can work
// with. It must be called before any stage runs.
func (c *Config) Validate() error {
	if c.CellSize <= 0 {
		return errors.Errorf("Cell size must be positive but was %f", c.CellSize)
	}
	if c.PaddingCells < 0 {
		return errors.Errorf("Padding must not be negative but was %d", c.PaddingCells)
	}
	if c.CrashRadius <= 0 {
		return errors.Errorf("Crash radius must be positive but was %f", c.CrashRadius)
	}
	if c.Percentile <= 0 || c.Percentile >= 1 {
		return errors.Errorf("Percentile must be within (0,1) but was %f", c.Percentile)
	}
	if c.PercentileFloor <= 0 {
		return errors.Errorf("Percentile floor must be positive but was %f", c.PercentileFloor)
	}
	if c.GridStep <= 0 {
		return errors.Errorf("Grid step must be positive but was %f", c.GridStep)
	}
	if c.ComplexityThreshold < 0 || c.ComplexityThreshold >= 1 {
		return errors.Errorf("Complexity threshold must be within [0,1) but was %f", c.ComplexityThreshold)
	}
	if c.DegreeWeight < 0 || c.MajorWeight < 0 || c.ClusterWeight < 0 {
		return errors.Errorf("Score weights must not be negative (degree=%f, major=%f, cluster=%f)", c.DegreeWeight, c.MajorWeight, c.ClusterWeight)
	}
	if c.PlanarProj == "" {
		return errors.Errorf("Planar projection must not be empty")
	}
	if c.Workers < 1 {
		return errors.Errorf("Worker count must be at least 1 but was %d", c.Workers)
	}
	return nil
}
