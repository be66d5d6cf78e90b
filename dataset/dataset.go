// Package dataset loads the raw point-event datasets (collisions and street
// crimes) and turns them into severity-weighted planar events. Records
// without usable coordinates are dropped, they never abort a run.
package dataset

import (
	"encoding/csv"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/hauke96/sigolo/v2"
	"github.com/paulmach/orb"
	"github.com/pkg/errors"

	"riskgrid/projection"
)

// Category is an enum for the supported point-event categories.
type Category int

const (
	CategoryCrash Category = iota
	CategoryCrime
)

func (c Category) String() string {
	switch c {
	case CategoryCrash:
		return "crash"
	case CategoryCrime:
		return "crime"
	}
	return "unknown"
}

// Event is one immutable point event in planar coordinates with its severity
// weight.
type Event struct {
	Point  orb.Point
	Weight float64
}

// crimeSeverities maps offense descriptions to severity weights. Offenses
// not in this table get a weight of 0.5.
var crimeSeverities = map[string]float64{
	"ROBBERY":                        2.5,
	"FELONY ASSAULT":                 2.0,
	"ASSAULT 3 & RELATED OFFENSES":   1.5,
	"GRAND LARCENY":                  1.0,
	"GRAND LARCENY OF MOTOR VEHICLE": 0.8,
	"BURGLARY":                       0.8,
}

const defaultCrimeSeverity = 0.5

// LoadCrashes reads the collision CSV file, filters it to records with valid
// coordinates and cyclist involvement and assigns severity weights based on
// the injury and fatality counts.
func LoadCrashes(file string, proj *projection.Projection) ([]Event, error) {
	sigolo.Infof("Load crash data from %s", file)
	loadStartTime := time.Now()

	rows, header, closeFile, err := openCsv(file)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	latColumn := header.index("LATITUDE")
	lonColumn := header.index("LONGITUDE")
	if latColumn == -1 || lonColumn == -1 {
		return nil, errors.Errorf("Crash file %s has no LATITUDE/LONGITUDE columns", file)
	}

	injuredColumn := header.index("NUMBER OF CYCLIST INJURED")
	killedColumn := header.index("NUMBER OF CYCLIST KILLED")
	filterToCyclists := injuredColumn != -1 && killedColumn != -1
	if !filterToCyclists {
		sigolo.Warn("Crash file has no cyclist involvement columns, keeping all records")
	}

	var events []Event
	droppedRecords := 0
	for {
		record, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read record from crash file %s", file)
		}

		point, ok := parseCoordinate(record, lonColumn, latColumn)
		if !ok {
			droppedRecords++
			continue
		}

		injured := parseCount(record, injuredColumn)
		killed := parseCount(record, killedColumn)
		if filterToCyclists && injured == 0 && killed == 0 {
			droppedRecords++
			continue
		}

		weight := 1.0
		if injured > 0 {
			weight += 1.0
		}
		if killed > 0 {
			weight += 4.0
		}

		planarPoint, err := proj.ToPlanar(point)
		if err != nil {
			return nil, err
		}

		events = append(events, Event{Point: planarPoint, Weight: weight})
	}

	sigolo.Infof("Loaded %d crash events (%d records dropped) in %s", len(events), droppedRecords, time.Since(loadStartTime))
	return events, nil
}

// LoadCrimes reads the street-crime CSV file and assigns severity weights
// via the offense-description lookup table.
func LoadCrimes(file string, proj *projection.Projection) ([]Event, error) {
	sigolo.Infof("Load crime data from %s", file)
	loadStartTime := time.Now()

	rows, header, closeFile, err := openCsv(file)
	if err != nil {
		return nil, err
	}
	defer closeFile()

	latColumn := header.index("LATITUDE")
	lonColumn := header.index("LONGITUDE")
	if latColumn == -1 || lonColumn == -1 {
		return nil, errors.Errorf("Crime file %s has no LATITUDE/LONGITUDE columns", file)
	}

	offenseColumn := header.index("OFNS_DESC")
	if offenseColumn == -1 {
		sigolo.Warn("Crime file has no offense description column, all crimes get weight 1.0")
	}

	var events []Event
	droppedRecords := 0
	for {
		record, err := rows.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "Unable to read record from crime file %s", file)
		}

		point, ok := parseCoordinate(record, lonColumn, latColumn)
		if !ok {
			droppedRecords++
			continue
		}

		weight := 1.0
		if offenseColumn != -1 {
			offense := strings.ToUpper(strings.TrimSpace(record[offenseColumn]))
			if severity, ok := crimeSeverities[offense]; ok {
				weight = severity
			} else {
				weight = defaultCrimeSeverity
			}
		}

		planarPoint, err := proj.ToPlanar(point)
		if err != nil {
			return nil, err
		}

		events = append(events, Event{Point: planarPoint, Weight: weight})
	}

	sigolo.Infof("Loaded %d crime events (%d records dropped) in %s", len(events), droppedRecords, time.Since(loadStartTime))
	return events, nil
}

// TotalWeight sums the severity weights of the given events.
func TotalWeight(events []Event) float64 {
	sum := 0.0
	for _, event := range events {
		sum += event.Weight
	}
	return sum
}

type csvHeader map[string]int

func (h csvHeader) index(column string) int {
	if i, ok := h[column]; ok {
		return i
	}
	return -1
}

func openCsv(file string) (*csv.Reader, csvHeader, func(), error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, nil, nil, errors.Wrapf(err, "Unable to open dataset file %s", file)
	}

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	headerRecord, err := reader.Read()
	if err != nil {
		f.Close()
		return nil, nil, nil, errors.Wrapf(err, "Unable to read header of dataset file %s", file)
	}

	header := csvHeader{}
	for i, column := range headerRecord {
		header[strings.ToUpper(strings.TrimSpace(column))] = i
	}

	return reader, header, func() { f.Close() }, nil
}

// parseCoordinate returns the geographic point of a record. Records with
// missing, malformed, zero or non-finite coordinates are not usable.
func parseCoordinate(record []string, lonColumn int, latColumn int) (orb.Point, bool) {
	if lonColumn >= len(record) || latColumn >= len(record) {
		return orb.Point{}, false
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(record[lonColumn]), 64)
	if err != nil {
		return orb.Point{}, false
	}
	lat, err := strconv.ParseFloat(strings.TrimSpace(record[latColumn]), 64)
	if err != nil {
		return orb.Point{}, false
	}

	if lon == 0 || lat == 0 || math.IsNaN(lon) || math.IsNaN(lat) || math.IsInf(lon, 0) || math.IsInf(lat, 0) {
		return orb.Point{}, false
	}

	return orb.Point{lon, lat}, true
}

func parseCount(record []string, column int) int {
	if column == -1 || column >= len(record) {
		return 0
	}
	count, err := strconv.Atoi(strings.TrimSpace(record[column]))
	if err != nil {
		return 0
	}
	return count
}
