package penalty

import (
	"strings"
)

// DefaultRoadClass is the penalty for unknown or missing road-class tags.
const DefaultRoadClass = 0.35

// DefaultBikeInfra is the penalty for segments without any bike
// infrastructure tag. No tag means assume poor infrastructure, not absent
// infrastructure.
const DefaultBikeInfra = 0.8

// roadClassPenalties maps a road-class tag to a severity-for-cycling penalty.
// Fast roads are the most dangerous ones, dedicated cycle infrastructure the
// least dangerous.
var roadClassPenalties = map[string]float64{
	"motorway":       1.0,
	"motorway_link":  1.0,
	"trunk":          1.0,
	"trunk_link":     1.0,
	"primary":        1.0,
	"primary_link":   1.0,
	"secondary":      0.75,
	"secondary_link": 0.75,
	"tertiary":       0.55,
	"tertiary_link":  0.55,
	"residential":    0.25,
	"unclassified":   0.25,
	"service":        0.1,
	"living_street":  0.1,
	"cycleway":       0.05,
	"path":           0.05,
	"track":          0.15,
	"pedestrian":     0.1,
	"footway":        0.1,
	"steps":          0.15,
}

// majorRoadClasses contains the road classes counting as major roads for the
// intersection complexity score.
var majorRoadClasses = map[string]struct{}{
	"motorway":      {},
	"motorway_link": {},
	"trunk":         {},
	"trunk_link":    {},
	"primary":       {},
	"primary_link":  {},
}

// FirstValue normalizes a possibly multi-valued tag (OSM uses semicolons for
// multi-digitized tagging) to its first value. An empty tag stays empty.
func FirstValue(rawTag string) string {
	if rawTag == "" {
		return ""
	}
	separatorIndex := strings.IndexByte(rawTag, ';')
	if separatorIndex == -1 {
		return strings.TrimSpace(rawTag)
	}
	return strings.TrimSpace(rawTag[:separatorIndex])
}

// RoadClass maps a road-class tag to a penalty in [0,1]. Multi-valued tags
// are reduced to their first value, unknown and missing tags get a moderate
// default.
func RoadClass(rawTag string) float64 {
	if p, ok := roadClassPenalties[FirstValue(rawTag)]; ok {
		return p
	}
	return DefaultRoadClass
}

// IsMajor determines whether the given road-class tag belongs to the fixed
// set of major road classes.
func IsMajor(rawTag string) bool {
	_, ok := majorRoadClasses[FirstValue(rawTag)]
	return ok
}

// BikeInfra maps the bike-infrastructure tag values of a segment (the
// general cycleway tag plus its left/right/both variants) to a penalty in
// [0,1]. Matching is case-insensitive over the joined tag values, the first
// matching rule wins.
func BikeInfra(rawTags []string) float64 {
	var values []string
	for _, rawTag := range rawTags {
		if rawTag != "" {
			values = append(values, strings.ToLower(rawTag))
		}
	}

	joined := strings.Join(values, " ")
	if joined == "" {
		return DefaultBikeInfra
	}
	if strings.Contains(joined, "track") || strings.Contains(joined, "separate") {
		return 0.05
	}
	if strings.Contains(joined, "lane") && !strings.Contains(joined, "shared") {
		return 0.3
	}
	if strings.Contains(joined, "shared_lane") || strings.Contains(joined, "share_busway") {
		return 0.7
	}
	if strings.Contains(joined, "no") {
		return 1.0
	}
	return DefaultBikeInfra
}
