// Package model defines the input and output records of the accessibility
// scoring pipeline. Facilities, regions, roads, and population counts are
// immutable inputs owned by the data store; RegionMetrics and tiers are
// recomputed fresh on every run.
package model

import (
	"time"

	"github.com/twpayne/go-geom"
)

// Emergency is the tri-state emergency-service flag carried by a facility.
type Emergency string

// Emergency flag values. Anything that is not an affirmative yes counts
// against coverage, so unrecognized tags collapse to unknown.
const (
	EmergencyYes     Emergency = "yes"
	EmergencyNo      Emergency = "no"
	EmergencyUnknown Emergency = "unknown"
)

// ParseEmergency maps a raw tag value to the tri-state flag.
func ParseEmergency(raw string) Emergency {
	switch raw {
	case "yes":
		return EmergencyYes
	case "no":
		return EmergencyNo
	default:
		return EmergencyUnknown
	}
}

// Facility is a point-located healthcare establishment.
type Facility struct {
	ID        string     `json:"id"`
	Name      string     `json:"name,omitempty"`
	Type      string     `json:"type"`
	District  string     `json:"district,omitempty"`
	Emergency Emergency  `json:"emergency"`
	Location  *geom.Point `json:"-"`
}

// Region is an administrative boundary polygon used as the unit of
// aggregation. Centroid and AreaKM2 are derived after normalization.
type Region struct {
	Name     string             `json:"name"`
	Boundary *geom.MultiPolygon `json:"-"`
	Centroid geom.Coord         `json:"-"`
	AreaKM2  Metric             `json:"area_km2"`
}

// RoadSegment is a categorized line feature.
type RoadSegment struct {
	ID       string                `json:"id"`
	Name     string                `json:"name,omitempty"`
	Category string                `json:"category"`
	Geometry *geom.MultiLineString `json:"-"`
}

// PopulationRecord carries the static headcount for one district. Population
// is an external input, never derived.
type PopulationRecord struct {
	District   string `json:"district"`
	Population int64  `json:"population"`
}

// RegionMetrics holds the per-region aggregates computed by one pipeline run.
type RegionMetrics struct {
	Region               string            `json:"region"`
	Population           Metric            `json:"population"`
	FacilityCount        int               `json:"facility_count"`
	FacilityCountByType  map[string]int    `json:"facility_count_by_type"`
	DensityPerKM2        Metric            `json:"density_per_km2"`
	PopulationPerFacility Metric           `json:"population_per_facility"`
	FacilitiesPer100K    Metric            `json:"facilities_per_100k"`
	EmergencyCoveragePct Metric            `json:"emergency_coverage_pct"`
	AvgRoadDistanceM     map[string]Metric `json:"avg_road_distance_m"`
	NearestFacilityID    string            `json:"nearest_facility_id,omitempty"`
	NearestFacilityDistM Metric            `json:"nearest_facility_dist_m"`
}

// AccessTier labels a region's relative accessibility.
type AccessTier string

// Access tiers ordered from best to worst.
const (
	TierGood    AccessTier = "Good"
	TierAverage AccessTier = "Average"
	TierPoor    AccessTier = "Poor"
)

// ClassifiedRegion pairs computed metrics with the assigned tier.
type ClassifiedRegion struct {
	RegionMetrics
	Tier AccessTier `json:"tier"`
}

// RunStatus tracks a persisted pipeline run.
type RunStatus string

// Run lifecycle states.
const (
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunFailed    RunStatus = "failed"
)

// Run is the persisted record of one pipeline execution.
type Run struct {
	ID          string             `json:"id"`
	Status      RunStatus          `json:"status"`
	MeanRatio   Metric             `json:"mean_ratio"`
	RegionCount int                `json:"region_count"`
	Warnings    map[string]int     `json:"warnings,omitempty"`
	Results     []ClassifiedRegion `json:"results,omitempty"`
	StartedAt   time.Time          `json:"started_at"`
	FinishedAt  time.Time          `json:"finished_at"`
}
