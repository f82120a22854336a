// Package spatial assigns facilities to enclosing regions and resolves
// nearest-feature lookups. All inputs must already be normalized to one
// planar reference; distances are Euclidean meters.
package spatial

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/model"
)

// RoadHit is the result of a nearest-road search.
type RoadHit struct {
	RoadID    string
	DistanceM float64
}

// FacilityHit is the result of a nearest-facility search.
type FacilityHit struct {
	FacilityID string
	DistanceM  float64
}

// Contains reports whether the multipolygon contains the point: inside the
// exterior ring of some polygon and outside all of that polygon's holes.
func Contains(mp *geom.MultiPolygon, pt geom.Coord) bool {
	if mp == nil {
		return false
	}
	for i := 0; i < mp.NumPolygons(); i++ {
		poly := mp.Polygon(i)
		if poly.NumLinearRings() == 0 {
			continue
		}
		if !xy.IsPointInRing(poly.Layout(), pt, poly.LinearRing(0).FlatCoords()) {
			continue
		}
		inHole := false
		for r := 1; r < poly.NumLinearRings(); r++ {
			if xy.IsPointInRing(poly.Layout(), pt, poly.LinearRing(r).FlatCoords()) {
				inHole = true
				break
			}
		}
		if !inHole {
			return true
		}
	}
	return false
}

// AssignRegion returns the index of the single region whose boundary contains
// the facility point. Zero or multiple containing regions is degenerate
// boundary data: the facility stays unassigned and a data-quality warning is
// logged, the batch continues.
func AssignRegion(f model.Facility, regions []model.Region) (int, bool) {
	if f.Location == nil {
		return 0, false
	}
	pt := geom.Coord(f.Location.FlatCoords()[:2])

	match := -1
	for i := range regions {
		if !Contains(regions[i].Boundary, pt) {
			continue
		}
		if match >= 0 {
			zap.L().Warn("spatial: facility inside multiple regions",
				zap.String("facility_id", f.ID),
				zap.String("region_a", regions[match].Name),
				zap.String("region_b", regions[i].Name),
			)
			return 0, false
		}
		match = i
	}
	if match < 0 {
		zap.L().Warn("spatial: facility outside all regions",
			zap.String("facility_id", f.ID))
		return 0, false
	}
	return match, true
}

// distanceToRoad returns the minimum distance from pt to any linestring of
// the road geometry.
func distanceToRoad(pt geom.Coord, road model.RoadSegment) float64 {
	min := math.Inf(1)
	for i := 0; i < road.Geometry.NumLineStrings(); i++ {
		ls := road.Geometry.LineString(i)
		d := xy.DistanceFromPointToLineString(ls.Layout(), pt, ls.FlatCoords())
		if d < min {
			min = d
		}
	}
	return min
}

// NearestRoad finds the closest road of the given category within maxDistM of
// the facility. Roads of other categories are never substituted; if nothing
// of the category is in range the result is nil. Ties keep the
// first-encountered road so output is deterministic.
func NearestRoad(f model.Facility, roads []model.RoadSegment, category string, maxDistM float64) *RoadHit {
	if f.Location == nil {
		return nil
	}
	pt := geom.Coord(f.Location.FlatCoords()[:2])

	var hit *RoadHit
	for i := range roads {
		if roads[i].Category != category || roads[i].Geometry == nil {
			continue
		}
		d := distanceToRoad(pt, roads[i])
		if d > maxDistM {
			continue
		}
		if hit == nil || d < hit.DistanceM {
			hit = &RoadHit{RoadID: roads[i].ID, DistanceM: d}
		}
	}
	return hit
}

// NearestFacility finds the facility closest to a region centroid, with no
// category or distance restriction. Returns nil only when the facility list
// is empty.
func NearestFacility(centroid geom.Coord, facilities []model.Facility) *FacilityHit {
	var hit *FacilityHit
	for i := range facilities {
		if facilities[i].Location == nil {
			continue
		}
		c := facilities[i].Location.FlatCoords()
		d := math.Hypot(c[0]-centroid[0], c[1]-centroid[1])
		if hit == nil || d < hit.DistanceM {
			hit = &FacilityHit{FacilityID: facilities[i].ID, DistanceM: d}
		}
	}
	return hit
}
