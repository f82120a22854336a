package projection

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/model"
)

// EPSG returns the EPSG code of the configured UTM zone.
func (p Params) EPSG() int {
	if p.Southern {
		return 32700 + p.Zone
	}
	return 32600 + p.Zone
}

// Normalizer reprojects input geometries into the configured planar zone.
// Malformed geometries are logged and excluded; they never fail the batch.
type Normalizer struct {
	params Params
}

// NewNormalizer validates the zone parameters and returns a Normalizer.
func NewNormalizer(params Params) (*Normalizer, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	return &Normalizer{params: params}, nil
}

// Params returns the projection parameters, for callers that need the
// inverse transform on normalized output.
func (n *Normalizer) Params() Params { return n.params }

// checkSRID rejects geometries declared in anything but geographic WGS84.
// A mismatch is structural, not per-record: the whole batch aborts.
func (n *Normalizer) checkSRID(srid int) error {
	if srid != 0 && srid != SRIDWGS84 {
		return eris.Errorf("projection: cannot resolve spatial reference %d (want %d)", srid, SRIDWGS84)
	}
	return nil
}

// forwardFlat projects flat XY coordinate pairs in place on a copy.
func (n *Normalizer) forwardFlat(flat []float64) ([]float64, bool) {
	out := make([]float64, len(flat))
	for i := 0; i+1 < len(flat); i += 2 {
		lon, lat := flat[i], flat[i+1]
		if math.IsNaN(lon) || math.IsNaN(lat) || math.Abs(lat) > 90 || math.Abs(lon) > 180 {
			return nil, false
		}
		out[i], out[i+1] = n.params.Forward(lon, lat)
	}
	return out, true
}

// NormalizeFacilities reprojects facility points. Facilities with nil or
// malformed locations are dropped; the skipped count is returned.
func (n *Normalizer) NormalizeFacilities(facilities []model.Facility) ([]model.Facility, int, error) {
	out := make([]model.Facility, 0, len(facilities))
	var skipped int
	for _, f := range facilities {
		if f.Location == nil || len(f.Location.FlatCoords()) < 2 {
			skipped++
			zap.L().Warn("projection: facility has no usable location",
				zap.String("facility_id", f.ID))
			continue
		}
		if err := n.checkSRID(f.Location.SRID()); err != nil {
			return nil, skipped, err
		}
		flat, ok := n.forwardFlat(f.Location.FlatCoords())
		if !ok {
			skipped++
			zap.L().Warn("projection: facility location out of geographic range",
				zap.String("facility_id", f.ID))
			continue
		}
		f.Location = geom.NewPointFlat(geom.XY, flat).SetSRID(n.params.EPSG())
		out = append(out, f)
	}
	return out, skipped, nil
}

// NormalizeRegions reprojects region boundaries and derives the planar
// centroid and area. Regions with malformed boundaries are dropped.
func (n *Normalizer) NormalizeRegions(regions []model.Region) ([]model.Region, int, error) {
	out := make([]model.Region, 0, len(regions))
	var skipped int
	for _, r := range regions {
		if r.Boundary == nil || r.Boundary.NumPolygons() == 0 {
			skipped++
			zap.L().Warn("projection: region has no boundary", zap.String("region", r.Name))
			continue
		}
		if err := n.checkSRID(r.Boundary.SRID()); err != nil {
			return nil, skipped, err
		}
		flat, ok := n.forwardFlat(r.Boundary.FlatCoords())
		if !ok {
			skipped++
			zap.L().Warn("projection: region boundary out of geographic range",
				zap.String("region", r.Name))
			continue
		}
		mp := geom.NewMultiPolygonFlat(geom.XY, flat, r.Boundary.Endss()).SetSRID(n.params.EPSG())
		r.Boundary = mp

		centroid, err := xy.Centroid(mp)
		if err != nil {
			skipped++
			zap.L().Warn("projection: region centroid failed",
				zap.String("region", r.Name), zap.Error(err))
			continue
		}
		r.Centroid = centroid

		area := mp.Area() / 1e6 // m^2 -> km^2
		if area > 0 {
			r.AreaKM2 = model.DefinedMetric(area)
		} else {
			r.AreaKM2 = model.UndefinedMetric()
		}
		out = append(out, r)
	}
	return out, skipped, nil
}

// NormalizeRoads reprojects road line geometries. Malformed segments are
// dropped with a warning.
func (n *Normalizer) NormalizeRoads(roads []model.RoadSegment) ([]model.RoadSegment, int, error) {
	out := make([]model.RoadSegment, 0, len(roads))
	var skipped int
	for _, rd := range roads {
		if rd.Geometry == nil || rd.Geometry.NumLineStrings() == 0 {
			skipped++
			zap.L().Warn("projection: road has no geometry", zap.String("road_id", rd.ID))
			continue
		}
		if err := n.checkSRID(rd.Geometry.SRID()); err != nil {
			return nil, skipped, err
		}
		flat, ok := n.forwardFlat(rd.Geometry.FlatCoords())
		if !ok {
			skipped++
			zap.L().Warn("projection: road geometry out of geographic range",
				zap.String("road_id", rd.ID))
			continue
		}
		rd.Geometry = geom.NewMultiLineStringFlat(geom.XY, flat, rd.Geometry.Ends()).SetSRID(n.params.EPSG())
		out = append(out, rd)
	}
	return out, skipped, nil
}

// NormalizeBoundary reprojects a single state boundary polygon.
func (n *Normalizer) NormalizeBoundary(boundary *geom.MultiPolygon) (*geom.MultiPolygon, error) {
	if boundary == nil || boundary.NumPolygons() == 0 {
		return nil, eris.New("projection: empty state boundary")
	}
	if err := n.checkSRID(boundary.SRID()); err != nil {
		return nil, err
	}
	flat, ok := n.forwardFlat(boundary.FlatCoords())
	if !ok {
		return nil, eris.New("projection: state boundary out of geographic range")
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, boundary.Endss()).SetSRID(n.params.EPSG()), nil
}
