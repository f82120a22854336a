package ingest

import (
	"strconv"
	"strings"

	"github.com/jonas-p/go-shp"
	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/arogyamap/access-cli/internal/model"
	"github.com/arogyamap/access-cli/internal/projection"
)

// attrReader maps lowercased DBF field names to indexes for one shapefile.
type attrReader struct {
	reader   *shp.Reader
	fieldIdx map[string]int
}

func newAttrReader(reader *shp.Reader) *attrReader {
	fields := reader.Fields()
	idx := make(map[string]int, len(fields))
	for i, f := range fields {
		name := strings.TrimRight(f.String(), "\x00")
		idx[strings.ToLower(name)] = i
	}
	return &attrReader{reader: reader, fieldIdx: idx}
}

func (a *attrReader) get(field string) string {
	i, ok := a.fieldIdx[strings.ToLower(field)]
	if !ok {
		return ""
	}
	val := strings.TrimRight(a.reader.Attribute(i), "\x00")
	return strings.TrimSpace(val)
}

// pointToGeom converts a shapefile point to a WGS84 go-geom point.
func pointToGeom(s *shp.Point) *geom.Point {
	if s == nil {
		return nil
	}
	return geom.NewPointFlat(geom.XY, []float64{s.X, s.Y}).SetSRID(projection.SRIDWGS84)
}

// polyLineToGeom converts a shapefile polyline to a WGS84 multilinestring.
// Returns nil for empty or malformed shapes.
func polyLineToGeom(pl *shp.PolyLine) *geom.MultiLineString {
	if pl == nil || pl.NumParts == 0 || len(pl.Points) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(pl.Points)*2)
	ends := make([]int, 0, pl.NumParts)
	for i := int32(0); i < pl.NumParts; i++ {
		start := pl.Parts[i]
		end := int32(len(pl.Points))
		if i+1 < pl.NumParts {
			end = pl.Parts[i+1]
		}
		if end <= start {
			continue
		}
		for j := start; j < end; j++ {
			flat = append(flat, pl.Points[j].X, pl.Points[j].Y)
		}
		ends = append(ends, len(flat))
	}
	if len(ends) == 0 {
		return nil
	}
	return geom.NewMultiLineStringFlat(geom.XY, flat, ends).SetSRID(projection.SRIDWGS84)
}

// polygonToGeom converts a shapefile polygon to a WGS84 multipolygon. Each
// part becomes a single-ring polygon; hole association is left to the data
// producer, matching how district boundary extracts are published.
func polygonToGeom(p *shp.Polygon) *geom.MultiPolygon {
	if p == nil || p.NumParts == 0 || len(p.Points) == 0 {
		return nil
	}
	flat := make([]float64, 0, len(p.Points)*2)
	endss := make([][]int, 0, p.NumParts)
	for i := int32(0); i < p.NumParts; i++ {
		start := p.Parts[i]
		end := int32(len(p.Points))
		if i+1 < p.NumParts {
			end = p.Parts[i+1]
		}
		if end <= start {
			continue
		}
		for j := start; j < end; j++ {
			flat = append(flat, p.Points[j].X, p.Points[j].Y)
		}
		endss = append(endss, []int{len(flat)})
	}
	if len(endss) == 0 {
		return nil
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss).SetSRID(projection.SRIDWGS84)
}

// FacilityFields names the DBF attributes a facility shapefile carries.
type FacilityFields struct {
	ID        string // default "osm_id"
	Name      string // default "name"
	Type      string // default "amenity"
	District  string // default "district"
	Emergency string // default "emergency"
}

func (f *FacilityFields) applyDefaults() {
	if f.ID == "" {
		f.ID = "osm_id"
	}
	if f.Name == "" {
		f.Name = "name"
	}
	if f.Type == "" {
		f.Type = "amenity"
	}
	if f.District == "" {
		f.District = "district"
	}
	if f.Emergency == "" {
		f.Emergency = "emergency"
	}
}

// ReadFacilities decodes a point shapefile into facility records. Records
// with unsupported or missing shapes are skipped with a warning.
func ReadFacilities(shpPath string, fields FacilityFields) ([]model.Facility, error) {
	fields.applyDefaults()

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	attrs := newAttrReader(reader)
	var facilities []model.Facility
	var skipped int
	for i := 0; reader.Next(); i++ {
		_, shape := reader.Shape()
		pt, ok := shape.(*shp.Point)
		if !ok || pt == nil {
			skipped++
			continue
		}
		id := attrs.get(fields.ID)
		if id == "" {
			id = "facility-" + strconv.Itoa(i)
		}
		facilities = append(facilities, model.Facility{
			ID:        id,
			Name:      attrs.get(fields.Name),
			Type:      attrs.get(fields.Type),
			District:  attrs.get(fields.District),
			Emergency: model.ParseEmergency(attrs.get(fields.Emergency)),
			Location:  pointToGeom(pt),
		})
	}
	if skipped > 0 {
		zap.L().Warn("ingest: skipped non-point facility records",
			zap.String("path", shpPath), zap.Int("skipped", skipped))
	}
	return facilities, nil
}

// ReadRegions decodes a polygon shapefile into region records. nameField
// defaults to "district".
func ReadRegions(shpPath, nameField string) ([]model.Region, error) {
	if nameField == "" {
		nameField = "district"
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	attrs := newAttrReader(reader)
	var regions []model.Region
	var skipped int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			skipped++
			continue
		}
		boundary := polygonToGeom(poly)
		name := attrs.get(nameField)
		if boundary == nil || name == "" {
			skipped++
			continue
		}
		regions = append(regions, model.Region{Name: name, Boundary: boundary})
	}
	if skipped > 0 {
		zap.L().Warn("ingest: skipped malformed region records",
			zap.String("path", shpPath), zap.Int("skipped", skipped))
	}
	return regions, nil
}

// ReadRoads decodes a polyline shapefile, keeping only roads whose category
// attribute is in the designated set.
func ReadRoads(shpPath, categoryField string, categories []string) ([]model.RoadSegment, error) {
	if categoryField == "" {
		categoryField = "highway"
	}
	allowed := make(map[string]bool, len(categories))
	for _, c := range categories {
		allowed[c] = true
	}

	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	attrs := newAttrReader(reader)
	var roads []model.RoadSegment
	var skipped int
	for i := 0; reader.Next(); i++ {
		_, shape := reader.Shape()
		pl, ok := shape.(*shp.PolyLine)
		if !ok {
			skipped++
			continue
		}
		category := attrs.get(categoryField)
		if len(allowed) > 0 && !allowed[category] {
			continue
		}
		g := polyLineToGeom(pl)
		if g == nil {
			skipped++
			continue
		}
		id := attrs.get("osm_id")
		if id == "" {
			id = "road-" + strconv.Itoa(i)
		}
		roads = append(roads, model.RoadSegment{
			ID:       id,
			Name:     attrs.get("name"),
			Category: category,
			Geometry: g,
		})
	}
	if skipped > 0 {
		zap.L().Warn("ingest: skipped malformed road records",
			zap.String("path", shpPath), zap.Int("skipped", skipped))
	}
	return roads, nil
}

// ReadBoundary decodes a state boundary shapefile, merging all polygon
// records into one multipolygon.
func ReadBoundary(shpPath string) (*geom.MultiPolygon, error) {
	reader, err := shp.Open(shpPath)
	if err != nil {
		return nil, eris.Wrapf(err, "ingest: open shapefile %s", shpPath)
	}
	defer func() { _ = reader.Close() }()

	var flat []float64
	var endss [][]int
	for reader.Next() {
		_, shape := reader.Shape()
		poly, ok := shape.(*shp.Polygon)
		if !ok {
			continue
		}
		mp := polygonToGeom(poly)
		if mp == nil {
			continue
		}
		base := len(flat)
		flat = append(flat, mp.FlatCoords()...)
		for _, ends := range mp.Endss() {
			shifted := make([]int, len(ends))
			for i, e := range ends {
				shifted[i] = e + base
			}
			endss = append(endss, shifted)
		}
	}
	if len(endss) == 0 {
		return nil, eris.Errorf("ingest: no polygon records in %s", shpPath)
	}
	return geom.NewMultiPolygonFlat(geom.XY, flat, endss).SetSRID(projection.SRIDWGS84), nil
}
