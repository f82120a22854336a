package projection

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/arogyamap/access-cli/internal/model"
)

func newTestNormalizer(t *testing.T) *Normalizer {
	t.Helper()
	n, err := NewNormalizer(Params{Zone: 43})
	require.NoError(t, err)
	return n
}

func TestNormalizeFacilities(t *testing.T) {
	n := newTestNormalizer(t)

	facilities := []model.Facility{
		{ID: "a", Location: geom.NewPointFlat(geom.XY, []float64{77.59, 12.97}).SetSRID(4326)},
		{ID: "b", Location: nil},
		{ID: "c", Location: geom.NewPointFlat(geom.XY, []float64{500, 12.97}).SetSRID(4326)},
	}

	out, skipped, err := n.NormalizeFacilities(facilities)
	require.NoError(t, err)
	assert.Len(t, out, 1)
	assert.Equal(t, 2, skipped)
	assert.Equal(t, "a", out[0].ID)

	// Output is planar: easting/northing in meters, not degrees.
	coords := out[0].Location.FlatCoords()
	assert.Greater(t, coords[0], 100000.0)
	assert.Equal(t, 32643, out[0].Location.SRID())
}

func TestNormalizeFacilitiesSRIDMismatch(t *testing.T) {
	n := newTestNormalizer(t)

	facilities := []model.Facility{
		{ID: "a", Location: geom.NewPointFlat(geom.XY, []float64{77.59, 12.97}).SetSRID(3857)},
	}
	_, _, err := n.NormalizeFacilities(facilities)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "spatial reference")
}

func TestNormalizeRegionsDerivesAreaAndCentroid(t *testing.T) {
	n := newTestNormalizer(t)

	// Roughly 0.1 x 0.1 degree square near Bengaluru.
	ring := []float64{
		77.5, 12.9,
		77.6, 12.9,
		77.6, 13.0,
		77.5, 13.0,
		77.5, 12.9,
	}
	mp := geom.NewMultiPolygonFlat(geom.XY, ring, [][]int{{len(ring)}}).SetSRID(4326)

	regions := []model.Region{
		{Name: "Bengaluru Urban", Boundary: mp},
		{Name: "empty"},
	}

	out, skipped, err := n.NormalizeRegions(regions)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, out, 1)

	area, ok := out[0].AreaKM2.Value()
	require.True(t, ok)
	// ~11km x ~11km.
	assert.InDelta(t, 120, area, 10)

	// Centroid sits inside the projected square.
	lon, lat := n.Params().Inverse(out[0].Centroid[0], out[0].Centroid[1])
	assert.InDelta(t, 77.55, lon, 0.01)
	assert.InDelta(t, 12.95, lat, 0.01)
}

func TestNormalizeRoads(t *testing.T) {
	n := newTestNormalizer(t)

	roads := []model.RoadSegment{
		{
			ID:       "r1",
			Category: "primary",
			Geometry: geom.NewMultiLineStringFlat(geom.XY,
				[]float64{77.5, 12.9, 77.6, 12.9}, []int{4}).SetSRID(4326),
		},
		{ID: "r2"},
	}

	out, skipped, err := n.NormalizeRoads(roads)
	require.NoError(t, err)
	assert.Equal(t, 1, skipped)
	require.Len(t, out, 1)

	// A 0.1 degree east-west segment at this latitude is ~10.8 km.
	flat := out[0].Geometry.FlatCoords()
	dx := flat[2] - flat[0]
	assert.InDelta(t, 10850, dx, 100)
}
