package ingest

import (
	"testing"

	"github.com/jonas-p/go-shp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
)

func TestPointToGeom(t *testing.T) {
	pt := pointToGeom(&shp.Point{X: 77.5946, Y: 12.9716})
	require.NotNil(t, pt)
	assert.Equal(t, 4326, pt.SRID())
	assert.InDelta(t, 77.5946, pt.X(), 1e-9)
	assert.InDelta(t, 12.9716, pt.Y(), 1e-9)

	assert.Nil(t, pointToGeom(nil))
}

func TestPolyLineToGeom(t *testing.T) {
	pl := &shp.PolyLine{
		NumParts: 2,
		Parts:    []int32{0, 2},
		Points: []shp.Point{
			{X: 77.0, Y: 13.0},
			{X: 77.1, Y: 13.0},
			{X: 77.2, Y: 13.1},
			{X: 77.3, Y: 13.1},
			{X: 77.4, Y: 13.2},
		},
	}

	mls := polyLineToGeom(pl)
	require.NotNil(t, mls)
	assert.Equal(t, 4326, mls.SRID())
	require.Equal(t, 2, mls.NumLineStrings())
	assert.Equal(t, 2, mls.LineString(0).NumCoords())
	assert.Equal(t, 3, mls.LineString(1).NumCoords())

	assert.Nil(t, polyLineToGeom(nil))
	assert.Nil(t, polyLineToGeom(&shp.PolyLine{}))
}

func TestPolygonToGeom(t *testing.T) {
	p := &shp.Polygon{
		NumParts: 1,
		Parts:    []int32{0},
		Points: []shp.Point{
			{X: 77.0, Y: 13.0},
			{X: 77.0, Y: 13.1},
			{X: 77.1, Y: 13.1},
			{X: 77.1, Y: 13.0},
			{X: 77.0, Y: 13.0},
		},
	}

	mp := polygonToGeom(p)
	require.NotNil(t, mp)
	assert.Equal(t, 4326, mp.SRID())
	require.Equal(t, 1, mp.NumPolygons())
	assert.Equal(t, 5, mp.Polygon(0).LinearRing(0).NumCoords())

	assert.Nil(t, polygonToGeom(nil))
}

func TestPolygonToGeom_MultiPart(t *testing.T) {
	p := &shp.Polygon{
		NumParts: 2,
		Parts:    []int32{0, 4},
		Points: []shp.Point{
			{X: 0, Y: 0}, {X: 0, Y: 1}, {X: 1, Y: 1}, {X: 0, Y: 0},
			{X: 5, Y: 5}, {X: 5, Y: 6}, {X: 6, Y: 6}, {X: 5, Y: 5},
		},
	}
	mp := polygonToGeom(p)
	require.NotNil(t, mp)
	assert.Equal(t, 2, mp.NumPolygons())
}

func TestEncodeDecodeEWKB(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{77.5946, 12.9716}).SetSRID(4326)

	data, err := EncodeEWKB(pt)
	require.NoError(t, err)
	require.NotEmpty(t, data)

	decoded, err := DecodeEWKB(data)
	require.NoError(t, err)
	back, ok := decoded.(*geom.Point)
	require.True(t, ok)
	assert.Equal(t, 4326, back.SRID())
	assert.InDelta(t, 77.5946, back.X(), 1e-9)
	assert.InDelta(t, 12.9716, back.Y(), 1e-9)
}

func TestEncodeEWKB_Nil(t *testing.T) {
	data, err := EncodeEWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, data)

	g, err := DecodeEWKB(nil)
	require.NoError(t, err)
	assert.Nil(t, g)
}
