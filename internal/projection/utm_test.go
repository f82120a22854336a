package projection

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParamsValidate(t *testing.T) {
	assert.NoError(t, Params{Zone: 43}.Validate())
	assert.Error(t, Params{Zone: 0}.Validate())
	assert.Error(t, Params{Zone: 61}.Validate())
}

func TestCentralMeridian(t *testing.T) {
	assert.InDelta(t, 75.0, Params{Zone: 43}.CentralMeridian(), 1e-9)
	assert.InDelta(t, -177.0, Params{Zone: 1}.CentralMeridian(), 1e-9)
}

func TestEPSG(t *testing.T) {
	assert.Equal(t, 32643, Params{Zone: 43}.EPSG())
	assert.Equal(t, 32743, Params{Zone: 43, Southern: true}.EPSG())
}

func TestForwardKnownPoint(t *testing.T) {
	// Bengaluru (77.5946E, 12.9716N) in UTM zone 43N.
	p := Params{Zone: 43}
	x, y := p.Forward(77.5946, 12.9716)

	// Reference values for EPSG:32643, generous tolerance.
	assert.InDelta(t, 781481, x, 50.0)
	assert.InDelta(t, 1435426, y, 50.0)
}

func TestForwardCentralMeridian(t *testing.T) {
	p := Params{Zone: 43}
	x, y := p.Forward(75.0, 0.0)
	assert.InDelta(t, falseEasting, x, 1e-6)
	assert.InDelta(t, 0.0, y, 1e-6)
}

func TestRoundTrip(t *testing.T) {
	p := Params{Zone: 43}
	points := [][2]float64{
		{75.0, 15.0},
		{77.5946, 12.9716},
		{74.12, 14.88},
		{76.65, 11.05},
		{78.0, 18.5},
	}
	for _, pt := range points {
		x, y := p.Forward(pt[0], pt[1])
		lon, lat := p.Inverse(x, y)

		// 1 cm tolerance: a degree of latitude is ~111 km, so 1 cm is ~9e-8 deg.
		require.InDelta(t, pt[0], lon, 1e-7)
		require.InDelta(t, pt[1], lat, 1e-7)
	}
}

func TestRoundTripSouthern(t *testing.T) {
	p := Params{Zone: 43, Southern: true}
	x, y := p.Forward(74.0, -8.0)
	assert.Greater(t, y, 0.0)

	lon, lat := p.Inverse(x, y)
	assert.InDelta(t, 74.0, lon, 1e-7)
	assert.InDelta(t, -8.0, lat, 1e-7)
}

func TestForwardDistanceScale(t *testing.T) {
	// Two points one degree of longitude apart at the equator on the central
	// meridian should be ~111 km apart after projection.
	p := Params{Zone: 43}
	x1, y1 := p.Forward(74.5, 0.0)
	x2, y2 := p.Forward(75.5, 0.0)
	d := math.Hypot(x2-x1, y2-y1)
	assert.InDelta(t, 111320, d, 500)
}
