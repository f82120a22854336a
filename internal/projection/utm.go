// Package projection converts geographic WGS84 coordinates to a planar UTM
// zone and back, so distance and area arithmetic downstream is valid in
// meters. Forward and Inverse are pure and stateless; downstream mapping
// tools use Inverse to recover longitude/latitude for display.
package projection

import (
	"math"

	"github.com/rotisserie/eris"
)

// WGS84 ellipsoid.
const (
	semiMajor  = 6378137.0
	flattening = 1.0 / 298.257223563
)

// UTM constants.
const (
	scaleFactor    = 0.9996
	falseEasting   = 500000.0
	falseNorthing  = 10000000.0
	minZone        = 1
	maxZone        = 60
)

// SRIDWGS84 is the only geographic spatial reference the normalizer accepts.
const SRIDWGS84 = 4326

// Params selects the target UTM zone.
type Params struct {
	Zone     int  // 1..60
	Southern bool // apply the southern-hemisphere false northing
}

// Validate checks that the zone is in range.
func (p Params) Validate() error {
	if p.Zone < minZone || p.Zone > maxZone {
		return eris.Errorf("projection: UTM zone %d out of range [%d,%d]", p.Zone, minZone, maxZone)
	}
	return nil
}

// CentralMeridian returns the zone's central meridian in degrees.
func (p Params) CentralMeridian() float64 {
	return float64(p.Zone)*6 - 183
}

var (
	e2  = flattening * (2 - flattening) // first eccentricity squared
	e4  = e2 * e2
	e6  = e4 * e2
	ep2 = e2 / (1 - e2) // second eccentricity squared
)

// meridianArc returns the meridional arc length from the equator to latitude
// phi (radians).
func meridianArc(phi float64) float64 {
	return semiMajor * ((1-e2/4-3*e4/64-5*e6/256)*phi -
		(3*e2/8+3*e4/32+45*e6/1024)*math.Sin(2*phi) +
		(15*e4/256+45*e6/1024)*math.Sin(4*phi) -
		(35*e6/3072)*math.Sin(6*phi))
}

// Forward projects geographic lon/lat (degrees) to planar easting/northing
// (meters) in the configured zone.
func (p Params) Forward(lon, lat float64) (x, y float64) {
	phi := lat * math.Pi / 180
	lam := lon * math.Pi / 180
	lam0 := p.CentralMeridian() * math.Pi / 180

	sinPhi := math.Sin(phi)
	cosPhi := math.Cos(phi)
	tanPhi := math.Tan(phi)

	n := semiMajor / math.Sqrt(1-e2*sinPhi*sinPhi)
	t := tanPhi * tanPhi
	c := ep2 * cosPhi * cosPhi
	a := (lam - lam0) * cosPhi
	m := meridianArc(phi)

	a2 := a * a
	a3 := a2 * a
	a4 := a3 * a
	a5 := a4 * a
	a6 := a5 * a

	x = scaleFactor*n*(a+(1-t+c)*a3/6+(5-18*t+t*t+72*c-58*ep2)*a5/120) + falseEasting
	y = scaleFactor * (m + n*tanPhi*(a2/2+(5-t+9*c+4*c*c)*a4/24+
		(61-58*t+t*t+600*c-330*ep2)*a6/720))
	if p.Southern {
		y += falseNorthing
	}
	return x, y
}

// Inverse converts planar easting/northing (meters) back to geographic
// lon/lat (degrees). Round-trips with Forward to within 1 cm inside the
// zone's valid extent.
func (p Params) Inverse(x, y float64) (lon, lat float64) {
	lam0 := p.CentralMeridian() * math.Pi / 180

	x -= falseEasting
	if p.Southern {
		y -= falseNorthing
	}

	m := y / scaleFactor
	mu := m / (semiMajor * (1 - e2/4 - 3*e4/64 - 5*e6/256))

	e1 := (1 - math.Sqrt(1-e2)) / (1 + math.Sqrt(1-e2))
	phi1 := mu +
		(3*e1/2-27*e1*e1*e1/32)*math.Sin(2*mu) +
		(21*e1*e1/16-55*e1*e1*e1*e1/32)*math.Sin(4*mu) +
		(151*e1*e1*e1/96)*math.Sin(6*mu) +
		(1097*e1*e1*e1*e1/512)*math.Sin(8*mu)

	sinPhi1 := math.Sin(phi1)
	cosPhi1 := math.Cos(phi1)
	tanPhi1 := math.Tan(phi1)

	c1 := ep2 * cosPhi1 * cosPhi1
	t1 := tanPhi1 * tanPhi1
	n1 := semiMajor / math.Sqrt(1-e2*sinPhi1*sinPhi1)
	r1 := semiMajor * (1 - e2) / math.Pow(1-e2*sinPhi1*sinPhi1, 1.5)
	d := x / (n1 * scaleFactor)

	d2 := d * d
	d3 := d2 * d
	d4 := d3 * d
	d5 := d4 * d
	d6 := d5 * d

	phi := phi1 - (n1*tanPhi1/r1)*(d2/2-
		(5+3*t1+10*c1-4*c1*c1-9*ep2)*d4/24+
		(61+90*t1+298*c1+45*t1*t1-252*ep2-3*c1*c1)*d6/720)
	lam := lam0 + (d-(1+2*t1+c1)*d3/6+
		(5-2*c1+28*t1-3*c1*c1+8*ep2+24*t1*t1)*d5/120)/cosPhi1

	return lam * 180 / math.Pi, phi * 180 / math.Pi
}
