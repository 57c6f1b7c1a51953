// Package project converts geographic coordinates (EPSG:4326) to the
// Pennsylvania State Plane South grid (EPSG:2272, NAD83, US survey feet).
// The transform is a stateless Lambert Conformal Conic (2SP) projection;
// the same input always yields the same output.
package project

import (
	"math"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
)

// GRS80 ellipsoid.
const (
	semiMajorM = 6378137.0
	flattening = 1.0 / 298.257222101
)

// EPSG:2272 projection parameters (Lambert Conformal Conic 2SP).
const (
	stdParallel1Deg = 40.0 + 58.0/60.0 // 40°58'N
	stdParallel2Deg = 39.0 + 56.0/60.0 // 39°56'N
	latOriginDeg    = 39.0 + 20.0/60.0 // 39°20'N
	lonOriginDeg    = -77.75           // 77°45'W
	falseEastingM   = 600000.0
	falseNorthingM  = 0.0
	usSurveyFootM   = 0.30480060960121924
)

// SRIDs the projector can emit.
const (
	SRIDGeographic = 4326
	SRIDStatePlane = 2272
)

// Projector converts between geographic and state-plane coordinates.
// Construct once; safe for concurrent use.
type Projector struct {
	e    float64 // first eccentricity
	n    float64
	f    float64
	rho0 float64
}

// NewProjector precomputes the EPSG:2272 projection constants.
func NewProjector() *Projector {
	e2 := flattening * (2 - flattening)
	e := math.Sqrt(e2)

	phi1 := stdParallel1Deg * math.Pi / 180
	phi2 := stdParallel2Deg * math.Pi / 180
	phi0 := latOriginDeg * math.Pi / 180

	m1 := mFunc(phi1, e)
	m2 := mFunc(phi2, e)
	t0 := tFunc(phi0, e)
	t1 := tFunc(phi1, e)
	t2 := tFunc(phi2, e)

	n := (math.Log(m1) - math.Log(m2)) / (math.Log(t1) - math.Log(t2))
	f := m1 / (n * math.Pow(t1, n))
	rho0 := semiMajorM * f * math.Pow(t0, n)

	return &Projector{e: e, n: n, f: f, rho0: rho0}
}

// Forward projects a geographic point (lon/lat degrees, EPSG:4326) to
// state-plane x/y in US survey feet (EPSG:2272).
func (p *Projector) Forward(pt geom.Coord) (geom.Coord, error) {
	if len(pt) < 2 {
		return nil, eris.New("project: coordinate needs lon and lat")
	}
	lon, lat := pt[0], pt[1]
	if lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, eris.Errorf("project: coordinate out of range: lon=%f lat=%f", lon, lat)
	}

	phi := lat * math.Pi / 180
	lambda := lon * math.Pi / 180
	lambda0 := lonOriginDeg * math.Pi / 180

	t := tFunc(phi, p.e)
	rho := semiMajorM * p.f * math.Pow(t, p.n)
	theta := p.n * (lambda - lambda0)

	x := falseEastingM + rho*math.Sin(theta)
	y := falseNorthingM + p.rho0 - rho*math.Cos(theta)

	return geom.Coord{x / usSurveyFootM, y / usSurveyFootM}, nil
}

// Inverse converts state-plane x/y (US survey feet) back to geographic
// lon/lat degrees.
func (p *Projector) Inverse(pt geom.Coord) (geom.Coord, error) {
	if len(pt) < 2 {
		return nil, eris.New("project: coordinate needs x and y")
	}
	x := pt[0]*usSurveyFootM - falseEastingM
	y := pt[1]*usSurveyFootM - falseNorthingM

	rho := math.Sqrt(x*x + (p.rho0-y)*(p.rho0-y))
	if p.n < 0 {
		rho = -rho
	}
	t := math.Pow(rho/(semiMajorM*p.f), 1/p.n)
	theta := math.Atan2(x, p.rho0-y)

	lambda := theta/p.n + lonOriginDeg*math.Pi/180

	// Iterate the latitude; converges in a handful of rounds.
	phi := math.Pi/2 - 2*math.Atan(t)
	for i := 0; i < 15; i++ {
		es := p.e * math.Sin(phi)
		next := math.Pi/2 - 2*math.Atan(t*math.Pow((1-es)/(1+es), p.e/2))
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}

	return geom.Coord{lambda * 180 / math.Pi, phi * 180 / math.Pi}, nil
}

// mFunc is cos(phi)/sqrt(1 - e^2 sin^2(phi)).
func mFunc(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Cos(phi) / math.Sqrt(1-e*e*s*s)
}

// tFunc is tan(pi/4 - phi/2) / ((1 - e sin phi)/(1 + e sin phi))^(e/2).
func tFunc(phi, e float64) float64 {
	s := math.Sin(phi)
	return math.Tan(math.Pi/4-phi/2) / math.Pow((1-e*s)/(1+e*s), e/2)
}
