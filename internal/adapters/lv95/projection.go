// Package lv95 converts between WGS84 and the Swiss LV95 (EPSG:2056) grid
// without network access.
//
// The projection is the Swiss oblique conformal cylindrical projection
// (double projection ellipsoid -> sphere -> plane) on the Bessel 1841
// ellipsoid, with the CH1903+ -> WGS84 geocentric translation published for
// EPSG:2056 (TOWGS84 674.374, 15.056, 405.346).
package lv95

import "math"

const (
	besselA  = 6377397.155
	besselE2 = 0.006674372230614

	wgs84A  = 6378137.0
	wgs84E2 = 0.00669437999014

	// CH1903+ -> WGS84 translation in meters.
	shiftX = 674.374
	shiftY = 15.056
	shiftZ = 405.346

	falseEasting  = 2600000.0
	falseNorthing = 1200000.0
)

// Projection centre (old observatory of Bern).
var (
	phi0    = dmsToRad(46, 57, 8.66)
	lambda0 = dmsToRad(7, 26, 22.50)
)

// Derived sphere constants.
var (
	besselE = math.Sqrt(besselE2)
	sphereR = besselA * math.Sqrt(1-besselE2) / (1 - besselE2*math.Pow(math.Sin(phi0), 2))
	alpha   = math.Sqrt(1 + besselE2/(1-besselE2)*math.Pow(math.Cos(phi0), 4))
	b0      = math.Asin(math.Sin(phi0) / alpha)
	bigK    = math.Log(math.Tan(math.Pi/4+b0/2)) -
		alpha*math.Log(math.Tan(math.Pi/4+phi0/2)) +
		alpha*besselE/2*math.Log((1+besselE*math.Sin(phi0))/(1-besselE*math.Sin(phi0)))
)

func dmsToRad(d, m, s float64) float64 {
	return (d + m/60 + s/3600) * math.Pi / 180
}

func deg(r float64) float64 { return r * 180 / math.Pi }
func rad(d float64) float64 { return d * math.Pi / 180 }

// Projection implements WGS84 <-> LV95 for single points.
type Projection struct{}

// EPSG returns the EPSG code of the projected system.
func (Projection) EPSG() int { return 2056 }

// FromWGS84 converts WGS84 longitude/latitude (degrees) to LV95 easting/northing.
func (Projection) FromWGS84(lon, lat float64) (e, n float64) {
	x, y, z := geodeticToECEF(rad(lat), rad(lon), 0, wgs84A, wgs84E2)
	phi, lambda, _ := ecefToGeodetic(x-shiftX, y-shiftY, z-shiftZ, besselA, besselE2)
	return project(phi, lambda)
}

// ToWGS84 converts LV95 easting/northing to WGS84 longitude/latitude (degrees).
func (Projection) ToWGS84(e, n float64) (lon, lat float64) {
	phi, lambda := unproject(e, n)
	x, y, z := geodeticToECEF(phi, lambda, 0, besselA, besselE2)
	la, lo, _ := ecefToGeodetic(x+shiftX, y+shiftY, z+shiftZ, wgs84A, wgs84E2)
	return deg(lo), deg(la)
}

// project maps Bessel geodetic coordinates (radians) onto the LV95 plane.
func project(phi, lambda float64) (e, n float64) {
	sinPhi := math.Sin(phi)
	s := alpha*math.Log(math.Tan(math.Pi/4+phi/2)) -
		alpha*besselE/2*math.Log((1+besselE*sinPhi)/(1-besselE*sinPhi)) + bigK
	b := 2 * (math.Atan(math.Exp(s)) - math.Pi/4)
	l := alpha * (lambda - lambda0)

	lBar := math.Atan2(math.Sin(l), math.Sin(b0)*math.Tan(b)+math.Cos(b0)*math.Cos(l))
	bBar := math.Asin(math.Cos(b0)*math.Sin(b) - math.Sin(b0)*math.Cos(b)*math.Cos(l))

	y := sphereR * lBar
	x := sphereR / 2 * math.Log((1+math.Sin(bBar))/(1-math.Sin(bBar)))
	return y + falseEasting, x + falseNorthing
}

// unproject is the inverse of project.
func unproject(e, n float64) (phi, lambda float64) {
	y := e - falseEasting
	x := n - falseNorthing

	lBar := y / sphereR
	bBar := 2 * (math.Atan(math.Exp(x/sphereR)) - math.Pi/4)

	b := math.Asin(math.Cos(b0)*math.Sin(bBar) + math.Sin(b0)*math.Cos(bBar)*math.Cos(lBar))
	l := math.Atan2(math.Sin(lBar), math.Cos(b0)*math.Cos(lBar)-math.Sin(b0)*math.Tan(bBar))
	lambda = lambda0 + l/alpha

	base := (math.Log(math.Tan(math.Pi/4+b/2)) - bigK) / alpha
	phi = b
	for i := 0; i < 12; i++ {
		s := base + besselE*math.Log(math.Tan(math.Pi/4+math.Asin(besselE*math.Sin(phi))/2))
		next := 2*math.Atan(math.Exp(s)) - math.Pi/2
		if math.Abs(next-phi) < 1e-12 {
			phi = next
			break
		}
		phi = next
	}
	return phi, lambda
}

func geodeticToECEF(phi, lambda, h, a, e2 float64) (x, y, z float64) {
	sinPhi := math.Sin(phi)
	nu := a / math.Sqrt(1-e2*sinPhi*sinPhi)
	x = (nu + h) * math.Cos(phi) * math.Cos(lambda)
	y = (nu + h) * math.Cos(phi) * math.Sin(lambda)
	z = (nu*(1-e2) + h) * sinPhi
	return x, y, z
}

func ecefToGeodetic(x, y, z, a, e2 float64) (phi, lambda, h float64) {
	lambda = math.Atan2(y, x)
	p := math.Hypot(x, y)
	phi = math.Atan2(z, p*(1-e2))
	for i := 0; i < 10; i++ {
		sinPhi := math.Sin(phi)
		nu := a / math.Sqrt(1-e2*sinPhi*sinPhi)
		h = p/math.Cos(phi) - nu
		phi = math.Atan2(z, p*(1-e2*nu/(nu+h)))
	}
	return phi, lambda, h
}
