package geospatial

import "math"

// EarthRadiusMeters is the mean Earth radius used for great-circle distances.
const EarthRadiusMeters = 6371000.0

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// Lerp interpolates linearly between two coordinates in degree space.
// frac 0 returns the first point, 1 the second.
func Lerp(lat1, lon1, lat2, lon2, frac float64) (lat, lon float64) {
	return lat1 + (lat2-lat1)*frac, lon1 + (lon2-lon1)*frac
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
