// Package geo holds the small-area geodesic helpers used by the simulator.
// Conversions between meters and degrees are planar approximations; they are
// accurate enough for fleets operating within a few kilometers and make no
// attempt to handle the poles or the antimeridian.
package geo

import "math"

const (
	// EarthRadiusM is the mean Earth radius used by Distance.
	EarthRadiusM = 6371000.0
	// MetersPerDegreeLat is the flat-earth approximation for one degree of latitude.
	MetersPerDegreeLat = 111000.0
)

// Distance returns the haversine great-circle distance in meters.
func Distance(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*math.Sin(dLon/2)*math.Sin(dLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusM * c
}

// Heading returns the initial bearing from the first point to the second in
// degrees, normalized to [0, 360).
func Heading(fromLat, fromLon, toLat, toLon float64) float64 {
	dLon := toRad(toLon - fromLon)
	lat1 := toRad(fromLat)
	lat2 := toRad(toLat)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	deg := math.Atan2(y, x) * 180 / math.Pi
	deg = math.Mod(deg+360, 360)
	if deg >= 360 {
		deg = 0
	}
	return deg
}

// MetersToLatDegrees converts a north/south distance to degrees of latitude.
func MetersToLatDegrees(m float64) float64 {
	return m / MetersPerDegreeLat
}

// MetersToLngDegrees converts an east/west distance to degrees of longitude at atLat.
func MetersToLngDegrees(m, atLat float64) float64 {
	return m / (MetersPerDegreeLat * math.Cos(toRad(atLat)))
}

// Offset moves a point north and east by the given number of meters.
func Offset(lat, lon, northM, eastM float64) (float64, float64) {
	return lat + MetersToLatDegrees(northM), lon + MetersToLngDegrees(eastM, lat)
}

// Jitter displaces a point by up to maxM meters on each axis using uniform
// noise drawn from randFloat, which must return values in [0, 1).
func Jitter(lat, lon, maxM float64, randFloat func() float64) (float64, float64) {
	north := (randFloat() - 0.5) * 2 * maxM
	east := (randFloat() - 0.5) * 2 * maxM
	return Offset(lat, lon, north, east)
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}
