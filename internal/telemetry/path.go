package telemetry

import (
	"math"

	"robofleet-sim/internal/geo"
)

// DefaultCircleWaypoints is used by GenerateCircularPath when n <= 0.
const DefaultCircleWaypoints = 12

// DefaultRowSpacing is used by GenerateGridPath when spacing <= 0.
const DefaultRowSpacing = 2.0

// GenerateCircularPath returns n points evenly spaced counter-clockwise on a
// circle of radiusM meters around center. The final point is not repeated;
// callers loop the path instead.
func GenerateCircularPath(center GPSCoordinate, radiusM float64, n int) []GPSCoordinate {
	if n <= 0 {
		n = DefaultCircleWaypoints
	}
	points := make([]GPSCoordinate, 0, n)
	for i := range n {
		angle := 2 * math.Pi * float64(i) / float64(n)
		lat, lon := geo.Offset(center.Latitude, center.Longitude, radiusM*math.Sin(angle), radiusM*math.Cos(angle))
		points = append(points, GPSCoordinate{Latitude: lat, Longitude: lon, Altitude: center.Altitude})
	}
	return points
}

// GenerateGridPath covers a widthM x heightM rectangle south and east of
// topLeft with back-and-forth rows spacing meters apart. Rows run from offset
// 0 through floor(heightM/spacing)*spacing inclusive, each contributing its
// start and end point with direction alternating per row.
func GenerateGridPath(topLeft GPSCoordinate, widthM, heightM, spacing float64) []GPSCoordinate {
	if spacing <= 0 {
		spacing = DefaultRowSpacing
	}
	rows := int(math.Floor(heightM/spacing)) + 1
	if heightM < 0 {
		rows = 1
	}
	west := topLeft.Longitude
	east := topLeft.Longitude + geo.MetersToLngDegrees(widthM, topLeft.Latitude)

	points := make([]GPSCoordinate, 0, rows*2)
	for r := range rows {
		lat := topLeft.Latitude - geo.MetersToLatDegrees(float64(r)*spacing)
		from, to := west, east
		if r%2 == 1 {
			from, to = east, west
		}
		points = append(points,
			GPSCoordinate{Latitude: lat, Longitude: from, Altitude: topLeft.Altitude},
			GPSCoordinate{Latitude: lat, Longitude: to, Altitude: topLeft.Altitude},
		)
	}
	return points
}
