package geo

import (
	"fmt"
	"math"
)

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lng float64
}

// Distance calculates the Haversine distance between two points in meters.
func Distance(p1, p2 Point) float64 {
	const R = 6371000 // Earth radius in meters
	dLat := (p2.Lat - p1.Lat) * (math.Pi / 180.0)
	dLng := (p2.Lng - p1.Lng) * (math.Pi / 180.0)
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1)*math.Cos(lat2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return R * c
}

// Bearing calculates the initial bearing (forward azimuth) from p1 to p2 in degrees.
func Bearing(p1, p2 Point) float64 {
	lat1 := p1.Lat * (math.Pi / 180.0)
	lat2 := p2.Lat * (math.Pi / 180.0)
	dLng := (p2.Lng - p1.Lng) * (math.Pi / 180.0)

	y := math.Sin(dLng) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) -
		math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLng)
	brng := math.Atan2(y, x)

	return math.Mod(brng*(180.0/math.Pi)+360.0, 360.0)
}

// compassLabels in 45 degree sectors, clockwise from north.
var compassLabels = [8]string{"N", "NE", "E", "SE", "S", "SW", "W", "NW"}

// Compass maps a bearing in degrees to one of 8 compass labels,
// rounding to the nearest sector.
func Compass(bearing float64) string {
	bearing = math.Mod(bearing+360.0, 360.0)
	idx := int(math.Round(bearing/45.0)) % 8
	return compassLabels[idx]
}

// Direction is the compass label of the initial bearing from p1 to p2.
func Direction(p1, p2 Point) string {
	return Compass(Bearing(p1, p2))
}

// FormatDistance renders a distance for notification bodies: whole meters
// below 1 km, whole kilometers at or above (rounded half away from zero).
func FormatDistance(meters float64) string {
	if meters < 0 {
		meters = 0
	}
	if meters < 1000 {
		return fmt.Sprintf("%d meters", int(math.Round(meters)))
	}
	return fmt.Sprintf("%d km", int(math.Round(meters/1000)))
}
