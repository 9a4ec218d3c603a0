package domain

import (
	"math"

	"github.com/google/uuid"
)

const earthRadiusM = 6371000

// Region is a circular geofence monitored by a device's location
// subsystem as a low-power wake trigger. Radius is in meters and is
// always positive for a region built through NewRegion.
type Region struct {
	ID        string  `json:"id"`
	Latitude  float64 `json:"lat"`
	Longitude float64 `json:"lon"`
	Radius    float64 `json:"radius"`
}

// NewRegion builds a region centered at the given coordinate with a fresh
// opaque identifier.
func NewRegion(lat, lon, radius float64) Region {
	return Region{
		ID:        uuid.NewString(),
		Latitude:  lat,
		Longitude: lon,
		Radius:    radius,
	}
}

// Contains reports whether the coordinate lies within the circle.
func (r Region) Contains(lat, lon float64) bool {
	return Haversine(r.Latitude, r.Longitude, lat, lon) <= r.Radius
}

// Haversine returns the great-circle distance in meters between two
// WGS-84 coordinates.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	lat1Rad := lat1 * math.Pi / 180
	lat2Rad := lat2 * math.Pi / 180
	deltaLat := (lat2 - lat1) * math.Pi / 180
	deltaLon := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(deltaLat/2)*math.Sin(deltaLat/2) +
		math.Cos(lat1Rad)*math.Cos(lat2Rad)*
			math.Sin(deltaLon/2)*math.Sin(deltaLon/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusM * c
}
