package domain

import "context"

// Place holds reverse-geocoded details for a coordinate.
type Place struct {
	Name             string
	FormattedAddress string
	Confidence       float64 // 0.0–1.0 provider confidence score
}

// Geocoder resolves coordinates to place details. Used only for the debug
// notification side channel; never on the fix selection path.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Place, error)
}
