package domain

import "time"

// UnknownAccuracy marks a fix whose horizontal accuracy was not reported
// by the device. Any negative accuracy means unknown; this is the
// canonical value decoders should use.
const UnknownAccuracy = -1.0

// Fix is a single raw location sample as delivered by a device's location
// subsystem.
type Fix struct {
	Latitude  float64   `json:"lat"`
	Longitude float64   `json:"lon"`
	Accuracy  float64   `json:"accuracy"` // horizontal accuracy radius in meters; negative = unknown
	Altitude  float64   `json:"altitude,omitempty"`
	Speed     float64   `json:"speed,omitempty"`
	Bearing   float64   `json:"bearing,omitempty"`
	Time      time.Time `json:"time"`

	// Radius is set only on fixes synthesized from a region exit. It
	// carries the exited region's radius so downstream consumers can
	// recognize stationary-wake fixes.
	Radius float64 `json:"radius,omitempty"`
}

// HasAccuracy reports whether the device supplied a usable accuracy.
func (f Fix) HasAccuracy() bool { return f.Accuracy >= 0 }

// HasTime reports whether the device supplied a measurement timestamp.
func (f Fix) HasTime() bool { return !f.Time.IsZero() }

// Age returns how long ago the fix was measured relative to now.
func (f Fix) Age(now time.Time) time.Duration { return now.Sub(f.Time) }
