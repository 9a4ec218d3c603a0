// Package domain models raw device location data and the selection rules
// that reduce a delivered batch of samples to a single reportable fix.
//
// # Fixes
//
// A Fix is one raw sample from a device's location subsystem: a WGS-84
// coordinate, a horizontal accuracy radius in meters, and a measurement
// timestamp. Device subsystems routinely replay cached samples on startup
// and deliver several near-simultaneous readings in one callback, so a fix
// is only trustworthy relative to the rest of its batch and the clock.
//
// Validity conventions:
//
//	Accuracy < 0        → accuracy unknown, the fix is never selectable
//	Time.IsZero()       → timestamp unknown, the fix is never selectable
//	Age > MaxFixAge     → assumed cached/replayed, the fix is never selectable
//
// # Selection
//
// SelectBest folds a batch left to right, keeping the first eligible fix
// and replacing it whenever a later candidate wins the accuracy/recency
// comparison used by mobile platforms' "is this a better location"
// heuristic: a strictly more accurate fix always wins, a newer fix wins at
// comparable accuracy, and a newer fix loses if it is more than
// MaxAccuracyLoss less accurate. Ties keep the earlier candidate, which
// makes selection deterministic for a fixed batch and clock.
//
// # Regions
//
// A Region is a circular geofence used as a low-power wake trigger while a
// device sits still: the platform monitors it and reports an exit event
// when the device leaves the circle. Containment is great-circle distance
// against the radius, nothing more.
package domain
