package provider

import "fmt"

// ActivityType hints the platform about the kind of motion to expect.
type ActivityType int

const (
	ActivityOther ActivityType = iota
	ActivityAutomotiveNavigation
	ActivityFitness
	ActivityOtherNavigation
)

func (a ActivityType) String() string {
	switch a {
	case ActivityOther:
		return "other"
	case ActivityAutomotiveNavigation:
		return "automotive_navigation"
	case ActivityFitness:
		return "fitness"
	case ActivityOtherNavigation:
		return "other_navigation"
	}
	return "unknown"
}

// ParseActivityType converts the wire/config form of an activity type.
func ParseActivityType(s string) (ActivityType, error) {
	switch s {
	case "", "other":
		return ActivityOther, nil
	case "automotive_navigation":
		return ActivityAutomotiveNavigation, nil
	case "fitness":
		return ActivityFitness, nil
	case "other_navigation":
		return ActivityOtherNavigation, nil
	}
	return 0, fmt.Errorf("unknown activity type %q", s)
}

// Accuracy is the desired horizontal accuracy class for continuous
// updates.
type Accuracy int

const (
	AccuracyHigh Accuracy = iota
	AccuracyMedium
	AccuracyLow
	AccuracyPassive
)

func (a Accuracy) String() string {
	switch a {
	case AccuracyHigh:
		return "high"
	case AccuracyMedium:
		return "medium"
	case AccuracyLow:
		return "low"
	case AccuracyPassive:
		return "passive"
	}
	return "unknown"
}

// ParseAccuracy converts the wire/config form of an accuracy class.
func ParseAccuracy(s string) (Accuracy, error) {
	switch s {
	case "high":
		return AccuracyHigh, nil
	case "", "medium":
		return AccuracyMedium, nil
	case "low":
		return AccuracyLow, nil
	case "passive":
		return AccuracyPassive, nil
	}
	return 0, fmt.Errorf("unknown accuracy %q", s)
}

// Options are the static tunables supplied by the hosting framework.
type Options struct {
	PauseUpdatesAutomatically bool
	ActivityType              ActivityType
	DistanceFilter            float64 // meters
	DesiredAccuracy           Accuracy
	SaveBatteryOnBackground   bool
	StopOnTerminate           bool
	StationaryRadius          float64 // meters
	Debug                     bool
}

// DefaultOptions returns the tunables applied before any configure call.
func DefaultOptions() Options {
	return Options{
		ActivityType:     ActivityOther,
		DistanceFilter:   500,
		DesiredAccuracy:  AccuracyMedium,
		StopOnTerminate:  true,
		StationaryRadius: 50,
	}
}

// Validate rejects option sets that would break region arming or update
// pacing.
func (o Options) Validate() error {
	if o.StationaryRadius <= 0 {
		return fmt.Errorf("stationary radius must be positive, got %g", o.StationaryRadius)
	}
	if o.DistanceFilter < 0 {
		return fmt.Errorf("distance filter must not be negative, got %g", o.DistanceFilter)
	}
	return nil
}

// Capabilities describes what the device's platform supports. Injected at
// construction so controller logic branches on data instead of probing
// the environment.
type Capabilities struct {
	// AlwaysAuthorization is true when the platform distinguishes an
	// "always" grant from a while-in-use grant.
	AlwaysAuthorization bool
	// SignificantChanges is true when low-power significant-change
	// monitoring exists.
	SignificantChanges bool
	// RegionMonitoring is true when circular region monitoring exists.
	RegionMonitoring bool
}

// DefaultCapabilities assumes a fully featured platform.
func DefaultCapabilities() Capabilities {
	return Capabilities{
		AlwaysAuthorization: true,
		SignificantChanges:  true,
		RegionMonitoring:    true,
	}
}
