package provider

import "github.com/couchcryptid/location-provider-service/internal/domain"

// Mode is the acquisition mode of a controller.
type Mode int

const (
	// Foreground keeps continuous high-power updates running.
	Foreground Mode = iota
	// Background trades continuous updates for significant-change
	// monitoring and a stationary region acting as a wake trigger.
	Background
)

func (m Mode) String() string {
	switch m {
	case Foreground:
		return "foreground"
	case Background:
		return "background"
	}
	return "unknown"
}

// AuthStatus is the platform-side authorization state.
type AuthStatus int

const (
	AuthNotDetermined AuthStatus = iota
	AuthDenied
	AuthRestricted
	AuthAlways
	AuthWhenInUse
)

func (a AuthStatus) String() string {
	switch a {
	case AuthNotDetermined:
		return "not_determined"
	case AuthDenied:
		return "denied"
	case AuthRestricted:
		return "restricted"
	case AuthAlways:
		return "always"
	case AuthWhenInUse:
		return "when_in_use"
	}
	return "unknown"
}

// AuthScope is the consumer-facing authorization grant derived from the
// platform status.
type AuthScope int

const (
	ScopeDenied AuthScope = iota
	ScopeAlways
	ScopeForeground
)

func (s AuthScope) String() string {
	switch s {
	case ScopeDenied:
		return "denied"
	case ScopeAlways:
		return "always"
	case ScopeForeground:
		return "foreground"
	}
	return "unknown"
}

// Event is one asynchronous callback from the device's location
// subsystem. The set is closed; EventName doubles as the wire type and
// the metrics label.
type Event interface {
	EventName() string
}

// FixBatch carries one or more raw fixes delivered together.
type FixBatch struct {
	Fixes []domain.Fix
}

// RegionExit reports that the device left the monitored region.
type RegionExit struct {
	Region domain.Region
}

// AuthChanged reports a new authorization status.
type AuthChanged struct {
	Status AuthStatus
}

// PlatformError carries an opaque platform fault code.
type PlatformError struct {
	Code int
}

// Paused and Resumed report that the platform paused or resumed location
// delivery on its own (e.g. automatic pausing while stationary).
type (
	Paused  struct{}
	Resumed struct{}
)

func (FixBatch) EventName() string      { return "fix_batch" }
func (RegionExit) EventName() string    { return "region_exit" }
func (AuthChanged) EventName() string   { return "auth_changed" }
func (PlatformError) EventName() string { return "error" }
func (Paused) EventName() string        { return "paused" }
func (Resumed) EventName() string       { return "resumed" }

// Command is a fire-and-forget request to the device's location
// subsystem. CommandName doubles as the wire type and the metrics label.
type Command interface {
	CommandName() string
}

type (
	StartUpdates            struct{}
	StopUpdates             struct{}
	StartSignificantChanges struct{}
	StopSignificantChanges  struct{}
	DisarmRegion            struct{}
	RequestAuthorization    struct{}
)

// ArmRegion asks the platform to monitor the given region, replacing any
// region it currently monitors.
type ArmRegion struct {
	Region domain.Region
}

func (StartUpdates) CommandName() string            { return "start_updates" }
func (StopUpdates) CommandName() string             { return "stop_updates" }
func (StartSignificantChanges) CommandName() string { return "start_significant_changes" }
func (StopSignificantChanges) CommandName() string  { return "stop_significant_changes" }
func (ArmRegion) CommandName() string               { return "arm_region" }
func (DisarmRegion) CommandName() string            { return "disarm_region" }
func (RequestAuthorization) CommandName() string    { return "request_authorization" }

// Emission is one output delivered to the hosting framework's consumer.
type Emission interface {
	emission()
}

// EmitLocation reports the selected best fix.
type EmitLocation struct {
	Fix domain.Fix
}

// EmitAuthorization reports a changed authorization scope.
type EmitAuthorization struct {
	Scope AuthScope
}

// EmitError forwards a wrapped platform fault.
type EmitError struct {
	Err *Error
}

// EmitDebug is the optional debug side channel; Fix may be nil.
type EmitDebug struct {
	Message string
	Fix     *domain.Fix
}

func (EmitLocation) emission()      {}
func (EmitAuthorization) emission() {}
func (EmitError) emission()        {}
func (EmitDebug) emission()        {}
