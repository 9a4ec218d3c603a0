package provider

import (
	"time"

	"github.com/couchcryptid/location-provider-service/internal/domain"
)

// State is the complete mutable state of one controller. Transitions
// never mutate a State in place; they take a copy and return the next
// value, which keeps every decision testable without a platform.
type State struct {
	Mode     Mode
	Started  bool
	Updating bool // continuous updates currently requested
	Armed    *domain.Region

	// lastScope dedupes consecutive identical authorization emissions so
	// a platform that re-delivers the same status does not spam the
	// consumer.
	lastScope  AuthScope
	scopeKnown bool
}

// stepInput is the environment snapshot a transition may consult: the
// triggering event, the platform's last-known raw fix, and the clock.
type stepInput struct {
	event     Event
	lastKnown *domain.Fix
	now       time.Time
}

// step applies one platform event, returning the next state plus the
// commands to issue and the emissions to deliver. Pure: all inputs are
// explicit and no ports are touched.
func step(s State, opts Options, caps Capabilities, in stepInput) (State, []Command, []Emission) {
	switch ev := in.event.(type) {
	case FixBatch:
		return stepFixBatch(s, opts, caps, ev.Fixes, in.lastKnown)
	case RegionExit:
		return stepRegionExit(s, opts, caps, ev.Region, in.lastKnown, in.now)
	case AuthChanged:
		return stepAuthChanged(s, opts, caps, ev.Status)
	case PlatformError:
		return s, nil, []Emission{EmitError{Err: newPlatformError(ev.Code)}}
	case Paused:
		return s, nil, debugOnly(opts, "location updates paused", nil)
	case Resumed:
		return s, nil, debugOnly(opts, "location updates resumed", nil)
	}
	return s, nil, nil
}

// stepFixBatch re-evaluates the update policy for the current mode, keeps
// background monitoring armed, selects the best fix, re-arms on drift,
// and emits the best fix if one survives selection.
func stepFixBatch(s State, opts Options, caps Capabilities, fixes []domain.Fix, lastKnown *domain.Fix) (State, []Command, []Emission) {
	if !s.Started {
		return s, nil, nil
	}

	var cmds []Command
	s, cmds = reconcileUpdates(s, opts, cmds)

	if s.Mode == Background {
		if caps.SignificantChanges {
			cmds = append(cmds, StartSignificantChanges{})
		}
		if s.Armed == nil {
			s, cmds = armAt(s, opts, caps, lastKnown, cmds)
		}
	}

	best, ok := domain.SelectBest(fixes)
	if !ok {
		// Nothing good enough: no re-arm, no emission.
		return s, cmds, nil
	}

	if s.Armed != nil && !s.Armed.Contains(best.Latitude, best.Longitude) {
		// The best fix escaped the armed region before the platform's own
		// exit callback fired; re-arm at the fix to bound region staleness.
		s, cmds = armAt(s, opts, caps, &best, cmds)
	}

	emits := []Emission{EmitLocation{Fix: best}}
	emits = append(emits, debugOnly(opts, "location acquired", &best)...)
	return s, cmds, emits
}

// stepRegionExit synthesizes a fix from the last-known location, tags it
// with the exited region's radius, and re-arms at the current position.
// With no last-known location the region is disarmed and re-armed
// opportunistically on the next batch.
func stepRegionExit(s State, opts Options, caps Capabilities, region domain.Region, lastKnown *domain.Fix, now time.Time) (State, []Command, []Emission) {
	if s.Armed == nil {
		return s, nil, nil
	}

	if lastKnown == nil {
		s.Armed = nil
		return s, []Command{DisarmRegion{}}, nil
	}

	exit := *lastKnown
	exit.Radius = region.Radius
	exit.Time = now

	var cmds []Command
	s, cmds = armAt(s, opts, caps, lastKnown, cmds)

	emits := []Emission{EmitLocation{Fix: exit}}
	emits = append(emits, debugOnly(opts, "exited stationary region", &exit)...)
	return s, cmds, emits
}

// stepAuthChanged maps the new status onto a consumer scope and re-applies
// the current mode's update policy. On a denial the platform has already
// stopped delivering updates; the state mirrors that instead of issuing
// commands that would fail.
func stepAuthChanged(s State, opts Options, caps Capabilities, status AuthStatus) (State, []Command, []Emission) {
	var cmds []Command

	switch status {
	case AuthNotDetermined:
		return s, nil, nil
	case AuthDenied, AuthRestricted:
		s.Updating = false
	default:
		if s.Started {
			s, cmds = reconcileUpdates(s, opts, cmds)
		}
	}

	scope := scopeFor(status, caps)
	if s.scopeKnown && s.lastScope == scope {
		return s, cmds, nil
	}
	s.lastScope = scope
	s.scopeKnown = true
	return s, cmds, []Emission{EmitAuthorization{Scope: scope}}
}

// switchMode moves the controller between foreground and background
// acquisition, issuing the full command set for the target mode. Start
// and stop calls on the platform are idempotent, so commands are issued
// unconditionally here; only fix-batch reconciliation is change-driven.
func switchMode(s State, opts Options, caps Capabilities, mode Mode, lastKnown *domain.Fix) (State, []Command, []Emission) {
	s.Mode = mode

	var cmds []Command
	switch mode {
	case Foreground:
		if s.Armed != nil {
			s.Armed = nil
			cmds = append(cmds, DisarmRegion{})
		}
		if caps.SignificantChanges {
			cmds = append(cmds, StopSignificantChanges{})
		}
		cmds = append(cmds, StartUpdates{})
		s.Updating = true
	case Background:
		if caps.SignificantChanges {
			cmds = append(cmds, StartSignificantChanges{})
		}
		s, cmds = armAt(s, opts, caps, lastKnown, cmds)
		if opts.SaveBatteryOnBackground {
			cmds = append(cmds, StopUpdates{})
			s.Updating = false
		} else {
			cmds = append(cmds, StartUpdates{})
			s.Updating = true
		}
	}

	return s, cmds, debugOnly(opts, "acquisition mode: "+mode.String(), nil)
}

// stopProvider tears everything down and returns the controller to idle.
func stopProvider(s State, caps Capabilities) (State, []Command) {
	cmds := []Command{StopUpdates{}}
	if caps.SignificantChanges {
		cmds = append(cmds, StopSignificantChanges{})
	}
	if s.Armed != nil {
		cmds = append(cmds, DisarmRegion{})
	}
	s.Started = false
	s.Updating = false
	s.Armed = nil
	return s, cmds
}

// terminateProvider handles host-process shutdown. With stop-on-terminate
// disabled the provider parks itself: continuous updates stop but
// significant-change monitoring and a stationary region stay armed so the
// platform can re-wake it.
func terminateProvider(s State, opts Options, caps Capabilities, lastKnown *domain.Fix) (State, []Command) {
	if !s.Started || opts.StopOnTerminate {
		return stopProvider(s, caps)
	}

	cmds := []Command{StopUpdates{}}
	s.Updating = false
	if caps.SignificantChanges {
		cmds = append(cmds, StartSignificantChanges{})
	}
	s, cmds = armAt(s, opts, caps, lastKnown, cmds)
	return s, cmds
}

// reconcileUpdates aligns the continuous-update flag with the mode
// invariant, issuing a start or stop command only on change.
func reconcileUpdates(s State, opts Options, cmds []Command) (State, []Command) {
	want := s.Mode == Foreground || !opts.SaveBatteryOnBackground
	if want == s.Updating {
		return s, cmds
	}
	s.Updating = want
	if want {
		return s, append(cmds, StartUpdates{})
	}
	return s, append(cmds, StopUpdates{})
}

// armAt arms a region centered at the given fix, replacing any armed
// region. A nil center (no last-known location yet) is a silent no-op;
// arming retries on the next opportunity.
func armAt(s State, opts Options, caps Capabilities, center *domain.Fix, cmds []Command) (State, []Command) {
	if !caps.RegionMonitoring || center == nil {
		return s, cmds
	}
	r := domain.NewRegion(center.Latitude, center.Longitude, opts.StationaryRadius)
	s.Armed = &r
	return s, append(cmds, ArmRegion{Region: r})
}

func scopeFor(status AuthStatus, caps Capabilities) AuthScope {
	switch status {
	case AuthAlways:
		if caps.AlwaysAuthorization {
			return ScopeAlways
		}
		return ScopeForeground
	case AuthWhenInUse:
		return ScopeForeground
	}
	return ScopeDenied
}

func debugOnly(opts Options, msg string, fix *domain.Fix) []Emission {
	if !opts.Debug {
		return nil
	}
	return []Emission{EmitDebug{Message: msg, Fix: fix}}
}
