package provider

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/observability"
)

// Platform executes controller commands against the device's location
// subsystem and answers the two synchronous queries the controller needs.
// Issue is fire-and-forget: delivery failures are the platform's problem
// and surface, if at all, as later error events.
type Platform interface {
	Issue(ctx context.Context, cmd Command)
	LastKnownLocation() (domain.Fix, bool)
	AuthorizationStatus() AuthStatus
}

// Consumer receives the provider's outputs. Delivery errors are logged
// and counted but never change controller state.
type Consumer interface {
	OnLocation(ctx context.Context, fix domain.Fix) error
	OnAuthorization(ctx context.Context, scope AuthScope) error
	OnError(ctx context.Context, err error) error
}

// DebugNotifier receives the optional human-readable debug side channel.
type DebugNotifier interface {
	Notify(ctx context.Context, message string, fix *domain.Fix)
}

// Controller drives the acquisition-mode state machine for one device.
// It performs no locking: callers must deliver lifecycle calls and events
// from a single goroutine, matching the serialized callback queue the
// platform guarantees.
type Controller struct {
	id    string
	state State
	opts  Options
	caps  Capabilities

	platform Platform
	consumer Consumer
	debug    DebugNotifier // may be nil

	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewController builds an idle controller for one device with default
// options.
func NewController(id string, platform Platform, consumer Consumer, caps Capabilities, logger *slog.Logger, metrics *observability.Metrics) *Controller {
	return &Controller{
		id:       id,
		opts:     DefaultOptions(),
		caps:     caps,
		platform: platform,
		consumer: consumer,
		logger:   logger.With("device_id", id),
		metrics:  metrics,
	}
}

// SetDebugNotifier attaches the debug side channel. Notifications are
// produced only while the debug option is enabled.
func (c *Controller) SetDebugNotifier(n DebugNotifier) { c.debug = n }

// ID returns the device identifier this controller serves.
func (c *Controller) ID() string { return c.id }

// Mode returns the current acquisition mode.
func (c *Controller) Mode() Mode { return c.state.Mode }

// Started reports whether the provider is running.
func (c *Controller) Started() bool { return c.state.Started }

// Configure replaces the provider tunables. Safe at any time; the new
// options take effect from the next transition.
func (c *Controller) Configure(opts Options) error {
	if err := opts.Validate(); err != nil {
		return fmt.Errorf("configure provider: %w", err)
	}
	c.opts = opts
	c.logger.Info("provider configured",
		"stationary_radius", opts.StationaryRadius,
		"distance_filter", opts.DistanceFilter,
		"desired_accuracy", opts.DesiredAccuracy.String(),
		"save_battery_on_background", opts.SaveBatteryOnBackground,
		"stop_on_terminate", opts.StopOnTerminate,
		"debug", opts.Debug,
	)
	return nil
}

// Start begins acquisition in foreground mode. Refused synchronously when
// the platform reports the permission as denied or restricted. With the
// permission not yet determined, start proceeds optimistically so the
// platform can show its consent prompt; the outcome arrives later as an
// AuthChanged event. Idempotent.
func (c *Controller) Start(ctx context.Context) error {
	if c.state.Started {
		return nil
	}

	switch c.platform.AuthorizationStatus() {
	case AuthDenied:
		return fmt.Errorf("start provider: %w", ErrPermissionDenied)
	case AuthRestricted:
		return fmt.Errorf("start provider: %w", ErrPermissionRestricted)
	case AuthNotDetermined:
		c.issue(ctx, RequestAuthorization{})
	}

	c.state.Started = true
	c.logger.Info("provider started")
	s, cmds, emits := switchMode(c.state, c.opts, c.caps, Foreground, c.lastKnown())
	c.apply(ctx, s, cmds, emits)
	return nil
}

// Stop halts acquisition, disarms monitoring, and returns to idle.
// Idempotent.
func (c *Controller) Stop(ctx context.Context) {
	if !c.state.Started {
		return
	}
	s, cmds := stopProvider(c.state, c.caps)
	c.apply(ctx, s, cmds, nil)
	c.logger.Info("provider stopped")
}

// SwitchMode toggles between foreground and background acquisition. The
// mode is recorded even when idle and takes effect at the next Start.
func (c *Controller) SwitchMode(ctx context.Context, mode Mode) {
	if !c.state.Started {
		c.state.Mode = mode
		return
	}
	s, cmds, emits := switchMode(c.state, c.opts, c.caps, mode, c.lastKnown())
	c.apply(ctx, s, cmds, emits)
	c.logger.Info("mode switched", "mode", mode.String())
}

// Terminate handles host-process shutdown: with stop-on-terminate
// disabled the provider keeps significant-change monitoring and a
// stationary region armed as wake triggers.
func (c *Controller) Terminate(ctx context.Context) {
	s, cmds := terminateProvider(c.state, c.opts, c.caps, c.lastKnown())
	c.apply(ctx, s, cmds, nil)
	c.logger.Info("provider terminated", "parked", s.Started)
}

// Destroy is equivalent to Stop.
func (c *Controller) Destroy(ctx context.Context) {
	c.Stop(ctx)
}

// HandleEvent dispatches one platform callback through the transition
// table.
func (c *Controller) HandleEvent(ctx context.Context, ev Event) {
	if fb, ok := ev.(FixBatch); ok {
		c.metrics.FixesReceived.Add(float64(len(fb.Fixes)))
	}
	if _, ok := ev.(RegionExit); ok {
		c.metrics.RegionExits.Inc()
	}

	in := stepInput{event: ev, lastKnown: c.lastKnown(), now: domain.Now()}
	s, cmds, emits := step(c.state, c.opts, c.caps, in)
	c.apply(ctx, s, cmds, emits)
}

func (c *Controller) lastKnown() *domain.Fix {
	fix, ok := c.platform.LastKnownLocation()
	if !ok {
		return nil
	}
	return &fix
}

// apply commits the next state, then executes commands against the
// platform and emissions against the consumer, in that order.
func (c *Controller) apply(ctx context.Context, s State, cmds []Command, emits []Emission) {
	c.state = s

	for _, cmd := range cmds {
		c.issue(ctx, cmd)
	}
	for _, em := range emits {
		c.deliver(ctx, em)
	}
}

func (c *Controller) issue(ctx context.Context, cmd Command) {
	c.platform.Issue(ctx, cmd)
	c.metrics.CommandsIssued.WithLabelValues(cmd.CommandName()).Inc()
	if _, ok := cmd.(ArmRegion); ok {
		c.metrics.RegionsArmed.Inc()
	}
	c.logger.Debug("command issued", "command", cmd.CommandName())
}

func (c *Controller) deliver(ctx context.Context, em Emission) {
	var err error
	switch e := em.(type) {
	case EmitLocation:
		c.metrics.FixesEmitted.Inc()
		err = c.consumer.OnLocation(ctx, e.Fix)
	case EmitAuthorization:
		c.metrics.AuthorizationChanges.WithLabelValues(e.Scope.String()).Inc()
		err = c.consumer.OnAuthorization(ctx, e.Scope)
	case EmitError:
		c.metrics.PlatformErrors.Inc()
		err = c.consumer.OnError(ctx, e.Err)
	case EmitDebug:
		if c.debug != nil {
			c.debug.Notify(ctx, e.Message, e.Fix)
		}
		return
	}
	if err != nil {
		c.metrics.EmissionFailures.Inc()
		c.logger.Warn("emission delivery failed", "error", err)
	}
}
