// Package engine runs the serialized acquisition loop: it pulls device
// events off a source, routes each one to that device's controller, and
// commits the event once handled. Controllers are never touched from more
// than one goroutine because the loop itself is single-threaded; per-device
// ordering is the source's responsibility (the Kafka source keys messages
// by device id).
package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/observability"
	"github.com/couchcryptid/location-provider-service/internal/provider"
)

// LifecycleKind identifies a provider lifecycle operation requested by a
// device gateway.
type LifecycleKind int

const (
	OpConfigure LifecycleKind = iota
	OpStart
	OpStop
	OpSwitchMode
	OpTerminate
	OpDestroy
)

func (k LifecycleKind) String() string {
	switch k {
	case OpConfigure:
		return "configure"
	case OpStart:
		return "start"
	case OpStop:
		return "stop"
	case OpSwitchMode:
		return "switch_mode"
	case OpTerminate:
		return "terminate"
	case OpDestroy:
		return "destroy"
	}
	return "unknown"
}

// LifecycleOp is one provider lifecycle request.
type LifecycleOp struct {
	Kind    LifecycleKind
	Mode    provider.Mode     // OpSwitchMode only
	Options *provider.Options // OpConfigure only
}

// DeviceEvent is one message from a device gateway: either a platform
// callback or a lifecycle operation, never both.
type DeviceEvent struct {
	DeviceID string
	Event    provider.Event
	Op       *LifecycleOp
	Commit   func(ctx context.Context) error
}

// Source delivers device events in arrival order. Next blocks until an
// event is available or the context is cancelled.
type Source interface {
	Next(ctx context.Context) (DeviceEvent, error)
}

// Observer records gateway-reported platform state ahead of dispatch so
// the controller's synchronous queries (last-known location,
// authorization status) have answers.
type Observer interface {
	ObserveFixes(fixes []domain.Fix)
	ObserveAuth(status provider.AuthStatus)
}

// Session couples a device's controller with its platform observer.
type Session struct {
	Controller *provider.Controller
	Observer   Observer
}

// SessionFactory builds the session for a device the first time the
// engine sees its id.
type SessionFactory func(deviceID string) Session

// Engine orchestrates the event loop across all devices.
type Engine struct {
	source   Source
	factory  SessionFactory
	sessions map[string]Session
	logger   *slog.Logger
	metrics  *observability.Metrics
	ready    atomic.Bool
}

// New creates an Engine with the given source and session factory.
func New(source Source, factory SessionFactory, logger *slog.Logger, metrics *observability.Metrics) *Engine {
	return &Engine{
		source:   source,
		factory:  factory,
		sessions: make(map[string]Session),
		logger:   logger,
		metrics:  metrics,
	}
}

// CheckReadiness returns nil once the engine has handled at least one
// event, or an error describing why the service is not yet ready.
func (e *Engine) CheckReadiness(_ context.Context) error {
	if !e.ready.Load() {
		return errors.New("engine has not handled any events yet")
	}
	return nil
}

// Run executes the event loop until the context is cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.logger.Info("engine started")
	e.metrics.EngineRunning.Set(1)
	defer e.metrics.EngineRunning.Set(0)

	// Exponential backoff: start at 200ms, double each retry, cap at 5s.
	// Keeps retry storms short while avoiding tight loops during broker
	// outages.
	backoff := 200 * time.Millisecond
	const maxBackoff = 5 * time.Second

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine stopping", "reason", ctx.Err())
			return nil
		default:
		}

		ev, err := e.source.Next(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			e.logger.Error("source next failed", "error", err)
			if !sleepWithContext(ctx, backoff) {
				return nil
			}
			backoff = nextBackoff(backoff, maxBackoff)
			continue
		}
		backoff = 200 * time.Millisecond

		e.handle(ctx, ev)
		e.commit(ctx, ev)
		e.ready.Store(true)
	}
}

func (e *Engine) handle(ctx context.Context, ev DeviceEvent) {
	start := time.Now()
	sess := e.session(ev.DeviceID)

	switch {
	case ev.Op != nil:
		e.handleOp(ctx, sess, ev.DeviceID, *ev.Op)
	case ev.Event != nil:
		e.metrics.EventsConsumed.WithLabelValues(ev.Event.EventName()).Inc()
		e.observe(sess, ev.Event)
		sess.Controller.HandleEvent(ctx, ev.Event)
	default:
		e.logger.Warn("empty device event", "device_id", ev.DeviceID)
	}

	e.metrics.EventHandlingDuration.Observe(time.Since(start).Seconds())
}

func (e *Engine) handleOp(ctx context.Context, sess Session, deviceID string, op LifecycleOp) {
	e.logger.Info("lifecycle operation", "device_id", deviceID, "op", op.Kind.String())

	switch op.Kind {
	case OpConfigure:
		if op.Options == nil {
			e.logger.Warn("configure without options", "device_id", deviceID)
			return
		}
		if err := sess.Controller.Configure(*op.Options); err != nil {
			e.logger.Warn("configure rejected", "device_id", deviceID, "error", err)
		}
	case OpStart:
		if err := sess.Controller.Start(ctx); err != nil {
			e.logger.Warn("start refused", "device_id", deviceID, "error", err)
		}
	case OpStop:
		sess.Controller.Stop(ctx)
	case OpSwitchMode:
		sess.Controller.SwitchMode(ctx, op.Mode)
	case OpTerminate:
		sess.Controller.Terminate(ctx)
	case OpDestroy:
		sess.Controller.Destroy(ctx)
	}
}

// observe feeds gateway-reported state to the platform stand-in before
// the controller consults it during dispatch.
func (e *Engine) observe(sess Session, ev provider.Event) {
	if sess.Observer == nil {
		return
	}
	switch v := ev.(type) {
	case provider.FixBatch:
		sess.Observer.ObserveFixes(v.Fixes)
	case provider.AuthChanged:
		sess.Observer.ObserveAuth(v.Status)
	}
}

func (e *Engine) session(deviceID string) Session {
	if sess, ok := e.sessions[deviceID]; ok {
		return sess
	}
	sess := e.factory(deviceID)
	e.sessions[deviceID] = sess
	e.metrics.ControllersActive.Set(float64(len(e.sessions)))
	e.logger.Info("device session created", "device_id", deviceID)
	return sess
}

func (e *Engine) commit(ctx context.Context, ev DeviceEvent) {
	if ev.Commit == nil {
		return
	}
	if err := ev.Commit(ctx); err != nil {
		e.logger.Warn("commit failed", "device_id", ev.DeviceID, "error", err)
	}
}

func nextBackoff(current, maxBackoff time.Duration) time.Duration {
	next := current * 2
	if next > maxBackoff {
		return maxBackoff
	}
	return next
}

func sleepWithContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return true
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
