package engine

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/provider"
)

// CommandBus publishes platform commands back to a device gateway.
type CommandBus interface {
	Publish(ctx context.Context, deviceID string, cmd provider.Command) error
}

// LastFixStore persists each device's most recent raw fix.
type LastFixStore interface {
	PutLastFix(deviceID string, fix domain.Fix) error
	LastFix(deviceID string) (domain.Fix, bool, error)
}

// DevicePlatform is the service-side stand-in for a remote device's
// location subsystem: commands go out on the command bus, while the two
// synchronous queries are answered from what the gateway has reported so
// far. It implements provider.Platform and Observer.
type DevicePlatform struct {
	deviceID string
	bus      CommandBus
	store    LastFixStore
	auth     provider.AuthStatus
	logger   *slog.Logger
}

// NewDevicePlatform builds the platform stand-in for one device. The
// authorization status starts as not-determined until the gateway reports
// otherwise.
func NewDevicePlatform(deviceID string, bus CommandBus, store LastFixStore, logger *slog.Logger) *DevicePlatform {
	return &DevicePlatform{
		deviceID: deviceID,
		bus:      bus,
		store:    store,
		logger:   logger.With("device_id", deviceID),
	}
}

// Issue publishes the command to the device gateway. Fire-and-forget:
// publish failures are logged, and the gateway's retry/reconnect logic is
// the recovery path.
func (p *DevicePlatform) Issue(ctx context.Context, cmd provider.Command) {
	if err := p.bus.Publish(ctx, p.deviceID, cmd); err != nil {
		p.logger.Warn("command publish failed", "command", cmd.CommandName(), "error", err)
	}
}

// LastKnownLocation returns the most recent raw fix the gateway reported,
// if any.
func (p *DevicePlatform) LastKnownLocation() (domain.Fix, bool) {
	fix, ok, err := p.store.LastFix(p.deviceID)
	if err != nil {
		p.logger.Warn("last fix lookup failed", "error", err)
		return domain.Fix{}, false
	}
	return fix, ok
}

// AuthorizationStatus returns the most recently observed grant.
func (p *DevicePlatform) AuthorizationStatus() provider.AuthStatus {
	return p.auth
}

// ObserveFixes records the newest timestamped fix of a delivered batch as
// the device's last-known location.
func (p *DevicePlatform) ObserveFixes(fixes []domain.Fix) {
	var latest *domain.Fix
	for i := range fixes {
		f := &fixes[i]
		if !f.HasTime() {
			continue
		}
		if latest == nil || f.Time.After(latest.Time) {
			latest = f
		}
	}
	if latest == nil {
		return
	}
	if err := p.store.PutLastFix(p.deviceID, *latest); err != nil {
		p.logger.Warn("last fix persist failed", "error", err)
	}
}

// ObserveAuth records the authorization status the gateway reported.
func (p *DevicePlatform) ObserveAuth(status provider.AuthStatus) {
	p.auth = status
}
