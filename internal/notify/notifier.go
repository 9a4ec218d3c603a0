// Package notify implements the debug notification side channel: a
// human-readable trace of what each controller decided, optionally
// enriched with a reverse-geocoded place name.
package notify

import (
	"context"
	"log/slog"

	"github.com/couchcryptid/location-provider-service/internal/domain"
)

// Notifier logs debug notifications. When a geocoder is attached, fixes
// are annotated with the place they resolve to; lookup failures degrade
// to the plain notification.
// It implements provider.DebugNotifier.
type Notifier struct {
	logger   *slog.Logger
	geocoder domain.Geocoder // may be nil
}

// New creates a Notifier writing to the given logger. geocoder may be
// nil to skip place enrichment.
func New(logger *slog.Logger, geocoder domain.Geocoder) *Notifier {
	return &Notifier{logger: logger, geocoder: geocoder}
}

func (n *Notifier) Notify(ctx context.Context, message string, fix *domain.Fix) {
	if fix == nil {
		n.logger.Debug("provider debug", "message", message)
		return
	}

	attrs := []any{
		"message", message,
		"lat", fix.Latitude,
		"lon", fix.Longitude,
		"accuracy", fix.Accuracy,
	}
	if n.geocoder != nil {
		place, err := n.geocoder.ReverseGeocode(ctx, fix.Latitude, fix.Longitude)
		switch {
		case err != nil:
			n.logger.Debug("reverse geocode failed", "error", err)
		case place.FormattedAddress != "":
			attrs = append(attrs, "place", place.FormattedAddress)
		}
	}
	n.logger.Debug("provider debug", attrs...)
}
