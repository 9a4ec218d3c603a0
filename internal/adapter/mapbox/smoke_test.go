//go:build mapbox

package mapbox

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// These tests hit the real Mapbox API and require a valid MAPBOX_TOKEN env var.
// Run with: go test -tags=mapbox ./internal/adapter/mapbox/ -v -count=1

func smokeClient(t *testing.T) *Client {
	t.Helper()
	token := os.Getenv("MAPBOX_TOKEN")
	if token == "" {
		t.Fatal("MAPBOX_TOKEN must be set to run smoke tests")
	}
	return &Client{
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		baseURL:    "https://api.mapbox.com/geocoding/v5/mapbox.places",
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSmoke_ReverseGeocode(t *testing.T) {
	c := smokeClient(t)

	// Central Stockholm.
	place, err := c.ReverseGeocode(context.Background(), 59.3346, 18.0645)
	require.NoError(t, err)

	assert.NotEmpty(t, place.FormattedAddress)
	assert.NotEmpty(t, place.Name)
	assert.Greater(t, place.Confidence, 0.0)
}

func TestSmoke_CachedGeocoder(t *testing.T) {
	c := smokeClient(t)
	cached := NewCachedGeocoder(c, 10)

	// First call: cache miss, real API call.
	p1, err := cached.ReverseGeocode(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)
	assert.NotEmpty(t, p1.FormattedAddress)

	// Second call: cache hit, no API call.
	p2, err := cached.ReverseGeocode(context.Background(), 48.8566, 2.3522)
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}
