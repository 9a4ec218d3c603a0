package mapbox

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/location-provider-service/internal/domain"
)

// --- mock for cache tests ---

type countingGeocoder struct {
	calls  int
	result domain.Place
}

func (m *countingGeocoder) ReverseGeocode(_ context.Context, _, _ float64) (domain.Place, error) {
	m.calls++
	return m.result, nil
}

// --- CachedGeocoder tests ---

func TestCachedGeocoder_CacheHit(t *testing.T) {
	inner := &countingGeocoder{
		result: domain.Place{Name: "Drottninggatan", FormattedAddress: "Drottninggatan, Stockholm"},
	}
	cached := NewCachedGeocoder(inner, 10)

	p1, err := cached.ReverseGeocode(context.Background(), 59.3346, 18.0645)
	require.NoError(t, err)
	assert.Equal(t, "Drottninggatan", p1.Name)

	p2, err := cached.ReverseGeocode(context.Background(), 59.3346, 18.0645)
	require.NoError(t, err)
	assert.Equal(t, "Drottninggatan", p2.Name)

	assert.Equal(t, 1, inner.calls, "should only call inner once")
}

func TestCachedGeocoder_JitterCollapsesOntoOneKey(t *testing.T) {
	inner := &countingGeocoder{result: domain.Place{FormattedAddress: "Somewhere"}}
	cached := NewCachedGeocoder(inner, 10)

	// Sub-11m jitter rounds to the same four-decimal key.
	_, _ = cached.ReverseGeocode(context.Background(), 59.33461, 18.06451)
	_, _ = cached.ReverseGeocode(context.Background(), 59.33463, 18.06449)

	assert.Equal(t, 1, inner.calls)
}

func TestCachedGeocoder_DifferentCoordinatesMiss(t *testing.T) {
	inner := &countingGeocoder{result: domain.Place{FormattedAddress: "Somewhere"}}
	cached := NewCachedGeocoder(inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 59.3346, 18.0645)
	_, _ = cached.ReverseGeocode(context.Background(), 48.8566, 2.3522)

	assert.Equal(t, 2, inner.calls)
}

func TestCachedGeocoder_EmptyResultNotCached(t *testing.T) {
	inner := &countingGeocoder{}
	cached := NewCachedGeocoder(inner, 10)

	_, _ = cached.ReverseGeocode(context.Background(), 59.3346, 18.0645)
	_, _ = cached.ReverseGeocode(context.Background(), 59.3346, 18.0645)

	assert.Equal(t, 2, inner.calls, "not-found responses must be retried")
}

// --- LRU cache unit tests ---

func TestLRUCache_BasicGetPut(t *testing.T) {
	c := newLRUCache(3)

	c.put("a", domain.Place{Name: "A"})
	c.put("b", domain.Place{Name: "B"})

	place, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A", place.Name)

	_, ok = c.get("missing")
	assert.False(t, ok)
}

func TestLRUCache_Eviction(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Place{Name: "A"})
	c.put("b", domain.Place{Name: "B"})
	c.put("c", domain.Place{Name: "C"}) // evicts "a"

	_, ok := c.get("a")
	assert.False(t, ok, "a should have been evicted")

	place, ok := c.get("b")
	assert.True(t, ok)
	assert.Equal(t, "B", place.Name)

	place, ok = c.get("c")
	assert.True(t, ok)
	assert.Equal(t, "C", place.Name)
}

func TestLRUCache_AccessPromotesEntry(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Place{Name: "A"})
	c.put("b", domain.Place{Name: "B"})

	// Access "a" to promote it
	c.get("a")

	c.put("c", domain.Place{Name: "C"})

	_, ok := c.get("a")
	assert.True(t, ok, "a was accessed recently, should not be evicted")

	_, ok = c.get("b")
	assert.False(t, ok, "b should have been evicted")
}

func TestLRUCache_UpdateExisting(t *testing.T) {
	c := newLRUCache(2)

	c.put("a", domain.Place{Name: "A1"})
	c.put("a", domain.Place{Name: "A2"})

	place, ok := c.get("a")
	assert.True(t, ok)
	assert.Equal(t, "A2", place.Name)
}
