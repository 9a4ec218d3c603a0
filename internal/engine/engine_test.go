package engine_test

import (
	"context"
	"io"
	"log/slog"
	"sync/atomic"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/engine"
	"github.com/couchcryptid/location-provider-service/internal/observability"
	"github.com/couchcryptid/location-provider-service/internal/provider"
)

var engineNow = time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC)

// --- mocks ---

type mockSource struct {
	events []engine.DeviceEvent
	index  atomic.Int64
}

func (m *mockSource) Next(ctx context.Context) (engine.DeviceEvent, error) {
	i := int(m.index.Add(1) - 1)
	if i >= len(m.events) {
		// block until context cancelled to simulate waiting for messages
		<-ctx.Done()
		return engine.DeviceEvent{}, ctx.Err()
	}
	return m.events[i], nil
}

type memoryStore struct {
	fixes map[string]domain.Fix
}

func newMemoryStore() *memoryStore { return &memoryStore{fixes: make(map[string]domain.Fix)} }

func (s *memoryStore) PutLastFix(deviceID string, fix domain.Fix) error {
	s.fixes[deviceID] = fix
	return nil
}

func (s *memoryStore) LastFix(deviceID string) (domain.Fix, bool, error) {
	fix, ok := s.fixes[deviceID]
	return fix, ok, nil
}

type recordingBus struct {
	published []string // "deviceID/command"
}

func (b *recordingBus) Publish(_ context.Context, deviceID string, cmd provider.Command) error {
	b.published = append(b.published, deviceID+"/"+cmd.CommandName())
	return nil
}

type recordingConsumer struct {
	locations []domain.Fix
}

func (c *recordingConsumer) OnLocation(_ context.Context, fix domain.Fix) error {
	c.locations = append(c.locations, fix)
	return nil
}

func (c *recordingConsumer) OnAuthorization(context.Context, provider.AuthScope) error { return nil }
func (c *recordingConsumer) OnError(context.Context, error) error                      { return nil }

type testHarness struct {
	store    *memoryStore
	bus      *recordingBus
	consumer *recordingConsumer
	created  int
}

func newHarness(t *testing.T) *testHarness {
	t.Helper()
	domain.SetClock(clockwork.NewFakeClockAt(engineNow))
	t.Cleanup(func() { domain.SetClock(nil) })
	return &testHarness{
		store:    newMemoryStore(),
		bus:      &recordingBus{},
		consumer: &recordingConsumer{},
	}
}

func (h *testHarness) factory(logger *slog.Logger, metrics *observability.Metrics) engine.SessionFactory {
	return func(deviceID string) engine.Session {
		h.created++
		platform := engine.NewDevicePlatform(deviceID, h.bus, h.store, logger)
		caps := provider.DefaultCapabilities()
		ctrl := provider.NewController(deviceID, platform, h.consumer, caps, logger, metrics)
		return engine.Session{Controller: ctrl, Observer: platform}
	}
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func startOp() *engine.LifecycleOp { return &engine.LifecycleOp{Kind: engine.OpStart} }

func freshFix(lat, lon float64) domain.Fix {
	return domain.Fix{Latitude: lat, Longitude: lon, Accuracy: 10, Time: engineNow.Add(-time.Second)}
}

func runEngine(t *testing.T, e *engine.Engine) {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()
	require.NoError(t, e.Run(ctx))
}

// --- tests ---

func TestRun_StartThenFixBatchEmits(t *testing.T) {
	h := newHarness(t)
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	committed := 0
	src := &mockSource{events: []engine.DeviceEvent{
		{DeviceID: "dev-1", Op: startOp()},
		{
			DeviceID: "dev-1",
			Event:    provider.FixBatch{Fixes: []domain.Fix{freshFix(59, 18)}},
			Commit: func(context.Context) error {
				committed++
				return nil
			},
		},
	}}

	e := engine.New(src, h.factory(logger, metrics), logger, metrics)
	runEngine(t, e)

	require.Len(t, h.consumer.locations, 1)
	assert.Equal(t, 59.0, h.consumer.locations[0].Latitude)
	assert.Equal(t, 1, committed)
	assert.NoError(t, e.CheckReadiness(context.Background()))
}

func TestRun_ContextCancellation(t *testing.T) {
	h := newHarness(t)
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	e := engine.New(&mockSource{}, h.factory(logger, metrics), logger, metrics)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	require.NoError(t, e.Run(ctx))
	assert.Empty(t, h.consumer.locations)
	assert.Error(t, e.CheckReadiness(context.Background()))
}

func TestRun_OneSessionPerDevice(t *testing.T) {
	h := newHarness(t)
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	src := &mockSource{events: []engine.DeviceEvent{
		{DeviceID: "dev-1", Op: startOp()},
		{DeviceID: "dev-2", Op: startOp()},
		{DeviceID: "dev-1", Event: provider.FixBatch{Fixes: []domain.Fix{freshFix(59, 18)}}},
		{DeviceID: "dev-2", Event: provider.FixBatch{Fixes: []domain.Fix{freshFix(48, 2)}}},
	}}

	e := engine.New(src, h.factory(logger, metrics), logger, metrics)
	runEngine(t, e)

	assert.Equal(t, 2, h.created)
	assert.Len(t, h.consumer.locations, 2)
}

func TestRun_ObservedFixBacksRegionArming(t *testing.T) {
	h := newHarness(t)
	logger := discardLogger()
	metrics := observability.NewMetricsForTesting()

	src := &mockSource{events: []engine.DeviceEvent{
		{DeviceID: "dev-1", Op: startOp()},
		{DeviceID: "dev-1", Event: provider.FixBatch{Fixes: []domain.Fix{freshFix(59, 18)}}},
		{DeviceID: "dev-1", Op: &engine.LifecycleOp{Kind: engine.OpSwitchMode, Mode: provider.Background}},
	}}

	e := engine.New(src, h.factory(logger, metrics), logger, metrics)
	runEngine(t, e)

	// The fix observed before the mode switch provides the arming center.
	assert.Contains(t, h.bus.published, "dev-1/arm_region")
}

func TestDevicePlatform_ObserveFixesKeepsNewest(t *testing.T) {
	h := newHarness(t)
	platform := engine.NewDevicePlatform("dev-1", h.bus, h.store, discardLogger())

	older := freshFix(10, 10)
	older.Time = engineNow.Add(-time.Minute)
	newest := freshFix(20, 20)
	untimed := domain.Fix{Latitude: 30, Longitude: 30, Accuracy: 5}

	platform.ObserveFixes([]domain.Fix{older, newest, untimed})

	fix, ok := platform.LastKnownLocation()
	require.True(t, ok)
	assert.Equal(t, 20.0, fix.Latitude)
}

func TestDevicePlatform_AuthDefaultsToNotDetermined(t *testing.T) {
	h := newHarness(t)
	platform := engine.NewDevicePlatform("dev-1", h.bus, h.store, discardLogger())

	assert.Equal(t, provider.AuthNotDetermined, platform.AuthorizationStatus())

	platform.ObserveAuth(provider.AuthAlways)
	assert.Equal(t, provider.AuthAlways, platform.AuthorizationStatus())
}
