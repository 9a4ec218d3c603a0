package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "device-location-events", cfg.KafkaSourceTopic)
	assert.Equal(t, "filtered-locations", cfg.KafkaSinkTopic)
	assert.Equal(t, "device-location-commands", cfg.KafkaCommandTopic)
	assert.Equal(t, "location-provider", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "lastfix.db", cfg.StorePath)
	assert.False(t, cfg.MapboxEnabled)
	assert.Equal(t, 5*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 1000, cfg.MapboxCacheSize)
	assert.Equal(t, 50.0, cfg.StationaryRadius)
	assert.Equal(t, 500.0, cfg.DistanceFilter)
	assert.Equal(t, "medium", cfg.DesiredAccuracy)
	assert.Equal(t, "other", cfg.ActivityType)
	assert.False(t, cfg.SaveBatteryOnBackground)
	assert.True(t, cfg.StopOnTerminate)
	assert.False(t, cfg.Debug)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_COMMAND_TOPIC", "custom-commands")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("STORE_PATH", "/var/lib/providerd/lastfix.db")
	t.Setenv("MAPBOX_TOKEN", "pk.test-token")
	t.Setenv("MAPBOX_TIMEOUT", "10s")
	t.Setenv("MAPBOX_CACHE_SIZE", "500")
	t.Setenv("STATIONARY_RADIUS", "120")
	t.Setenv("DISTANCE_FILTER", "250")
	t.Setenv("DESIRED_ACCURACY", "high")
	t.Setenv("ACTIVITY_TYPE", "fitness")
	t.Setenv("SAVE_BATTERY_ON_BACKGROUND", "true")
	t.Setenv("STOP_ON_TERMINATE", "false")
	t.Setenv("DEBUG", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-commands", cfg.KafkaCommandTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, "/var/lib/providerd/lastfix.db", cfg.StorePath)
	assert.True(t, cfg.MapboxEnabled)
	assert.Equal(t, "pk.test-token", cfg.MapboxToken)
	assert.Equal(t, 10*time.Second, cfg.MapboxTimeout)
	assert.Equal(t, 500, cfg.MapboxCacheSize)
	assert.Equal(t, 120.0, cfg.StationaryRadius)
	assert.Equal(t, 250.0, cfg.DistanceFilter)
	assert.Equal(t, "high", cfg.DesiredAccuracy)
	assert.Equal(t, "fitness", cfg.ActivityType)
	assert.True(t, cfg.SaveBatteryOnBackground)
	assert.False(t, cfg.StopOnTerminate)
	assert.True(t, cfg.Debug)
}

func TestLoad_MapboxDisabledDespiteToken(t *testing.T) {
	t.Setenv("MAPBOX_TOKEN", "pk.test-token")
	t.Setenv("MAPBOX_ENABLED", "false")

	cfg, err := Load()
	require.NoError(t, err)
	assert.False(t, cfg.MapboxEnabled)
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"bad shutdown timeout", "SHUTDOWN_TIMEOUT", "soon"},
		{"negative shutdown timeout", "SHUTDOWN_TIMEOUT", "-5s"},
		{"bad stationary radius", "STATIONARY_RADIUS", "wide"},
		{"zero stationary radius", "STATIONARY_RADIUS", "0"},
		{"negative distance filter", "DISTANCE_FILTER", "-1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)

			_, err := Load()
			assert.Error(t, err)
		})
	}
}
