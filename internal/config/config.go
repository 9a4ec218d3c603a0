package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers      []string
	KafkaSourceTopic  string
	KafkaSinkTopic    string
	KafkaCommandTopic string
	KafkaGroupID      string
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	ShutdownTimeout   time.Duration

	// Path of the bbolt file holding each device's last reported fix.
	StorePath string

	// Mapbox geocoding configuration (debug notifications only).
	MapboxToken     string
	MapboxEnabled   bool
	MapboxTimeout   time.Duration
	MapboxCacheSize int

	// Default provider options applied to a device until its gateway
	// sends a configure operation.
	StationaryRadius        float64
	DistanceFilter          float64
	DesiredAccuracy         string
	ActivityType            string
	SaveBatteryOnBackground bool
	StopOnTerminate         bool
	Debug                   bool
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}
	mapboxTimeout, err := parseDuration("MAPBOX_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}
	stationaryRadius, err := parseFloat("STATIONARY_RADIUS", 50)
	if err != nil {
		return nil, err
	}
	distanceFilter, err := parseFloat("DISTANCE_FILTER", 500)
	if err != nil {
		return nil, err
	}

	mapboxToken := os.Getenv("MAPBOX_TOKEN")
	mapboxEnabled := mapboxToken != ""
	if v := os.Getenv("MAPBOX_ENABLED"); v != "" {
		mapboxEnabled = v == "true"
	}

	cfg := &Config{
		KafkaBrokers:      parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:  envOrDefault("KAFKA_SOURCE_TOPIC", "device-location-events"),
		KafkaSinkTopic:    envOrDefault("KAFKA_SINK_TOPIC", "filtered-locations"),
		KafkaCommandTopic: envOrDefault("KAFKA_COMMAND_TOPIC", "device-location-commands"),
		KafkaGroupID:      envOrDefault("KAFKA_GROUP_ID", "location-provider"),
		HTTPAddr:          envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:          envOrDefault("LOG_LEVEL", "info"),
		LogFormat:         envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout:   shutdownTimeout,

		StorePath: envOrDefault("STORE_PATH", "lastfix.db"),

		MapboxToken:     mapboxToken,
		MapboxEnabled:   mapboxEnabled,
		MapboxTimeout:   mapboxTimeout,
		MapboxCacheSize: parseCacheSize(),

		StationaryRadius:        stationaryRadius,
		DistanceFilter:          distanceFilter,
		DesiredAccuracy:         envOrDefault("DESIRED_ACCURACY", "medium"),
		ActivityType:            envOrDefault("ACTIVITY_TYPE", "other"),
		SaveBatteryOnBackground: os.Getenv("SAVE_BATTERY_ON_BACKGROUND") == "true",
		StopOnTerminate:         envOrDefault("STOP_ON_TERMINATE", "true") == "true",
		Debug:                   os.Getenv("DEBUG") == "true",
	}

	if len(cfg.KafkaBrokers) == 0 {
		return nil, errors.New("KAFKA_BROKERS is required")
	}
	if cfg.KafkaSourceTopic == "" {
		return nil, errors.New("KAFKA_SOURCE_TOPIC is required")
	}
	if cfg.KafkaSinkTopic == "" {
		return nil, errors.New("KAFKA_SINK_TOPIC is required")
	}
	if cfg.KafkaCommandTopic == "" {
		return nil, errors.New("KAFKA_COMMAND_TOPIC is required")
	}
	if cfg.StationaryRadius <= 0 {
		return nil, errors.New("STATIONARY_RADIUS must be positive")
	}
	if cfg.DistanceFilter < 0 {
		return nil, errors.New("DISTANCE_FILTER must not be negative")
	}
	if cfg.MapboxEnabled && cfg.MapboxToken == "" {
		return nil, errors.New("MAPBOX_ENABLED is true but MAPBOX_TOKEN is not set")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key string, fallback time.Duration) (time.Duration, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseFloat(key string, fallback float64) (float64, error) {
	s := os.Getenv(key)
	if s == "" {
		return fallback, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return f, nil
}

func parseCacheSize() int {
	if s := os.Getenv("MAPBOX_CACHE_SIZE"); s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			return n
		}
	}
	return 1000
}
