package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/location-provider-service/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/location-provider-service/internal/adapter/kafka"
	"github.com/couchcryptid/location-provider-service/internal/adapter/mapbox"
	"github.com/couchcryptid/location-provider-service/internal/config"
	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/engine"
	"github.com/couchcryptid/location-provider-service/internal/notify"
	"github.com/couchcryptid/location-provider-service/internal/observability"
	"github.com/couchcryptid/location-provider-service/internal/provider"
	"github.com/couchcryptid/location-provider-service/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	defaults, err := defaultOptions(cfg)
	if err != nil {
		logger.Error("invalid provider defaults", "error", err)
		os.Exit(1)
	}

	lastFixes, err := store.Open(cfg.StorePath)
	if err != nil {
		logger.Error("failed to open last-fix store", "error", err)
		os.Exit(1)
	}

	// Initialize geocoder (feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN).
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}
	notifier := notify.New(logger, geocoder)

	reader := kafkaadapter.NewReader(cfg, logger, metrics)
	sink := kafkaadapter.NewSink(cfg, logger)
	commands := kafkaadapter.NewCommandWriter(cfg, logger)

	factory := func(deviceID string) engine.Session {
		platform := engine.NewDevicePlatform(deviceID, commands, lastFixes, logger)
		ctrl := provider.NewController(deviceID, platform, sink.ForDevice(deviceID),
			provider.DefaultCapabilities(), logger, metrics)
		if err := ctrl.Configure(defaults); err != nil {
			logger.Error("default options rejected", "device_id", deviceID, "error", err)
		}
		ctrl.SetDebugNotifier(notifier)
		return engine.Session{Controller: ctrl, Observer: platform}
	}

	e := engine.New(reader, factory, logger, metrics)

	srv := httpadapter.NewServer(cfg.HTTPAddr, e, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start event loop.
	go func() {
		if err := e.Run(ctx); err != nil {
			logger.Error("engine error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := sink.Close(); err != nil {
		logger.Error("kafka sink close error", "error", err)
	}
	if err := commands.Close(); err != nil {
		logger.Error("kafka command writer close error", "error", err)
	}
	if err := lastFixes.Close(); err != nil {
		logger.Error("last-fix store close error", "error", err)
	}

	logger.Info("shutdown complete")
}

// defaultOptions maps config defaults onto provider options. They apply
// to every device until its gateway sends a configure operation.
func defaultOptions(cfg *config.Config) (provider.Options, error) {
	accuracy, err := provider.ParseAccuracy(cfg.DesiredAccuracy)
	if err != nil {
		return provider.Options{}, err
	}
	activity, err := provider.ParseActivityType(cfg.ActivityType)
	if err != nil {
		return provider.Options{}, err
	}

	opts := provider.DefaultOptions()
	opts.DesiredAccuracy = accuracy
	opts.ActivityType = activity
	opts.StationaryRadius = cfg.StationaryRadius
	opts.DistanceFilter = cfg.DistanceFilter
	opts.SaveBatteryOnBackground = cfg.SaveBatteryOnBackground
	opts.StopOnTerminate = cfg.StopOnTerminate
	opts.Debug = cfg.Debug
	return opts, opts.Validate()
}
