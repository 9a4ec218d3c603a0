package kafka

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/engine"
	"github.com/couchcryptid/location-provider-service/internal/provider"
)

// envelope is the wire form shared by all three topics. Source messages
// carry a platform callback or a lifecycle operation; sink and command
// messages carry the outbound counterparts. The type field matches the
// provider's event and command names.
type envelope struct {
	DeviceID string `json:"device_id"`
	Type     string `json:"type"`

	Fixes  []wireFix      `json:"fixes,omitempty"`
	Region *domain.Region `json:"region,omitempty"`
	Status string         `json:"status,omitempty"`
	Code   int            `json:"code,omitempty"`

	Mode    string       `json:"mode,omitempty"`
	Options *wireOptions `json:"options,omitempty"`

	Fix     *domain.Fix `json:"fix,omitempty"`
	Scope   string      `json:"scope,omitempty"`
	Kind    string      `json:"kind,omitempty"`
	Message string      `json:"message,omitempty"`
}

// wireFix is a raw device fix as gateways report it. Accuracy is a
// pointer so a missing field maps to the unknown-accuracy sentinel
// instead of a fake perfect fix.
type wireFix struct {
	Latitude  float64    `json:"lat"`
	Longitude float64    `json:"lon"`
	Accuracy  *float64   `json:"accuracy,omitempty"`
	Altitude  float64    `json:"altitude,omitempty"`
	Speed     float64    `json:"speed,omitempty"`
	Bearing   float64    `json:"bearing,omitempty"`
	Time      *time.Time `json:"time,omitempty"`
}

func (w wireFix) toDomain() domain.Fix {
	fix := domain.Fix{
		Latitude:  w.Latitude,
		Longitude: w.Longitude,
		Accuracy:  domain.UnknownAccuracy,
		Altitude:  w.Altitude,
		Speed:     w.Speed,
		Bearing:   w.Bearing,
	}
	if w.Accuracy != nil && *w.Accuracy >= 0 {
		fix.Accuracy = *w.Accuracy
	}
	if w.Time != nil {
		fix.Time = w.Time.UTC()
	}
	return fix
}

// wireOptions is the configure payload. Pointer fields distinguish
// "omitted, keep the default" from an explicit zero.
type wireOptions struct {
	PauseUpdatesAutomatically bool     `json:"pause_updates_automatically,omitempty"`
	ActivityType              string   `json:"activity_type,omitempty"`
	DistanceFilter            *float64 `json:"distance_filter,omitempty"`
	DesiredAccuracy           string   `json:"desired_accuracy,omitempty"`
	SaveBatteryOnBackground   bool     `json:"save_battery_on_background,omitempty"`
	StopOnTerminate           *bool    `json:"stop_on_terminate,omitempty"`
	StationaryRadius          *float64 `json:"stationary_radius,omitempty"`
	Debug                     bool     `json:"debug,omitempty"`
}

func (w wireOptions) toOptions() (provider.Options, error) {
	opts := provider.DefaultOptions()
	opts.PauseUpdatesAutomatically = w.PauseUpdatesAutomatically
	opts.SaveBatteryOnBackground = w.SaveBatteryOnBackground
	opts.Debug = w.Debug

	activity, err := provider.ParseActivityType(w.ActivityType)
	if err != nil {
		return provider.Options{}, err
	}
	opts.ActivityType = activity

	accuracy, err := provider.ParseAccuracy(w.DesiredAccuracy)
	if err != nil {
		return provider.Options{}, err
	}
	opts.DesiredAccuracy = accuracy

	if w.DistanceFilter != nil {
		opts.DistanceFilter = *w.DistanceFilter
	}
	if w.StopOnTerminate != nil {
		opts.StopOnTerminate = *w.StopOnTerminate
	}
	if w.StationaryRadius != nil {
		opts.StationaryRadius = *w.StationaryRadius
	}
	return opts, nil
}

func parseAuthStatus(s string) (provider.AuthStatus, error) {
	switch s {
	case "not_determined":
		return provider.AuthNotDetermined, nil
	case "denied":
		return provider.AuthDenied, nil
	case "restricted":
		return provider.AuthRestricted, nil
	case "always":
		return provider.AuthAlways, nil
	case "when_in_use":
		return provider.AuthWhenInUse, nil
	}
	return 0, fmt.Errorf("unknown authorization status %q", s)
}

func parseMode(s string) (provider.Mode, error) {
	switch s {
	case "foreground":
		return provider.Foreground, nil
	case "background":
		return provider.Background, nil
	}
	return 0, fmt.Errorf("unknown mode %q", s)
}

// decodeDeviceEvent maps one source-topic message to a device event. The
// message key carries the device id (that keying is what serializes each
// device onto one partition); an envelope device_id is accepted as a
// fallback for hand-written test messages.
func decodeDeviceEvent(msg kafkago.Message) (engine.DeviceEvent, error) {
	var env envelope
	if err := json.Unmarshal(msg.Value, &env); err != nil {
		return engine.DeviceEvent{}, fmt.Errorf("decode envelope: %w", err)
	}

	deviceID := string(msg.Key)
	if deviceID == "" {
		deviceID = env.DeviceID
	}
	if deviceID == "" {
		return engine.DeviceEvent{}, errors.New("message has no device id")
	}

	ev := engine.DeviceEvent{DeviceID: deviceID}
	switch env.Type {
	case "fix_batch":
		if len(env.Fixes) == 0 {
			return engine.DeviceEvent{}, errors.New("fix_batch without fixes")
		}
		fixes := make([]domain.Fix, len(env.Fixes))
		for i, w := range env.Fixes {
			fixes[i] = w.toDomain()
		}
		ev.Event = provider.FixBatch{Fixes: fixes}
	case "region_exit":
		if env.Region == nil {
			return engine.DeviceEvent{}, errors.New("region_exit without region")
		}
		ev.Event = provider.RegionExit{Region: *env.Region}
	case "auth_changed":
		status, err := parseAuthStatus(env.Status)
		if err != nil {
			return engine.DeviceEvent{}, err
		}
		ev.Event = provider.AuthChanged{Status: status}
	case "error":
		ev.Event = provider.PlatformError{Code: env.Code}
	case "paused":
		ev.Event = provider.Paused{}
	case "resumed":
		ev.Event = provider.Resumed{}

	case "configure":
		if env.Options == nil {
			return engine.DeviceEvent{}, errors.New("configure without options")
		}
		opts, err := env.Options.toOptions()
		if err != nil {
			return engine.DeviceEvent{}, err
		}
		ev.Op = &engine.LifecycleOp{Kind: engine.OpConfigure, Options: &opts}
	case "start":
		ev.Op = &engine.LifecycleOp{Kind: engine.OpStart}
	case "stop":
		ev.Op = &engine.LifecycleOp{Kind: engine.OpStop}
	case "switch_mode":
		mode, err := parseMode(env.Mode)
		if err != nil {
			return engine.DeviceEvent{}, err
		}
		ev.Op = &engine.LifecycleOp{Kind: engine.OpSwitchMode, Mode: mode}
	case "terminate":
		ev.Op = &engine.LifecycleOp{Kind: engine.OpTerminate}
	case "destroy":
		ev.Op = &engine.LifecycleOp{Kind: engine.OpDestroy}

	default:
		return engine.DeviceEvent{}, fmt.Errorf("unknown event type %q", env.Type)
	}
	return ev, nil
}

// serializeToMessage marshals an envelope into a Kafka message keyed by
// device id, with type and emitted_at headers for header-only consumers.
func serializeToMessage(env envelope) (kafkago.Message, error) {
	data, err := json.Marshal(env)
	if err != nil {
		return kafkago.Message{}, fmt.Errorf("serialize %s envelope: %w", env.Type, err)
	}
	return kafkago.Message{
		Key:   []byte(env.DeviceID),
		Value: data,
		Headers: []kafkago.Header{
			{Key: "type", Value: []byte(env.Type)},
			{Key: "emitted_at", Value: []byte(domain.Now().UTC().Format(time.RFC3339))},
		},
	}, nil
}

func commandEnvelope(deviceID string, cmd provider.Command) envelope {
	env := envelope{DeviceID: deviceID, Type: cmd.CommandName()}
	if arm, ok := cmd.(provider.ArmRegion); ok {
		region := arm.Region
		env.Region = &region
	}
	return env
}
