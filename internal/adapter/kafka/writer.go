package kafka

import (
	"context"
	"errors"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/location-provider-service/internal/config"
	"github.com/couchcryptid/location-provider-service/internal/domain"
	"github.com/couchcryptid/location-provider-service/internal/provider"
)

// Sink produces consumer-facing output (filtered fixes, authorization
// scopes, provider errors) to the sink topic.
type Sink struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewSink creates a Kafka producer for the configured sink topic.
func NewSink(cfg *config.Config, logger *slog.Logger) *Sink {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &Sink{writer: w, logger: logger}
}

// ForDevice returns the provider.Consumer that publishes one device's
// emissions, keyed by that device's id.
func (s *Sink) ForDevice(deviceID string) provider.Consumer {
	return &deviceConsumer{sink: s, deviceID: deviceID}
}

func (s *Sink) publish(ctx context.Context, env envelope) error {
	msg, err := serializeToMessage(env)
	if err != nil {
		return err
	}
	return s.writer.WriteMessages(ctx, msg)
}

func (s *Sink) Close() error {
	return s.writer.Close()
}

type deviceConsumer struct {
	sink     *Sink
	deviceID string
}

func (c *deviceConsumer) OnLocation(ctx context.Context, fix domain.Fix) error {
	return c.sink.publish(ctx, envelope{
		DeviceID: c.deviceID,
		Type:     "location",
		Fix:      &fix,
	})
}

func (c *deviceConsumer) OnAuthorization(ctx context.Context, scope provider.AuthScope) error {
	return c.sink.publish(ctx, envelope{
		DeviceID: c.deviceID,
		Type:     "authorization",
		Scope:    scope.String(),
	})
}

func (c *deviceConsumer) OnError(ctx context.Context, err error) error {
	env := envelope{
		DeviceID: c.deviceID,
		Type:     "provider_error",
		Message:  err.Error(),
	}
	var perr *provider.Error
	if errors.As(err, &perr) {
		env.Kind = perr.Kind.String()
		env.Code = perr.Code
	}
	return c.sink.publish(ctx, env)
}

// CommandWriter produces platform commands to the device command topic.
// It implements engine.CommandBus.
type CommandWriter struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewCommandWriter creates a Kafka producer for the configured command
// topic.
func NewCommandWriter(cfg *config.Config, logger *slog.Logger) *CommandWriter {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaCommandTopic,
		Balancer:     &kafkago.Hash{},
		RequiredAcks: kafkago.RequireAll,
	}
	return &CommandWriter{writer: w, logger: logger}
}

// Publish sends one command to the device's gateway, keyed by device id
// so commands reach the gateway in issue order.
func (c *CommandWriter) Publish(ctx context.Context, deviceID string, cmd provider.Command) error {
	msg, err := serializeToMessage(commandEnvelope(deviceID, cmd))
	if err != nil {
		return err
	}
	return c.writer.WriteMessages(ctx, msg)
}

func (c *CommandWriter) Close() error {
	return c.writer.Close()
}
