package kafka

import (
	"context"
	"log/slog"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/location-provider-service/internal/config"
	"github.com/couchcryptid/location-provider-service/internal/engine"
	"github.com/couchcryptid/location-provider-service/internal/observability"
)

// Reader consumes device events from the source topic.
// It implements engine.Source.
type Reader struct {
	reader  *kafkago.Reader
	logger  *slog.Logger
	metrics *observability.Metrics
}

// NewReader creates a consumer-group reader for the configured source
// topic. Messages are keyed by device id, so one device's events always
// land on one partition and arrive in order.
func NewReader(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Reader {
	r := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers: cfg.KafkaBrokers,
		Topic:   cfg.KafkaSourceTopic,
		GroupID: cfg.KafkaGroupID,
	})
	return &Reader{reader: r, logger: logger, metrics: metrics}
}

// Next blocks until a decodable device event arrives or the context is
// cancelled. Undecodable messages are counted, committed and skipped so a
// malformed gateway cannot wedge the partition.
func (r *Reader) Next(ctx context.Context) (engine.DeviceEvent, error) {
	for {
		msg, err := r.reader.FetchMessage(ctx)
		if err != nil {
			return engine.DeviceEvent{}, err
		}

		ev, err := decodeDeviceEvent(msg)
		if err != nil {
			r.metrics.EventsInvalid.Inc()
			r.logger.Warn("skipping undecodable message",
				"topic", msg.Topic, "partition", msg.Partition, "offset", msg.Offset, "error", err)
			if err := r.reader.CommitMessages(ctx, msg); err != nil {
				return engine.DeviceEvent{}, err
			}
			continue
		}

		ev.Commit = func(ctx context.Context) error {
			return r.reader.CommitMessages(ctx, msg)
		}
		return ev, nil
	}
}

func (r *Reader) Close() error {
	return r.reader.Close()
}
