package kafka

import (
	"context"
	"log/slog"
	"sort"

	kafkago "github.com/segmentio/kafka-go"

	"github.com/couchcryptid/storm-gahm/internal/config"
	"github.com/couchcryptid/storm-gahm/internal/domain"
)

// Writer produces field snapshots to a Kafka topic.
// It implements pipeline.BatchLoader.
type Writer struct {
	writer *kafkago.Writer
	logger *slog.Logger
}

// NewWriter creates a Kafka producer for the configured sink topic. Snapshots
// of one storm hash to the same partition so consumers see them in time order.
func NewWriter(cfg *config.Config, logger *slog.Logger) *Writer {
	w := &kafkago.Writer{
		Addr:         kafkago.TCP(cfg.KafkaBrokers...),
		Topic:        cfg.KafkaSinkTopic,
		Balancer:     stormBalancer{},
		RequiredAcks: kafkago.RequireAll,
		BatchBytes:   maxTrackBytes,
	}
	return &Writer{writer: w, logger: logger}
}

// LoadBatch publishes encoded snapshots in a single WriteMessages call.
func (w *Writer) LoadBatch(ctx context.Context, events []domain.OutputEvent) error {
	if len(events) == 0 {
		return nil
	}
	msgs := make([]kafkago.Message, len(events))
	for i := range events {
		msgs[i] = serializeToMessage(events[i])
	}
	if err := w.writer.WriteMessages(ctx, msgs...); err != nil {
		return err
	}
	w.logger.Debug("loaded batch", "size", len(msgs))
	return nil
}

func (w *Writer) Close() error {
	return w.writer.Close()
}

// serializeToMessage converts an output event into a Kafka message. Headers
// are sorted by key so messages are reproducible.
func serializeToMessage(event domain.OutputEvent) kafkago.Message {
	keys := make([]string, 0, len(event.Headers))
	for k := range event.Headers {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	headers := make([]kafkago.Header, 0, len(keys))
	for _, k := range keys {
		headers = append(headers, kafkago.Header{Key: k, Value: []byte(event.Headers[k])})
	}
	return kafkago.Message{
		Key:     event.Key,
		Value:   event.Value,
		Headers: headers,
	}
}

// stormBalancer partitions on the storm_id header rather than the snapshot
// key, which also carries the valid time.
type stormBalancer struct{}

func (stormBalancer) Balance(msg kafkago.Message, partitions ...int) int {
	for _, h := range msg.Headers {
		if h.Key == domain.HeaderStormID {
			return (&kafkago.Hash{}).Balance(kafkago.Message{Key: h.Value}, partitions...)
		}
	}
	return (&kafkago.Hash{}).Balance(msg, partitions...)
}
