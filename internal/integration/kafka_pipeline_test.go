//go:build integration

package integration_test

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	kafkago "github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/storm-gahm/internal/adapter/kafka"
	"github.com/couchcryptid/storm-gahm/internal/codec"
	"github.com/couchcryptid/storm-gahm/internal/config"
	"github.com/couchcryptid/storm-gahm/internal/domain"
	"github.com/couchcryptid/storm-gahm/internal/grid"
	"github.com/couchcryptid/storm-gahm/internal/observability"
	"github.com/couchcryptid/storm-gahm/internal/pipeline"
)

const (
	testSourceTopic = "test-tracks"
	testSinkTopic   = "test-fields"
)

// fieldMessage holds a decoded message read from the sink topic.
type fieldMessage struct {
	Snapshot domain.FieldSnapshot
	Key      string
	Headers  map[string]string
}

func readField(ctx context.Context, t *testing.T, consumer *kafkago.Reader, c codec.Codec) fieldMessage {
	t.Helper()
	readCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	msg, err := consumer.ReadMessage(readCtx)
	require.NoError(t, err, "read from sink topic")

	headers := make(map[string]string, len(msg.Headers))
	for _, h := range msg.Headers {
		headers[h.Key] = string(h.Value)
	}
	var snap domain.FieldSnapshot
	require.NoError(t, c.Unmarshal(msg.Value, &snap), "decode sink message")
	return fieldMessage{Snapshot: snap, Key: string(msg.Key), Headers: headers}
}

func katrina(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile("../../testdata/bal122005.dat")
	require.NoError(t, err)
	return data
}

func testConfig(broker, group string) *config.Config {
	return &config.Config{
		KafkaBrokers:       []string{broker},
		KafkaSourceTopic:   testSourceTopic,
		KafkaSinkTopic:     testSinkTopic,
		KafkaGroupID:       fmt.Sprintf("%s-%d", group, time.Now().UnixNano()),
		BatchFlushInterval: 2 * time.Second,
	}
}

func newTransformer(t *testing.T) *pipeline.TrackTransformer {
	t.Helper()
	g, err := grid.NewWindGrid(-90, 20, 1, 1, 12, 10)
	require.NoError(t, err)
	tfm, err := pipeline.NewTransformer(pipeline.TransformerConfig{
		Grid:      g,
		Step:      6 * time.Hour,
		Workers:   2,
		Encoder:   codec.MsgpackZstd{},
		CacheSize: 8,
	}, nil, observability.NewMetricsForTesting(), discardLogger())
	require.NoError(t, err)
	return tfm
}

// TestPipelineEndToEnd publishes a track and reads back every solved field.
func TestPipelineEndToEnd(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-pipeline")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	require.NoError(t, producer.WriteMessages(ctx, kafkago.Message{
		Key:   []byte("AL122005"),
		Value: katrina(t),
		Headers: []kafkago.Header{
			{Key: "start", Value: []byte("2005-08-25T00:00:00Z")},
			{Key: "end", Value: []byte("2005-08-26T00:00:00Z")},
		},
	}))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTransformer(t), writer, discardLogger(), observability.NewMetricsForTesting(), 10)
	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	// 2005-08-25T00 through 2005-08-26T00 every 6 hours.
	want := []string{"00", "06", "12", "18"}
	received := make([]fieldMessage, 0, 5)
	for len(received) < 5 {
		received = append(received, readField(ctx, t, consumer, codec.MsgpackZstd{}))
	}
	pipelineCancel()
	require.NoError(t, <-errCh)

	for i, hh := range want {
		assert.Equal(t, "AL122005|2005-08-25T"+hh+":00:00Z", received[i].Key)
	}
	assert.Equal(t, "AL122005|2005-08-26T00:00:00Z", received[4].Key)

	for _, fm := range received {
		assert.Equal(t, "AL122005", fm.Headers["storm_id"])
		assert.Equal(t, "application/msgpack+zstd", fm.Headers["content_type"])
		_, err := time.Parse(time.RFC3339, fm.Headers["processed_at"])
		assert.NoError(t, err, "processed_at should be valid RFC3339")

		assert.Equal(t, "KATRINA", fm.Snapshot.StormName)
		assert.Len(t, fm.Snapshot.P, 120)
		assert.Greater(t, fm.Snapshot.Stats.MaxWind, 0.0)
	}
	assert.NoError(t, p.CheckReadiness(ctx))
}

// TestPipelineTransformError verifies that an unusable track (poison pill) is
// skipped and the pipeline continues with the next message.
func TestPipelineTransformError(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 90*time.Second)
	defer cancel()

	broker := startKafka(ctx, t)
	createTopic(t, broker, testSourceTopic)
	createTopic(t, broker, testSinkTopic)
	cfg := testConfig(broker, "test-poison")

	producer := &kafkago.Writer{Addr: kafkago.TCP(broker), Topic: testSourceTopic}
	t.Cleanup(func() { _ = producer.Close() })
	at := []kafkago.Header{
		{Key: "start", Value: []byte("2005-08-26T12:00:00Z")},
		{Key: "end", Value: []byte("2005-08-26T12:00:00Z")},
	}
	require.NoError(t, producer.WriteMessages(ctx,
		kafkago.Message{Key: []byte("bad"), Value: []byte("not an atcf line")},
		kafkago.Message{Key: []byte("AL122005"), Value: katrina(t), Headers: at},
	))

	reader := kafka.NewReader(cfg, discardLogger())
	t.Cleanup(func() { _ = reader.Close() })
	writer := kafka.NewWriter(cfg, discardLogger())
	t.Cleanup(func() { _ = writer.Close() })

	p := pipeline.New(reader, newTransformer(t), writer, discardLogger(), observability.NewMetricsForTesting(), 10)
	pipelineCtx, pipelineCancel := context.WithCancel(ctx)
	errCh := make(chan error, 1)
	go func() { errCh <- p.Run(pipelineCtx) }()

	consumer := kafkago.NewReader(kafkago.ReaderConfig{
		Brokers:     []string{broker},
		Topic:       testSinkTopic,
		GroupID:     fmt.Sprintf("test-sink-%d", time.Now().UnixNano()),
		StartOffset: kafkago.FirstOffset,
	})
	t.Cleanup(func() { _ = consumer.Close() })

	fm := readField(ctx, t, consumer, codec.MsgpackZstd{})
	assert.Equal(t, "AL122005|2005-08-26T12:00:00Z", fm.Key)

	// Verify no second message arrives (the poison pill was skipped).
	readCtx, readCancel := context.WithTimeout(ctx, 5*time.Second)
	_, err := consumer.ReadMessage(readCtx)
	readCancel()
	assert.Error(t, err, "expected no second message on sink topic")

	pipelineCancel()
	require.NoError(t, <-errCh)
}
