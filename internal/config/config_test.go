package config

import (
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const defaultBroker = "localhost:9092"

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{defaultBroker}, cfg.KafkaBrokers)
	assert.Equal(t, "atcf-tracks", cfg.KafkaSourceTopic)
	assert.Equal(t, "gahm-wind-fields", cfg.KafkaSinkTopic)
	assert.Equal(t, "storm-gahm", cfg.KafkaGroupID)
	assert.Equal(t, ":8080", cfg.HTTPAddr)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Empty(t, cfg.LogFile)
	assert.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 500*time.Millisecond, cfg.BatchFlushInterval)

	assert.Equal(t, GridConfig{Xll: -100, Yll: 10, Xur: -60, Yur: 45, Dx: 0.25, Dy: 0.25}, cfg.Grid)
	assert.Equal(t, time.Hour, cfg.SolveStep)
	assert.Equal(t, runtime.GOMAXPROCS(0), cfg.SolveWorkers)
	assert.Equal(t, "msgpack+zstd", cfg.FieldEncoding)
	assert.Equal(t, 128, cfg.TrackCacheSize)
	assert.False(t, cfg.TracingEnabled)
	assert.Equal(t, "storm-gahm", cfg.TracingServiceName)
}

func TestLoad_CustomEnv(t *testing.T) {
	t.Setenv("KAFKA_BROKERS", "broker1:9092,broker2:9092")
	t.Setenv("KAFKA_SOURCE_TOPIC", "custom-source")
	t.Setenv("KAFKA_SINK_TOPIC", "custom-sink")
	t.Setenv("KAFKA_GROUP_ID", "custom-group")
	t.Setenv("HTTP_ADDR", ":9090")
	t.Setenv("LOG_LEVEL", "DEBUG")
	t.Setenv("LOG_FORMAT", "text")
	t.Setenv("LOG_FILE", "/var/log/gahm.log")
	t.Setenv("SHUTDOWN_TIMEOUT", "30s")
	t.Setenv("BATCH_SIZE", "100")
	t.Setenv("BATCH_FLUSH_INTERVAL", "1s")
	t.Setenv("GRID_XLL", "-98")
	t.Setenv("GRID_YLL", "8")
	t.Setenv("GRID_XUR", "-55.5")
	t.Setenv("GRID_YUR", "46")
	t.Setenv("GRID_DX", "0.1")
	t.Setenv("GRID_DY", "0.2")
	t.Setenv("SOLVE_STEP", "15m")
	t.Setenv("SOLVE_WORKERS", "3")
	t.Setenv("FIELD_ENCODING", "json")
	t.Setenv("TRACK_CACHE_SIZE", "16")
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SERVICE_NAME", "gahm-test")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, []string{"broker1:9092", "broker2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, "custom-source", cfg.KafkaSourceTopic)
	assert.Equal(t, "custom-sink", cfg.KafkaSinkTopic)
	assert.Equal(t, "custom-group", cfg.KafkaGroupID)
	assert.Equal(t, ":9090", cfg.HTTPAddr)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "/var/log/gahm.log", cfg.LogFile)
	assert.Equal(t, 30*time.Second, cfg.ShutdownTimeout)
	assert.Equal(t, 100, cfg.BatchSize)
	assert.Equal(t, 1*time.Second, cfg.BatchFlushInterval)
	assert.Equal(t, GridConfig{Xll: -98, Yll: 8, Xur: -55.5, Yur: 46, Dx: 0.1, Dy: 0.2}, cfg.Grid)
	assert.Equal(t, 15*time.Minute, cfg.SolveStep)
	assert.Equal(t, 3, cfg.SolveWorkers)
	assert.Equal(t, "json", cfg.FieldEncoding)
	assert.Equal(t, 16, cfg.TrackCacheSize)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "gahm-test", cfg.TracingServiceName)
}

func TestLoad_InvalidShutdownTimeout(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "SHUTDOWN_TIMEOUT")
}

func TestLoad_InvalidBatchSize(t *testing.T) {
	t.Setenv("BATCH_SIZE", "0")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_SIZE")
}

func TestLoad_InvalidBatchFlushInterval(t *testing.T) {
	t.Setenv("BATCH_FLUSH_INTERVAL", "not-a-duration")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "BATCH_FLUSH_INTERVAL")
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"GRID_DX", "0"},
		{"GRID_DY", "-0.5"},
		{"GRID_XLL", "west"},
		{"GRID_YUR", "5"},
		{"GRID_YLL", "95"},
		{"SOLVE_STEP", "hourly"},
		{"SOLVE_STEP", "-1h"},
		{"SOLVE_WORKERS", "0"},
		{"TRACK_CACHE_SIZE", "many"},
		{"FIELD_ENCODING", "xml"},
		{"LOG_LEVEL", "verbose"},
		{"LOG_FORMAT", "yaml"},
		{"TRACING_ENABLED", "maybe"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			_, err := Load()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.key)
		})
	}
}

func TestLoad_ReportsEveryBadVariable(t *testing.T) {
	t.Setenv("GRID_DX", "x")
	t.Setenv("SOLVE_WORKERS", "y")
	_, err := Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GRID_DX")
	assert.Contains(t, err.Error(), "SOLVE_WORKERS")
}

func TestLoad_TracingNeedsServiceName(t *testing.T) {
	t.Setenv("TRACING_ENABLED", "true")
	t.Setenv("TRACING_SERVICE_NAME", "")
	cfg, err := Load()
	require.NoError(t, err, "empty falls back to the default name")
	assert.Equal(t, "storm-gahm", cfg.TracingServiceName)

	cfg.TracingServiceName = ""
	err = Validate(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "TRACING_SERVICE_NAME")
}

func TestGridConfig_WindGrid(t *testing.T) {
	g, err := GridConfig{Xll: -100, Yll: 10, Xur: -60, Yur: 45, Dx: 0.25, Dy: 0.25}.WindGrid()
	require.NoError(t, err)
	assert.Equal(t, 161, g.Nx)
	assert.Equal(t, 141, g.Ny)
}
