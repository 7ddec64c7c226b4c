package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"

	"github.com/couchcryptid/storm-gahm/internal/config"
)

func TestNewHandlerLogger(t *testing.T) {
	tests := []struct {
		level, format string
		debugVisible  bool
		json          bool
	}{
		{"debug", "json", true, true},
		{"info", "json", false, true},
		{"DEBUG", "text", true, false},
		{"bogus", "text", false, false},
	}
	for _, tt := range tests {
		t.Run(tt.level+"/"+tt.format, func(t *testing.T) {
			var buf bytes.Buffer
			logger := newHandlerLogger(&buf, tt.level, tt.format)
			logger.Debug("hidden unless debug")
			logger.Info("solved", "storm", "AL122005")

			out := buf.String()
			assert.Equal(t, tt.debugVisible, bytes.Contains(buf.Bytes(), []byte("hidden unless debug")))
			if tt.json {
				lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
				var rec map[string]any
				require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
				assert.Equal(t, "AL122005", rec["storm"])
			} else {
				assert.Contains(t, out, "storm=AL122005")
			}
		})
	}
}

func TestNewCLILogger_LeavesDefault(t *testing.T) {
	prev := slog.Default()
	var buf bytes.Buffer
	logger := NewCLILogger(&buf, "warn", "text")
	logger.Info("dropped")
	logger.Warn("kept")

	assert.Same(t, prev, slog.Default())
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "msg=kept")
}

func TestNewLogger_File(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	path := filepath.Join(t.TempDir(), "gahm.log")
	logger := NewLogger(&config.Config{LogLevel: "info", LogFormat: "json", LogFile: path})
	require.NotNil(t, logger)
	logger.Info("written to file")
	assert.FileExists(t, path)
}

func TestNewLogger_Stdout(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	logger := NewLogger(&config.Config{LogLevel: "debug", LogFormat: "text"})
	require.NotNil(t, logger)
	assert.Equal(t, logger, slog.Default())
}

func TestNewMetricsForTesting_Independent(t *testing.T) {
	a := NewMetricsForTesting()
	b := NewMetricsForTesting()

	a.TrackCache.WithLabelValues("hit").Inc()
	a.SolveDuration.WithLabelValues("vortex").Observe(0.2)
	a.FieldsProduced.Add(3)

	assert.InDelta(t, 1, counterValue(t, a.TrackCache.WithLabelValues("hit")), 1e-9)
	assert.InDelta(t, 3, counterValue(t, a.FieldsProduced), 1e-9)
	assert.InDelta(t, 0, counterValue(t, b.FieldsProduced), 1e-9)
}

func counterValue(t *testing.T, c prometheus.Counter) float64 {
	t.Helper()
	var m dto.Metric
	require.NoError(t, c.Write(&m))
	return m.GetCounter().GetValue()
}

func TestInitTracing_Disabled(t *testing.T) {
	shutdown, err := InitTracing(context.Background(), TracingConfig{}, slog.Default())
	require.NoError(t, err)
	require.NoError(t, shutdown(context.Background()))

	_, span := otel.Tracer(TracerName).Start(context.Background(), "noop")
	assert.False(t, span.SpanContext().IsValid())
	span.End()
}

func TestInitTracing_Stdout(t *testing.T) {
	prevTP := otel.GetTracerProvider()
	t.Cleanup(func() { otel.SetTracerProvider(prevTP) })

	var buf bytes.Buffer
	shutdown, err := InitTracing(context.Background(), TracingConfig{
		Enabled:     true,
		ServiceName: "storm-gahm-test",
		Writer:      &buf,
	}, slog.Default())
	require.NoError(t, err)

	_, span := otel.Tracer(TracerName).Start(context.Background(), "vortex")
	assert.True(t, span.SpanContext().IsValid())
	span.End()

	require.NoError(t, shutdown(context.Background()))
	assert.Contains(t, buf.String(), `"Name":"vortex"`)
	assert.Contains(t, buf.String(), "storm-gahm-test")
}
