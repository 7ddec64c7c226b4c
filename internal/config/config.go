package config

import (
	"errors"
	"fmt"
	"os"
	"reflect"
	"runtime"
	"strconv"
	"strings"
	"time"

	sharedcfg "github.com/couchcryptid/storm-data-shared/config"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"

	"github.com/couchcryptid/storm-gahm/internal/grid"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	KafkaBrokers     []string `env:"KAFKA_BROKERS" validate:"min=1,dive,required"`
	KafkaSourceTopic string   `env:"KAFKA_SOURCE_TOPIC" validate:"required"`
	KafkaSinkTopic   string   `env:"KAFKA_SINK_TOPIC" validate:"required"`
	KafkaGroupID     string   `env:"KAFKA_GROUP_ID" validate:"required"`
	HTTPAddr         string   `env:"HTTP_ADDR"`
	LogLevel         string   `env:"LOG_LEVEL" validate:"oneof=debug info warn error"`
	LogFormat        string   `env:"LOG_FORMAT" validate:"oneof=json text"`
	LogFile          string   `env:"LOG_FILE"`
	ShutdownTimeout  time.Duration

	BatchSize          int
	BatchFlushInterval time.Duration

	// Wind grid every track is solved on.
	Grid GridConfig

	SolveStep      time.Duration `env:"SOLVE_STEP" validate:"gt=0"`
	SolveWorkers   int           `env:"SOLVE_WORKERS" validate:"gte=1"`
	FieldEncoding  string        `env:"FIELD_ENCODING" validate:"oneof=json msgpack+zstd"`
	TrackCacheSize int           `env:"TRACK_CACHE_SIZE" validate:"gte=1"`

	TracingEnabled     bool
	TracingServiceName string `env:"TRACING_SERVICE_NAME" validate:"required_if=TracingEnabled true"`
}

// GridConfig is the lon/lat box and spacing of the output grid, in degrees.
type GridConfig struct {
	Xll float64 `env:"GRID_XLL" validate:"gte=-360,lte=360"`
	Yll float64 `env:"GRID_YLL" validate:"gte=-90,lte=90"`
	Xur float64 `env:"GRID_XUR" validate:"gte=-360,lte=360,gtfield=Xll"`
	Yur float64 `env:"GRID_YUR" validate:"gte=-90,lte=90,gtfield=Yll"`
	Dx  float64 `env:"GRID_DX" validate:"gt=0"`
	Dy  float64 `env:"GRID_DY" validate:"gt=0"`
}

// WindGrid builds the grid described by the configuration.
func (g GridConfig) WindGrid() (grid.WindGrid, error) {
	return grid.FromCorners(g.Xll, g.Yll, g.Xur, g.Yur, g.Dx, g.Dy)
}

var validate = newValidator()

// newValidator reports fields by their environment variable name.
func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		if name := f.Tag.Get("env"); name != "" {
			return name
		}
		return f.Name
	})
	return v
}

// Load reads configuration from environment variables, applying defaults where unset.
// A .env file in the working directory is loaded first when present; it never
// overrides variables that are already set.
func Load() (*Config, error) {
	_ = godotenv.Load()

	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}
	batchSize, err := sharedcfg.ParseBatchSize()
	if err != nil {
		return nil, err
	}
	flushInterval, err := sharedcfg.ParseBatchFlushInterval()
	if err != nil {
		return nil, err
	}

	p := &parser{}

	cfg := &Config{
		KafkaBrokers:       sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   sharedcfg.EnvOrDefault("KAFKA_SOURCE_TOPIC", "atcf-tracks"),
		KafkaSinkTopic:     sharedcfg.EnvOrDefault("KAFKA_SINK_TOPIC", "gahm-wind-fields"),
		KafkaGroupID:       sharedcfg.EnvOrDefault("KAFKA_GROUP_ID", "storm-gahm"),
		HTTPAddr:           sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:           strings.ToLower(sharedcfg.EnvOrDefault("LOG_LEVEL", "info")),
		LogFormat:          strings.ToLower(sharedcfg.EnvOrDefault("LOG_FORMAT", "json")),
		LogFile:            os.Getenv("LOG_FILE"),
		ShutdownTimeout:    shutdownTimeout,
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		Grid: GridConfig{
			Xll: p.floatVar("GRID_XLL", -100),
			Yll: p.floatVar("GRID_YLL", 10),
			Xur: p.floatVar("GRID_XUR", -60),
			Yur: p.floatVar("GRID_YUR", 45),
			Dx:  p.floatVar("GRID_DX", 0.25),
			Dy:  p.floatVar("GRID_DY", 0.25),
		},

		SolveStep:      p.durationVar("SOLVE_STEP", time.Hour),
		SolveWorkers:   p.intVar("SOLVE_WORKERS", runtime.GOMAXPROCS(0)),
		FieldEncoding:  sharedcfg.EnvOrDefault("FIELD_ENCODING", "msgpack+zstd"),
		TrackCacheSize: p.intVar("TRACK_CACHE_SIZE", 128),

		TracingEnabled:     p.boolVar("TRACING_ENABLED", false),
		TracingServiceName: sharedcfg.EnvOrDefault("TRACING_SERVICE_NAME", "storm-gahm"),
	}
	if err := errors.Join(p.errs...); err != nil {
		return nil, err
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks field constraints and reports violations by variable name.
func Validate(cfg *Config) error {
	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	out := make([]error, 0, len(verrs))
	for _, fe := range verrs {
		out = append(out, fmt.Errorf("invalid %s: %v fails %s", fe.Field(), fe.Value(), constraint(fe)))
	}
	return errors.Join(out...)
}

func constraint(fe validator.FieldError) string {
	if fe.Param() == "" {
		return fe.Tag()
	}
	return fe.Tag() + "=" + fe.Param()
}

// parser collects conversion errors so every bad variable is reported at once.
type parser struct {
	errs []error
}

func (p *parser) fail(key, v string, err error) {
	p.errs = append(p.errs, fmt.Errorf("invalid %s %q: %w", key, v, err))
}

func (p *parser) floatVar(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		p.fail(key, v, err)
	}
	return f
}

func (p *parser) intVar(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		p.fail(key, v, err)
	}
	return n
}

func (p *parser) durationVar(key string, def time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(strings.TrimSpace(v))
	if err != nil {
		p.fail(key, v, err)
	}
	return d
}

func (p *parser) boolVar(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(strings.TrimSpace(v))
	if err != nil {
		p.fail(key, v, err)
	}
	return b
}
