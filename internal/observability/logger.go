package observability

import (
	"io"
	"log/slog"
	"strings"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/couchcryptid/storm-gahm/internal/config"
)

// NewLogger builds the service logger and installs it as the slog default.
// Without LOG_FILE it logs to stdout; with it, logs rotate through
// lumberjack.
func NewLogger(cfg *config.Config) *slog.Logger {
	if cfg.LogFile == "" {
		return sharedobs.NewLogger(cfg.LogLevel, cfg.LogFormat)
	}
	logger := newHandlerLogger(rotatingFile(cfg.LogFile), cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(logger)
	return logger
}

func rotatingFile(path string) *lumberjack.Logger {
	return &lumberjack.Logger{
		Filename:   path,
		MaxSize:    64, // MB
		MaxBackups: 5,
		Compress:   true,
	}
}

// NewCLILogger builds a logger for command-line tools writing to w. Unlike
// NewLogger it leaves the slog default alone.
func NewCLILogger(w io.Writer, level, format string) *slog.Logger {
	return newHandlerLogger(w, level, format)
}

func newHandlerLogger(w io.Writer, level, format string) *slog.Logger {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if strings.EqualFold(format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}
