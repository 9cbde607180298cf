// Package observability holds the structured logger, in-process metrics and
// correlation helpers shared by every salonops command.
package observability

import (
	"context"
	"io"
	"log/slog"
	"os"
	"runtime/debug"
	"strings"
)

// ServiceName identifies this service in logs, database sessions and
// published messages.
const ServiceName = "salonops"

type LogFormat string

const (
	LogFormatText LogFormat = "text"
	LogFormatJSON LogFormat = "json"
)

type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// LogConfig configures NewLogger. Output defaults to os.Stderr so logs never
// mix with command output.
type LogConfig struct {
	Level          LogLevel
	Format         LogFormat
	Output         io.Writer
	AddSource      bool
	ServiceVersion string
}

// LogConfigFor derives the logger settings for an APP_ENV value. Production
// logs JSON with source locations; everything else logs text. Non-empty level
// and format override the environment defaults.
func LogConfigFor(appEnv, level, format string) LogConfig {
	cfg := LogConfig{
		Level:          LogLevelInfo,
		Format:         LogFormatText,
		ServiceVersion: BuildVersion(),
	}
	if appEnv == "production" {
		cfg.Format = LogFormatJSON
		cfg.AddSource = true
	}
	if level != "" {
		cfg.Level = LogLevel(strings.ToLower(level))
	}
	if format != "" {
		cfg.Format = LogFormat(strings.ToLower(format))
	}
	return cfg
}

// LoggerFromEnv builds a logger from APP_ENV, LOG_LEVEL and LOG_FORMAT. It is
// used before configuration has loaded.
func LoggerFromEnv() *slog.Logger {
	return NewLogger(LogConfigFor(os.Getenv("APP_ENV"), os.Getenv("LOG_LEVEL"), os.Getenv("LOG_FORMAT")))
}

// NewLogger creates a logger that tags every record with the service and,
// when present in the context, the correlation, request and actor ids.
func NewLogger(cfg LogConfig) *slog.Logger {
	out := cfg.Output
	if out == nil {
		out = os.Stderr
	}
	opts := &slog.HandlerOptions{Level: cfg.Level.slogLevel(), AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == LogFormatJSON {
		handler = slog.NewJSONHandler(out, opts)
	} else {
		handler = slog.NewTextHandler(out, opts)
	}

	static := []slog.Attr{slog.String("service", ServiceName)}
	if cfg.ServiceVersion != "" {
		static = append(static, slog.String("version", cfg.ServiceVersion))
	}
	return slog.New(contextHandler{Handler: handler.WithAttrs(static)})
}

// BuildVersion reports SALONOPS_VERSION, else the module version recorded in
// the binary, else "dev".
func BuildVersion() string {
	if v := os.Getenv("SALONOPS_VERSION"); v != "" {
		return v
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

func (l LogLevel) slogLevel() slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// contextHandler copies correlation values from the context onto each record.
type contextHandler struct {
	slog.Handler
}

func (h contextHandler) Handle(ctx context.Context, r slog.Record) error {
	for _, kv := range [...]struct{ key, value string }{
		{CorrelationIDKey, CorrelationIDFromContext(ctx)},
		{RequestIDKey, RequestIDFromContext(ctx)},
		{ActorIDKey, ActorIDFromContext(ctx)},
	} {
		if kv.value != "" {
			r.AddAttrs(slog.String(kv.key, kv.value))
		}
	}
	return h.Handler.Handle(ctx, r)
}

func (h contextHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return contextHandler{Handler: h.Handler.WithAttrs(attrs)}
}

func (h contextHandler) WithGroup(name string) slog.Handler {
	return contextHandler{Handler: h.Handler.WithGroup(name)}
}
