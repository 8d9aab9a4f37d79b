// Package logging configures the process-wide slog logger.
// Records are written as JSON by zap, reached through the logr bridge.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/go-logr/logr"
	"github.com/go-logr/zapr"
	"github.com/spf13/viper"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EnvPrefix is the prefix of environment variables read by the logger
const EnvPrefix = "LHS"

// ParseLevel maps a level name to a slog.Level. ok is false for unknown names.
func ParseLevel(s string) (level slog.Level, ok bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, true
	case "info", "":
		return slog.LevelInfo, true
	case "warn", "warning":
		return slog.LevelWarn, true
	case "error":
		return slog.LevelError, true
	default:
		return slog.LevelInfo, false
	}
}

// LevelFromEnv reads LHS_LOG_LEVEL, falling back to LOG_LEVEL.
// Unknown values log a warning and yield info.
func LevelFromEnv() slog.Level {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	levelStr := v.GetString("LOG_LEVEL")
	if levelStr == "" {
		levelStr = os.Getenv("LOG_LEVEL")
	}

	level, ok := ParseLevel(levelStr)
	if !ok {
		slog.Warn("Invalid LOG_LEVEL, using INFO", "value", levelStr)
	}
	return level
}

// NewHandler returns a JSON handler writing to w at the given minimum level.
// OpenTelemetry trace and span ids are added to records logged with a span in context.
func NewHandler(w io.Writer, level slog.Level) slog.Handler {
	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.TimeKey = "time"
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = func(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
		l = max(l, zapcore.DebugLevel)
		zapcore.LowercaseLevelEncoder(l, enc)
	}

	// The logr bridge turns slog levels below info into verbosity, which zapr
	// logs at negative zap levels.
	zapLevel := zapcore.InfoLevel
	if level < slog.LevelInfo {
		zapLevel = zapcore.Level(level)
	}

	core := zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(w), zap.NewAtomicLevelAt(zapLevel))
	logger := zapr.NewLogger(zap.New(core))

	return &traceHandler{Handler: logr.ToSlogHandler(logger), level: level}
}

// Setup installs the default logger on stderr, keeping stdout for command output
func Setup(level slog.Level) *slog.Logger {
	logger := slog.New(NewHandler(os.Stderr, level))
	slog.SetDefault(logger)
	return logger
}

// traceHandler filters by level and injects trace_id and span_id for log-trace correlation
type traceHandler struct {
	slog.Handler
	level slog.Level
}

func (h *traceHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.level && h.Handler.Enabled(ctx, level)
}

func (h *traceHandler) Handle(ctx context.Context, r slog.Record) error {
	span := trace.SpanFromContext(ctx)
	if span.SpanContext().IsValid() {
		r.AddAttrs(
			slog.String("trace_id", span.SpanContext().TraceID().String()),
			slog.String("span_id", span.SpanContext().SpanID().String()),
		)
	}
	return h.Handler.Handle(ctx, r)
}

func (h *traceHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithAttrs(attrs), level: h.level}
}

func (h *traceHandler) WithGroup(name string) slog.Handler {
	return &traceHandler{Handler: h.Handler.WithGroup(name), level: h.level}
}
