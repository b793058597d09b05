package vsm

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Sink is the diagnostic output LogAction writes to.
type Sink interface {
	Emit(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr)
}

type slogSink struct {
	logger *slog.Logger
}

// SlogSink writes diagnostics to l, or to slog.Default() when l is nil.
func SlogSink(l *slog.Logger) Sink {
	if l == nil {
		l = slog.Default()
	}

	return slogSink{logger: l}
}

func (s slogSink) Emit(ctx context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	s.logger.LogAttrs(ctx, level, msg, attrs...)
}

type zapSink struct {
	logger *zap.Logger
}

// ZapSink writes diagnostics to a zap logger.
func ZapSink(l *zap.Logger) Sink {
	if l == nil {
		l = zap.NewNop()
	}

	return zapSink{logger: l}
}

func (s zapSink) Emit(_ context.Context, level slog.Level, msg string, attrs ...slog.Attr) {
	ce := s.logger.Check(zapLevel(level), msg)
	if ce == nil {
		return
	}

	fields := make([]zap.Field, 0, len(attrs))
	for _, a := range attrs {
		fields = append(fields, zap.Any(a.Key, a.Value.Resolve().Any()))
	}

	ce.Write(fields...)
}

func zapLevel(level slog.Level) zapcore.Level {
	switch {
	case level >= slog.LevelError:
		return zapcore.ErrorLevel
	case level >= slog.LevelWarn:
		return zapcore.WarnLevel
	case level >= slog.LevelInfo:
		return zapcore.InfoLevel
	default:
		return zapcore.DebugLevel
	}
}
