package dbg

import (
	"context"
	"log/slog"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewDevLogger() *zap.Logger {
	cfg := zap.NewDevelopmentConfig()

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

func NewProdLogger() *zap.Logger {
	cfg := zap.NewProductionConfig()

	cfg.EncoderConfig.TimeKey = "ts"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.DisableCaller = true

	logger, err := cfg.Build()
	if err != nil {
		panic(err)
	}
	return logger
}

// RedirectSlog routes the package-level slog output (monitor middleware,
// report printing) through the given zap logger so a run produces one
// coherent log stream.
func RedirectSlog(logger *zap.Logger) {
	slog.SetDefault(slog.New(&slogBridge{logger: logger}))
}

type slogBridge struct {
	logger *zap.Logger
	attrs  []zap.Field
}

func (b *slogBridge) Enabled(_ context.Context, level slog.Level) bool {
	return b.logger.Core().Enabled(zapLevel(level))
}

func (b *slogBridge) Handle(_ context.Context, record slog.Record) error {
	fields := make([]zap.Field, 0, record.NumAttrs()+len(b.attrs))
	fields = append(fields, b.attrs...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = append(fields, zap.Any(attr.Key, attr.Value.Any()))
		return true
	})
	if check := b.logger.Check(zapLevel(record.Level), record.Message); check != nil {
		check.Write(fields...)
	}
	return nil
}

func (b *slogBridge) WithAttrs(attrs []slog.Attr) slog.Handler {
	merged := make([]zap.Field, 0, len(b.attrs)+len(attrs))
	merged = append(merged, b.attrs...)
	for _, attr := range attrs {
		merged = append(merged, zap.Any(attr.Key, attr.Value.Any()))
	}
	return &slogBridge{logger: b.logger, attrs: merged}
}

func (b *slogBridge) WithGroup(name string) slog.Handler {
	return &slogBridge{logger: b.logger.With(zap.Namespace(name)), attrs: b.attrs}
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
