// Package logger configures the adapter's zap logger. The adapter owns
// stdout for protocol traffic, so logs go to a file next to the adapter (or
// wherever the configuration points).
package logger

import (
	"context"

	"github.com/go-faster/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// defaultLogger is used when no logger travels with the context.
var defaultLogger = zap.NewNop()

// New builds a file-backed logger. With verbose enabled the protocol traffic
// is logged message by message at debug level.
func New(path string, verbose bool) (*zap.Logger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.OutputPaths = []string{path}
	cfg.ErrorOutputPaths = []string{path}
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	core, err := cfg.Build()
	if err != nil {
		return nil, errors.Wrapf(err, "failed to open log destination %v", path)
	}
	return core, nil
}

// Setup replaces the package default logger.
func Setup(logger *zap.Logger) {
	if logger != nil {
		defaultLogger = logger
	}
}

// key is the context key carrying a logger instance.
type key struct{}

// Get retrieves the logger from ctx, falling back to the package default.
func Get(ctx context.Context) *zap.Logger {
	if logger, _ := ctx.Value(key{}).(*zap.Logger); logger != nil {
		return logger
	}
	return defaultLogger
}

// WithLogger attaches a logger to the context.
func WithLogger(ctx context.Context, logger *zap.Logger) context.Context {
	return context.WithValue(ctx, key{}, logger)
}

// WithFields attaches a child logger carrying extra fields to the context.
func WithFields(ctx context.Context, fields ...zapcore.Field) context.Context {
	return WithLogger(ctx, Get(ctx).With(fields...))
}
