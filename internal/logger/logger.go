package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var base *zap.Logger

// Init builds the process logger. Production environments log JSON at the
// requested level, everything else gets the colored console encoder.
func Init(env, level string) error {
	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	if env == "production" {
		cfg = zap.NewProductionConfig()
	}

	if lvl, err := zapcore.ParseLevel(level); err == nil {
		cfg.Level = zap.NewAtomicLevelAt(lvl)
	}

	l, err := cfg.Build()
	if err != nil {
		return err
	}

	base = l
	zap.ReplaceGlobals(l)
	return nil
}

// Get returns the process logger, or a no-op logger before Init.
func Get() *zap.Logger {
	if base == nil {
		return zap.NewNop()
	}
	return base
}

// Named returns a child logger tagged with a component name.
func Named(component string) *zap.Logger {
	return Get().Named(component)
}

// Sync flushes buffered entries.
func Sync() {
	if base != nil {
		_ = base.Sync()
	}
}
