// Package logger wraps a process-wide zap SugaredLogger.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var global *Logger

type Logger struct {
	*zap.SugaredLogger
}

// Init builds the global logger. env "production" selects JSON output;
// anything else gets the colored development console.
func Init(level, env string) error {
	var cfg zap.Config
	if env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	var lvl zapcore.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)

	z, err := cfg.Build(zap.AddStacktrace(zapcore.ErrorLevel))
	if err != nil {
		return err
	}
	global = &Logger{SugaredLogger: z.Sugar()}
	return nil
}

// Get returns the global logger, falling back to a development logger when
// Init has not run (tests, tools).
func Get() *Logger {
	if global == nil {
		z, _ := zap.NewDevelopment()
		global = &Logger{SugaredLogger: z.Sugar()}
	}
	return global
}

// Named returns a child logger tagged with a component field.
func Named(component string) *Logger {
	return Get().With("component", component)
}

func (l *Logger) With(args ...any) *Logger {
	return &Logger{SugaredLogger: l.SugaredLogger.With(args...)}
}

// Sync flushes buffered entries; call on shutdown.
func Sync() {
	if global != nil {
		_ = global.SugaredLogger.Sync()
	}
}
