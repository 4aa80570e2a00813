// Package logger holds the process-wide zap logger and hands out named children.
package logger

import (
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type Config struct {
	Level       string
	Development bool
}

var base atomic.Pointer[zap.Logger]

func init() {
	l, err := zap.NewProduction()
	if err != nil {
		l = zap.NewNop()
	}
	base.Store(l)
}

// Setup replaces the base logger. Loggers returned by MustNamed before Setup keep
// writing through the previous one.
func Setup(conf Config) error {
	level, err := zapcore.ParseLevel(conf.Level)
	if err != nil {
		return fmt.Errorf("parse log level %q: %w", conf.Level, err)
	}

	zc := zap.NewProductionConfig()
	if conf.Development {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	base.Store(l)
	return nil
}

// Replace swaps the base logger, mostly for tests.
func Replace(l *zap.Logger) {
	base.Store(l)
}

func Base() *zap.Logger {
	return base.Load()
}

func MustNamed(name string) *zap.SugaredLogger {
	return base.Load().Named(name).Sugar()
}

func Sync() {
	_ = base.Load().Sync()
}
