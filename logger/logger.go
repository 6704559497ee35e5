// Package logger provides the structured logger shared by the ctax tools.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// Init initializes the global logger for the given environment.
// For "production", it uses a JSON encoder. For all other environments,
// it uses a human-readable console encoder, at warning level unless env is
// "debug". "test" silences everything.
func Init(env string) {
	once.Do(func() {
		var base *zap.Logger
		var err error

		switch env {
		case "production":
			base, err = zap.NewProduction()
		case "test":
			base = zap.NewNop()
		case "debug":
			cfg := zap.NewDevelopmentConfig()
			cfg.OutputPaths = []string{"stderr"}
			base, err = cfg.Build()
		default:
			cfg := zap.NewDevelopmentConfig()
			// the CLI writes its own output on stdout, keep diagnostics on stderr.
			cfg.OutputPaths = []string{"stderr"}
			cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
			base, err = cfg.Build()
		}

		if err != nil {
			// Fallback to nop logger if initialization fails.
			base = zap.NewNop()
		}

		sugar = base.Sugar()
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	Init("development")
	return sugar
}

// OrNop returns l, or a logger discarding everything when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
