package logger

import (
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Options selects the verbosity and output encoding of the global logger.
// Format is either "json" (production default) or "console" for local
// development.
type Options struct {
	Level  string
	Format string
}

var (
	mu     sync.RWMutex
	global = zap.NewNop()
)

// Init replaces the global logger. Before Init is called the global logger
// is a nop, so packages may log during early startup without a nil check.
func Init(opts Options) error {
	level := zapcore.InfoLevel
	if opts.Level != "" {
		if err := level.UnmarshalText([]byte(opts.Level)); err != nil {
			return fmt.Errorf("logger: unknown level %q", opts.Level)
		}
	}

	var cfg zap.Config
	switch strings.ToLower(opts.Format) {
	case "", "json":
		cfg = zap.NewProductionConfig()
	case "console":
		cfg = zap.NewDevelopmentConfig()
	default:
		return fmt.Errorf("logger: unknown format %q", opts.Format)
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	built, err := cfg.Build()
	if err != nil {
		return err
	}

	mu.Lock()
	defer mu.Unlock()
	global = built
	return nil
}

// Logger returns the current global logger.
func Logger() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return global
}

// WithModule returns a child logger tagged with the owning module, e.g.
// "auth" or "password_reset".
func WithModule(module string) *zap.Logger {
	return Logger().With(zap.String("module", module))
}

// Sync flushes buffered entries. Called once during shutdown.
func Sync() error {
	return Logger().Sync()
}
