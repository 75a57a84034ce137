// Package logging builds the process logger.
package logging

import (
	"fmt"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a production zap logger at the given level. When stderr is a
// terminal the console encoder is used instead of JSON. verbose forces debug.
func New(level string, verbose bool) (*zap.Logger, error) {
	return newLogger(level, verbose, isatty.IsTerminal(os.Stderr.Fd()))
}

func newLogger(level string, verbose, terminal bool) (*zap.Logger, error) {
	config := zap.NewProductionConfig()

	lvl := zapcore.InfoLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(lvl)

	if terminal {
		config.Encoding = "console"
		config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		config.Sampling = nil
	}

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

// Install makes logger the global zap logger and returns a func that flushes
// it and restores the previous globals.
func Install(logger *zap.Logger) func() {
	restore := zap.ReplaceGlobals(logger)
	return func() {
		_ = logger.Sync()
		restore()
	}
}
