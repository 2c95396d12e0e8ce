// Package logging builds the CLI's zap logger.
package logging

import (
	"fmt"
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level returns the log level for a -v count: warn by default, info at 1,
// debug at 2 or more.
func Level(verbosity int) zapcore.Level {
	switch {
	case verbosity >= 2:
		return zapcore.DebugLevel
	case verbosity == 1:
		return zapcore.InfoLevel
	default:
		return zapcore.WarnLevel
	}
}

// New returns a console logger writing to stderr.
func New(verbosity int, noColor bool) *zap.Logger {
	return NewWithWriter(os.Stderr, verbosity, noColor)
}

// NewWithWriter returns a console logger writing to w.
func NewWithWriter(w io.Writer, verbosity int, noColor bool) *zap.Logger {
	return NewAtLevel(w, Level(verbosity), noColor)
}

// NewAtLevel returns a console logger writing to w at the given level.
func NewAtLevel(w io.Writer, level zapcore.Level, noColor bool) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = ""
	encCfg.CallerKey = ""
	if noColor {
		encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	} else {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encCfg),
		zapcore.Lock(zapcore.AddSync(w)),
		zap.NewAtomicLevelAt(level),
	)
	return zap.New(core)
}

// ParseLevel parses a level name such as "debug" or "warn".
func ParseLevel(name string) (zapcore.Level, error) {
	var level zapcore.Level
	if err := level.Set(name); err != nil {
		return level, fmt.Errorf("invalid log level %q: %w", name, err)
	}
	return level, nil
}
