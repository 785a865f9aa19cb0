// Package logging builds the daemon's zap logger.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures the daemon logger.
type Options struct {
	// LogFile is the rotating JSON log. Empty disables file output.
	LogFile string
	// Level is a zap level name; unknown values fall back to info.
	Level string
	// Console also writes human-readable lines to stderr.
	Console bool

	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// DefaultOptions returns options for a log file at path.
func DefaultOptions(path string) Options {
	return Options{
		LogFile:    path,
		Level:      "info",
		MaxSizeMB:  5,
		MaxBackups: 3,
		MaxAgeDays: 28,
	}
}

// ParseLevel converts a level name, defaulting to info.
func ParseLevel(name string) zapcore.Level {
	lvl, err := zapcore.ParseLevel(name)
	if err != nil {
		return zapcore.InfoLevel
	}
	return lvl
}

// New builds a logger writing JSON to a rotating file and, optionally,
// console lines to stderr. The returned level can be changed at runtime.
func New(opts Options) (*zap.Logger, zap.AtomicLevel, error) {
	level := zap.NewAtomicLevelAt(ParseLevel(opts.Level))

	config := zap.NewProductionConfig()
	config.EncoderConfig.TimeKey = "time"
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var cores []zapcore.Core
	if opts.LogFile != "" {
		if err := os.MkdirAll(filepath.Dir(opts.LogFile), 0700); err != nil {
			return nil, level, fmt.Errorf("failed to create log directory: %w", err)
		}
		writer := &lumberjack.Logger{
			Filename:   opts.LogFile,
			MaxSize:    opts.MaxSizeMB,
			MaxBackups: opts.MaxBackups,
			MaxAge:     opts.MaxAgeDays,
		}
		cores = append(cores, zapcore.NewCore(
			zapcore.NewJSONEncoder(config.EncoderConfig),
			zapcore.AddSync(writer),
			level,
		))
	}

	if opts.Console || len(cores) == 0 {
		console := zap.NewDevelopmentEncoderConfig()
		console.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
		console.EncodeLevel = zapcore.CapitalColorLevelEncoder
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(console),
			zapcore.Lock(os.Stderr),
			level,
		))
	}

	logger := zap.New(zapcore.NewTee(cores...),
		zap.AddCaller(),
		zap.AddStacktrace(zapcore.ErrorLevel),
	)
	return logger, level, nil
}

// WriteStacktrace appends a panic value and the current goroutine's stack
// to path.
func WriteStacktrace(path string, recovered any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	defer f.Close()

	_, err = fmt.Fprintf(f, "=== %s ===\npanic: %v\n\n%s\n",
		time.Now().Format(time.RFC3339), recovered, debug.Stack())
	return err
}
