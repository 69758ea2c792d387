// Package logging builds the structured loggers used by every actor of a run.
package logging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/najoast/hashmine/config"
)

// ErrUnknownLevel is returned for log levels zap does not know
var ErrUnknownLevel = errors.New("logging: unknown level")

// Logger is a zap logger whose level can change while it is in use.
type Logger struct {
	*zap.Logger

	level zap.AtomicLevel
	close func() error
}

// NewRunID returns a fresh identifier for one run.
func NewRunID() string {
	return uuid.NewString()
}

// ParseLevel maps a configured level onto zap.
func ParseLevel(level config.LogLevel) (zapcore.Level, error) {
	switch level {
	case config.LogLevelDebug:
		return zapcore.DebugLevel, nil
	case config.LogLevelInfo, "":
		return zapcore.InfoLevel, nil
	case config.LogLevelWarn:
		return zapcore.WarnLevel, nil
	case config.LogLevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("%w: %q", ErrUnknownLevel, level)
	}
}

// New creates a logger from the log configuration. Every entry carries the
// run ID when one is given.
func New(cfg config.LogConfig, runID string) (*Logger, error) {
	lvl, err := ParseLevel(cfg.Level)
	if err != nil {
		return nil, err
	}
	level := zap.NewAtomicLevelAt(lvl)

	sink, closeSink, err := openSink(cfg.Output)
	if err != nil {
		return nil, err
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.TimeKey = "time"
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch cfg.Format {
	case config.LogFormatJSON:
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	default:
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	}

	logger := zap.New(zapcore.NewCore(encoder, sink, level))
	if runID != "" {
		logger = logger.With(zap.String("run", runID))
	}

	return &Logger{
		Logger: logger,
		level:  level,
		close:  closeSink,
	}, nil
}

// Nop returns a logger that discards everything.
func Nop() *Logger {
	return &Logger{
		Logger: zap.NewNop(),
		level:  zap.NewAtomicLevel(),
		close:  func() error { return nil },
	}
}

// SetLevel changes the level of this logger and every logger derived from it.
func (l *Logger) SetLevel(level config.LogLevel) error {
	lvl, err := ParseLevel(level)
	if err != nil {
		return err
	}
	l.level.SetLevel(lvl)
	return nil
}

// Level returns the current level.
func (l *Logger) Level() zapcore.Level {
	return l.level.Level()
}

// Close flushes buffered entries and releases a file output.
func (l *Logger) Close() error {
	// Sync on a terminal returns EINVAL on some platforms; nothing is lost.
	_ = l.Logger.Sync()
	return l.close()
}

func openSink(output string) (zapcore.WriteSyncer, func() error, error) {
	noop := func() error { return nil }

	switch output {
	case "", "stderr":
		return zapcore.Lock(os.Stderr), noop, nil
	case "stdout":
		return zapcore.Lock(os.Stdout), noop, nil
	}

	if err := os.MkdirAll(filepath.Dir(output), 0o755); err != nil {
		return nil, nil, fmt.Errorf("logging: ensure log dir: %w", err)
	}
	f, err := os.OpenFile(output, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, nil, fmt.Errorf("logging: open log file: %w", err)
	}
	return zapcore.Lock(f), f.Close, nil
}
