// Copyright (c) 2023-2025 RapidaAI
// Author: Prashant Srivastav <prashant@rapida.ai>
//
// Licensed under GPL-2.0 with Rapida Additional Terms.
// See LICENSE.md or contact sales@rapida.ai for commercial usage.
package commons

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Logger is the structured logger shared by every package of the service.
type Logger interface {
	Debug(args ...interface{})
	Debugf(template string, args ...interface{})
	Debugw(msg string, keysAndValues ...interface{})
	Info(args ...interface{})
	Infof(template string, args ...interface{})
	Infow(msg string, keysAndValues ...interface{})
	Warn(args ...interface{})
	Warnf(template string, args ...interface{})
	Warnw(msg string, keysAndValues ...interface{})
	Error(args ...interface{})
	Errorf(template string, args ...interface{})
	Errorw(msg string, keysAndValues ...interface{})

	// Benchmark logs how long a named operation took.
	Benchmark(functionName string, duration time.Duration)

	// With returns a child logger carrying the given key/value pairs.
	With(keysAndValues ...interface{}) Logger
	Sync() error
}

type loggerOption struct {
	name       string
	path       string
	level      string
	maxSizeMB  int
	maxBackups int
	maxAgeDays int
	console    bool
}

// Option customises NewApplicationLogger.
type Option func(*loggerOption)

// Name sets the service name; it is used as the log file name.
func Name(name string) Option {
	return func(o *loggerOption) { o.name = name }
}

// Path sets the directory the rotating log file is written into.
func Path(path string) Option {
	return func(o *loggerOption) { o.path = path }
}

// Level sets the minimum level: debug, info, warn or error.
func Level(level string) Option {
	return func(o *loggerOption) { o.level = level }
}

// Console toggles the stdout core.
func Console(enabled bool) Option {
	return func(o *loggerOption) { o.console = enabled }
}

// applicationLogger promotes the sugared methods, so their caller is already
// the call site. Only Benchmark adds a frame of its own.
type applicationLogger struct {
	*zap.SugaredLogger
	bench *zap.SugaredLogger
}

func newLogger(base *zap.Logger) *applicationLogger {
	return fromSugared(base.Sugar())
}

func fromSugared(s *zap.SugaredLogger) *applicationLogger {
	return &applicationLogger{SugaredLogger: s, bench: s.WithOptions(zap.AddCallerSkip(1))}
}

// NewApplicationLogger builds a zap logger with a lumberjack rotating file core and, unless
// disabled, a console core.
func NewApplicationLogger(opts ...Option) (Logger, error) {
	o := &loggerOption{
		name:       "speaking-coach",
		path:       filepath.Join(os.TempDir(), "rapida", "logs"),
		level:      "info",
		maxSizeMB:  100,
		maxBackups: 5,
		maxAgeDays: 14,
		console:    true,
	}
	for _, opt := range opts {
		opt(o)
	}

	level, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(o.level)))
	if err != nil {
		return nil, fmt.Errorf("commons: invalid log level %q: %w", o.level, err)
	}
	if err := os.MkdirAll(o.path, 0o755); err != nil {
		return nil, fmt.Errorf("commons: creating log directory: %w", err)
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	fileWriter := zapcore.AddSync(&lumberjack.Logger{
		Filename:   filepath.Join(o.path, o.name+".log"),
		MaxSize:    o.maxSizeMB,
		MaxBackups: o.maxBackups,
		MaxAge:     o.maxAgeDays,
		Compress:   true,
	})

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewJSONEncoder(encoderConfig), fileWriter, level),
	}
	if o.console {
		cores = append(cores, zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(os.Stdout),
			level,
		))
	}

	return newLogger(zap.New(zapcore.NewTee(cores...), zap.AddCaller()).Named(o.name)), nil
}

func (l *applicationLogger) Benchmark(functionName string, duration time.Duration) {
	l.bench.Debugw("benchmark",
		"function", functionName,
		"duration_ms", duration.Milliseconds(),
	)
}

func (l *applicationLogger) With(keysAndValues ...interface{}) Logger {
	return fromSugared(l.SugaredLogger.With(keysAndValues...))
}

// NewNopLogger discards everything; handy for callers that do not care about logs.
func NewNopLogger() Logger {
	return newLogger(zap.NewNop())
}
