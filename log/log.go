// MIT License
//
// Copyright (c) 2025-2026 Prestige Authors
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in all
// copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
// SOFTWARE.

// Package log provides the leveled logger used across the prestige caching core.
package log

import (
	"io"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Level defines the logging verbosity.
type Level int

const (
	// DebugLevel logs everything, including verbose cache traffic.
	DebugLevel Level = iota
	// InfoLevel is the default level.
	InfoLevel
	// WarnLevel logs recoverable anomalies such as remote tier faults.
	WarnLevel
	// ErrorLevel logs failures surfaced to callers.
	ErrorLevel
)

// Logger defines the logging contract consumed by the caching core.
// Implementations must be safe for concurrent use.
type Logger interface {
	// Debug logs at debug level.
	Debug(args ...any)
	// Debugf logs at debug level with a format string.
	Debugf(format string, args ...any)
	// Info logs at info level.
	Info(args ...any)
	// Infof logs at info level with a format string.
	Infof(format string, args ...any)
	// Warn logs at warn level.
	Warn(args ...any)
	// Warnf logs at warn level with a format string.
	Warnf(format string, args ...any)
	// Error logs at error level.
	Error(args ...any)
	// Errorf logs at error level with a format string.
	Errorf(format string, args ...any)
	// Fatal logs at error level then exits the process.
	Fatal(args ...any)
	// Fatalf logs at error level with a format string then exits the process.
	Fatalf(format string, args ...any)
	// LogLevel returns the configured level.
	LogLevel() Level
}

// DefaultLogger logs to stdout at info level.
var DefaultLogger = New(InfoLevel, os.Stdout)

// DiscardLogger swallows every record. Handy in tests.
var DiscardLogger = New(InfoLevel, io.Discard)

type logger struct {
	level Level
	sugar *zap.SugaredLogger
}

var _ Logger = (*logger)(nil)

// New creates a Logger writing to the given writers at the given level.
func New(level Level, writers ...io.Writer) Logger {
	syncers := make([]zapcore.WriteSyncer, 0, len(writers))
	for _, writer := range writers {
		syncers = append(syncers, zapcore.AddSync(writer))
	}

	var zapLevel zapcore.Level
	switch level {
	case DebugLevel:
		zapLevel = zapcore.DebugLevel
	case WarnLevel:
		zapLevel = zapcore.WarnLevel
	case ErrorLevel:
		zapLevel = zapcore.ErrorLevel
	default:
		zapLevel = zapcore.InfoLevel
	}

	encoderConfig := zap.NewProductionEncoderConfig()
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.NewMultiWriteSyncer(syncers...),
		zapLevel,
	)

	return &logger{
		level: level,
		sugar: zap.New(core).Sugar(),
	}
}

func (l *logger) Debug(args ...any)                 { l.sugar.Debug(args...) }
func (l *logger) Debugf(format string, args ...any) { l.sugar.Debugf(format, args...) }
func (l *logger) Info(args ...any)                  { l.sugar.Info(args...) }
func (l *logger) Infof(format string, args ...any)  { l.sugar.Infof(format, args...) }
func (l *logger) Warn(args ...any)                  { l.sugar.Warn(args...) }
func (l *logger) Warnf(format string, args ...any)  { l.sugar.Warnf(format, args...) }
func (l *logger) Error(args ...any)                 { l.sugar.Error(args...) }
func (l *logger) Errorf(format string, args ...any) { l.sugar.Errorf(format, args...) }
func (l *logger) Fatal(args ...any)                 { l.sugar.Fatal(args...) }
func (l *logger) Fatalf(format string, args ...any) { l.sugar.Fatalf(format, args...) }

func (l *logger) LogLevel() Level { return l.level }
