//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package log is the process-wide logger, backed by zap.
//
// Logs go to stderr so the CLI keeps stdout for answers and the live step
// stream. The "trace" level is debug plus Tracef output, which carries
// prompts and raw model replies.
package log

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Levels accepted by SetLevel and ParseLevel.
const (
	LevelTrace = "trace"
	LevelDebug = "debug"
	LevelInfo  = "info"
	LevelWarn  = "warn"
	LevelError = "error"
)

// Output formats accepted by SetFormat.
const (
	FormatConsole = "console"
	FormatJSON    = "json"
)

// Logger is the subset of *zap.SugaredLogger the module logs through.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

var (
	zapLevel     = zap.NewAtomicLevelAt(zapcore.InfoLevel)
	traceEnabled atomic.Bool

	mu     sync.Mutex
	output io.Writer = os.Stderr
	format           = FormatConsole
)

// Default is the logger behind the package functions. Tests may replace it.
var Default Logger = build(os.Stderr, FormatConsole)

var encoderConfig = zapcore.EncoderConfig{
	TimeKey:        "ts",
	LevelKey:       "lvl",
	CallerKey:      "caller",
	MessageKey:     "msg",
	StacktraceKey:  "stacktrace",
	LineEnding:     zapcore.DefaultLineEnding,
	EncodeLevel:    zapcore.CapitalLevelEncoder,
	EncodeTime:     zapcore.RFC3339TimeEncoder,
	EncodeDuration: zapcore.StringDurationEncoder,
	EncodeCaller:   zapcore.ShortCallerEncoder,
}

func build(w io.Writer, f string) Logger {
	var enc zapcore.Encoder
	if f == FormatJSON {
		enc = zapcore.NewJSONEncoder(encoderConfig)
	} else {
		enc = zapcore.NewConsoleEncoder(encoderConfig)
	}
	return zap.New(
		zapcore.NewCore(enc, zapcore.AddSync(w), zapLevel),
		zap.AddCaller(),
		zap.AddCallerSkip(1),
	).Sugar()
}

// SetOutput rebuilds Default so that it writes to w.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	Default = build(output, format)
}

// SetFormat switches between console and JSON lines. Unknown formats are
// an error and leave the logger unchanged.
func SetFormat(f string) error {
	f = strings.ToLower(strings.TrimSpace(f))
	if f == "" {
		f = FormatConsole
	}
	if f != FormatConsole && f != FormatJSON {
		return fmt.Errorf("unknown log format %q", f)
	}
	mu.Lock()
	defer mu.Unlock()
	format = f
	Default = build(output, format)
	return nil
}

// ParseLevel maps a level name to its zap level. "trace" maps to debug.
func ParseLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case LevelTrace, LevelDebug:
		return zapcore.DebugLevel, nil
	case LevelInfo, "":
		return zapcore.InfoLevel, nil
	case LevelWarn, "warning":
		return zapcore.WarnLevel, nil
	case LevelError:
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level %q", level)
	}
}

// SetLevel sets the level. Unknown levels fall back to info.
func SetLevel(level string) {
	l, _ := ParseLevel(level)
	zapLevel.SetLevel(l)
	traceEnabled.Store(strings.EqualFold(strings.TrimSpace(level), LevelTrace))
}

// SetTraceEnabled turns Tracef output on or off.
func SetTraceEnabled(enabled bool) {
	traceEnabled.Store(enabled)
}

// Debugf logs at debug level.
func Debugf(format string, args ...any) {
	Default.Debugf(format, args...)
}

// Infof logs at info level.
func Infof(format string, args ...any) {
	Default.Infof(format, args...)
}

// Warnf logs at warn level.
func Warnf(format string, args ...any) {
	Default.Warnf(format, args...)
}

// Errorf logs at error level.
func Errorf(format string, args ...any) {
	Default.Errorf(format, args...)
}

// Tracef logs at debug level with a [TRACE] prefix when trace is enabled.
func Tracef(format string, args ...any) {
	if !traceEnabled.Load() {
		return
	}
	Default.Debugf("[TRACE] "+format, args...)
}
