//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package log

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func restore(t *testing.T) {
	old := Default
	t.Cleanup(func() {
		SetLevel(LevelInfo)
		require.NoError(t, SetFormat(FormatConsole))
		SetOutput(os.Stderr)
		Default = old
	})
}

func TestSetLevel(t *testing.T) {
	restore(t)
	cases := []struct {
		in        string
		expected  zapcore.Level
		wantTrace bool
	}{
		{LevelTrace, zapcore.DebugLevel, true},
		{LevelDebug, zapcore.DebugLevel, false},
		{"INFO", zapcore.InfoLevel, false},
		{LevelWarn, zapcore.WarnLevel, false},
		{LevelError, zapcore.ErrorLevel, false},
		{"unknown", zapcore.InfoLevel, false},
	}
	for _, c := range cases {
		SetLevel(c.in)
		assert.Equal(t, c.expected, zapLevel.Level(), "SetLevel(%q)", c.in)
		assert.Equal(t, c.wantTrace, traceEnabled.Load(), "SetLevel(%q)", c.in)
	}
}

func TestParseLevel(t *testing.T) {
	l, err := ParseLevel(" warning ")
	require.NoError(t, err)
	assert.Equal(t, zapcore.WarnLevel, l)

	_, err = ParseLevel("verbose")
	assert.EqualError(t, err, `unknown log level "verbose"`)
}

func TestSetOutput(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	Infof("dispatch %s", "started")
	Debugf("hidden")
	assert.Contains(t, buf.String(), "dispatch started")
	assert.Contains(t, buf.String(), "INFO")
	assert.NotContains(t, buf.String(), "hidden")
}

func TestSetFormat(t *testing.T) {
	restore(t)
	var buf bytes.Buffer
	SetOutput(&buf)
	require.NoError(t, SetFormat(FormatJSON))
	Warnf("capability %s failed", "arxiv")

	var line map[string]any
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(buf.Bytes()), &line))
	assert.Equal(t, "capability arxiv failed", line["msg"])
	assert.Equal(t, "WARN", line["lvl"])

	assert.Error(t, SetFormat("xml"))
}

func TestTracef(t *testing.T) {
	restore(t)
	stub := &stubLogger{}
	Default = stub

	Tracef("hello %s", "world")
	assert.Equal(t, 0, stub.debugfCalls, "trace is disabled by default")

	SetTraceEnabled(true)
	Tracef("hello %s", "world")
	assert.Equal(t, 1, stub.debugfCalls)
	assert.True(t, strings.HasPrefix(stub.lastFormat, "[TRACE] "))
}

type stubLogger struct {
	lastFormat  string
	debugfCalls int
}

func (s *stubLogger) Debugf(format string, args ...any) {
	s.debugfCalls++
	s.lastFormat = format
}
func (s *stubLogger) Infof(format string, args ...any)  {}
func (s *stubLogger) Warnf(format string, args ...any)  {}
func (s *stubLogger) Errorf(format string, args ...any) {}
