//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package agent

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-science-agent/model"
)

func TestResult_OK(t *testing.T) {
	ok := Result{FinalAnswer: "42"}
	assert.True(t, ok.OK())
	assert.Equal(t, "42", ok.Display())

	failed := Result{Error: ErrorIterationLimitExceeded, Detail: "last error: timeout"}
	assert.False(t, failed.OK())
	assert.Equal(t, "An error occurred: iteration_limit_exceeded: last error: timeout", failed.Display())

	cancelled := Result{Error: ErrorCancelled}
	assert.Equal(t, "An error occurred: cancelled", cancelled.Display())
}

type recordingReporter struct {
	events []string
}

func (r *recordingReporter) OnStepStart(_ context.Context, capability, query string) {
	r.events = append(r.events, "start:"+capability+":"+query)
}

func (r *recordingReporter) OnStepObservation(_ context.Context, capability, observation string) {
	r.events = append(r.events, "obs:"+capability+":"+observation)
}

func (r *recordingReporter) OnFinish(_ context.Context, answer string) {
	r.events = append(r.events, "finish:"+answer)
}

func (r *recordingReporter) OnResult(_ context.Context, result Result) {
	r.events = append(r.events, "result:"+string(result.Error))
}

func TestMultiReporter(t *testing.T) {
	a, b := &recordingReporter{}, &recordingReporter{}
	m := MultiReporter{a, NopReporter{}, b}
	ctx := context.Background()

	m.OnStepStart(ctx, "wikipedia", "light")
	m.OnStepObservation(ctx, "wikipedia", "Page: Light")
	m.OnFinish(ctx, "299792458 m/s")

	m.OnResult(ctx, Result{Error: ErrorCancelled})

	want := []string{
		"start:wikipedia:light",
		"obs:wikipedia:Page: Light",
		"finish:299792458 m/s",
		"result:cancelled",
	}
	assert.Equal(t, want, a.events)
	assert.Equal(t, want, b.events)
}

func TestWriterReporter(t *testing.T) {
	var buf bytes.Buffer
	r := NewWriterReporter(&buf, 10)
	ctx := context.Background()

	r.OnStepStart(ctx, "calculator", "what is\n 2 + 2")
	r.OnStepObservation(ctx, "calculator", "Answer: 4")
	r.OnStepObservation(ctx, "wikipedia", "Page: Speed of light")
	r.OnFinish(ctx, "4")

	out := buf.String()
	assert.Contains(t, out, "> calculator: what is 2 + 2\n")
	assert.Contains(t, out, "  [calculator] Answer: 4\n")
	assert.NotContains(t, out, "Speed of light")
	assert.Contains(t, out, "= 4\n")
}

func TestConversation(t *testing.T) {
	c := NewConversation("How can I help you?")
	require.Equal(t, 1, c.Len())

	assert.True(t, c.Append(model.RoleUser, "What is the speed of light?"))
	assert.True(t, c.Append(model.RoleAssistant, "299792458 m/s"))
	assert.False(t, c.Append(model.RoleSystem, "ignored"))

	msgs := c.Messages()
	require.Len(t, msgs, 3)
	assert.Equal(t, model.RoleAssistant, msgs[0].Role)
	assert.Equal(t, "What is the speed of light?", msgs[1].Content)

	msgs[0].Content = "changed"
	assert.Equal(t, "How can I help you?", c.Messages()[0].Content)

	assert.Equal(t, 0, NewConversation("").Len())
}
