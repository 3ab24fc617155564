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
	"context"
	"fmt"
	"io"
	"strings"
	"sync"

	"trpc.group/trpc-go/trpc-science-agent/internal/util"
)

// Reporter observes a dispatch loop. Calls are synchronous and made from
// the goroutine running the loop. A Reporter cannot change control flow.
type Reporter interface {
	// OnStepStart is called once per step: before a capability is invoked,
	// or right before the observation of a synthetic step.
	OnStepStart(ctx context.Context, capability, query string)
	// OnStepObservation is called after a step is appended to the trace.
	OnStepObservation(ctx context.Context, capability, observation string)
	// OnFinish is called once when the model produced a final answer.
	OnFinish(ctx context.Context, answer string)
}

// ResultReporter is implemented by reporters that also want the final
// Result of every run, aborted runs included.
type ResultReporter interface {
	OnResult(ctx context.Context, result Result)
}

// NopReporter discards everything.
type NopReporter struct{}

// OnStepStart implements Reporter.
func (NopReporter) OnStepStart(context.Context, string, string) {}

// OnStepObservation implements Reporter.
func (NopReporter) OnStepObservation(context.Context, string, string) {}

// OnFinish implements Reporter.
func (NopReporter) OnFinish(context.Context, string) {}

// MultiReporter forwards every event to each reporter in order.
type MultiReporter []Reporter

// OnStepStart implements Reporter.
func (m MultiReporter) OnStepStart(ctx context.Context, capability, query string) {
	for _, r := range m {
		r.OnStepStart(ctx, capability, query)
	}
}

// OnStepObservation implements Reporter.
func (m MultiReporter) OnStepObservation(ctx context.Context, capability, observation string) {
	for _, r := range m {
		r.OnStepObservation(ctx, capability, observation)
	}
}

// OnFinish implements Reporter.
func (m MultiReporter) OnFinish(ctx context.Context, answer string) {
	for _, r := range m {
		r.OnFinish(ctx, answer)
	}
}

// OnResult forwards the result to the reporters implementing
// ResultReporter.
func (m MultiReporter) OnResult(ctx context.Context, result Result) {
	for _, r := range m {
		if rr, ok := r.(ResultReporter); ok {
			rr.OnResult(ctx, result)
		}
	}
}

// WriterReporter streams a human readable account of the loop to a
// writer, one line per event.
type WriterReporter struct {
	mu sync.Mutex
	w  io.Writer
	// maxObservation caps the runes printed per observation; 0 prints all.
	maxObservation int
}

// NewWriterReporter creates a WriterReporter. Observations longer than
// maxObservation runes are shortened; 0 disables shortening.
func NewWriterReporter(w io.Writer, maxObservation int) *WriterReporter {
	return &WriterReporter{w: w, maxObservation: maxObservation}
}

// OnStepStart implements Reporter.
func (r *WriterReporter) OnStepStart(_ context.Context, capability, query string) {
	r.printf("> %s: %s\n", capability, oneLine(query))
}

// OnStepObservation implements Reporter.
func (r *WriterReporter) OnStepObservation(_ context.Context, capability, observation string) {
	if r.maxObservation > 0 {
		observation = util.Truncate(observation, r.maxObservation)
	}
	r.printf("  [%s] %s\n", capability, strings.ReplaceAll(observation, "\n", "\n  "))
}

// OnFinish implements Reporter.
func (r *WriterReporter) OnFinish(_ context.Context, answer string) {
	r.printf("= %s\n", oneLine(answer))
}

func (r *WriterReporter) printf(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	fmt.Fprintf(r.w, format, args...)
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
