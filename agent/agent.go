//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package agent defines the types shared by dispatch loops and the
// collaborators that drive them: trace steps, results and reporters.
package agent

import (
	"context"
	"fmt"
)

// Agent answers a single question.
type Agent interface {
	// Answer runs a dispatch loop for question. It always returns a
	// Result; failures are reported through Result.Error.
	Answer(ctx context.Context, question string) Result
	// Info returns basic information about the agent.
	Info() Info
}

// Info contains basic information about an agent.
type Info struct {
	// Name is the name of the agent.
	Name string
	// Description is the description of the agent.
	Description string
}

// Step is one capability invocation and what came back from it. Steps are
// appended to the trace once per iteration and never modified afterwards.
type Step struct {
	// Capability is the name the model selected.
	Capability string `json:"capability"`
	// Query is the input the model passed.
	Query string `json:"query"`
	// Observation is the adapter output, or "Error: <reason>".
	Observation string `json:"observation"`
	// Err is the adapter or parse error behind an error observation.
	Err error `json:"-"`
	// Synthetic marks steps produced by the loop itself rather than by a
	// capability, such as the reply to an unknown capability name.
	Synthetic bool `json:"synthetic,omitempty"`
}

// ErrorKind classifies a failed Result.
type ErrorKind string

// Error kinds.
const (
	// ErrorNone is the zero value; the Result carries a final answer.
	ErrorNone ErrorKind = ""
	// ErrorIterationLimitExceeded means the loop hit its iteration cap.
	ErrorIterationLimitExceeded ErrorKind = "iteration_limit_exceeded"
	// ErrorCancelled means the caller's context ended the loop.
	ErrorCancelled ErrorKind = "cancelled"
	// ErrorInvalidInput means the question was rejected before any model
	// call.
	ErrorInvalidInput ErrorKind = "invalid_input"
	// ErrorInternal means the agent crashed and the run was abandoned.
	ErrorInternal ErrorKind = "internal_error"
)

// Result is the outcome of one dispatch loop. Exactly one of FinalAnswer
// and Error is populated.
type Result struct {
	// RunID identifies the run in logs, spans and metrics.
	RunID string `json:"run_id"`
	// FinalAnswer is set when the model finished.
	FinalAnswer string `json:"final_answer,omitempty"`
	// Error is set when the loop aborted.
	Error ErrorKind `json:"error,omitempty"`
	// Detail explains Error, including the last failure seen.
	Detail string `json:"detail,omitempty"`
	// Trace lists the steps in the order they were taken.
	Trace []Step `json:"trace"`
	// Iterations is the number of iterations consumed.
	Iterations int `json:"iterations"`
}

// OK reports whether the result carries a final answer.
func (r Result) OK() bool {
	return r.Error == ErrorNone
}

// Display renders the result the way the UI shows it to a user.
func (r Result) Display() string {
	if r.OK() {
		return r.FinalAnswer
	}
	if r.Detail == "" {
		return fmt.Sprintf("An error occurred: %s", r.Error)
	}
	return fmt.Sprintf("An error occurred: %s: %s", r.Error, r.Detail)
}
