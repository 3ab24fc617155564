//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package dispatchagent implements the dispatch loop: a state machine that
// lets the language model pick one capability at a time until it can give
// a final answer.
//
//	SELECTING -> ACTING -> OBSERVING -> SELECTING | FINISHED | ABORTED
//
// The loop keeps no state between calls to Answer; one Agent serves any
// number of concurrent questions.
package dispatchagent

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/planner/react"
	"trpc.group/trpc-go/trpc-science-agent/telemetry/trace"
	"trpc.group/trpc-go/trpc-science-agent/tool"
)

// InvalidFormatCapability names the synthetic step recorded when the
// model's reply could not be parsed even after the corrective retry.
const InvalidFormatCapability = "_invalid_format"

// state is a dispatch loop state.
type state int

const (
	stateSelecting state = iota
	stateActing
	stateObserving
	stateFinished
	stateAborted
)

func (s state) String() string {
	switch s {
	case stateSelecting:
		return "SELECTING"
	case stateActing:
		return "ACTING"
	case stateObserving:
		return "OBSERVING"
	case stateFinished:
		return "FINISHED"
	case stateAborted:
		return "ABORTED"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// Agent is the dispatch loop.
type Agent struct {
	name          string
	description   string
	model         model.Model
	registry      *tool.Registry
	planner       *react.Planner
	maxIterations int
	callTimeout   time.Duration
	reporter      agent.Reporter
	newRunID      func() string
}

var _ agent.Agent = (*Agent)(nil)

// New creates a dispatch agent. A missing model or an empty or invalid
// set of capabilities is a *errs.ConfigurationError.
func New(name string, opts ...Option) (*Agent, error) {
	options := defaultOptions
	for _, opt := range opts {
		opt(&options)
	}
	if options.Model == nil {
		return nil, errs.NewConfigurationError("dispatch agent has no model", nil)
	}

	registry := options.Registry
	if registry == nil {
		var err error
		if registry, err = tool.NewRegistry(options.Tools...); err != nil {
			return nil, err
		}
	}
	if options.ToolFilter != nil {
		visible, err := tool.NewRegistry(tool.FilterTools(registry.List(), options.ToolFilter)...)
		if err != nil {
			return nil, err
		}
		registry = visible
	}
	if registry.Len() == 0 {
		return nil, errs.NewConfigurationError("dispatch agent has no capabilities", nil)
	}
	registry.Freeze()

	planner := options.Planner
	if planner == nil {
		planner = react.New()
	}
	return &Agent{
		name:          name,
		description:   options.Description,
		model:         options.Model,
		registry:      registry,
		planner:       planner,
		maxIterations: options.MaxIterations,
		callTimeout:   options.CallTimeout,
		reporter:      options.Reporter,
		newRunID:      options.NewRunID,
	}, nil
}

// Info implements agent.Agent.
func (a *Agent) Info() agent.Info {
	return agent.Info{Name: a.name, Description: a.description}
}

// Registry returns the capabilities offered to the model.
func (a *Agent) Registry() *tool.Registry {
	return a.registry
}

// run is the state of one Answer call.
type run struct {
	id        string
	question  string
	trace     []agent.Step
	iteration int
	decision  react.Decision
	lastErr   error
}

// Answer implements agent.Agent. It always returns a Result, whose trace
// never holds more steps than the iteration cap.
func (a *Agent) Answer(ctx context.Context, question string) (result agent.Result) {
	r := &run{id: a.newRunID(), question: strings.TrimSpace(question)}

	ctx, span := trace.Tracer.Start(ctx, "dispatch "+a.name,
		oteltrace.WithAttributes(trace.KeyRunID.String(r.id)))
	defer func() {
		span.SetAttributes(trace.KeyIteration.Int(result.Iterations))
		if !result.OK() {
			span.SetAttributes(trace.KeyErrorKind.String(string(result.Error)))
			span.SetStatus(codes.Error, result.Detail)
		}
		span.End()
		a.report(func() {
			if rr, ok := a.reporter.(agent.ResultReporter); ok {
				rr.OnResult(ctx, result)
			}
		})
	}()

	if r.question == "" {
		return a.abort(r, agent.ErrorInvalidInput, "question is empty")
	}

	st := stateSelecting
	for {
		log.Tracef("dispatch %s: run %s iteration %d state %s", a.name, r.id, r.iteration, st)
		switch st {
		case stateSelecting:
			if err := ctx.Err(); err != nil {
				return a.cancelled(r, err)
			}
			if r.iteration >= a.maxIterations {
				return a.abort(r, agent.ErrorIterationLimitExceeded, a.limitDetail(r))
			}
			r.iteration++
			st = a.selectNext(ctx, r)
		case stateActing:
			st = a.act(ctx, r)
		case stateObserving:
			step := r.trace[len(r.trace)-1]
			if step.Synthetic {
				a.report(func() { a.reporter.OnStepStart(ctx, step.Capability, step.Query) })
			}
			a.report(func() { a.reporter.OnStepObservation(ctx, step.Capability, step.Observation) })
			st = stateSelecting
		case stateFinished:
			answer := r.decision.(react.Finish).Answer
			a.report(func() { a.reporter.OnFinish(ctx, answer) })
			log.Debugf("dispatch %s: run %s finished after %d iterations", a.name, r.id, r.iteration)
			return agent.Result{
				RunID:       r.id,
				FinalAnswer: answer,
				Trace:       r.trace,
				Iterations:  r.iteration,
			}
		case stateAborted:
			return a.cancelled(r, ctx.Err())
		}
	}
}

// selectNext asks the model for a decision, with one corrective retry for
// a malformed reply.
func (a *Agent) selectNext(ctx context.Context, r *run) state {
	req := a.planner.BuildRequest(r.question, a.registry.Declarations(), r.trace)
	reply, err := a.generate(ctx, req)
	if err != nil {
		return a.modelFailed(ctx, r, err)
	}
	decision := a.planner.Parse(reply)
	if bad, ok := decision.(react.Malformed); ok {
		log.Debugf("dispatch %s: run %s malformed reply (%s), asking again", a.name, r.id, bad.Reason)
		reply, err = a.generate(ctx, a.planner.CorrectiveRequest(req, reply, bad.Reason))
		if err != nil {
			return a.modelFailed(ctx, r, err)
		}
		decision = a.planner.Parse(reply)
	}

	r.decision = decision
	switch d := decision.(type) {
	case react.Finish:
		return stateFinished
	case react.Act:
		return stateActing
	case react.Malformed:
		perr := &errs.ParseError{Stage: "decision", Output: reply, Reason: d.Reason}
		r.lastErr = perr
		r.trace = append(r.trace, agent.Step{
			Capability:  InvalidFormatCapability,
			Observation: "Invalid format: " + d.Reason + ". Reply with " + react.ActionTag + " or " + react.FinalAnswerTag + ".",
			Err:         perr,
			Synthetic:   true,
		})
		return stateObserving
	default:
		panic(fmt.Sprintf("dispatchagent: unexpected decision %T", decision))
	}
}

func (a *Agent) generate(ctx context.Context, req *model.Request) (string, error) {
	rsp, err := a.model.Generate(ctx, req)
	if err != nil {
		return "", err
	}
	return rsp.Content, nil
}

// modelFailed consumes the iteration. No step is recorded.
func (a *Agent) modelFailed(ctx context.Context, r *run, err error) state {
	if ctx.Err() != nil {
		return stateAborted
	}
	log.Warnf("dispatch %s: run %s iteration %d: model call failed: %v", a.name, r.id, r.iteration, err)
	r.lastErr = fmt.Errorf("model: %w", err)
	return stateSelecting
}

// act invokes the selected capability and records the step.
func (a *Agent) act(ctx context.Context, r *run) state {
	d := r.decision.(react.Act)
	t, ok := a.registry.Lookup(d.Capability)
	if !ok {
		r.lastErr = fmt.Errorf("unknown capability %q", d.Capability)
		r.trace = append(r.trace, agent.Step{
			Capability: d.Capability,
			Query:      d.Query,
			Observation: fmt.Sprintf("%s is not a valid capability, try one of [%s].",
				d.Capability, strings.Join(a.registry.Names(), ", ")),
			Err:       r.lastErr,
			Synthetic: true,
		})
		return stateObserving
	}

	a.report(func() { a.reporter.OnStepStart(ctx, d.Capability, d.Query) })
	out, err := a.call(ctx, t, d)
	if ctx.Err() != nil {
		return stateAborted
	}
	step := agent.Step{Capability: d.Capability, Query: d.Query, Observation: out}
	if err != nil {
		log.Debugf("dispatch %s: run %s capability %s failed: %v", a.name, r.id, d.Capability, err)
		step.Observation = "Error: " + err.Error()
		step.Err = err
		r.lastErr = err
	}
	r.trace = append(r.trace, step)
	return stateObserving
}

func (a *Agent) call(ctx context.Context, t tool.Tool, d react.Act) (out string, err error) {
	ctx, span := trace.Tracer.Start(ctx, "execute_capability "+d.Capability,
		oteltrace.WithAttributes(trace.KeyCapability.String(d.Capability)))
	defer span.End()

	callCtx, cancel := context.WithTimeout(ctx, a.callTimeout)
	defer cancel()

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("capability %s panicked: %v", d.Capability, rec)
		}
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	out, err = t.Call(callCtx, d.Query)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		err = fmt.Errorf("%s timed out after %s", d.Capability, a.callTimeout)
	}
	return out, err
}

func (a *Agent) abort(r *run, kind agent.ErrorKind, detail string) agent.Result {
	log.Infof("dispatch %s: run %s aborted: %s: %s", a.name, r.id, kind, detail)
	return agent.Result{
		RunID:      r.id,
		Error:      kind,
		Detail:     detail,
		Trace:      r.trace,
		Iterations: r.iteration,
	}
}

func (a *Agent) cancelled(r *run, err error) agent.Result {
	detail := "cancelled"
	if err != nil {
		detail = err.Error()
	}
	return a.abort(r, agent.ErrorCancelled, detail)
}

func (a *Agent) limitDetail(r *run) string {
	detail := fmt.Sprintf("no final answer after %d iterations", r.iteration)
	if r.lastErr != nil {
		detail += "; last error: " + r.lastErr.Error()
	}
	return detail
}

// report runs a reporter callback. Reporter panics are logged and
// swallowed.
func (a *Agent) report(fn func()) {
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("dispatch %s: reporter panicked: %v", a.name, rec)
		}
	}()
	fn()
}
