//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package metric exports dispatch loop activity as Prometheus metrics.
package metric

import (
	"context"
	"net/http"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/model"
)

const namespace = "scibot"

// Outcome label values of scibot_runs_total.
const (
	OutcomeAnswered = "answered"
)

// Reporter counts steps and runs. It implements agent.Reporter and
// agent.ResultReporter.
type Reporter struct {
	registry   *prometheus.Registry
	steps      *prometheus.CounterVec
	stepErrors *prometheus.CounterVec
	finishes   prometheus.Counter
	runs       *prometheus.CounterVec
	iterations prometheus.Histogram
	modelCalls *prometheus.CounterVec
	modelTime  prometheus.Histogram
	tokens     *prometheus.CounterVec
}

var (
	_ agent.Reporter       = (*Reporter)(nil)
	_ agent.ResultReporter = (*Reporter)(nil)
)

// NewReporter creates a Reporter with its own registry, which also holds
// the Go and process collectors.
func NewReporter() *Reporter {
	r := &Reporter{
		registry: prometheus.NewRegistry(),
		steps: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "steps_total",
			Help:      "Capability invocations started, by capability.",
		}, []string{"capability"}),
		stepErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "step_errors_total",
			Help:      "Steps whose observation reported an error, by capability.",
		}, []string{"capability"}),
		finishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "finishes_total",
			Help:      "Runs that produced a final answer.",
		}),
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "runs_total",
			Help:      "Completed runs, by outcome.",
		}, []string{"outcome"}),
		iterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_iterations",
			Help:      "Iterations consumed per run.",
			Buckets:   prometheus.LinearBuckets(1, 2, 8),
		}),
		modelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Completion requests, by model and outcome.",
		}, []string{"model", "outcome"}),
		modelTime: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_seconds",
			Help:      "Completion request latency.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		tokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Tokens reported by the provider, by kind.",
		}, []string{"kind"}),
	}
	r.registry.MustRegister(
		r.steps, r.stepErrors, r.finishes, r.runs, r.iterations,
		r.modelCalls, r.modelTime, r.tokens,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return r
}

// OnStepStart implements agent.Reporter.
func (r *Reporter) OnStepStart(_ context.Context, capability, _ string) {
	r.steps.WithLabelValues(capability).Inc()
}

// OnStepObservation implements agent.Reporter.
func (r *Reporter) OnStepObservation(_ context.Context, capability, observation string) {
	if strings.HasPrefix(observation, "Error:") {
		r.stepErrors.WithLabelValues(capability).Inc()
	}
}

// OnFinish implements agent.Reporter.
func (r *Reporter) OnFinish(context.Context, string) {
	r.finishes.Inc()
}

// OnResult implements agent.ResultReporter.
func (r *Reporter) OnResult(_ context.Context, result agent.Result) {
	outcome := OutcomeAnswered
	if !result.OK() {
		outcome = string(result.Error)
	}
	r.runs.WithLabelValues(outcome).Inc()
	r.iterations.Observe(float64(result.Iterations))
}

// ObserveModelCall records one completion request. It is a model.Observer.
func (r *Reporter) ObserveModelCall(_ context.Context, call model.Call) {
	outcome := "ok"
	if call.Err != nil {
		outcome = "error"
	}
	r.modelCalls.WithLabelValues(call.Model, outcome).Inc()
	r.modelTime.Observe(call.Elapsed.Seconds())
	if call.Usage != nil {
		r.tokens.WithLabelValues("prompt").Add(float64(call.Usage.PromptTokens))
		r.tokens.WithLabelValues("completion").Add(float64(call.Usage.CompletionTokens))
	}
}

// Registry returns the registry holding the metrics.
func (r *Reporter) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the metrics in the Prometheus text format.
func (r *Reporter) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}
