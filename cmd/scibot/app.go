//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/agent/dispatchagent"
	"trpc.group/trpc-go/trpc-science-agent/config"
	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/model/provider"
	"trpc.group/trpc-go/trpc-science-agent/planner/react"
	"trpc.group/trpc-go/trpc-science-agent/runner"
	"trpc.group/trpc-go/trpc-science-agent/telemetry/metric"
	"trpc.group/trpc-go/trpc-science-agent/telemetry/trace"
	"trpc.group/trpc-go/trpc-science-agent/tool"
	"trpc.group/trpc-go/trpc-science-agent/tool/arxivsearch"
	"trpc.group/trpc-go/trpc-science-agent/tool/calculator"
	"trpc.group/trpc-go/trpc-science-agent/tool/constants"
	"trpc.group/trpc-go/trpc-science-agent/tool/duckduckgo"
	"trpc.group/trpc-go/trpc-science-agent/tool/equation"
	"trpc.group/trpc-go/trpc-science-agent/tool/reasoning"
	"trpc.group/trpc-go/trpc-science-agent/tool/wikipedia"
)

const (
	agentName        = "scibot"
	agentDescription = "Answers scientific, mathematical and reasoning questions."
	// maxShownObservation bounds observations in the live step display.
	maxShownObservation = 300
)

// ModelFactory builds the language model from its configuration. observe
// is told about every completion call.
type ModelFactory func(cfg config.LLMConfig, observe model.Observer) (model.Model, error)

func defaultModelFactory(cfg config.LLMConfig, observe model.Observer) (model.Model, error) {
	opts := []provider.Option{
		provider.WithAPIKey(cfg.APIKey),
		provider.WithTimeout(cfg.Timeout),
		provider.WithObserver(observe),
	}
	if cfg.BaseURL != "" {
		opts = append(opts, provider.WithBaseURL(cfg.BaseURL))
	}
	return provider.Model(cfg.Provider, cfg.Model, opts...)
}

// app is the state shared by the commands.
type app struct {
	in       io.Reader
	out      io.Writer
	errOut   io.Writer
	newModel ModelFactory

	configPath string
	logLevel   string
	cfg        *config.Config
}

// loadConfig reads and validates the configuration. Flags override the
// file and the environment.
func (a *app) loadConfig() error {
	cfg, err := config.Load(nil, a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	log.SetLevel(cfg.Log.Level)
	if err := log.SetFormat(cfg.Log.Format); err != nil {
		return errs.NewConfigurationError("log.format", err)
	}
	a.cfg = cfg
	return nil
}

// stack is everything one command needs to answer questions.
type stack struct {
	agent   *dispatchagent.Agent
	runner  *runner.Runner
	metrics *metric.Reporter
	closers []func() error
}

func (s *stack) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			log.Warnf("shutdown: %v", err)
		}
	}
}

// buildStack wires model, capabilities, dispatch loop and runner. live,
// when not nil, receives the step stream.
func (a *app) buildStack(ctx context.Context, live io.Writer) (*stack, error) {
	cfg := a.cfg
	s := &stack{metrics: metric.NewReporter()}

	if cfg.Telemetry.OTLPEndpoint != "" {
		opts := []trace.Option{trace.WithProtocol(cfg.Telemetry.OTLPProtocol), trace.WithServiceName(agentName)}
		if strings.Contains(cfg.Telemetry.OTLPEndpoint, "://") {
			opts = append(opts, trace.WithEndpointURL(cfg.Telemetry.OTLPEndpoint))
		} else {
			opts = append(opts, trace.WithEndpoint(cfg.Telemetry.OTLPEndpoint))
		}
		clean, err := trace.Start(ctx, opts...)
		if err != nil {
			return nil, fmt.Errorf("start tracing: %w", err)
		}
		s.closers = append(s.closers, clean)
	}

	m, err := a.newModel(cfg.LLM, s.metrics.ObserveModelCall)
	if err != nil {
		s.Close()
		return nil, err
	}
	tools, err := newTools(m, cfg)
	if err != nil {
		s.Close()
		return nil, err
	}

	gen := generationConfig(cfg.LLM)
	reporters := agent.MultiReporter{s.metrics}
	if live != nil {
		reporters = append(reporters, agent.NewWriterReporter(live, maxShownObservation))
	}
	opts := []dispatchagent.Option{
		dispatchagent.WithModel(m),
		dispatchagent.WithTools(tools...),
		dispatchagent.WithPlanner(react.New(react.WithGenerationConfig(gen))),
		dispatchagent.WithMaxIterations(cfg.Agent.MaxIterations),
		dispatchagent.WithCallTimeout(cfg.Agent.CallTimeout),
		dispatchagent.WithReporter(reporters),
		dispatchagent.WithDescription(agentDescription),
	}
	if len(cfg.Agent.Capabilities) > 0 {
		opts = append(opts, dispatchagent.WithToolFilter(tool.NewIncludeToolNamesFilter(cfg.Agent.Capabilities...)))
	}
	if s.agent, err = dispatchagent.New(agentName, opts...); err != nil {
		s.Close()
		return nil, err
	}
	if s.runner, err = runner.New(s.agent,
		runner.WithConcurrency(cfg.Batch.Concurrency),
		runner.WithRunTimeout(cfg.Agent.RunTimeout),
	); err != nil {
		s.Close()
		return nil, err
	}
	s.closers = append(s.closers, s.runner.Close)
	log.Debugf("scibot: capabilities %v", s.agent.Registry().Names())
	return s, nil
}

// newTools builds the capabilities in the order the model sees them.
func newTools(m model.Model, cfg *config.Config) ([]tool.Tool, error) {
	gen := generationConfig(cfg.LLM)
	calc, err := calculator.New(m, calculator.WithGenerationConfig(gen))
	if err != nil {
		return nil, err
	}
	solver, err := equation.New(m, equation.WithGenerationConfig(gen))
	if err != nil {
		return nil, err
	}
	reason, err := reasoning.New(m, reasoning.WithGenerationConfig(gen))
	if err != nil {
		return nil, err
	}
	tools := []tool.Tool{
		arxivsearch.New(
			arxivsearch.WithMaxResults(cfg.Lookup.MaxResults),
			arxivsearch.WithMaxChars(cfg.Lookup.MaxChars),
		),
		wikipedia.New(
			wikipedia.WithMaxResults(cfg.Lookup.MaxResults),
			wikipedia.WithMaxChars(cfg.Lookup.MaxChars),
		),
		duckduckgo.New(
			duckduckgo.WithMaxResults(cfg.Lookup.MaxResults),
			duckduckgo.WithMaxChars(cfg.Lookup.MaxChars),
		),
		reason,
		calc,
		solver,
		constants.New(),
	}
	for i, t := range tools {
		tools[i] = tool.WithRetry(t, cfg.Agent.Retries)
	}
	return tools, nil
}

func generationConfig(cfg config.LLMConfig) model.GenerationConfig {
	gen := model.GenerationConfig{Temperature: model.Float64(cfg.Temperature)}
	if cfg.MaxTokens > 0 {
		gen.MaxTokens = model.Int(cfg.MaxTokens)
	}
	return gen
}
