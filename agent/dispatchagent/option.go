//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package dispatchagent

import (
	"time"

	"github.com/google/uuid"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/planner/react"
	"trpc.group/trpc-go/trpc-science-agent/tool"
)

const (
	// DefaultMaxIterations is the default iteration cap.
	DefaultMaxIterations = 15
	// DefaultCallTimeout bounds every capability invocation.
	DefaultCallTimeout = 30 * time.Second
)

// Option configures an Agent.
type Option func(*Options)

// Options holds the Agent configuration.
type Options struct {
	// Model picks the next step.
	Model model.Model
	// Registry holds the capabilities. It is frozen by New.
	Registry *tool.Registry
	// Tools are registered into a fresh registry when Registry is nil.
	Tools []tool.Tool
	// ToolFilter hides capabilities from the model; nil keeps all.
	ToolFilter tool.FilterFunc
	// Planner builds prompts and parses decisions.
	Planner *react.Planner
	// MaxIterations caps the loop.
	MaxIterations int
	// CallTimeout bounds each capability call.
	CallTimeout time.Duration
	// Reporter observes the loop.
	Reporter agent.Reporter
	// Description is returned by Info.
	Description string
	// NewRunID generates run identifiers.
	NewRunID func() string
}

var defaultOptions = Options{
	MaxIterations: DefaultMaxIterations,
	CallTimeout:   DefaultCallTimeout,
	Reporter:      agent.NopReporter{},
	Description:   "Routes science questions to search, lookup, math and reasoning capabilities.",
	NewRunID:      uuid.NewString,
}

// WithModel sets the model that makes the dispatch decisions.
func WithModel(m model.Model) Option {
	return func(opts *Options) {
		opts.Model = m
	}
}

// WithRegistry sets the capability registry.
func WithRegistry(r *tool.Registry) Option {
	return func(opts *Options) {
		opts.Registry = r
	}
}

// WithTools sets the capabilities, in the order the model sees them.
// Ignored when a registry is given.
func WithTools(tools ...tool.Tool) Option {
	return func(opts *Options) {
		opts.Tools = append(opts.Tools, tools...)
	}
}

// WithToolFilter restricts the capabilities offered to the model.
func WithToolFilter(filter tool.FilterFunc) Option {
	return func(opts *Options) {
		opts.ToolFilter = filter
	}
}

// WithPlanner sets the decision planner. By default react.New() is used.
func WithPlanner(p *react.Planner) Option {
	return func(opts *Options) {
		opts.Planner = p
	}
}

// WithMaxIterations sets the iteration cap. Values <= 0 keep the default.
func WithMaxIterations(n int) Option {
	return func(opts *Options) {
		if n > 0 {
			opts.MaxIterations = n
		}
	}
}

// WithCallTimeout sets the per capability call timeout. Values <= 0 keep
// the default.
func WithCallTimeout(d time.Duration) Option {
	return func(opts *Options) {
		if d > 0 {
			opts.CallTimeout = d
		}
	}
}

// WithReporter sets the loop observer. Use agent.MultiReporter to attach
// several.
func WithReporter(r agent.Reporter) Option {
	return func(opts *Options) {
		if r != nil {
			opts.Reporter = r
		}
	}
}

// WithDescription sets the description of the agent.
func WithDescription(description string) Option {
	return func(opts *Options) {
		opts.Description = description
	}
}

// WithRunIDGenerator replaces the uuid based run identifiers.
func WithRunIDGenerator(fn func() string) Option {
	return func(opts *Options) {
		if fn != nil {
			opts.NewRunID = fn
		}
	}
}
