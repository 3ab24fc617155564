//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package reasoning provides a capability that asks the language model for
// a step by step logical explanation.
package reasoning

import (
	"context"
	"errors"
	"strings"

	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/tool"
)

const (
	// Name is the capability name.
	Name = "reasoning"

	defaultDescription = "A tool for answering logic-based and reasoning questions. " +
		"Input is the full question."
)

// Preamble is the few-shot instruction sent before the question.
const Preamble = `You are an agent tasked with solving the user's mathematical or logical reasoning question.
Logically arrive at the solution and provide a detailed, step-by-step explanation for the question below.
Use deductive, inductive, or abductive reasoning as appropriate and display your reasoning point-wise.

Here are some examples to guide you:
1. Deductive Reasoning:
- If all mammals are warm-blooded and dolphins are mammals,
can we conclude that dolphins are warm-blooded? Explain why.

2. Mathematical Problem-Solving:
- Given the function f(x) = 2x + 5, solve for x when f(x) = 15. Show your steps and reasoning.

3. Hypothetical Reasoning:
- Imagine a world where the force of gravity is twice as strong as it is on Earth.
How would this impact human and animal physiology? Provide reasoning for your assumptions.

Now, solve the question below in a similar logical manner:`

// Tool is the reasoning capability.
type Tool struct {
	model       model.Model
	description string
	cfg         model.GenerationConfig
}

var _ tool.Tool = (*Tool)(nil)

// Option configures a Tool.
type Option func(*Tool)

// WithDescription overrides the description shown to the dispatch model.
func WithDescription(desc string) Option {
	return func(t *Tool) {
		t.description = desc
	}
}

// WithGenerationConfig sets the generation parameters.
func WithGenerationConfig(cfg model.GenerationConfig) Option {
	return func(t *Tool) {
		t.cfg = cfg
	}
}

// New creates a reasoning capability backed by m.
func New(m model.Model, opts ...Option) (*Tool, error) {
	if m == nil {
		return nil, errors.New("reasoning: model is nil")
	}
	t := &Tool{model: m, description: defaultDescription}
	for _, opt := range opts {
		opt(t)
	}
	return t, nil
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: Name, Description: t.description}
}

// Call implements tool.Tool. The model's reply is returned as is.
func (t *Tool) Call(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("reasoning: empty question")
	}
	prompt := Preamble + "\nQuestion: " + query + "\nAnswer:"
	out, err := model.GenerateText(ctx, t.model, "", prompt, t.cfg)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", errs.NewAdapterError(Name, err)
	}
	if out == "" {
		return "", errs.NewAdapterError(Name, model.ErrEmptyResponse)
	}
	return out, nil
}
