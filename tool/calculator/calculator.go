//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package calculator provides a capability that has the language model
// translate a question into an arithmetic expression and evaluates it in
// the sandboxed CEL executor.
package calculator

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-science-agent/codeexecutor"
	"trpc.group/trpc-go/trpc-science-agent/codeexecutor/cel"
	"trpc.group/trpc-go/trpc-science-agent/model"
	"trpc.group/trpc-go/trpc-science-agent/tool"
	"trpc.group/trpc-go/trpc-science-agent/tool/internal/llmcall"
)

const (
	// Name is the capability name.
	Name = "calculator"

	defaultDescription = "Useful for arithmetic and numeric questions, such as powers, roots, " +
		"logarithms and unit conversions. Input is a math question or expression."

	answerPrefix = "Answer:"
)

const instruction = "Translate a math problem into an expression that can be evaluated by a " +
	"calculator. Use this format:\n\n" +
	"Question: ${Question with math problem.}\n" +
	"```expr\n${single line mathematical expression that solves the problem}\n```\n\n" +
	"The expression may use + - * / ^ and parentheses, the constants pi and e, and the " +
	"functions sqrt, cbrt, exp, ln, log, log10, log2, sin, cos, tan, asin, acos, atan, " +
	"sinh, cosh, tanh, abs, floor, ceil, round, pow, atan2, hypot, min, max and mod. " +
	"Angles are in radians. Do not compute the result yourself.\n\n" +
	"Begin.\n\n" +
	"Question: What is 37593 * 67?\n" +
	"```expr\n37593 * 67\n```\n\n" +
	"Question: 37593^(1/5)\n" +
	"```expr\n37593^(1/5)\n```"

// Tool is the calculator capability.
type Tool struct {
	model       model.Model
	exec        codeexecutor.Executor
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

// WithExecutor sets the executor that runs expr blocks. By default a fresh
// cel.Executor is used.
func WithExecutor(exec codeexecutor.Executor) Option {
	return func(t *Tool) {
		t.exec = exec
	}
}

// WithGenerationConfig sets the generation parameters of the translation
// request.
func WithGenerationConfig(cfg model.GenerationConfig) Option {
	return func(t *Tool) {
		t.cfg = cfg
	}
}

// New creates a calculator backed by m.
func New(m model.Model, opts ...Option) (*Tool, error) {
	if m == nil {
		return nil, errors.New("calculator: model is nil")
	}
	t := &Tool{model: m, description: defaultDescription}
	for _, opt := range opts {
		opt(t)
	}
	if t.exec == nil {
		exec, err := cel.New()
		if err != nil {
			return nil, fmt.Errorf("calculator: %w", err)
		}
		t.exec = exec
	}
	return t, nil
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: Name, Description: t.description}
}

// Call implements tool.Tool. It returns "Answer: <value>".
func (t *Tool) Call(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("calculator: empty question")
	}
	return llmcall.Run(ctx, llmcall.Call{
		Stage:  Name,
		Model:  t.model,
		System: instruction,
		User:   "Question: " + query,
		Config: t.cfg,
		Correction: func(reason string) string {
			return fmt.Sprintf("That did not work: %s. Reply with exactly one ```expr block "+
				"holding a single line expression, and nothing else.", reason)
		},
	}, t.parse)
}

func (t *Tool) parse(ctx context.Context, reply string) (string, error) {
	if strings.HasPrefix(reply, answerPrefix) {
		return reply, nil
	}
	block, ok := codeexecutor.FirstBlock(
		codeexecutor.ExtractBlocks(reply, t.exec.Delimiter()),
		cel.LanguageExpr, "", "text", "python",
	)
	if !ok {
		return "", errors.New("no ```expr block found")
	}
	expr := firstLine(block.Code)
	if expr == "" {
		return "", errors.New("the ```expr block is empty")
	}
	res, err := t.exec.Execute(ctx, codeexecutor.Input{
		Blocks: []codeexecutor.Block{{Code: expr, Language: cel.LanguageExpr}},
	})
	if err != nil {
		return "", err
	}
	if res.Output == "" {
		return "", fmt.Errorf("%q produced no value", expr)
	}
	return answerPrefix + " " + res.Output, nil
}

func firstLine(code string) string {
	for _, line := range strings.Split(code, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
