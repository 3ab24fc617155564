//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package equation provides a capability that solves systems of
// equations. The language model writes the system as an fsolve block and
// the Newton-Raphson solver of the CEL executor finds the root; the model
// never supplies the numbers itself.
package equation

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
	Name = "equation_solver"

	defaultDescription = "Useful for solving equations or systems of equations. " +
		"Input is the equations, separated by commas."
)

const instruction = "You are an expert at solving math problems. Write the system of " +
	"equations for a numeric root finder; we will run it and report the solution. " +
	"Use exactly this format:\n\n" +
	"Question: ${Question with equations.}\n" +
	"```fsolve\n" +
	"{\n" +
	"  # comments start with #\n" +
	"  \"variables\": [${unknown names}],\n" +
	"  \"equations\": [${one string per equation, \"lhs = rhs\"}],\n" +
	"  \"initial_guess\": [${one number per variable}]\n" +
	"}\n" +
	"```\n\n" +
	"Equations may use + - * / ^ and parentheses, pi, e and functions such as sqrt, exp, ln " +
	"and sin. There must be as many equations as variables. Do not solve the system yourself.\n\n" +
	"Here is an example\n" +
	"Question:\n" +
	"1. 6^x + 6^y = 42\n" +
	"2. x + y = 3\n\n" +
	"```fsolve\n" +
	"{\n" +
	"  # Define the system of equations\n" +
	"  \"variables\": [\"x\", \"y\"],\n" +
	"  \"equations\": [\n" +
	"    \"6^x + 6^y = 42\", # First equation\n" +
	"    \"x + y = 3\"       # Second equation\n" +
	"  ],\n" +
	"  # Initial guesses for x and y\n" +
	"  \"initial_guess\": [0.5, 2.5]\n" +
	"}\n" +
	"```"

// Tool is the equation solving capability.
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

// WithExecutor sets the executor that runs fsolve blocks. By default a
// fresh cel.Executor is used.
func WithExecutor(exec codeexecutor.Executor) Option {
	return func(t *Tool) {
		t.exec = exec
	}
}

// WithGenerationConfig sets the generation parameters.
func WithGenerationConfig(cfg model.GenerationConfig) Option {
	return func(t *Tool) {
		t.cfg = cfg
	}
}

// New creates an equation solver backed by m.
func New(m model.Model, opts ...Option) (*Tool, error) {
	if m == nil {
		return nil, errors.New("equation: model is nil")
	}
	t := &Tool{model: m, description: defaultDescription}
	for _, opt := range opts {
		opt(t)
	}
	if t.exec == nil {
		exec, err := cel.New()
		if err != nil {
			return nil, fmt.Errorf("equation: %w", err)
		}
		t.exec = exec
	}
	return t, nil
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: Name, Description: t.description}
}

// Call implements tool.Tool. The observation holds the fsolve block, an
// output block with the solution and a final "Answer: x = ..., y = ..."
// line.
func (t *Tool) Call(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errors.New("equation: empty question")
	}
	return llmcall.Run(ctx, llmcall.Call{
		Stage:  Name,
		Model:  t.model,
		System: instruction,
		User:   "Now, solve this question: " + query,
		Config: t.cfg,
		Correction: func(reason string) string {
			return fmt.Sprintf("That did not work: %s. Reply with exactly one ```fsolve block "+
				"holding the JSON object with variables, equations and initial_guess.", reason)
		},
	}, t.parse)
}

func (t *Tool) parse(ctx context.Context, reply string) (string, error) {
	block, ok := codeexecutor.FirstBlock(
		codeexecutor.ExtractBlocks(reply, t.exec.Delimiter()),
		cel.LanguageFSolve, "json", "",
	)
	if !ok {
		return "", errors.New("no ```fsolve block found")
	}
	res, err := t.exec.Execute(ctx, codeexecutor.Input{
		Blocks: []codeexecutor.Block{{Code: block.Code, Language: cel.LanguageFSolve}},
	})
	if err != nil {
		return "", err
	}
	if res.Output == "" {
		return "", errors.New("the solver produced no solution")
	}
	return Format(block.Code, res.Output), nil
}

// Format renders the observation for a solved block.
func Format(code, solution string) string {
	var b strings.Builder
	b.WriteString("```" + cel.LanguageFSolve + "\n")
	b.WriteString(strings.TrimRight(code, "\n"))
	b.WriteString("\n```\n```output\n")
	b.WriteString(solution)
	b.WriteString("\n```\nAnswer: ")
	b.WriteString(solution)
	return b.String()
}
