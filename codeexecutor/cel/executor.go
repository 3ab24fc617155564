//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package cel implements a sandboxed numeric code executor on top of the
// Common Expression Language. Expressions cannot reach the host: the
// environment declares only doubles, arithmetic and a fixed math library,
// and every program runs under a cost limit.
package cel

import (
	"context"
	"fmt"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"trpc.group/trpc-go/trpc-science-agent/codeexecutor"
)

// Languages understood by Execute.
const (
	LanguageExpr   = "expr"
	LanguageFSolve = "fsolve"
)

const defaultCostLimit = 100000

// Executor evaluates arithmetic expressions and solves equation systems.
// It is safe for concurrent use.
type Executor struct {
	env           *celgo.Env
	costLimit     uint64
	maxIterations int
	tolerance     float64
}

var _ codeexecutor.Executor = (*Executor)(nil)

// Option configures an Executor.
type Option func(*Executor)

// WithCostLimit bounds the evaluation cost of a single program.
func WithCostLimit(limit uint64) Option {
	return func(e *Executor) {
		if limit > 0 {
			e.costLimit = limit
		}
	}
}

// WithMaxIterations bounds Newton iterations.
func WithMaxIterations(n int) Option {
	return func(e *Executor) {
		if n > 0 {
			e.maxIterations = n
		}
	}
}

// WithTolerance sets the residual tolerance of the solver.
func WithTolerance(tol float64) Option {
	return func(e *Executor) {
		if tol > 0 {
			e.tolerance = tol
		}
	}
}

// New creates an Executor.
func New(opts ...Option) (*Executor, error) {
	env, err := newMathEnv()
	if err != nil {
		return nil, fmt.Errorf("cel: create environment: %w", err)
	}
	e := &Executor{
		env:           env,
		costLimit:     defaultCostLimit,
		maxIterations: defaultMaxIterations,
		tolerance:     defaultTolerance,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e, nil
}

// Delimiter implements codeexecutor.Executor.
func (e *Executor) Delimiter() codeexecutor.Delimiter {
	return codeexecutor.DefaultDelimiter
}

// Execute implements codeexecutor.Executor. An expr block yields
// one value per non-empty line; an fsolve block yields the solution line.
func (e *Executor) Execute(ctx context.Context, input codeexecutor.Input) (codeexecutor.Result, error) {
	var outputs []string
	for _, block := range input.Blocks {
		switch block.Language {
		case LanguageExpr, "":
			for _, line := range strings.Split(block.Code, "\n") {
				line = strings.TrimSpace(line)
				if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, "//") {
					continue
				}
				v, err := e.Evaluate(ctx, line)
				if err != nil {
					return codeexecutor.Result{}, fmt.Errorf("evaluate %q: %w", line, err)
				}
				outputs = append(outputs, FormatNumber(v))
			}
		case LanguageFSolve, "json":
			system, err := ParseSystem(block.Code)
			if err != nil {
				return codeexecutor.Result{}, err
			}
			sol, err := e.Solve(ctx, system)
			if err != nil {
				return codeexecutor.Result{}, err
			}
			outputs = append(outputs, sol.String())
		default:
			return codeexecutor.Result{}, fmt.Errorf("%w: %q", codeexecutor.ErrUnsupportedLanguage, block.Language)
		}
	}
	return codeexecutor.Result{Output: strings.Join(outputs, "\n")}, nil
}
