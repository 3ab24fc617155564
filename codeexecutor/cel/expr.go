//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package cel

import (
	"context"
	"fmt"
	"math"
	"strconv"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types/ref"
)

// compile parses, checks and plans expr in env.
func compile(env *celgo.Env, expr string, costLimit uint64) (celgo.Program, error) {
	ast, issues := env.Parse(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel parse error: %w", issues.Err())
	}
	ast, issues = env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("cel type-check error: %w", issues.Err())
	}
	prg, err := env.Program(ast, celgo.CostLimit(costLimit))
	if err != nil {
		return nil, fmt.Errorf("cel program build error: %w", err)
	}
	return prg, nil
}

// evalFloat runs prg and converts the result to a finite float64.
func evalFloat(ctx context.Context, prg celgo.Program, vars map[string]float64) (float64, error) {
	out, _, err := prg.ContextEval(ctx, activation(vars))
	if err != nil {
		return 0, fmt.Errorf("cel eval error: %w", err)
	}
	return toFloat(out)
}

func toFloat(out ref.Val) (float64, error) {
	var v float64
	switch n := out.Value().(type) {
	case float64:
		v = n
	case int64:
		v = float64(n)
	case uint64:
		v = float64(n)
	case bool:
		if n {
			return 1, nil
		}
		return 0, nil
	default:
		return 0, fmt.Errorf("result is not a number: %v", out)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("result is not a finite number: %v", v)
	}
	return v, nil
}

// FormatNumber prints v with at most 12 significant digits, which hides
// binary rounding noise such as 0.30000000000000004.
func FormatNumber(v float64) string {
	if v == 0 {
		return "0"
	}
	return strconv.FormatFloat(v, 'g', 12, 64)
}

// Evaluate computes a single arithmetic expression. It accepts the usual
// notation (^ or ** for powers, integer literals, pi, e) and the
// functions sqrt, cbrt, exp, log, ln, log10, log2, the trigonometric and
// hyperbolic functions, abs, floor, ceil, round, pow, atan2, hypot, min,
// max and mod.
func (e *Executor) Evaluate(ctx context.Context, expr string) (float64, error) {
	normalized, err := normalize(expr)
	if err != nil {
		return 0, err
	}
	prg, err := compile(e.env, normalized, e.costLimit)
	if err != nil {
		return 0, err
	}
	return evalFloat(ctx, prg, nil)
}
