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
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strings"

	celgo "github.com/google/cel-go/cel"
	"gonum.org/v1/gonum/mat"
)

const (
	defaultMaxIterations = 100
	defaultTolerance     = 1e-10
	maxLineSearchSteps   = 30
	// condition numbers above this are treated as singular steps.
	singularCondition = 1e14
)

var identRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ErrNoConvergence is returned when Newton iteration does not reach the
// tolerance.
var ErrNoConvergence = errors.New("solver did not converge")

// System is a square system of equations. Each equation is either
// "lhs = rhs" or an expression whose root is sought.
type System struct {
	Variables    []string  `json:"variables"`
	Equations    []string  `json:"equations"`
	InitialGuess []float64 `json:"initial_guess"`
}

// ParseSystem decodes the JSON form of a System.
func ParseSystem(code string) (System, error) {
	var s System
	dec := json.NewDecoder(strings.NewReader(stripComments(code)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&s); err != nil {
		return System{}, fmt.Errorf("invalid system: %w", err)
	}
	return s, s.validate()
}

func (s System) validate() error {
	if len(s.Variables) == 0 {
		return errors.New("invalid system: no variables")
	}
	if len(s.Variables) != len(s.Equations) {
		return fmt.Errorf("invalid system: %d variables but %d equations", len(s.Variables), len(s.Equations))
	}
	if len(s.InitialGuess) != 0 && len(s.InitialGuess) != len(s.Variables) {
		return fmt.Errorf("invalid system: initial guess has %d values for %d variables",
			len(s.InitialGuess), len(s.Variables))
	}
	seen := map[string]bool{}
	for _, v := range s.Variables {
		if !identRe.MatchString(v) {
			return fmt.Errorf("invalid system: bad variable name %q", v)
		}
		if seen[v] {
			return fmt.Errorf("invalid system: duplicate variable %q", v)
		}
		seen[v] = true
	}
	return nil
}

// stripComments drops "#" and "//" line comments outside strings, so
// an annotated block still decodes.
func stripComments(code string) string {
	var b strings.Builder
	for _, line := range strings.Split(code, "\n") {
		inString := false
		cut := len(line)
		for i := 0; i < len(line); i++ {
			c := line[i]
			if c == '"' && (i == 0 || line[i-1] != '\\') {
				inString = !inString
			}
			if inString {
				continue
			}
			if c == '#' || (c == '/' && i+1 < len(line) && line[i+1] == '/') {
				cut = i
				break
			}
		}
		b.WriteString(line[:cut])
		b.WriteByte('\n')
	}
	return b.String()
}

// Solution is the root found by Solve, in System variable order.
type Solution struct {
	Variables  []string
	Values     []float64
	Iterations int
	Residual   float64
}

// String renders "x = 1, y = 2".
func (s Solution) String() string {
	parts := make([]string, len(s.Variables))
	for i, v := range s.Variables {
		parts[i] = fmt.Sprintf("%s = %s", v, FormatSolutionValue(s.Values[i]))
	}
	return strings.Join(parts, ", ")
}

// FormatSolutionValue prints a root with 10 significant digits and folds
// negative zero.
func FormatSolutionValue(v float64) string {
	if math.Abs(v) < 1e-12 {
		return "0"
	}
	return fmt.Sprintf("%.10g", v)
}

// Solve finds a root of s with damped Newton-Raphson iteration and a
// forward difference Jacobian.
func (e *Executor) Solve(ctx context.Context, s System) (Solution, error) {
	if err := s.validate(); err != nil {
		return Solution{}, err
	}
	residuals, err := e.compileSystem(s)
	if err != nil {
		return Solution{}, err
	}
	n := len(s.Variables)
	x := make([]float64, n)
	if len(s.InitialGuess) == n {
		copy(x, s.InitialGuess)
	} else {
		for i := range x {
			x[i] = 1
		}
	}

	eval := func(point []float64) ([]float64, error) {
		vars := make(map[string]float64, n)
		for i, name := range s.Variables {
			vars[name] = point[i]
		}
		f := make([]float64, n)
		for i, prg := range residuals {
			v, err := evalFloat(ctx, prg, vars)
			if err != nil {
				return nil, fmt.Errorf("equation %d at %v: %w", i+1, point, err)
			}
			f[i] = v
		}
		return f, nil
	}

	f, err := eval(x)
	if err != nil {
		return Solution{}, err
	}
	norm := infNorm(f)
	for iter := 0; iter < e.maxIterations; iter++ {
		if err := ctx.Err(); err != nil {
			return Solution{}, err
		}
		if norm < e.tolerance {
			return Solution{Variables: s.Variables, Values: x, Iterations: iter, Residual: norm}, nil
		}
		dx, err := e.newtonStep(x, f, eval)
		if err != nil {
			// Singular Jacobian: nudge the point asymmetrically and retry.
			for i := range x {
				x[i] += 1e-3 * float64(i+1) * math.Max(1, math.Abs(x[i]))
			}
			if f, err = eval(x); err != nil {
				return Solution{}, err
			}
			norm = infNorm(f)
			continue
		}
		step := 1.0
		accepted := false
		for k := 0; k < maxLineSearchSteps; k++ {
			trial := make([]float64, n)
			for i := range x {
				trial[i] = x[i] + step*dx[i]
			}
			ft, err := eval(trial)
			if err == nil {
				if nt := infNorm(ft); nt < norm || k == maxLineSearchSteps-1 {
					x, f, norm = trial, ft, nt
					accepted = true
					break
				}
			}
			step /= 2
		}
		if !accepted {
			return Solution{}, ErrNoConvergence
		}
	}
	if norm < e.tolerance {
		return Solution{Variables: s.Variables, Values: x, Iterations: e.maxIterations, Residual: norm}, nil
	}
	return Solution{}, fmt.Errorf("%w after %d iterations (residual %g)", ErrNoConvergence, e.maxIterations, norm)
}

// newtonStep solves J dx = -f.
func (e *Executor) newtonStep(x, f []float64, eval func([]float64) ([]float64, error)) ([]float64, error) {
	n := len(x)
	jac := mat.NewDense(n, n, nil)
	for j := 0; j < n; j++ {
		h := 1e-7 * math.Max(1, math.Abs(x[j]))
		shifted := make([]float64, n)
		copy(shifted, x)
		shifted[j] += h
		fh, err := eval(shifted)
		if err != nil {
			return nil, err
		}
		for i := 0; i < n; i++ {
			jac.Set(i, j, (fh[i]-f[i])/h)
		}
	}
	b := mat.NewVecDense(n, nil)
	for i := range f {
		b.SetVec(i, -f[i])
	}
	var dx mat.VecDense
	if err := dx.SolveVec(jac, b); err != nil {
		var cond mat.Condition
		if !errors.As(err, &cond) || float64(cond) > singularCondition {
			return nil, err
		}
	}
	out := make([]float64, n)
	for i := range out {
		out[i] = dx.AtVec(i)
		if math.IsNaN(out[i]) || math.IsInf(out[i], 0) {
			return nil, errors.New("singular jacobian")
		}
	}
	return out, nil
}

// compileSystem turns every equation into a residual program lhs - (rhs).
func (e *Executor) compileSystem(s System) ([]celgo.Program, error) {
	env, err := newMathEnv(s.Variables...)
	if err != nil {
		return nil, err
	}
	progs := make([]celgo.Program, len(s.Equations))
	for i, eq := range s.Equations {
		residual, err := residualExpr(eq)
		if err != nil {
			return nil, fmt.Errorf("equation %d: %w", i+1, err)
		}
		prg, err := compile(env, residual, e.costLimit)
		if err != nil {
			return nil, fmt.Errorf("equation %d: %w", i+1, err)
		}
		progs[i] = prg
	}
	return progs, nil
}

// residualExpr rewrites "lhs = rhs" as "(lhs) - (rhs)".
func residualExpr(eq string) (string, error) {
	eq = strings.ReplaceAll(eq, "==", "=")
	parts := strings.Split(eq, "=")
	switch len(parts) {
	case 1:
		return normalize(parts[0])
	case 2:
		lhs, err := normalize(parts[0])
		if err != nil {
			return "", err
		}
		rhs, err := normalize(parts[1])
		if err != nil {
			return "", err
		}
		return "(" + lhs + ") - (" + rhs + ")", nil
	default:
		return "", fmt.Errorf("more than one '=' in %q", eq)
	}
}

func infNorm(v []float64) float64 {
	m := 0.0
	for _, x := range v {
		if a := math.Abs(x); a > m {
			m = a
		}
	}
	return m
}
