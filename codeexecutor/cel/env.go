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
	"fmt"
	"math"

	celgo "github.com/google/cel-go/cel"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
)

// constants are bound in every activation.
var constants = map[string]any{
	"pi": math.Pi,
	"e":  math.E,
}

var unaryFuncs = map[string]func(float64) float64{
	"sqrt":  math.Sqrt,
	"cbrt":  math.Cbrt,
	"exp":   math.Exp,
	"log":   math.Log,
	"ln":    math.Log,
	"log10": math.Log10,
	"log2":  math.Log2,
	"sin":   math.Sin,
	"cos":   math.Cos,
	"tan":   math.Tan,
	"asin":  math.Asin,
	"acos":  math.Acos,
	"atan":  math.Atan,
	"sinh":  math.Sinh,
	"cosh":  math.Cosh,
	"tanh":  math.Tanh,
	"abs":   math.Abs,
	"floor": math.Floor,
	"ceil":  math.Ceil,
	"round": math.Round,
}

var binaryFuncs = map[string]func(float64, float64) float64{
	"pow":   math.Pow,
	"atan2": math.Atan2,
	"hypot": math.Hypot,
	"min":   math.Min,
	"max":   math.Max,
	"mod":   math.Mod,
	// log(x, base)
	"log": func(x, base float64) float64 { return math.Log(x) / math.Log(base) },
}

// mathEnvOptions declares the numeric library. Macros are cleared so only
// arithmetic and the functions below are reachable.
func mathEnvOptions() []celgo.EnvOption {
	opts := []celgo.EnvOption{celgo.ClearMacros()}
	for name := range constants {
		opts = append(opts, celgo.Variable(name, celgo.DoubleType))
	}

	overloads := map[string][]celgo.FunctionOpt{}
	for name, fn := range unaryFuncs {
		fn := fn
		overloads[name] = append(overloads[name], celgo.Overload(
			fmt.Sprintf("%s_double", name),
			[]*celgo.Type{celgo.DoubleType}, celgo.DoubleType,
			celgo.UnaryBinding(func(v ref.Val) ref.Val {
				x, ok := v.(types.Double)
				if !ok {
					return types.MaybeNoSuchOverloadErr(v)
				}
				return types.Double(fn(float64(x)))
			}),
		))
	}
	for name, fn := range binaryFuncs {
		fn := fn
		overloads[name] = append(overloads[name], celgo.Overload(
			fmt.Sprintf("%s_double_double", name),
			[]*celgo.Type{celgo.DoubleType, celgo.DoubleType}, celgo.DoubleType,
			celgo.BinaryBinding(func(lhs, rhs ref.Val) ref.Val {
				x, ok := lhs.(types.Double)
				if !ok {
					return types.MaybeNoSuchOverloadErr(lhs)
				}
				y, ok := rhs.(types.Double)
				if !ok {
					return types.MaybeNoSuchOverloadErr(rhs)
				}
				return types.Double(fn(float64(x), float64(y)))
			}),
		))
	}
	for name, fnOpts := range overloads {
		opts = append(opts, celgo.Function(name, fnOpts...))
	}
	return opts
}

// newMathEnv creates an environment with the numeric library and one
// double variable per name in vars.
func newMathEnv(vars ...string) (*celgo.Env, error) {
	opts := mathEnvOptions()
	for _, v := range vars {
		if _, reserved := constants[v]; reserved {
			return nil, fmt.Errorf("variable name %q is reserved", v)
		}
		if _, fn := unaryFuncs[v]; fn {
			return nil, fmt.Errorf("variable name %q is reserved", v)
		}
		if _, fn := binaryFuncs[v]; fn {
			return nil, fmt.Errorf("variable name %q is reserved", v)
		}
		opts = append(opts, celgo.Variable(v, celgo.DoubleType))
	}
	return celgo.NewEnv(opts...)
}

// activation merges the constants with vars.
func activation(vars map[string]float64) map[string]any {
	act := make(map[string]any, len(constants)+len(vars))
	for k, v := range constants {
		act[k] = v
	}
	for k, v := range vars {
		act[k] = v
	}
	return act
}
