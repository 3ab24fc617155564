//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package function wraps plain Go functions as capabilities.
package function

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/tool"
)

// FunctionTool adapts fn to tool.Tool. The query is passed through as is
// when I is string and decoded as JSON otherwise; the output is used as is
// when O is string or fmt.Stringer and encoded as JSON otherwise.
type FunctionTool[I, O any] struct {
	name        string
	description string
	fn          func(context.Context, I) (O, error)
}

var _ tool.Tool = (*FunctionTool[string, string])(nil)

// Option is a function that configures a FunctionTool.
type Option func(*functionToolOptions)

type functionToolOptions struct {
	name        string
	description string
}

// WithName sets the name the model uses to select the function.
func WithName(name string) Option {
	return func(opts *functionToolOptions) {
		opts.name = name
	}
}

// WithDescription sets the description of the function tool.
func WithDescription(description string) Option {
	return func(opts *functionToolOptions) {
		opts.description = description
	}
}

// NewFunctionTool creates a FunctionTool around fn.
func NewFunctionTool[I, O any](fn func(context.Context, I) (O, error), opts ...Option) *FunctionTool[I, O] {
	options := &functionToolOptions{}
	for _, opt := range opts {
		opt(options)
	}
	if options.name == "" {
		log.Warnf("FunctionTool: name is empty")
	}
	if options.description == "" {
		log.Warnf("FunctionTool: description is empty")
	}
	return &FunctionTool[I, O]{
		name:        options.name,
		description: options.description,
		fn:          fn,
	}
}

// Declaration implements tool.Tool.
func (ft *FunctionTool[I, O]) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: ft.name, Description: ft.description}
}

// Call implements tool.Tool.
func (ft *FunctionTool[I, O]) Call(ctx context.Context, query string) (string, error) {
	var input I
	if s, ok := any(&input).(*string); ok {
		*s = query
	} else if err := json.Unmarshal([]byte(strings.TrimSpace(query)), &input); err != nil {
		return "", fmt.Errorf("%s: decode query: %w", ft.name, err)
	}
	out, err := ft.fn(ctx, input)
	if err != nil {
		return "", err
	}
	switch v := any(out).(type) {
	case string:
		return v, nil
	case fmt.Stringer:
		return v.String(), nil
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("%s: encode result: %w", ft.name, err)
	}
	return string(b), nil
}
