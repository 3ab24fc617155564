//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package model provides interfaces for working with LLMs.
package model

import (
	"context"
	"errors"
	"strings"
)

// ErrEmptyResponse is returned when the provider answers without any
// choice.
var ErrEmptyResponse = errors.New("model returned no choices")

// Info describes a model.
type Info struct {
	Name string
}

// Model is a chat completion model. Implementations must be safe for
// concurrent use; one Model is shared by every dispatch loop and adapter.
type Model interface {
	// Generate sends the request and blocks until the complete reply
	// arrives or ctx is done.
	Generate(ctx context.Context, request *Request) (*Response, error)
	// Info returns basic information about the model.
	Info() Info
}

// GenerateText is a shorthand for the common system + user prompt call.
// The returned text is trimmed.
func GenerateText(ctx context.Context, m Model, system, user string, cfg GenerationConfig) (string, error) {
	var msgs []Message
	if system != "" {
		msgs = append(msgs, NewSystemMessage(system))
	}
	msgs = append(msgs, NewUserMessage(user))
	rsp, err := m.Generate(ctx, &Request{Messages: msgs, GenerationConfig: cfg})
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(rsp.Content), nil
}
