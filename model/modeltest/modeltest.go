//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package modeltest provides scripted models for tests.
package modeltest

import (
	"context"
	"errors"
	"sync"
	"time"

	"trpc.group/trpc-go/trpc-science-agent/model"
)

// ErrScriptExhausted is returned once every scripted reply was consumed.
var ErrScriptExhausted = errors.New("modeltest: script exhausted")

// Reply is one scripted model turn.
type Reply struct {
	Content string
	Err     error
}

// Model replays a script. It is safe for concurrent use.
type Model struct {
	mu       sync.Mutex
	script   []Reply
	fn       func(ctx context.Context, req *model.Request) (string, error)
	fail     error
	requests []*model.Request
}

// New creates a model that answers with replies in order.
func New(replies ...string) *Model {
	m := &Model{}
	for _, r := range replies {
		m.script = append(m.script, Reply{Content: r})
	}
	return m
}

// NewScript creates a model that plays back script, including errors.
func NewScript(script ...Reply) *Model {
	return &Model{script: script}
}

// NewFunc creates a model that answers every request with fn.
func NewFunc(fn func(ctx context.Context, req *model.Request) (string, error)) *Model {
	return &Model{fn: fn}
}

// Fail makes every following call return err.
func (m *Model) Fail(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = err
}

// Generate implements model.Model.
func (m *Model) Generate(ctx context.Context, req *model.Request) (*model.Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	m.requests = append(m.requests, req)
	fn := m.fn
	var next Reply
	switch {
	case m.fail != nil:
		next.Err = m.fail
	case fn != nil:
	case len(m.script) == 0:
		next.Err = ErrScriptExhausted
	default:
		next, m.script = m.script[0], m.script[1:]
	}
	m.mu.Unlock()

	if fn != nil && next.Err == nil {
		content, err := fn(ctx, req)
		next = Reply{Content: content, Err: err}
	}
	if next.Err != nil {
		return nil, next.Err
	}
	return &model.Response{Content: next.Content, FinishReason: "stop", Timestamp: time.Now()}, nil
}

// Info implements model.Model.
func (m *Model) Info() model.Info {
	return model.Info{Name: "modeltest"}
}

// Requests returns the requests received so far.
func (m *Model) Requests() []*model.Request {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*model.Request, len(m.requests))
	copy(out, m.requests)
	return out
}

// Remaining returns the number of unplayed scripted replies.
func (m *Model) Remaining() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.script)
}
