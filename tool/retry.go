//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package tool

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/log"
)

const (
	defaultRetryInitialInterval = 200 * time.Millisecond
	defaultRetryMaxInterval     = 2 * time.Second
)

type retryTool struct {
	Tool
	retries         int
	initialInterval time.Duration
}

// RetryOption configures WithRetry.
type RetryOption func(*retryTool)

// WithInitialInterval sets the first backoff delay.
func WithInitialInterval(d time.Duration) RetryOption {
	return func(r *retryTool) {
		if d > 0 {
			r.initialInterval = d
		}
	}
}

// WithRetry wraps t so a failing Call is retried up to retries more times
// with exponential backoff. Parse errors and context errors are returned
// at once. retries <= 0 returns t unchanged.
func WithRetry(t Tool, retries int, opts ...RetryOption) Tool {
	if retries <= 0 {
		return t
	}
	r := &retryTool{Tool: t, retries: retries, initialInterval: defaultRetryInitialInterval}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Call implements Tool.
func (r *retryTool) Call(ctx context.Context, query string) (string, error) {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = r.initialInterval
	b.MaxInterval = defaultRetryMaxInterval
	b.MaxElapsedTime = 0

	var out string
	attempt := 0
	op := func() error {
		attempt++
		res, err := r.Tool.Call(ctx, query)
		if err == nil {
			out = res
			return nil
		}
		if errs.IsParse(err) || ctx.Err() != nil ||
			errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return backoff.Permanent(err)
		}
		log.Debugf("capability %s attempt %d failed: %v", r.Declaration().Name, attempt, err)
		return err
	}
	err := backoff.Retry(op, backoff.WithContext(backoff.WithMaxRetries(b, uint64(r.retries)), ctx))
	return out, err
}
