//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package runner serves questions with an agent, one at a time or in
// batches on a bounded goroutine pool.
package runner

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/panjf2000/ants/v2"

	"trpc.group/trpc-go/trpc-science-agent/agent"
	"trpc.group/trpc-go/trpc-science-agent/log"
)

// DefaultConcurrency is the default number of questions answered at once
// by RunBatch.
const DefaultConcurrency = 4

// ErrClosed is reported for questions submitted after Close.
var ErrClosed = errors.New("runner is closed")

// Option is a function that configures a Runner.
type Option func(*Options)

// Options is the options for the Runner.
type Options struct {
	concurrency int
	runTimeout  time.Duration
}

// WithConcurrency bounds how many questions RunBatch answers at once.
func WithConcurrency(n int) Option {
	return func(opts *Options) {
		if n > 0 {
			opts.concurrency = n
		}
	}
}

// WithRunTimeout bounds each whole run. Zero means no limit beyond the
// caller's context.
func WithRunTimeout(d time.Duration) Option {
	return func(opts *Options) {
		opts.runTimeout = d
	}
}

// Runner runs an agent.
type Runner struct {
	agent     agent.Agent
	opts      Options
	pool      *ants.PoolWithFunc
	closeOnce sync.Once
}

type batchTask struct {
	ctx      context.Context
	idx      int
	question string
	results  []agent.Result
	wg       *sync.WaitGroup
}

// New creates a Runner for ag.
func New(ag agent.Agent, opts ...Option) (*Runner, error) {
	if ag == nil {
		return nil, errors.New("runner: agent is nil")
	}
	o := Options{concurrency: DefaultConcurrency}
	for _, opt := range opts {
		opt(&o)
	}
	r := &Runner{agent: ag, opts: o}
	pool, err := ants.NewPoolWithFunc(o.concurrency, func(args any) {
		task, ok := args.(*batchTask)
		if !ok {
			panic("runner pool args type error")
		}
		defer task.wg.Done()
		task.results[task.idx] = r.Run(task.ctx, task.question)
	})
	if err != nil {
		return nil, fmt.Errorf("create runner pool: %w", err)
	}
	r.pool = pool
	return r, nil
}

// Run answers one question. A panicking agent yields an internal error
// result with a fresh run ID instead of crashing the caller.
func (r *Runner) Run(ctx context.Context, question string) (result agent.Result) {
	if r.opts.runTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.opts.runTimeout)
		defer cancel()
	}
	defer func() {
		if rec := recover(); rec != nil {
			log.Errorf("runner: agent %s panicked: %v\n%s", r.agent.Info().Name, rec, debug.Stack())
			result = agent.Result{
				RunID:  uuid.NewString(),
				Error:  agent.ErrorInternal,
				Detail: fmt.Sprintf("agent panicked: %v", rec),
			}
		}
	}()
	start := time.Now()
	result = r.agent.Answer(ctx, question)
	log.Debugf("runner: run %s took %s (ok=%t)", result.RunID, time.Since(start), result.OK())
	return result
}

// RunBatch answers questions concurrently. Results are in input order.
func (r *Runner) RunBatch(ctx context.Context, questions []string) []agent.Result {
	results := make([]agent.Result, len(questions))
	var wg sync.WaitGroup
	for i, q := range questions {
		wg.Add(1)
		task := &batchTask{ctx: ctx, idx: i, question: q, results: results, wg: &wg}
		if err := r.pool.Invoke(task); err != nil {
			wg.Done()
			if errors.Is(err, ants.ErrPoolClosed) {
				err = ErrClosed
			}
			results[i] = agent.Result{Error: agent.ErrorCancelled, Detail: err.Error()}
		}
	}
	wg.Wait()
	return results
}

// Close releases the pool. It's safe to call Close multiple times.
func (r *Runner) Close() error {
	r.closeOnce.Do(func() {
		r.pool.Release()
	})
	return nil
}
