//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package runner

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trpc.group/trpc-go/trpc-science-agent/agent"
)

type fakeAgent struct {
	active  atomic.Int32
	maxSeen atomic.Int32
	delay   time.Duration
	panics  bool
}

func (f *fakeAgent) Answer(ctx context.Context, question string) agent.Result {
	if f.panics {
		panic("boom")
	}
	n := f.active.Add(1)
	defer f.active.Add(-1)
	for {
		m := f.maxSeen.Load()
		if n <= m || f.maxSeen.CompareAndSwap(m, n) {
			break
		}
	}
	select {
	case <-time.After(f.delay):
	case <-ctx.Done():
		return agent.Result{Error: agent.ErrorCancelled, Detail: ctx.Err().Error()}
	}
	return agent.Result{RunID: "id-" + question, FinalAnswer: "answer to " + question}
}

func (f *fakeAgent) Info() agent.Info { return agent.Info{Name: "fake"} }

func TestRun(t *testing.T) {
	r, err := New(&fakeAgent{})
	require.NoError(t, err)
	defer r.Close()

	res := r.Run(context.Background(), "q")
	assert.True(t, res.OK())
	assert.Equal(t, "answer to q", res.FinalAnswer)
}

func TestRun_Timeout(t *testing.T) {
	r, err := New(&fakeAgent{delay: time.Second}, WithRunTimeout(10*time.Millisecond))
	require.NoError(t, err)
	defer r.Close()

	res := r.Run(context.Background(), "q")
	assert.Equal(t, agent.ErrorCancelled, res.Error)
}

func TestRun_Panic(t *testing.T) {
	r, err := New(&fakeAgent{panics: true})
	require.NoError(t, err)
	defer r.Close()

	res := r.Run(context.Background(), "q")
	assert.False(t, res.OK())
	assert.Equal(t, agent.ErrorInternal, res.Error)
	assert.Contains(t, res.Detail, "boom")
	assert.NotEmpty(t, res.RunID)
	assert.NotEqual(t, res.RunID, r.Run(context.Background(), "q").RunID)
}

func TestRunBatch(t *testing.T) {
	fake := &fakeAgent{delay: 20 * time.Millisecond}
	r, err := New(fake, WithConcurrency(2))
	require.NoError(t, err)
	defer r.Close()

	questions := []string{"a", "b", "c", "d", "e"}
	results := r.RunBatch(context.Background(), questions)
	require.Len(t, results, len(questions))
	for i, q := range questions {
		assert.Equal(t, "answer to "+q, results[i].FinalAnswer)
	}
	assert.LessOrEqual(t, fake.maxSeen.Load(), int32(2))
}

func TestRunBatch_Closed(t *testing.T) {
	r, err := New(&fakeAgent{})
	require.NoError(t, err)
	require.NoError(t, r.Close())
	require.NoError(t, r.Close())

	results := r.RunBatch(context.Background(), []string{"a"})
	require.Len(t, results, 1)
	assert.Equal(t, agent.ErrorCancelled, results[0].Error)
	assert.Equal(t, ErrClosed.Error(), results[0].Detail)
}

func TestNew_NilAgent(t *testing.T) {
	_, err := New(nil)
	assert.Error(t, err)
}
