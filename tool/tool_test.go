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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-science-agent/errs"
)

type stubTool struct {
	name  string
	mu    sync.Mutex
	calls int
	fn    func(n int) (string, error)
}

func (s *stubTool) Declaration() *Declaration {
	return &Declaration{Name: s.name, Description: "stub " + s.name}
}

func (s *stubTool) Call(_ context.Context, _ string) (string, error) {
	s.mu.Lock()
	s.calls++
	n := s.calls
	s.mu.Unlock()
	if s.fn == nil {
		return s.name, nil
	}
	return s.fn(n)
}

func TestRegistry_Order(t *testing.T) {
	r, err := NewRegistry(&stubTool{name: "search_engine"}, &stubTool{name: "wikipedia"}, &stubTool{name: "arxiv"})
	require.NoError(t, err)
	require.NoError(t, r.Register(&stubTool{name: "calculator"}))

	assert.Equal(t, []string{"search_engine", "wikipedia", "arxiv", "calculator"}, r.Names())
	assert.Equal(t, 4, r.Len())
	decls := r.Declarations()
	require.Len(t, decls, 4)
	assert.Equal(t, "stub arxiv", decls[2].Description)

	list := r.List()
	list[0] = nil
	assert.NotNil(t, r.List()[0], "List must return a copy")
}

func TestRegistry_Duplicate(t *testing.T) {
	r, err := NewRegistry(&stubTool{name: "wikipedia"})
	require.NoError(t, err)

	err = r.Register(&stubTool{name: "calculator"}, &stubTool{name: "wikipedia"})
	require.Error(t, err)
	assert.True(t, errs.IsConfiguration(err))
	assert.ErrorIs(t, err, errs.ErrDuplicateCapability)
	assert.Equal(t, []string{"wikipedia"}, r.Names(), "a failed Register adds nothing")

	_, err = NewRegistry(&stubTool{name: "a"}, &stubTool{name: "a"})
	assert.ErrorIs(t, err, errs.ErrDuplicateCapability)
}

func TestRegistry_EmptyNameAndFreeze(t *testing.T) {
	r, err := NewRegistry()
	require.NoError(t, err)
	assert.True(t, errs.IsConfiguration(r.Register(&stubTool{name: ""})))

	r.Freeze()
	assert.True(t, errs.IsConfiguration(r.Register(&stubTool{name: "late"})))
	assert.Equal(t, 0, r.Len())
}

func TestRegistry_Lookup(t *testing.T) {
	calc := &stubTool{name: "calculator"}
	r, err := NewRegistry(calc)
	require.NoError(t, err)

	got, ok := r.Lookup("calculator")
	require.True(t, ok)
	assert.Same(t, calc, got)

	_, ok = r.Lookup("Calculator")
	assert.False(t, ok, "lookup is exact")
}

func TestFilters(t *testing.T) {
	tools := []Tool{&stubTool{name: "a"}, &stubTool{name: "b"}, &stubTool{name: "c"}}

	assert.Len(t, FilterTools(tools, NewIncludeToolNamesFilter()), 3)

	kept := FilterTools(tools, NewIncludeToolNamesFilter("c", "a"))
	require.Len(t, kept, 2)
	assert.Equal(t, "a", kept[0].Declaration().Name)
	assert.Equal(t, "c", kept[1].Declaration().Name)

	kept = FilterTools(tools, NewExcludeToolNamesFilter("b"))
	require.Len(t, kept, 2)
	assert.Equal(t, "c", kept[1].Declaration().Name)
}

func TestWithRetry(t *testing.T) {
	tests := []struct {
		name      string
		retries   int
		fn        func(n int) (string, error)
		wantOut   string
		wantErr   bool
		wantCalls int
	}{
		{
			name:    "recovers after a transient failure",
			retries: 2,
			fn: func(n int) (string, error) {
				if n < 2 {
					return "", errors.New("503")
				}
				return "ok", nil
			},
			wantOut:   "ok",
			wantCalls: 2,
		},
		{
			name:      "gives up after retries",
			retries:   1,
			fn:        func(int) (string, error) { return "", errors.New("down") },
			wantErr:   true,
			wantCalls: 2,
		},
		{
			name:    "parse errors are not retried",
			retries: 3,
			fn: func(int) (string, error) {
				return "", &errs.ParseError{Stage: "calculator", Reason: "no block"}
			},
			wantErr:   true,
			wantCalls: 1,
		},
		{
			name:      "zero retries calls once",
			retries:   0,
			fn:        func(int) (string, error) { return "", errors.New("down") },
			wantErr:   true,
			wantCalls: 1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubTool{name: "x", fn: tt.fn}
			wrapped := WithRetry(stub, tt.retries, WithInitialInterval(time.Millisecond))
			out, err := wrapped.Call(context.Background(), "q")
			if tt.wantErr {
				require.Error(t, err)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantOut, out)
			}
			assert.Equal(t, tt.wantCalls, stub.calls)
			assert.Equal(t, "x", wrapped.Declaration().Name)
		})
	}
}

func TestWithRetry_ParseErrorKeepsType(t *testing.T) {
	stub := &stubTool{name: "x", fn: func(int) (string, error) {
		return "", &errs.ParseError{Stage: "equation", Reason: "bad json"}
	}}
	_, err := WithRetry(stub, 2).Call(context.Background(), "q")
	assert.True(t, errs.IsParse(err))
}

func TestWithRetry_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	stub := &stubTool{name: "x", fn: func(int) (string, error) {
		cancel()
		return "", errors.New("interrupted")
	}}
	_, err := WithRetry(stub, 5, WithInitialInterval(time.Millisecond)).Call(ctx, "q")
	require.Error(t, err)
	assert.Equal(t, 1, stub.calls)
}
