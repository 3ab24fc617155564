//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package wikipedia

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-science-agent/errs"
)

const searchJSON = `{"query":{"searchinfo":{"totalhits":2},"search":[
 {"title":"Speed of light","pageid":28736,"snippet":"The <span class=\"searchmatch\">speed</span> of light"},
 {"title":"Light","pageid":17939,"snippet":"Light is radiation"}]}}`

const extractJSON = `{"query":{"pages":{"28736":{"pageid":28736,"title":"Speed of light",
 "extract":"The speed of light in vacuum, commonly denoted c, is exactly 299,792,458 metres per second.",
 "fullurl":"https://en.wikipedia.org/wiki/Speed_of_light"}}}}`

func newWiki(t *testing.T, handler http.HandlerFunc, opts ...Option) *Tool {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(append([]Option{WithBaseURL(srv.URL)}, opts...)...)
}

func TestCall_Summary(t *testing.T) {
	var searchLimit string
	w := newWiki(t, func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		assert.Equal(t, defaultUserAgent, r.Header.Get("User-Agent"))
		if q.Get("list") == "search" {
			searchLimit = q.Get("srlimit")
			assert.Equal(t, "speed of light", q.Get("srsearch"))
			_, _ = w.Write([]byte(searchJSON))
			return
		}
		assert.Equal(t, "Speed of light", q.Get("titles"))
		assert.Equal(t, "1", q.Get("exintro"))
		_, _ = w.Write([]byte(extractJSON))
	})

	assert.Equal(t, "wikipedia", w.Declaration().Name)
	out, err := w.Call(context.Background(), "speed of light")
	require.NoError(t, err)
	assert.Equal(t, "1", searchLimit)
	assert.True(t, strings.HasPrefix(out, "Page: Speed of light\nSummary: The speed of light in vacuum"))
	assert.Contains(t, out, "299,792,458")
}

func TestCall_Truncates(t *testing.T) {
	w := newWiki(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") == "search" {
			_, _ = w.Write([]byte(searchJSON))
			return
		}
		_, _ = w.Write([]byte(extractJSON))
	}, WithMaxChars(20))

	out, err := w.Call(context.Background(), "c")
	require.NoError(t, err)
	assert.Equal(t, "Page: Speed of light", out)
}

func TestCall_SnippetFallback(t *testing.T) {
	w := newWiki(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("list") == "search" {
			_, _ = w.Write([]byte(searchJSON))
			return
		}
		_, _ = w.Write([]byte(`{"query":{"pages":{"-1":{"title":"Speed of light","missing":""}}}}`))
	})

	out, err := w.Call(context.Background(), "speed of light")
	require.NoError(t, err)
	assert.Contains(t, out, "Summary: The speed of light")
	assert.NotContains(t, out, "<span")
}

func TestCall_NoResults(t *testing.T) {
	w := newWiki(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"query":{"searchinfo":{"totalhits":0},"search":[]}}`))
	})
	out, err := w.Call(context.Background(), "qwertyuiop")
	require.NoError(t, err)
	assert.Equal(t, NoResult, out)
}

func TestCall_HTTPError(t *testing.T) {
	w := newWiki(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "maintenance", http.StatusServiceUnavailable)
	})
	_, err := w.Call(context.Background(), "light")
	require.Error(t, err)
	var ae *errs.AdapterError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "wikipedia", ae.Capability)
	assert.Contains(t, err.Error(), "503")
}

func TestCall_EmptyQuery(t *testing.T) {
	_, err := New().Call(context.Background(), "   ")
	assert.ErrorContains(t, err, "query cannot be empty")
}
