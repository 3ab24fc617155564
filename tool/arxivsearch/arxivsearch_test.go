//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package arxivsearch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"trpc.group/trpc-go/trpc-science-agent/errs"
)

const feedXML = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/" xmlns:arxiv="http://arxiv.org/schemas/atom">
  <opensearch:totalResults>1</opensearch:totalResults>
  <entry>
    <id>http://arxiv.org/abs/1706.03762v7</id>
    <updated>2023-08-02T00:41:18Z</updated>
    <published>2017-06-12T17:57:34Z</published>
    <title>Attention Is All
      You Need</title>
    <summary>  The dominant sequence transduction models are based on complex recurrent networks.  </summary>
    <author><name>Ashish Vaswani</name></author>
    <author><name>Noam Shazeer</name></author>
    <arxiv:primary_category term="cs.CL"/>
    <category term="cs.CL"/>
    <category term="cs.LG"/>
    <link href="http://arxiv.org/pdf/1706.03762v7" rel="related" type="application/pdf" title="pdf"/>
  </entry>
</feed>`

func newArxiv(t *testing.T, h http.HandlerFunc, opts ...Option) *Tool {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(append([]Option{WithBaseURL(srv.URL), WithDelay(0)}, opts...)...)
}

func TestCall(t *testing.T) {
	a := newArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "all:attention", r.URL.Query().Get("search_query"))
		assert.Equal(t, "1", r.URL.Query().Get("max_results"))
		_, _ = w.Write([]byte(feedXML))
	})

	assert.Equal(t, "arxiv", a.Declaration().Name)
	out, err := a.Call(context.Background(), "attention")
	require.NoError(t, err)
	assert.Equal(t, "Published: 2017-06-12\nTitle: Attention Is All You Need\n"+
		"Authors: Ashish Vaswani, Noam Shazeer\n"+
		"Summary: The dominant sequence transduction models are based on complex recurrent networks.", out)
}

func TestCall_FieldPrefixKept(t *testing.T) {
	a := newArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "ti:transformer", r.URL.Query().Get("search_query"))
		_, _ = w.Write([]byte(feedXML))
	}, WithMaxChars(10))
	out, err := a.Call(context.Background(), "ti:transformer")
	require.NoError(t, err)
	assert.Equal(t, "Published:", out)
}

func TestCall_NoResults(t *testing.T) {
	a := newArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`<feed xmlns="http://www.w3.org/2005/Atom"></feed>`))
	})
	out, err := a.Call(context.Background(), "zzzz")
	require.NoError(t, err)
	assert.Equal(t, NoResult, out)
}

func TestCall_RetriesThenFails(t *testing.T) {
	var hits int32
	a := newArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}, WithNumRetries(2))
	_, err := a.Call(context.Background(), "x")
	require.Error(t, err)
	var ae *errs.AdapterError
	assert.ErrorAs(t, err, &ae)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestCall_RetryRecovers(t *testing.T) {
	var hits int32
	a := newArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_, _ = w.Write([]byte(feedXML))
	})
	out, err := a.Call(context.Background(), "attention")
	require.NoError(t, err)
	assert.Contains(t, out, "Attention Is All You Need")
}

func TestCall_Cancelled(t *testing.T) {
	a := newArxiv(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(feedXML))
	})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := a.Call(ctx, "attention")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCall_EmptyQuery(t *testing.T) {
	_, err := New().Call(context.Background(), " ")
	assert.Error(t, err)
}
