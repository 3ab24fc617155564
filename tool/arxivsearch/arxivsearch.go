//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package arxivsearch provides the arXiv lookup capability.
package arxivsearch

import (
	"context"
	"fmt"
	"strings"
	"time"

	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/internal/util"
	"trpc.group/trpc-go/trpc-science-agent/tool"
	"trpc.group/trpc-go/trpc-science-agent/tool/arxivsearch/internal/arxiv"
)

const (
	defaultName       = "arxiv"
	defaultMaxResults = 1
	defaultMaxChars   = 1000

	// NoResult is the observation when nothing matches.
	NoResult = "No good Arxiv Result was found"
)

const description = "A wrapper around Arxiv.org. Useful for when you need to answer questions " +
	"about Physics, Mathematics, Computer Science, Quantitative Biology, Quantitative Finance, " +
	"Statistics, Electrical Engineering, and Economics from scientific articles on arxiv.org. " +
	"Input should be a search query."

type config struct {
	client     arxiv.ClientConfig
	maxResults int
	maxChars   int
}

// Option define an option for arxiv tool
type Option func(*config)

// WithBaseURL set the base url for arxiv tool
func WithBaseURL(baseURL string) Option {
	return func(c *config) {
		c.client.BaseURL = baseURL
	}
}

// WithDelay sets the minimum gap between two API requests.
func WithDelay(d time.Duration) Option {
	return func(c *config) {
		c.client.Delay = d
	}
}

// WithNumRetries set the num retries for arxiv tool
func WithNumRetries(numRetries int) Option {
	return func(c *config) {
		c.client.NumRetries = numRetries
	}
}

// WithHTTPClient sets the HTTP client used for API calls.
func WithHTTPClient(doer arxiv.HTTPDoer) Option {
	return func(c *config) {
		c.client.HTTPClient = doer
	}
}

// WithMaxResults sets how many papers are returned.
func WithMaxResults(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxResults = n
		}
	}
}

// WithMaxChars caps the observation length in runes.
func WithMaxChars(n int) Option {
	return func(c *config) {
		if n > 0 {
			c.maxChars = n
		}
	}
}

// Tool is the arXiv capability.
type Tool struct {
	client     *arxiv.Client
	maxResults int
	maxChars   int
}

var _ tool.Tool = (*Tool)(nil)

// New creates the arXiv capability.
func New(opts ...Option) *Tool {
	cfg := &config{
		client: arxiv.ClientConfig{
			PageSize:   5,
			Delay:      time.Second,
			NumRetries: 3,
		},
		maxResults: defaultMaxResults,
		maxChars:   defaultMaxChars,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Tool{
		client:     arxiv.NewClient(cfg.client),
		maxResults: cfg.maxResults,
		maxChars:   cfg.maxChars,
	}
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: defaultName, Description: description}
}

// Call implements tool.Tool.
func (t *Tool) Call(ctx context.Context, query string) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", errs.NewAdapterError(defaultName, fmt.Errorf("query cannot be empty"))
	}
	results, err := t.client.Search(ctx, arxiv.Search{
		Query:      searchQuery(query),
		MaxResults: t.maxResults,
	})
	if err != nil {
		return "", errs.NewAdapterError(defaultName, err)
	}
	if len(results) == 0 {
		return NoResult, nil
	}
	docs := make([]string, 0, len(results))
	for _, r := range results {
		docs = append(docs, formatResult(r))
	}
	return util.Truncate(strings.Join(docs, "\n\n"), t.maxChars), nil
}

// searchQuery searches every field unless the model already used the
// field prefix syntax, e.g. "ti:transformer".
func searchQuery(query string) string {
	if strings.Contains(query, ":") {
		return query
	}
	return "all:" + query
}

func formatResult(r arxiv.Result) string {
	names := make([]string, len(r.Authors))
	for i, a := range r.Authors {
		names[i] = a.Name
	}
	published := "unknown"
	if !r.Published.IsZero() {
		published = r.Published.Format("2006-01-02")
	}
	return fmt.Sprintf("Published: %s\nTitle: %s\nAuthors: %s\nSummary: %s",
		published, r.Title, strings.Join(names, ", "), r.Summary)
}
