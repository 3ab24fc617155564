//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package wikipedia provides the Wikipedia lookup capability.
package wikipedia

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/internal/util"
	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/tool"
	"trpc.group/trpc-go/trpc-science-agent/tool/wikipedia/internal/client"
)

// Default configuration constants.
const (
	defaultBaseURL    = "https://en.wikipedia.org/w/api.php"
	defaultUserAgent  = "trpc-science-agent-wikipedia/1.0"
	defaultTimeout    = 30 * time.Second
	defaultMaxResults = 1
	defaultMaxChars   = 1000
	defaultName       = "wikipedia"

	// NoResult is the observation when nothing matches.
	NoResult = "No good Wikipedia Search Result was found"
)

const description = "A wrapper around Wikipedia. Useful for when you need to answer general " +
	"questions about people, places, companies, facts, historical events, or other subjects. " +
	"Input should be a search query."

// config holds the configuration for the Wikipedia capability.
type config struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
	maxResults int
	maxChars   int
}

// Option is a functional option for configuring the Wikipedia capability.
type Option func(*config)

// WithLanguage sets the Wikipedia language (e.g., "en", "de").
func WithLanguage(language string) Option {
	return func(c *config) {
		c.baseURL = fmt.Sprintf("https://%s.wikipedia.org/w/api.php", language)
	}
}

// WithBaseURL points the client at another MediaWiki endpoint.
func WithBaseURL(u string) Option {
	return func(c *config) {
		c.baseURL = u
	}
}

// WithMaxResults sets how many pages are summarised.
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

// WithTimeout sets the HTTP client timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(c *config) {
		c.httpClient.Timeout = timeout
	}
}

// WithUserAgent sets the User-Agent string for requests.
func WithUserAgent(userAgent string) Option {
	return func(c *config) {
		c.userAgent = userAgent
	}
}

// Tool is the Wikipedia capability.
type Tool struct {
	client     *client.Client
	maxResults int
	maxChars   int
}

var _ tool.Tool = (*Tool)(nil)

// New creates the Wikipedia capability.
func New(opts ...Option) *Tool {
	cfg := &config{
		baseURL:    defaultBaseURL,
		userAgent:  defaultUserAgent,
		httpClient: &http.Client{Timeout: defaultTimeout},
		maxResults: defaultMaxResults,
		maxChars:   defaultMaxChars,
	}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Tool{
		client:     client.New(cfg.baseURL, cfg.userAgent, cfg.httpClient),
		maxResults: cfg.maxResults,
		maxChars:   cfg.maxChars,
	}
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: defaultName, Description: description}
}

// Call implements tool.Tool. Each hit becomes "Page: <title>\nSummary:
// <intro>"; hits are separated by a blank line.
func (t *Tool) Call(ctx context.Context, query string) (string, error) {
	response, err := t.client.Search(ctx, query, t.maxResults)
	if err != nil {
		return "", errs.NewAdapterError(defaultName, err)
	}
	if len(response.Query.Search) == 0 {
		return NoResult, nil
	}

	var summaries []string
	for _, hit := range response.Query.Search {
		summary := ""
		page, err := t.client.GetPageSummary(ctx, hit.Title)
		switch {
		case err != nil:
			if ctx.Err() != nil {
				return "", errs.NewAdapterError(defaultName, ctx.Err())
			}
			log.Debugf("wikipedia: summary of %q failed, using snippet: %v", hit.Title, err)
		default:
			summary = strings.TrimSpace(page.Extract)
		}
		if summary == "" {
			summary = snippetText(hit.Snippet)
		}
		summaries = append(summaries, fmt.Sprintf("Page: %s\nSummary: %s", hit.Title, util.CollapseSpace(summary)))
	}
	return util.Truncate(strings.Join(summaries, "\n\n"), t.maxChars), nil
}

// snippetText converts the search snippet HTML to markdown, falling back
// to stripped tags.
func snippetText(html string) string {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
		),
	)
	md, err := conv.ConvertString(html)
	if err != nil {
		return util.StripTags(html)
	}
	return strings.TrimSpace(md)
}
