//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package duckduckgo provides the web search capability backed by the
// DuckDuckGo lite HTML page.
package duckduckgo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
	"golang.org/x/time/rate"
	"trpc.group/trpc-go/trpc-science-agent/errs"
	"trpc.group/trpc-go/trpc-science-agent/internal/util"
	"trpc.group/trpc-go/trpc-science-agent/log"
	"trpc.group/trpc-go/trpc-science-agent/tool"
)

const (
	defaultName         = "search_engine"
	defaultEndpoint     = "https://lite.duckduckgo.com/lite/"
	userAgent           = "Mozilla/5.0 (compatible; scibot/1.0; +https://trpc.group/trpc-go/trpc-science-agent)"
	defaultTimeout      = 15 * time.Second
	defaultMaxResults   = 1
	defaultMaxChars     = 1000
	defaultInterval     = time.Second
	defaultRetryBackoff = time.Second
	maxRetryBackoff     = 30 * time.Second
	maxHits             = 5
	minFallbackTitle    = 5

	// NoResult is the observation when the page has no results.
	NoResult = "No good DuckDuckGo Search Result was found"
)

const description = "A web search engine. Useful for when you need to answer questions about " +
	"current events or facts that other capabilities cannot look up. Input should be a search query."

// sharedLimiter spaces queries of every Tool built with the default interval.
var sharedLimiter = rate.NewLimiter(rate.Every(defaultInterval), 1)

var errRateLimited = errors.New("duckduckgo http 429")

// Result is a single search hit.
type Result struct {
	Title   string
	URL     string
	Snippet string
}

type config struct {
	endpoint     string
	httpClient   *http.Client
	maxResults   int
	maxChars     int
	limiter      *rate.Limiter
	retryBackoff time.Duration
}

// Option configures the search capability.
type Option func(*config)

// WithEndpoint overrides the lite endpoint.
func WithEndpoint(endpoint string) Option {
	return func(c *config) { c.endpoint = endpoint }
}

// WithHTTPClient sets the HTTP client used for queries.
func WithHTTPClient(client *http.Client) Option {
	return func(c *config) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithMaxResults sets how many hits are kept.
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

// WithRateInterval gives the Tool its own limiter allowing one query per
// d. Zero turns the limiter off. Without this option all Tools share one
// limiter of one query per second.
func WithRateInterval(d time.Duration) Option {
	return func(c *config) {
		if d <= 0 {
			c.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		c.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetryBackoff sets the first delay after a 429 reply.
func WithRetryBackoff(d time.Duration) Option {
	return func(c *config) {
		if d > 0 {
			c.retryBackoff = d
		}
	}
}

// Tool is the web search capability.
type Tool struct {
	cfg config
}

var _ tool.Tool = (*Tool)(nil)

// New creates the web search capability.
func New(opts ...Option) *Tool {
	cfg := config{
		endpoint:     defaultEndpoint,
		httpClient:   &http.Client{Timeout: defaultTimeout},
		maxResults:   defaultMaxResults,
		maxChars:     defaultMaxChars,
		limiter:      sharedLimiter,
		retryBackoff: defaultRetryBackoff,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Tool{cfg: cfg}
}

// Declaration implements tool.Tool.
func (t *Tool) Declaration() *tool.Declaration {
	return &tool.Declaration{Name: defaultName, Description: description}
}

// Call implements tool.Tool.
func (t *Tool) Call(ctx context.Context, query string) (string, error) {
	results, err := t.Search(ctx, query)
	if err != nil {
		return "", errs.NewAdapterError(defaultName, err)
	}
	if len(results) == 0 {
		return NoResult, nil
	}
	if len(results) > t.cfg.maxResults {
		results = results[:t.cfg.maxResults]
	}
	lines := make([]string, 0, len(results))
	for _, r := range results {
		if r.Snippet == "" {
			lines = append(lines, r.Title)
			continue
		}
		lines = append(lines, r.Title+": "+r.Snippet)
	}
	return util.Truncate(strings.Join(lines, "\n"), t.cfg.maxChars), nil
}

// Search posts the query and scrapes the result page. A 429 reply is
// retried with exponential backoff until ctx is done; any other failure
// is returned at once.
func (t *Tool) Search(ctx context.Context, query string) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, errors.New("query is empty")
	}
	if err := t.cfg.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = t.cfg.retryBackoff
	b.MaxInterval = maxRetryBackoff
	b.MaxElapsedTime = 0

	var results []Result
	op := func() error {
		res, err := t.post(ctx, query)
		if err == nil {
			results = res
			return nil
		}
		if errors.Is(err, errRateLimited) {
			return err
		}
		return backoff.Permanent(err)
	}
	notify := func(_ error, d time.Duration) {
		log.Debugf("duckduckgo: rate limited, retrying in %s", d)
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		return nil, err
	}
	return results, nil
}

func (t *Tool) post(ctx context.Context, query string) ([]Result, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, t.cfg.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := t.cfg.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusTooManyRequests:
		return nil, errRateLimited
	default:
		return nil, fmt.Errorf("duckduckgo http %d", resp.StatusCode)
	}
	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse result page: %w", err)
	}
	return extractResults(doc), nil
}

// extractResults reads result-link anchors and the result-snippet cell that
// follows each. A page without them falls back to external links.
func extractResults(doc *html.Node) []Result {
	var results []Result
	walk(doc, func(n *html.Node) bool {
		switch {
		case n.DataAtom == atom.A && hasClass(n, "result-link"):
			href, title := attr(n, "href"), nodeText(n)
			if href != "" && title != "" {
				results = append(results, Result{Title: title, URL: href})
			}
			return false
		case n.DataAtom == atom.Td && hasClass(n, "result-snippet"):
			if last := len(results) - 1; last >= 0 && results[last].Snippet == "" {
				results[last].Snippet = nodeText(n)
			}
			return false
		}
		return true
	})
	if len(results) == 0 {
		return externalLinks(doc)
	}
	if len(results) > maxHits {
		results = results[:maxHits]
	}
	return results
}

// externalLinks keeps off-site anchors with a plausible title, once each.
func externalLinks(doc *html.Node) []Result {
	var results []Result
	seen := make(map[string]bool)
	walk(doc, func(n *html.Node) bool {
		if n.DataAtom != atom.A || len(results) >= maxHits {
			return len(results) < maxHits
		}
		href, title := attr(n, "href"), nodeText(n)
		u, err := url.Parse(href)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") ||
			strings.HasSuffix(u.Hostname(), "duckduckgo.com") {
			return false
		}
		if len([]rune(title)) < minFallbackTitle || seen[href] {
			return false
		}
		seen[href] = true
		results = append(results, Result{Title: title, URL: href})
		return false
	})
	return results
}

// walk visits n and its descendants depth first. visit returns false to
// skip the children of a node.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if n.Type == html.ElementNode && !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return strings.TrimSpace(a.Val)
		}
	}
	return ""
}

func hasClass(n *html.Node, class string) bool {
	for _, c := range strings.Fields(attr(n, "class")) {
		if c == class {
			return true
		}
	}
	return false
}

// nodeText is the text content of n with whitespace collapsed.
func nodeText(n *html.Node) string {
	var b strings.Builder
	var collect func(*html.Node)
	collect = func(n *html.Node) {
		if n.Type == html.TextNode {
			b.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			collect(c)
		}
	}
	collect(n)
	return strings.Join(strings.Fields(b.String()), " ")
}
