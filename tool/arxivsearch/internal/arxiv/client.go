//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package arxiv provides a client for the arxiv search API.
package arxiv

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"
)

// DefaultBaseURL is the public export endpoint.
const DefaultBaseURL = "https://export.arxiv.org/api/query"

// HTTPDoer is satisfied by *http.Client.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// Client arXiv API client. It is safe for concurrent use; requests are
// spaced by the configured delay.
type Client struct {
	BaseURL    string
	config     ClientConfig
	httpClient HTTPDoer

	mu          sync.Mutex
	lastRequest time.Time
}

// NewClient create a new arXiv API client
func NewClient(config ClientConfig) *Client {
	if config.PageSize <= 0 {
		config.PageSize = 100
	}
	if config.Delay < 0 {
		config.Delay = 0
	}
	if config.NumRetries <= 0 {
		config.NumRetries = 3
	}
	base := config.BaseURL
	if base == "" {
		base = DefaultBaseURL
	}
	doer := config.HTTPClient
	if doer == nil {
		doer = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		BaseURL:    base,
		config:     config,
		httpClient: doer,
	}
}

// Search arXiv for papers matching the given search criteria.
func (c *Client) Search(ctx context.Context, search Search) ([]Result, error) {
	limit := search.MaxResults
	if limit <= 0 {
		limit = c.config.PageSize
	}
	pageSize := limit
	if pageSize > c.config.PageSize {
		pageSize = c.config.PageSize
	}

	var results []Result
	for start := 0; len(results) < limit; start += pageSize {
		feed, err := c.fetchPage(ctx, c.buildQueryURL(search, start, pageSize))
		if err != nil {
			if len(results) > 0 {
				break
			}
			return nil, fmt.Errorf("failed to fetch page: %w", err)
		}
		for _, entry := range feed.Entries {
			if len(results) >= limit {
				break
			}
			results = append(results, parseEntry(entry))
		}
		total, _ := strconv.Atoi(strings.TrimSpace(feed.TotalResults))
		if len(feed.Entries) == 0 || start+pageSize >= total {
			break
		}
	}
	return results, nil
}

// buildQueryURL builds the query URL for the search.
func (c *Client) buildQueryURL(search Search, start, maxResults int) string {
	params := url.Values{}
	if search.Query != "" {
		params.Add("search_query", search.Query)
	}
	if len(search.IDList) > 0 {
		params.Add("id_list", strings.Join(search.IDList, ","))
	}
	if search.SortOrder != "" {
		params.Add("sortOrder", string(search.SortOrder))
	}
	if search.SortBy != "" {
		params.Add("sortBy", string(search.SortBy))
	}
	params.Add("start", strconv.Itoa(start))
	params.Add("max_results", strconv.Itoa(maxResults))
	return c.BaseURL + "?" + params.Encode()
}

// wait blocks until the delay since the previous request has passed.
func (c *Client) wait(ctx context.Context) error {
	c.mu.Lock()
	next := c.lastRequest.Add(c.config.Delay)
	now := time.Now()
	if next.Before(now) {
		next = now
	}
	c.lastRequest = next
	c.mu.Unlock()
	return sleep(ctx, time.Until(next))
}

// fetchPage fetches a page of results, retrying with a linear delay.
func (c *Client) fetchPage(ctx context.Context, pageURL string) (*AtomFeed, error) {
	var lastErr error
	for i := 0; i < c.config.NumRetries; i++ {
		if i > 0 {
			if err := sleep(ctx, c.retryDelay(i)); err != nil {
				return nil, err
			}
		}
		if err := c.wait(ctx); err != nil {
			return nil, err
		}
		feed, err := c.fetchOnce(ctx, pageURL)
		if err == nil {
			return feed, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		lastErr = err
	}
	return nil, fmt.Errorf("failed to get feed after %d retries: %w", c.config.NumRetries, lastErr)
}

func (c *Client) retryDelay(attempt int) time.Duration {
	if c.config.Delay <= 0 {
		return 0
	}
	return time.Duration(attempt) * c.config.Delay
}

func (c *Client) fetchOnce(ctx context.Context, pageURL string) (*AtomFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("HTTP error: %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	var feed AtomFeed
	if err := xml.Unmarshal(body, &feed); err != nil {
		return nil, err
	}
	return &feed, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// AtomFeed atom feed structure
type AtomFeed struct {
	XMLName      xml.Name    `xml:"feed"`
	Title        string      `xml:"title"`
	ID           string      `xml:"id"`
	Updated      string      `xml:"updated"`
	TotalResults string      `xml:"totalResults"`
	StartIndex   string      `xml:"startIndex"`
	ItemsPerPage string      `xml:"itemsPerPage"`
	Entries      []AtomEntry `xml:"entry"`
}

// AtomEntry atom entry structure
type AtomEntry struct {
	ID              string         `xml:"id"`
	Updated         string         `xml:"updated"`
	Published       string         `xml:"published"`
	Title           string         `xml:"title"`
	Summary         string         `xml:"summary"`
	Authors         []AtomAuthor   `xml:"author"`
	Categories      []AtomCategory `xml:"category"`
	Links           []AtomLink     `xml:"link"`
	Comment         string         `xml:"http://arxiv.org/schemas/atom comment"`
	JournalRef      string         `xml:"http://arxiv.org/schemas/atom journal_ref"`
	DOI             string         `xml:"http://arxiv.org/schemas/atom doi"`
	PrimaryCategory AtomCategory   `xml:"http://arxiv.org/schemas/atom primary_category"`
}

// AtomAuthor atom author structure
type AtomAuthor struct {
	Name string `xml:"name"`
}

// AtomCategory atom category structure
type AtomCategory struct {
	Term string `xml:"term,attr"`
}

// AtomLink atom link structure
type AtomLink struct {
	Href  string `xml:"href,attr"`
	Rel   string `xml:"rel,attr"`
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
}

// parseEntry parse atom entry to result
func parseEntry(entry AtomEntry) Result {
	updated, _ := time.Parse(time.RFC3339, entry.Updated)
	published, _ := time.Parse(time.RFC3339, entry.Published)

	authors := make([]Author, len(entry.Authors))
	for i, author := range entry.Authors {
		authors[i] = Author{Name: strings.TrimSpace(author.Name)}
	}

	categories := make([]string, len(entry.Categories))
	for i, category := range entry.Categories {
		categories[i] = category.Term
	}
	primaryCategory := entry.PrimaryCategory.Term
	if primaryCategory == "" && len(categories) > 0 {
		primaryCategory = categories[0]
	}

	links := make([]Link, len(entry.Links))
	var pdfURL string
	for i, link := range entry.Links {
		links[i] = Link{
			Href:        link.Href,
			Title:       link.Title,
			Rel:         link.Rel,
			ContentType: link.Type,
		}
		if link.Title == "pdf" || (link.Rel == "related" && link.Type == "application/pdf") {
			pdfURL = link.Href
		}
	}

	entryID := entry.ID
	if _, after, ok := strings.Cut(entryID, "arxiv.org/abs/"); ok {
		entryID = after
	}

	return Result{
		EntryID:         entryID,
		Updated:         updated,
		Published:       published,
		Title:           strings.Join(strings.Fields(entry.Title), " "),
		Authors:         authors,
		Summary:         strings.Join(strings.Fields(entry.Summary), " "),
		Comment:         strings.TrimSpace(entry.Comment),
		JournalRef:      strings.TrimSpace(entry.JournalRef),
		DOI:             strings.TrimSpace(entry.DOI),
		PrimaryCategory: primaryCategory,
		Categories:      categories,
		Links:           links,
		PdfURL:          pdfURL,
	}
}
