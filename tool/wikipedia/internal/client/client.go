//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

// Package client provides a MediaWiki API client.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
)

// Client represents a Wikipedia API client.
type Client struct {
	baseURL    string
	userAgent  string
	httpClient *http.Client
}

// New creates a new Wikipedia API client.
func New(baseURL, userAgent string, httpClient *http.Client) *Client {
	return &Client{
		baseURL:    baseURL,
		userAgent:  userAgent,
		httpClient: httpClient,
	}
}

// SearchResponse represents the Wikipedia API search response.
type SearchResponse struct {
	Query struct {
		SearchInfo struct {
			TotalHits int `json:"totalhits"`
		} `json:"searchinfo"`
		Search []SearchResult `json:"search"`
	} `json:"query"`
}

// SearchResult represents a single search result.
type SearchResult struct {
	Title   string `json:"title"`
	PageID  int    `json:"pageid"`
	Snippet string `json:"snippet"` // HTML
}

// PageContentResponse represents the response from the extracts API.
type PageContentResponse struct {
	Query struct {
		Pages map[string]PageContent `json:"pages"`
	} `json:"query"`
}

// PageContent represents a Wikipedia page's content.
type PageContent struct {
	PageID  int     `json:"pageid"`
	Title   string  `json:"title"`
	Extract string  `json:"extract"`
	FullURL string  `json:"fullurl"`
	Missing *string `json:"missing,omitempty"`
}

// Search performs a full text search returning at most limit hits.
func (c *Client) Search(ctx context.Context, query string, limit int) (*SearchResponse, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("query cannot be empty")
	}
	if limit <= 0 {
		limit = 1
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("list", "search")
	params.Set("srsearch", query)
	params.Set("format", "json")
	params.Set("srlimit", strconv.Itoa(limit))
	params.Set("srprop", "snippet")

	var response SearchResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}
	return &response, nil
}

// GetPageSummary retrieves the plain text introduction of a page.
func (c *Client) GetPageSummary(ctx context.Context, title string) (*PageContent, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("title cannot be empty")
	}
	params := url.Values{}
	params.Set("action", "query")
	params.Set("prop", "extracts|info")
	params.Set("titles", title)
	params.Set("format", "json")
	params.Set("explaintext", "1")
	params.Set("exintro", "1")
	params.Set("inprop", "url")
	params.Set("redirects", "1")

	var response PageContentResponse
	if err := c.get(ctx, params, &response); err != nil {
		return nil, err
	}
	for _, page := range response.Query.Pages {
		if page.Missing != nil {
			continue
		}
		p := page
		return &p, nil
	}
	return nil, fmt.Errorf("page %q not found", title)
}

func (c *Client) get(ctx context.Context, params url.Values, out any) error {
	reqURL := fmt.Sprintf("%s?%s", c.baseURL, params.Encode())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to perform request: %w", err)
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("API returned status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("failed to parse response: %w", err)
	}
	return nil
}
