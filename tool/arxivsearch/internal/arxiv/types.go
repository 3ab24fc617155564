//
// Tencent is pleased to support the open source community by making trpc-science-agent available.
//
// Copyright (C) 2025 Tencent.  All rights reserved.
//
// trpc-science-agent is licensed under the Apache License Version 2.0.
//
//

package arxiv

import (
	"strings"
	"time"
)

// ClientConfig configures the client.
type ClientConfig struct {
	// BaseURL overrides the export API endpoint.
	BaseURL string
	// PageSize is max_results per request.
	PageSize int
	// Delay is the minimum gap between two requests.
	Delay time.Duration
	// NumRetries is the number of attempts per page.
	NumRetries int
	// HTTPClient is used for requests when set.
	HTTPClient HTTPDoer
}

// SortCriterion is the sortBy query parameter.
type SortCriterion string

// SortOrder is the sortOrder query parameter.
type SortOrder string

// Sort values accepted by the API.
const (
	SortByRelevance       SortCriterion = "relevance"
	SortByLastUpdatedDate SortCriterion = "lastUpdatedDate"
	SortBySubmittedDate   SortCriterion = "submittedDate"

	SortOrderAscending  SortOrder = "ascending"
	SortOrderDescending SortOrder = "descending"
)

// Search is a query against the API.
type Search struct {
	Query      string
	IDList     []string
	MaxResults int
	SortBy     SortCriterion
	SortOrder  SortOrder
}

// Author is a paper author.
type Author struct {
	Name string
}

// Link is an entry link.
type Link struct {
	Href        string
	Title       string
	Rel         string
	ContentType string
}

// Result is one paper.
type Result struct {
	EntryID         string
	Updated         time.Time
	Published       time.Time
	Title           string
	Authors         []Author
	Summary         string
	Comment         string
	JournalRef      string
	DOI             string
	PrimaryCategory string
	Categories      []string
	Links           []Link
	PdfURL          string
}

// GetShortID returns the id without version suffix, e.g. "2107.05580".
func (r Result) GetShortID() string {
	id := r.EntryID
	if i := strings.LastIndex(id, "v"); i > 0 && i < len(id)-1 {
		allDigits := true
		for _, c := range id[i+1:] {
			if c < '0' || c > '9' {
				allDigits = false
				break
			}
		}
		if allDigits {
			return id[:i]
		}
	}
	return id
}
