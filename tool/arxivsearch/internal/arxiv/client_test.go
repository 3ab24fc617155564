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
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entryXML(i int) string {
	return fmt.Sprintf(`<entry><id>http://arxiv.org/abs/2101.%05dv2</id><title>Paper %d</title>
<published>2021-01-01T00:00:00Z</published><category term="physics.optics"/></entry>`, i, i)
}

func TestSearch_Paginates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start, _ := strconv.Atoi(r.URL.Query().Get("start"))
		size, _ := strconv.Atoi(r.URL.Query().Get("max_results"))
		body := `<feed xmlns="http://www.w3.org/2005/Atom" xmlns:opensearch="http://a9.com/-/spec/opensearch/1.1/"><opensearch:totalResults>5</opensearch:totalResults>`
		for i := start; i < start+size && i < 5; i++ {
			body += entryXML(i)
		}
		_, _ = w.Write([]byte(body + `</feed>`))
	}))
	defer srv.Close()

	c := NewClient(ClientConfig{BaseURL: srv.URL, PageSize: 2})
	results, err := c.Search(context.Background(), Search{Query: "all:optics", MaxResults: 4})
	require.NoError(t, err)
	require.Len(t, results, 4)
	assert.Equal(t, "Paper 3", results[3].Title)
	assert.Equal(t, "2101.00003v2", results[3].EntryID)
	assert.Equal(t, "2101.00003", results[3].GetShortID())
	assert.Equal(t, "physics.optics", results[0].PrimaryCategory)
}

func TestBuildQueryURL(t *testing.T) {
	c := NewClient(ClientConfig{BaseURL: "http://x/api"})
	u := c.buildQueryURL(Search{Query: "all:light", SortBy: SortBySubmittedDate, SortOrder: SortOrderDescending}, 0, 3)
	assert.Equal(t, "http://x/api?max_results=3&search_query=all%3Alight&sortBy=submittedDate&sortOrder=descending&start=0", u)
}

func TestGetShortID(t *testing.T) {
	assert.Equal(t, "1706.03762", Result{EntryID: "1706.03762v7"}.GetShortID())
	assert.Equal(t, "hep-th/9901001", Result{EntryID: "hep-th/9901001"}.GetShortID())
}
