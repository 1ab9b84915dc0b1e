// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package jira

import "context"

// SearchRequest is one page of a JQL search.
type SearchRequest struct {
	JQL        string `json:"jql"`
	StartAt    int    `json:"startAt"`
	MaxResults int    `json:"maxResults"`

	// Fields restricts the fields returned per issue. JIRA accepts
	// negated entries such as "-description" to exclude heavy fields.
	Fields []string `json:"fields,omitempty"`
}

// SearchResult is one page of search results.
type SearchResult struct {
	StartAt    int     `json:"startAt"`
	MaxResults int     `json:"maxResults"`
	Total      int     `json:"total"`
	Issues     []Issue `json:"issues"`
}

// Search runs one page of a JQL query. The POST form of the endpoint
// avoids URL length limits on long queries.
func (client *Client) Search(ctx context.Context, request SearchRequest) (*SearchResult, error) {
	var result SearchResult
	if err := client.post(ctx, "/search", request, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
