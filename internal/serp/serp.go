// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package serp queries the SerpAPI Google endpoint and returns ranked
// organic results. Provider order is significant and preserved: the ranks
// assigned here flow unchanged into the audit trail.
package serp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pdiddy/clout-engine/internal/httputil"
	"github.com/pdiddy/clout-engine/pkg/types"
)

// searchURL is the SerpAPI endpoint. Package-level var for test substitution.
var searchURL = "https://serpapi.com/search"

// ErrorKind classifies a search failure.
type ErrorKind string

const (
	KindQuotaExceeded ErrorKind = "quota_exceeded"
	KindNetwork       ErrorKind = "network"
	KindInvalidKey    ErrorKind = "invalid_key"
)

// SearchError reports why a query produced no result set. Always fatal for
// the seed URL being researched: without results no context can be built.
type SearchError struct {
	Query string
	Kind  ErrorKind
	Err   error
}

func (e *SearchError) Error() string {
	return fmt.Sprintf("searching %q: %s: %v", e.Query, e.Kind, e.Err)
}

func (e *SearchError) Unwrap() error { return e.Err }

// Searcher returns up to topN ranked results for a query.
type Searcher interface {
	Search(ctx context.Context, query string, topN int) ([]types.SearchResult, error)
}

// Client is the production Searcher backed by SerpAPI.
type Client struct {
	client *http.Client
	cfg    types.SearchConfig
}

// NewClient builds a SerpAPI client from cfg.
func NewClient(cfg types.SearchConfig) *Client {
	return &Client{client: httputil.NewClient(cfg.HTTPConfig), cfg: cfg}
}

// organicResult is one entry of SerpAPI's organic_results array.
type organicResult struct {
	Position int    `json:"position"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
}

// searchResponse is the subset of the SerpAPI response this client reads.
type searchResponse struct {
	OrganicResults []organicResult `json:"organic_results"`
	Error          string          `json:"error"`
}

// Search runs the query and returns at most topN organic results in provider
// order, with 1-based ranks. Results whose link is not an absolute http(s)
// URL are dropped without consuming a rank.
func (c *Client) Search(ctx context.Context, query string, topN int) ([]types.SearchResult, error) {
	endpoint, err := url.Parse(searchURL)
	if err != nil {
		return nil, &SearchError{Query: query, Kind: KindNetwork, Err: err}
	}
	q := endpoint.Query()
	q.Set("q", query)
	q.Set("api_key", c.cfg.APIKey)
	q.Set("num", fmt.Sprintf("%d", topN))
	endpoint.RawQuery = q.Encode()

	req, err := httputil.NewGet(ctx, endpoint.String(), c.cfg.HTTPConfig)
	if err != nil {
		return nil, &SearchError{Query: query, Kind: KindNetwork, Err: err}
	}

	resp, err := httputil.DoWithRetry(ctx, c.client, req, 0)
	if err != nil {
		return nil, &SearchError{Query: query, Kind: KindNetwork, Err: err}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
	case http.StatusUnauthorized, http.StatusForbidden:
		return nil, &SearchError{Query: query, Kind: KindInvalidKey,
			Err: fmt.Errorf("provider returned HTTP %d", resp.StatusCode)}
	case http.StatusTooManyRequests:
		return nil, &SearchError{Query: query, Kind: KindQuotaExceeded,
			Err: fmt.Errorf("provider rate limit not lifted after retries")}
	default:
		return nil, &SearchError{Query: query, Kind: KindNetwork,
			Err: fmt.Errorf("provider returned HTTP %d", resp.StatusCode)}
	}

	var body searchResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, &SearchError{Query: query, Kind: KindNetwork, Err: fmt.Errorf("decoding response: %w", err)}
	}
	if body.Error != "" {
		return nil, &SearchError{Query: query, Kind: KindNetwork, Err: fmt.Errorf("provider error: %s", body.Error)}
	}

	var results []types.SearchResult
	for _, r := range body.OrganicResults {
		if len(results) >= topN {
			break
		}
		if !validLink(r.Link) {
			continue
		}
		results = append(results, types.SearchResult{
			Query:   query,
			Link:    r.Link,
			Snippet: r.Snippet,
			Rank:    len(results) + 1,
		})
	}
	return results, nil
}

// validLink reports whether link is an absolute http or https URL.
func validLink(link string) bool {
	u, err := url.Parse(link)
	if err != nil {
		return false
	}
	return (u.Scheme == "http" || u.Scheme == "https") && u.Host != ""
}
