package serp

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pdiddy/clout-engine/internal/httputil"
	"github.com/pdiddy/clout-engine/pkg/types"
)

func init() {
	httputil.RetryBaseDelay = 1 * time.Millisecond
}

func testCfg() types.SearchConfig {
	return types.SearchConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "clout-engine/test",
		},
		APIKey:     "test-key",
		MaxResults: 5,
	}
}

// withServer points the client at a test server for the duration of fn.
func withServer(t *testing.T, handler http.HandlerFunc, fn func(*Client)) {
	t.Helper()
	ts := httptest.NewServer(handler)
	defer ts.Close()

	orig := searchURL
	searchURL = ts.URL
	defer func() { searchURL = orig }()

	fn(NewClient(testCfg()))
}

const resultsJSON = `{
	"organic_results": [
		{"position": 1, "link": "https://a.example.com/one", "snippet": "first"},
		{"position": 2, "link": "not a url", "snippet": "bogus"},
		{"position": 3, "link": "https://b.example.com/two", "snippet": "second"},
		{"position": 4, "link": "https://c.example.com/three", "snippet": "third"}
	]
}`

func TestSearchPreservesProviderOrder(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("q") != "brand tone" {
			t.Errorf("q = %q, want %q", r.URL.Query().Get("q"), "brand tone")
		}
		if r.URL.Query().Get("api_key") != "test-key" {
			t.Errorf("api_key = %q, want test-key", r.URL.Query().Get("api_key"))
		}
		w.Write([]byte(resultsJSON))
	}, func(c *Client) {
		results, err := c.Search(context.Background(), "brand tone", 5)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		wantLinks := []string{
			"https://a.example.com/one",
			"https://b.example.com/two",
			"https://c.example.com/three",
		}
		if len(results) != len(wantLinks) {
			t.Fatalf("len(results) = %d, want %d", len(results), len(wantLinks))
		}
		for i, r := range results {
			if r.Link != wantLinks[i] {
				t.Errorf("results[%d].Link = %q, want %q", i, r.Link, wantLinks[i])
			}
			if r.Rank != i+1 {
				t.Errorf("results[%d].Rank = %d, want %d", i, r.Rank, i+1)
			}
			if r.Query != "brand tone" {
				t.Errorf("results[%d].Query = %q, want the query", i, r.Query)
			}
		}
	})
}

func TestSearchCapsToTopN(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(resultsJSON))
	}, func(c *Client) {
		results, err := c.Search(context.Background(), "q", 2)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 2 {
			t.Errorf("len(results) = %d, want 2", len(results))
		}
	})
}

func TestSearchInvalidKey(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}, func(c *Client) {
		_, err := c.Search(context.Background(), "q", 5)
		var se *SearchError
		if !errors.As(err, &se) {
			t.Fatalf("Search() error = %v, want *SearchError", err)
		}
		if se.Kind != KindInvalidKey {
			t.Errorf("SearchError.Kind = %q, want invalid_key", se.Kind)
		}
	})
}

func TestSearchQuotaExceeded(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
	}, func(c *Client) {
		_, err := c.Search(context.Background(), "q", 5)
		var se *SearchError
		if !errors.As(err, &se) {
			t.Fatalf("Search() error = %v, want *SearchError", err)
		}
		if se.Kind != KindQuotaExceeded {
			t.Errorf("SearchError.Kind = %q, want quota_exceeded", se.Kind)
		}
	})
}

func TestSearchProviderError(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"error": "Google hasn't returned any results"}`))
	}, func(c *Client) {
		_, err := c.Search(context.Background(), "q", 5)
		var se *SearchError
		if !errors.As(err, &se) {
			t.Fatalf("Search() error = %v, want *SearchError", err)
		}
		if se.Kind != KindNetwork {
			t.Errorf("SearchError.Kind = %q, want network", se.Kind)
		}
	})
}

func TestSearchEmptyResults(t *testing.T) {
	withServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"organic_results": []}`))
	}, func(c *Client) {
		results, err := c.Search(context.Background(), "q", 5)
		if err != nil {
			t.Fatalf("Search() error = %v", err)
		}
		if len(results) != 0 {
			t.Errorf("len(results) = %d, want 0", len(results))
		}
	})
}
