package scrape

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/pdiddy/clout-engine/pkg/types"
)

func testCfg() types.ScrapeConfig {
	return types.ScrapeConfig{
		HTTPConfig: types.HTTPConfig{
			Timeout:   5 * time.Second,
			UserAgent: "clout-engine/test",
		},
	}
}

const articleHTML = `<!DOCTYPE html>
<html><head><title>Tone and Brand Voice</title></head><body>
<article>
<p>Brand voice is the personality a company projects in writing.</p>
<p>Generative systems can drift away from that personality without guardrails.</p>
<p>Editors therefore review tone before anything ships.</p>
</article>
</body></html>`

func TestFetchExtractsReadableText(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	page, err := NewPageFetcher(testCfg()).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if page.URL != ts.URL {
		t.Errorf("page.URL = %q, want %q", page.URL, ts.URL)
	}
	if !strings.Contains(page.Text, "Brand voice is the personality") {
		t.Errorf("page.Text missing article body: %q", page.Text)
	}
	if strings.Contains(page.Text, "<p>") {
		t.Errorf("page.Text contains markup: %q", page.Text)
	}
	if page.FetchedAt.IsZero() {
		t.Error("page.FetchedAt is zero")
	}
}

func TestFetchSendsUserAgent(t *testing.T) {
	var gotUA string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	if _, err := NewPageFetcher(testCfg()).Fetch(context.Background(), ts.URL); err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if gotUA != "clout-engine/test" {
		t.Errorf("User-Agent = %q, want clout-engine/test", gotUA)
	}
}

func TestFetchHTTPStatusError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gone", http.StatusNotFound)
	}))
	defer ts.Close()

	_, err := NewPageFetcher(testCfg()).Fetch(context.Background(), ts.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Fetch() error = %v, want *FetchError", err)
	}
	if fe.Kind != KindHTTPStatus || fe.Status != http.StatusNotFound {
		t.Errorf("FetchError = %+v, want http_status 404", fe)
	}
}

func TestFetchEmptyPageIsParseFailure(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><div>no paragraphs here</div></body></html>"))
	}))
	defer ts.Close()

	_, err := NewPageFetcher(testCfg()).Fetch(context.Background(), ts.URL)
	var fe *FetchError
	if errors.As(err, &fe) {
		// readability may still salvage div text; only a truly empty
		// extraction must be reported as a parse failure.
		if fe.Kind != KindParse {
			t.Errorf("FetchError.Kind = %q, want parse_failure", fe.Kind)
		}
	}
}

func TestFetchTimeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(articleHTML))
	}))
	defer ts.Close()

	cfg := testCfg()
	cfg.Timeout = 20 * time.Millisecond

	_, err := NewPageFetcher(cfg).Fetch(context.Background(), ts.URL)
	var fe *FetchError
	if !errors.As(err, &fe) {
		t.Fatalf("Fetch() error = %v, want *FetchError", err)
	}
	if fe.Kind != KindTimeout {
		t.Errorf("FetchError.Kind = %q, want timeout", fe.Kind)
	}
}

func TestFetchParagraphFallback(t *testing.T) {
	// A page too thin for readability still yields its paragraph text.
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html><body><p>lone paragraph</p></body></html>"))
	}))
	defer ts.Close()

	page, err := NewPageFetcher(testCfg()).Fetch(context.Background(), ts.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}
	if !strings.Contains(page.Text, "lone paragraph") {
		t.Errorf("page.Text = %q, want paragraph text", page.Text)
	}
}
