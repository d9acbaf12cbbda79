// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package scrape fetches a URL and reduces it to readable text. It prefers
// readability extraction and falls back to harvesting paragraph elements
// when a page defeats the readability heuristics.
package scrape

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	readability "github.com/go-shiori/go-readability"

	"github.com/pdiddy/clout-engine/internal/httputil"
	"github.com/pdiddy/clout-engine/pkg/types"
)

// maxBodyBytes bounds how much of a response body is read.
const maxBodyBytes = 4 << 20

// ErrorKind classifies a fetch failure.
type ErrorKind string

const (
	KindTimeout    ErrorKind = "timeout"
	KindHTTPStatus ErrorKind = "http_status"
	KindParse      ErrorKind = "parse_failure"
)

// FetchError reports why a URL could not be reduced to text. Whether it is
// fatal depends on the caller: fatal for a seed page, logged for a
// competitor page.
type FetchError struct {
	URL    string
	Kind   ErrorKind
	Status int
	Err    error
}

func (e *FetchError) Error() string {
	if e.Kind == KindHTTPStatus {
		return fmt.Sprintf("fetching %s: HTTP %d", e.URL, e.Status)
	}
	return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Kind, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetcher fetches a single URL and returns its readable text.
type Fetcher interface {
	Fetch(ctx context.Context, pageURL string) (*types.ScrapedPage, error)
}

// PageFetcher is the production Fetcher backed by net/http.
type PageFetcher struct {
	client *http.Client
	cfg    types.ScrapeConfig
}

// NewPageFetcher builds a fetcher with the configured timeout and User-Agent.
func NewPageFetcher(cfg types.ScrapeConfig) *PageFetcher {
	return &PageFetcher{client: httputil.NewClient(cfg.HTTPConfig), cfg: cfg}
}

// Fetch downloads pageURL and extracts its readable text. Failures are
// returned as *FetchError classified by kind.
func (f *PageFetcher) Fetch(ctx context.Context, pageURL string) (*types.ScrapedPage, error) {
	req, err := httputil.NewGet(ctx, pageURL, f.cfg.HTTPConfig)
	if err != nil {
		return nil, &FetchError{URL: pageURL, Kind: KindParse, Err: err}
	}

	resp, err := f.client.Do(req)
	if err != nil {
		kind := KindParse
		if isTimeout(err) {
			kind = KindTimeout
		}
		return nil, &FetchError{URL: pageURL, Kind: kind, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, &FetchError{URL: pageURL, Kind: KindHTTPStatus, Status: resp.StatusCode}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		kind := KindParse
		if isTimeout(err) {
			kind = KindTimeout
		}
		return nil, &FetchError{URL: pageURL, Kind: kind, Err: err}
	}

	text := extractText(body, pageURL)
	if text == "" {
		return nil, &FetchError{URL: pageURL, Kind: KindParse, Err: errors.New("no readable text")}
	}

	return &types.ScrapedPage{URL: pageURL, Text: text, FetchedAt: time.Now()}, nil
}

// extractText runs readability over the document and falls back to joining
// paragraph elements, the way the original sheet pipeline harvested <p> tags.
func extractText(body []byte, pageURL string) string {
	parsed, _ := url.Parse(pageURL)

	if article, err := readability.FromReader(bytes.NewReader(body), parsed); err == nil {
		if text := strings.TrimSpace(article.TextContent); text != "" {
			return text
		}
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return ""
	}

	var paras []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		if t := strings.TrimSpace(s.Text()); t != "" {
			paras = append(paras, t)
		}
	})
	return strings.Join(paras, "\n\n")
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var ne interface{ Timeout() bool }
	return errors.As(err, &ne) && ne.Timeout()
}
