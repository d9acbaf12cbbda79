// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the clout-engine pipeline.
package types

import "time"

// ScrapedPage holds the readable text extracted from one fetched URL. Pages
// are consumed during context assembly and never persisted verbatim.
type ScrapedPage struct {
	// URL is the page address the text was fetched from.
	URL string `json:"url" yaml:"url"`

	// Text is the readable body text with markup stripped.
	Text string `json:"text" yaml:"text"`

	// FetchedAt is when the fetch completed.
	FetchedAt time.Time `json:"fetched_at" yaml:"fetched_at"`
}

// SearchResult is one organic result returned by the search provider for a
// derived query. Rank order is provider order and is preserved end to end,
// including into the audit trail.
type SearchResult struct {
	// Query is the derived query that produced this result.
	Query string `json:"query" yaml:"query"`

	// Link is the result URL.
	Link string `json:"link" yaml:"link"`

	// Snippet is the provider's result summary, possibly empty.
	Snippet string `json:"snippet,omitempty" yaml:"snippet,omitempty"`

	// Rank is the 1-based position in the provider's ordering.
	Rank int `json:"rank" yaml:"rank"`
}

// Keyword is a candidate term with its raw frequency across the research
// corpus. Keywords are ordered by frequency, ties broken by first occurrence.
type Keyword struct {
	// Term is the keyword text, lowercased.
	Term string `json:"term" yaml:"term"`

	// Count is the raw occurrence count.
	Count int `json:"count" yaml:"count"`
}

// Entities holds the text-analysis output for a research corpus.
type Entities struct {
	// Emails lists deduplicated email addresses, sorted.
	Emails []string `json:"emails" yaml:"emails"`

	// ProperNouns lists deduplicated capitalized-name candidates, sorted.
	// The heuristic accepts false positives; it is not grammatical parsing.
	ProperNouns []string `json:"proper_nouns" yaml:"proper_nouns"`

	// Keywords lists frequency-ranked candidate terms in stable order.
	Keywords []Keyword `json:"keywords" yaml:"keywords"`
}

// ContextBundle is the aggregated research artifact for one seed URL. It is
// built once, feeds up to three draft generations, and is then discarded;
// only its SearchResults survive, as the audit row.
//
// Invariant: every key of CompetitorTexts also appears in SearchResults.
type ContextBundle struct {
	// SeedURL is the input page the research is anchored on.
	SeedURL string `json:"seed_url" yaml:"seed_url"`

	// SeedText is the readable text scraped from the seed page.
	SeedText string `json:"seed_text" yaml:"seed_text"`

	// Query is the search query derived from the seed text. Deterministic
	// for identical seed text.
	Query string `json:"query" yaml:"query"`

	// SearchResults lists every result the provider returned, capped to the
	// configured top-N, in provider rank order. Entries stay here even when
	// their competitor scrape failed.
	SearchResults []SearchResult `json:"search_results" yaml:"search_results"`

	// CompetitorTexts maps result link to successfully scraped text.
	CompetitorTexts map[string]string `json:"competitor_texts" yaml:"competitor_texts"`

	// Entities is derived from SeedText and all CompetitorTexts combined.
	Entities Entities `json:"entities" yaml:"entities"`
}

// Variant identifies one of the three fixed rhetorical framings a draft can
// take. The set is closed; adding a variant is a code change.
type Variant string

const (
	VariantThoughtLeadership   Variant = "thought-leadership"
	VariantStoryNarrative      Variant = "story-narrative"
	VariantActionableFramework Variant = "actionable-framework"
)

// Variants returns the three draft variants in their fixed generation and
// recording order.
func Variants() []Variant {
	return []Variant{
		VariantThoughtLeadership,
		VariantStoryNarrative,
		VariantActionableFramework,
	}
}

// Label returns the human-readable variant name used in output rows.
func (v Variant) Label() string {
	switch v {
	case VariantThoughtLeadership:
		return "Thought Leadership"
	case VariantStoryNarrative:
		return "Story Narrative"
	case VariantActionableFramework:
		return "Actionable / Framework"
	}
	return string(v)
}

// Draft is one generated long-form narrative. Immutable once produced; it is
// either persisted or discarded on failure, never retried across runs.
type Draft struct {
	// SeedURL is the seed the draft was generated for.
	SeedURL string `json:"seed_url" yaml:"seed_url"`

	// Variant is the rhetorical framing used.
	Variant Variant `json:"variant" yaml:"variant"`

	// Text is the exact concatenation, in emission order, of every fragment
	// the model streamed.
	Text string `json:"text" yaml:"text"`

	// Headline is the parsed HEADLINE: line, best effort.
	Headline string `json:"headline" yaml:"headline"`

	// Body is the parsed POST: section, or the whole text when the model
	// ignored the output structure.
	Body string `json:"body" yaml:"body"`

	// GeneratedAt is when the stream completed.
	GeneratedAt time.Time `json:"generated_at" yaml:"generated_at"`
}

// AuditRow records exactly which research sources were consulted for one
// seed URL. Its lifecycle is independent of drafts so research provenance
// survives generation failures.
type AuditRow struct {
	// SeedURL is the seed the research was run for.
	SeedURL string `json:"seed_url" yaml:"seed_url"`

	// Query is the derived search query.
	Query string `json:"query" yaml:"query"`

	// Results lists every search result that was attempted, in rank order,
	// regardless of which competitor scrapes succeeded.
	Results []SearchResult `json:"results" yaml:"results"`
}
