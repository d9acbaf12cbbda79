// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package research turns one seed URL into a ContextBundle: seed text,
// a derived search query, ranked competitor pages, and extracted entities.
// The audit row listing every source consulted is emitted here, before
// draft generation gets a chance to fail.
package research

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/clout-engine/internal/entities"
	"github.com/pdiddy/clout-engine/internal/record"
	"github.com/pdiddy/clout-engine/internal/scrape"
	"github.com/pdiddy/clout-engine/internal/serp"
	"github.com/pdiddy/clout-engine/pkg/types"
)

// Stage names used in failures and logs.
const (
	StageSeedScrape = "seed_scrape"
	StageSearch     = "search"
	StageAudit      = "audit_record"
)

const (
	defaultMaxResults = 5

	// queryFallbackRunes is how much raw seed text seeds the query when no
	// entities were extracted.
	queryFallbackRunes = 80

	queryNouns    = 3
	queryKeywords = 2
)

// Failure is a fatal research failure for one seed URL: without the stage
// that failed, no context can be built.
type Failure struct {
	Stage   string
	SeedURL string
	Err     error
}

func (f *Failure) Error() string {
	return fmt.Sprintf("research %s failed for %s: %v", f.Stage, f.SeedURL, f.Err)
}

func (f *Failure) Unwrap() error { return f.Err }

// Builder assembles ContextBundles from live collaborators.
type Builder struct {
	fetcher   scrape.Fetcher
	searcher  serp.Searcher
	recorder  record.Recorder
	scrapeCfg types.ScrapeConfig
	searchCfg types.SearchConfig
	log       *zap.Logger
}

// NewBuilder wires the research collaborators together.
func NewBuilder(fetcher scrape.Fetcher, searcher serp.Searcher, recorder record.Recorder,
	scrapeCfg types.ScrapeConfig, searchCfg types.SearchConfig, log *zap.Logger) *Builder {
	if log == nil {
		log = zap.NewNop()
	}
	return &Builder{
		fetcher:   fetcher,
		searcher:  searcher,
		recorder:  recorder,
		scrapeCfg: scrapeCfg,
		searchCfg: searchCfg,
		log:       log,
	}
}

// Build runs the research sequence for seedURL and returns its bundle.
// Seed scrape and search failures are fatal and returned as *Failure; a
// failed competitor scrape is logged and that result simply contributes no
// text, while staying in SearchResults for the audit trail. The audit row
// reflects what was attempted, not only what succeeded.
func (b *Builder) Build(ctx context.Context, seedURL string, w io.Writer) (*types.ContextBundle, error) {
	fmt.Fprintf(w, "scraping seed: %s\n", seedURL)
	seed, err := b.fetcher.Fetch(ctx, seedURL)
	if err != nil {
		return nil, &Failure{Stage: StageSeedScrape, SeedURL: seedURL, Err: err}
	}

	query := DeriveQuery(seed.Text)
	fmt.Fprintf(w, "searching: %q\n", query)

	topN := b.searchCfg.MaxResults
	if topN <= 0 {
		topN = defaultMaxResults
	}
	results, err := b.searcher.Search(ctx, query, topN)
	if err != nil {
		return nil, &Failure{Stage: StageSearch, SeedURL: seedURL, Err: err}
	}

	competitors := b.scrapeCompetitors(ctx, results, w)

	// Entities come from the seed text and every successfully scraped
	// competitor text, concatenated in rank order for determinism.
	var corpus strings.Builder
	corpus.WriteString(seed.Text)
	for _, r := range results {
		if text, ok := competitors[r.Link]; ok {
			corpus.WriteString("\n\n")
			corpus.WriteString(text)
		}
	}

	bundle := &types.ContextBundle{
		SeedURL:         seedURL,
		SeedText:        seed.Text,
		Query:           query,
		SearchResults:   results,
		CompetitorTexts: competitors,
		Entities:        entities.Extract(corpus.String()),
	}

	audit := types.AuditRow{SeedURL: seedURL, Query: query, Results: results}
	if err := b.recorder.RecordAudit(audit); err != nil {
		return nil, &Failure{Stage: StageAudit, SeedURL: seedURL, Err: err}
	}

	return bundle, nil
}

// scrapeCompetitors fetches each result link with a politeness delay,
// collecting successes. Failures are logged, never raised.
func (b *Builder) scrapeCompetitors(ctx context.Context, results []types.SearchResult, w io.Writer) map[string]string {
	competitors := make(map[string]string)
	for i, r := range results {
		if i > 0 && b.scrapeCfg.Delay > 0 {
			select {
			case <-ctx.Done():
				return competitors
			case <-time.After(b.scrapeCfg.Delay):
			}
		}

		page, err := b.fetcher.Fetch(ctx, r.Link)
		if err != nil {
			b.log.Warn("competitor scrape failed",
				zap.String("link", r.Link),
				zap.Int("rank", r.Rank),
				zap.Error(err))
			fmt.Fprintf(w, "warning: skipping %s: %v\n", r.Link, err)
			continue
		}
		competitors[r.Link] = page.Text
	}
	return competitors
}

// DeriveQuery builds the search query from seed text: the top proper nouns
// by in-text frequency, then top keywords not already covered, falling back
// to a raw text prefix when nothing was extracted. Deterministic for
// identical input so research stays reproducible.
func DeriveQuery(seedText string) string {
	nouns := entities.ProperNouns(seedText)
	sort.SliceStable(nouns, func(i, j int) bool {
		return strings.Count(seedText, nouns[i]) > strings.Count(seedText, nouns[j])
	})
	if len(nouns) > queryNouns {
		nouns = nouns[:queryNouns]
	}

	terms := append([]string(nil), nouns...)
	covered := strings.ToLower(strings.Join(nouns, " "))
	added := 0
	for _, k := range entities.Keywords(seedText) {
		if added >= queryKeywords {
			break
		}
		if strings.Contains(covered, k.Term) {
			continue
		}
		terms = append(terms, k.Term)
		added++
	}

	query := strings.Join(terms, " ")
	if query != "" {
		return query
	}

	// No entities at all: fall back to the leading runes of the text.
	runes := []rune(strings.Join(strings.Fields(seedText), " "))
	if len(runes) > queryFallbackRunes {
		runes = runes[:queryFallbackRunes]
	}
	return string(runes)
}
