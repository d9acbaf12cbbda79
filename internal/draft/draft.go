// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package draft generates one long-form narrative per variant from a
// research context bundle, streaming model output live while accumulating
// the final text. Variants are generated independently; a failure in one
// never blocks the others.
package draft

import (
	"context"
	"strings"
	"time"

	"github.com/pdiddy/clout-engine/internal/model"
	"github.com/pdiddy/clout-engine/pkg/types"
)

const (
	// defaultContextBudget is the hard cap on final prompt size in bytes.
	defaultContextBudget = 7000

	// seedExcerptBudget bounds how much seed text enters the prompt.
	seedExcerptBudget = 5000

	// competitorExcerptBudget bounds the combined competitor excerpts.
	competitorExcerptBudget = 7000

	headlineMarker = "HEADLINE:"
	bodyMarker     = "POST:"

	fallbackHeadline = "Draft"
)

// Generator turns context bundles into drafts through a model collaborator.
type Generator struct {
	gen model.Generator
	cfg types.ModelConfig

	// now is stubbed in tests for stable timestamps.
	now func() time.Time
}

// NewGenerator builds a draft generator over gen.
func NewGenerator(gen model.Generator, cfg types.ModelConfig) *Generator {
	return &Generator{gen: gen, cfg: cfg, now: time.Now}
}

// Generate produces exactly one draft (or one error) for the given variant.
// Fragments stream to sink as they arrive; Draft.Text is their exact
/// concatenation in emission order. No retry happens here: a failed variant
// is the caller's per-variant failure to record.
func (g *Generator) Generate(ctx context.Context, bundle *types.ContextBundle, variant types.Variant, sink model.FragmentSink) (*types.Draft, error) {
	prompt, err := buildPrompt(bundle, variant, g.cfg.ContextBudget)
	if err != nil {
		return nil, err
	}

	text, err := g.gen.Generate(ctx, prompt, sink)
	if err != nil {
		return nil, err
	}

	headline, body := parseOutput(text)
	return &types.Draft{
		SeedURL:     bundle.SeedURL,
		Variant:     variant,
		Text:        text,
		Headline:    headline,
		Body:        body,
		GeneratedAt: g.now(),
	}, nil
}

// parseOutput splits the model output into headline and body on the POST:
// marker, falling back to the whole text as body when the model ignored the
// structure.
func parseOutput(text string) (headline, body string) {
	idx := strings.Index(text, bodyMarker)
	if idx < 0 {
		return fallbackHeadline, strings.TrimSpace(text)
	}

	head := text[:idx]
	head = strings.ReplaceAll(head, headlineMarker, "")
	headline = strings.TrimSpace(strings.Trim(strings.TrimSpace(head), "#"))
	if headline == "" {
		headline = fallbackHeadline
	}

	body = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(text[idx+len(bodyMarker):]), "###"))
	return headline, body
}
