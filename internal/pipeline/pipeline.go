// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline orchestrates the batch run: research once per seed URL,
// three draft variants per successful research, persistence after all
// variant attempts. One bad seed never aborts the batch; one bad variant
// never blocks its siblings.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/pdiddy/clout-engine/internal/model"
	"github.com/pdiddy/clout-engine/internal/record"
	"github.com/pdiddy/clout-engine/internal/research"
	"github.com/pdiddy/clout-engine/pkg/types"
)

// ContextBuilder is the research collaborator.
type ContextBuilder interface {
	Build(ctx context.Context, seedURL string, w io.Writer) (*types.ContextBundle, error)
}

// DraftGenerator is the generation collaborator.
type DraftGenerator interface {
	Generate(ctx context.Context, bundle *types.ContextBundle, variant types.Variant, sink model.FragmentSink) (*types.Draft, error)
}

// VariantFailure records one skipped variant and why.
type VariantFailure struct {
	Variant types.Variant
	Err     error
}

// SeedSummary is the per-seed outcome surfaced to the operator.
type SeedSummary struct {
	SeedURL string

	// Sources is how many research sources were consulted (attempted),
	// equal to the audit row's result count.
	Sources int

	// Succeeded lists variants persisted, in fixed variant order.
	Succeeded []types.Variant

	// Skipped lists variants that failed, in fixed variant order.
	Skipped []VariantFailure

	// ResearchErr is set when research failed fatally; no variants were
	// attempted for this seed.
	ResearchErr error
}

// FatallySkipped reports whether the seed produced nothing at all.
func (s SeedSummary) FatallySkipped() bool { return s.ResearchErr != nil }

// Complete reports whether every variant succeeded.
func (s SeedSummary) Complete() bool {
	return s.ResearchErr == nil && len(s.Skipped) == 0
}

// BatchResult holds the outcome of one full run.
type BatchResult struct {
	Seeds []SeedSummary
}

// Counts returns how many seeds were fully processed, partially processed,
// and fatally skipped.
func (r BatchResult) Counts() (full, partial, skipped int) {
	for _, s := range r.Seeds {
		switch {
		case s.FatallySkipped():
			skipped++
		case s.Complete():
			full++
		default:
			partial++
		}
	}
	return full, partial, skipped
}

// HasFailures reports whether anything in the batch failed.
func (r BatchResult) HasFailures() bool {
	full, _, _ := r.Counts()
	return full != len(r.Seeds)
}

// Deps wires all collaborators into the orchestrator.
type Deps struct {
	Builder   ContextBuilder
	Generator DraftGenerator
	Recorder  record.Recorder
	Log       *zap.Logger

	// Out receives operator progress and the live token stream.
	Out io.Writer
}

// Orchestrator runs the batch.
type Orchestrator struct {
	builder   ContextBuilder
	generator DraftGenerator
	recorder  record.Recorder
	log       *zap.Logger
	out       io.Writer
}

// New constructs the orchestrator.
func New(deps Deps) *Orchestrator {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}
	out := deps.Out
	if out == nil {
		out = io.Discard
	}
	return &Orchestrator{
		builder:   deps.Builder,
		generator: deps.Generator,
		recorder:  deps.Recorder,
		log:       log,
		out:       out,
	}
}

// Run processes seeds sequentially in list order; the audit sheet's row
// order is reproducible because of it. The run ends after the last seed;
// nothing is retried across the batch.
func (o *Orchestrator) Run(ctx context.Context, seeds []string) BatchResult {
	var result BatchResult
	for _, seed := range seeds {
		result.Seeds = append(result.Seeds, o.runSeed(ctx, seed))
	}
	return result
}

// runSeed drives one seed URL through research, the three variants in
// fixed order, and persistence.
func (o *Orchestrator) runSeed(ctx context.Context, seedURL string) SeedSummary {
	summary := SeedSummary{SeedURL: seedURL}
	fmt.Fprintf(o.out, "\n=== %s ===\n", seedURL)

	bundle, err := o.builder.Build(ctx, seedURL, o.out)
	if err != nil {
		o.log.Error("research failed, skipping seed",
			zap.String("seed_url", seedURL),
			zap.String("stage", researchFailureStage(err)),
			zap.Error(err))
		fmt.Fprintf(o.out, "research failed: %v\n", err)
		summary.ResearchErr = err
		return summary
	}
	summary.Sources = len(bundle.SearchResults)

	// All three variants are attempted regardless of individual failures;
	// successful drafts are persisted only after the attempts finish.
	var drafts []*types.Draft
	for _, variant := range types.Variants() {
		fmt.Fprintf(o.out, "\n--- generating: %s ---\n", variant.Label())
		d, err := o.generator.Generate(ctx, bundle, variant, func(fragment string) {
			fmt.Fprint(o.out, fragment)
		})
		if err != nil {
			o.log.Warn("variant generation failed",
				zap.String("seed_url", seedURL),
				zap.String("variant", string(variant)),
				zap.Error(err))
			fmt.Fprintf(o.out, "\nvariant %s failed: %v\n", variant.Label(), err)
			summary.Skipped = append(summary.Skipped, VariantFailure{Variant: variant, Err: err})
			continue
		}
		fmt.Fprintln(o.out)
		drafts = append(drafts, d)
	}

	for _, d := range drafts {
		if err := o.recorder.RecordDraft(*d, bundle.Entities); err != nil {
			o.log.Error("persisting draft failed",
				zap.String("seed_url", seedURL),
				zap.String("variant", string(d.Variant)),
				zap.Error(err))
			summary.Skipped = append(summary.Skipped, VariantFailure{Variant: d.Variant, Err: err})
			continue
		}
		summary.Succeeded = append(summary.Succeeded, d.Variant)
	}

	return summary
}

// WriteSummary prints the per-seed and batch summaries.
func (r BatchResult) WriteSummary(w io.Writer) {
	for _, s := range r.Seeds {
		switch {
		case s.FatallySkipped():
			fmt.Fprintf(w, "%s: skipped (%v)\n", s.SeedURL, s.ResearchErr)
		default:
			fmt.Fprintf(w, "%s: %d/%d variants, %d sources consulted\n",
				s.SeedURL, len(s.Succeeded), len(types.Variants()), s.Sources)
			for _, vf := range s.Skipped {
				fmt.Fprintf(w, "  skipped %s: %v\n", vf.Variant.Label(), vf.Err)
			}
		}
	}

	full, partial, skipped := r.Counts()
	fmt.Fprintf(w, "\n%d fully processed, %d partially processed, %d fatally skipped\n",
		full, partial, skipped)
}

// researchFailureStage extracts the failing stage for logs.
func researchFailureStage(err error) string {
	var f *research.Failure
	if errors.As(err, &f) {
		return f.Stage
	}
	return "unknown"
}
