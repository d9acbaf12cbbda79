// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package record persists pipeline output to two append-only tabular sinks:
// a drafts sheet with one row per generated draft and a serp_debug sheet
// with one row per search result attempted, so research provenance survives
// draft failures. Two backends exist: an xlsx workbook and a SQLite file.
package record

import (
	"fmt"
	"strings"
	"time"

	"github.com/pdiddy/clout-engine/pkg/types"
)

const (
	draftsSheet = "drafts"
	serpSheet   = "serp_debug"

	timeFormat = time.RFC3339
)

// draftsHeader is the column layout of the drafts sheet.
var draftsHeader = []string{
	"seed_url", "variant", "headline", "text", "generated_at", "emails", "proper_nouns",
}

// serpHeader is the column layout of the serp_debug sheet.
var serpHeader = []string{"seed_url", "query", "rank", "link", "snippet"}

// Recorder appends pipeline output rows. Implementations are append-only
// and safe under the pipeline's strictly sequential access; a concurrent
// pipeline would need to serialize writes in front of one.
type Recorder interface {
	// RecordAudit appends one serp_debug row per search result in row,
	// preserving rank order.
	RecordAudit(row types.AuditRow) error

	// RecordDraft appends one drafts row. The entity summary travels with
	// the row the way the original sheet carried it.
	RecordDraft(d types.Draft, ent types.Entities) error

	Close() error
}

// New builds the Recorder selected by cfg.Kind.
func New(cfg types.OutputConfig) (Recorder, error) {
	switch cfg.Kind {
	case types.OutputXLSX, "":
		return NewWorkbook(cfg.Path)
	case types.OutputSQLite:
		return NewSQLite(cfg.Path)
	}
	return nil, fmt.Errorf("unknown output kind %q", cfg.Kind)
}

// draftRow flattens a draft and its entity summary into sheet columns.
func draftRow(d types.Draft, ent types.Entities) []any {
	return []any{
		d.SeedURL,
		d.Variant.Label(),
		d.Headline,
		d.Text,
		d.GeneratedAt.Format(timeFormat),
		strings.Join(ent.Emails, ", "),
		strings.Join(ent.ProperNouns, ", "),
	}
}
