package record

import (
	"database/sql"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/clout-engine/pkg/types"
)

func sampleAudit() types.AuditRow {
	return types.AuditRow{
		SeedURL: "https://example.com/post1",
		Query:   "brand tone consistency",
		Results: []types.SearchResult{
			{Query: "brand tone consistency", Link: "https://a.example.com", Snippet: "first", Rank: 1},
			{Query: "brand tone consistency", Link: "https://b.example.com", Snippet: "second", Rank: 2},
			{Query: "brand tone consistency", Link: "https://c.example.com", Snippet: "third", Rank: 3},
		},
	}
}

func sampleDraft() types.Draft {
	return types.Draft{
		SeedURL:     "https://example.com/post1",
		Variant:     types.VariantStoryNarrative,
		Text:        "HEADLINE: A Tale of Tone\n\nPOST:\nOnce upon a launch...",
		Headline:    "A Tale of Tone",
		Body:        "Once upon a launch...",
		GeneratedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func sampleEntities() types.Entities {
	return types.Entities{
		Emails:      []string{"press@acme.com"},
		ProperNouns: []string{"Acme Corp", "Pallavi"},
	}
}

func TestWorkbookCreateAndAppend(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clout_posts.xlsx")

	w, err := NewWorkbook(path)
	require.NoError(t, err)
	require.NoError(t, w.RecordAudit(sampleAudit()))
	require.NoError(t, w.RecordDraft(sampleDraft(), sampleEntities()))
	require.NoError(t, w.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	serpRows, err := f.GetRows(serpSheet)
	require.NoError(t, err)
	require.Len(t, serpRows, 4) // header + 3 results
	assert.Equal(t, serpHeader, serpRows[0])
	assert.Equal(t, "https://a.example.com", serpRows[1][3])
	assert.Equal(t, "1", serpRows[1][2])
	assert.Equal(t, "https://c.example.com", serpRows[3][3])

	draftRows, err := f.GetRows(draftsSheet)
	require.NoError(t, err)
	require.Len(t, draftRows, 2)
	assert.Equal(t, "Story Narrative", draftRows[1][1])
	assert.Equal(t, "A Tale of Tone", draftRows[1][2])
	assert.Equal(t, "press@acme.com", draftRows[1][5])
}

func TestWorkbookReopenAppends(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clout_posts.xlsx")

	w, err := NewWorkbook(path)
	require.NoError(t, err)
	require.NoError(t, w.RecordDraft(sampleDraft(), sampleEntities()))
	require.NoError(t, w.Close())

	// Reopening must append after existing rows, not overwrite them.
	w2, err := NewWorkbook(path)
	require.NoError(t, err)
	d := sampleDraft()
	d.Variant = types.VariantThoughtLeadership
	require.NoError(t, w2.RecordDraft(d, sampleEntities()))
	require.NoError(t, w2.Close())

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(draftsSheet)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "Story Narrative", rows[1][1])
	assert.Equal(t, "Thought Leadership", rows[2][1])
}

func TestSQLiteRecorder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clout.db")

	s, err := NewSQLite(path)
	require.NoError(t, err)
	require.NoError(t, s.RecordAudit(sampleAudit()))
	require.NoError(t, s.RecordDraft(sampleDraft(), sampleEntities()))
	require.NoError(t, s.Close())

	db, err := sql.Open("sqlite3", path)
	require.NoError(t, err)
	defer db.Close()

	var n int
	require.NoError(t, db.QueryRow(`SELECT count(*) FROM serp_debug`).Scan(&n))
	assert.Equal(t, 3, n)

	rows, err := db.Query(`SELECT rank, link FROM serp_debug ORDER BY id`)
	require.NoError(t, err)
	defer rows.Close()
	var ranks []int
	for rows.Next() {
		var rank int
		var link string
		require.NoError(t, rows.Scan(&rank, &link))
		ranks = append(ranks, rank)
	}
	require.NoError(t, rows.Err())
	assert.Equal(t, []int{1, 2, 3}, ranks)

	var variant, headline string
	require.NoError(t, db.QueryRow(`SELECT variant, headline FROM drafts`).Scan(&variant, &headline))
	assert.Equal(t, "Story Narrative", variant)
	assert.Equal(t, "A Tale of Tone", headline)
}

func TestNewSelectsBackend(t *testing.T) {
	dir := t.TempDir()

	r, err := New(types.OutputConfig{Kind: types.OutputSQLite, Path: filepath.Join(dir, "a.db")})
	require.NoError(t, err)
	_, ok := r.(*SQLite)
	assert.True(t, ok)
	require.NoError(t, r.Close())

	r, err = New(types.OutputConfig{Kind: types.OutputXLSX, Path: filepath.Join(dir, "a.xlsx")})
	require.NoError(t, err)
	_, ok = r.(*Workbook)
	assert.True(t, ok)
	require.NoError(t, r.Close())

	_, err = New(types.OutputConfig{Kind: "csv", Path: "x"})
	assert.Error(t, err)
}
