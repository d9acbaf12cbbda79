// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package record

import (
	"fmt"
	"os"

	"github.com/xuri/excelize/v2"

	"github.com/pdiddy/clout-engine/pkg/types"
)

// Workbook is the xlsx Recorder. The workbook is saved after every append so
// a crash mid-run loses at most the row being written.
type Workbook struct {
	path string
	file *excelize.File

	// next row number per sheet, 1-based; headers occupy row 1.
	nextRow map[string]int
}

// NewWorkbook opens the workbook at path, creating it with headers when it
// does not exist yet.
func NewWorkbook(path string) (*Workbook, error) {
	w := &Workbook{path: path, nextRow: make(map[string]int)}

	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := w.create(); err != nil {
			return nil, err
		}
		return w, nil
	}

	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	w.file = f

	for _, sheet := range []string{draftsSheet, serpSheet} {
		rows, err := f.GetRows(sheet)
		if err != nil {
			return nil, fmt.Errorf("reading sheet %s: %w", sheet, err)
		}
		w.nextRow[sheet] = len(rows) + 1
	}
	return w, nil
}

func (w *Workbook) create() error {
	f := excelize.NewFile()

	for sheet, header := range map[string][]string{
		draftsSheet: draftsHeader,
		serpSheet:   serpHeader,
	} {
		if _, err := f.NewSheet(sheet); err != nil {
			return fmt.Errorf("creating sheet %s: %w", sheet, err)
		}
		cells := make([]any, len(header))
		for i, h := range header {
			cells[i] = h
		}
		if err := f.SetSheetRow(sheet, "A1", &cells); err != nil {
			return fmt.Errorf("writing header of %s: %w", sheet, err)
		}
		w.nextRow[sheet] = 2
	}

	if err := f.DeleteSheet("Sheet1"); err != nil {
		return fmt.Errorf("removing default sheet: %w", err)
	}

	w.file = f
	return w.save()
}

// RecordAudit appends one serp_debug row per search result, in rank order.
func (w *Workbook) RecordAudit(row types.AuditRow) error {
	for _, r := range row.Results {
		cells := []any{row.SeedURL, row.Query, r.Rank, r.Link, r.Snippet}
		if err := w.appendRow(serpSheet, cells); err != nil {
			return err
		}
	}
	return w.save()
}

// RecordDraft appends one drafts row.
func (w *Workbook) RecordDraft(d types.Draft, ent types.Entities) error {
	if err := w.appendRow(draftsSheet, draftRow(d, ent)); err != nil {
		return err
	}
	return w.save()
}

// Close saves and releases the workbook.
func (w *Workbook) Close() error {
	if err := w.save(); err != nil {
		return err
	}
	return w.file.Close()
}

func (w *Workbook) appendRow(sheet string, cells []any) error {
	cell, err := excelize.CoordinatesToCellName(1, w.nextRow[sheet])
	if err != nil {
		return fmt.Errorf("addressing row %d of %s: %w", w.nextRow[sheet], sheet, err)
	}
	if err := w.file.SetSheetRow(sheet, cell, &cells); err != nil {
		return fmt.Errorf("appending to %s: %w", sheet, err)
	}
	w.nextRow[sheet]++
	return nil
}

func (w *Workbook) save() error {
	if err := w.file.SaveAs(w.path); err != nil {
		return fmt.Errorf("saving workbook %s: %w", w.path, err)
	}
	return nil
}
