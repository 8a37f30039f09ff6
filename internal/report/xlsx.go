package report

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

const (
	problemsSheet = "Problems"
	failuresSheet = "Unprocessed"
)

var problemColumns = []interface{}{"Record", "Severity", "Kind", "Field", "Check", "Location", "Value", "Message"}

// WriteXLSX writes the same rows as the text report to a workbook. runID is
// stored in the document properties so a sheet can be traced to its log.
func (r *Reporter) WriteXLSX(path, runID string) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", problemsSheet); err != nil {
		return fmt.Errorf("failed to name sheet: %w", err)
	}
	if err := f.SetDocProps(&excelize.DocProperties{
		Title:      "Problems for " + r.issue,
		Identifier: runID,
		Creator:    "abstractfix",
	}); err != nil {
		return fmt.Errorf("failed to set workbook properties: %w", err)
	}

	header, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}

	rows := [][]interface{}{problemColumns}
	for _, p := range r.Problems() {
		rows = append(rows, []interface{}{
			p.RecordID, string(p.Severity), string(p.Kind), p.Field, p.Check, p.Location, p.Raw, p.Message,
		})
	}
	if err := writeRows(f, problemsSheet, rows, header); err != nil {
		return err
	}
	if err := f.SetColWidth(problemsSheet, "H", "H", 60); err != nil {
		return fmt.Errorf("failed to size columns: %w", err)
	}

	if len(r.failures) > 0 {
		if _, err := f.NewSheet(failuresSheet); err != nil {
			return fmt.Errorf("failed to add sheet: %w", err)
		}
		failureRows := [][]interface{}{{"Document", "Error"}}
		for _, failure := range r.failures {
			failureRows = append(failureRows, []interface{}{filepath.Base(failure.Path), failure.Err.Error()})
		}
		if err := writeRows(f, failuresSheet, failureRows, header); err != nil {
			return err
		}
	}

	if err := f.SaveAs(path); err != nil {
		return fmt.Errorf("failed to save workbook: %w", err)
	}
	return nil
}

func writeRows(f *excelize.File, sheet string, rows [][]interface{}, headerStyle int) error {
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write row %d of %s: %w", i+1, sheet, err)
		}
	}

	last, err := excelize.CoordinatesToCellName(len(rows[0]), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return fmt.Errorf("failed to style header of %s: %w", sheet, err)
	}
	return nil
}
