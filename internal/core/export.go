package core

import (
	"encoding/csv"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"
)

// ExportFlushInterval is how many rows the CSV writer buffers between flushes.
const ExportFlushInterval = 1000

// ExportColumns returns columns when set, otherwise the sorted union of
// the records' keys.
func ExportColumns(columns []string, records []Record) []string {
	if len(columns) > 0 {
		return columns
	}
	seen := make(map[string]bool)
	var cols []string
	for _, rec := range records {
		for k := range rec {
			if !seen[k] {
				seen[k] = true
				cols = append(cols, k)
			}
		}
	}
	slices.Sort(cols)
	return cols
}

// WriteCSV writes a header row and one row per record. Values are quoted
// by encoding/csv, so the output re-parses to the same records.
func WriteCSV(w io.Writer, columns []string, records []Record) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	row := make([]string, len(columns))
	for i, rec := range records {
		for j, col := range columns {
			row[j] = rec[col]
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
		if (i+1)%ExportFlushInterval == 0 {
			cw.Flush()
			if err := cw.Error(); err != nil {
				return err
			}
			if f, ok := w.(interface{ Flush() }); ok {
				f.Flush()
			}
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteXLSX writes the records as a single-sheet workbook using excelize's
// stream writer, which keeps memory flat for large exports.
func WriteXLSX(w io.Writer, columns []string, records []Record) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sales"
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("stream writer: %w", err)
	}

	header := make([]any, len(columns))
	for i, col := range columns {
		header[i] = col
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	for i, rec := range records {
		cells := make([]any, len(columns))
		for j, col := range columns {
			cells[j] = rec[col]
		}
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("write row %d: %w", i+1, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("flush sheet: %w", err)
	}
	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
