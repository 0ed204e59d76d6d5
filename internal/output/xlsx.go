package output

import (
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// SheetName is the worksheet holding the records.
const SheetName = "Sheet1"

// XLSXEncoder writes a single-sheet workbook: labels in row 1, one row per
// record below. Every value is stored as a string cell.
type XLSXEncoder struct{}

func (XLSXEncoder) Format() Format { return FormatXLSX }

func (XLSXEncoder) Encode(w io.Writer, table *extraction.OutputTable) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSheetRow(f, 1, headerRow(table.Columns)); err != nil {
		return err
	}
	if style, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}}); err == nil && len(table.Columns) > 0 {
		last, _ := excelize.CoordinatesToCellName(len(table.Columns), 1)
		_ = f.SetCellStyle(SheetName, "A1", last, style)
	}

	widths := make([]int, len(table.Columns))
	for i, c := range table.Columns {
		widths[i] = utf8.RuneCountInString(c.Label)
	}
	for r, rec := range table.Rows() {
		values := rec.Values(table.Columns)
		if err := writeSheetRow(f, r+2, values); err != nil {
			return err
		}
		for i, v := range values {
			widths[i] = max(widths[i], utf8.RuneCountInString(v))
		}
	}

	for i, n := range widths {
		col, err := excelize.ColumnNumberToName(i + 1)
		if err != nil {
			return fmt.Errorf("xlsx column name: %w", err)
		}
		// CJK glyphs are roughly two cells wide.
		_ = f.SetColWidth(SheetName, col, col, float64(min(max(n*2+2, 8), 60)))
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeSheetRow(f *excelize.File, row int, values []string) error {
	for i, v := range values {
		cell, err := excelize.CoordinatesToCellName(i+1, row)
		if err != nil {
			return fmt.Errorf("xlsx cell name: %w", err)
		}
		if err := f.SetCellStr(SheetName, cell, v); err != nil {
			return fmt.Errorf("xlsx set %s: %w", cell, err)
		}
	}
	return nil
}
