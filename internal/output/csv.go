package output

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// utf8BOM lets spreadsheet applications detect UTF-8 for CJK labels.
const utf8BOM = "\ufeff"

// CSVEncoder writes RFC 4180 CSV with a UTF-8 byte order mark.
type CSVEncoder struct{}

func (CSVEncoder) Format() Format { return FormatCSV }

func (CSVEncoder) Encode(w io.Writer, table *extraction.OutputTable) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(utf8BOM); err != nil {
		return fmt.Errorf("csv write: %w", err)
	}

	cw := csv.NewWriter(bw)
	if err := cw.Write(headerRow(table.Columns)); err != nil {
		return fmt.Errorf("csv header: %w", err)
	}
	for _, rec := range table.Rows() {
		if err := cw.Write(rec.Values(table.Columns)); err != nil {
			return fmt.Errorf("csv row: %w", err)
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("csv flush: %w", err)
	}
	return bw.Flush()
}
