// Package output serialises extraction tables to spreadsheet, CSV, and JSON
// files and publishes them atomically.
package output

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// Format names an output file format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// DefaultFormat is used when neither a flag nor the destination extension
// selects one.
const DefaultFormat = FormatXLSX

// Encoder writes an output table in one format. Column order always comes
// from the table, and an empty table is written with its placeholder row.
type Encoder interface {
	Format() Format
	Encode(w io.Writer, table *extraction.OutputTable) error
}

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatXLSX, FormatCSV, FormatJSON}
}

// ParseFormat validates a format name. Empty selects DefaultFormat.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), "."))); f {
	case FormatXLSX, FormatCSV, FormatJSON:
		return f, nil
	case "":
		return DefaultFormat, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (must be one of: xlsx, csv, json)", s)
	}
}

// FormatFromPath infers the format from a destination's extension.
func FormatFromPath(path string) (Format, bool) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", false
	}
	f, err := ParseFormat(ext)
	if err != nil {
		return "", false
	}
	return f, true
}

// Extension returns the file extension for f, with the leading dot.
func (f Format) Extension() string {
	return "." + string(f)
}

// NewEncoder returns the encoder for f.
func NewEncoder(f Format) (Encoder, error) {
	switch f {
	case FormatXLSX:
		return XLSXEncoder{}, nil
	case FormatCSV:
		return CSVEncoder{}, nil
	case FormatJSON:
		return JSONEncoder{}, nil
	default:
		return nil, fmt.Errorf("unsupported output format %q", f)
	}
}

// headerRow returns the column labels written as the first row.
func headerRow(columns []extraction.Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = c.Label
	}
	return out
}
