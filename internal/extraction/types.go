package extraction

import "strings"

// Row is one table row as produced by a table adapter. A nil cell means the
// adapter found no text for that position.
type Row []*string

// Table is a rectangular-ish grid of rows. Row 0 is the header candidate.
type Table []Row

// Page holds the reading-order text and detected tables of one page.
type Page struct {
	Text   string
	Tables []Table
}

// RawDocument is the adapter output for one source document. It is built once
// per request and never modified afterwards.
type RawDocument struct {
	source string
	pages  []Page
}

// NewRawDocument copies pages into a new immutable document.
func NewRawDocument(source string, pages []Page) *RawDocument {
	cp := make([]Page, len(pages))
	for i, p := range pages {
		tables := make([]Table, len(p.Tables))
		for j, t := range p.Tables {
			rows := make(Table, len(t))
			for k, r := range t {
				rows[k] = append(Row(nil), r...)
			}
			tables[j] = rows
		}
		cp[i] = Page{Text: p.Text, Tables: tables}
	}
	return &RawDocument{source: source, pages: cp}
}

// Source returns the path or name the document was read from.
func (d *RawDocument) Source() string {
	return d.source
}

// PageCount returns the number of pages.
func (d *RawDocument) PageCount() int {
	return len(d.pages)
}

// Page returns page i (0-based).
func (d *RawDocument) Page(i int) Page {
	return d.pages[i]
}

// Text joins all page texts, each followed by a newline.
func (d *RawDocument) Text() string {
	var b strings.Builder
	for _, p := range d.pages {
		b.WriteString(p.Text)
		b.WriteByte('\n')
	}
	return b.String()
}

// TableCount returns the number of tables across all pages.
func (d *RawDocument) TableCount() int {
	n := 0
	for _, p := range d.pages {
		n += len(p.Tables)
	}
	return n
}

// Cell returns a pointer to s, for building rows by hand.
func Cell(s string) *string {
	return &s
}

// Cells builds a Row from plain strings.
func Cells(values ...string) Row {
	row := make(Row, len(values))
	for i := range values {
		row[i] = Cell(values[i])
	}
	return row
}

// Column is one output column: a stable key and the header label written to files.
type Column struct {
	Key   string `json:"key"`
	Label string `json:"label"`
}

// Record maps column keys to values. Every column of the active mode is present.
type Record map[string]string

// Values returns the record's values in column order.
func (r Record) Values(columns []Column) []string {
	out := make([]string, len(columns))
	for i, c := range columns {
		out[i] = r[c.Key]
	}
	return out
}

// ExtractedFields is the frozen result of field extraction for one document.
type ExtractedFields struct {
	values map[string]string
}

// Get returns the value of field id, or "" if the field was not extracted.
func (f ExtractedFields) Get(id string) string {
	return f.values[id]
}

// Has reports whether field id was part of the extraction.
func (f ExtractedFields) Has(id string) bool {
	_, ok := f.values[id]
	return ok
}

// Len returns the number of extracted fields.
func (f ExtractedFields) Len() int {
	return len(f.values)
}

// Map returns a copy of the underlying values.
func (f ExtractedFields) Map() map[string]string {
	out := make(map[string]string, len(f.values))
	for k, v := range f.values {
		out[k] = v
	}
	return out
}

// OutputTable is the ordered record sequence for one request, sharing one schema.
type OutputTable struct {
	Mode        Mode
	Columns     []Column
	Records     []Record
	Placeholder Record
}

// Rows returns the records to write. An empty table yields its placeholder, so
// an encoded file always has at least one data row.
func (t *OutputTable) Rows() []Record {
	if len(t.Records) > 0 {
		return t.Records
	}
	if t.Placeholder != nil {
		return []Record{t.Placeholder}
	}
	blank := make(Record, len(t.Columns))
	for _, c := range t.Columns {
		blank[c.Key] = ""
	}
	return []Record{blank}
}
