package extraction

import (
	"slices"
	"strings"
)

// NormalizeCell turns a data cell into its record value: newlines become
// spaces and surrounding whitespace is trimmed. A nil cell is blank.
func NormalizeCell(cell *string) string {
	if cell == nil {
		return ""
	}
	s := strings.ReplaceAll(*cell, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}

// Normalize builds one record from a data row. It returns false when the row
// is skipped: too few cells, or a blank anchor under SkipBlankAnchor.
func (s *TableSchema) Normalize(row Row, rc ResolvedColumns, context ExtractedFields) (Record, bool) {
	if len(row) == 0 || len(row) < s.MinCells {
		return nil, false
	}

	rec := s.contextRecord(context)
	for _, col := range s.Columns {
		v := cellAt(row, rc, col.Key)
		if v != "" && slices.Contains(col.Absent, v) {
			v = ""
		}
		if v == "" {
			if col.Key == s.Anchor && s.SkipBlankAnchor {
				return nil, false
			}
			v = col.Sentinel
		}
		rec[col.Key] = v
	}
	return rec, true
}

// Placeholder is the single record written when no row was accepted: context
// fields plus every column's sentinel.
func (s *TableSchema) Placeholder(context ExtractedFields) Record {
	rec := s.contextRecord(context)
	for _, col := range s.Columns {
		rec[col.Key] = col.Sentinel
	}
	return rec
}

func (s *TableSchema) contextRecord(context ExtractedFields) Record {
	rec := make(Record, len(s.ContextFields)+len(s.Columns))
	for _, id := range s.ContextFields {
		rec[id] = context.Get(id)
	}
	return rec
}

func cellAt(row Row, rc ResolvedColumns, key string) string {
	i, ok := rc.Index(key)
	if !ok || i >= len(row) {
		return ""
	}
	return NormalizeCell(row[i])
}
