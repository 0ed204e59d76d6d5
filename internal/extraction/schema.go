package extraction

import (
	"strings"

	"golang.org/x/text/width"
)

// Sentinels written when a cell is absent.
const (
	SentinelNone = "无"
	SentinelDash = "-"
)

// ColumnRule maps one canonical table column to the header keywords that
// identify it and the sentinel used when its cell is blank.
type ColumnRule struct {
	Key      string
	Keywords []string
	Sentinel string
	// Absent lists cell values treated as blank, such as a lone dash.
	Absent []string
}

// TableSchema describes the target table of one extraction mode.
type TableSchema struct {
	Mode    Mode
	Columns []ColumnRule

	// Anchor must resolve, together with at least one of Details, for a table
	// to be accepted.
	Anchor  string
	Details []string

	// MinCells skips data rows with fewer cells.
	MinCells int
	// SkipBlankAnchor drops rows whose anchor cell is blank instead of
	// writing the anchor sentinel.
	SkipBlankAnchor bool

	// ContextFields are document-level fields copied onto every record.
	ContextFields []string
}

// ResolvedColumns maps canonical column keys to cell indexes in one table.
// Unresolved columns are absent.
type ResolvedColumns map[string]int

// Index returns the bound cell index for key.
func (rc ResolvedColumns) Index(key string) (int, bool) {
	i, ok := rc[key]
	return i, ok
}

// NormalizeHeader removes newlines, trims, and folds full-width forms so
// header keywords match regardless of the typesetting.
func NormalizeHeader(cell *string) string {
	if cell == nil {
		return ""
	}
	s := strings.ReplaceAll(*cell, "\r", "")
	s = strings.ReplaceAll(s, "\n", "")
	return width.Fold.String(strings.TrimSpace(s))
}

// Resolve binds each canonical column to the leftmost header cell containing
// any of its keywords. Cell positions are preserved, so nil cells still count.
func (s *TableSchema) Resolve(header Row) ResolvedColumns {
	cells := make([]string, len(header))
	for i, c := range header {
		cells[i] = NormalizeHeader(c)
	}

	rc := make(ResolvedColumns, len(s.Columns))
	for _, col := range s.Columns {
		if i := matchColumn(cells, col.Keywords); i >= 0 {
			rc[col.Key] = i
		}
	}
	return rc
}

func matchColumn(cells []string, keywords []string) int {
	for i, cell := range cells {
		if cell == "" {
			continue
		}
		for _, k := range keywords {
			if k != "" && strings.Contains(cell, width.Fold.String(k)) {
				return i
			}
		}
	}
	return -1
}

// Accepts reports whether the resolved columns identify the target table.
func (s *TableSchema) Accepts(rc ResolvedColumns) bool {
	if _, ok := rc[s.Anchor]; !ok {
		return false
	}
	for _, d := range s.Details {
		if _, ok := rc[d]; ok {
			return true
		}
	}
	return len(s.Details) == 0
}

// Column returns the rule for key.
func (s *TableSchema) Column(key string) (ColumnRule, bool) {
	for _, c := range s.Columns {
		if c.Key == key {
			return c, true
		}
	}
	return ColumnRule{}, false
}

var rearrangementSchema = &TableSchema{
	Mode: ModeRearrangement,
	Columns: []ColumnRule{
		{Key: ColumnRearrangedGene, Keywords: []string{"重排基因"}, Sentinel: SentinelNone, Absent: []string{"-"}},
		{Key: ColumnLeftBreakpoint, Keywords: []string{"左断裂", "Left"}, Sentinel: SentinelDash},
		{Key: ColumnRightBreakpoint, Keywords: []string{"右断裂", "Right"}, Sentinel: SentinelDash},
	},
	Anchor:        ColumnRearrangedGene,
	Details:       []string{ColumnLeftBreakpoint, ColumnRightBreakpoint},
	MinCells:      2,
	ContextFields: []string{FieldName, FieldAccession},
}

var mutationSchema = &TableSchema{
	Mode: ModeMutation,
	Columns: []ColumnRule{
		{Key: ColumnMutatedGene, Keywords: []string{"基因", "Gene"}, Sentinel: SentinelNone},
		{Key: ColumnTranscriptID, Keywords: []string{"转录本", "Transcript"}, Sentinel: SentinelDash},
		{Key: ColumnExon, Keywords: []string{"外显子", "Exon"}, Sentinel: SentinelDash},
		{Key: ColumnNucleotideChange, Keywords: []string{"核苷酸", "c."}, Sentinel: SentinelDash},
		{Key: ColumnAminoAcidChange, Keywords: []string{"氨基酸", "p."}, Sentinel: SentinelDash},
		{Key: ColumnVariantFrequency, Keywords: []string{"频率", "VAF", "%"}, Sentinel: SentinelDash},
	},
	Anchor:          ColumnMutatedGene,
	Details:         []string{ColumnNucleotideChange, ColumnAminoAcidChange},
	MinCells:        3,
	SkipBlankAnchor: true,
	ContextFields:   []string{FieldAccession},
}

// SchemaFor returns the table schema of mode, or nil for modes without a table.
func SchemaFor(mode Mode) *TableSchema {
	switch mode {
	case ModeRearrangement:
		return rearrangementSchema
	case ModeMutation:
		return mutationSchema
	default:
		return nil
	}
}
