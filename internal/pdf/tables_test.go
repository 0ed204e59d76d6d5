package pdf

import (
	"testing"

	"github.com/ledongthuc/pdf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// glyphs spells s one rune per pdf.Text, 6pt apart, the way Courier 10pt
// comes out of a content stream.
func glyphs(x, y float64, s string) []pdf.Text {
	var out []pdf.Text
	for _, r := range s {
		out = append(out, pdf.Text{Font: "Courier", FontSize: 10, X: x, Y: y, W: 6, S: string(r)})
		x += 6
	}
	return out
}

func page(runs ...[]pdf.Text) []pdf.Text {
	var out []pdf.Text
	for _, r := range runs {
		out = append(out, r...)
	}
	return out
}

func rowValues(row extraction.Row) []string {
	out := make([]string, len(row))
	for i, c := range row {
		if c != nil {
			out[i] = *c
		}
	}
	return out
}

func TestBuildTables_SingleTable(t *testing.T) {
	texts := page(
		glyphs(72, 740, "Report MX001"),
		glyphs(72, 700, "Gene"), glyphs(160, 700, "Transcript"), glyphs(280, 700, "Exon"),
		glyphs(72, 685, "EGFR"), glyphs(160, 685, "NM_005228"), glyphs(280, 685, "19"),
		glyphs(72, 670, "KRAS"), glyphs(160, 670, "NM_004985"), glyphs(280, 670, "2"),
	)

	tables := BuildTables(texts, DefaultGridOptions())
	require.Len(t, tables, 1)
	require.Len(t, tables[0], 3)
	assert.Equal(t, []string{"Gene", "Transcript", "Exon"}, rowValues(tables[0][0]))
	assert.Equal(t, []string{"EGFR", "NM_005228", "19"}, rowValues(tables[0][1]))
	assert.Equal(t, []string{"KRAS", "NM_004985", "2"}, rowValues(tables[0][2]))
}

func TestBuildTables_WordsStayInOneCell(t *testing.T) {
	texts := page(
		glyphs(72, 700, "Left break"), glyphs(200, 700, "Right break"),
		glyphs(72, 685, "chr2 29446394"), glyphs(200, 685, "chr2 42522694"),
	)

	tables := BuildTables(texts, DefaultGridOptions())
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Left break", "Right break"}, rowValues(tables[0][0]))
	assert.Equal(t, []string{"chr2 29446394", "chr2 42522694"}, rowValues(tables[0][1]))
}

func TestBuildTables_MissingCellStaysNil(t *testing.T) {
	texts := page(
		glyphs(72, 700, "Gene"), glyphs(160, 700, "Exon"), glyphs(280, 700, "c."),
		glyphs(72, 685, "EGFR"), glyphs(280, 685, "c.1A>G"),
	)

	tables := BuildTables(texts, DefaultGridOptions())
	require.Len(t, tables, 1)
	row := tables[0][1]
	require.Len(t, row, 3)
	assert.Equal(t, "EGFR", *row[0])
	assert.Nil(t, row[1])
	assert.Equal(t, "c.1A>G", *row[2])
}

func TestBuildTables_UnalignedLinesSplitTables(t *testing.T) {
	texts := page(
		glyphs(72, 700, "Gene"), glyphs(160, 700, "Exon"),
		glyphs(72, 685, "EGFR"), glyphs(160, 685, "19"),
		// a single-cell line ends the first table
		glyphs(72, 660, "Notes"),
		glyphs(300, 640, "Name"), glyphs(420, 640, "Value"),
		glyphs(300, 625, "a"), glyphs(420, 625, "1"),
	)

	tables := BuildTables(texts, DefaultGridOptions())
	require.Len(t, tables, 2)
	assert.Equal(t, []string{"Gene", "Exon"}, rowValues(tables[0][0]))
	assert.Equal(t, []string{"Name", "Value"}, rowValues(tables[1][0]))
	assert.Equal(t, []string{"a", "1"}, rowValues(tables[1][1]))
}

func TestBuildTables_HeaderOnlyIsDropped(t *testing.T) {
	texts := page(
		glyphs(72, 700, "Gene"), glyphs(160, 700, "Exon"),
		glyphs(72, 660, "footer"),
	)
	assert.Empty(t, BuildTables(texts, DefaultGridOptions()))
}

func TestBuildTables_IgnoresWhitespaceAndOrder(t *testing.T) {
	texts := page(
		glyphs(72, 685, "EGFR"), glyphs(160, 685, "19"),
		glyphs(72, 700, "Gene"), glyphs(160, 700, "Exon"),
		[]pdf.Text{{FontSize: 10, X: 500, Y: 685, W: 6, S: " "}},
	)

	tables := BuildTables(texts, DefaultGridOptions())
	require.Len(t, tables, 1)
	assert.Equal(t, []string{"Gene", "Exon"}, rowValues(tables[0][0]))
	assert.Equal(t, []string{"EGFR", "19"}, rowValues(tables[0][1]))
}

func TestBuildTables_Empty(t *testing.T) {
	assert.Empty(t, BuildTables(nil, DefaultGridOptions()))
}
