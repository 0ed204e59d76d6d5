package pdf

import (
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// GridOptions tunes how positioned text is grouped into table grids. All
// distances are multiples of the glyph font size.
type GridOptions struct {
	// LineTolerance is the largest baseline difference within one line.
	LineTolerance float64
	// WordGap inserts a space between glyphs farther apart than this.
	WordGap float64
	// CellGap starts a new cell when glyphs are farther apart than this.
	CellGap float64
	// AlignTolerance is the slack allowed when matching a cell to a header column.
	AlignTolerance float64
	// MinRows is the smallest table kept, header included.
	MinRows int
}

// DefaultGridOptions returns the options used for clinical report tables.
func DefaultGridOptions() GridOptions {
	return GridOptions{
		LineTolerance:  0.4,
		WordGap:        0.15,
		CellGap:        1.0,
		AlignTolerance: 1.5,
		MinRows:        2,
	}
}

type segment struct {
	x, right float64
	size     float64
	text     string
}

func (s segment) center() float64 { return (s.x + s.right) / 2 }

type line struct {
	y        float64
	segments []segment
}

// BuildTables finds tables in one page's positioned text. A table is a run of
// consecutive lines with at least two cells whose cells line up with the
// run's first line, which becomes the header row.
func BuildTables(texts []pdf.Text, opts GridOptions) []extraction.Table {
	lines := groupLines(texts, opts)

	var (
		tables []extraction.Table
		header []segment
		rows   []extraction.Row
	)
	flush := func() {
		if len(rows) >= opts.MinRows {
			tables = append(tables, rows)
		}
		header, rows = nil, nil
	}

	for _, ln := range lines {
		if len(ln.segments) < 2 {
			flush()
			continue
		}
		if header != nil && aligned(header, ln.segments, opts) {
			rows = append(rows, placeCells(header, ln.segments, opts))
			continue
		}
		flush()
		header = ln.segments
		rows = []extraction.Row{segmentsRow(ln.segments)}
	}
	flush()
	return tables
}

// groupLines sorts glyphs top to bottom, clusters them into lines by
// baseline, and merges each line's glyphs into cell segments.
func groupLines(texts []pdf.Text, opts GridOptions) []line {
	glyphs := make([]pdf.Text, 0, len(texts))
	for _, t := range texts {
		if strings.TrimSpace(t.S) != "" {
			glyphs = append(glyphs, t)
		}
	}
	sort.SliceStable(glyphs, func(i, j int) bool {
		if glyphs[i].Y != glyphs[j].Y {
			return glyphs[i].Y > glyphs[j].Y
		}
		return glyphs[i].X < glyphs[j].X
	})

	var (
		lines   []line
		current []pdf.Text
		lineY   float64
	)
	emit := func() {
		if len(current) > 0 {
			lines = append(lines, line{y: lineY, segments: mergeSegments(current, opts)})
		}
		current = nil
	}
	for _, g := range glyphs {
		if len(current) > 0 && math.Abs(g.Y-lineY) > fontSize(g)*opts.LineTolerance {
			emit()
		}
		if len(current) == 0 {
			lineY = g.Y
		}
		current = append(current, g)
	}
	emit()
	return lines
}

func mergeSegments(glyphs []pdf.Text, opts GridOptions) []segment {
	sort.SliceStable(glyphs, func(i, j int) bool { return glyphs[i].X < glyphs[j].X })

	var (
		segs []segment
		cur  *segment
		b    strings.Builder
	)
	for _, g := range glyphs {
		size := fontSize(g)
		if cur != nil {
			gap := g.X - cur.right
			if gap > size*opts.CellGap {
				cur.text = strings.TrimSpace(b.String())
				segs = append(segs, *cur)
				cur = nil
				b.Reset()
			} else if gap > size*opts.WordGap {
				b.WriteByte(' ')
			}
		}
		if cur == nil {
			cur = &segment{x: g.X, right: g.X, size: size}
		}
		b.WriteString(g.S)
		cur.right = math.Max(cur.right, g.X+g.W)
	}
	if cur != nil {
		cur.text = strings.TrimSpace(b.String())
		segs = append(segs, *cur)
	}
	return segs
}

// aligned reports whether at least half of a line's cells fall into distinct
// header columns.
func aligned(header, segs []segment, opts GridOptions) bool {
	used := make(map[int]bool, len(segs))
	for _, s := range segs {
		if j := columnFor(header, s, opts); j >= 0 {
			used[j] = true
		}
	}
	return len(used) >= 2 && len(used)*2 >= len(segs)
}

// columnFor returns the header column a segment overlaps (or nearly
// overlaps), preferring the nearest centre. It returns -1 when none fits.
func columnFor(header []segment, s segment, opts GridOptions) int {
	best, bestDist := -1, math.Inf(1)
	for j, h := range header {
		slack := h.size * opts.AlignTolerance
		if s.right < h.x-slack || s.x > h.right+slack {
			continue
		}
		if d := math.Abs(s.center() - h.center()); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

// placeCells spreads a data line over the header's columns. Unmatched
// segments go to the nearest column; several segments in one column are
// joined with a space.
func placeCells(header, segs []segment, opts GridOptions) extraction.Row {
	parts := make([][]string, len(header))
	for _, s := range segs {
		j := columnFor(header, s, opts)
		if j < 0 {
			j = nearestColumn(header, s)
		}
		parts[j] = append(parts[j], s.text)
	}
	row := make(extraction.Row, len(header))
	for j, p := range parts {
		if len(p) > 0 {
			row[j] = extraction.Cell(strings.Join(p, " "))
		}
	}
	return row
}

func nearestColumn(header []segment, s segment) int {
	best, bestDist := 0, math.Inf(1)
	for j, h := range header {
		if d := math.Abs(s.center() - h.center()); d < bestDist {
			best, bestDist = j, d
		}
	}
	return best
}

func segmentsRow(segs []segment) extraction.Row {
	row := make(extraction.Row, len(segs))
	for i, s := range segs {
		row[i] = extraction.Cell(s.text)
	}
	return row
}

func fontSize(t pdf.Text) float64 {
	if t.FontSize > 0 {
		return t.FontSize
	}
	return 10
}
