// Package pdftest writes small uncompressed PDFs for tests.
package pdftest

import (
	"bytes"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// Run is one text run drawn at (X, Y) in 10pt Courier.
type Run struct {
	X, Y float64
	S    string
}

// courierWidths covers codes 32..126; every Courier glyph is 600 units wide.
var courierWidths = strings.TrimSpace(strings.Repeat("600 ", 95))

// Write writes a PDF with one page per argument. Each run is its own BT/ET
// block, so plain-text extraction yields one line per run.
func Write(t testing.TB, path string, pages ...[]Run) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, Build(pages...), 0o644))
}

// Build returns the bytes Write would store.
func Build(pages ...[]Run) []byte {
	var (
		buf     bytes.Buffer
		offsets []int
	)
	obj := func(body string) {
		offsets = append(offsets, buf.Len())
		fmt.Fprintf(&buf, "%d 0 obj\n%s\nendobj\n", len(offsets), body)
	}

	buf.WriteString("%PDF-1.4\n")

	// 1 catalog, 2 page tree, 3 font, then page/content pairs
	kids := make([]string, len(pages))
	for i := range pages {
		kids[i] = fmt.Sprintf("%d 0 R", 4+2*i)
	}
	obj("<< /Type /Catalog /Pages 2 0 R >>")
	obj(fmt.Sprintf("<< /Type /Pages /Kids [%s] /Count %d >>", strings.Join(kids, " "), len(pages)))
	obj("<< /Type /Font /Subtype /Type1 /BaseFont /Courier /Encoding /WinAnsiEncoding " +
		"/FirstChar 32 /LastChar 126 /Widths [" + courierWidths + "] >>")

	for i, runs := range pages {
		var content strings.Builder
		for _, r := range runs {
			fmt.Fprintf(&content, "BT /F1 10 Tf 1 0 0 1 %g %g Tm (%s) Tj ET\n", r.X, r.Y, escape(r.S))
		}
		obj(fmt.Sprintf("<< /Type /Page /Parent 2 0 R /MediaBox [0 0 612 792] "+
			"/Resources << /Font << /F1 3 0 R >> >> /Contents %d 0 R >>", 5+2*i))
		obj(fmt.Sprintf("<< /Length %d >>\nstream\n%sendstream", content.Len(), content.String()))
	}

	xref := buf.Len()
	fmt.Fprintf(&buf, "xref\n0 %d\n", len(offsets)+1)
	buf.WriteString("0000000000 65535 f \n")
	for _, off := range offsets {
		fmt.Fprintf(&buf, "%010d 00000 n \n", off)
	}
	fmt.Fprintf(&buf, "trailer\n<< /Size %d /Root 1 0 R >>\nstartxref\n%d\n%%%%EOF\n", len(offsets)+1, xref)
	return buf.Bytes()
}

func escape(s string) string {
	return strings.NewReplacer(`\`, `\\`, "(", `\(`, ")", `\)`).Replace(s)
}

// MutationPage lays out a small mutation table under two text lines.
func MutationPage() []Run {
	return []Run{
		{72, 740, "Report MX001"},
		{72, 720, "Patient record"},
		{72, 680, "Gene"}, {160, 680, "Transcript"}, {280, 680, "Exon"}, {340, 680, "c."},
		{72, 665, "EGFR"}, {160, 665, "NM_005228"}, {280, 665, "19"}, {340, 665, "c.2235del"},
		{72, 650, "KRAS"}, {160, 650, "NM_004985"}, {280, 650, "2"}, {340, 650, "c.35G>A"},
	}
}
