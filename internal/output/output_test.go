package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

func mutationTable() *extraction.OutputTable {
	return &extraction.OutputTable{
		Mode:    extraction.ModeMutation,
		Columns: extraction.ModeMutation.Columns(),
		Records: []extraction.Record{
			{
				extraction.FieldAccession:         "MX001",
				extraction.ColumnMutatedGene:      "EGFR",
				extraction.ColumnTranscriptID:     "NM_005228",
				extraction.ColumnExon:             "19",
				extraction.ColumnNucleotideChange: "c.2235_2249del",
				extraction.ColumnAminoAcidChange:  "p.E746_A750del",
				extraction.ColumnVariantFrequency: "12.3%",
			},
			{
				extraction.FieldAccession:         "MX001",
				extraction.ColumnMutatedGene:      "KRAS, \"G12\"",
				extraction.ColumnTranscriptID:     "-",
				extraction.ColumnExon:             "2",
				extraction.ColumnNucleotideChange: "c.35G>T",
				extraction.ColumnAminoAcidChange:  "p.G12V",
				extraction.ColumnVariantFrequency: "0012",
			},
		},
	}
}

func placeholderTable() *extraction.OutputTable {
	schema := extraction.SchemaFor(extraction.ModeRearrangement)
	return &extraction.OutputTable{
		Mode:        extraction.ModeRearrangement,
		Columns:     extraction.ModeRearrangement.Columns(),
		Placeholder: schema.Placeholder(extraction.Extract("检测号：AB12345", extraction.DefaultRegistry().Select(schema.ContextFields...))),
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		input       string
		expected    Format
		expectError bool
	}{
		{"xlsx", FormatXLSX, false},
		{".CSV", FormatCSV, false},
		{" json ", FormatJSON, false},
		{"", FormatXLSX, false},
		{"xls", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			f, err := ParseFormat(tt.input)
			if tt.expectError {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expected, f)
		})
	}
}

func TestFormatFromPath(t *testing.T) {
	f, ok := FormatFromPath("/tmp/out.CSV")
	assert.True(t, ok)
	assert.Equal(t, FormatCSV, f)

	_, ok = FormatFromPath("/tmp/out")
	assert.False(t, ok)

	_, ok = FormatFromPath("/tmp/out.txt")
	assert.False(t, ok)

	assert.Equal(t, ".json", FormatJSON.Extension())
}

func TestNewEncoder(t *testing.T) {
	for _, f := range Formats() {
		enc, err := NewEncoder(f)
		require.NoError(t, err)
		assert.Equal(t, f, enc.Format())
	}
	_, err := NewEncoder("pdf")
	assert.Error(t, err)
}

func TestCSVEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVEncoder{}.Encode(&buf, mutationTable()))

	expected := "\ufeff" +
		"检测号,突变基因,转录本 ID,外显子,核苷酸改变,氨基酸改变,突变频率\n" +
		"MX001,EGFR,NM_005228,19,c.2235_2249del,p.E746_A750del,12.3%\n" +
		"MX001,\"KRAS, \"\"G12\"\"\",-,2,c.35G>T,p.G12V,0012\n"
	assert.Equal(t, expected, buf.String())
}

func TestCSVEncoder_Placeholder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, CSVEncoder{}.Encode(&buf, placeholderTable()))

	lines := strings.Split(strings.TrimSuffix(buf.String(), "\n"), "\n")
	require.Len(t, lines, 2, "header plus exactly one data row")
	assert.Equal(t, ",AB12345,无,-,-", lines[1])
}

func TestJSONEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, JSONEncoder{}.Encode(&buf, mutationTable()))

	assert.Contains(t, buf.String(), `"mode": "mutation"`)
	assert.Contains(t, buf.String(), `"nucleotide_change": "c.2235_2249del"`)
	assert.NoError(t, ValidateDocument(extraction.ModeMutation.Columns(), buf.Bytes()))
}

func TestJSONEncoder_RejectsIncompleteRecords(t *testing.T) {
	table := mutationTable()
	delete(table.Records[1], extraction.ColumnExon)

	err := JSONEncoder{}.Encode(io.Discard, table)
	assert.Error(t, err)

	table = mutationTable()
	table.Records[0]["extra"] = "x"
	assert.Error(t, JSONEncoder{}.Encode(io.Discard, table))
}

func TestValidateDocument(t *testing.T) {
	cols := extraction.ModeRearrangement.Columns()
	assert.Error(t, ValidateDocument(cols, []byte(`{"mode":"rearrangement","columns":[],"records":[]}`)))
	assert.Error(t, ValidateDocument(cols, []byte(`not json`)))
}

func TestXLSXEncoder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSXEncoder{}.Encode(&buf, mutationTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"检测号", "突变基因", "转录本 ID", "外显子", "核苷酸改变", "氨基酸改变", "突变频率"}, rows[0])
	assert.Equal(t, []string{"MX001", "EGFR", "NM_005228", "19", "c.2235_2249del", "p.E746_A750del", "12.3%"}, rows[1])
	assert.Equal(t, "0012", rows[2][6], "values stay strings")
}

func TestXLSXEncoder_Placeholder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, XLSXEncoder{}.Encode(&buf, placeholderTable()))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(SheetName)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"", "AB12345", "无", "-", "-"}, rows[1])
}

func TestPublish(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.csv")

	require.NoError(t, Publish(context.Background(), dest, CSVEncoder{}, mutationTable()))
	first, err := os.ReadFile(dest)
	require.NoError(t, err)

	require.NoError(t, Publish(context.Background(), dest, CSVEncoder{}, mutationTable()))
	second, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, first, second, "re-publishing the same table is byte-identical")

	assertNoTempFiles(t, dir)
}

func TestPublish_ExtractionIsByteIdentical(t *testing.T) {
	doc := extraction.NewRawDocument("m.pdf", []extraction.Page{{
		Text: "姓名：张三\n检测号：MX001\n",
		Tables: []extraction.Table{{
			extraction.Cells("基因", "转录本", "外显子", "核苷酸改变(c.)", "氨基酸改变(p.)", "频率(%)"),
			extraction.Cells("EGFR", "NM_005228", "19", "c.2235_2249del", "p.E746_A750del", "12.3%"),
			extraction.Cells("KRAS", "NM_004985", "2", "c.35G>T", "p.G12V", "4.1%"),
		}},
	}})
	engine := extraction.NewEngine(nil)

	for _, enc := range []Encoder{XLSXEncoder{}, CSVEncoder{}} {
		t.Run(string(enc.Format()), func(t *testing.T) {
			dir := t.TempDir()
			var outputs [2][]byte
			for i := range outputs {
				res, err := engine.Run(context.Background(), doc, extraction.ModeMutation)
				require.NoError(t, err)

				dest := filepath.Join(dir, fmt.Sprintf("run%d%s", i, enc.Format().Extension()))
				require.NoError(t, Publish(context.Background(), dest, enc, res.Table))
				outputs[i], err = os.ReadFile(dest)
				require.NoError(t, err)
			}
			require.NotEmpty(t, outputs[0])
			assert.Equal(t, outputs[0], outputs[1], "the same document must encode to the same bytes")
		})
	}
}

func TestPublish_CancelledKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.json")
	require.NoError(t, os.WriteFile(dest, []byte("previous"), 0o644))

	ctx, cancel := context.WithCancel(context.Background())
	enc := cancellingEncoder{Encoder: JSONEncoder{}, cancel: cancel}

	err := Publish(ctx, dest, enc, mutationTable())
	require.Error(t, err)
	assert.True(t, IsCancelled(err))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(data))
	assertNoTempFiles(t, dir)
}

func TestPublish_EncodeFailureLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "out.xlsx")

	err := Publish(context.Background(), dest, failingEncoder{}, mutationTable())
	require.Error(t, err)
	assert.True(t, extraction.IsType(err, extraction.ErrorTypeOutputFailure))

	_, statErr := os.Stat(dest)
	assert.True(t, os.IsNotExist(statErr))
	assertNoTempFiles(t, dir)
}

func TestPublish_MissingDirectory(t *testing.T) {
	dest := filepath.Join(t.TempDir(), "missing", "out.csv")
	err := Publish(context.Background(), dest, CSVEncoder{}, mutationTable())
	assert.True(t, extraction.IsType(err, extraction.ErrorTypeOutputFailure))
	assert.False(t, IsCancelled(err))
}

type cancellingEncoder struct {
	Encoder
	cancel context.CancelFunc
}

func (e cancellingEncoder) Encode(w io.Writer, table *extraction.OutputTable) error {
	if err := e.Encoder.Encode(w, table); err != nil {
		return err
	}
	e.cancel()
	return nil
}

type failingEncoder struct{}

func (failingEncoder) Format() Format { return FormatXLSX }

func (failingEncoder) Encode(w io.Writer, _ *extraction.OutputTable) error {
	_, _ = w.Write([]byte("partial"))
	return errors.New("disk full")
}

func assertNoTempFiles(t *testing.T, dir string) {
	t.Helper()
	matches, err := filepath.Glob(filepath.Join(dir, ".*.tmp"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}
