package output

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// Document is the JSON form of an output table.
type Document struct {
	Mode    extraction.Mode     `json:"mode"`
	Columns []extraction.Column `json:"columns"`
	Records []extraction.Record `json:"records"`
}

// JSONEncoder writes an indented Document. The document is checked against a
// schema derived from the table's columns before it is written, so every
// record carries exactly the declared columns as strings.
type JSONEncoder struct{}

func (JSONEncoder) Format() Format { return FormatJSON }

func (JSONEncoder) Encode(w io.Writer, table *extraction.OutputTable) error {
	doc := Document{Mode: table.Mode, Columns: table.Columns, Records: table.Rows()}
	b, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return fmt.Errorf("json marshal: %w", err)
	}
	if err := ValidateDocument(table.Columns, b); err != nil {
		return err
	}
	b = append(b, '\n')
	if _, err := w.Write(b); err != nil {
		return fmt.Errorf("json write: %w", err)
	}
	return nil
}

// DocumentSchema returns the JSON schema a Document with columns must satisfy.
func DocumentSchema(columns []extraction.Column) map[string]any {
	props := make(map[string]any, len(columns))
	required := make([]string, len(columns))
	for i, c := range columns {
		props[c.Key] = map[string]any{"type": "string", "title": c.Label}
		required[i] = c.Key
	}
	return map[string]any{
		"$schema":  "https://json-schema.org/draft/2020-12/schema",
		"type":     "object",
		"required": []string{"mode", "columns", "records"},
		"properties": map[string]any{
			"mode": map[string]any{"type": "string"},
			"columns": map[string]any{
				"type":     "array",
				"minItems": len(columns),
				"maxItems": len(columns),
				"items": map[string]any{
					"type":     "object",
					"required": []string{"key", "label"},
					"properties": map[string]any{
						"key":   map[string]any{"type": "string"},
						"label": map[string]any{"type": "string"},
					},
				},
			},
			"records": map[string]any{
				"type":     "array",
				"minItems": 1,
				"items": map[string]any{
					"type":                 "object",
					"required":             required,
					"properties":           props,
					"additionalProperties": false,
				},
			},
		},
	}
}

// ValidateDocument checks encoded JSON against DocumentSchema(columns).
func ValidateDocument(columns []extraction.Column, data []byte) error {
	b, err := json.Marshal(DocumentSchema(columns))
	if err != nil {
		return fmt.Errorf("marshal schema: %w", err)
	}
	compiler := jsonschema.NewCompiler()
	if err := compiler.AddResource("records.json", bytes.NewReader(b)); err != nil {
		return fmt.Errorf("add schema: %w", err)
	}
	schema, err := compiler.Compile("records.json")
	if err != nil {
		return fmt.Errorf("compile schema: %w", err)
	}
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	if err := schema.Validate(v); err != nil {
		return fmt.Errorf("json does not match schema: %w", err)
	}
	return nil
}
