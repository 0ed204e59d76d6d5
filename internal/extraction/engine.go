package extraction

import (
	"context"
	"fmt"
	"log/slog"
)

// Result is the outcome of one extraction request.
type Result struct {
	Table  *OutputTable
	Fields ExtractedFields

	// Diagnostics are the recoverable problems absorbed while extracting.
	Diagnostics []*Error

	Pages         int
	TablesSeen    int
	TablesMatched int

	// Placeholder is set when no table row was accepted and the placeholder
	// record stands in for the result.
	Placeholder bool
}

// Engine turns a RawDocument into an OutputTable. It holds only read-only
// configuration, so one Engine may serve concurrent requests.
type Engine struct {
	registry *Registry
	logger   *slog.Logger
}

// NewEngine returns an engine using the default field registry.
func NewEngine(logger *slog.Logger) *Engine {
	return NewEngineWithRegistry(DefaultRegistry(), logger)
}

// NewEngineWithRegistry returns an engine using a custom field registry.
func NewEngineWithRegistry(registry *Registry, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{registry: registry, logger: logger}
}

// Registry returns the field registry in use.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// Run extracts mode's records from doc. Only cancellation and a missing
// document are returned as errors; everything else degrades to defaults and
// sentinels and is reported through Result.Diagnostics.
func (e *Engine) Run(ctx context.Context, doc *RawDocument, mode Mode) (*Result, error) {
	if doc == nil {
		return nil, NewError(ErrorTypeAdapterFailure, "no document")
	}
	if !mode.Valid() {
		return nil, NewError(ErrorTypeUnknown, fmt.Sprintf("unknown report mode %q", mode))
	}
	if err := ctx.Err(); err != nil {
		return nil, WrapError(ErrorTypeCancelled, "extraction cancelled", err).WithFile(doc.Source())
	}

	schema := SchemaFor(mode)
	specs := e.registry.Specs()
	if schema != nil {
		specs = e.registry.Select(schema.ContextFields...)
	}

	fields, diags := ExtractFields(doc.Text(), specs)
	for _, d := range diags {
		d.WithFile(doc.Source())
		e.logger.Debug("extract.field", "source", doc.Source(), "field", d.Field, "kind", d.Type.String(), "detail", d.Message)
	}

	res := &Result{
		Fields:      fields,
		Diagnostics: diags,
		Pages:       doc.PageCount(),
		TablesSeen:  doc.TableCount(),
		Table:       &OutputTable{Mode: mode, Columns: mode.Columns()},
	}

	if schema == nil {
		res.Table.Records = []Record{fieldsRecord(fields, res.Table.Columns)}
		return res, nil
	}

	res.Table.Placeholder = schema.Placeholder(fields)
	for i := 0; i < doc.PageCount(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, WrapError(ErrorTypeCancelled, "extraction cancelled", err).WithFile(doc.Source())
		}
		for _, table := range doc.Page(i).Tables {
			if len(table) == 0 {
				continue
			}
			rc := schema.Resolve(table[0])
			if !schema.Accepts(rc) {
				continue
			}
			res.TablesMatched++
			for _, row := range table[1:] {
				if rec, ok := schema.Normalize(row, rc, fields); ok {
					res.Table.Records = append(res.Table.Records, rec)
				}
			}
		}
	}

	if res.TablesMatched == 0 {
		mismatch := NewError(ErrorTypeSchemaMismatch,
			fmt.Sprintf("no table matched the %s schema, writing placeholder", mode)).WithFile(doc.Source())
		res.Diagnostics = append(res.Diagnostics, mismatch)
		e.logger.Info("extract.schema_mismatch", "source", doc.Source(), "mode", string(mode), "tables", res.TablesSeen)
	}
	if len(res.Table.Records) == 0 {
		res.Table.Records = []Record{res.Table.Placeholder}
		res.Placeholder = true
	}
	return res, nil
}

func fieldsRecord(fields ExtractedFields, columns []Column) Record {
	rec := make(Record, len(columns))
	for _, c := range columns {
		rec[c.Key] = fields.Get(c.Key)
	}
	return rec
}
