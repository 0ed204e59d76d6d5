package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
	"github.com/a3tai/mcp-report-extractor/internal/ledger"
	"github.com/a3tai/mcp-report-extractor/internal/output"
	"github.com/a3tai/mcp-report-extractor/internal/pdf/security"
)

// ServiceOptions configures a Service.
type ServiceOptions struct {
	MaxFileSize int64
	// Directory is the sandbox every input and output must stay inside.
	Directory string
	// Workers bounds concurrent documents in a directory run.
	Workers int
	Ledger  ledger.Ledger
	Logger  *slog.Logger
	// Loader replaces the PDF reader, mainly in tests.
	Loader DocumentLoader
}

// Service handles report extraction by orchestrating the PDF adapters, the
// extraction engine, the output encoders and the run ledger
type Service struct {
	maxFileSize   int64
	workers       int
	loader        DocumentLoader
	validator     *Validator
	search        *Search
	engine        *extraction.Engine
	ledger        ledger.Ledger
	pathValidator *security.PathValidator
	logger        *slog.Logger
}

// NewService creates a new extraction service with all components
func NewService(opts ServiceOptions) (*Service, error) {
	if opts.MaxFileSize <= 0 {
		return nil, fmt.Errorf("maxFileSize must be greater than 0")
	}
	pathValidator, err := security.NewPathValidator(opts.Directory)
	if err != nil {
		return nil, fmt.Errorf("failed to create path validator: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = 1
	}
	runs := opts.Ledger
	if runs == nil {
		runs = ledger.Discard()
	}
	loader := opts.Loader
	if loader == nil {
		loader = NewReader(opts.MaxFileSize, logger)
	}

	return &Service{
		maxFileSize:   opts.MaxFileSize,
		workers:       workers,
		loader:        loader,
		validator:     NewValidator(opts.MaxFileSize),
		search:        NewSearch(opts.MaxFileSize),
		engine:        extraction.NewEngine(logger),
		ledger:        runs,
		pathValidator: pathValidator,
		logger:        logger,
	}, nil
}

// ExtractReport extracts one document and publishes the output file.
func (s *Service) ExtractReport(ctx context.Context, req ReportExtractRequest) (*ReportExtractResult, error) {
	mode, err := extraction.ParseMode(req.Report)
	if err != nil {
		return nil, err
	}
	src, err := s.pathValidator.ValidatePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	dest, format, err := s.resolveOutput(src, req.Output, req.Format, mode)
	if err != nil {
		return nil, err
	}
	return s.extractTo(ctx, nil, src, dest, mode, format)
}

// ExtractDirectory extracts every PDF directly inside a directory. Documents
// run independently; one failing document is reported and never stops the
// others. Only cancellation aborts the batch.
func (s *Service) ExtractDirectory(ctx context.Context, req ReportExtractDirectoryRequest) (*ReportExtractDirectoryResult, error) {
	mode, err := extraction.ParseMode(req.Report)
	if err != nil {
		return nil, err
	}
	format, err := output.ParseFormat(req.Format)
	if err != nil {
		return nil, err
	}

	directory := req.Directory
	if directory == "" {
		directory = s.pathValidator.GetConfiguredDirectory()
	}
	dir, err := s.pathValidator.ValidateDirectory(directory)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	outDir := dir
	if req.OutputDir != "" {
		if outDir, err = s.pathValidator.ValidateDirectory(req.OutputDir); err != nil {
			return nil, fmt.Errorf("security validation failed: %w", err)
		}
	}

	files, skipped, err := s.search.FindPDFs(dir)
	if err != nil {
		return nil, err
	}

	batchID := uuid.New()
	s.logger.Info("batch.started", "batch_id", batchID, "directory", dir, "mode", string(mode), "documents", len(files))

	results := make([]*ReportExtractResult, len(files))
	failures := make([]*DirectoryFailure, len(files))

	var (
		g  errgroup.Group
		mu sync.Mutex
		// two inputs can map to one output name (a.pdf and a.PDF)
		claimed = make(map[string]string, len(files))
	)
	g.SetLimit(s.workers)

	for i, f := range files {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			dest := filepath.Join(outDir, defaultOutputName(f.Path, mode, format))

			mu.Lock()
			prev, dup := claimed[dest]
			if !dup {
				claimed[dest] = f.Path
			}
			mu.Unlock()
			if dup {
				failures[i] = &DirectoryFailure{Source: f.Path, Error: fmt.Sprintf("output %s already written for %s", dest, prev)}
				return nil
			}

			if _, err := s.pathValidator.ValidateOutputPath(dest); err != nil {
				failures[i] = &DirectoryFailure{Source: f.Path, Error: err.Error()}
				return nil
			}
			res, err := s.extractTo(ctx, &batchID, f.Path, dest, mode, format)
			if err != nil {
				failures[i] = &DirectoryFailure{Source: f.Path, Error: err.Error()}
				return nil
			}
			results[i] = res
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, extraction.WrapError(extraction.ErrorTypeCancelled, "directory extraction cancelled", err).WithFile(dir)
	}

	out := &ReportExtractDirectoryResult{
		BatchID:   batchID.String(),
		Directory: dir,
		Report:    string(mode),
		Results:   []ReportExtractResult{},
		Failures:  skipped,
	}
	for i := range files {
		if results[i] != nil {
			out.Results = append(out.Results, *results[i])
		}
		if failures[i] != nil {
			out.Failures = append(out.Failures, *failures[i])
		}
	}
	sort.SliceStable(out.Failures, func(i, j int) bool { return out.Failures[i].Source < out.Failures[j].Source })

	out.Message = fmt.Sprintf("Extracted %d of %d document(s) as %s into %s",
		len(out.Results), len(files)+len(skipped), mode, outDir)
	if n := len(out.Failures); n > 0 {
		out.Message += fmt.Sprintf("; %d failed", n)
	}
	s.logger.Info("batch.finished", "batch_id", batchID, "ok", len(out.Results), "failed", len(out.Failures))
	return out, nil
}

// PreviewReport runs the extraction and returns the records without writing
// anything.
func (s *Service) PreviewReport(ctx context.Context, req ReportPreviewRequest) (*ReportPreviewResult, error) {
	mode, err := extraction.ParseMode(req.Report)
	if err != nil {
		return nil, err
	}
	src, err := s.pathValidator.ValidatePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}

	res, err := s.run(ctx, src, mode)
	if err != nil {
		return nil, err
	}

	out := &ReportPreviewResult{
		Source:        src,
		Report:        string(mode),
		Records:       make([]map[string]string, 0, len(res.Table.Records)),
		Placeholder:   res.Placeholder,
		Pages:         res.Pages,
		TablesSeen:    res.TablesSeen,
		TablesMatched: res.TablesMatched,
		Warnings:      warnings(res.Diagnostics),
	}
	for _, c := range res.Table.Columns {
		out.Columns = append(out.Columns, c.Key)
		out.Labels = append(out.Labels, c.Label)
	}
	for _, rec := range res.Table.Rows() {
		out.Records = append(out.Records, map[string]string(rec))
	}
	return out, nil
}

// ValidateFile performs validation on a PDF file
func (s *Service) ValidateFile(req PDFValidateFileRequest) (*PDFValidateFileResult, error) {
	path, err := s.pathValidator.ValidatePath(req.Path)
	if err != nil {
		return nil, fmt.Errorf("security validation failed: %w", err)
	}
	req.Path = path
	return s.validator.ValidateFile(req)
}

// ListModes describes the supported extraction modes.
func (s *Service) ListModes() []ModeInfo {
	modes := extraction.Modes()
	out := make([]ModeInfo, 0, len(modes))
	for _, m := range modes {
		info := ModeInfo{Name: string(m), Description: m.Description()}
		for _, c := range m.Columns() {
			info.Columns = append(info.Columns, c.Label)
		}
		out = append(out, info)
	}
	return out
}

// History returns the most recent ledger runs.
func (s *Service) History(ctx context.Context, limit int) (*ReportHistoryResult, error) {
	runs, err := s.ledger.Recent(ctx, limit)
	if err != nil {
		return nil, err
	}
	if runs == nil {
		runs = []ledger.Run{}
	}
	return &ReportHistoryResult{Runs: runs, Count: len(runs)}, nil
}

// GetMaxFileSize returns the maximum file size limit
func (s *Service) GetMaxFileSize() int64 {
	return s.maxFileSize
}

// GetConfiguredDirectory returns the sandbox directory
func (s *Service) GetConfiguredDirectory() string {
	return s.pathValidator.GetConfiguredDirectory()
}

// extractTo runs one document end to end and records it in the ledger.
func (s *Service) extractTo(ctx context.Context, batchID *uuid.UUID, src, dest string,
	mode extraction.Mode, format output.Format,
) (*ReportExtractResult, error) {
	if sameFile(src, dest) {
		return nil, fmt.Errorf("output %s would overwrite the input document", dest)
	}

	runID, err := s.ledger.Start(ctx, batchID, src, string(mode), dest, string(format))
	if err != nil {
		s.logger.Warn("ledger.unavailable", "source", src, "err", err)
	}

	fail := func(err error) (*ReportExtractResult, error) {
		s.logger.Error("extract.failed", "source", src, "mode", string(mode), "kind", extraction.TypeOf(err).String(), "err", err)
		if runID != uuid.Nil {
			if lerr := s.ledger.Fail(context.WithoutCancel(ctx), runID, err.Error()); lerr != nil {
				s.logger.Warn("ledger.unavailable", "run_id", runID, "err", lerr)
			}
		}
		return nil, err
	}

	res, err := s.run(ctx, src, mode)
	if err != nil {
		return fail(err)
	}

	enc, err := output.NewEncoder(format)
	if err != nil {
		return fail(err)
	}
	if err := output.Publish(ctx, dest, enc, res.Table); err != nil {
		return fail(err)
	}
	records := len(res.Table.Rows())
	s.logger.Info("output.published", "path", dest, "format", string(format), "records", records)

	if runID != uuid.Nil {
		if err := s.ledger.Finish(context.WithoutCancel(ctx), runID, records); err != nil {
			s.logger.Warn("ledger.unavailable", "run_id", runID, "err", err)
		}
	}

	result := &ReportExtractResult{
		Source:        src,
		Output:        dest,
		Format:        string(format),
		Report:        string(mode),
		Records:       records,
		Pages:         res.Pages,
		TablesMatched: res.TablesMatched,
		Warnings:      warnings(res.Diagnostics),
		Message:       fmt.Sprintf("Successfully extracted %d %s record(s) to %s", records, mode, dest),
	}
	if runID != uuid.Nil {
		result.RunID = runID.String()
	}
	s.logger.Info("extract.ok", "source", src, "mode", string(mode), "records", records,
		"tables_matched", res.TablesMatched, "diagnostics", len(res.Diagnostics))
	return result, nil
}

func (s *Service) run(ctx context.Context, src string, mode extraction.Mode) (*extraction.Result, error) {
	doc, err := s.loader.Load(ctx, src)
	if err != nil {
		return nil, err
	}
	return s.engine.Run(ctx, doc, mode)
}

// resolveOutput picks the destination and format for a single extraction.
// An empty output means <stem>_<mode>.<ext> beside the input; an existing
// directory receives that same name.
func (s *Service) resolveOutput(src, out, formatName string, mode extraction.Mode) (string, output.Format, error) {
	var (
		format   output.Format
		explicit = formatName != ""
		err      error
	)
	if explicit {
		if format, err = output.ParseFormat(formatName); err != nil {
			return "", "", err
		}
	}

	if out != "" {
		resolved, err := s.pathValidator.Resolve(out)
		if err != nil {
			return "", "", err
		}
		if info, err := os.Stat(resolved); err == nil && info.IsDir() {
			out = resolved
		} else {
			inferred, ok := output.FormatFromPath(out)
			switch {
			case !ok && filepath.Ext(out) != "":
				return "", "", fmt.Errorf("unsupported output extension %q (must be one of: .xlsx, .csv, .json)", filepath.Ext(out))
			case !explicit && ok:
				format = inferred
			case !explicit:
				format = output.DefaultFormat
			case ok && inferred != format:
				return "", "", fmt.Errorf("output %s does not match format %s", filepath.Base(out), format)
			}
			dest, err := s.pathValidator.ValidateOutputPath(out)
			if err != nil {
				return "", "", fmt.Errorf("security validation failed: %w", err)
			}
			return dest, format, nil
		}
	}

	if !explicit {
		format = output.DefaultFormat
	}
	dir := filepath.Dir(src)
	if out != "" {
		dir = out
	}
	dest, err := s.pathValidator.ValidateOutputPath(filepath.Join(dir, defaultOutputName(src, mode, format)))
	if err != nil {
		return "", "", fmt.Errorf("security validation failed: %w", err)
	}
	return dest, format, nil
}

// sameFile reports whether dest names src, through symlinks or hard links.
func sameFile(src, dest string) bool {
	if a, err := filepath.EvalSymlinks(src); err == nil {
		src = a
	}
	if b, err := filepath.EvalSymlinks(dest); err == nil {
		dest = b
	}
	if filepath.Clean(src) == filepath.Clean(dest) {
		return true
	}
	si, err := os.Stat(src)
	if err != nil {
		return false
	}
	di, err := os.Stat(dest)
	if err != nil {
		return false
	}
	return os.SameFile(si, di)
}

func defaultOutputName(src string, mode extraction.Mode, format output.Format) string {
	base := filepath.Base(src)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	return stem + "_" + string(mode) + format.Extension()
}

// warnings flattens diagnostics for callers. Missing fields are listed on
// one line.
func warnings(diags []*extraction.Error) []string {
	var (
		out     []string
		missing []string
	)
	for _, d := range diags {
		if d.Type == extraction.ErrorTypeFieldNotFound {
			missing = append(missing, d.Field)
			continue
		}
		out = append(out, d.Error())
	}
	if len(missing) > 0 {
		out = append(out, fmt.Sprintf("%d field(s) not found: %s", len(missing), strings.Join(missing, ", ")))
	}
	return out
}
