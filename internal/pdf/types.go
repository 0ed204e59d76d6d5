package pdf

import "github.com/a3tai/mcp-report-extractor/internal/ledger"

// FileInfo represents information about a PDF file
type FileInfo struct {
	Path         string `json:"path"`
	Name         string `json:"name"`
	Size         int64  `json:"size"`
	ModifiedTime string `json:"modified_time"`
}

// Request Types

// ReportExtractRequest asks for one document to be extracted to a file.
type ReportExtractRequest struct {
	Path   string `json:"path"`
	Report string `json:"report"`           // basic, rearrangement, mutation
	Output string `json:"output,omitempty"` // defaults to <stem>_<report>.<ext> next to the input
	Format string `json:"format,omitempty"` // xlsx, csv, json; inferred from Output when empty
}

// ReportExtractDirectoryRequest asks for every PDF in a directory to be extracted.
type ReportExtractDirectoryRequest struct {
	Directory string `json:"directory"`
	Report    string `json:"report"`
	OutputDir string `json:"output_dir,omitempty"` // defaults to Directory
	Format    string `json:"format,omitempty"`
}

// ReportPreviewRequest asks for records without writing a file.
type ReportPreviewRequest struct {
	Path   string `json:"path"`
	Report string `json:"report"`
}

// PDFValidateFileRequest represents a request to validate a PDF file
type PDFValidateFileRequest struct {
	Path string `json:"path"`
}

// Response Types

// ReportExtractResult describes a published output file.
type ReportExtractResult struct {
	RunID         string   `json:"run_id"`
	Source        string   `json:"source"`
	Output        string   `json:"output"`
	Format        string   `json:"format"`
	Report        string   `json:"report"`
	Records       int      `json:"records"`
	Pages         int      `json:"pages"`
	TablesMatched int      `json:"tables_matched"`
	Warnings      []string `json:"warnings,omitempty"`
	Message       string   `json:"message"`
}

// DirectoryFailure is one document a batch could not extract.
type DirectoryFailure struct {
	Source string `json:"source"`
	Error  string `json:"error"`
}

// ReportExtractDirectoryResult summarises a batch run.
type ReportExtractDirectoryResult struct {
	BatchID   string                `json:"batch_id"`
	Directory string                `json:"directory"`
	Report    string                `json:"report"`
	Results   []ReportExtractResult `json:"results"`
	Failures  []DirectoryFailure    `json:"failures,omitempty"`
	Message   string                `json:"message"`
}

// ReportPreviewResult holds records as they would be written.
type ReportPreviewResult struct {
	Source        string              `json:"source"`
	Report        string              `json:"report"`
	Columns       []string            `json:"columns"`
	Labels        []string            `json:"labels"`
	Records       []map[string]string `json:"records"`
	Placeholder   bool                `json:"placeholder"`
	Pages         int                 `json:"pages"`
	TablesSeen    int                 `json:"tables_seen"`
	TablesMatched int                 `json:"tables_matched"`
	Warnings      []string            `json:"warnings,omitempty"`
}

// PDFValidateFileResult represents the result of a PDF validation operation
type PDFValidateFileResult struct {
	Valid     bool   `json:"valid"`
	Path      string `json:"path"`
	Pages     int    `json:"pages,omitempty"`
	Version   string `json:"version,omitempty"`
	Encrypted bool   `json:"encrypted,omitempty"`
	Message   string `json:"message,omitempty"`
}

// ModeInfo describes one extraction mode.
type ModeInfo struct {
	Name        string   `json:"name"`
	Description string   `json:"description"`
	Columns     []string `json:"columns"`
}

// ReportHistoryResult lists recent ledger runs.
type ReportHistoryResult struct {
	Runs  []ledger.Run `json:"runs"`
	Count int          `json:"count"`
}
