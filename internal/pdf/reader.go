package pdf

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// DocumentLoader turns a file into the page texts and table grids the
// extraction engine consumes.
type DocumentLoader interface {
	Load(ctx context.Context, path string) (*extraction.RawDocument, error)
}

// Reader handles PDF file reading operations
type Reader struct {
	maxFileSize int64
	maxTextSize int
	grid        GridOptions
	logger      *slog.Logger
}

// NewReader creates a new PDF reader with the specified constraints
func NewReader(maxFileSize int64, logger *slog.Logger) *Reader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reader{
		maxFileSize: maxFileSize,
		maxTextSize: 10 * 1024 * 1024, // 10MB text limit
		grid:        DefaultGridOptions(),
		logger:      logger,
	}
}

// Load reads every page of the PDF at path: plain reading-order text plus
// tables rebuilt from positioned text. Any failure is an adapter failure.
func (r *Reader) Load(ctx context.Context, path string) (doc *extraction.RawDocument, err error) {
	fail := func(msg string, cause error) *extraction.Error {
		return extraction.WrapError(extraction.ErrorTypeAdapterFailure, msg, cause).WithFile(path)
	}

	if path == "" {
		return nil, fail("path cannot be empty", nil)
	}
	fileInfo, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, fail("file does not exist", err)
	}
	if err != nil {
		return nil, fail("cannot access file", err)
	}
	if err := r.validatePDFFile(path, fileInfo); err != nil {
		return nil, fail("invalid input", err)
	}

	f, pdfReader, err := pdf.Open(path)
	if err != nil {
		return nil, fail("failed to open PDF", err)
	}
	defer f.Close()

	// ledongthuc/pdf panics on some malformed content streams
	defer func() {
		if p := recover(); p != nil {
			doc, err = nil, fail("PDF content could not be parsed", fmt.Errorf("%v", p))
		}
	}()

	pages, err := r.readPages(ctx, path, pdfReader)
	if err != nil {
		return nil, err
	}
	return extraction.NewRawDocument(path, pages), nil
}

// validatePDFFile performs basic validation on a PDF file
func (r *Reader) validatePDFFile(filePath string, fileInfo os.FileInfo) error {
	if fileInfo.IsDir() {
		return fmt.Errorf("path is a directory, not a file: %s", filePath)
	}
	if !strings.HasSuffix(strings.ToLower(filePath), ".pdf") {
		return fmt.Errorf("file is not a PDF: %s", filePath)
	}
	if fileInfo.Size() > r.maxFileSize {
		return fmt.Errorf("file too large: %d bytes (max: %d bytes)",
			fileInfo.Size(), r.maxFileSize)
	}
	return nil
}

// readPages extracts text and tables page by page. Fonts are cached across
// pages so shared encodings are decoded once.
func (r *Reader) readPages(ctx context.Context, path string, pdfReader *pdf.Reader) ([]extraction.Page, error) {
	numPages := pdfReader.NumPage()
	fonts := make(map[string]*pdf.Font)
	pages := make([]extraction.Page, 0, numPages)
	totalLength := 0

	for pageNum := 1; pageNum <= numPages; pageNum++ {
		if err := ctx.Err(); err != nil {
			return nil, extraction.WrapError(extraction.ErrorTypeCancelled, "reading cancelled", err).WithFile(path)
		}

		page := pdfReader.Page(pageNum)
		if page.V.IsNull() {
			pages = append(pages, extraction.Page{})
			continue
		}

		for _, name := range page.Fonts() {
			if _, ok := fonts[name]; !ok {
				font := page.Font(name)
				fonts[name] = &font
			}
		}

		text, err := page.GetPlainText(fonts)
		if err != nil {
			return nil, extraction.WrapError(extraction.ErrorTypeAdapterFailure,
				fmt.Sprintf("failed to extract text from page %d", pageNum), err).WithFile(path)
		}
		if totalLength+len(text) > r.maxTextSize {
			return nil, extraction.NewError(extraction.ErrorTypeAdapterFailure,
				fmt.Sprintf("text content exceeds %d bytes", r.maxTextSize)).WithFile(path)
		}
		totalLength += len(text)

		tables := BuildTables(page.Content().Text, r.grid)
		r.logger.Debug("pdf.page.read", "source", path, "page", pageNum, "chars", len(text), "tables", len(tables))
		pages = append(pages, extraction.Page{Text: text, Tables: tables})
	}

	if totalLength == 0 {
		r.logger.Warn("pdf.no_text", "source", path, "pages", numPages)
	}
	return pages, nil
}
