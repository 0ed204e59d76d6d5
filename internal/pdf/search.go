package pdf

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Search handles PDF discovery for batch runs
type Search struct {
	maxFileSize int64
	validator   *Validator
}

// NewSearch creates a new PDF search handler with the specified constraints
func NewSearch(maxFileSize int64) *Search {
	return &Search{
		maxFileSize: maxFileSize,
		validator:   NewValidator(maxFileSize),
	}
}

// FindPDFs lists the PDF files directly inside directory, sorted by name.
// Subdirectories are not descended into. Files failing the quick checks
// (empty, too large) are returned in skipped with the reason.
func (s *Search) FindPDFs(directory string) (files []FileInfo, skipped []DirectoryFailure, err error) {
	if directory == "" {
		return nil, nil, fmt.Errorf("directory cannot be empty")
	}

	absDirectory, err := filepath.Abs(directory)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to resolve directory path: %w", err)
	}

	entries, err := os.ReadDir(absDirectory)
	if os.IsNotExist(err) {
		return nil, nil, fmt.Errorf("directory does not exist: %s", directory)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("cannot read directory: %w", err)
	}

	for _, d := range entries {
		if d.IsDir() || !s.isPDFFile(d.Name()) {
			continue
		}
		path := filepath.Join(absDirectory, d.Name())

		info, err := d.Info()
		if err != nil {
			skipped = append(skipped, DirectoryFailure{Source: path, Error: err.Error()})
			continue
		}

		// Quick validation without opening the file
		if err := s.validator.ValidateFileInfo(path, info); err != nil {
			skipped = append(skipped, DirectoryFailure{Source: path, Error: err.Error()})
			continue
		}

		files = append(files, FileInfo{
			Path:         path,
			Name:         info.Name(),
			Size:         info.Size(),
			ModifiedTime: info.ModTime().Format("2006-01-02 15:04:05"),
		})
	}

	sort.Slice(files, func(i, j int) bool { return files[i].Name < files[j].Name })
	return files, skipped, nil
}

// isPDFFile checks if a file has a PDF extension
func (s *Search) isPDFFile(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".pdf")
}
