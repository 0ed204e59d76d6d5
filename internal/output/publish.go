package output

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/a3tai/mcp-report-extractor/internal/extraction"
)

// Publish encodes table into a temporary file next to dest and renames it
// into place once fully written. A failed or cancelled publish removes the
// temporary file and leaves any existing dest untouched.
func Publish(ctx context.Context, dest string, enc Encoder, table *extraction.OutputTable) (err error) {
	if table == nil {
		return extraction.NewError(extraction.ErrorTypeOutputFailure, "no table to write").WithFile(dest)
	}
	if err := ctx.Err(); err != nil {
		return extraction.WrapError(extraction.ErrorTypeCancelled, "publish cancelled", err).WithFile(dest)
	}

	dir := filepath.Dir(dest)
	info, statErr := os.Stat(dir)
	if statErr != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "output directory not accessible", statErr).WithFile(dest)
	}
	if !info.IsDir() {
		return extraction.NewError(extraction.ErrorTypeOutputFailure, "output parent is not a directory").WithFile(dest)
	}

	tmp, err := os.CreateTemp(dir, "."+filepath.Base(dest)+".*.tmp")
	if err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "create temporary file", err).WithFile(dest)
	}
	tmpName := tmp.Name()
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = enc.Encode(bw, table); err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, fmt.Sprintf("encode %s", enc.Format()), err).WithFile(dest)
	}
	if err = bw.Flush(); err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "flush output", err).WithFile(dest)
	}
	if err = tmp.Sync(); err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "sync output", err).WithFile(dest)
	}
	if err = tmp.Close(); err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "close output", err).WithFile(dest)
	}
	if err = os.Chmod(tmpName, 0o644); err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "chmod output", err).WithFile(dest)
	}

	if err = ctx.Err(); err != nil {
		return extraction.WrapError(extraction.ErrorTypeCancelled, "publish cancelled", err).WithFile(dest)
	}
	if err = os.Rename(tmpName, dest); err != nil {
		return extraction.WrapError(extraction.ErrorTypeOutputFailure, "publish output", err).WithFile(dest)
	}
	return nil
}

// IsCancelled reports whether err came from a cancelled publish or extraction.
func IsCancelled(err error) bool {
	return extraction.IsType(err, extraction.ErrorTypeCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
