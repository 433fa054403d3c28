// Package security provides validation utilities for files pluginmgmt reads or executes.
package security

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// ValidateExecutable checks that path refers to a regular, executable file.
// Gateway executables are launched as child processes, so directories,
// devices and non-executable files are rejected before exec.
func ValidateExecutable(path string) error {
	if path == "" {
		return fmt.Errorf("empty executable path")
	}

	info, err := os.Stat(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("invalid executable: %w", err)
	}

	if !info.Mode().IsRegular() {
		return fmt.Errorf("executable must be a regular file: %s", path)
	}

	if info.Mode().Perm()&0o111 == 0 {
		return fmt.Errorf("file is not executable: %s", path)
	}

	return nil
}

// LimitedReader wraps an io.Reader and limits the total bytes that can be read.
// This prevents decompression bomb attacks when reading compressed plugin lists.
type LimitedReader struct {
	R         io.Reader
	Remaining int64
}

// Read implements io.Reader with size limits.
func (l *LimitedReader) Read(p []byte) (int, error) {
	if l.Remaining <= 0 {
		return 0, fmt.Errorf("decompression size limit exceeded")
	}
	if int64(len(p)) > l.Remaining {
		p = p[:l.Remaining]
	}
	n, err := l.R.Read(p)
	l.Remaining -= int64(n)
	return n, err
}

// NewLimitedReader creates a new LimitedReader with the specified size limit.
func NewLimitedReader(r io.Reader, maxBytes int64) *LimitedReader {
	return &LimitedReader{
		R:         r,
		Remaining: maxBytes,
	}
}
