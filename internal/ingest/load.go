package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadFile dispatches on extension: .csv, .tsv or .xlsx.
func LoadFile(path string, opt Options) (*Result, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".xlsx":
		return LoadXLSX(path, opt)
	case ".csv", ".tsv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open csv: %w", err)
		}
		defer f.Close()
		info, err := f.Stat()
		if err != nil {
			return nil, fmt.Errorf("stat csv: %w", err)
		}
		return LoadCSV(f, filepath.Base(path), info.Size(), opt)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv, .tsv or .xlsx)", ext)
	}
}

// LoadReader reads an uploaded stream, choosing the format from name.
func LoadReader(r io.Reader, name string, size int64, opt Options) (*Result, error) {
	switch ext := strings.ToLower(filepath.Ext(name)); ext {
	case ".xlsx":
		return LoadXLSXReader(r, name, size, opt)
	case ".csv", ".tsv":
		return LoadCSV(r, name, size, opt)
	default:
		return nil, fmt.Errorf("unsupported file type %q (want .csv, .tsv or .xlsx)", ext)
	}
}

// Supported reports whether LoadFile can read the named file.
func Supported(name string) bool {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".tsv", ".xlsx":
		return true
	}
	return false
}
