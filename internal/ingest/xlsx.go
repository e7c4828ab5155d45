package ingest

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// LoadXLSX reads one worksheet. The first row is the header; header cells
// missing at the end of a wider data row become "Unnamed: <i>".
func LoadXLSX(path string, opt Options) (*Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat xlsx: %w", err)
	}
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return loadWorkbook(f, filepath.Base(path), info.Size(), opt)
}

// LoadXLSXReader is LoadXLSX for an uploaded stream.
func LoadXLSXReader(r io.Reader, name string, size int64, opt Options) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open xlsx: %w", err)
	}
	defer f.Close()
	return loadWorkbook(f, name, size, opt)
}

func loadWorkbook(f *excelize.File, name string, size int64, opt Options) (*Result, error) {
	sheet, err := pickSheet(f.GetSheetList(), opt)
	if err != nil {
		return nil, err
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	res := &Result{Name: name, Bytes: size}
	if len(rows) == 0 {
		ds, _ := build(nil, nil, opt)
		res.Dataset = ds
		return res, nil
	}
	header, data := rows[0], rows[1:]
	limit, sampled := opt.rowLimit(size)
	if limit > 0 && len(data) > limit {
		data = data[:limit]
	}
	res.Sampled = sampled

	width := len(header)
	for _, r := range data {
		if len(r) > width {
			width = len(r)
		}
	}
	if width > len(header) {
		wide := make([]string, width)
		copy(wide, header)
		header = wide
	}

	ds, err := build(header, data, opt)
	if err != nil {
		return nil, err
	}
	res.Dataset = ds
	return res, nil
}

func pickSheet(sheets []string, opt Options) (string, error) {
	if len(sheets) == 0 {
		return "", fmt.Errorf("workbook has no sheets")
	}
	if opt.Sheet != "" {
		for _, s := range sheets {
			if s == opt.Sheet {
				return s, nil
			}
		}
		return "", fmt.Errorf("sheet %q not found (have %v)", opt.Sheet, sheets)
	}
	if opt.SheetIndex > 0 {
		if opt.SheetIndex > len(sheets) {
			return "", fmt.Errorf("sheet index %d out of range (1-%d)", opt.SheetIndex, len(sheets))
		}
		return sheets[opt.SheetIndex-1], nil
	}
	return sheets[0], nil
}
