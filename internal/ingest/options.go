// Package ingest turns CSV, TSV and XLSX files into datasets. Column types
// are decided once per column: a column is numeric only when every
// non-missing token parses as a number.
package ingest

import "github.com/KaramelBytes/prism-cli/internal/dataset"

// Options controls parsing and sampling.
type Options struct {
	// Delimiter for CSV. If 0, detected from the extension and header line.
	Delimiter rune
	// Numeric parsing locale. If DecimalSeparator is 0, auto-detect per value.
	DecimalSeparator   rune
	ThousandsSeparator rune
	// Inputs larger than SampleThresholdBytes are cut to the first
	// SampleRows data rows. 0 disables sampling.
	SampleThresholdBytes int64
	SampleRows           int
	// MaxRows caps rows read regardless of size; 0 means unlimited.
	MaxRows int
	// XLSX sheet selection: by name, else 1-based index, else the first sheet.
	Sheet      string
	SheetIndex int
}

// DefaultOptions samples uploads above 200 MiB down to 10 000 rows.
func DefaultOptions() Options {
	return Options{
		SampleThresholdBytes: 200 << 20,
		SampleRows:           10000,
	}
}

// Result is a loaded dataset plus provenance.
type Result struct {
	Dataset *dataset.Dataset
	Name    string
	// Sampled is set when only the head of an oversized input was read.
	Sampled bool
	Bytes   int64
}

func (o Options) rowLimit(size int64) (limit int, sampled bool) {
	limit = o.MaxRows
	if o.SampleThresholdBytes > 0 && size > o.SampleThresholdBytes && o.SampleRows > 0 {
		if limit == 0 || o.SampleRows < limit {
			limit = o.SampleRows
		}
		sampled = true
	}
	return limit, sampled
}
