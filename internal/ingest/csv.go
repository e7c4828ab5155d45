package ingest

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
)

// LoadCSV reads a delimited table with a header row. size is the input's
// byte length and only drives sampling; pass -1 when unknown.
func LoadCSV(r io.Reader, name string, size int64, opt Options) (*Result, error) {
	br := bufio.NewReader(r)
	delim := opt.Delimiter
	if delim == 0 {
		delim = sniffDelimiter(name, br)
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.LazyQuotes = true
	cr.Comma = delim

	res := &Result{Name: name, Bytes: size}
	limit, sampled := opt.rowLimit(size)

	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			ds, _ := build(nil, nil, opt)
			res.Dataset = ds
			return res, nil
		}
		return nil, fmt.Errorf("read header: %w", err)
	}

	var records [][]string
	for {
		if limit > 0 && len(records) >= limit {
			break
		}
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("read row %d: %w", len(records)+1, err)
		}
		records = append(records, rec)
	}
	res.Sampled = sampled

	ds, err := build(header, records, opt)
	if err != nil {
		return nil, err
	}
	res.Dataset = ds
	return res, nil
}

// sniffDelimiter prefers the extension, then the most frequent of
// ',', ';' and tab on the header line.
func sniffDelimiter(name string, br *bufio.Reader) rune {
	if strings.HasSuffix(strings.ToLower(name), ".tsv") {
		return '\t'
	}
	peek, _ := br.Peek(4096)
	if i := bytes.IndexByte(peek, '\n'); i >= 0 {
		peek = peek[:i]
	}
	best, bestN := ',', bytes.Count(peek, []byte{','})
	for _, c := range []rune{';', '\t'} {
		if n := bytes.Count(peek, []byte{byte(c)}); n > bestN {
			best, bestN = c, n
		}
	}
	return best
}
