package ingest

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// headerNames trims names, fills blanks with "Unnamed: <i>" and suffixes
// repeats as name.1, name.2, ...
func headerNames(raw []string) []string {
	out := make([]string, len(raw))
	used := make(map[string]struct{}, len(raw))
	for i, h := range raw {
		name := strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if name == "" {
			name = "Unnamed: " + strconv.Itoa(i)
		}
		if _, dup := used[name]; dup {
			for n := 1; ; n++ {
				cand := name + "." + strconv.Itoa(n)
				if _, taken := used[cand]; !taken {
					name = cand
					break
				}
			}
		}
		used[name] = struct{}{}
		out[i] = name
	}
	return out
}

// build converts raw string records into a dataset. Records shorter than the
// header are padded with missing cells; longer ones are rejected.
func build(header []string, records [][]string, opt Options) (*dataset.Dataset, error) {
	names := headerNames(header)
	ncol := len(names)
	for r, rec := range records {
		if len(rec) > ncol {
			return nil, &dataset.InputError{
				Reason: fmt.Sprintf("row has %d values, expected %d", len(rec), ncol),
				Row:    r,
			}
		}
	}

	cols := make([]dataset.Column, ncol)
	for j := 0; j < ncol; j++ {
		tokens := make([]string, len(records))
		missing := make([]bool, len(records))
		numeric := true
		nums := make([]float64, len(records))
		for r, rec := range records {
			if j >= len(rec) {
				missing[r] = true
				continue
			}
			v := strings.TrimSpace(rec[j])
			tokens[r] = v
			if IsMissingToken(v) {
				missing[r] = true
				continue
			}
			if numeric {
				if x, ok := ParseNumber(v, opt); ok {
					nums[r] = x
				} else {
					numeric = false
				}
			}
		}
		cells := make([]dataset.Cell, len(records))
		for r := range records {
			switch {
			case missing[r]:
				cells[r] = dataset.Null()
			case numeric:
				cells[r] = dataset.Num(nums[r])
			default:
				cells[r] = dataset.Str(tokens[r])
			}
		}
		cols[j] = dataset.NewColumn(names[j], cells)
	}
	return dataset.FromColumns(cols, nil)
}
