// Package cleaning applies the structural cleaning pass: empty columns,
// empty rows and exact duplicate rows are removed and the result is
// relabelled. Values are never coerced or imputed.
package cleaning

import (
	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// Result is the cleaned table plus how many rows were dropped.
type Result struct {
	Dataset     *dataset.Dataset
	RowsRemoved int
}

// Clean removes entirely-empty columns, then entirely-empty rows, then
// duplicate rows (first occurrence wins) and resets row labels to 0..n-1.
// Columns are dropped first so a row whose only values sat in an empty
// column is still recognised as empty. The input is not modified.
func Clean(d *dataset.Dataset) (Result, error) {
	if err := d.Validate(); err != nil {
		return Result{}, err
	}
	before := d.NumRows()
	if before == 0 {
		return Result{Dataset: d.Reindex()}, nil
	}

	var keepCols []int
	for j := 0; j < d.NumCols(); j++ {
		if !allMissing(d.Column(j)) {
			keepCols = append(keepCols, j)
		}
	}
	trimmed := d.SelectColumns(keepCols)

	seen := make(map[string]struct{}, before)
	keepRows := make([]int, 0, before)
	for r := 0; r < trimmed.NumRows(); r++ {
		if emptyRow(trimmed, r) {
			continue
		}
		k := trimmed.RowKey(r)
		if _, dup := seen[k]; dup {
			continue
		}
		seen[k] = struct{}{}
		keepRows = append(keepRows, r)
	}

	out := trimmed.SelectRows(keepRows).Reindex()
	return Result{Dataset: out, RowsRemoved: before - out.NumRows()}, nil
}

func allMissing(c dataset.Column) bool {
	for i := 0; i < c.Len(); i++ {
		if !c.At(i).IsMissing() {
			return false
		}
	}
	return true
}

func emptyRow(d *dataset.Dataset, r int) bool {
	for j := 0; j < d.NumCols(); j++ {
		if !d.Cell(r, j).IsMissing() {
			return false
		}
	}
	return true
}
