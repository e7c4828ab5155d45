package ingest

import (
	"fmt"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// FilterRows keeps the rows of d whose column equals raw. For a numeric
// column raw is parsed with the same locale rules used at load time, so
// "1.000" matches a cell read as 1000 under a dot thousands separator.
func FilterRows(d *dataset.Dataset, column, raw string, opt Options) (*dataset.Dataset, error) {
	col, _, ok := d.ColumnByName(column)
	if !ok {
		return nil, &dataset.InputError{Reason: "unknown column", Row: -1, Column: column}
	}
	value := dataset.Str(raw)
	if col.Kind() == dataset.NumericColumn {
		v, ok := ParseNumber(raw, opt)
		if !ok {
			return nil, &dataset.InputError{
				Reason: fmt.Sprintf("column is numeric; %q is not a number", raw),
				Row:    -1,
				Column: column,
			}
		}
		value = dataset.Num(v)
	}
	return d.Filter(column, value)
}
