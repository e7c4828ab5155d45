package analysis

import (
	"sort"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// ValueCounts returns the n most frequent non-missing values of the named
// column, most frequent first. Equal counts keep first-seen order. n <= 0
// returns every value.
func ValueCounts(d *dataset.Dataset, column string, n int) ([]CategoryCount, error) {
	col, _, ok := d.ColumnByName(column)
	if !ok {
		return nil, &dataset.InputError{Reason: "unknown column", Row: -1, Column: column}
	}
	return ValueCountsOf(col, n), nil
}

// ValueCountsOf is ValueCounts for a column already in hand.
func ValueCountsOf(col dataset.Column, n int) []CategoryCount {
	idx := make(map[string]int)
	var out []CategoryCount
	for i := 0; i < col.Len(); i++ {
		c := col.At(i)
		if c.IsMissing() {
			continue
		}
		k := dataset.ValueKey(c)
		if p, ok := idx[k]; ok {
			out[p].Count++
			continue
		}
		idx[k] = len(out)
		out = append(out, CategoryCount{Value: c.String(), Count: 1})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Count > out[j].Count })
	if n > 0 && len(out) > n {
		out = out[:n]
	}
	return out
}

// Chart is the bar chart shown next to the revenue target: the top value
// counts of the first text column.
type Chart struct {
	Column string          `json:"column"`
	Bars   []CategoryCount `json:"bars"`
}

// ChartData builds the bar chart for d. It reports false when d has no
// text columns.
func ChartData(d *dataset.Dataset, n int) (Chart, bool) {
	if d == nil {
		return Chart{}, false
	}
	text := d.TextColumns()
	if len(text) == 0 {
		return Chart{}, false
	}
	col := d.Column(text[0])
	return Chart{Column: col.Name(), Bars: ValueCountsOf(col, n)}, true
}
