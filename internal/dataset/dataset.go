// Package dataset holds the in-memory table model shared by ingestion,
// cleaning, metrics and the dashboard. A Dataset is immutable: every
// operation returns a new value and never edits the receiver.
package dataset

import (
	"fmt"
	"strings"
)

// ColumnKind is the type of a column, inferred once at construction.
type ColumnKind uint8

const (
	// EmptyColumn columns have no non-missing cells.
	EmptyColumn ColumnKind = iota
	// NumericColumn columns hold only numbers (and missing cells).
	NumericColumn
	// TextColumn columns hold at least one text cell.
	TextColumn
)

func (k ColumnKind) String() string {
	switch k {
	case NumericColumn:
		return "numeric"
	case TextColumn:
		return "text"
	default:
		return "empty"
	}
}

// Column is a named sequence of cells.
type Column struct {
	name  string
	kind  ColumnKind
	cells []Cell
}

// NewColumn copies cells into a new column and infers its kind.
func NewColumn(name string, cells []Cell) Column {
	cp := make([]Cell, len(cells))
	copy(cp, cells)
	return newColumn(name, cp)
}

func newColumn(name string, cells []Cell) Column {
	kind := EmptyColumn
	for _, c := range cells {
		switch c.kind {
		case Text:
			return Column{name: name, kind: TextColumn, cells: cells}
		case Number:
			kind = NumericColumn
		}
	}
	return Column{name: name, kind: kind, cells: cells}
}

func (c Column) Name() string     { return c.name }
func (c Column) Kind() ColumnKind { return c.kind }
func (c Column) Len() int         { return len(c.cells) }

// At returns the cell at row position i.
func (c Column) At(i int) Cell { return c.cells[i] }

// Cells returns a copy of the column's cells.
func (c Column) Cells() []Cell {
	cp := make([]Cell, len(c.cells))
	copy(cp, c.cells)
	return cp
}

// Floats returns the non-missing numeric values in row order.
func (c Column) Floats() []float64 {
	out := make([]float64, 0, len(c.cells))
	for _, cell := range c.cells {
		if v, ok := cell.Float(); ok {
			out = append(out, v)
		}
	}
	return out
}

// Dataset is an ordered set of equally long, uniquely named columns with
// an integer row label per row.
type Dataset struct {
	cols  []Column
	index []int
}

// New builds a Dataset from row-major cells. Every row must have exactly
// len(names) cells and names must be unique; otherwise an *InputError is
// returned and nothing is built.
func New(names []string, rows [][]Cell) (*Dataset, error) {
	if err := checkNames(names); err != nil {
		return nil, err
	}
	for r, row := range rows {
		if len(row) != len(names) {
			return nil, &InputError{
				Reason: fmt.Sprintf("row has %d values, expected %d", len(row), len(names)),
				Row:    r,
			}
		}
	}
	cols := make([]Column, len(names))
	for j, name := range names {
		cells := make([]Cell, len(rows))
		for r, row := range rows {
			cells[r] = row[j]
		}
		cols[j] = newColumn(name, cells)
	}
	return &Dataset{cols: cols, index: seq(len(rows))}, nil
}

// FromColumns builds a Dataset from columns. A nil index labels rows
// 0..n-1. With zero columns the row count comes from the index.
func FromColumns(cols []Column, index []int) (*Dataset, error) {
	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.name
	}
	if err := checkNames(names); err != nil {
		return nil, err
	}
	n := len(index)
	if index == nil && len(cols) > 0 {
		n = cols[0].Len()
	}
	for _, c := range cols {
		if c.Len() != n {
			return nil, &InputError{
				Reason: fmt.Sprintf("column has %d values, expected %d", c.Len(), n),
				Row:    -1,
				Column: c.name,
			}
		}
	}
	idx := seq(n)
	if index != nil {
		idx = make([]int, n)
		copy(idx, index)
	}
	out := make([]Column, len(cols))
	copy(out, cols)
	return &Dataset{cols: out, index: idx}, nil
}

func checkNames(names []string) error {
	seen := make(map[string]struct{}, len(names))
	for _, n := range names {
		if _, dup := seen[n]; dup {
			return &InputError{Reason: "duplicate column name", Row: -1, Column: n}
		}
		seen[n] = struct{}{}
	}
	return nil
}

func seq(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// Validate re-checks the rectangular and unique-name invariants.
func (d *Dataset) Validate() error {
	if d == nil {
		return inputErr("dataset is nil")
	}
	names := make([]string, len(d.cols))
	for i, c := range d.cols {
		names[i] = c.name
		if c.Len() != len(d.index) {
			return &InputError{
				Reason: fmt.Sprintf("column has %d values, expected %d", c.Len(), len(d.index)),
				Row:    -1,
				Column: c.name,
			}
		}
	}
	return checkNames(names)
}

func (d *Dataset) NumRows() int { return len(d.index) }
func (d *Dataset) NumCols() int { return len(d.cols) }

// Empty reports whether the dataset has no rows or no columns.
func (d *Dataset) Empty() bool { return len(d.index) == 0 || len(d.cols) == 0 }

// Names returns the column names in order.
func (d *Dataset) Names() []string {
	out := make([]string, len(d.cols))
	for i, c := range d.cols {
		out[i] = c.name
	}
	return out
}

// Column returns the column at position i.
func (d *Dataset) Column(i int) Column { return d.cols[i] }

// ColumnByName returns the named column and its position.
func (d *Dataset) ColumnByName(name string) (Column, int, bool) {
	for i, c := range d.cols {
		if c.name == name {
			return c, i, true
		}
	}
	return Column{}, -1, false
}

// Cell returns the value at row position r, column position c.
func (d *Dataset) Cell(r, c int) Cell { return d.cols[c].cells[r] }

// Row returns a copy of row position r.
func (d *Dataset) Row(r int) []Cell {
	out := make([]Cell, len(d.cols))
	for j, c := range d.cols {
		out[j] = c.cells[r]
	}
	return out
}

// Label returns the row label at position r.
func (d *Dataset) Label(r int) int { return d.index[r] }

// Index returns a copy of the row labels.
func (d *Dataset) Index() []int {
	out := make([]int, len(d.index))
	copy(out, d.index)
	return out
}

// NumericColumns returns the positions of numeric columns in order.
func (d *Dataset) NumericColumns() []int { return d.columnsOfKind(NumericColumn) }

// TextColumns returns the positions of text columns in order.
func (d *Dataset) TextColumns() []int { return d.columnsOfKind(TextColumn) }

func (d *Dataset) columnsOfKind(k ColumnKind) []int {
	var out []int
	for i, c := range d.cols {
		if c.kind == k {
			out = append(out, i)
		}
	}
	return out
}

// SelectRows returns the rows at the given positions, keeping their labels.
// Column kinds are carried over rather than re-inferred.
func (d *Dataset) SelectRows(positions []int) *Dataset {
	cols := make([]Column, len(d.cols))
	for j, c := range d.cols {
		cells := make([]Cell, len(positions))
		for i, p := range positions {
			cells[i] = c.cells[p]
		}
		cols[j] = Column{name: c.name, kind: c.kind, cells: cells}
	}
	idx := make([]int, len(positions))
	for i, p := range positions {
		idx[i] = d.index[p]
	}
	return &Dataset{cols: cols, index: idx}
}

// SelectColumns returns the columns at the given positions.
func (d *Dataset) SelectColumns(positions []int) *Dataset {
	cols := make([]Column, len(positions))
	for i, p := range positions {
		cols[i] = d.cols[p]
	}
	return &Dataset{cols: cols, index: d.Index()}
}

// Head returns the first n rows.
func (d *Dataset) Head(n int) *Dataset {
	if n < 0 {
		n = 0
	}
	if n > d.NumRows() {
		n = d.NumRows()
	}
	pos := seq(n)
	return d.SelectRows(pos)
}

// Reindex returns a copy labelled 0..n-1.
func (d *Dataset) Reindex() *Dataset {
	cols := make([]Column, len(d.cols))
	copy(cols, d.cols)
	return &Dataset{cols: cols, index: seq(len(d.index))}
}

// Filter keeps the rows whose cell in column equals value. Row labels are
// preserved so anomaly locations still point at the unfiltered table.
func (d *Dataset) Filter(column string, value Cell) (*Dataset, error) {
	col, _, ok := d.ColumnByName(column)
	if !ok {
		return nil, &InputError{Reason: "unknown column", Row: -1, Column: column}
	}
	var keep []int
	for i, c := range col.cells {
		if c.Equal(value) {
			keep = append(keep, i)
		}
	}
	return d.SelectRows(keep), nil
}

// Distinct returns the column's non-missing values in first-seen order.
func (d *Dataset) Distinct(column string) ([]Cell, error) {
	col, _, ok := d.ColumnByName(column)
	if !ok {
		return nil, &InputError{Reason: "unknown column", Row: -1, Column: column}
	}
	return distinct(col.cells), nil
}

func distinct(cells []Cell) []Cell {
	seen := make(map[string]struct{})
	var out []Cell
	for _, c := range cells {
		if c.IsMissing() {
			continue
		}
		k := c.key()
		if _, ok := seen[k]; ok {
			continue
		}
		seen[k] = struct{}{}
		out = append(out, c)
	}
	return out
}

// RowKey returns a stable encoding of row r suitable for equality checks.
func (d *Dataset) RowKey(r int) string {
	var b strings.Builder
	for j, c := range d.cols {
		if j > 0 {
			b.WriteByte(0x1f)
		}
		b.WriteString(c.cells[r].key())
	}
	return b.String()
}

// ValueKey returns a stable encoding of a cell for map keys.
func ValueKey(c Cell) string { return c.key() }
