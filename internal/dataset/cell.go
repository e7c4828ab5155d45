package dataset

import (
	"math"
	"strconv"
)

// CellKind tags the value held by a Cell.
type CellKind uint8

const (
	Missing CellKind = iota
	Number
	Text
)

func (k CellKind) String() string {
	switch k {
	case Number:
		return "number"
	case Text:
		return "text"
	default:
		return "missing"
	}
}

// Cell is a single table value: a number, a text token, or missing.
// The zero Cell is missing.
type Cell struct {
	kind CellKind
	num  float64
	str  string
}

// Num returns a numeric cell. NaN and ±Inf are stored as missing cells,
// so every Number cell holds a finite value.
func Num(v float64) Cell {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return Cell{}
	}
	return Cell{kind: Number, num: v}
}

// Str returns a text cell.
func Str(s string) Cell { return Cell{kind: Text, str: s} }

// Null returns a missing cell.
func Null() Cell { return Cell{} }

func (c Cell) Kind() CellKind  { return c.kind }
func (c Cell) IsMissing() bool { return c.kind == Missing }

// Float returns the numeric value and whether the cell holds a number.
func (c Cell) Float() (float64, bool) {
	if c.kind != Number {
		return 0, false
	}
	return c.num, true
}

// Text returns the text value and whether the cell holds text.
func (c Cell) Text() (string, bool) {
	if c.kind != Text {
		return "", false
	}
	return c.str, true
}

// String renders the cell the way it would appear in a CSV export.
func (c Cell) String() string {
	switch c.kind {
	case Number:
		return strconv.FormatFloat(c.num, 'f', -1, 64)
	case Text:
		return c.str
	default:
		return ""
	}
}

// Equal reports whether two cells hold the same kind and value.
// Two missing cells are equal.
func (c Cell) Equal(o Cell) bool {
	if c.kind != o.kind {
		return false
	}
	switch c.kind {
	case Number:
		return c.num == o.num
	case Text:
		return c.str == o.str
	default:
		return true
	}
}

// key returns a kind-tagged encoding used for hashing rows and values.
func (c Cell) key() string {
	switch c.kind {
	case Number:
		if c.num == 0 {
			// -0 equals 0
			return "n0"
		}
		return "n" + strconv.FormatFloat(c.num, 'g', -1, 64)
	case Text:
		return "t" + strconv.Itoa(len(c.str)) + ":" + c.str
	default:
		return "-"
	}
}
