// Package metrics derives the headline numbers shown for a dataset: the
// key-metrics summary and the location of the first outlying cell. All
// functions are pure and safe for concurrent use.
package metrics

import (
	"math"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// SegmentStatus tells whether a top segment was found.
type SegmentStatus uint8

const (
	SegmentFound SegmentStatus = iota
	// SegmentNoCategories means the dataset has no text columns.
	SegmentNoCategories
	// SegmentNotApplicable means no text column is low-cardinality.
	SegmentNotApplicable
)

// Segment is the most frequent value of the first low-cardinality text
// column, or a sentinel.
type Segment struct {
	Status SegmentStatus
	Value  string
}

func (s Segment) String() string {
	switch s.Status {
	case SegmentNoCategories:
		return "No Categories"
	case SegmentNotApplicable:
		return "N/A"
	default:
		return s.Value
	}
}

// Summary is the key-metrics triple.
type Summary struct {
	TotalValue   float64
	AverageValue float64
	TopColumn    Segment
}

type columnStats struct {
	sum   float64
	mean  float64
	std   float64
	count int
}

func statsOf(c dataset.Column) columnStats {
	vals := c.Floats()
	var s columnStats
	s.count = len(vals)
	if s.count == 0 {
		return s
	}
	for _, v := range vals {
		s.sum += v
	}
	s.mean = s.sum / float64(s.count)
	var sq float64
	for _, v := range vals {
		d := v - s.mean
		sq += d * d
	}
	s.std = math.Sqrt(sq / float64(s.count))
	return s
}

// Summarize computes the key metrics. It reports false when the dataset has
// no rows or no numeric values; that is the only "no data" signal.
//
// TotalValue is the largest per-column sum. AverageValue is the plain mean
// of the per-column means, so columns with few values weigh as much as
// full ones.
func Summarize(d *dataset.Dataset) (Summary, bool) {
	if d == nil || d.NumRows() == 0 {
		return Summary{}, false
	}
	numeric := d.NumericColumns()
	if len(numeric) == 0 {
		return Summary{}, false
	}

	total := math.Inf(-1)
	var meanSum float64
	var withValues int
	for _, j := range numeric {
		s := statsOf(d.Column(j))
		if s.sum > total {
			total = s.sum
		}
		if s.count > 0 {
			meanSum += s.mean
			withValues++
		}
	}
	if withValues == 0 {
		return Summary{}, false
	}

	return Summary{
		TotalValue:   total,
		AverageValue: meanSum / float64(withValues),
		TopColumn:    TopSegment(d),
	}, true
}

// TopSegment returns the mode of the first text column whose distinct
// value count is below half the row count. Ties go to the value seen first.
func TopSegment(d *dataset.Dataset) Segment {
	text := d.TextColumns()
	if len(text) == 0 {
		return Segment{Status: SegmentNoCategories}
	}
	half := float64(d.NumRows()) / 2
	for _, j := range text {
		col := d.Column(j)
		counts := make(map[string]int)
		var order []dataset.Cell
		for i := 0; i < col.Len(); i++ {
			c := col.At(i)
			if c.IsMissing() {
				continue
			}
			k := dataset.ValueKey(c)
			if counts[k] == 0 {
				order = append(order, c)
			}
			counts[k]++
		}
		if len(order) == 0 || float64(len(order)) >= half {
			continue
		}
		best := order[0]
		bestN := counts[dataset.ValueKey(best)]
		for _, c := range order[1:] {
			if n := counts[dataset.ValueKey(c)]; n > bestN {
				best, bestN = c, n
			}
		}
		return Segment{Status: SegmentFound, Value: best.String()}
	}
	return Segment{Status: SegmentNotApplicable}
}
