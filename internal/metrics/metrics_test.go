package metrics

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

func columns(t *testing.T, cols ...dataset.Column) *dataset.Dataset {
	t.Helper()
	d, err := dataset.FromColumns(cols, nil)
	require.NoError(t, err)
	return d
}

func nums(vs ...float64) []dataset.Cell {
	out := make([]dataset.Cell, len(vs))
	for i, v := range vs {
		out[i] = dataset.Num(v)
	}
	return out
}

func strs(vs ...string) []dataset.Cell {
	out := make([]dataset.Cell, len(vs))
	for i, v := range vs {
		if v == "" {
			out[i] = dataset.Null()
			continue
		}
		out[i] = dataset.Str(v)
	}
	return out
}

func TestSummarizeTotalAndAverage(t *testing.T) {
	d := columns(t,
		dataset.NewColumn("A", nums(1, 2, 3)),
		dataset.NewColumn("B", nums(100, 100, 100)),
	)
	s, ok := Summarize(d)
	require.True(t, ok)
	assert.Equal(t, 300.0, s.TotalValue)
	assert.Equal(t, 51.0, s.AverageValue)
	assert.Equal(t, SegmentNoCategories, s.TopColumn.Status)
	assert.Equal(t, "No Categories", s.TopColumn.String())
}

func TestSummarizeAverageIsUnweighted(t *testing.T) {
	d := columns(t,
		dataset.NewColumn("A", []dataset.Cell{dataset.Num(10), dataset.Null(), dataset.Null(), dataset.Null()}),
		dataset.NewColumn("B", nums(2, 2, 2, 2)),
	)
	s, ok := Summarize(d)
	require.True(t, ok)
	assert.Equal(t, 6.0, s.AverageValue)
	assert.Equal(t, 10.0, s.TotalValue)
}

func TestSummarizeNoNumericData(t *testing.T) {
	d := columns(t, dataset.NewColumn("name", strs("a", "b")))
	_, ok := Summarize(d)
	assert.False(t, ok)

	empty := columns(t, dataset.NewColumn("v", nil))
	_, ok = Summarize(empty)
	assert.False(t, ok)

	_, ok = Summarize(nil)
	assert.False(t, ok)
}

func TestSummarizeAllMissingIsNotNumeric(t *testing.T) {
	d := columns(t, dataset.NewColumn("v", []dataset.Cell{dataset.Null(), dataset.Null()}))
	_, ok := Summarize(d)
	assert.False(t, ok)
}

func TestSummarizeFilteredToNothing(t *testing.T) {
	d := columns(t,
		dataset.NewColumn("Region", strs("N", "S")),
		dataset.NewColumn("Sales", nums(1, 2)),
	)
	f, err := d.Filter("Region", dataset.Str("E"))
	require.NoError(t, err)
	_, ok := Summarize(f)
	assert.False(t, ok)
}

func TestTopSegmentSkipsIdentifierColumns(t *testing.T) {
	d := columns(t,
		dataset.NewColumn("ID", strs("a1", "a2", "a3", "a4", "a5", "a6")),
		dataset.NewColumn("Region", strs("North", "South", "South", "North", "South", "North")),
		dataset.NewColumn("Sales", nums(1, 2, 3, 4, 5, 6)),
	)
	s, ok := Summarize(d)
	require.True(t, ok)
	assert.Equal(t, SegmentFound, s.TopColumn.Status)
	// North and South tie at three; North is seen first.
	assert.Equal(t, "North", s.TopColumn.Value)
}

func TestTopSegmentNotApplicable(t *testing.T) {
	d := columns(t,
		dataset.NewColumn("ID", strs("a", "b", "c", "d")),
		dataset.NewColumn("v", nums(1, 2, 3, 4)),
	)
	s, ok := Summarize(d)
	require.True(t, ok)
	assert.Equal(t, SegmentNotApplicable, s.TopColumn.Status)
	assert.Equal(t, "N/A", s.TopColumn.String())
}

func TestTopSegmentStrictHalf(t *testing.T) {
	// Two distinct values over four rows is not strictly below half.
	d := columns(t,
		dataset.NewColumn("k", strs("x", "y", "x", "y")),
		dataset.NewColumn("v", nums(1, 2, 3, 4)),
	)
	assert.Equal(t, SegmentNotApplicable, TopSegment(d).Status)

	d = columns(t,
		dataset.NewColumn("k", strs("x", "y", "y", "y", "x")),
		dataset.NewColumn("v", nums(1, 2, 3, 4, 5)),
	)
	seg := TopSegment(d)
	assert.Equal(t, SegmentFound, seg.Status)
	assert.Equal(t, "y", seg.Value)
}

func TestTopSegmentIgnoresMissing(t *testing.T) {
	d := columns(t,
		dataset.NewColumn("k", strs("", "", "", "b", "a", "a")),
	)
	seg := TopSegment(d)
	assert.Equal(t, SegmentFound, seg.Status)
	assert.Equal(t, "a", seg.Value)
}

func TestFindFirstAnomalyBelowThreshold(t *testing.T) {
	d := columns(t, dataset.NewColumn("Sales", nums(10, 10, 10, 10, 1000)))
	_, ok := FindFirstAnomaly(d)
	assert.False(t, ok)
}

func TestFindFirstAnomalyAboveThreshold(t *testing.T) {
	d := columns(t, dataset.NewColumn("Sales", nums(10, 10, 10, 10, 10, 10, 10, 10, 10, 5000)))
	loc, ok := FindFirstAnomaly(d)
	require.True(t, ok)
	assert.Equal(t, Location{Row: 9, Column: "Sales"}, loc)

	all := FindAnomalies(d, AnomalyThreshold, 0)
	require.Len(t, all, 1)
	assert.InDelta(t, 3.0, all[0].ZScore, 1e-9)
}

func TestFindFirstAnomalyRowMajorOrder(t *testing.T) {
	a := nums(0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 100)
	b := nums(0, 0, 0, 0, 0, 100, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0, 0)
	d := columns(t,
		dataset.NewColumn("Label", strs("a", "b", "c", "d", "e", "f", "g", "h", "i", "j", "k", "l", "m", "n", "o", "p", "q", "r", "s", "t")),
		dataset.NewColumn("A", a),
		dataset.NewColumn("B", b),
	)
	loc, ok := FindFirstAnomaly(d)
	require.True(t, ok)
	assert.Equal(t, Location{Row: 5, Column: "B"}, loc)

	all := FindAnomalies(d, AnomalyThreshold, 0)
	require.Len(t, all, 2)
	assert.Equal(t, "A", all[1].Column)
	assert.Len(t, FindAnomalies(d, AnomalyThreshold, 1), 1)

	again, _ := FindFirstAnomaly(d)
	assert.Equal(t, loc, again)
}

func TestFindFirstAnomalyConstantColumn(t *testing.T) {
	d := columns(t, dataset.NewColumn("c", nums(7, 7, 7, 7, 7)))
	_, ok := FindFirstAnomaly(d)
	assert.False(t, ok)
}

func TestFindFirstAnomalyUsesRowLabels(t *testing.T) {
	region := make([]dataset.Cell, 0, 12)
	sales := make([]float64, 0, 12)
	for i := 0; i < 10; i++ {
		region = append(region, dataset.Str("N"))
		sales = append(sales, 10)
	}
	region = append(region, dataset.Str("S"), dataset.Str("N"))
	sales = append(sales, 1, 5000)
	d := columns(t,
		dataset.NewColumn("Region", region),
		dataset.NewColumn("Sales", nums(sales...)),
	)
	f, err := d.Filter("Region", dataset.Str("N"))
	require.NoError(t, err)
	loc, ok := FindFirstAnomaly(f)
	require.True(t, ok)
	assert.Equal(t, 11, loc.Row)
}

func TestFindAnomaliesSkipsMissing(t *testing.T) {
	cells := append(nums(1, 1, 1, 1, 1, 1, 1, 1, 1, 1), dataset.Null(), dataset.Num(math.NaN()), dataset.Num(90))
	d := columns(t, dataset.NewColumn("v", cells))
	loc, ok := FindFirstAnomaly(d)
	require.True(t, ok)
	assert.Equal(t, 12, loc.Row)
}
