package dataset

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *Dataset {
	t.Helper()
	d, err := New([]string{"Region", "Sales", "Note"}, [][]Cell{
		{Str("North"), Num(10), Null()},
		{Str("South"), Num(20), Null()},
		{Str("North"), Num(30), Null()},
	})
	require.NoError(t, err)
	return d
}

func TestCellKinds(t *testing.T) {
	assert.True(t, Num(math.NaN()).IsMissing())
	assert.True(t, Num(math.Inf(1)).IsMissing())
	assert.True(t, Num(math.Inf(-1)).IsMissing())
	negZero := Num(math.Copysign(0, -1))
	assert.True(t, negZero.Equal(Num(0)))
	assert.Equal(t, Num(0).key(), negZero.key())
	assert.Equal(t, Number, Num(1.5).Kind())
	assert.Equal(t, Text, Str("").Kind())
	assert.True(t, Null().Equal(Cell{}))
	assert.False(t, Num(1).Equal(Str("1")))
	assert.Equal(t, "2.5", Num(2.5).String())
	assert.Equal(t, "", Null().String())

	v, ok := Num(3).Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)
	_, ok = Str("x").Float()
	assert.False(t, ok)
}

func TestNewInfersColumnKinds(t *testing.T) {
	d := sample(t)
	assert.Equal(t, 3, d.NumRows())
	assert.Equal(t, 3, d.NumCols())
	assert.Equal(t, TextColumn, d.Column(0).Kind())
	assert.Equal(t, NumericColumn, d.Column(1).Kind())
	assert.Equal(t, EmptyColumn, d.Column(2).Kind())
	assert.Equal(t, []int{1}, d.NumericColumns())
	assert.Equal(t, []int{0}, d.TextColumns())
	assert.Equal(t, []int{0, 1, 2}, d.Index())
}

func TestNewRejectsRaggedRows(t *testing.T) {
	_, err := New([]string{"a", "b"}, [][]Cell{
		{Num(1), Num(2)},
		{Num(3)},
	})
	require.Error(t, err)
	var ie *InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Row)
	assert.True(t, IsInputError(err))
}

func TestNewRejectsDuplicateNames(t *testing.T) {
	_, err := New([]string{"a", "a"}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `column "a"`)
}

func TestFromColumnsChecksLengths(t *testing.T) {
	_, err := FromColumns([]Column{
		NewColumn("a", []Cell{Num(1), Num(2)}),
		NewColumn("b", []Cell{Num(1)}),
	}, nil)
	require.Error(t, err)

	d, err := FromColumns(nil, []int{4, 7})
	require.NoError(t, err)
	assert.Equal(t, 2, d.NumRows())
	assert.True(t, d.Empty())
}

func TestFilterKeepsLabelsAndDoesNotMutate(t *testing.T) {
	d := sample(t)
	f, err := d.Filter("Region", Str("North"))
	require.NoError(t, err)
	assert.Equal(t, 2, f.NumRows())
	assert.Equal(t, []int{0, 2}, f.Index())
	assert.Equal(t, NumericColumn, f.Column(1).Kind())
	assert.Equal(t, 3, d.NumRows())

	_, err = d.Filter("Missing", Str("x"))
	assert.True(t, IsInputError(err))
}

func TestFilterToNothingKeepsKinds(t *testing.T) {
	d := sample(t)
	f, err := d.Filter("Region", Str("East"))
	require.NoError(t, err)
	assert.Equal(t, 0, f.NumRows())
	assert.Equal(t, TextColumn, f.Column(0).Kind())
}

func TestDistinctFirstSeenOrder(t *testing.T) {
	d, err := New([]string{"c"}, [][]Cell{{Str("b")}, {Null()}, {Str("a")}, {Str("b")}})
	require.NoError(t, err)
	vals, err := d.Distinct("c")
	require.NoError(t, err)
	require.Len(t, vals, 2)
	assert.Equal(t, "b", vals[0].String())
	assert.Equal(t, "a", vals[1].String())
}

func TestRowKeyDistinguishesKinds(t *testing.T) {
	d, err := New([]string{"a", "b"}, [][]Cell{
		{Str("1"), Null()},
		{Num(1), Null()},
		{Str("1"), Null()},
		{Str("x\x1ft"), Str("y")},
		{Str("x"), Str("t\x1fy")},
	})
	require.NoError(t, err)
	assert.NotEqual(t, d.RowKey(0), d.RowKey(1))
	assert.Equal(t, d.RowKey(0), d.RowKey(2))
	assert.NotEqual(t, d.RowKey(3), d.RowKey(4))
}

func TestHeadAndReindex(t *testing.T) {
	d := sample(t)
	f, err := d.Filter("Region", Str("North"))
	require.NoError(t, err)
	r := f.Reindex()
	assert.Equal(t, []int{0, 1}, r.Index())
	assert.Equal(t, []int{0, 2}, f.Index())

	assert.Equal(t, 2, d.Head(2).NumRows())
	assert.Equal(t, 3, d.Head(10).NumRows())
	assert.Equal(t, 0, d.Head(-1).NumRows())
}

func TestValidate(t *testing.T) {
	var nilSet *Dataset
	assert.True(t, IsInputError(nilSet.Validate()))
	assert.NoError(t, sample(t).Validate())
	bad := &Dataset{cols: []Column{NewColumn("a", []Cell{Num(1)})}, index: []int{0, 1}}
	assert.True(t, IsInputError(bad.Validate()))
}
