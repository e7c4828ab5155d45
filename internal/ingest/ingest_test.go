package ingest

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

func TestParseNumber(t *testing.T) {
	cases := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"12", 12, true},
		{" 3.5 ", 3.5, true},
		{"1,234.5", 1234.5, true},
		{"1.234,5", 1234.5, true},
		{"0,5", 0.5, true},
		{"1,000", 1000, true},
		{"1.000.000", 1000000, true},
		{"12%", 12, true},
		{"3e-2", 0.03, true},
		{"1 234,5", 1234.5, true},
		{"-7", -7, true},
		{"abc", 0, false},
		{"1,2,3", 0, false},
		{"0x1p-2", 0, false},
		{"", 0, false},
		{"inf", 0, false},
		{"-Infinity", 0, false},
		{"1e999", 0, false},
	}
	for _, c := range cases {
		got, ok := ParseNumber(c.in, Options{})
		assert.Equal(t, c.ok, ok, c.in)
		if c.ok {
			assert.InDelta(t, c.want, got, 1e-9, c.in)
		}
	}

	got, ok := ParseNumber("1.5", Options{DecimalSeparator: ',', ThousandsSeparator: ' '})
	assert.False(t, ok, "dot is not valid when comma is the decimal separator")
	assert.Zero(t, got)
}

func TestLoadCSVInfersColumnTypes(t *testing.T) {
	in := "Region,Sales,Note,Code\n" +
		"North,10,,A1\n" +
		"South,NA,x,7\n" +
		"North,30,,\n"
	res, err := LoadCSV(strings.NewReader(in), "sales.csv", int64(len(in)), DefaultOptions())
	require.NoError(t, err)
	d := res.Dataset
	require.Equal(t, 3, d.NumRows())
	assert.Equal(t, []string{"Region", "Sales", "Note", "Code"}, d.Names())
	assert.Equal(t, dataset.TextColumn, d.Column(0).Kind())
	assert.Equal(t, dataset.NumericColumn, d.Column(1).Kind())
	assert.True(t, d.Cell(1, 1).IsMissing())
	assert.Equal(t, dataset.TextColumn, d.Column(2).Kind())
	// Mixed column stays text, including its numeric-looking token.
	assert.Equal(t, dataset.TextColumn, d.Column(3).Kind())
	v, ok := d.Cell(1, 3).Text()
	assert.True(t, ok)
	assert.Equal(t, "7", v)
	assert.False(t, res.Sampled)
}

func TestLoadCSVReadsInfinityAsMissing(t *testing.T) {
	in := "Region,Sales\nNorth,1\nSouth,inf\nNorth,3\nEast,-Infinity\nWest,+INF\n"
	res, err := LoadCSV(strings.NewReader(in), "inf.csv", int64(len(in)), DefaultOptions())
	require.NoError(t, err)
	d := res.Dataset
	assert.Equal(t, dataset.NumericColumn, d.Column(1).Kind())
	for _, r := range []int{1, 3, 4} {
		assert.True(t, d.Cell(r, 1).IsMissing(), "row %d", r)
	}
	v, ok := d.Cell(2, 1).Float()
	assert.True(t, ok)
	assert.Equal(t, 3.0, v)

	for _, tok := range []string{"inf", "Inf", "+inf", "-inf", "Infinity", "-INFINITY"} {
		assert.True(t, IsMissingToken(tok), tok)
	}
	assert.False(t, IsMissingToken("info"))
}

func TestLoadCSVHeaders(t *testing.T) {
	in := "\ufeff a ,a,,a,a.1\n1,2,3,4,5\n"
	res, err := LoadCSV(strings.NewReader(in), "h.csv", -1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "a.1", "Unnamed: 2", "a.2", "a.1.1"}, res.Dataset.Names())
}

func TestLoadCSVRaggedRows(t *testing.T) {
	short := "a,b,c\n1,2\n"
	res, err := LoadCSV(strings.NewReader(short), "s.csv", -1, Options{})
	require.NoError(t, err)
	assert.True(t, res.Dataset.Cell(0, 2).IsMissing())
	assert.Equal(t, dataset.EmptyColumn, res.Dataset.Column(2).Kind())

	long := "a,b\n1,2\n1,2,3\n"
	_, err = LoadCSV(strings.NewReader(long), "l.csv", -1, Options{})
	require.Error(t, err)
	var ie *dataset.InputError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 1, ie.Row)
}

func TestLoadCSVSniffsDelimiter(t *testing.T) {
	in := "Group;Score;LocaleNumber\nA;10,5;1.000,0\nB;9,5;0.900,0\n"
	res, err := LoadCSV(strings.NewReader(in), "semi.csv", -1, Options{})
	require.NoError(t, err)
	d := res.Dataset
	require.Equal(t, 3, d.NumCols())
	assert.Equal(t, []float64{10.5, 9.5}, d.Column(1).Floats())
	assert.Equal(t, []float64{1000, 900}, d.Column(2).Floats())

	tsv := "a\tb\n1\t2\n"
	res, err = LoadCSV(strings.NewReader(tsv), "t.tsv", -1, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, res.Dataset.Names())
}

func TestLoadCSVSamplesOversizedInput(t *testing.T) {
	var b strings.Builder
	b.WriteString("v\n")
	for i := 0; i < 50; i++ {
		b.WriteString("1\n")
	}
	opt := Options{SampleThresholdBytes: 10, SampleRows: 5}
	res, err := LoadCSV(strings.NewReader(b.String()), "big.csv", int64(b.Len()), opt)
	require.NoError(t, err)
	assert.True(t, res.Sampled)
	assert.Equal(t, 5, res.Dataset.NumRows())

	res, err = LoadCSV(strings.NewReader(b.String()), "big.csv", 5, opt)
	require.NoError(t, err)
	assert.False(t, res.Sampled)
	assert.Equal(t, 50, res.Dataset.NumRows())
}

func TestLoadCSVEmpty(t *testing.T) {
	res, err := LoadCSV(strings.NewReader(""), "e.csv", 0, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, res.Dataset.NumRows())
	assert.Equal(t, 0, res.Dataset.NumCols())
}

func TestLoadFileXLSX(t *testing.T) {
	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	rows := [][]interface{}{
		{"Region", "Sales"},
		{"North", 10},
		{"South", 20.5},
		{"North", nil, "extra"},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow(sheet, cell, &row))
	}
	path := filepath.Join(t.TempDir(), "sales.xlsx")
	require.NoError(t, f.SaveAs(path))

	res, err := LoadFile(path, DefaultOptions())
	require.NoError(t, err)
	d := res.Dataset
	assert.Equal(t, "sales.xlsx", res.Name)
	assert.Equal(t, []string{"Region", "Sales", "Unnamed: 2"}, d.Names())
	require.Equal(t, 3, d.NumRows())
	assert.Equal(t, []float64{10, 20.5}, d.Column(1).Floats())
	assert.True(t, d.Cell(2, 1).IsMissing())

	_, err = LoadXLSX(path, Options{Sheet: "Nope"})
	assert.Error(t, err)
	_, err = LoadXLSX(path, Options{SheetIndex: 3})
	assert.Error(t, err)
}

func TestLoadFileUnsupported(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	_, err := LoadFile(path, Options{})
	assert.Error(t, err)
	assert.False(t, Supported(path))
	assert.True(t, Supported("A.CSV"))
}

func TestFilterRows(t *testing.T) {
	res, err := LoadCSV(strings.NewReader("Region;Sales\nNorth;1.000\nSouth;2.000\nNorth;1.000\n"), "s.csv", 0,
		Options{Delimiter: ';', ThousandsSeparator: '.', DecimalSeparator: ','})
	require.NoError(t, err)

	north, err := FilterRows(res.Dataset, "Region", "North", Options{})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 2}, north.Index())

	opt := Options{ThousandsSeparator: '.', DecimalSeparator: ','}
	big, err := FilterRows(res.Dataset, "Sales", "2.000", opt)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, big.Index())

	_, err = FilterRows(res.Dataset, "Sales", "lots", opt)
	assert.True(t, dataset.IsInputError(err))
	_, err = FilterRows(res.Dataset, "Nope", "x", opt)
	assert.True(t, dataset.IsInputError(err))
}
