package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// Options controls profiling behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// GroupBy computes per-group summaries for the given column names.
	GroupBy []string
	// Correlations computes Pearson correlations among numeric columns.
	Correlations bool
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
	// TopValues caps the categorical top list per column.
	TopValues int
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{
		SampleRows:       5,
		Correlations:     true,
		Outliers:         true,
		OutlierThreshold: 3.5,
		TopValues:        8,
	}
}

// Report is a markdown-friendly profile of a dataset.
type Report struct {
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Sampled  bool            `json:"sampled"`
	Cols     []ColumnSummary `json:"columns"`
	Samples  [][]string      `json:"samples"`
	Warnings []string        `json:"warnings,omitempty"`
	Groups   []GroupResult   `json:"groups,omitempty"`
	Corr     *CorrMatrix     `json:"correlations,omitempty"`
}

// ColumnSummary captures the column kind and statistics.
type ColumnSummary struct {
	Name    string `json:"name"`
	Kind    string `json:"kind"` // numeric|categorical|text|empty
	NonNull int    `json:"non_null"`
	Missing int    `json:"missing"`
	Unique  int    `json:"unique"`
	// Numeric stats
	Min  float64 `json:"min"`
	Max  float64 `json:"max"`
	Mean float64 `json:"mean"`
	Std  float64 `json:"std"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues    []CategoryCount `json:"top_values,omitempty"`
	ExampleTexts []string        `json:"examples,omitempty"`
}

type CategoryCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string                `json:"key"`
	Size    int                   `json:"size"`
	Metrics map[string]NumSummary `json:"metrics"`
}

type NumSummary struct {
	Count int     `json:"count"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Mean  float64 `json:"mean"`
}

// CorrMatrix holds a symmetric Pearson correlation matrix across numeric columns.
type CorrMatrix struct {
	Columns []string    `json:"columns"`
	Values  [][]float64 `json:"values"` // row-major, Values[i][j]
}

// categoricalMaxLen is the longest token still treated as a category label.
const categoricalMaxLen = 64

// Profile summarizes every column of d.
func Profile(d *dataset.Dataset, name string, opt Options) *Report {
	rep := &Report{Name: name}
	if d == nil {
		return rep
	}
	rep.Rows = d.NumRows()
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}
	topN := opt.TopValues
	if topN <= 0 {
		topN = 8
	}

	head := d.Head(sampleRows)
	for r := 0; r < head.NumRows(); r++ {
		row := head.Row(r)
		out := make([]string, len(row))
		for j, c := range row {
			out[j] = c.String()
		}
		rep.Samples = append(rep.Samples, out)
	}

	rep.Cols = make([]ColumnSummary, 0, d.NumCols())
	for j := 0; j < d.NumCols(); j++ {
		rep.Cols = append(rep.Cols, summarizeColumn(d.Column(j), opt, topN))
	}

	if len(opt.GroupBy) > 0 {
		groups, warn := groupBy(d, opt.GroupBy)
		rep.Groups = groups
		rep.Warnings = append(rep.Warnings, warn...)
	}
	if opt.Correlations {
		rep.Corr = correlations(d)
	}
	return rep
}

func summarizeColumn(col dataset.Column, opt Options, topN int) ColumnSummary {
	s := ColumnSummary{Name: col.Name()}
	for i := 0; i < col.Len(); i++ {
		if col.At(i).IsMissing() {
			s.Missing++
		} else {
			s.NonNull++
		}
	}
	counts := ValueCountsOf(col, 0)
	s.Unique = len(counts)

	switch col.Kind() {
	case dataset.NumericColumn:
		s.Kind = "numeric"
		vals := col.Floats()
		s.Min, s.Max = math.Inf(1), math.Inf(-1)
		// Welford
		var mean, m2 float64
		for n, x := range vals {
			if x < s.Min {
				s.Min = x
			}
			if x > s.Max {
				s.Max = x
			}
			delta := x - mean
			mean += delta / float64(n+1)
			m2 += delta * (x - mean)
		}
		if len(vals) == 0 {
			s.Min, s.Max = 0, 0
		}
		s.Mean = mean
		if len(vals) > 1 {
			s.Std = math.Sqrt(m2 / float64(len(vals)-1))
		}
		if opt.Outliers && len(vals) >= 8 {
			thr := opt.OutlierThreshold
			if thr <= 0 {
				thr = 3.5
			}
			s.OutlierThreshold = thr
			s.OutliersCount, s.OutliersMaxAbsZ = robustOutliers(vals, thr)
		}
	case dataset.TextColumn:
		categorical := true
		for _, c := range counts {
			if len(c.Value) > categoricalMaxLen {
				categorical = false
				break
			}
		}
		if categorical {
			s.Kind = "categorical"
			if len(counts) > topN {
				counts = counts[:topN]
			}
			s.TopValues = counts
		} else {
			s.Kind = "text"
			for i := 0; i < col.Len() && len(s.ExampleTexts) < 3; i++ {
				if v, ok := col.At(i).Text(); ok {
					s.ExampleTexts = append(s.ExampleTexts, v)
				}
			}
		}
	default:
		s.Kind = "empty"
	}
	return s
}

func robustOutliers(vals []float64, thr float64) (count int, maxAbsZ float64) {
	median, mad := medianMAD(vals)
	if mad == 0 {
		return 0, 0
	}
	for _, v := range vals {
		az := math.Abs(0.6745 * (v - median) / mad)
		if az > thr {
			count++
		}
		if az > maxAbsZ {
			maxAbsZ = az
		}
	}
	return count, maxAbsZ
}

func groupBy(d *dataset.Dataset, names []string) ([]GroupResult, []string) {
	var keyCols []int
	var warnings []string
	for _, name := range names {
		_, idx, ok := d.ColumnByName(strings.TrimSpace(name))
		if !ok {
			warnings = append(warnings, fmt.Sprintf("group-by column %q not found", name))
			continue
		}
		keyCols = append(keyCols, idx)
	}
	if len(keyCols) == 0 {
		return nil, warnings
	}

	type gAcc struct {
		size int
		sum  map[int]float64
		cnt  map[int]int
		min  map[int]float64
		max  map[int]float64
	}
	groups := map[string]*gAcc{}
	numeric := d.NumericColumns()
	for r := 0; r < d.NumRows(); r++ {
		parts := make([]string, len(keyCols))
		for i, j := range keyCols {
			parts[i] = fmt.Sprintf("%s=%s", d.Column(j).Name(), safeVal(d.Cell(r, j).String()))
		}
		key := strings.Join(parts, " | ")
		ga := groups[key]
		if ga == nil {
			ga = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
			groups[key] = ga
		}
		ga.size++
		for _, j := range numeric {
			x, ok := d.Cell(r, j).Float()
			if !ok {
				continue
			}
			ga.sum[j] += x
			ga.cnt[j]++
			if _, seen := ga.min[j]; !seen || x < ga.min[j] {
				ga.min[j] = x
			}
			if _, seen := ga.max[j]; !seen || x > ga.max[j] {
				ga.max[j] = x
			}
		}
	}

	out := make([]GroupResult, 0, len(groups))
	for k, ga := range groups {
		gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
		for _, j := range numeric {
			if ga.cnt[j] == 0 {
				continue
			}
			gr.Metrics[d.Column(j).Name()] = NumSummary{
				Count: ga.cnt[j], Min: ga.min[j], Max: ga.max[j], Mean: ga.sum[j] / float64(ga.cnt[j]),
			}
		}
		out = append(out, gr)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Size == out[j].Size {
			return out[i].Key < out[j].Key
		}
		return out[i].Size > out[j].Size
	})
	if len(out) > 20 {
		out = out[:20]
	}
	return out, warnings
}

// correlations uses pairwise-complete observations for each column pair.
func correlations(d *dataset.Dataset) *CorrMatrix {
	numeric := d.NumericColumns()
	if len(numeric) < 2 {
		return nil
	}
	n := len(numeric)
	m := &CorrMatrix{Columns: make([]string, n), Values: make([][]float64, n)}
	for i, j := range numeric {
		m.Columns[i] = d.Column(j).Name()
		m.Values[i] = make([]float64, n)
		m.Values[i][i] = 1
	}
	for a := 0; a < n; a++ {
		for b := a + 1; b < n; b++ {
			r := pearson(d, numeric[a], numeric[b])
			m.Values[a][b] = r
			m.Values[b][a] = r
		}
	}
	return m
}

func pearson(d *dataset.Dataset, ca, cb int) float64 {
	var n, sumX, sumY, sumXX, sumYY, sumXY float64
	for r := 0; r < d.NumRows(); r++ {
		x, okx := d.Cell(r, ca).Float()
		y, oky := d.Cell(r, cb).Float()
		if !okx || !oky {
			continue
		}
		n++
		sumX += x
		sumY += y
		sumXX += x * x
		sumYY += y * y
		sumXY += x * y
	}
	if n < 2 {
		return 0
	}
	denom := math.Sqrt((n*sumXX - sumX*sumX) * (n*sumYY - sumY*sumY))
	if denom == 0 {
		return 0
	}
	r := (n*sumXY - sumX*sumY) / denom
	if math.IsNaN(r) || math.IsInf(r, 0) {
		return 0
	}
	return math.Max(-1, math.Min(1, r))
}

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
