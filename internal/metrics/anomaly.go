package metrics

import (
	"math"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
)

// AnomalyThreshold is the z-score magnitude a cell must exceed to be flagged.
const AnomalyThreshold = 2.5

// Location points at a cell by row label and column name. Row is the
// dataset's label, not the position, so it stays meaningful after a filter.
type Location struct {
	Row    int    `json:"row"`
	Column string `json:"column"`
}

// Anomaly is a flagged cell with its value and z-score.
type Anomaly struct {
	Location
	Value  float64 `json:"value"`
	ZScore float64 `json:"z_score"`
}

// FindFirstAnomaly returns the first cell, scanning rows in order and the
// numeric columns of each row left to right, whose z-score magnitude
// exceeds AnomalyThreshold. Zero-variance columns never produce a hit.
func FindFirstAnomaly(d *dataset.Dataset) (Location, bool) {
	hits := FindAnomalies(d, AnomalyThreshold, 1)
	if len(hits) == 0 {
		return Location{}, false
	}
	return hits[0].Location, true
}

// FindAnomalies returns every cell whose z-score magnitude exceeds
// threshold, in the same scan order as FindFirstAnomaly. limit <= 0 means
// no limit. Missing cells are skipped.
func FindAnomalies(d *dataset.Dataset, threshold float64, limit int) []Anomaly {
	if d == nil {
		return nil
	}
	numeric := d.NumericColumns()
	if len(numeric) == 0 {
		return nil
	}
	stats := make([]columnStats, len(numeric))
	for i, j := range numeric {
		stats[i] = statsOf(d.Column(j))
		if stats[i].std == 0 {
			stats[i].std = 1
		}
	}

	var out []Anomaly
	for r := 0; r < d.NumRows(); r++ {
		for i, j := range numeric {
			v, ok := d.Cell(r, j).Float()
			if !ok {
				continue
			}
			z := (v - stats[i].mean) / stats[i].std
			if math.Abs(z) <= threshold {
				continue
			}
			out = append(out, Anomaly{
				Location: Location{Row: d.Label(r), Column: d.Column(j).Name()},
				Value:    v,
				ZScore:   z,
			})
			if limit > 0 && len(out) >= limit {
				return out
			}
		}
	}
	return out
}
