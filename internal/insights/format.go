package insights

import (
	"math"
	"strconv"
	"strings"

	"github.com/KaramelBytes/prism-cli/internal/metrics"
)

// DefaultRevenueTarget is the goal the progress gauge measures against.
const DefaultRevenueTarget = 1_000_000.0

// FormatCurrency renders v as dollars with thousands separators and two
// decimals: 1234.5 becomes "$1,234.50", -7 becomes "-$7.00".
func FormatCurrency(v float64) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "$" + strconv.FormatFloat(v, 'f', -1, 64)
	}
	neg := v < 0
	s := strconv.FormatFloat(math.Abs(v), 'f', 2, 64)
	intPart, frac := s[:len(s)-3], s[len(s)-3:]
	var b strings.Builder
	if neg && s != "0.00" {
		b.WriteByte('-')
	}
	b.WriteByte('$')
	for i, r := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			b.WriteByte(',')
		}
		b.WriteRune(r)
	}
	b.WriteString(frac)
	return b.String()
}

// Stat is one labelled figure handed to the LLM.
type Stat struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// Stats returns the summary as ordered, display-ready figures.
func Stats(s metrics.Summary) []Stat {
	return []Stat{
		{Label: "Total Revenue", Value: FormatCurrency(s.TotalValue)},
		{Label: "Average Ticket", Value: FormatCurrency(s.AverageValue)},
		{Label: "Top Segment", Value: s.TopColumn.String()},
	}
}

// FormatStats joins Stats into the single line embedded in prompts.
func FormatStats(s metrics.Summary) string {
	parts := make([]string, 0, 3)
	for _, st := range Stats(s) {
		parts = append(parts, st.Label+": "+st.Value)
	}
	return strings.Join(parts, ", ")
}

// RevenueProgress is total/target clamped to [0, 1]. A non-positive target
// yields 0.
func RevenueProgress(total, target float64) float64 {
	if target <= 0 || math.IsNaN(total) {
		return 0
	}
	p := total / target
	return math.Max(0, math.Min(p, 1))
}
