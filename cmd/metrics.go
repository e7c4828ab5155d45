package cmd

import (
	"fmt"
	"strings"

	"github.com/KaramelBytes/prism-cli/internal/analysis"
	"github.com/KaramelBytes/prism-cli/internal/insights"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
	"github.com/KaramelBytes/prism-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	metInput     inputFlags
	metAnomalies int
	metJSON      bool
)

type metricsOutput struct {
	File      string            `json:"file"`
	Rows      int               `json:"rows"`
	Sampled   bool              `json:"sampled"`
	Available bool              `json:"available"`
	Stats     []insights.Stat   `json:"stats,omitempty"`
	Progress  float64           `json:"revenue_progress"`
	Anomalies []metrics.Anomaly `json:"anomalies"`
	Chart     *analysis.Chart   `json:"chart,omitempty"`
}

var metricsCmd = &cobra.Command{
	Use:   "metrics <file>",
	Short: "Show key metrics, revenue progress, anomalies and the top categories",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := ensureConfig()
		in, err := metInput.load(args[0], c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		target := insights.DefaultRevenueTarget
		if c != nil && c.RevenueTarget > 0 {
			target = c.RevenueTarget
		}

		d := in.Current
		summary, ok := metrics.Summarize(d)
		res := metricsOutput{
			File:      in.Name,
			Rows:      d.NumRows(),
			Sampled:   in.Sampled,
			Available: ok,
			Anomalies: metrics.FindAnomalies(d, metrics.AnomalyThreshold, metAnomalies),
		}
		if ok {
			res.Stats = insights.Stats(summary)
			res.Progress = insights.RevenueProgress(summary.TotalValue, target)
		}
		if chart, ok := analysis.ChartData(d, 5); ok {
			res.Chart = &chart
		}

		out := cmd.OutOrStdout()
		if metJSON {
			b, err := utils.PrettyJSON(res)
			if err != nil {
				return err
			}
			fmt.Fprintln(out, string(b))
			return nil
		}

		fmt.Fprintf(out, "File: %s (%d rows)\n", res.File, res.Rows)
		if !ok {
			fmt.Fprintln(out, "No numeric data found in this dataset.")
		} else {
			for _, st := range res.Stats {
				fmt.Fprintf(out, "%-15s %s\n", st.Label+":", st.Value)
			}
			fmt.Fprintf(out, "Revenue target: %.0f%% of %s\n", res.Progress*100, insights.FormatCurrency(target))
		}
		if len(res.Anomalies) == 0 {
			fmt.Fprintln(out, "No anomalies detected.")
		}
		for _, a := range res.Anomalies {
			fmt.Fprintf(out, "⚠ Anomaly detected at Row %d in column '%s' (value %g, z=%.2f)\n", a.Row, a.Column, a.Value, a.ZScore)
		}
		if res.Chart != nil {
			fmt.Fprintf(out, "Top %s:\n", res.Chart.Column)
			for _, b := range res.Chart.Bars {
				fmt.Fprintf(out, "  %-20s %s %d\n", b.Value, strings.Repeat("█", barWidth(b.Count, res.Chart.Bars[0].Count)), b.Count)
			}
		}
		return nil
	},
}

// barWidth scales count against the largest bar to at most 30 cells.
func barWidth(count, max int) int {
	if max <= 0 || count <= 0 {
		return 0
	}
	w := count * 30 / max
	if w == 0 {
		w = 1
	}
	return w
}

func init() {
	rootCmd.AddCommand(metricsCmd)
	metInput.bind(metricsCmd)
	metricsCmd.Flags().IntVar(&metAnomalies, "anomalies", 1, "number of anomalies to list (0 = all)")
	metricsCmd.Flags().BoolVar(&metJSON, "json", false, "print machine-readable JSON")
}
