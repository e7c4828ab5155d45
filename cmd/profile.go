package cmd

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/prism-cli/internal/analysis"
	"github.com/KaramelBytes/prism-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	profInput      inputFlags
	profOutputPath string
	profOutputDir  string
	profFormat     string
	profSampleRows int
	profGroupBy    []string
	profCorr       bool
	profOutliers   bool
	profOutlierThr float64
	profQuiet      bool
)

var profileCmd = &cobra.Command{
	Use:   "profile <files...>",
	Short: "Profile CSV/TSV/XLSX files: column types, stats, groups and correlations",
	Example: `  prism profile sales.csv
  prism profile sales.xlsx --sheet-name Q3 --group-by Region -o q3.md
  prism profile "data/*.csv" --output-dir summaries --quiet`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		files, err := expandInputs(args)
		if err != nil {
			return err
		}
		if profOutputPath != "" && len(files) > 1 {
			return fmt.Errorf("--output takes a single input; use --output-dir for %d files", len(files))
		}
		switch profFormat {
		case "markdown", "md", "json":
		default:
			return fmt.Errorf("unsupported --format: %s (use markdown|json)", profFormat)
		}
		c, _ := ensureConfig()

		opt := analysis.DefaultOptions()
		if profSampleRows >= 0 {
			opt.SampleRows = profSampleRows
		}
		opt.GroupBy = profGroupBy
		opt.Correlations = profCorr
		opt.Outliers = profOutliers
		if profOutlierThr > 0 {
			opt.OutlierThreshold = profOutlierThr
		}

		out := cmd.OutOrStdout()
		total := len(files)
		for i, path := range files {
			if total > 1 && !profQuiet {
				fmt.Fprintf(out, "[%d/%d] Processing %s...\n", i+1, total, filepath.Base(path))
			}
			in, err := profInput.load(path, c, cmd.ErrOrStderr())
			if err != nil {
				return fmt.Errorf("%s: %w", filepath.Base(path), err)
			}
			rep := analysis.Profile(in.Current, in.Name, opt)
			rep.Sampled = in.Sampled

			var body string
			ext := ".summary.md"
			if profFormat == "json" {
				b, err := utils.PrettyJSON(rep)
				if err != nil {
					return err
				}
				body, ext = string(b)+"\n", ".summary.json"
			} else {
				body = rep.Markdown()
			}

			dest := profOutputPath
			if dest == "" && profOutputDir != "" {
				base := filepath.Base(path)
				dest = filepath.Join(profOutputDir, strings.TrimSuffix(base, filepath.Ext(base))+ext)
			}
			if dest == "" {
				if !profQuiet || total == 1 {
					fmt.Fprintln(out, body)
				}
				continue
			}
			if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(dest, []byte(body)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			if !profQuiet {
				fmt.Fprintf(out, "✓ Wrote profile to %s\n", dest)
			}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profInput.bind(profileCmd)
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "write the profile to this path instead of stdout")
	profileCmd.Flags().StringVar(&profOutputDir, "output-dir", "", "write one <name>.summary.md per input into this directory")
	profileCmd.Flags().StringVar(&profFormat, "format", "markdown", "output format: markdown|json")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of head rows to include (0 disables)")
	profileCmd.Flags().StringSliceVar(&profGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	profileCmd.Flags().BoolVar(&profCorr, "correlations", true, "compute Pearson correlations among numeric columns")
	profileCmd.Flags().BoolVar(&profOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&profOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().BoolVar(&profQuiet, "quiet", false, "suppress progress and non-essential output")
}
