package cmd

import (
	"bytes"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/KaramelBytes/prism-cli/internal/cleaning"
	"github.com/KaramelBytes/prism-cli/internal/dataset"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
	"github.com/KaramelBytes/prism-cli/internal/report"
	"github.com/KaramelBytes/prism-cli/internal/utils"
	"github.com/spf13/cobra"
)

var (
	cleanInput  inputFlags
	cleanOutput string

	expInput  inputFlags
	expOutput string
	expClean  bool
	expActor  string

	repInput  inputFlags
	repOutput string
	repActor  string
)

var cleanCmd = &cobra.Command{
	Use:   "clean <file>",
	Short: "Drop empty columns, empty rows and duplicate rows",
	Long: `Clean removes entirely-empty columns, then entirely-empty rows, then
exact duplicate rows, and renumbers the remaining rows. Values are never
changed. With --output the cleaned table is written as CSV or XLSX.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, _ := ensureConfig()
		in, err := cleanInput.load(args[0], c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		res, err := cleaning.Clean(in.Current)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✓ Removed %d empty or duplicate rows.\n", res.RowsRemoved)
		if cleanOutput == "" {
			return nil
		}
		if err := writeTable(cleanOutput, res.Dataset); err != nil {
			return err
		}
		fmt.Fprintf(out, "✓ Wrote %d rows to %s\n", res.Dataset.NumRows(), cleanOutput)
		return nil
	},
}

var exportCmd = &cobra.Command{
	Use:   "export <file>",
	Short: "Export the (optionally filtered and cleaned) data as CSV or XLSX",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		in, err := expInput.load(args[0], c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		d := in.Current
		if expClean {
			res, err := cleaning.Clean(d)
			if err != nil {
				return err
			}
			d = res.Dataset
		}
		dest := expOutput
		if dest == "" {
			dest = report.CSVFilename
		}
		if err := writeTable(dest, d); err != nil {
			return err
		}
		if err := audited(cmd, report.ExportAction, expActor); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote %d rows to %s\n", d.NumRows(), dest)
		return nil
	},
}

var reportCmd = &cobra.Command{
	Use:   "report <file>",
	Short: "Write the plain-text executive report",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		c, err := ensureConfig()
		if err != nil {
			return err
		}
		in, err := repInput.load(args[0], c, cmd.ErrOrStderr())
		if err != nil {
			return err
		}
		summary, ok := metrics.Summarize(in.Current)
		body := report.ExecutiveReport(summary, ok, time.Now())
		if repOutput == "-" {
			fmt.Fprint(cmd.OutOrStdout(), body)
		} else {
			dest := repOutput
			if dest == "" {
				dest = report.ReportFilename
			}
			if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
				return err
			}
			if err := utils.SafeWriteFile(dest, []byte(body)); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote report to %s\n", dest)
		}
		return audited(cmd, report.ReportAction, repActor)
	},
}

// writeTable picks CSV or XLSX from the destination's extension.
func writeTable(dest string, d *dataset.Dataset) error {
	var buf bytes.Buffer
	var err error
	switch strings.ToLower(filepath.Ext(dest)) {
	case ".xlsx":
		err = report.WriteXLSX(&buf, d)
	case ".csv", "":
		err = report.WriteCSV(&buf, d)
	default:
		return fmt.Errorf("unsupported output type %q (want .csv or .xlsx)", filepath.Ext(dest))
	}
	if err != nil {
		return err
	}
	if err := utils.EnsureDir(filepath.Dir(dest)); err != nil {
		return err
	}
	if err := utils.SafeWriteFile(dest, buf.Bytes()); err != nil {
		return fmt.Errorf("write %s: %w", dest, err)
	}
	return nil
}

// audited records a download in the configured audit store.
func audited(cmd *cobra.Command, action, actor string) error {
	c, err := ensureConfig()
	if err != nil {
		return err
	}
	if actor == "" {
		actor = c.Actor
	}
	rec, err := openRecorder(cmd.Context(), c, newLogger(c))
	if err != nil {
		return err
	}
	defer rec.Store().Close()
	rec.Log(cmd.Context(), action, actor)
	return nil
}

func init() {
	rootCmd.AddCommand(cleanCmd)
	cleanInput.bind(cleanCmd)
	cleanCmd.Flags().StringVarP(&cleanOutput, "output", "o", "", "write the cleaned table to this .csv or .xlsx path")

	rootCmd.AddCommand(exportCmd)
	expInput.bind(exportCmd)
	exportCmd.Flags().StringVarP(&expOutput, "output", "o", "", "destination .csv or .xlsx (default "+report.CSVFilename+")")
	exportCmd.Flags().BoolVar(&expClean, "clean", false, "run the cleaning pass before exporting")
	exportCmd.Flags().StringVar(&expActor, "actor", "", "name recorded in the audit log (default from config)")

	rootCmd.AddCommand(reportCmd)
	repInput.bind(reportCmd)
	reportCmd.Flags().StringVarP(&repOutput, "output", "o", "", "destination path, or - for stdout (default "+report.ReportFilename+")")
	reportCmd.Flags().StringVar(&repActor, "actor", "", "name recorded in the audit log (default from config)")
}
