package cmd

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	cfgpkg "github.com/KaramelBytes/prism-cli/internal/config"
	"github.com/KaramelBytes/prism-cli/internal/dataset"
	"github.com/KaramelBytes/prism-cli/internal/ingest"
	"github.com/spf13/cobra"
)

// inputFlags are the parsing options shared by every command that reads a
// data file.
type inputFlags struct {
	delimiter  string
	decimal    string
	thousands  string
	maxRows    int
	sheetName  string
	sheetIndex int
	filter     string
}

func (f *inputFlags) bind(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.delimiter, "delimiter", "", "CSV delimiter: ',' | ';' | 'tab' | '|'")
	fs.StringVar(&f.decimal, "decimal", "", "decimal separator for numbers: '.'|'comma' (auto-detect if omitted)")
	fs.StringVar(&f.thousands, "thousands", "", "thousands separator for numbers: ','|'.'|'space' (auto-detect if omitted)")
	fs.IntVar(&f.maxRows, "max-rows", 0, "maximum rows to read (0 = unlimited)")
	fs.StringVar(&f.sheetName, "sheet-name", "", "XLSX: sheet name to read")
	fs.IntVar(&f.sheetIndex, "sheet-index", 0, "XLSX: 1-based sheet index (used if --sheet-name not provided)")
	fs.StringVar(&f.filter, "filter", "", "keep only rows where Column=Value")
}

func (f *inputFlags) reset() { *f = inputFlags{} }

// options merges the flags over the configured sampling policy.
func (f *inputFlags) options(c *cfgpkg.Global) (ingest.Options, error) {
	opt := ingest.DefaultOptions()
	if c != nil {
		opt.SampleThresholdBytes = c.SampleThresholdBytes()
		opt.SampleRows = c.SampleRows
	}
	opt.MaxRows = f.maxRows
	opt.Sheet = f.sheetName
	opt.SheetIndex = f.sheetIndex
	if err := parseSeparators(&opt, f.delimiter, f.decimal, f.thousands); err != nil {
		return opt, err
	}
	return opt, nil
}

func parseSeparators(opt *ingest.Options, delimiter, decimal, thousands string) error {
	switch delimiter {
	case "":
	case ",":
		opt.Delimiter = ','
	case "\t", "tab":
		opt.Delimiter = '\t'
	case ";":
		opt.Delimiter = ';'
	case "|", "pipe":
		opt.Delimiter = '|'
	default:
		return fmt.Errorf("unsupported --delimiter: %s", delimiter)
	}
	switch strings.ToLower(strings.TrimSpace(decimal)) {
	case ",", "comma":
		opt.DecimalSeparator = ','
	case ".", "dot":
		opt.DecimalSeparator = '.'
	case "":
	default:
		return fmt.Errorf("unsupported --decimal: %s (use '.'|'comma')", decimal)
	}
	switch strings.ToLower(thousands) {
	case ",":
		opt.ThousandsSeparator = ','
	case ".":
		opt.ThousandsSeparator = '.'
	case "space", " ":
		opt.ThousandsSeparator = ' '
	case "":
	default:
		return fmt.Errorf("unsupported --thousands: %s (use ','|'.'|'space')", thousands)
	}
	return nil
}

// loaded is a file read from disk with the optional filter applied.
type loaded struct {
	*ingest.Result
	// Current is the filtered view; Dataset stays the full upload.
	Current *dataset.Dataset
}

// load reads path and applies --filter. A sampled load prints the same
// warning the dashboard shows.
func (f *inputFlags) load(path string, c *cfgpkg.Global, warn io.Writer) (*loaded, error) {
	opt, err := f.options(c)
	if err != nil {
		return nil, err
	}
	res, err := ingest.LoadFile(path, opt)
	if err != nil {
		return nil, err
	}
	if res.Sampled && warn != nil {
		fmt.Fprintf(warn, "⚠ Large file. Loading %d row sample.\n", opt.SampleRows)
	}
	out := &loaded{Result: res, Current: res.Dataset}
	if f.filter != "" {
		col, val, ok := strings.Cut(f.filter, "=")
		if !ok || strings.TrimSpace(col) == "" {
			return nil, fmt.Errorf("invalid --filter %q (want Column=Value)", f.filter)
		}
		out.Current, err = ingest.FilterRows(res.Dataset, strings.TrimSpace(col), strings.TrimSpace(val), opt)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// expandInputs resolves globs, drops duplicates and sorts the result.
func expandInputs(args []string) ([]string, error) {
	var files []string
	seen := map[string]struct{}{}
	for _, arg := range args {
		matches, _ := filepath.Glob(arg)
		if len(matches) == 0 {
			// treat as literal path if exists
			if _, err := os.Stat(arg); err == nil {
				matches = []string{arg}
			}
		}
		for _, m := range matches {
			if _, ok := seen[m]; ok {
				continue
			}
			seen[m] = struct{}{}
			files = append(files, m)
		}
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no input files matched")
	}
	sort.Strings(files)
	return files, nil
}
