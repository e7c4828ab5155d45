// Package report renders the exportable artifacts of a session: the data
// as CSV or XLSX, the plain-text executive report, and a mailto link for
// the drafted CEO email.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
	"github.com/KaramelBytes/prism-cli/internal/insights"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
)

const (
	// EmailSubject is the subject line of the drafted CEO update.
	EmailSubject = "Executive Update: Q3 Performance"
	// ReportAction and ExportAction are the audit labels for downloads.
	ReportAction = "Download Executive Report"
	ExportAction = "Download Data"

	ReportFilename = "Executive_Summary.txt"
	CSVFilename    = "executive_data.csv"
	XLSXFilename   = "executive_data.xlsx"
)

// WriteCSV writes the header and every row. Missing cells are empty and
// numbers use their shortest exact form. Row labels are not written.
func WriteCSV(w io.Writer, d *dataset.Dataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	cw := csv.NewWriter(w)
	if err := cw.Write(d.Names()); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	rec := make([]string, d.NumCols())
	for r := 0; r < d.NumRows(); r++ {
		for c := range rec {
			rec[c] = d.Cell(r, c).String()
		}
		if err := cw.Write(rec); err != nil {
			return fmt.Errorf("write row %d: %w", r, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

const rule = "------------------------------------------------"

// ExecutiveReport renders the downloadable text summary. Without metrics
// the figures read N/A.
func ExecutiveReport(s metrics.Summary, ok bool, now time.Time) string {
	total, avg, top := "N/A", "N/A", "N/A"
	if ok {
		total = insights.FormatCurrency(s.TotalValue)
		avg = insights.FormatCurrency(s.AverageValue)
		top = s.TopColumn.String()
	}
	var b strings.Builder
	b.WriteString("EXECUTIVE INTELLIGENCE REPORT\n")
	b.WriteString("Generated via AI Nexus\n")
	b.WriteString(rule + "\n")
	fmt.Fprintf(&b, "DATE: %s\n\n", now.Format("2006-01-02 15:04"))
	b.WriteString("KEY METRICS:\n")
	fmt.Fprintf(&b, "- Total Revenue:  %s\n", total)
	fmt.Fprintf(&b, "- Top Segment:    %s\n", top)
	fmt.Fprintf(&b, "- Avg Ticket:     %s\n\n", avg)
	b.WriteString(rule + "\n")
	b.WriteString("STRATEGIC SUMMARY:\n")
	b.WriteString("(See Dashboard for AI generated insights)\n")
	return b.String()
}

// MailtoLink builds a mailto: URL with an empty recipient.
func MailtoLink(subject, body string) string {
	return "mailto:?subject=" + mailEscape(subject) + "&body=" + mailEscape(body)
}

// mailEscape percent-encodes s, spaces included, as mail clients expect.
func mailEscape(s string) string {
	return strings.ReplaceAll(url.QueryEscape(s), "+", "%20")
}
