package report

import (
	"bytes"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/KaramelBytes/prism-cli/internal/dataset"
	"github.com/KaramelBytes/prism-cli/internal/ingest"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
)

func table(t *testing.T) *dataset.Dataset {
	t.Helper()
	d, err := dataset.New([]string{"Region", "Sales"}, [][]dataset.Cell{
		{dataset.Str("North"), dataset.Num(10)},
		{dataset.Str("South, East"), dataset.Null()},
		{dataset.Null(), dataset.Num(2.5)},
	})
	require.NoError(t, err)
	return d
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, table(t)))
	assert.Equal(t, "Region,Sales\nNorth,10\n\"South, East\",\n,2.5\n", buf.String())

	assert.Error(t, WriteCSV(&buf, nil))
}

func TestWriteCSVKeepsFilteredRowsOnly(t *testing.T) {
	d, err := table(t).Filter("Region", dataset.Str("North"))
	require.NoError(t, err)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, d))
	assert.Equal(t, "Region,Sales\nNorth,10\n", buf.String())
}

func TestWriteXLSXRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteXLSX(&buf, table(t)))

	res, err := ingest.LoadXLSXReader(bytes.NewReader(buf.Bytes()), XLSXFilename, int64(buf.Len()), ingest.DefaultOptions())
	require.NoError(t, err)
	d := res.Dataset
	assert.Equal(t, []string{"Region", "Sales"}, d.Names())
	require.Equal(t, 3, d.NumRows())
	assert.Equal(t, dataset.NumericColumn, d.Column(1).Kind())
	assert.True(t, d.Cell(1, 1).IsMissing())
	v, ok := d.Cell(2, 1).Float()
	require.True(t, ok)
	assert.Equal(t, 2.5, v)
}

func TestExecutiveReport(t *testing.T) {
	now := time.Date(2024, 10, 2, 14, 5, 0, 0, time.UTC)
	s := metrics.Summary{
		TotalValue:   1234567.891,
		AverageValue: 51,
		TopColumn:    metrics.Segment{Status: metrics.SegmentFound, Value: "North"},
	}
	out := ExecutiveReport(s, true, now)
	for _, want := range []string{
		"EXECUTIVE INTELLIGENCE REPORT\nGenerated via AI Nexus\n",
		"DATE: 2024-10-02 14:05",
		"- Total Revenue:  $1,234,567.89",
		"- Top Segment:    North",
		"- Avg Ticket:     $51.00",
		"STRATEGIC SUMMARY:",
	} {
		assert.Contains(t, out, want)
	}
	assert.Less(t, strings.Index(out, "Total Revenue"), strings.Index(out, "Top Segment"))
	assert.Less(t, strings.Index(out, "Top Segment"), strings.Index(out, "Avg Ticket"))

	empty := ExecutiveReport(metrics.Summary{}, false, now)
	assert.Contains(t, empty, "- Total Revenue:  N/A")
}

func TestMailtoLink(t *testing.T) {
	body := "Subject: Q3\nRevenue up 10% & costs flat"
	link := MailtoLink(EmailSubject, body)
	require.True(t, strings.HasPrefix(link, "mailto:?subject=Executive%20Update%3A%20Q3%20Performance&body="))
	assert.NotContains(t, link, "+")
	assert.NotContains(t, link, " ")

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "mailto", u.Scheme)
	q := u.Query()
	assert.Equal(t, EmailSubject, q.Get("subject"))
	assert.Equal(t, body, q.Get("body"))
}
