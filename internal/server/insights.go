package server

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/prism-cli/internal/analysis"
	"github.com/KaramelBytes/prism-cli/internal/insights"
	"github.com/KaramelBytes/prism-cli/internal/metrics"
	"github.com/KaramelBytes/prism-cli/internal/report"
)

// SummaryResponse carries the key metrics. Figures are omitted, not
// zeroed, when Available is false.
type SummaryResponse struct {
	Available       bool            `json:"available"`
	TotalValue      *float64        `json:"total_value,omitempty"`
	AverageValue    *float64        `json:"average_value,omitempty"`
	TopColumn       string          `json:"top_column,omitempty"`
	Stats           []insights.Stat `json:"stats,omitempty"`
	RevenueTarget   float64         `json:"revenue_target"`
	RevenueProgress float64         `json:"revenue_progress"`
	Message         string          `json:"message,omitempty"`
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, ok := metrics.Summarize(sess.Current)
	resp := SummaryResponse{Available: ok, RevenueTarget: s.opt.RevenueTarget}
	if !ok {
		resp.Message = "No numeric data found in this dataset."
		render.JSON(w, r, resp)
		return
	}
	total, avg := sum.TotalValue, sum.AverageValue
	resp.TotalValue = &total
	resp.AverageValue = &avg
	resp.TopColumn = sum.TopColumn.String()
	resp.Stats = insights.Stats(sum)
	resp.RevenueProgress = insights.RevenueProgress(sum.TotalValue, s.opt.RevenueTarget)
	render.JSON(w, r, resp)
}

// AnomalyResponse locates the first outlying cell.
type AnomalyResponse struct {
	Found  bool    `json:"found"`
	Row    *int    `json:"row,omitempty"`
	Column string  `json:"column,omitempty"`
	Value  float64 `json:"value,omitempty"`
	ZScore float64 `json:"z_score,omitempty"`
}

func (s *Server) handleAnomaly(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	hits := metrics.FindAnomalies(sess.Current, metrics.AnomalyThreshold, 1)
	if len(hits) == 0 {
		render.JSON(w, r, AnomalyResponse{})
		return
	}
	a := hits[0]
	row := a.Row
	render.JSON(w, r, AnomalyResponse{Found: true, Row: &row, Column: a.Column, Value: a.Value, ZScore: a.ZScore})
}

const chartBars = 5

func (s *Server) handleChart(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	chart, ok := analysis.ChartData(sess.Current, chartBars)
	if !ok {
		render.JSON(w, r, map[string]any{"available": false, "message": "No categorical data available for chart."})
		return
	}
	render.JSON(w, r, map[string]any{"available": true, "column": chart.Column, "bars": chart.Bars})
}

type insightRequest struct {
	Kind string `json:"kind" validate:"required,oneof=trends anomalies actions email"`
}

func (i *insightRequest) Bind(*http.Request) error { return nil }

// InsightResponse is an LLM answer plus timing.
type InsightResponse struct {
	Kind    string  `json:"kind"`
	Title   string  `json:"title"`
	Text    string  `json:"text"`
	Model   string  `json:"model,omitempty"`
	Cached  bool    `json:"cached"`
	Busy    bool    `json:"busy"`
	Seconds float64 `json:"seconds"`
	Caption string  `json:"caption"`
	Mailto  string  `json:"mailto,omitempty"`
}

func (s *Server) handleInsight(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req insightRequest
	if err := render.Bind(r, &req); err != nil {
		s.fail(w, r, badRequest("decode insight request: %v", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.fail(w, r, err)
		return
	}
	if s.insights == nil {
		s.fail(w, r, fmt.Errorf("insight service not configured"))
		return
	}
	sum, ok := metrics.Summarize(sess.Current)
	if !ok {
		s.fail(w, r, badRequest("no numeric data to analyze"))
		return
	}
	kind, err := insights.ParseKind(req.Kind)
	if err != nil {
		s.fail(w, r, badRequest("%v", err))
		return
	}
	in := s.insights.Run(r.Context(), kind, sum, s.actor(r))
	s.metrics.insight(string(kind), in.Busy, in.Cached)
	resp := InsightResponse{
		Kind:    string(in.Kind),
		Title:   in.Title,
		Text:    in.Text,
		Model:   in.Model,
		Cached:  in.Cached,
		Busy:    in.Busy,
		Seconds: in.Seconds(),
		Caption: fmt.Sprintf("Generated in %.2fs", in.Seconds()),
	}
	if kind == insights.Email && !in.Busy {
		resp.Mailto = report.MailtoLink(report.EmailSubject, in.Text)
	}
	render.JSON(w, r, resp)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, sess.Current); err != nil {
		s.fail(w, r, err)
		return
	}
	s.recorder.Log(r.Context(), report.ExportAction, s.actor(r))
	download(w, "text/csv; charset=utf-8", report.CSVFilename, buf.Bytes())
}

func (s *Server) handleExportXLSX(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := report.WriteXLSX(&buf, sess.Current); err != nil {
		s.fail(w, r, err)
		return
	}
	s.recorder.Log(r.Context(), report.ExportAction, s.actor(r))
	download(w, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", report.XLSXFilename, buf.Bytes())
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	sum, ok := metrics.Summarize(sess.Current)
	text := report.ExecutiveReport(sum, ok, s.now())
	s.recorder.Log(r.Context(), report.ReportAction, s.actor(r))
	download(w, "text/plain; charset=utf-8", report.ReportFilename, []byte(text))
}

// download writes a body with attachment headers. Buffering first keeps a
// failed render from sending a half-written file with a 200.
func download(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
