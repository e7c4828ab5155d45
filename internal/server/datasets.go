package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"

	"github.com/KaramelBytes/prism-cli/internal/analysis"
	"github.com/KaramelBytes/prism-cli/internal/cleaning"
	"github.com/KaramelBytes/prism-cli/internal/dataset"
	"github.com/KaramelBytes/prism-cli/internal/ingest"
	"github.com/KaramelBytes/prism-cli/internal/session"
)

const headRows = 10

// DatasetInfo describes a session's current view.
type DatasetInfo struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	Rows     int             `json:"rows"`
	Columns  []ColumnInfo    `json:"columns"`
	Sampled  bool            `json:"sampled"`
	Filter   *session.Filter `json:"filter,omitempty"`
	LoadedAt time.Time       `json:"loaded_at"`
	Head     [][]any         `json:"head"`
	Index    []int           `json:"index"`
}

type ColumnInfo struct {
	Name string `json:"name"`
	Kind string `json:"kind"`
}

func infoOf(sess *session.Session) DatasetInfo {
	d := sess.Current
	info := DatasetInfo{
		ID:       sess.ID,
		Name:     sess.Name,
		Rows:     d.NumRows(),
		Sampled:  sess.Sampled,
		Filter:   sess.Filter,
		LoadedAt: sess.LoadedAt,
	}
	for i := 0; i < d.NumCols(); i++ {
		c := d.Column(i)
		info.Columns = append(info.Columns, ColumnInfo{Name: c.Name(), Kind: c.Kind().String()})
	}
	head := d.Head(headRows)
	info.Index = head.Index()
	for r := 0; r < head.NumRows(); r++ {
		row := make([]any, head.NumCols())
		for c := range row {
			row[c] = cellJSON(head.Cell(r, c))
		}
		info.Head = append(info.Head, row)
	}
	return info
}

// cellJSON maps missing to null and keeps numbers numeric.
func cellJSON(c dataset.Cell) any {
	if v, ok := c.Float(); ok {
		return v
	}
	if s, ok := c.Text(); ok {
		return s
	}
	return nil
}

func (s *Server) session(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sess, err := s.sessions.Get(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return nil, false
	}
	return sess, true
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.opt.MaxUploadBytes)
	file, hdr, err := r.FormFile("file")
	if err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, badRequest("multipart field \"file\" is required: %v", err))
		return
	}
	defer file.Close()
	name := filepath.Base(hdr.Filename)
	if !ingest.Supported(name) {
		s.fail(w, r, badRequest("unsupported file type %q (want .csv, .tsv or .xlsx)", filepath.Ext(name)))
		return
	}
	res, err := ingest.LoadReader(file, name, hdr.Size, s.opt.Ingest)
	if err != nil {
		if dataset.IsInputError(err) {
			s.fail(w, r, err)
			return
		}
		s.fail(w, r, badRequest("read %s: %v", name, err))
		return
	}
	sess, err := s.sessions.Create(res.Name, res.Dataset, res.Sampled)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	// The session is only kept once the client can be told its id.
	body, err := json.Marshal(infoOf(sess))
	if err != nil {
		s.sessions.Delete(sess.ID)
		s.fail(w, r, fmt.Errorf("encode %s: %w", name, err))
		return
	}
	s.metrics.datasetLoaded(strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), "."), res.Sampled)
	s.log.InfoContext(r.Context(), "dataset loaded",
		"session", sess.ID, "file", name, "rows", res.Dataset.NumRows(), "sampled", res.Sampled)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	_, _ = w.Write(body)
}

func (s *Server) handleInfo(w http.ResponseWriter, r *http.Request) {
	if sess, ok := s.session(w, r); ok {
		render.JSON(w, r, infoOf(sess))
	}
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if !s.sessions.Delete(chi.URLParam(r, "id")) {
		s.fail(w, r, session.ErrNotFound)
		return
	}
	render.NoContent(w, r)
}

func (s *Server) handleProfile(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	opt := s.opt.Profile
	if g := r.URL.Query().Get("group_by"); g != "" {
		opt.GroupBy = strings.Split(g, ",")
	}
	rep := analysis.Profile(sess.Current, sess.Name, opt)
	rep.Sampled = sess.Sampled
	if r.URL.Query().Get("format") == "markdown" {
		render.PlainText(w, r, rep.Markdown())
		return
	}
	render.JSON(w, r, rep)
}

// CategoryColumn lists the filterable values of one text column.
type CategoryColumn struct {
	Column string   `json:"column"`
	Values []string `json:"values"`
}

// handleCategories reads the original upload so a filter can always be
// switched to another value.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	d := sess.Original
	out := []CategoryColumn{}
	for _, j := range d.TextColumns() {
		name := d.Column(j).Name()
		cells, err := d.Distinct(name)
		if err != nil {
			s.fail(w, r, err)
			return
		}
		vals := make([]string, len(cells))
		for i, c := range cells {
			vals[i] = c.String()
		}
		out = append(out, CategoryColumn{Column: name, Values: vals})
	}
	render.JSON(w, r, out)
}

type filterRequest struct {
	Column string `json:"column" validate:"required"`
	Value  string `json:"value"`
}

func (f *filterRequest) Bind(*http.Request) error { return nil }

// handleFilter always filters the original upload, replacing any earlier
// filter rather than stacking on it.
func (s *Server) handleFilter(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	var req filterRequest
	if err := render.Bind(r, &req); err != nil {
		s.fail(w, r, badRequest("decode filter: %v", err))
		return
	}
	if err := s.validate.Struct(&req); err != nil {
		s.fail(w, r, err)
		return
	}
	filtered, err := ingest.FilterRows(sess.Original, req.Column, req.Value, s.opt.Ingest)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.sessions.Replace(sess.ID, filtered, &session.Filter{Column: req.Column, Value: req.Value})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, infoOf(updated))
}

func (s *Server) handleResetFilter(w http.ResponseWriter, r *http.Request) {
	updated, err := s.sessions.Reset(chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, infoOf(updated))
}

// CleanResponse reports a cleaning pass.
type CleanResponse struct {
	RowsRemoved int         `json:"rows_removed"`
	Message     string      `json:"message"`
	Dataset     DatasetInfo `json:"dataset"`
}

func (s *Server) handleClean(w http.ResponseWriter, r *http.Request) {
	sess, ok := s.session(w, r)
	if !ok {
		return
	}
	res, err := cleaning.Clean(sess.Current)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	updated, err := s.sessions.Replace(sess.ID, res.Dataset, nil)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	render.JSON(w, r, CleanResponse{
		RowsRemoved: res.RowsRemoved,
		Message:     fmt.Sprintf("Removed %d empty or duplicate rows.", res.RowsRemoved),
		Dataset:     infoOf(updated),
	})
}
