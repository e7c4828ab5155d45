package server

import (
	"net/http"

	"github.com/go-chi/render"

	"github.com/KaramelBytes/prism-cli/internal/audit"
)

// LogsResponse is the audit trail view: headline stats over the full
// history plus the filtered entries.
type LogsResponse struct {
	Stats    audit.Stats   `json:"stats"`
	LastSync string        `json:"last_sync"`
	Entries  []audit.Entry `json:"entries"`
}

func (s *Server) handleLogs(w http.ResponseWriter, r *http.Request) {
	all, err := s.recorder.History(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	st := audit.Summarize(all)
	entries := audit.Search(audit.ByActor(all, r.URL.Query().Get("actor")), r.URL.Query().Get("q"))
	if entries == nil {
		entries = []audit.Entry{}
	}
	render.JSON(w, r, LogsResponse{Stats: st, LastSync: st.LastSync(), Entries: entries})
}
